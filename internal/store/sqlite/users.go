package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"classquiz/internal/users"
)

func (s *Store) CreateUser(ctx context.Context, user users.User) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)`,
		user.Username,
		user.PasswordHash,
		string(user.Role),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return users.ErrUsernameTaken
		}
		return errors.Wrapf(err, "insert user %s", user.Username)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, username string) (users.User, error) {
	user := users.User{Username: username}
	var role string
	err := s.db.QueryRowContext(
		ctx,
		`SELECT password_hash, role FROM users WHERE username = ?`,
		username,
	).Scan(&user.PasswordHash, &role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return users.User{}, users.ErrUserNotFound
		}
		return users.User{}, errors.Wrapf(err, "select user %s", username)
	}

	user.Role = users.Role(role)
	if role == "" {
		user.Role = users.RoleStudent
	}
	return user, nil
}
