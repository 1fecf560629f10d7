package users

import (
	"context"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	users    Repository
	hashCost int
}

func NewService(users Repository) *Service {
	return &Service{
		users:    users,
		hashCost: bcrypt.DefaultCost,
	}
}

// Register stores a new account. Usernames are compared exactly, so "Ann"
// and "ann" are different users. A taken username is reported before the
// role is checked. Surrounding whitespace is dropped from the password.
func (s *Service) Register(ctx context.Context, username, password string, role Role) error {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" {
		return ErrInvalidUsername
	}
	if _, err := s.users.GetUser(ctx, username); err == nil {
		return ErrUsernameTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return err
	}
	if role == RoleGuest || !role.Valid() {
		return ErrInvalidRole
	}

	hashed, err := HashPassword(password, s.hashCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}

	if err := s.users.CreateUser(ctx, User{
		Username:     username,
		PasswordHash: hashed,
		Role:         role,
	}); err != nil {
		return err
	}

	glog.Infof("registered %s user %s", role, username)
	return nil
}

// Authenticate returns the user when the password matches. A missing user
// and a wrong password are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, bool, error) {
	user, err := s.users.GetUser(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, false, nil
		}
		return User{}, false, err
	}

	if !VerifyPassword(user.PasswordHash, strings.TrimSpace(password)) {
		glog.V(2).Infof("password mismatch for %s", user.Username)
		return User{}, false, nil
	}
	return user, true, nil
}
