package users

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrUsernameTaken   = errors.New("username already exists")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidRole     = errors.New("invalid role")
	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidPassword = errors.New("invalid password")
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleGuest   Role = "guest"
)

// ParseRegistrationRole accepts the roles a person may sign up with. Guests
// are never registered, they only exist for the length of a session.
func ParseRegistrationRole(value string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case "", RoleStudent:
		return RoleStudent, nil
	case RoleTeacher:
		return RoleTeacher, nil
	default:
		return "", ErrInvalidRole
	}
}

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleGuest:
		return true
	}
	return false
}

type User struct {
	Username     string
	PasswordHash string
	Role         Role
}

// Repository persists users keyed by exact username. CreateUser must refuse
// an existing username with ErrUsernameTaken.
type Repository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, username string) (User, error)
}
