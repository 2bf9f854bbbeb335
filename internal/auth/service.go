// Package auth implements registration and login policy on top of the
// user store: role parsing, the admin secret gate, and credential checks.
package auth

import (
	"context"
	"errors"

	"examhall/internal/exam"
)

var (
	ErrBadSecret = errors.New("auth: invalid admin secret")
	ErrBadRole   = errors.New("auth: invalid role")
)

// UserStore is the slice of the store the service needs.
type UserStore interface {
	AddUser(ctx context.Context, name, password string, role exam.Role) (int64, error)
	ValidateUser(ctx context.Context, name, password string) (int64, error)
	UserRole(ctx context.Context, name string) (exam.Role, error)
}

type Service struct {
	store  UserStore
	secret string
}

// NewService builds the service around a user store and the
// environment-supplied admin secret.
func NewService(store UserStore, adminSecret string) *Service {
	return &Service{store: store, secret: adminSecret}
}

// Register creates a user. The role defaults to student when empty;
// registering an admin requires the configured secret.
func (s *Service) Register(ctx context.Context, name, password, role, secret string) (int64, exam.Role, error) {
	parsed := exam.RoleStudent
	if role != "" {
		r, ok := exam.ParseRole(role)
		if !ok {
			return 0, "", ErrBadRole
		}
		parsed = r
	}

	if parsed == exam.RoleAdmin && secret != s.secret {
		return 0, "", ErrBadSecret
	}

	id, err := s.store.AddUser(ctx, name, password, parsed)
	if err != nil {
		return 0, "", err
	}
	return id, parsed, nil
}

// Login authenticates a name/password pair and returns the user's id and
// stored role.
func (s *Service) Login(ctx context.Context, name, password string) (int64, exam.Role, error) {
	id, err := s.store.ValidateUser(ctx, name, password)
	if err != nil {
		return 0, "", err
	}

	role, err := s.store.UserRole(ctx, name)
	if err != nil {
		return 0, "", err
	}

	return id, role, nil
}
