package store

import (
	"context"
	"database/sql"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"examhall/internal/exam"
)

// AddUser registers a user. The password is stored as a bcrypt hash,
// never verbatim. Returns exam.ErrUserExists when the name is taken.
func (s *Store) AddUser(ctx context.Context, name, password string, role exam.Role) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO users (name, password, role) VALUES (?, ?, ?)`,
		name,
		string(hash),
		string(role),
	)
	if err != nil {
		return 0, err
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if inserted == 0 {
		return 0, exam.ErrUserExists
	}

	return res.LastInsertId()
}

// ValidateUser checks a name/password pair against the stored hash and
// returns the user id. Unknown names and bad passwords both map to
// exam.ErrInvalidCredentials so the reply does not leak which it was.
func (s *Store) ValidateUser(ctx context.Context, name, password string) (int64, error) {
	var (
		id   int64
		hash string
	)
	err := s.db.QueryRowContext(
		ctx,
		`SELECT id, password FROM users WHERE name = ?`,
		name,
	).Scan(&id, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, exam.ErrInvalidCredentials
		}
		return 0, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return 0, exam.ErrInvalidCredentials
	}

	return id, nil
}

// UserRole returns the stored role for a username.
func (s *Store) UserRole(ctx context.Context, name string) (exam.Role, error) {
	var role string
	err := s.db.QueryRowContext(
		ctx,
		`SELECT role FROM users WHERE name = ?`,
		name,
	).Scan(&role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", exam.ErrUserNotFound
		}
		return "", err
	}
	return exam.Role(role), nil
}
