// Package credentials verifies and registers email/password accounts stored
// in PostgreSQL.
package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/arellanoelden/think-piece/internal/auth"
	"github.com/arellanoelden/think-piece/internal/db"
)

type Service struct {
	db *db.DB
}

func NewService(db *db.DB) *Service {
	return &Service{db: db}
}

// Register creates the credential for email, creating the user when needed.
func (s *Service) Register(
	ctx context.Context,
	email string,
	password string,
	displayName string,
) (*auth.Identity, error) {

	email = strings.TrimSpace(email)
	if email == "" {
		return nil, errors.New("email is required")
	}

	// 1. Hash first so a weak password never creates a user
	hash, version, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// 2. Find or create user by email
	acc := account{Email: email, DisplayName: displayName}
	var userID uuid.UUID

	err = tx.QueryRowContext(ctx, `
		SELECT id, email, email_verified, display_name, photo_url
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`, email).Scan(&userID, &acc.Email, &acc.EmailVerified, &acc.DisplayName, &acc.PhotoURL)

	if errors.Is(err, sql.ErrNoRows) {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO users (email, email_verified, display_name)
			VALUES ($1, false, $2)
			RETURNING id
		`, email, displayName).Scan(&userID)
	}
	if err != nil {
		return nil, fmt.Errorf("credentials: find or create user: %w", err)
	}

	// 3. Insert credentials; the unique user_id makes this race-safe
	res, err := tx.ExecContext(ctx, `
		INSERT INTO credentials (user_id, password_hash, hash_version)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, hash, version)
	if err != nil {
		return nil, fmt.Errorf("credentials: insert: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, auth.ErrAlreadyRegistered
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	acc.UserID = userID.String()
	return acc.identity(), nil
}

// Authenticate returns the identity for a matching email/password pair and
// auth.ErrInvalidCredentials otherwise.
func (s *Service) Authenticate(
	ctx context.Context,
	email string,
	password string,
) (*auth.Identity, error) {

	var (
		acc    account
		userID uuid.UUID
	)

	// 1. Find user + credentials
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.email_verified, u.display_name, u.photo_url,
		       c.password_hash, c.hash_version
		FROM users u
		JOIN credentials c ON c.user_id = u.id
		WHERE LOWER(u.email) = LOWER($1)
		  AND u.status = 'active'
	`, strings.TrimSpace(email)).Scan(
		&userID,
		&acc.Email,
		&acc.EmailVerified,
		&acc.DisplayName,
		&acc.PhotoURL,
		&acc.PasswordHash,
		&acc.HashVersion,
	)

	if errors.Is(err, sql.ErrNoRows) {
		// hide whether the user exists or not
		return nil, auth.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("credentials: lookup: %w", err)
	}

	// 2. Verify password
	if err := VerifyPassword(acc.PasswordHash, acc.HashVersion, password); err != nil {
		return nil, auth.ErrInvalidCredentials
	}

	acc.UserID = userID.String()
	return acc.identity(), nil
}
