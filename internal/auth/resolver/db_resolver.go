package resolver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/arellanoelden/think-piece/internal/auth"
	"github.com/arellanoelden/think-piece/internal/db"
)

// DBResolver resolves identities against the users and identities tables.
type DBResolver struct {
	db *db.DB
}

var _ Resolver = (*DBResolver)(nil)

func NewDBResolver(db *db.DB) *DBResolver {
	return &DBResolver{db: db}
}

func (r *DBResolver) Resolve(
	ctx context.Context,
	ext *auth.ExternalIdentity,
) (*auth.Identity, error) {

	if ext == nil {
		return nil, errors.New("identity is nil")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var userID uuid.UUID

	// 1. Try identity lookup (provider + subject)
	err = tx.QueryRowContext(ctx, `
		SELECT user_id
		FROM identities
		WHERE provider = $1
		  AND provider_user_id = $2
	`,
		ext.Provider,
		ext.Subject,
	).Scan(&userID)

	switch {
	case err == nil:
		// known identity

	case errors.Is(err, sql.ErrNoRows):
		// 2. Link by verified email, or create the user
		userID, err = r.linkOrCreate(ctx, tx, ext)
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("resolver: identity lookup: %w", err)
	}

	// 3. Fill in profile facts the user does not have yet
	id := &auth.Identity{UID: userID.String(), Provider: ext.Provider}
	err = tx.QueryRowContext(ctx, `
		UPDATE users SET
		    display_name = CASE WHEN display_name = '' THEN $2 ELSE display_name END,
		    photo_url = CASE WHEN photo_url = '' THEN $3 ELSE photo_url END,
		    email_verified = email_verified OR $4,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING email, email_verified, display_name, photo_url
	`,
		userID,
		ext.Name,
		ext.Picture,
		ext.EmailVerified,
	).Scan(&id.Email, &id.EmailVerified, &id.DisplayName, &id.PhotoURL)
	if err != nil {
		return nil, fmt.Errorf("resolver: load user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return id, nil
}

func (r *DBResolver) linkOrCreate(
	ctx context.Context,
	tx *sql.Tx,
	ext *auth.ExternalIdentity,
) (uuid.UUID, error) {

	var userID uuid.UUID

	// Only a verified email may claim an existing account.
	err := sql.ErrNoRows
	if ext.EmailVerified {
		err = tx.QueryRowContext(ctx, `
			SELECT id
			FROM users
			WHERE LOWER(email) = LOWER($1)
		`,
			ext.Email,
		).Scan(&userID)
	}

	if errors.Is(err, sql.ErrNoRows) {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO users (email, email_verified, display_name, photo_url)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`,
			ext.Email,
			ext.EmailVerified,
			ext.Name,
			ext.Picture,
		).Scan(&userID)
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolver: find or create user: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO identities (user_id, provider, provider_user_id)
		VALUES ($1, $2, $3)
	`,
		userID,
		ext.Provider,
		ext.Subject,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolver: link identity: %w", err)
	}

	return userID, nil
}
