// identity_repository.go implements IdentityRepository, providing database
// queries for auth identities and their login sessions.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/leadpocket/leadpocket/internal/db/models"
)

// IdentityRepository handles database operations for auth identities and sessions
type IdentityRepository struct {
	db *sql.DB
}

// NewIdentityRepository creates a new identity repository
func NewIdentityRepository(db *sql.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// CreateIdentity inserts a new auth identity. The ID and creation timestamp
// are assigned by the database and written back into identity.
func (r *IdentityRepository) CreateIdentity(ctx context.Context, identity *models.Identity) error {
	query := `
		INSERT INTO identities (email, password_hash, full_name)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query, identity.Email, identity.PasswordHash, identity.FullName).Scan(
		&identity.ID,
		&identity.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create identity: %w", err)
	}

	return nil
}

// GetIdentityByEmail retrieves an identity by email
func (r *IdentityRepository) GetIdentityByEmail(ctx context.Context, email string) (*models.Identity, error) {
	query := `
		SELECT id, email, password_hash, full_name, created_at
		FROM identities
		WHERE email = $1
	`

	identity := &models.Identity{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&identity.ID,
		&identity.Email,
		&identity.PasswordHash,
		&identity.FullName,
		&identity.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}

	return identity, nil
}

// === Session operations ===

// CreateSession inserts a new session row for an identity
func (r *IdentityRepository) CreateSession(ctx context.Context, identityID string, expiresAt time.Time) (*models.Session, error) {
	query := `
		INSERT INTO sessions (identity_id, expires_at)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	session := &models.Session{
		IdentityID: identityID,
		ExpiresAt:  expiresAt,
	}
	err := r.db.QueryRowContext(ctx, query, identityID, expiresAt).Scan(
		&session.ID,
		&session.CreatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// GetSession retrieves a session by ID
func (r *IdentityRepository) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	query := `
		SELECT id, identity_id, created_at, expires_at, revoked_at
		FROM sessions
		WHERE id = $1
	`

	session := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&session.ID,
		&session.IdentityID,
		&session.CreatedAt,
		&session.ExpiresAt,
		&session.RevokedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

// RevokeSession marks a session revoked. Revoking an already-revoked session
// is a no-op, so sign-out stays idempotent.
func (r *IdentityRepository) RevokeSession(ctx context.Context, sessionID string) error {
	query := `
		UPDATE sessions
		SET revoked_at = NOW()
		WHERE id = $1 AND revoked_at IS NULL
	`

	_, err := r.db.ExecContext(ctx, query, sessionID)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	return nil
}
