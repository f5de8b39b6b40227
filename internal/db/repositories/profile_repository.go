// profile_repository.go implements ProfileRepository, providing database
// queries for application-level user profiles and their organization join.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/leadpocket/leadpocket/internal/db/models"
)

// ErrProfileNotFound is returned by GetByAuthUserID when no profile row exists
// for the identity. Unlike the other repositories, absence here is an error:
// callers ask for the profile of an authenticated identity, and a missing row
// means the sign-up flow left an orphaned identity behind.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileRepository handles database operations for user profiles
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create inserts a new profile row. The ID and creation timestamp are
// assigned by the database and written back into profile.
func (r *ProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	query := `
		INSERT INTO users (email, full_name, organization_id, auth_user_id, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		profile.Email,
		profile.FullName,
		profile.OrganizationID,
		profile.AuthUserID,
		profile.Role,
	).Scan(
		&profile.ID,
		&profile.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

// GetByAuthUserID retrieves the single profile row for an auth identity,
// joined with its organization. Zero rows is ErrProfileNotFound; the UNIQUE
// constraint on users.auth_user_id guarantees at most one row.
func (r *ProfileRepository) GetByAuthUserID(ctx context.Context, authUserID string) (*models.Profile, error) {
	query := `
		SELECT u.id, u.email, u.full_name, u.organization_id, u.auth_user_id, u.role, u.created_at,
		       o.id, o.name, o.domain, o.subscription_plan, o.created_at, o.updated_at
		FROM users u
		JOIN organizations o ON o.id = u.organization_id
		WHERE u.auth_user_id = $1
	`

	profile := &models.Profile{Organization: &models.Organization{}}
	err := r.db.QueryRowContext(ctx, query, authUserID).Scan(
		&profile.ID,
		&profile.Email,
		&profile.FullName,
		&profile.OrganizationID,
		&profile.AuthUserID,
		&profile.Role,
		&profile.CreatedAt,
		&profile.Organization.ID,
		&profile.Organization.Name,
		&profile.Organization.Domain,
		&profile.Organization.SubscriptionPlan,
		&profile.Organization.CreatedAt,
		&profile.Organization.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrProfileNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return profile, nil
}
