// Package repositories implements the data access layer (repository pattern)
// for LeadPocket. Each repository type encapsulates all database queries for a
// domain entity. Handlers never issue SQL directly — all database access goes
// through this layer, which keeps query logic testable in isolation and
// prevents accidental cross-tenant data access.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/leadpocket/leadpocket/internal/db/models"
)

// DefaultSubscriptionPlan is assigned to every organization created at sign-up.
const DefaultSubscriptionPlan = "starter"

// OrganizationRepository handles database operations for organizations
type OrganizationRepository struct {
	db *sql.DB
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db *sql.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// Create inserts a new organization. The ID, timestamps, and subscription plan
// default are assigned by the database and written back into org.
func (r *OrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	if org.SubscriptionPlan == "" {
		org.SubscriptionPlan = DefaultSubscriptionPlan
	}

	query := `
		INSERT INTO organizations (name, domain, subscription_plan)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query, org.Name, org.Domain, org.SubscriptionPlan).Scan(
		&org.ID,
		&org.CreatedAt,
		&org.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}

	return nil
}

// GetByID retrieves an organization by ID
func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	query := `
		SELECT id, name, domain, subscription_plan, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`

	org := &models.Organization{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&org.ID,
		&org.Name,
		&org.Domain,
		&org.SubscriptionPlan,
		&org.CreatedAt,
		&org.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	return org, nil
}
