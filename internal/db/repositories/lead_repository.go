// lead_repository.go implements LeadRepository, providing organization-scoped
// database queries for sales leads.
package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/leadpocket/leadpocket/internal/db/models"
)

// LeadRepository handles database operations for leads
type LeadRepository struct {
	db *sqlx.DB
}

// NewLeadRepository creates a new lead repository
func NewLeadRepository(db *sqlx.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

// ListByOrganization returns all leads belonging to the organization, newest
// first. The result is never nil: an organization with no leads gets an empty
// slice so the HTTP layer serializes [] rather than null.
func (r *LeadRepository) ListByOrganization(ctx context.Context, organizationID string) ([]*models.Lead, error) {
	query := `
		SELECT id, name, email, phone, product_type, job_value, status, organization_id, created_by, created_at
		FROM leads
		WHERE organization_id = $1
		ORDER BY created_at DESC
	`

	leads := []*models.Lead{}
	if err := r.db.SelectContext(ctx, &leads, query, organizationID); err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}

	return leads, nil
}

// Create inserts a new lead with status forced to "new" regardless of what the
// caller put in lead.Status. The ID, stored status, and creation timestamp are
// assigned by the database and written back into lead.
func (r *LeadRepository) Create(ctx context.Context, lead *models.Lead) error {
	query := `
		INSERT INTO leads (name, email, phone, product_type, job_value, status, organization_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, status, created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.ProductType,
		lead.JobValue,
		models.StatusNew,
		lead.OrganizationID,
		lead.CreatedBy,
	).Scan(
		&lead.ID,
		&lead.Status,
		&lead.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}

	return nil
}
