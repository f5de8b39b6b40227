package models

import "time"

// Lead status values. New leads always start as StatusNew; the stored status
// never comes from client input at creation time.
const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusWon       = "won"
)

// Product types a lead can be interested in.
const (
	ProductShutters = "shutters"
	ProductBlinds   = "blinds"
	ProductCurtains = "curtains"
)

// Lead represents a sales prospect scoped to one organization
type Lead struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Email          string    `db:"email" json:"email"`
	Phone          string    `db:"phone" json:"phone"`
	ProductType    string    `db:"product_type" json:"product_type"`
	JobValue       float64   `db:"job_value" json:"job_value"`
	Status         string    `db:"status" json:"status"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	CreatedBy      string    `db:"created_by" json:"created_by"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
