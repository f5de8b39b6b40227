// Package models - organization.go defines the Organization model representing a
// tenant: it owns users and leads and is the unit of data isolation.
package models

import "time"

// Organization represents a tenant in the CRM
type Organization struct {
	ID               string    `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Domain           *string   `db:"domain" json:"domain,omitempty"`
	SubscriptionPlan string    `db:"subscription_plan" json:"subscription_plan"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}
