// Package models - user.go defines the auth Identity and the application-level
// Profile. An Identity is what the password belongs to; a Profile is the CRM's
// own record of that person, scoped to an organization. The two are linked
// one-to-one through Profile.AuthUserID.
package models

import "time"

// RoleAdmin is assigned to the profile that creates an organization at sign-up.
const RoleAdmin = "admin"

// Identity represents an authentication identity (email + password credential).
// PasswordHash never crosses the API boundary.
type Identity struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile represents an application-level user row, joined with its
// organization when loaded through ProfileRepository.GetByAuthUserID.
type Profile struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	OrganizationID string    `json:"organization_id"`
	AuthUserID     string    `json:"auth_user_id"`
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`

	// Organization is populated only by queries that join organizations.
	Organization *Organization `json:"organization,omitempty"`
}

// IsAdmin returns true if the profile carries the admin role
func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}
