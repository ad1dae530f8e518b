// Package models defines the data model for the staff directory.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Employee statuses stored in the status column. The column is free-form so
// organizations can define their own lifecycle states; these are the ones the
// seed data and tests use.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusOnLeave  = "on_leave"
)

// Employee is a directory entry. Every employee belongs to exactly one
// organization; the organization ID is never inferred, it always comes from
// the caller.
type Employee struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Email          *string    `json:"email,omitempty"`
	Phone          *string    `json:"phone,omitempty"`
	Status         string     `json:"status"`
	OrganizationID string     `json:"organization_id"`
	DepartmentID   *uuid.UUID `json:"department_id,omitempty"`
	PositionID     *uuid.UUID `json:"position_id,omitempty"`
	LocationID     *uuid.UUID `json:"location_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Joined names, populated by queries that join the reference tables.
	DepartmentName *string `json:"department,omitempty"`
	PositionName   *string `json:"position,omitempty"`
	LocationName   *string `json:"location,omitempty"`
}

// NewEmployee creates an Employee with a fresh ID and timestamps.
func NewEmployee(orgID, name, status string) *Employee {
	now := time.Now().UTC()
	return &Employee{
		ID:             uuid.New(),
		Name:           name,
		Status:         status,
		OrganizationID: orgID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Department is a reference entity; name is unique per organization.
type Department struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Description    *string   `json:"description,omitempty"`
	OrganizationID string    `json:"organization_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Position is a reference entity; name is unique per organization.
type Position struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Description    *string   `json:"description,omitempty"`
	OrganizationID string    `json:"organization_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Location is a reference entity; name is unique per organization.
type Location struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Address        *string   `json:"address,omitempty"`
	City           *string   `json:"city,omitempty"`
	Country        *string   `json:"country,omitempty"`
	OrganizationID string    `json:"organization_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
