// Package search implements the employee search engine: structured
// filtering, term matching with relevance scoring, fuzzy name matching,
// sorting and pagination. The engine is stateless; it delegates data access
// to a Directory collaborator and never sees rows outside the caller's
// organization.
package search

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Searchable field names accepted in Filters.SearchFields.
const (
	FieldName       = "name"
	FieldEmail      = "email"
	FieldDepartment = "department"
	FieldPosition   = "position"
	FieldLocation   = "location"
)

// SortRelevance orders by descending match relevance; it is only meaningful
// when a search term is present.
const SortRelevance = "relevance"

// DefaultSearchFields are searched when the caller does not pick any.
var DefaultSearchFields = []string{FieldName, FieldEmail}

var searchableFields = map[string]bool{
	FieldName:       true,
	FieldEmail:      true,
	FieldDepartment: true,
	FieldPosition:   true,
	FieldLocation:   true,
}

var sortableFields = map[string]bool{
	"name":       true,
	"email":      true,
	"created_at": true,
	"updated_at": true,
	"department": true,
	"position":   true,
	"location":   true,
	"relevance":  true,
}

// AllowedColumns is the projection whitelist. The set is configuration, not
// something discovered from the record at runtime.
var AllowedColumns = []string{
	"id", "name", "email", "phone", "status",
	"department", "position", "location",
	"created_at", "updated_at",
}

var allowedColumnSet = func() map[string]bool {
	m := make(map[string]bool, len(AllowedColumns))
	for _, c := range AllowedColumns {
		m[c] = true
	}
	return m
}()

// DefaultColumns is the projection used when neither the request nor the
// organization configuration picks one.
var DefaultColumns = []string{"name", "email", "phone", "status", "department", "position", "location"}

// Filters is the deserialized search request. Absent optional filters impose
// no constraint.
type Filters struct {
	// Structured filters, AND-combined.
	Status        []string    `json:"status,omitempty"`
	DepartmentIDs []uuid.UUID `json:"department_ids,omitempty"`
	PositionIDs   []uuid.UUID `json:"position_ids,omitempty"`
	LocationIDs   []uuid.UUID `json:"location_ids,omitempty"`
	Name          string      `json:"name,omitempty"`

	// Advanced filters.
	SearchTerm    string     `json:"search_term,omitempty"`
	FuzzyMatch    bool       `json:"fuzzy_match,omitempty"`
	EmailDomain   string     `json:"email_domain,omitempty"`
	PhonePrefix   string     `json:"phone_prefix,omitempty"`
	HasEmail      *bool      `json:"has_email,omitempty"`
	HasPhone      *bool      `json:"has_phone,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
	UpdatedAfter  *time.Time `json:"updated_after,omitempty"`
	UpdatedBefore *time.Time `json:"updated_before,omitempty"`

	// Search configuration.
	SearchFields  []string `json:"search_fields,omitempty"`
	ExactMatch    bool     `json:"exact_match,omitempty"`
	CaseSensitive bool     `json:"case_sensitive,omitempty"`

	// Ranking configuration.
	SortBy                string `json:"sort_by,omitempty"`
	SortOrder             string `json:"sort_order,omitempty"`
	IncludeRelevanceScore bool   `json:"include_relevance_score,omitempty"`

	// Pagination.
	Page     int `json:"page"`
	PageSize int `json:"page_size"`

	// Projection; empty means the organization's configured columns.
	Columns []string `json:"columns,omitempty"`
}

// ValidationError reports a structurally invalid filter value. It is never
// retried or silently corrected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Pagination bounds. Omitted values fall back to the defaults; oversized
// pages are rejected, not clamped.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Normalize fills pagination defaults for omitted values.
func (f *Filters) Normalize() {
	if f.Page == 0 {
		f.Page = 1
	}
	if f.PageSize == 0 {
		f.PageSize = DefaultPageSize
	}
}

// Validate rejects structurally invalid filters.
func (f *Filters) Validate() error {
	if f.Page < 1 {
		return &ValidationError{Field: "page", Message: "must be >= 1"}
	}
	if f.PageSize < 1 {
		return &ValidationError{Field: "page_size", Message: "must be >= 1"}
	}
	if f.PageSize > MaxPageSize {
		return &ValidationError{Field: "page_size", Message: fmt.Sprintf("must be <= %d", MaxPageSize)}
	}
	switch f.SortOrder {
	case "", "asc", "desc":
	default:
		return &ValidationError{Field: "sort_order", Message: `must be "asc" or "desc"`}
	}
	if f.SortBy != "" && !sortableFields[f.SortBy] {
		return &ValidationError{Field: "sort_by", Message: fmt.Sprintf("unknown sort field %q", f.SortBy)}
	}
	if f.SortBy == SortRelevance && f.SearchTerm == "" {
		return &ValidationError{Field: "sort_by", Message: "relevance sorting requires a search_term"}
	}
	for _, field := range f.SearchFields {
		if !searchableFields[field] {
			return &ValidationError{Field: "search_fields", Message: fmt.Sprintf("unknown field %q", field)}
		}
	}
	for _, col := range f.Columns {
		if !allowedColumnSet[col] {
			return &ValidationError{Field: "columns", Message: fmt.Sprintf("unknown column %q", col)}
		}
	}
	return nil
}

// ValidColumn reports whether col is in the projection whitelist.
func ValidColumn(col string) bool {
	return allowedColumnSet[col]
}

// Criteria is the predicate set handed to the data-access collaborator.
// OrgID is mandatory and always applied first; zero values elsewhere impose
// no constraint.
type Criteria struct {
	OrgID string

	Status        []string
	DepartmentIDs []uuid.UUID
	PositionIDs   []uuid.UUID
	LocationIDs   []uuid.UUID
	NameContains  string

	EmailDomain   string
	PhonePrefix   string
	HasEmail      *bool
	HasPhone      *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	UpdatedAfter  *time.Time
	UpdatedBefore *time.Time

	// Term group, OR-combined across TermFields and ANDed with the rest.
	// Empty Term means no term predicate.
	Term          string
	TermFields    []string
	ExactMatch    bool
	CaseSensitive bool
}

// SortSpec tells the collaborator how to order matching rows.
type SortSpec struct {
	Field string // sortable field name, or "relevance"
	Desc  bool
}
