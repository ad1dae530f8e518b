package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/oakline/staffdir/internal/models"
)

// Directory is the data-access collaborator the engine consumes. It owns
// index usage, the joins to departments/positions/locations, and all
// persistence concerns. Every Criteria carries the organization scope.
type Directory interface {
	CountMatching(ctx context.Context, c Criteria) (int64, error)
	FetchPage(ctx context.Context, c Criteria, sort SortSpec, offset, limit int) ([]*models.Employee, error)
	SuggestValues(ctx context.Context, orgID, kind, term string, limit int) ([]Suggestion, error)
}

// Item is one search result projected onto the requested columns, plus an
// optional relevance_score.
type Item map[string]any

// SortInfo echoes the applied sort in metadata.
type SortInfo struct {
	SortBy    string `json:"sort_by,omitempty"`
	SortOrder string `json:"sort_order,omitempty"`
}

// Metadata describes how a search was executed. Purely descriptive; it never
// affects the returned item set.
type Metadata struct {
	SearchTerm          string   `json:"search_term,omitempty"`
	SearchTermProcessed string   `json:"search_term_processed,omitempty"`
	SearchApplied       bool     `json:"search_applied"`
	FuzzyMatch          bool     `json:"fuzzy_match"`
	ExactMatch          bool     `json:"exact_match"`
	FieldsSearched      []string `json:"fields_searched"`
	FiltersApplied      []string `json:"filters_applied"`
	Sorting             SortInfo `json:"sorting"`
	TotalResults        int64    `json:"total_results"`
	PageResults         int      `json:"page_results"`
}

// Result is a ranked page of search results with the total match count.
type Result struct {
	Items    []Item
	Total    int64
	Columns  []string
	Metadata Metadata
}

// Engine composes filter predicates, the relevance scorer, the fuzzy matcher,
// sort policy and pagination into one search operation. It holds no mutable
// state between calls.
type Engine struct {
	dir          Directory
	logger       zerolog.Logger
	queryTimeout time.Duration
}

// NewEngine creates a search engine over the given directory collaborator.
func NewEngine(dir Directory, queryTimeout time.Duration, logger zerolog.Logger) *Engine {
	if queryTimeout <= 0 {
		queryTimeout = 10 * time.Second
	}
	return &Engine{
		dir:          dir,
		logger:       logger.With().Str("component", "search_engine").Logger(),
		queryTimeout: queryTimeout,
	}
}

// Search runs the full pipeline: predicates, count, sort, pagination,
// page-local scoring, projection and metadata.
func (e *Engine) Search(ctx context.Context, orgID string, f Filters) (*Result, error) {
	if orgID == "" {
		return nil, &ValidationError{Field: "organization_id", Message: "must not be empty"}
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	crit, applied := buildCriteria(orgID, f)
	sort := resolveSort(f, crit.Term != "")

	columns := f.Columns
	if len(columns) == 0 {
		columns = DefaultColumns
	}

	ctx, cancel := context.WithTimeout(ctx, e.queryTimeout)
	defer cancel()

	total, err := e.dir.CountMatching(ctx, crit)
	if err != nil {
		return nil, fmt.Errorf("count matching employees: %w", err)
	}

	offset := (f.Page - 1) * f.PageSize
	rows, err := e.dir.FetchPage(ctx, crit, sort, offset, f.PageSize)
	if err != nil {
		return nil, fmt.Errorf("fetch employee page: %w", err)
	}

	// Scoring is bounded to the page, never the full matching set.
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		var score *float64
		if crit.Term != "" {
			s := e.scoreRow(row, f, crit.Term)
			score = &s
		}
		items = append(items, project(row, columns, score, f.IncludeRelevanceScore))
	}

	meta := Metadata{
		SearchTerm:     f.SearchTerm,
		FuzzyMatch:     f.FuzzyMatch,
		ExactMatch:     f.ExactMatch,
		FieldsSearched: crit.TermFields,
		FiltersApplied: applied,
		Sorting:        SortInfo{SortBy: f.SortBy, SortOrder: f.SortOrder},
		TotalResults:   total,
		PageResults:    len(items),
	}
	if crit.Term != "" {
		meta.SearchApplied = true
		meta.SearchTermProcessed = crit.Term
	}

	e.logger.Debug().
		Str("org_id", orgID).
		Int64("total", total).
		Int("page", f.Page).
		Int("page_results", len(items)).
		Msg("search executed")

	return &Result{Items: items, Total: total, Columns: columns, Metadata: meta}, nil
}

// scoreRow combines the structured relevance score with the fuzzy name score.
// Fuzzy matching is a rescue mechanism for near-miss spellings, not an
// additive boost: the effective score is the max of the two.
func (e *Engine) scoreRow(row *models.Employee, f Filters, term string) float64 {
	var score float64
	if !f.ExactMatch {
		score = Score(row, term, f.SearchFields, f.CaseSensitive)
	} else if classify(row.Name, term, f.CaseSensitive) == matchExact {
		score = 1.0
	}
	if f.FuzzyMatch {
		if fuzzy := Similarity(term, row.Name); fuzzy > score {
			score = fuzzy
		}
	}
	return score
}

// buildCriteria assembles the AND-combined predicate set from the filters.
// Each optional filter contributes zero or one predicate; the applied list
// is a human-readable echo for metadata.
func buildCriteria(orgID string, f Filters) (Criteria, []string) {
	c := Criteria{OrgID: orgID}
	applied := []string{}

	if len(f.Status) > 0 {
		c.Status = f.Status
		applied = append(applied, fmt.Sprintf("status: %v", f.Status))
	}
	if len(f.DepartmentIDs) > 0 {
		c.DepartmentIDs = f.DepartmentIDs
		applied = append(applied, fmt.Sprintf("departments: %v", f.DepartmentIDs))
	}
	if len(f.PositionIDs) > 0 {
		c.PositionIDs = f.PositionIDs
		applied = append(applied, fmt.Sprintf("positions: %v", f.PositionIDs))
	}
	if len(f.LocationIDs) > 0 {
		c.LocationIDs = f.LocationIDs
		applied = append(applied, fmt.Sprintf("locations: %v", f.LocationIDs))
	}
	if f.Name != "" {
		c.NameContains = f.Name
		applied = append(applied, fmt.Sprintf("name: %s", f.Name))
	}
	if f.EmailDomain != "" {
		c.EmailDomain = f.EmailDomain
		applied = append(applied, fmt.Sprintf("email_domain: %s", f.EmailDomain))
	}
	if f.PhonePrefix != "" {
		c.PhonePrefix = f.PhonePrefix
		applied = append(applied, fmt.Sprintf("phone_prefix: %s", f.PhonePrefix))
	}
	if f.HasEmail != nil {
		c.HasEmail = f.HasEmail
		applied = append(applied, fmt.Sprintf("has_email: %t", *f.HasEmail))
	}
	if f.HasPhone != nil {
		c.HasPhone = f.HasPhone
		applied = append(applied, fmt.Sprintf("has_phone: %t", *f.HasPhone))
	}
	if f.CreatedAfter != nil {
		c.CreatedAfter = f.CreatedAfter
		applied = append(applied, fmt.Sprintf("created_after: %s", f.CreatedAfter.Format(time.RFC3339)))
	}
	if f.CreatedBefore != nil {
		c.CreatedBefore = f.CreatedBefore
		applied = append(applied, fmt.Sprintf("created_before: %s", f.CreatedBefore.Format(time.RFC3339)))
	}
	if f.UpdatedAfter != nil {
		c.UpdatedAfter = f.UpdatedAfter
		applied = append(applied, fmt.Sprintf("updated_after: %s", f.UpdatedAfter.Format(time.RFC3339)))
	}
	if f.UpdatedBefore != nil {
		c.UpdatedBefore = f.UpdatedBefore
		applied = append(applied, fmt.Sprintf("updated_before: %s", f.UpdatedBefore.Format(time.RFC3339)))
	}

	if term := strings.TrimSpace(f.SearchTerm); term != "" {
		if !f.CaseSensitive {
			term = strings.ToLower(term)
		}
		c.Term = term
		c.TermFields = f.SearchFields
		if len(c.TermFields) == 0 {
			c.TermFields = DefaultSearchFields
		}
		c.ExactMatch = f.ExactMatch
		c.CaseSensitive = f.CaseSensitive
	}

	return c, applied
}

// resolveSort implements the sort policy: an explicit sort field wins; else
// relevance descending when scoring is requested with a term; else name
// ascending.
func resolveSort(f Filters, hasTerm bool) SortSpec {
	if f.SortBy != "" {
		return SortSpec{Field: f.SortBy, Desc: f.SortOrder == "desc"}
	}
	if f.IncludeRelevanceScore && hasTerm && !f.ExactMatch {
		// Best matches first unless the caller explicitly asked otherwise.
		return SortSpec{Field: SortRelevance, Desc: f.SortOrder != "asc"}
	}
	return SortSpec{Field: "name", Desc: f.SortOrder == "desc"}
}

// project maps a row onto the requested columns via the extractor table.
func project(e *models.Employee, columns []string, score *float64, includeScore bool) Item {
	item := make(Item, len(columns)+1)
	for _, col := range columns {
		extract, ok := columnExtractors[col]
		if !ok {
			continue
		}
		item[col] = extract(e)
	}
	if includeScore && score != nil {
		item["relevance_score"] = *score
	}
	return item
}

// columnExtractors maps each allowed column to its extraction function,
// including the relational lookups for department/position/location names.
var columnExtractors = map[string]func(*models.Employee) any{
	"id":         func(e *models.Employee) any { return e.ID },
	"name":       func(e *models.Employee) any { return e.Name },
	"email":      func(e *models.Employee) any { return strPtr(e.Email) },
	"phone":      func(e *models.Employee) any { return strPtr(e.Phone) },
	"status":     func(e *models.Employee) any { return e.Status },
	"department": func(e *models.Employee) any { return strPtr(e.DepartmentName) },
	"position":   func(e *models.Employee) any { return strPtr(e.PositionName) },
	"location":   func(e *models.Employee) any { return strPtr(e.LocationName) },
	"created_at": func(e *models.Employee) any { return e.CreatedAt },
	"updated_at": func(e *models.Employee) any { return e.UpdatedAt },
}

func strPtr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
