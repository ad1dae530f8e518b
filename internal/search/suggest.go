package search

import (
	"context"
	"sort"
	"strings"
)

// Suggestion is one autocomplete candidate with the number of employees it
// would match.
type Suggestion struct {
	Suggestion string `json:"suggestion"`
	Type       string `json:"type"`
	Count      int64  `json:"count"`
}

// Suggestion kinds, matching the searchable entity fields.
var suggestionKinds = []string{FieldName, FieldDepartment, FieldPosition, FieldLocation}

// Suggest returns autocomplete suggestions for a partial search term,
// gathered across employee names and the reference tables, ordered by a
// blend of fuzzy similarity and popularity.
func (e *Engine) Suggest(ctx context.Context, orgID, term string, limit int) ([]Suggestion, error) {
	if orgID == "" {
		return nil, &ValidationError{Field: "organization_id", Message: "must not be empty"}
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return []Suggestion{}, nil
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 20 {
		limit = 20
	}

	ctx, cancel := context.WithTimeout(ctx, e.queryTimeout)
	defer cancel()

	var suggestions []Suggestion
	for _, kind := range suggestionKinds {
		values, err := e.dir.SuggestValues(ctx, orgID, kind, term, limit)
		if err != nil {
			// One failing source degrades the list, it does not fail the call.
			e.logger.Warn().Err(err).Str("kind", kind).Msg("suggestion source failed")
			continue
		}
		suggestions = append(suggestions, values...)
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestionScore(term, suggestions[i]) > suggestionScore(term, suggestions[j])
	})

	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	if suggestions == nil {
		suggestions = []Suggestion{}
	}
	return suggestions, nil
}

// suggestionScore blends fuzzy similarity with normalized popularity.
func suggestionScore(term string, s Suggestion) float64 {
	countScore := float64(s.Count) / 100.0
	if countScore > 1.0 {
		countScore = 1.0
	}
	return Similarity(term, s.Suggestion)*0.7 + countScore*0.3
}
