package search

import (
	"strings"

	"github.com/oakline/staffdir/internal/models"
)

// WeightSet holds the per-match-class weights for one searchable field.
// A zero Prefix means the field has no distinct prefix tier; a prefix match
// then scores as a substring match.
type WeightSet struct {
	Exact     float64
	Prefix    float64
	Substring float64
}

// fieldWeights encodes the ranking order: within a field, higher specificity
// never scores lower, and name weights dominate every secondary-field weight
// at the same tier. Name substring (0.8) also stays above department exact
// (0.7) so any name hit outranks any secondary-field hit.
var fieldWeights = map[string]WeightSet{
	FieldName:       {Exact: 1.0, Prefix: 0.9, Substring: 0.8},
	FieldEmail:      {Exact: 0.95, Prefix: 0.75, Substring: 0.6},
	FieldDepartment: {Exact: 0.7, Substring: 0.35},
	FieldPosition:   {Exact: 0.7, Substring: 0.35},
	FieldLocation:   {Exact: 0.65, Substring: 0.3},
}

// Weights returns the weight set for a searchable field. The db layer uses
// it to render the identical ranking as a SQL expression.
func Weights(field string) (WeightSet, bool) {
	w, ok := fieldWeights[field]
	return w, ok
}

type matchClass int

const (
	matchNone matchClass = iota
	matchSubstring
	matchPrefix
	matchExact
)

// classify determines the highest match class of term against value.
func classify(value, term string, caseSensitive bool) matchClass {
	if value == "" || term == "" {
		return matchNone
	}
	if !caseSensitive {
		value = strings.ToLower(value)
		term = strings.ToLower(term)
	}
	switch {
	case value == term:
		return matchExact
	case strings.HasPrefix(value, term):
		return matchPrefix
	case strings.Contains(value, term):
		return matchSubstring
	default:
		return matchNone
	}
}

func (w WeightSet) weightFor(c matchClass) float64 {
	switch c {
	case matchExact:
		return w.Exact
	case matchPrefix:
		if w.Prefix > 0 {
			return w.Prefix
		}
		return w.Substring
	case matchSubstring:
		return w.Substring
	default:
		return 0
	}
}

// fieldValue extracts the searchable text of a field from an employee row,
// using the joined reference names for department/position/location.
func fieldValue(e *models.Employee, field string) string {
	switch field {
	case FieldName:
		return e.Name
	case FieldEmail:
		if e.Email != nil {
			return *e.Email
		}
	case FieldDepartment:
		if e.DepartmentName != nil {
			return *e.DepartmentName
		}
	case FieldPosition:
		if e.PositionName != nil {
			return *e.PositionName
		}
	case FieldLocation:
		if e.LocationName != nil {
			return *e.LocationName
		}
	}
	return ""
}

// Score computes the normalized relevance of an employee for a search term
// over the given fields. Each field contributes the weight of its highest
// match class; the sum is clamped to [0, 1] so multi-field matches rank
// above single-field matches without breaking the score contract.
func Score(e *models.Employee, term string, fields []string, caseSensitive bool) float64 {
	term = strings.TrimSpace(term)
	if term == "" {
		return 0
	}
	if len(fields) == 0 {
		fields = DefaultSearchFields
	}

	var total float64
	for _, field := range fields {
		w, ok := fieldWeights[field]
		if !ok {
			continue
		}
		total += w.weightFor(classify(fieldValue(e, field), term, caseSensitive))
	}
	if total > 1.0 {
		return 1.0
	}
	return total
}
