package search

import (
	"testing"

	"github.com/oakline/staffdir/internal/models"
)

func employee(name string, email, department string) *models.Employee {
	e := &models.Employee{Name: name}
	if email != "" {
		e.Email = &email
	}
	if department != "" {
		e.DepartmentName = &department
	}
	return e
}

func TestScore_RankingOrder(t *testing.T) {
	fields := []string{FieldName, FieldEmail, FieldDepartment}

	exactName := Score(employee("engineering", "", ""), "engineering", fields, false)
	prefixName := Score(employee("engineering lead", "", ""), "engineering", fields, false)
	substringName := Score(employee("chief engineering officer", "", ""), "engineering", fields, false)
	exactDepartment := Score(employee("Alice", "", "engineering"), "engineering", fields, false)

	if exactName <= prefixName {
		t.Errorf("exact name (%f) should outrank prefix name (%f)", exactName, prefixName)
	}
	if prefixName <= substringName {
		t.Errorf("prefix name (%f) should outrank substring name (%f)", prefixName, substringName)
	}
	if substringName <= exactDepartment {
		t.Errorf("substring name (%f) should outrank exact department (%f)", substringName, exactDepartment)
	}
	if exactDepartment <= 0 {
		t.Errorf("exact department should score above zero, got %f", exactDepartment)
	}
}

func TestScore_Bounds(t *testing.T) {
	t.Run("multi-field exact match clamps to 1", func(t *testing.T) {
		e := employee("john", "john", "")
		got := Score(e, "john", []string{FieldName, FieldEmail}, false)
		if got != 1.0 {
			t.Errorf("expected clamped score 1.0, got %f", got)
		}
	})

	t.Run("no match scores zero", func(t *testing.T) {
		e := employee("Alice Johnson", "alice@example.com", "Engineering")
		got := Score(e, "zzz", []string{FieldName, FieldEmail, FieldDepartment}, false)
		if got != 0 {
			t.Errorf("expected 0, got %f", got)
		}
	})

	t.Run("empty term scores zero", func(t *testing.T) {
		if got := Score(employee("Alice", "", ""), "   ", nil, false); got != 0 {
			t.Errorf("expected 0 for blank term, got %f", got)
		}
	})
}

func TestScore_HighestClassPerField(t *testing.T) {
	// "ana banana": "ana" is both a prefix and a substring; only the
	// prefix weight counts.
	got := Score(employee("ana banana", "", ""), "ana", []string{FieldName}, false)
	want := fieldWeights[FieldName].Prefix
	if got != want {
		t.Errorf("expected prefix weight %f, got %f", want, got)
	}
}

func TestScore_CaseSensitivity(t *testing.T) {
	e := employee("John Smith", "", "")

	if got := Score(e, "john smith", []string{FieldName}, false); got != fieldWeights[FieldName].Exact {
		t.Errorf("insensitive match should be exact, got %f", got)
	}
	if got := Score(e, "john smith", []string{FieldName}, true); got != 0 {
		t.Errorf("sensitive mismatch should score 0, got %f", got)
	}
	if got := Score(e, "John Smith", []string{FieldName}, true); got != fieldWeights[FieldName].Exact {
		t.Errorf("sensitive exact match should score exact weight, got %f", got)
	}
}

func TestScore_DefaultFields(t *testing.T) {
	// Department matches are invisible when searching default fields.
	e := employee("Alice", "", "engineering")
	if got := Score(e, "engineering", nil, false); got != 0 {
		t.Errorf("default fields should not search department, got %f", got)
	}
}

func TestScore_NilOptionalFields(t *testing.T) {
	e := &models.Employee{Name: "Bob"}
	if got := Score(e, "bob", []string{FieldName, FieldEmail, FieldDepartment, FieldPosition, FieldLocation}, false); got != fieldWeights[FieldName].Exact {
		t.Errorf("nil optional fields should contribute nothing, got %f", got)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		value, term string
		want        matchClass
	}{
		{"engineering", "engineering", matchExact},
		{"engineering lead", "engineering", matchPrefix},
		{"lead engineering", "engineering", matchSubstring},
		{"sales", "engineering", matchNone},
		{"", "engineering", matchNone},
		{"engineering", "", matchNone},
	}
	for _, tt := range tests {
		if got := classify(tt.value, tt.term, false); got != tt.want {
			t.Errorf("classify(%q, %q) = %d, want %d", tt.value, tt.term, got, tt.want)
		}
	}
}

func TestWeights_PrefixFallback(t *testing.T) {
	// Department has no prefix tier; a prefix match scores as substring.
	w, ok := Weights(FieldDepartment)
	if !ok {
		t.Fatal("expected department weights")
	}
	if got := w.weightFor(matchPrefix); got != w.Substring {
		t.Errorf("prefix should fall back to substring weight %f, got %f", w.Substring, got)
	}
}
