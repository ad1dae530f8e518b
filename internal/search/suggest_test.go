package search

import (
	"context"
	"errors"
	"testing"
)

func TestEngine_Suggest(t *testing.T) {
	dir := &fakeDirectory{
		suggestions: map[string][]Suggestion{
			FieldName:       {{Suggestion: "john smith", Type: FieldName, Count: 1}},
			FieldDepartment: {{Suggestion: "engineering", Type: FieldDepartment, Count: 40}},
		},
	}
	engine := newTestEngine(dir)

	t.Run("blends similarity and popularity", func(t *testing.T) {
		suggestions, err := engine.Suggest(context.Background(), "org1", "john", 10)
		if err != nil {
			t.Fatalf("suggest failed: %v", err)
		}
		if len(suggestions) != 2 {
			t.Fatalf("expected 2 suggestions, got %d", len(suggestions))
		}
		// "john smith" is far closer to the term than "engineering";
		// the department's popularity does not overcome that.
		if suggestions[0].Suggestion != "john smith" {
			t.Errorf("expected name suggestion first, got %q", suggestions[0].Suggestion)
		}
	})

	t.Run("empty term returns empty list", func(t *testing.T) {
		suggestions, err := engine.Suggest(context.Background(), "org1", "   ", 10)
		if err != nil {
			t.Fatalf("suggest failed: %v", err)
		}
		if len(suggestions) != 0 {
			t.Errorf("expected no suggestions, got %v", suggestions)
		}
	})

	t.Run("empty org rejected", func(t *testing.T) {
		_, err := engine.Suggest(context.Background(), "", "john", 10)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("limit capped", func(t *testing.T) {
		big := &fakeDirectory{suggestions: map[string][]Suggestion{}}
		for _, kind := range suggestionKinds {
			for i := 0; i < 10; i++ {
				big.suggestions[kind] = append(big.suggestions[kind], Suggestion{
					Suggestion: kind, Type: kind, Count: int64(i),
				})
			}
		}
		suggestions, err := newTestEngine(big).Suggest(context.Background(), "org1", "x", 100)
		if err != nil {
			t.Fatalf("suggest failed: %v", err)
		}
		if len(suggestions) != 20 {
			t.Errorf("expected limit capped at 20, got %d", len(suggestions))
		}
	})

	t.Run("failing source degrades instead of failing", func(t *testing.T) {
		flaky := &fakeDirectory{
			suggestions: map[string][]Suggestion{
				FieldName: {{Suggestion: "john", Type: FieldName, Count: 2}},
			},
			suggestErr: map[string]error{
				FieldDepartment: errors.New("connection refused"),
			},
		}
		suggestions, err := newTestEngine(flaky).Suggest(context.Background(), "org1", "john", 10)
		if err != nil {
			t.Fatalf("suggest should absorb per-source failures, got %v", err)
		}
		if len(suggestions) != 1 {
			t.Errorf("expected surviving sources only, got %v", suggestions)
		}
	})
}

func TestSuggestionScore(t *testing.T) {
	exact := suggestionScore("john", Suggestion{Suggestion: "john", Count: 0})
	popular := suggestionScore("john", Suggestion{Suggestion: "jonathan", Count: 500})

	if exact != 0.7 {
		t.Errorf("exact zero-count suggestion should score 0.7, got %f", exact)
	}
	// Popularity saturates at count 100.
	capped := suggestionScore("john", Suggestion{Suggestion: "jonathan", Count: 100})
	if popular != capped {
		t.Errorf("count should saturate: %f vs %f", popular, capped)
	}
}
