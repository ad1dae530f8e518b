package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/oakline/staffdir/internal/api/middleware"
	"github.com/oakline/staffdir/internal/db"
	"github.com/oakline/staffdir/internal/models"
	"github.com/oakline/staffdir/internal/orgconfig"
	"github.com/oakline/staffdir/internal/search"
)

// mockEmployeeStore implements EmployeeStore for testing.
type mockEmployeeStore struct {
	employees map[uuid.UUID]*models.Employee
	created   *models.Employee
	createErr error
	updateErr error
	deleteErr error
	getErr    error
}

func (m *mockEmployeeStore) CreateEmployee(_ context.Context, e *models.Employee) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = e
	return nil
}

func (m *mockEmployeeStore) GetEmployee(_ context.Context, orgID string, id uuid.UUID) (*models.Employee, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if e, ok := m.employees[id]; ok && e.OrganizationID == orgID {
		return e, nil
	}
	return nil, db.ErrNotFound
}

func (m *mockEmployeeStore) UpdateEmployee(_ context.Context, e *models.Employee) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.employees[e.ID]; !ok {
		return db.ErrNotFound
	}
	m.employees[e.ID] = e
	return nil
}

func (m *mockEmployeeStore) DeleteEmployee(_ context.Context, orgID string, id uuid.UUID) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if e, ok := m.employees[id]; !ok || e.OrganizationID != orgID {
		return db.ErrNotFound
	}
	delete(m.employees, id)
	return nil
}

// stubDirectory implements search.Directory over a fixed row set.
type stubDirectory struct {
	rows        []*models.Employee
	total       int64
	suggestions map[string][]search.Suggestion
	countErr    error
}

func (d *stubDirectory) CountMatching(_ context.Context, _ search.Criteria) (int64, error) {
	if d.countErr != nil {
		return 0, d.countErr
	}
	if d.total > 0 {
		return d.total, nil
	}
	return int64(len(d.rows)), nil
}

func (d *stubDirectory) FetchPage(_ context.Context, _ search.Criteria, _ search.SortSpec, offset, limit int) ([]*models.Employee, error) {
	if offset >= len(d.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(d.rows) {
		end = len(d.rows)
	}
	return d.rows[offset:end], nil
}

func (d *stubDirectory) SuggestValues(_ context.Context, _, kind, _ string, _ int) ([]search.Suggestion, error) {
	return d.suggestions[kind], nil
}

func setupEmployeeRouter(t *testing.T, store EmployeeStore, dir search.Directory, orgID string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	columns, err := orgconfig.NewManager(filepath.Join(t.TempDir(), "org_columns.yaml"), zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create column manager: %v", err)
	}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(string(middleware.OrgContextKey), orgID)
		c.Next()
	})

	engine := search.NewEngine(dir, 0, zerolog.Nop())
	handler := NewEmployeesHandler(store, engine, columns, nil, zerolog.Nop())
	api := r.Group("/api/v1")
	handler.RegisterRoutes(api)
	return r
}

func strp(s string) *string { return &s }

func directoryEmployee(orgID, name, email string) *models.Employee {
	e := models.NewEmployee(orgID, name, models.StatusActive)
	if email != "" {
		e.Email = strp(email)
	}
	return e
}

func searchRequest(t *testing.T, body any) *http.Request {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/employees/search", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestSearchEmployees(t *testing.T) {
	dir := &stubDirectory{rows: []*models.Employee{
		directoryEmployee("org-1", "John Smith", "john.smith@example.com"),
		directoryEmployee("org-1", "Jane Smith", "jane.smith@example.com"),
		directoryEmployee("org-1", "Bob Jones", "bob.jones@example.com"),
	}}
	r := setupEmployeeRouter(t, &mockEmployeeStore{}, dir, "org-1")

	t.Run("returns ranked page with metadata", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, searchRequest(t, gin.H{
			"search_term":             "smith",
			"include_relevance_score": true,
		}))

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var resp struct {
			Items          []map[string]any `json:"items"`
			Total          int64            `json:"total"`
			Page           int              `json:"page"`
			PageSize       int              `json:"page_size"`
			Pages          int64            `json:"pages"`
			Columns        []string         `json:"columns"`
			OrganizationID string           `json:"organization_id"`
			Metadata       search.Metadata  `json:"search_metadata"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}

		if resp.OrganizationID != "org-1" {
			t.Errorf("expected organization echo, got %q", resp.OrganizationID)
		}
		if resp.Total != 3 || len(resp.Items) != 3 {
			t.Errorf("expected 3 results, got total=%d items=%d", resp.Total, len(resp.Items))
		}
		if resp.Page != 1 || resp.PageSize != search.DefaultPageSize {
			t.Errorf("expected defaulted pagination, got page=%d size=%d", resp.Page, resp.PageSize)
		}
		if resp.Pages != 1 {
			t.Errorf("expected 1 page, got %d", resp.Pages)
		}
		if !resp.Metadata.SearchApplied || resp.Metadata.SearchTermProcessed != "smith" {
			t.Errorf("unexpected metadata: %+v", resp.Metadata)
		}
		for _, item := range resp.Items {
			if _, ok := item["relevance_score"]; !ok {
				t.Errorf("expected relevance_score on item %v", item)
			}
		}
	})

	t.Run("defaults columns from organization config", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, searchRequest(t, gin.H{}))

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var resp struct {
			Columns []string `json:"columns"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		if len(resp.Columns) != len(search.DefaultColumns) {
			t.Errorf("expected default columns %v, got %v", search.DefaultColumns, resp.Columns)
		}
	})

	t.Run("respects requested projection", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, searchRequest(t, gin.H{"columns": []string{"name"}}))

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var resp struct {
			Items []map[string]any `json:"items"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		for _, item := range resp.Items {
			if len(item) != 1 {
				t.Errorf("expected only name column, got %v", item)
			}
			if _, ok := item["name"]; !ok {
				t.Errorf("expected name column, got %v", item)
			}
		}
	})

	t.Run("computes page count from total", func(t *testing.T) {
		paged := setupEmployeeRouter(t, &mockEmployeeStore{}, &stubDirectory{total: 25}, "org-1")

		w := httptest.NewRecorder()
		paged.ServeHTTP(w, searchRequest(t, gin.H{"page": 2, "page_size": 10}))

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var resp struct {
			Pages int64 `json:"pages"`
			Total int64 `json:"total"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		if resp.Total != 25 || resp.Pages != 3 {
			t.Errorf("expected total 25 across 3 pages, got total=%d pages=%d", resp.Total, resp.Pages)
		}
	})

	t.Run("rejects invalid filters with field", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, searchRequest(t, gin.H{"page_size": 500}))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		var resp struct {
			Error string `json:"error"`
			Field string `json:"field"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		if resp.Field != "page_size" {
			t.Errorf("expected field page_size, got %q", resp.Field)
		}
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/employees/search", bytes.NewReader([]byte("{not json")))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("directory failure is a server error", func(t *testing.T) {
		broken := setupEmployeeRouter(t, &mockEmployeeStore{}, &stubDirectory{countErr: fmt.Errorf("connection refused")}, "org-1")

		w := httptest.NewRecorder()
		broken.ServeHTTP(w, searchRequest(t, gin.H{"search_term": "smith"}))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", w.Code)
		}
	})
}

func TestSearchSuggestions(t *testing.T) {
	dir := &stubDirectory{suggestions: map[string][]search.Suggestion{
		"name":       {{Suggestion: "john smith", Type: "name", Count: 1}},
		"department": {{Suggestion: "engineering", Type: "department", Count: 40}},
	}}
	r := setupEmployeeRouter(t, &mockEmployeeStore{}, dir, "org-1")

	t.Run("returns blended suggestions", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/employees/search/suggestions?q=john", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var resp struct {
			Suggestions []search.Suggestion `json:"suggestions"`
			Query       string              `json:"query"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		if resp.Query != "john" {
			t.Errorf("expected query echo, got %q", resp.Query)
		}
		if len(resp.Suggestions) != 2 {
			t.Fatalf("expected 2 suggestions, got %d", len(resp.Suggestions))
		}
		if resp.Suggestions[0].Suggestion != "john smith" {
			t.Errorf("expected closest match first, got %q", resp.Suggestions[0].Suggestion)
		}
	})

	t.Run("empty term yields empty list", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/employees/search/suggestions", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var resp struct {
			Suggestions []search.Suggestion `json:"suggestions"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		if len(resp.Suggestions) != 0 {
			t.Errorf("expected no suggestions, got %v", resp.Suggestions)
		}
	})

	t.Run("rejects invalid limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/employees/search/suggestions?q=jo&limit=zero", nil))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})
}

func TestCreateEmployee(t *testing.T) {
	t.Run("creates with defaults", func(t *testing.T) {
		store := &mockEmployeeStore{}
		r := setupEmployeeRouter(t, store, &stubDirectory{}, "org-1")

		body, _ := json.Marshal(gin.H{"name": "John Smith", "email": "john@example.com"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/employees", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
		}
		if store.created == nil {
			t.Fatal("expected employee to be stored")
		}
		if store.created.OrganizationID != "org-1" {
			t.Errorf("expected org from request context, got %q", store.created.OrganizationID)
		}
		if store.created.Status != models.StatusActive {
			t.Errorf("expected default status active, got %q", store.created.Status)
		}
	})

	t.Run("rejects missing name", func(t *testing.T) {
		r := setupEmployeeRouter(t, &mockEmployeeStore{}, &stubDirectory{}, "org-1")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/employees", bytes.NewReader([]byte(`{"email":"x@example.com"}`)))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})
}

func TestGetEmployee(t *testing.T) {
	existing := directoryEmployee("org-1", "John Smith", "john@example.com")
	store := &mockEmployeeStore{employees: map[uuid.UUID]*models.Employee{existing.ID: existing}}
	r := setupEmployeeRouter(t, store, &stubDirectory{}, "org-1")

	t.Run("returns employee", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/employees/"+existing.ID.String(), nil))

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var got models.Employee
		if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		if got.ID != existing.ID || got.Name != "John Smith" {
			t.Errorf("unexpected employee: %+v", got)
		}
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/employees/"+uuid.NewString(), nil))

		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})

	t.Run("invalid id is 400", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/employees/not-a-uuid", nil))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("other organization cannot see it", func(t *testing.T) {
		other := setupEmployeeRouter(t, store, &stubDirectory{}, "org-2")
		w := httptest.NewRecorder()
		other.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/employees/"+existing.ID.String(), nil))

		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404 across organizations, got %d", w.Code)
		}
	})
}

func TestUpdateEmployee(t *testing.T) {
	existing := directoryEmployee("org-1", "John Smith", "john@example.com")
	store := &mockEmployeeStore{employees: map[uuid.UUID]*models.Employee{existing.ID: existing}}
	r := setupEmployeeRouter(t, store, &stubDirectory{}, "org-1")

	t.Run("rewrites and returns the employee", func(t *testing.T) {
		body, _ := json.Marshal(gin.H{"name": "John A. Smith", "status": "on_leave"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/v1/employees/"+existing.ID.String(), bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var got models.Employee
		if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		if got.Name != "John A. Smith" || got.Status != models.StatusOnLeave {
			t.Errorf("unexpected employee after update: %+v", got)
		}
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		body, _ := json.Marshal(gin.H{"name": "Nobody"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/v1/employees/"+uuid.NewString(), bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})
}

func TestDeleteEmployee(t *testing.T) {
	existing := directoryEmployee("org-1", "John Smith", "")
	store := &mockEmployeeStore{employees: map[uuid.UUID]*models.Employee{existing.ID: existing}}
	r := setupEmployeeRouter(t, store, &stubDirectory{}, "org-1")

	t.Run("deletes", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/employees/"+existing.ID.String(), nil))

		if w.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", w.Code)
		}
	})

	t.Run("second delete is 404", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/employees/"+existing.ID.String(), nil))

		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})
}
