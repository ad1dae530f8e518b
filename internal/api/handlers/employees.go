// Package handlers implements the directory API's HTTP endpoints.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/oakline/staffdir/internal/api/middleware"
	"github.com/oakline/staffdir/internal/db"
	"github.com/oakline/staffdir/internal/metrics"
	"github.com/oakline/staffdir/internal/models"
	"github.com/oakline/staffdir/internal/orgconfig"
	"github.com/oakline/staffdir/internal/search"
)

// EmployeeStore defines the interface for employee persistence operations.
type EmployeeStore interface {
	CreateEmployee(ctx context.Context, e *models.Employee) error
	GetEmployee(ctx context.Context, orgID string, id uuid.UUID) (*models.Employee, error)
	UpdateEmployee(ctx context.Context, e *models.Employee) error
	DeleteEmployee(ctx context.Context, orgID string, id uuid.UUID) error
}

// EmployeesHandler handles employee CRUD and search endpoints.
type EmployeesHandler struct {
	store   EmployeeStore
	engine  *search.Engine
	columns *orgconfig.Manager
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewEmployeesHandler creates a new EmployeesHandler.
func NewEmployeesHandler(store EmployeeStore, engine *search.Engine, columns *orgconfig.Manager, m *metrics.Metrics, logger zerolog.Logger) *EmployeesHandler {
	return &EmployeesHandler{
		store:   store,
		engine:  engine,
		columns: columns,
		metrics: m,
		logger:  logger.With().Str("component", "employees_handler").Logger(),
	}
}

// RegisterRoutes registers employee routes on the given router group.
func (h *EmployeesHandler) RegisterRoutes(r *gin.RouterGroup) {
	employees := r.Group("/employees")
	{
		employees.POST("", h.Create)
		employees.GET("/:id", h.Get)
		employees.PUT("/:id", h.Update)
		employees.DELETE("/:id", h.Delete)
		employees.POST("/search", h.Search)
		employees.GET("/search/suggestions", h.Suggestions)
	}
}

// CreateEmployeeRequest is the request body for creating an employee.
type CreateEmployeeRequest struct {
	Name         string     `json:"name" binding:"required,min=1,max=255"`
	Email        *string    `json:"email,omitempty"`
	Phone        *string    `json:"phone,omitempty"`
	Status       string     `json:"status,omitempty"`
	DepartmentID *uuid.UUID `json:"department_id,omitempty"`
	PositionID   *uuid.UUID `json:"position_id,omitempty"`
	LocationID   *uuid.UUID `json:"location_id,omitempty"`
}

// UpdateEmployeeRequest is the request body for updating an employee.
type UpdateEmployeeRequest struct {
	Name         string     `json:"name" binding:"required,min=1,max=255"`
	Email        *string    `json:"email,omitempty"`
	Phone        *string    `json:"phone,omitempty"`
	Status       string     `json:"status,omitempty"`
	DepartmentID *uuid.UUID `json:"department_id,omitempty"`
	PositionID   *uuid.UUID `json:"position_id,omitempty"`
	LocationID   *uuid.UUID `json:"location_id,omitempty"`
}

// Search runs the advanced employee search.
// POST /api/v1/employees/search
func (h *EmployeesHandler) Search(c *gin.Context) {
	orgID := middleware.OrgID(c)

	var filters search.Filters
	if err := c.ShouldBindJSON(&filters); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	filters.Normalize()

	// The organization's configured columns apply when the request does
	// not choose its own projection.
	if len(filters.Columns) == 0 {
		filters.Columns = h.columns.Columns(orgID)
	}

	start := time.Now()
	result, err := h.engine.Search(c.Request.Context(), orgID, filters)
	if err != nil {
		var verr *search.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
			return
		}
		h.logger.Error().Err(err).Str("org_id", orgID).Msg("search failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	if h.metrics != nil {
		h.metrics.SearchDuration.
			WithLabelValues(strconv.FormatBool(filters.FuzzyMatch)).
			Observe(time.Since(start).Seconds())
	}

	pages := result.Total / int64(filters.PageSize)
	if result.Total%int64(filters.PageSize) != 0 {
		pages++
	}

	c.JSON(http.StatusOK, gin.H{
		"items":           result.Items,
		"total":           result.Total,
		"page":            filters.Page,
		"page_size":       filters.PageSize,
		"pages":           pages,
		"columns":         result.Columns,
		"organization_id": orgID,
		"search_metadata": result.Metadata,
	})
}

// Suggestions returns autocomplete suggestions for a partial search term.
// GET /api/v1/employees/search/suggestions?q=jo&limit=10
func (h *EmployeesHandler) Suggestions(c *gin.Context) {
	orgID := middleware.OrgID(c)

	term := c.Query("q")
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	suggestions, err := h.engine.Suggest(c.Request.Context(), orgID, term, limit)
	if err != nil {
		h.logger.Error().Err(err).Str("org_id", orgID).Msg("suggestions failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "suggestions failed"})
		return
	}
	if suggestions == nil {
		suggestions = []search.Suggestion{}
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions, "query": term})
}

// Create inserts a new employee in the caller's organization.
// POST /api/v1/employees
func (h *EmployeesHandler) Create(c *gin.Context) {
	orgID := middleware.OrgID(c)

	var req CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	status := req.Status
	if status == "" {
		status = models.StatusActive
	}

	employee := models.NewEmployee(orgID, req.Name, status)
	employee.Email = req.Email
	employee.Phone = req.Phone
	employee.DepartmentID = req.DepartmentID
	employee.PositionID = req.PositionID
	employee.LocationID = req.LocationID

	if err := h.store.CreateEmployee(c.Request.Context(), employee); err != nil {
		h.logger.Error().Err(err).Str("org_id", orgID).Msg("failed to create employee")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create employee"})
		return
	}

	c.JSON(http.StatusCreated, employee)
}

// Get returns one employee by ID.
// GET /api/v1/employees/:id
func (h *EmployeesHandler) Get(c *gin.Context) {
	orgID := middleware.OrgID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid employee id"})
		return
	}

	employee, err := h.store.GetEmployee(c.Request.Context(), orgID, id)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "employee not found"})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("employee_id", id.String()).Msg("failed to get employee")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get employee"})
		return
	}

	c.JSON(http.StatusOK, employee)
}

// Update rewrites an employee's fields.
// PUT /api/v1/employees/:id
func (h *EmployeesHandler) Update(c *gin.Context) {
	orgID := middleware.OrgID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid employee id"})
		return
	}

	var req UpdateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	employee := &models.Employee{
		ID:             id,
		OrganizationID: orgID,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Status:         req.Status,
		DepartmentID:   req.DepartmentID,
		PositionID:     req.PositionID,
		LocationID:     req.LocationID,
	}
	if employee.Status == "" {
		employee.Status = models.StatusActive
	}

	err = h.store.UpdateEmployee(c.Request.Context(), employee)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "employee not found"})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("employee_id", id.String()).Msg("failed to update employee")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update employee"})
		return
	}

	updated, err := h.store.GetEmployee(c.Request.Context(), orgID, id)
	if err != nil {
		h.logger.Error().Err(err).Str("employee_id", id.String()).Msg("failed to reload employee")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update employee"})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Delete removes an employee.
// DELETE /api/v1/employees/:id
func (h *EmployeesHandler) Delete(c *gin.Context) {
	orgID := middleware.OrgID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid employee id"})
		return
	}

	err = h.store.DeleteEmployee(c.Request.Context(), orgID, id)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "employee not found"})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("employee_id", id.String()).Msg("failed to delete employee")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete employee"})
		return
	}

	c.Status(http.StatusNoContent)
}
