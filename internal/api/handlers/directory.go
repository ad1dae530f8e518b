package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/oakline/staffdir/internal/api/middleware"
	"github.com/oakline/staffdir/internal/db"
	"github.com/oakline/staffdir/internal/models"
)

// DirectoryStore defines the interface for reference entity persistence.
type DirectoryStore interface {
	ListDepartments(ctx context.Context, orgID string) ([]*models.Department, error)
	GetDepartment(ctx context.Context, orgID string, id uuid.UUID) (*models.Department, error)
	CreateDepartment(ctx context.Context, d *models.Department) error
	UpdateDepartment(ctx context.Context, d *models.Department) error
	DeleteDepartment(ctx context.Context, orgID string, id uuid.UUID) error

	ListPositions(ctx context.Context, orgID string) ([]*models.Position, error)
	GetPosition(ctx context.Context, orgID string, id uuid.UUID) (*models.Position, error)
	CreatePosition(ctx context.Context, p *models.Position) error
	UpdatePosition(ctx context.Context, p *models.Position) error
	DeletePosition(ctx context.Context, orgID string, id uuid.UUID) error

	ListLocations(ctx context.Context, orgID string) ([]*models.Location, error)
	GetLocation(ctx context.Context, orgID string, id uuid.UUID) (*models.Location, error)
	CreateLocation(ctx context.Context, l *models.Location) error
	UpdateLocation(ctx context.Context, l *models.Location) error
	DeleteLocation(ctx context.Context, orgID string, id uuid.UUID) error
}

// DirectoryHandler handles department, position and location endpoints.
type DirectoryHandler struct {
	store  DirectoryStore
	logger zerolog.Logger
}

// NewDirectoryHandler creates a new DirectoryHandler.
func NewDirectoryHandler(store DirectoryStore, logger zerolog.Logger) *DirectoryHandler {
	return &DirectoryHandler{
		store:  store,
		logger: logger.With().Str("component", "directory_handler").Logger(),
	}
}

// RegisterRoutes registers reference entity routes on the given router group.
func (h *DirectoryHandler) RegisterRoutes(r *gin.RouterGroup) {
	departments := r.Group("/departments")
	{
		departments.GET("", h.ListDepartments)
		departments.POST("", h.CreateDepartment)
		departments.GET("/:id", h.GetDepartment)
		departments.PUT("/:id", h.UpdateDepartment)
		departments.DELETE("/:id", h.DeleteDepartment)
	}

	positions := r.Group("/positions")
	{
		positions.GET("", h.ListPositions)
		positions.POST("", h.CreatePosition)
		positions.GET("/:id", h.GetPosition)
		positions.PUT("/:id", h.UpdatePosition)
		positions.DELETE("/:id", h.DeletePosition)
	}

	locations := r.Group("/locations")
	{
		locations.GET("", h.ListLocations)
		locations.POST("", h.CreateLocation)
		locations.GET("/:id", h.GetLocation)
		locations.PUT("/:id", h.UpdateLocation)
		locations.DELETE("/:id", h.DeleteLocation)
	}
}

// NamedEntityRequest is the request body for departments and positions.
type NamedEntityRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=255"`
	Description *string `json:"description,omitempty"`
}

// LocationRequest is the request body for locations.
type LocationRequest struct {
	Name    string  `json:"name" binding:"required,min=1,max=255"`
	Address *string `json:"address,omitempty"`
	City    *string `json:"city,omitempty"`
	Country *string `json:"country,omitempty"`
}

func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

// ListDepartments returns all departments in the caller's organization.
// GET /api/v1/departments
func (h *DirectoryHandler) ListDepartments(c *gin.Context) {
	orgID := middleware.OrgID(c)

	departments, err := h.store.ListDepartments(c.Request.Context(), orgID)
	if err != nil {
		h.logger.Error().Err(err).Str("org_id", orgID).Msg("failed to list departments")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list departments"})
		return
	}
	if departments == nil {
		departments = []*models.Department{}
	}

	c.JSON(http.StatusOK, gin.H{"departments": departments})
}

// CreateDepartment inserts a new department.
// POST /api/v1/departments
func (h *DirectoryHandler) CreateDepartment(c *gin.Context) {
	orgID := middleware.OrgID(c)

	var req NamedEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	now := time.Now().UTC()
	department := &models.Department{
		ID:             uuid.New(),
		Name:           req.Name,
		Description:    req.Description,
		OrganizationID: orgID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := h.store.CreateDepartment(c.Request.Context(), department); err != nil {
		h.logger.Error().Err(err).Str("org_id", orgID).Msg("failed to create department")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create department"})
		return
	}

	c.JSON(http.StatusCreated, department)
}

// GetDepartment returns one department by ID.
// GET /api/v1/departments/:id
func (h *DirectoryHandler) GetDepartment(c *gin.Context) {
	orgID := middleware.OrgID(c)
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	department, err := h.store.GetDepartment(c.Request.Context(), orgID, id)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "department not found"})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("department_id", id.String()).Msg("failed to get department")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get department"})
		return
	}

	c.JSON(http.StatusOK, department)
}

// UpdateDepartment rewrites a department's fields.
// PUT /api/v1/departments/:id
func (h *DirectoryHandler) UpdateDepartment(c *gin.Context) {
	orgID := middleware.OrgID(c)
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req NamedEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	department := &models.Department{
		ID:             id,
		Name:           req.Name,
		Description:    req.Description,
		OrganizationID: orgID,
	}

	err := h.store.UpdateDepartment(c.Request.Context(), department)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "department not found"})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("department_id", id.String()).Msg("failed to update department")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update department"})
		return
	}

	updated, err := h.store.GetDepartment(c.Request.Context(), orgID, id)
	if err != nil {
		h.logger.Error().Err(err).Str("department_id", id.String()).Msg("failed to reload department")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update department"})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteDepartment removes a department.
// DELETE /api/v1/departments/:id
func (h *DirectoryHandler) DeleteDepartment(c *gin.Context) {
	orgID := middleware.OrgID(c)
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	err := h.store.DeleteDepartment(c.Request.Context(), orgID, id)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "department not found"})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("department_id", id.String()).Msg("failed to delete department")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete department"})
		return
	}

	c.Status(http.StatusNoContent)
}

// ListPositions returns all positions in the caller's organization.
// GET /api/v1/positions
func (h *DirectoryHandler) ListPositions(c *gin.Context) {
	orgID := middleware.OrgID(c)

	positions, err := h.store.ListPositions(c.Request.Context(), orgID)
	if err != nil {
		h.logger.Error().Err(err).Str("org_id", orgID).Msg("failed to list positions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list positions"})
		return
	}
	if positions == nil {
		positions = []*models.Position{}
	}

	c.JSON(http.StatusOK, gin.H{"positions": positions})
}

// CreatePosition inserts a new position.
// POST /api/v1/positions
func (h *DirectoryHandler) CreatePosition(c *gin.Context) {
	orgID := middleware.OrgID(c)

	var req NamedEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	now := time.Now().UTC()
	position := &models.Position{
		ID:             uuid.New(),
		Name:           req.Name,
		Description:    req.Description,
		OrganizationID: orgID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := h.store.CreatePosition(c.Request.Context(), position); err != nil {
		h.logger.Error().Err(err).Str("org_id", orgID).Msg("failed to create position")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create position"})
		return
	}

	c.JSON(http.StatusCreated, position)
}

// GetPosition returns one position by ID.
// GET /api/v1/positions/:id
func (h *DirectoryHandler) GetPosition(c *gin.Context) {
	orgID := middleware.OrgID(c)
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	position, err := h.store.GetPosition(c.Request.Context(), orgID, id)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "position not found"})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("position_id", id.String()).Msg("failed to get position")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get position"})
		return
	}

	c.JSON(http.StatusOK, position)
}

// UpdatePosition rewrites a position's fields.
// PUT /api/v1/positions/:id
func (h *DirectoryHandler) UpdatePosition(c *gin.Context) {
	orgID := middleware.OrgID(c)
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req NamedEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	position := &models.Position{
		ID:             id,
		Name:           req.Name,
		Description:    req.Description,
		OrganizationID: orgID,
	}

	err := h.store.UpdatePosition(c.Request.Context(), position)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "position not found"})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("position_id", id.String()).Msg("failed to update position")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update position"})
		return
	}

	updated, err := h.store.GetPosition(c.Request.Context(), orgID, id)
	if err != nil {
		h.logger.Error().Err(err).Str("position_id", id.String()).Msg("failed to reload position")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update position"})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeletePosition removes a position.
// DELETE /api/v1/positions/:id
func (h *DirectoryHandler) DeletePosition(c *gin.Context) {
	orgID := middleware.OrgID(c)
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	err := h.store.DeletePosition(c.Request.Context(), orgID, id)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "position not found"})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("position_id", id.String()).Msg("failed to delete position")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete position"})
		return
	}

	c.Status(http.StatusNoContent)
}

// ListLocations returns all locations in the caller's organization.
// GET /api/v1/locations
func (h *DirectoryHandler) ListLocations(c *gin.Context) {
	orgID := middleware.OrgID(c)

	locations, err := h.store.ListLocations(c.Request.Context(), orgID)
	if err != nil {
		h.logger.Error().Err(err).Str("org_id", orgID).Msg("failed to list locations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list locations"})
		return
	}
	if locations == nil {
		locations = []*models.Location{}
	}

	c.JSON(http.StatusOK, gin.H{"locations": locations})
}

// CreateLocation inserts a new location.
// POST /api/v1/locations
func (h *DirectoryHandler) CreateLocation(c *gin.Context) {
	orgID := middleware.OrgID(c)

	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	now := time.Now().UTC()
	location := &models.Location{
		ID:             uuid.New(),
		Name:           req.Name,
		Address:        req.Address,
		City:           req.City,
		Country:        req.Country,
		OrganizationID: orgID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := h.store.CreateLocation(c.Request.Context(), location); err != nil {
		h.logger.Error().Err(err).Str("org_id", orgID).Msg("failed to create location")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create location"})
		return
	}

	c.JSON(http.StatusCreated, location)
}

// GetLocation returns one location by ID.
// GET /api/v1/locations/:id
func (h *DirectoryHandler) GetLocation(c *gin.Context) {
	orgID := middleware.OrgID(c)
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	location, err := h.store.GetLocation(c.Request.Context(), orgID, id)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "location not found"})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("location_id", id.String()).Msg("failed to get location")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get location"})
		return
	}

	c.JSON(http.StatusOK, location)
}

// UpdateLocation rewrites a location's fields.
// PUT /api/v1/locations/:id
func (h *DirectoryHandler) UpdateLocation(c *gin.Context) {
	orgID := middleware.OrgID(c)
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	location := &models.Location{
		ID:             id,
		Name:           req.Name,
		Address:        req.Address,
		City:           req.City,
		Country:        req.Country,
		OrganizationID: orgID,
	}

	err := h.store.UpdateLocation(c.Request.Context(), location)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "location not found"})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("location_id", id.String()).Msg("failed to update location")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update location"})
		return
	}

	updated, err := h.store.GetLocation(c.Request.Context(), orgID, id)
	if err != nil {
		h.logger.Error().Err(err).Str("location_id", id.String()).Msg("failed to reload location")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update location"})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteLocation removes a location.
// DELETE /api/v1/locations/:id
func (h *DirectoryHandler) DeleteLocation(c *gin.Context) {
	orgID := middleware.OrgID(c)
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	err := h.store.DeleteLocation(c.Request.Context(), orgID, id)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "location not found"})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("location_id", id.String()).Msg("failed to delete location")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete location"})
		return
	}

	c.Status(http.StatusNoContent)
}
