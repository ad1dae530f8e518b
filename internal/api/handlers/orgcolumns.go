package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/oakline/staffdir/internal/orgconfig"
	"github.com/oakline/staffdir/internal/search"
)

// OrgColumnsHandler handles per-organization column configuration.
type OrgColumnsHandler struct {
	columns *orgconfig.Manager
	logger  zerolog.Logger
}

// NewOrgColumnsHandler creates a new OrgColumnsHandler.
func NewOrgColumnsHandler(columns *orgconfig.Manager, logger zerolog.Logger) *OrgColumnsHandler {
	return &OrgColumnsHandler{
		columns: columns,
		logger:  logger.With().Str("component", "org_columns_handler").Logger(),
	}
}

// RegisterRoutes registers column configuration routes on the given router group.
func (h *OrgColumnsHandler) RegisterRoutes(r *gin.RouterGroup) {
	orgs := r.Group("/organizations")
	{
		orgs.GET("/:id/columns", h.Get)
		orgs.PUT("/:id/columns", h.Set)
	}
}

// UpdateColumnsRequest is the request body for updating an organization's columns.
type UpdateColumnsRequest struct {
	Columns []string `json:"columns" binding:"required,min=1"`
}

// Get returns the columns configured for an organization.
// GET /api/v1/organizations/:id/columns
func (h *OrgColumnsHandler) Get(c *gin.Context) {
	orgID := c.Param("id")

	c.JSON(http.StatusOK, gin.H{
		"organization_id": orgID,
		"columns":         h.columns.Columns(orgID),
		"allowed_columns": search.AllowedColumns,
	})
}

// Set replaces the columns configured for an organization.
// PUT /api/v1/organizations/:id/columns
func (h *OrgColumnsHandler) Set(c *gin.Context) {
	orgID := c.Param("id")

	var req UpdateColumnsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	if err := h.columns.SetColumns(orgID, req.Columns); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"organization_id": orgID,
		"columns":         h.columns.Columns(orgID),
	})
}
