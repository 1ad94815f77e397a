package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkce-labs/vivalab-backend/internal/model"
	"github.com/mkce-labs/vivalab-backend/internal/response"
	"github.com/mkce-labs/vivalab-backend/internal/roster"
	"github.com/mkce-labs/vivalab-backend/internal/service"
	"github.com/mkce-labs/vivalab-backend/internal/validator"
)

// CatalogHandler handles lab and experiment catalog endpoints.
type CatalogHandler struct {
	catalogService *service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ListLabs godoc
// GET /api/v1/labs
func (h *CatalogHandler) ListLabs(c *gin.Context) {
	labs, err := h.catalogService.ListLabs(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"labs": labs})
}

// ListExperiments godoc
// GET /api/v1/labs/:id/experiments
func (h *CatalogHandler) ListExperiments(c *gin.Context) {
	labID, ok := paramInt(c, "id")
	if !ok {
		return
	}

	experiments, err := h.catalogService.ListExperiments(c.Request.Context(), labID)
	if err != nil {
		if errors.Is(err, service.ErrLabNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"experiments": experiments})
}

// GetExperiment godoc
// GET /api/v1/experiments/:id
func (h *CatalogHandler) GetExperiment(c *gin.Context) {
	experimentID, ok := paramInt(c, "id")
	if !ok {
		return
	}

	exp, err := h.catalogService.GetExperiment(c.Request.Context(), experimentID)
	if err != nil {
		if errors.Is(err, service.ErrExperimentNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"experiment": exp})
}

// UpsertExperiment godoc
// PUT /api/v1/teacher/labs/:id/experiments
func (h *CatalogHandler) UpsertExperiment(c *gin.Context) {
	labID, ok := paramInt(c, "id")
	if !ok {
		return
	}

	var req model.UpsertExperimentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exp, err := h.catalogService.UpsertExperiment(c.Request.Context(), labID, req)
	if err != nil {
		if errors.Is(err, service.ErrLabNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"experiment": exp})
}

// UpdateMaterials godoc
// PUT /api/v1/teacher/experiments/:id/materials
// Replaces the free-text context used for question generation.
func (h *CatalogHandler) UpdateMaterials(c *gin.Context) {
	experimentID, ok := paramInt(c, "id")
	if !ok {
		return
	}

	var req struct {
		MaterialsText string `json:"materials_text" binding:"required,max=20000"`
	}
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.catalogService.UpdateMaterials(c.Request.Context(), experimentID, req.MaterialsText); err != nil {
		if errors.Is(err, service.ErrExperimentNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": true})
}

// SyncCatalog godoc
// POST /api/v1/teacher/catalog/sync
// Pulls labs and experiments from the teacher spreadsheet into the catalog.
func (h *CatalogHandler) SyncCatalog(c *gin.Context) {
	report, err := h.catalogService.SyncFromRoster(c.Request.Context())
	if err != nil {
		if errors.Is(err, roster.ErrUnavailable) {
			response.Fail(c, http.StatusServiceUnavailable, response.ErrRosterUnavailable)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, report)
}
