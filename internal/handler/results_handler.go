package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkce-labs/vivalab-backend/internal/middleware"
	"github.com/mkce-labs/vivalab-backend/internal/response"
	"github.com/mkce-labs/vivalab-backend/internal/roster"
	"github.com/mkce-labs/vivalab-backend/internal/service"
)

// ResultsHandler handles result views for students and teachers.
type ResultsHandler struct {
	resultsService *service.ResultsService
}

// NewResultsHandler creates a new ResultsHandler.
func NewResultsHandler(resultsService *service.ResultsService) *ResultsHandler {
	return &ResultsHandler{resultsService: resultsService}
}

// StudentResults godoc
// GET /api/v1/student/results
// The authenticated student's own finished attempts.
func (h *ResultsHandler) StudentResults(c *gin.Context) {
	claims := middleware.GetClaims(c)

	results, err := h.resultsService.StudentResults(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"results": results})
}

// ExperimentResults godoc
// GET /api/v1/teacher/experiments/:id/results
func (h *ResultsHandler) ExperimentResults(c *gin.Context) {
	experimentID, ok := paramInt(c, "id")
	if !ok {
		return
	}

	results, err := h.resultsService.ExperimentResults(c.Request.Context(), experimentID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"results": results})
}

// RosterMarks godoc
// GET /api/v1/teacher/roster/marks
// Reads the live marks grid from the spreadsheet for export verification.
func (h *ResultsHandler) RosterMarks(c *gin.Context) {
	students, err := h.resultsService.RosterMarks(c.Request.Context())
	if err != nil {
		if errors.Is(err, roster.ErrUnavailable) {
			response.Fail(c, http.StatusServiceUnavailable, response.ErrRosterUnavailable)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"students": students})
}
