package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkce-labs/vivalab-backend/internal/middleware"
	"github.com/mkce-labs/vivalab-backend/internal/model"
	"github.com/mkce-labs/vivalab-backend/internal/repository"
	"github.com/mkce-labs/vivalab-backend/internal/response"
	"github.com/mkce-labs/vivalab-backend/internal/schedule"
	"github.com/mkce-labs/vivalab-backend/internal/service"
	"github.com/mkce-labs/vivalab-backend/internal/validator"
)

// VivaHandler handles the student attempt lifecycle.
type VivaHandler struct {
	vivaService *service.VivaSessionService
}

// NewVivaHandler creates a new VivaHandler.
func NewVivaHandler(vivaService *service.VivaSessionService) *VivaHandler {
	return &VivaHandler{vivaService: vivaService}
}

// Start godoc
// POST /api/v1/student/experiments/:id/viva/start
// Opens (or resumes) the student's single attempt at the experiment.
func (h *VivaHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)
	experimentID, ok := paramInt(c, "id")
	if !ok {
		return
	}

	paper, err := h.vivaService.StartAttempt(c.Request.Context(), claims.UserID, experimentID)
	if err != nil {
		failViva(c, err)
		return
	}
	response.Success(c, http.StatusOK, paper)
}

// SubmitAnswer godoc
// POST /api/v1/student/viva/:sessionID/answers
// Saves one answer; re-submission overwrites.
func (h *VivaHandler) SubmitAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, ok := paramUUID(c, "sessionID")
	if !ok {
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.vivaService.SubmitAnswer(c.Request.Context(), claims.UserID, sessionID, req)
	if errors.Is(err, service.ErrWindowExpired) {
		// The attempt was finalized with whatever was answered in time.
		response.Success(c, http.StatusOK, gin.H{
			"finalized": true,
			"result":    result,
		})
		return
	}
	if err != nil {
		failViva(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"saved": true})
}

// Finalize godoc
// POST /api/v1/student/viva/:sessionID/finalize
// Scores the attempt and performs the completed terminal transition.
func (h *VivaHandler) Finalize(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, ok := paramUUID(c, "sessionID")
	if !ok {
		return
	}

	result, err := h.vivaService.Finalize(c.Request.Context(), claims.UserID, sessionID)
	if err != nil {
		failViva(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// ReportViolation godoc
// POST /api/v1/student/viva/:sessionID/violation
// Records a proctoring signal; the attempt ends violated with zero marks.
func (h *VivaHandler) ReportViolation(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, ok := paramUUID(c, "sessionID")
	if !ok {
		return
	}

	var req model.ViolationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.vivaService.ReportViolation(c.Request.Context(), claims.UserID, sessionID, req.Reason)
	if err != nil {
		failViva(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// Progress godoc
// GET /api/v1/student/viva/:sessionID/progress
func (h *VivaHandler) Progress(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, ok := paramUUID(c, "sessionID")
	if !ok {
		return
	}

	progress, err := h.vivaService.GetProgress(c.Request.Context(), claims.UserID, sessionID)
	if err != nil {
		failViva(c, err)
		return
	}
	response.Success(c, http.StatusOK, progress)
}

// ResetStranded godoc
// POST /api/v1/teacher/sessions/reset-stranded
// Clears in-progress attempts stranded by an outage so students can restart.
func (h *VivaHandler) ResetStranded(c *gin.Context) {
	count, err := h.vivaService.ResetStranded(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"cleared": count})
}

// failViva maps attempt lifecycle errors onto the response envelope.
func failViva(c *gin.Context, err error) {
	var windowErr *service.WindowClosedError
	if errors.As(err, &windowErr) {
		switch windowErr.Status {
		case schedule.ClosedEarly:
			response.Fail(c, http.StatusForbidden, response.ErrWindowNotStarted)
		case schedule.ClosedExpired:
			response.Fail(c, http.StatusForbidden, response.ErrWindowExpired)
		default:
			response.Fail(c, http.StatusForbidden, response.ErrWindowClosed)
		}
		return
	}

	switch {
	case errors.Is(err, service.ErrExperimentNotFound),
		errors.Is(err, service.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNotScheduled):
		response.Fail(c, http.StatusNotFound, response.ErrNotScheduled)
	case errors.Is(err, service.ErrAlreadyAttempted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadyAttempted)
	case errors.Is(err, service.ErrNotOwner):
		response.Fail(c, http.StatusForbidden, response.ErrNotSessionOwner)
	case errors.Is(err, service.ErrNotInProgress):
		response.Fail(c, http.StatusConflict, response.ErrNotInProgress)
	case errors.Is(err, service.ErrQuestionOutOfRange):
		response.Fail(c, http.StatusBadRequest, response.ErrQuestionOutOfRange)
	case errors.Is(err, repository.ErrAlreadyFinalized):
		response.Fail(c, http.StatusConflict, response.ErrAlreadyFinalized)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
