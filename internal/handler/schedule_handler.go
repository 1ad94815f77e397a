package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkce-labs/vivalab-backend/internal/middleware"
	"github.com/mkce-labs/vivalab-backend/internal/model"
	"github.com/mkce-labs/vivalab-backend/internal/response"
	"github.com/mkce-labs/vivalab-backend/internal/service"
	"github.com/mkce-labs/vivalab-backend/internal/validator"
)

// ScheduleHandler handles viva schedule endpoints.
type ScheduleHandler struct {
	scheduleService *service.ScheduleService
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(scheduleService *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

// Create godoc
// POST /api/v1/teacher/schedules
func (h *ScheduleHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreateScheduleRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sched, err := h.scheduleService.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExperimentNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrScheduleExists):
			response.Fail(c, http.StatusConflict, response.ErrScheduleExists)
		case errors.Is(err, service.ErrInvalidWindow), errors.Is(err, service.ErrScheduleInPast):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidWindow)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"schedule": sched})
}

// List godoc
// GET /api/v1/teacher/schedules
func (h *ScheduleHandler) List(c *gin.Context) {
	views, err := h.scheduleService.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"schedules": views})
}

// ListToday godoc
// GET /api/v1/schedules/today
// Today's windows, for the student dashboard.
func (h *ScheduleHandler) ListToday(c *gin.Context) {
	views, err := h.scheduleService.ListToday(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"schedules": views})
}

// GetForExperiment godoc
// GET /api/v1/experiments/:id/schedule
func (h *ScheduleHandler) GetForExperiment(c *gin.Context) {
	experimentID, ok := paramInt(c, "id")
	if !ok {
		return
	}

	view, err := h.scheduleService.GetForExperiment(c.Request.Context(), experimentID)
	if err != nil {
		if errors.Is(err, service.ErrScheduleNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotScheduled)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"schedule": view})
}

// Delete godoc
// DELETE /api/v1/teacher/schedules/:id
func (h *ScheduleHandler) Delete(c *gin.Context) {
	claims := middleware.GetClaims(c)
	scheduleID, ok := paramInt(c, "id")
	if !ok {
		return
	}

	err := h.scheduleService.Delete(c.Request.Context(), claims.UserID, scheduleID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrScheduleNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrNotScheduleOwner):
			response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		case errors.Is(err, service.ErrScheduleInUse):
			response.Fail(c, http.StatusConflict, response.ErrScheduleInUse)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
