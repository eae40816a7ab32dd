package provider

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carebridge/booking-api/internal/handler"
	"github.com/carebridge/booking-api/internal/middleware"
	"github.com/carebridge/booking-api/internal/model"
	"github.com/carebridge/booking-api/internal/service/provider"
)

const maxUploadBytes = 5 << 20

type Handler struct {
	service *provider.Service
}

func NewHandler(service *provider.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/me", h.GetProfile)
	r.PATCH("/me", h.UpdateProfile)
	r.POST("/schedules", h.UpsertSchedule)
	r.GET("/schedules", h.ListSchedules)
	r.POST("/documents", h.AddDocument)
	r.DELETE("/documents", h.RemoveDocument)
	r.GET("/dashboard", h.Dashboard)
	r.GET("/patients", h.ListPatients)
	r.POST("/appointments/:id/action", h.ActionOnAppointment)
}

func callerID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(middleware.ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func (h *Handler) GetProfile(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthenticated"))
		return
	}

	prov, err := h.service.GetProviderByUserID(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(prov))
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthenticated"))
		return
	}

	var req model.UpdateProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	prov, err := h.service.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(prov))
}

func (h *Handler) UpsertSchedule(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthenticated"))
		return
	}

	var req model.UpsertScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	prov, err := h.service.GetProviderByUserID(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}
	if req.ProviderID != prov.ID {
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("cannot manage another provider's schedule"))
		return
	}

	schedule, err := h.service.UpsertSchedule(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(schedule))
}

func (h *Handler) ListSchedules(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthenticated"))
		return
	}

	prov, err := h.service.GetProviderByUserID(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	book, err := h.service.ListSchedules(c.Request.Context(), prov.ID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(book))
}

func (h *Handler) AddDocument(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthenticated"))
		return
	}

	prov, err := h.service.GetProviderByUserID(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	file, fileHeader, err := c.Request.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("document file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("failed to read document"))
		return
	}

	key, err := h.service.AddDocument(c.Request.Context(), prov.ID, fileHeader.Header.Get("Content-Type"), data)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(gin.H{"document": key}))
}

func (h *Handler) RemoveDocument(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthenticated"))
		return
	}

	prov, err := h.service.GetProviderByUserID(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.service.RemoveDocument(c.Request.Context(), prov.ID); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) Dashboard(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthenticated"))
		return
	}

	dash, err := h.service.Dashboard(c.Request.Context(), userID, handler.LocalNow(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(dash))
}

func (h *Handler) ListPatients(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthenticated"))
		return
	}

	patients, err := h.service.ListPatients(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(patients))
}

type actionRequest struct {
	Action model.AppointmentStatus `json:"action" binding:"required,oneof=APPROVED REJECTED CANCELLED"`
}

func (h *Handler) ActionOnAppointment(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthenticated"))
		return
	}

	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	appt, err := h.service.ActionOnAppointment(c.Request.Context(), userID, appointmentID, req.Action)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(appt))
}
