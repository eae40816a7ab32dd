package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carebridge/booking-api/internal/handler"
	"github.com/carebridge/booking-api/internal/model"
	"github.com/carebridge/booking-api/internal/service/admin"
)

type Handler struct {
	service *admin.Service
}

func NewHandler(service *admin.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/users", h.ListUsers)
	r.GET("/providers/unverified", h.ListUnverifiedProviders)
	r.GET("/appointments", h.ListAppointments)
	r.POST("/providers/:id/action", h.ActionOnProvider)
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(users))
}

func (h *Handler) ListUnverifiedProviders(c *gin.Context) {
	providers, err := h.service.ListUnverifiedProviders(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(providers))
}

func (h *Handler) ListAppointments(c *gin.Context) {
	filters := &model.AppointmentFilters{
		Status:  model.AppointmentStatus(c.Query("status")),
		Service: model.ServiceType(c.Query("service")),
	}
	if v := c.Query("provider_id"); v != "" {
		providerID, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid provider ID"))
			return
		}
		filters.ProviderID = providerID
	}

	page := model.Pagination{}
	if v := c.Query("page"); v != "" {
		page.Page, _ = strconv.Atoi(v)
	}
	if v := c.Query("limit"); v != "" {
		page.PageSize, _ = strconv.Atoi(v)
	}
	page.Normalize()

	appointments, total, err := h.service.ListAppointments(c.Request.Context(), filters, page)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(handler.PagedData{
		Items: appointments,
		Total: total,
		Page:  page.Page,
		Limit: page.PageSize,
	}))
}

type actionRequest struct {
	Action model.ApprovalStatus `json:"action" binding:"required,oneof=APPROVED REJECTED"`
}

func (h *Handler) ActionOnProvider(c *gin.Context) {
	providerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid provider ID"))
		return
	}

	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	provider, err := h.service.ActionOnProvider(c.Request.Context(), providerID, req.Action)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(provider))
}
