package appointment

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carebridge/booking-api/internal/handler"
	"github.com/carebridge/booking-api/internal/model"
	"github.com/carebridge/booking-api/internal/service/availability"
	"github.com/carebridge/booking-api/internal/service/booking"
)

type Handler struct {
	availability *availability.Service
	booking      *booking.Service
}

func NewHandler(availabilitySvc *availability.Service, bookingSvc *booking.Service) *Handler {
	return &Handler{availability: availabilitySvc, booking: bookingSvc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/providers/:id/slots", h.GetAvailableSlots)
	r.GET("/providers/:id/slots/check", h.CheckSlot)
	r.POST("/appointments", h.BookAppointment)
	r.POST("/appointments/integrated", h.BookIntegratedCare)
}

// GetAvailableSlots returns the open/booked slot lists for each day in
// the window. service is required; days defaults to ten.
func (h *Handler) GetAvailableSlots(c *gin.Context) {
	providerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid provider ID"))
		return
	}

	service := model.ServiceType(c.Query("service"))
	if !service.Valid() {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid or missing service"))
		return
	}

	days := availability.DefaultWindowDays
	if v := c.Query("days"); v != "" {
		days, err = strconv.Atoi(v)
		if err != nil || days <= 0 {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid days"))
			return
		}
	}

	slots, err := h.availability.ComputeAvailableSlots(c.Request.Context(), providerID, service, handler.LocalNow(c), days)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(slots))
}

func (h *Handler) CheckSlot(c *gin.Context) {
	providerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid provider ID"))
		return
	}

	service := model.ServiceType(c.Query("service"))
	if !service.Valid() {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid or missing service"))
		return
	}

	open, err := h.availability.IsSlotAvailable(
		c.Request.Context(),
		providerID,
		service,
		c.Query("date"),
		c.Query("slot"),
		handler.LocalNow(c),
	)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"isAvailable": open}))
}

func (h *Handler) BookAppointment(c *gin.Context) {
	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	appt, err := h.booking.BookAppointment(c.Request.Context(), &req, handler.LocalNow(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(appt))
}

func (h *Handler) BookIntegratedCare(c *gin.Context) {
	var req model.IntegratedBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	appts, err := h.booking.BookIntegratedCare(c.Request.Context(), &req, handler.LocalNow(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(appts))
}
