package medical

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carebridge/booking-api/internal/handler"
	"github.com/carebridge/booking-api/internal/middleware"
	"github.com/carebridge/booking-api/internal/model"
	"github.com/carebridge/booking-api/internal/service/medical"
)

const maxAttachmentBytes = 10 << 20

type Handler struct {
	service *medical.Service
}

func NewHandler(service *medical.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/records", h.AddRecord)
	r.GET("/patients/:id/records", h.ListForPatient)
}

func callerID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(middleware.ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// AddRecord accepts a multipart form: record fields plus an optional
// attachment file.
func (h *Handler) AddRecord(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthenticated"))
		return
	}

	var req model.AddMedicalRecordRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	var data []byte
	contentType := ""
	if file, fileHeader, err := c.Request.FormFile("attachment"); err == nil {
		defer file.Close()
		data, err = io.ReadAll(io.LimitReader(file, maxAttachmentBytes))
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("failed to read attachment"))
			return
		}
		contentType = fileHeader.Header.Get("Content-Type")
	}

	record, err := h.service.AddRecord(c.Request.Context(), userID, &req, contentType, data)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(record))
}

func (h *Handler) ListForPatient(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthenticated"))
		return
	}

	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	records, err := h.service.ListForProvider(c.Request.Context(), userID, patientID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(records))
}
