package user

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carebridge/booking-api/internal/handler"
	"github.com/carebridge/booking-api/internal/middleware"
	"github.com/carebridge/booking-api/internal/model"
	"github.com/carebridge/booking-api/internal/service/auth"
	"github.com/carebridge/booking-api/internal/service/medical"
	"github.com/carebridge/booking-api/internal/service/user"
)

const maxUploadBytes = 5 << 20

type Handler struct {
	service    *user.Service
	authSvc    *auth.Service
	medicalSvc *medical.Service
}

func NewHandler(service *user.Service, authSvc *auth.Service, medicalSvc *medical.Service) *Handler {
	return &Handler{service: service, authSvc: authSvc, medicalSvc: medicalSvc}
}

// RegisterPublicRoutes mounts the endpoints served without a token.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.POST("/signup", h.Signup)
	r.POST("/login", h.Login)
	r.POST("/tokens/refresh", h.RefreshTokens)
	r.GET("/providers", h.ListProviders)
	r.GET("/providers/homecare", h.ListHomeCareProviders)
	r.GET("/providers/popular", h.ListPopularDoctors)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/me", h.GetProfile)
	r.PATCH("/me", h.UpdateProfile)
	r.POST("/me/profile-pic", h.UploadProfilePic)
	r.POST("/me/apply-provider", h.ApplyForProvider)
	r.GET("/me/appointments", h.ListAppointments)
	r.GET("/me/dashboard", h.Dashboard)
	r.GET("/me/medical-records", h.ListMedicalRecords)
	r.GET("/providers/:id", h.GetProviderDetail)
	r.POST("/reviews", h.AddReview)
}

func callerID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(middleware.ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func (h *Handler) Signup(c *gin.Context) {
	var req model.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	u, err := h.service.Signup(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(u))
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	tokens, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(tokens))
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *Handler) RefreshTokens(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	tokens, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(tokens))
}

func (h *Handler) GetProfile(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthenticated"))
		return
	}

	u, err := h.service.GetUser(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(u))
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthenticated"))
		return
	}

	var req model.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	req.UserID = userID

	u, err := h.service.UpdateProfile(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(u))
}

func (h *Handler) UploadProfilePic(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthenticated"))
		return
	}

	file, fileHeader, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("image file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("failed to read image"))
		return
	}

	key, err := h.service.UploadProfilePic(c.Request.Context(), userID, fileHeader.Header.Get("Content-Type"), data)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(gin.H{"profile_pic": key}))
}

func (h *Handler) ApplyForProvider(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthenticated"))
		return
	}

	var req model.ApplyForProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	req.UserID = userID

	prov, err := h.service.ApplyForProvider(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(prov))
}

func (h *Handler) ListProviders(c *gin.Context) {
	filters := &model.ProviderFilters{
		Speciality: c.Query("speciality"),
		Address:    c.Query("address"),
		Service:    model.ServiceType(c.Query("service")),
		Type:       model.ProviderType(c.Query("type")),
	}

	providers, err := h.service.ListProviders(c.Request.Context(), filters)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(providers))
}

func (h *Handler) ListHomeCareProviders(c *gin.Context) {
	filters := &model.ProviderFilters{
		Speciality: c.Query("speciality"),
		Address:    c.Query("address"),
	}

	providers, err := h.service.ListHomeCareProviders(c.Request.Context(), filters)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(providers))
}

func (h *Handler) ListPopularDoctors(c *gin.Context) {
	limit := 10
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid limit"))
			return
		}
		limit = n
	}

	providers, err := h.service.ListPopularDoctors(c.Request.Context(), limit)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(providers))
}

func (h *Handler) GetProviderDetail(c *gin.Context) {
	providerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid provider ID"))
		return
	}

	viewerID, _ := callerID(c)
	service := model.ServiceType(c.Query("service"))
	if service != "" && !service.Valid() {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid service"))
		return
	}

	detail, err := h.service.GetProviderDetail(c.Request.Context(), providerID, viewerID, service, handler.LocalNow(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(detail))
}

func (h *Handler) AddReview(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthenticated"))
		return
	}

	var req model.AddReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	req.UserID = userID

	review, err := h.service.AddReview(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(review))
}

func (h *Handler) ListAppointments(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthenticated"))
		return
	}

	appointments, err := h.service.ListAppointments(c.Request.Context(), userID, model.AppointmentStatus(c.Query("status")))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
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

func (h *Handler) ListMedicalRecords(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthenticated"))
		return
	}

	records, err := h.medicalSvc.ListForPatient(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(records))
}
