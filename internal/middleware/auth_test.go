package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/booking-api/internal/model"
	"github.com/carebridge/booking-api/pkg/auth"
)

func newAuthRouter(t *testing.T) (*gin.Engine, auth.JWTService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtSvc := auth.NewJWTService(auth.Config{Secret: "access-secret", RefreshSecret: "refresh-secret"})
	m := NewAuthMiddleware(jwtSvc)

	r := gin.New()
	protected := r.Group("/", m.Authenticate())
	protected.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.MustGet(ContextUserID)})
	})
	admin := protected.Group("/admin", m.RequireRole(model.RoleAdmin))
	admin.GET("/users", func(c *gin.Context) { c.Status(http.StatusOK) })
	provider := protected.Group("/provider", m.RequireProvider())
	provider.GET("/dashboard", func(c *gin.Context) { c.Status(http.StatusOK) })

	return r, jwtSvc
}

func tokenFor(t *testing.T, jwtSvc auth.JWTService, role model.UserRole) string {
	t.Helper()
	token, err := jwtSvc.GenerateAccessToken(&model.User{
		Base:  model.Base{ID: uuid.New()},
		Email: "someone@example.com",
		Role:  role,
	})
	require.NoError(t, err)
	return token
}

func get(r *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	r, jwtSvc := newAuthRouter(t)

	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", "Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", "Bearer garbage").Code)

	token := tokenFor(t, jwtSvc, model.RolePatient)
	assert.Equal(t, http.StatusOK, get(r, "/me", "Bearer "+token).Code)
}

func TestRequireRole(t *testing.T) {
	r, jwtSvc := newAuthRouter(t)

	patient := tokenFor(t, jwtSvc, model.RolePatient)
	admin := tokenFor(t, jwtSvc, model.RoleAdmin)
	doctor := tokenFor(t, jwtSvc, model.RoleDoctor)

	assert.Equal(t, http.StatusForbidden, get(r, "/admin/users", "Bearer "+patient).Code)
	assert.Equal(t, http.StatusOK, get(r, "/admin/users", "Bearer "+admin).Code)

	assert.Equal(t, http.StatusForbidden, get(r, "/provider/dashboard", "Bearer "+patient).Code)
	assert.Equal(t, http.StatusForbidden, get(r, "/provider/dashboard", "Bearer "+admin).Code)
	assert.Equal(t, http.StatusOK, get(r, "/provider/dashboard", "Bearer "+doctor).Code)
}
