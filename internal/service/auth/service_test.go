package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/booking-api/internal/model"
	"github.com/carebridge/booking-api/internal/repository/fake"
	pkgauth "github.com/carebridge/booking-api/pkg/auth"
	apperr "github.com/carebridge/booking-api/pkg/errors"
	"github.com/carebridge/booking-api/pkg/security"
)

func newFixture(t *testing.T) (*Service, *fake.UserRepo) {
	t.Helper()
	users := fake.NewUserRepo()
	hasher := security.NewBcryptHasher(4)
	jwtSvc := pkgauth.NewJWTService(pkgauth.Config{
		Secret:        "access-secret",
		RefreshSecret: "refresh-secret",
	})

	hash, err := hasher.Hash("s3cret-pass")
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), &model.User{
		Base:         model.Base{ID: uuid.New()},
		Email:        "ravi@example.com",
		Role:         model.RolePatient,
		PasswordHash: hash,
	}))

	return NewService(users, jwtSvc, hasher, time.Hour), users
}

func TestLogin(t *testing.T) {
	svc, _ := newFixture(t)

	tokens, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "ravi@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, int64(3600), tokens.ExpiresIn)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, _ := newFixture(t)

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "ravi@example.com",
		Password: "wrong-pass",
	})
	assert.True(t, apperr.Is(err, apperr.ErrUnauthorized))

	// Unknown accounts fail the same way as wrong passwords.
	_, err = svc.Login(context.Background(), &model.LoginRequest{
		Email:    "nobody@example.com",
		Password: "s3cret-pass",
	})
	assert.True(t, apperr.Is(err, apperr.ErrUnauthorized))
}

func TestRefresh(t *testing.T) {
	svc, _ := newFixture(t)

	tokens, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "ravi@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = svc.Refresh(context.Background(), "garbage")
	assert.True(t, apperr.Is(err, apperr.ErrUnauthorized))

	// An access token is not a refresh token.
	_, err = svc.Refresh(context.Background(), tokens.AccessToken)
	assert.True(t, apperr.Is(err, apperr.ErrUnauthorized))
}
