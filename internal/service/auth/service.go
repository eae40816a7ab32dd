package auth

import (
	"context"
	"time"

	"github.com/carebridge/booking-api/internal/model"
	"github.com/carebridge/booking-api/internal/repository"
	"github.com/carebridge/booking-api/pkg/auth"
	apperr "github.com/carebridge/booking-api/pkg/errors"
	"github.com/carebridge/booking-api/pkg/security"
)

// Service exchanges credentials for a token pair. OAuth and external
// identity flows are out of scope; email plus password is the only
// supported grant.
type Service struct {
	userRepo repository.UserRepository
	jwt      auth.JWTService
	hasher   security.PasswordHasher
	expiry   time.Duration
}

func NewService(userRepo repository.UserRepository, jwtSvc auth.JWTService, hasher security.PasswordHasher, expiry time.Duration) *Service {
	if expiry == 0 {
		expiry = 24 * time.Hour
	}
	return &Service{userRepo: userRepo, jwt: jwtSvc, hasher: hasher, expiry: expiry}
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if apperr.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthorized("invalid credentials", nil)
		}
		return nil, err
	}
	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperr.Unauthorized("invalid credentials", nil)
	}
	return s.tokensFor(user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperr.Unauthorized("invalid refresh token", err)
	}
	user, err := s.userRepo.Get(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return s.tokensFor(user)
}

func (s *Service) tokensFor(user *model.User) (*model.TokenResponse, error) {
	access, err := s.jwt.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}
	refresh, err := s.jwt.GenerateRefreshToken(user)
	if err != nil {
		return nil, err
	}
	return &model.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.expiry.Seconds()),
	}, nil
}
