package services

import (
	"context"
	"errors"
	"net/http"
	"pbm-portal/internal/apis/dtos"
	"pbm-portal/internal/repositories"
	"pbm-portal/internal/utils"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type AuthService interface {
	Login(ctx context.Context, req *dtos.LoginRequest) (*dtos.LoginResponse, uint32, error)
	// Logout revokes the token until it would have expired anyway.
	Logout(ctx context.Context, claims *utils.Claims) (uint32, error)
	Me(ctx context.Context, userID uint) (*dtos.UserResponse, uint32, error)
}

type authService struct {
	userRepo   repositories.UserRepository
	jwtService utils.JWTService
	tokenRepo  repositories.TokenRepository
}

func NewAuthService(userRepo repositories.UserRepository, jwtService utils.JWTService, tokenRepo repositories.TokenRepository) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		tokenRepo:  tokenRepo,
	}
}

func (s *authService) Login(ctx context.Context, req *dtos.LoginRequest) (*dtos.LoginResponse, uint32, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, http.StatusBadRequest, errors.New("Email and password are required")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		log.Error().Str("component", "auth").Err(err).Msg("Login -> user lookup failed")
		return nil, http.StatusInternalServerError, errors.New("Internal Server Error")
	}
	if user == nil || !utils.CheckPassword(user.Password, req.Password) {
		return nil, http.StatusUnauthorized, errors.New("Invalid credentials")
	}

	token, _, err := s.jwtService.GenerateToken(user.ID, user.Email, user.Name)
	if err != nil {
		log.Error().Str("component", "auth").Err(err).Msg("Login -> token generation failed")
		return nil, http.StatusInternalServerError, errors.New("Internal Server Error")
	}

	log.Info().Str("component", "auth").Uint("user_id", user.ID).Msg("Login -> success")
	return &dtos.LoginResponse{
		Token: token,
		User: dtos.UserResponse{
			Email: user.Email,
			Name:  user.Name,
		},
	}, http.StatusOK, nil
}

func (s *authService) Logout(ctx context.Context, claims *utils.Claims) (uint32, error) {
	if claims == nil || claims.ID == "" {
		return http.StatusUnauthorized, errors.New("Unauthorized")
	}
	var ttl time.Duration
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if err := s.tokenRepo.Revoke(ctx, claims.ID, ttl); err != nil {
		log.Error().Str("component", "auth").Err(err).Msg("Logout -> revoke failed")
		return http.StatusInternalServerError, errors.New("Internal Server Error")
	}
	return http.StatusOK, nil
}

func (s *authService) Me(ctx context.Context, userID uint) (*dtos.UserResponse, uint32, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, http.StatusInternalServerError, errors.New("Internal Server Error")
	}
	if user == nil {
		return nil, http.StatusNotFound, errors.New("User not found")
	}
	return &dtos.UserResponse{ID: user.ID, Email: user.Email, Name: user.Name}, http.StatusOK, nil
}
