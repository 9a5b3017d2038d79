package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"acadflow/backend/internal/dto"
	"acadflow/backend/internal/model"
	"acadflow/backend/internal/repository"
	"acadflow/backend/pkg/apperrors"
	"acadflow/backend/pkg/jwt"
	"acadflow/backend/pkg/redis"
)

// AuthService sessions and user directory.
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	// Refresh exchanges a valid refresh token for a new access token.
	Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.RefreshResponse, error)
	// Logout revokes the presented token for its remaining lifetime.
	Logout(ctx context.Context, tokenString string) error
	Profile(ctx context.Context, email string) (*dto.UserResponse, error)
	ListUsers(ctx context.Context) ([]dto.UserResponse, error)
}

type authService struct {
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	rdb    *redis.Client
	logger *zap.Logger
}

// NewAuthService builds the AuthService.
func NewAuthService(repo *repository.Repository, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) AuthService {
	return &authService{repo: repo, jwtMgr: jwtMgr, rdb: rdb, logger: logger}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.User.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Same error as a wrong password; logins never reveal which.
			return nil, fmt.Errorf("%w: invalid email or password", apperrors.ErrForbidden)
		}
		return nil, err
	}
	if user.Deactivated {
		return nil, fmt.Errorf("%w: this account has been deactivated", apperrors.ErrForbidden)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", apperrors.ErrForbidden)
	}

	accessToken, err := s.jwtMgr.GenerateAccessToken(user.Email, user.Type, user.Roles)
	if err != nil {
		s.logger.Error("issue access token failed", zap.Error(err))
		return nil, err
	}
	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.Email, user.Type, user.Roles)
	if err != nil {
		s.logger.Error("issue refresh token failed", zap.Error(err))
		return nil, err
	}

	s.logger.Info("user logged in", zap.String("email", user.Email))
	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         *toUserResponse(user),
	}, nil
}

func (s *authService) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.RefreshResponse, error) {
	claims, err := s.jwtMgr.ParseToken(req.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrForbidden, err)
	}
	if claims.TokenType != "refresh" {
		return nil, fmt.Errorf("%w: not a refresh token", apperrors.ErrForbidden)
	}
	if revoked, err := s.rdb.IsBlacklisted(ctx, claims.ID); err != nil {
		return nil, err
	} else if revoked {
		return nil, fmt.Errorf("%w: token revoked", apperrors.ErrForbidden)
	}

	// Re-read the user so role changes and deactivation take effect on
	// refresh rather than waiting out the refresh TTL.
	user, err := s.repo.User.GetByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: unknown user", apperrors.ErrForbidden)
		}
		return nil, err
	}
	if user.Deactivated {
		return nil, fmt.Errorf("%w: this account has been deactivated", apperrors.ErrForbidden)
	}

	accessToken, err := s.jwtMgr.GenerateAccessToken(user.Email, user.Type, user.Roles)
	if err != nil {
		return nil, err
	}
	return &dto.RefreshResponse{AccessToken: accessToken}, nil
}

func (s *authService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.jwtMgr.ParseToken(tokenString)
	if err != nil {
		// An expired or malformed token has nothing left to revoke.
		return nil
	}
	if err := s.rdb.BlacklistToken(ctx, claims.ID, claims.RemainingTTL()); err != nil {
		s.logger.Error("blacklist token failed", zap.Error(err))
		return err
	}
	s.logger.Info("user logged out", zap.String("email", claims.Email))
	return nil
}

func (s *authService) Profile(ctx context.Context, email string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", apperrors.ErrNotFound, email)
		}
		return nil, err
	}
	return toUserResponse(user), nil
}

func (s *authService) ListUsers(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.repo.User.List(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, *toUserResponse(&users[i]))
	}
	return result, nil
}

func toUserResponse(u *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		Email:       u.Email,
		Name:        u.Name,
		Type:        u.Type,
		PhDType:     u.PhDType,
		PSRN:        u.PSRN,
		ERPID:       u.ERPID,
		Roles:       u.Roles,
		Deactivated: u.Deactivated,
	}
}
