package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/identity_service/internal/apperrors"
	"github.com/SscSPs/identity_service/internal/core/domain"
	portsrepo "github.com/SscSPs/identity_service/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/identity_service/internal/core/ports/services"
)

type userService struct {
	BaseService
	userRepo portsrepo.UserRepositoryFacade
}

var _ portssvc.UserSvcFacade = (*userService)(nil)

func NewUserService(userRepo portsrepo.UserRepositoryFacade) portssvc.UserSvcFacade {
	return &userService{BaseService: newBaseService(), userRepo: userRepo}
}

func (s *userService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID in service: %w", err)
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	users, err := s.userRepo.FindUsers(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

func (s *userService) SetRole(ctx context.Context, userID string, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("unknown role %q", role))
	}

	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user for role change: %w", err)
	}
	if user.Role == role {
		return user, nil
	}

	previous := user.Role
	now := s.Now()
	if err := s.userRepo.UpdateRole(ctx, userID, role, now); err != nil {
		return nil, fmt.Errorf("failed to update user role: %w", err)
	}
	user.Role = role
	user.LastUpdatedAt = now

	s.LogInfo(ctx, "User role changed",
		slog.String("user_id", userID),
		slog.String("from", string(previous)),
		slog.String("to", string(role)))
	return user, nil
}
