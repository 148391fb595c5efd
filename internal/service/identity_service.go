package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/evidark-org/evidark/internal/helper"
	"github.com/evidark-org/evidark/internal/model"
	"github.com/evidark-org/evidark/internal/repository"

	"github.com/google/uuid"
)

// IdentityService resolves the user id a caller presents into a known user.
// It performs no credential check of its own.
type IdentityService struct {
	repo *repository.Repository
}

func NewIdentityService(repo *repository.Repository) *IdentityService {
	return &IdentityService{
		repo: repo,
	}
}

func (s *IdentityService) Authenticate(ctx context.Context, credential string) (*model.UserDTO, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, helper.NewUnauthorizedError("Missing user identity")
	}

	userID, err := uuid.Parse(credential)
	if err != nil {
		return nil, helper.NewUnauthorizedError("Invalid user identity")
	}

	user, err := s.repo.User.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, helper.NewUnauthorizedError("User not found")
		}
		slog.Error("Failed to look up user identity", "error", err, "userID", userID)
		return nil, helper.NewUnauthorizedError("")
	}

	return helper.ToUserDTO(user), nil
}
