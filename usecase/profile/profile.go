package profile

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

const maxFullNameLength = 200

type UseCase struct {
	users  repository.UserRepository
	logger *zap.Logger
}

func New(users repository.UserRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		logger: logger,
	}
}

func (uc *UseCase) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	return uc.users.GetByID(ctx, userID)
}

// UpdateFullName changes the display name; an empty name falls back to the
// email local part wherever the name is shown.
func (uc *UseCase) UpdateFullName(ctx context.Context, userID, fullName string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	fullName = strings.TrimSpace(fullName)
	if len(fullName) > maxFullNameLength {
		return nil, domain.NewError(domain.ErrCodeInvalid, "full name is too long")
	}
	user, err := uc.users.UpdateFullName(ctx, userID, fullName)
	if err != nil {
		uc.logger.Error("failed to update profile", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return user, nil
}
