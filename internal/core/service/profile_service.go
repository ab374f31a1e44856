package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/coursehub/coursehub-api/internal/core/domain"
	"github.com/coursehub/coursehub-api/internal/core/ports"
)

type ProfileService struct {
	repo ports.UserRepository
	log  zerolog.Logger
}

func NewProfileService(repo ports.UserRepository, log zerolog.Logger) *ProfileService {
	return &ProfileService{repo: repo, log: log}
}

func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return user, nil
}

// UpdateProfile applies a partial update. Names, phone, address and date of
// birth are only changed when a non-empty value is given; bio is applied
// whenever present so it can be cleared.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, in ports.ProfileUpdate) (*domain.User, error) {
	update := ports.ProfileUpdate{
		FirstName:   nonBlank(in.FirstName),
		LastName:    nonBlank(in.LastName),
		Bio:         in.Bio,
		Phone:       nonBlank(in.Phone),
		Address:     nonBlank(in.Address),
		DateOfBirth: in.DateOfBirth,
	}

	user, err := s.repo.UpdateProfile(ctx, userID, update)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.log.Info().Str("user_id", userID).Msg("profile updated")
	return user, nil
}

func nonBlank(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
