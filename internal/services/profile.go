package services

import (
	"context"
	"time"

	"github.com/yishak-cs/wardrobe/internal/logger"
	"github.com/yishak-cs/wardrobe/internal/models"
)

// ProfileService reads and edits user profiles
type ProfileService struct {
	store ProfileStore
	log   *logger.Logger
	now   func() time.Time
}

// NewProfileService creates a new profile service
func NewProfileService(store ProfileStore, log *logger.Logger) *ProfileService {
	return &ProfileService{
		store: store,
		log:   log.With("component", "ProfileService"),
		now:   time.Now,
	}
}

// Get returns the user's profile, the empty default when none was saved
func (s *ProfileService) Get(ctx context.Context, userID string) (models.UserProfile, error) {
	return s.store.GetProfile(ctx, userID)
}

// Update applies a partial edit and saves the whole profile
func (s *ProfileService) Update(ctx context.Context, userID string, update models.ProfileUpdate) (models.UserProfile, error) {
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return models.UserProfile{}, err
	}
	update.Apply(&profile)
	profile.UserID = userID
	now := s.now()
	profile.UpdatedAt = &now

	if err := s.store.SaveProfile(ctx, profile); err != nil {
		return models.UserProfile{}, err
	}
	s.log.Info("Updated profile", "user_id", userID, "setup_completed", profile.SetupCompleted)
	return profile, nil
}

// CompleteSetup marks the setup wizard as done
func (s *ProfileService) CompleteSetup(ctx context.Context, userID string) (models.UserProfile, error) {
	done := true
	return s.Update(ctx, userID, models.ProfileUpdate{SetupCompleted: &done})
}

// hints loads the generator view of the profile. Failures are logged and yield nil.
func (s *ProfileService) hints(ctx context.Context, userID string) *models.ProfileHints {
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		s.log.Warn("Generating without profile", "user_id", userID, "error", err)
		return nil
	}
	return profile.Hints()
}
