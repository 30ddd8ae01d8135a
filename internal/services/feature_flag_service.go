package services

import (
	"errors"
	"hash/fnv"
	"strings"

	"gorm.io/gorm"

	apperrors "presusimple/internal/errors"
	"presusimple/internal/logger"
	"presusimple/internal/models"
)

// Flag keys known to the API.
const (
	FeatureSnapshotExport = "snapshot_export"
)

// featureFlagService evaluates feature flags stored in the database.
type featureFlagService struct {
	db *gorm.DB
}

// NewFeatureFlagService creates a new FeatureFlagServicer.
func NewFeatureFlagService(db *gorm.DB) FeatureFlagServicer {
	return &featureFlagService{db: db}
}

// IsEnabled reports whether the flag is on for the user. Unknown flags and
// lookup failures evaluate to false.
func (s *featureFlagService) IsEnabled(key, userID string) bool {
	var flag models.FeatureFlag
	if err := s.db.Where("key = ?", key).First(&flag).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Get().Errorw("failed to load feature flag", "error", err, "key", key)
		}
		return false
	}
	return evaluateFlag(&flag, userID)
}

// EvaluateAll returns every known flag evaluated for the user.
func (s *featureFlagService) EvaluateAll(userID string) (map[string]bool, error) {
	var flags []models.FeatureFlag
	if err := s.db.Order("key ASC").Find(&flags).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := make(map[string]bool, len(flags))
	for i := range flags {
		result[flags[i].Key] = evaluateFlag(&flags[i], userID)
	}
	return result, nil
}

// UpsertFlag creates the flag or replaces its state.
func (s *featureFlagService) UpsertFlag(key string, input FeatureFlagInput) (*models.FeatureFlag, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "feature key is required")
	}
	if input.RolloutPercentage < 0 || input.RolloutPercentage > 100 {
		return nil, apperrors.ErrInvalidRolloutPercentage
	}

	var flag models.FeatureFlag
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("key = ?", key).First(&flag).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		flag.Key = key
		flag.Description = input.Description
		flag.Enabled = input.Enabled
		flag.RolloutPercentage = input.RolloutPercentage
		flag.SetAllowList(input.AllowedUserIDs)

		if err := tx.Save(&flag).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Ensure(err)
	}
	return &flag, nil
}

// evaluateFlag applies the global switch, then the allow-list, then the
// percentage bucket.
func evaluateFlag(flag *models.FeatureFlag, userID string) bool {
	if !flag.Enabled {
		return false
	}
	for _, id := range flag.AllowList() {
		if id == userID {
			return true
		}
	}
	return rolloutBucket(flag.Key, userID) < uint32(flag.RolloutPercentage)
}

// rolloutBucket places a user in one of 100 stable buckets per flag.
func rolloutBucket(key, userID string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key + ":" + userID))
	return h.Sum32() % 100
}
