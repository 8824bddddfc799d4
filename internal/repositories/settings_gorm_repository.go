package repositories

import (
	"errors"
	"fmt"
	"sync"

	"chronoshop/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMSettingsRepository is a GORM implementation of SettingsRepository.
type GORMSettingsRepository struct {
	db *gorm.DB
}

// NewGORMSettingsRepository creates a new instance of GORMSettingsRepository.
func NewGORMSettingsRepository(db *gorm.DB) *GORMSettingsRepository {
	return &GORMSettingsRepository{
		db: db,
	}
}

// Get returns the setting for key, or nil when absent.
func (r *GORMSettingsRepository) Get(key string) (*models.Setting, error) {
	var setting models.Setting
	if err := r.db.First(&setting, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return &setting, nil
}

// Set upserts the value for key.
func (r *GORMSettingsRepository) Set(key string, value string, description string) error {
	setting := models.Setting{Key: key, Value: value, Description: description}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// MockSettingsRepository is an in-memory implementation of SettingsRepository.
type MockSettingsRepository struct {
	settings map[string]models.Setting
	mu       sync.RWMutex
}

// NewMockSettingsRepository creates a new instance of MockSettingsRepository.
func NewMockSettingsRepository() *MockSettingsRepository {
	return &MockSettingsRepository{
		settings: make(map[string]models.Setting),
	}
}

// Get returns the setting for key, or nil when absent.
func (r *MockSettingsRepository) Get(key string) (*models.Setting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	setting, ok := r.settings[key]
	if !ok {
		return nil, nil
	}
	return &setting, nil
}

// Set upserts the value for key.
func (r *MockSettingsRepository) Set(key string, value string, description string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.settings[key] = models.Setting{Key: key, Value: value, Description: description}
	return nil
}
