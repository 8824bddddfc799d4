package repositories

import "chronoshop/internal/models"

// SettingsRepository defines key/value system-settings access.
type SettingsRepository interface {
	// Get returns the setting for key, or (nil, nil) when it does not exist.
	Get(key string) (*models.Setting, error)

	// Set creates or replaces the value for key.
	Set(key string, value string, description string) error
}
