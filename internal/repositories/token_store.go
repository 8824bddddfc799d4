package repositories

import (
	"context"
	"time"

	"chronoshop/internal/models"
)

// SettingsTokenStore persists the Shiprocket bearer token as two settings
// rows (token + RFC 3339 expiry). It satisfies shiprocket.TokenStore and is
// the default backend when no Redis URL is configured.
type SettingsTokenStore struct {
	settings SettingsRepository
}

// NewSettingsTokenStore creates a settings-backed token store.
func NewSettingsTokenStore(settings SettingsRepository) *SettingsTokenStore {
	return &SettingsTokenStore{settings: settings}
}

// Get returns the cached token and expiry, or empty values when either row
// is missing or the expiry does not parse.
func (s *SettingsTokenStore) Get(_ context.Context) (string, time.Time, error) {
	tokenSetting, err := s.settings.Get(models.SettingShiprocketToken)
	if err != nil {
		return "", time.Time{}, err
	}
	expirySetting, err := s.settings.Get(models.SettingShiprocketTokenExpiry)
	if err != nil {
		return "", time.Time{}, err
	}
	if tokenSetting == nil || expirySetting == nil {
		return "", time.Time{}, nil
	}

	expiry, err := time.Parse(time.RFC3339, expirySetting.Value)
	if err != nil {
		// A corrupt expiry row just forces a re-login.
		return "", time.Time{}, nil
	}
	return tokenSetting.Value, expiry, nil
}

// Save replaces the cached token and expiry.
func (s *SettingsTokenStore) Save(_ context.Context, token string, expiry time.Time) error {
	if err := s.settings.Set(models.SettingShiprocketToken, token, "Shiprocket Bearer Token"); err != nil {
		return err
	}
	return s.settings.Set(models.SettingShiprocketTokenExpiry, expiry.Format(time.RFC3339), "Token Expiry")
}
