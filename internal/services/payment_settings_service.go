package services

import (
	"encoding/json"
	"fmt"
	"time"

	"chronoshop/internal/models"
	"chronoshop/internal/repositories"
	"chronoshop/pkg/cashfree"
	"chronoshop/pkg/encryption"
)

// PaymentSettingsService owns the gateway credential store: mode selection,
// encryption at rest, masking on read. Plaintext secrets never leave this
// service except through Resolve, which only the checkout orchestrator and
// the webhook handler call.
type PaymentSettingsService struct {
	settings        repositories.SettingsRepository
	cipher          *encryption.Cipher
	defaultCallback string
}

// NewPaymentSettingsService creates a new PaymentSettingsService. cipher may
// be nil, in which case secrets are stored as-is.
func NewPaymentSettingsService(settings repositories.SettingsRepository, cipher *encryption.Cipher, defaultCallback string) *PaymentSettingsService {
	return &PaymentSettingsService{
		settings:        settings,
		cipher:          cipher,
		defaultCallback: defaultCallback,
	}
}

// load returns the stored settings (secrets still encrypted), or sandbox
// defaults when none were saved yet.
func (s *PaymentSettingsService) load() (*models.PaymentSettings, error) {
	row, err := s.settings.Get(models.SettingPaymentSettings)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return &models.PaymentSettings{Mode: models.ModeSandbox, CallbackURL: s.defaultCallback}, nil
	}

	var stored models.PaymentSettings
	if err := json.Unmarshal([]byte(row.Value), &stored); err != nil {
		return nil, fmt.Errorf("corrupt payment settings: %w", err)
	}
	if stored.Mode == "" {
		stored.Mode = models.ModeSandbox
	}
	if stored.CallbackURL == "" {
		stored.CallbackURL = s.defaultCallback
	}
	return &stored, nil
}

// Masked returns the settings with every stored secret replaced by the mask
// placeholder. Safe to hand to the admin UI.
func (s *PaymentSettingsService) Masked() (*models.PaymentSettings, error) {
	stored, err := s.load()
	if err != nil {
		return nil, err
	}
	masked := *stored
	masked.SandboxClientID = maskIfSet(stored.SandboxClientID)
	masked.SandboxClientSecret = maskIfSet(stored.SandboxClientSecret)
	masked.LiveClientID = maskIfSet(stored.LiveClientID)
	masked.LiveClientSecret = maskIfSet(stored.LiveClientSecret)
	return &masked, nil
}

// Update persists new settings. Incoming secrets equal to the mask
// placeholder keep their stored value; everything else is encrypted before
// it hits the settings table.
func (s *PaymentSettingsService) Update(in *models.PaymentSettings) error {
	if in.Mode != models.ModeSandbox && in.Mode != models.ModeLive {
		return fmt.Errorf("%w: mode must be sandbox or live", ErrValidation)
	}

	current, err := s.load()
	if err != nil {
		return err
	}

	next := models.PaymentSettings{
		Mode:        in.Mode,
		CallbackURL: in.CallbackURL,
		UpdatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if next.CallbackURL == "" {
		next.CallbackURL = current.CallbackURL
	}

	next.SandboxClientID, err = s.mergeSecret(in.SandboxClientID, current.SandboxClientID)
	if err != nil {
		return err
	}
	next.SandboxClientSecret, err = s.mergeSecret(in.SandboxClientSecret, current.SandboxClientSecret)
	if err != nil {
		return err
	}
	next.LiveClientID, err = s.mergeSecret(in.LiveClientID, current.LiveClientID)
	if err != nil {
		return err
	}
	next.LiveClientSecret, err = s.mergeSecret(in.LiveClientSecret, current.LiveClientSecret)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to marshal payment settings: %w", err)
	}
	return s.settings.Set(models.SettingPaymentSettings, string(raw), "Payment gateway settings")
}

// Resolve returns the decrypted gateway config for the active mode, plus the
// mode name so callers can select the matching client-side checkout flow.
func (s *PaymentSettingsService) Resolve() (cashfree.Config, string, error) {
	stored, err := s.load()
	if err != nil {
		return cashfree.Config{}, "", err
	}

	clientID := stored.SandboxClientID
	clientSecret := stored.SandboxClientSecret
	if stored.Mode == models.ModeLive {
		clientID = stored.LiveClientID
		clientSecret = stored.LiveClientSecret
	}
	if clientID == "" || clientSecret == "" {
		return cashfree.Config{}, "", fmt.Errorf("%w: payment gateway credentials are not configured for %s mode", ErrValidation, stored.Mode)
	}

	cfg := cashfree.Config{
		BaseURL:      cashfree.BaseURLForMode(stored.Mode),
		ClientID:     s.decryptLenient(clientID),
		ClientSecret: s.decryptLenient(clientSecret),
		CallbackURL:  stored.CallbackURL,
	}
	return cfg, stored.Mode, nil
}

// WebhookSecret returns the active mode's client secret for webhook
// signature verification.
func (s *PaymentSettingsService) WebhookSecret() (string, error) {
	cfg, _, err := s.Resolve()
	if err != nil {
		return "", err
	}
	return cfg.ClientSecret, nil
}

func (s *PaymentSettingsService) mergeSecret(incoming, stored string) (string, error) {
	if incoming == "" || incoming == models.MaskedSecret {
		return stored, nil
	}
	sealed, err := s.cipher.Encrypt(incoming)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt secret: %w", err)
	}
	return sealed, nil
}

// decryptLenient tolerates legacy plaintext values: if a stored value does
// not decrypt, it is used as-is.
func (s *PaymentSettingsService) decryptLenient(value string) string {
	plain, err := s.cipher.Decrypt(value)
	if err != nil {
		return value
	}
	return plain
}

func maskIfSet(value string) string {
	if value == "" {
		return ""
	}
	return models.MaskedSecret
}
