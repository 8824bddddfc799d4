package models

import "time"

// Payment gateway modes.
const (
	ModeSandbox = "sandbox"
	ModeLive    = "live"
)

// MaskedSecret is the placeholder returned in place of stored secrets and
// accepted on update to mean "keep the current value".
const MaskedSecret = "********"

// Well-known setting keys.
const (
	SettingPaymentSettings       = "payment_settings"
	SettingShiprocketToken       = "shiprocket_token"
	SettingShiprocketTokenExpiry = "shiprocket_token_expiry"
)

// Setting is a named key/value row used for system configuration that
// changes at runtime: gateway credentials, cached provider tokens. The key
// is the sole primary key so upserts can target it directly.
type Setting struct {
	Key         string    `json:"key" gorm:"primaryKey;type:varchar(100)"`
	Value       string    `json:"value"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PaymentSettings holds the gateway mode selector and per-mode credentials.
// Secrets are stored encrypted (when an encryption key is configured) and
// are always masked on the way out of the admin API.
type PaymentSettings struct {
	Mode                string `json:"mode" validate:"required,oneof=sandbox live"`
	SandboxClientID     string `json:"sandbox_client_id"`
	SandboxClientSecret string `json:"sandbox_client_secret"`
	LiveClientID        string `json:"live_client_id"`
	LiveClientSecret    string `json:"live_client_secret"`
	CallbackURL         string `json:"callback_url" validate:"omitempty,url"`
	UpdatedAt           string `json:"updated_at,omitempty"`
}
