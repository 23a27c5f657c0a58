package storeauth

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type envSettings struct {
	Environment   string        `env:"STOREAUTH_ENV" envDefault:"development"`
	AccessSecret  string        `env:"STOREAUTH_ACCESS_SECRET,required,notEmpty"`
	RefreshSecret string        `env:"STOREAUTH_REFRESH_SECRET,required,notEmpty"`
	Issuer        string        `env:"STOREAUTH_ISSUER" envDefault:"storeauth"`
	AccessTTL     time.Duration `env:"STOREAUTH_ACCESS_TTL" envDefault:"15m"`
	RefreshTTL    time.Duration `env:"STOREAUTH_REFRESH_TTL" envDefault:"168h"`

	VerificationTTL         time.Duration `env:"STOREAUTH_VERIFICATION_TTL" envDefault:"10m"`
	ResetTTL                time.Duration `env:"STOREAUTH_RESET_TTL" envDefault:"1h"`
	OTPDigits               int           `env:"STOREAUTH_OTP_DIGITS" envDefault:"6"`
	RequireVerifiedForLogin bool          `env:"STOREAUTH_REQUIRE_VERIFIED_LOGIN" envDefault:"false"`

	AuditEnabled   bool `env:"STOREAUTH_AUDIT_ENABLED" envDefault:"true"`
	MetricsEnabled bool `env:"STOREAUTH_METRICS_ENABLED" envDefault:"true"`
}

// ConfigFromEnv builds a [Config] from STOREAUTH_* environment variables
// layered over [DefaultConfig]. Signing secrets are required; everything
// else falls back to the defaults.
func ConfigFromEnv() (Config, error) {
	var s envSettings
	if err := env.Parse(&s); err != nil {
		return Config{}, fmt.Errorf("storeauth: parse environment: %w", err)
	}

	cfg := DefaultConfig()
	cfg.Environment = s.Environment
	cfg.Token.AccessSecret = []byte(s.AccessSecret)
	cfg.Token.RefreshSecret = []byte(s.RefreshSecret)
	cfg.Token.Issuer = s.Issuer
	cfg.Token.AccessTTL = s.AccessTTL
	cfg.Token.RefreshTTL = s.RefreshTTL
	cfg.Verification.TTL = s.VerificationTTL
	cfg.Verification.OTPDigits = s.OTPDigits
	cfg.Verification.RequireForLogin = s.RequireVerifiedForLogin
	cfg.Reset.TTL = s.ResetTTL
	cfg.Reset.OTPDigits = s.OTPDigits
	cfg.Audit.Enabled = s.AuditEnabled
	cfg.Metrics.Enabled = s.MetricsEnabled
	return cfg, nil
}
