package storeauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/storeauth/internal/metrics"
	"github.com/MrEthical07/storeauth/internal/rate"
	"github.com/MrEthical07/storeauth/password"
	"github.com/MrEthical07/storeauth/token"
)

// Environment selects cookie hardening and other deployment-sensitive
// behavior. Anything other than EnvProduction is treated as development.
const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// Config is the full engine configuration. Fill it once, hand it to
// [New], and treat it as immutable afterwards. [DefaultConfig] returns a
// working baseline; only the token secrets have no sane default.
type Config struct {
	Environment  string
	Token        token.Config
	Password     password.Config
	Policy       PolicyConfig
	Verification VerificationConfig
	Reset        ResetConfig
	RateLimit    rate.Config
	Audit        AuditConfig
	Metrics      metrics.Config
}

/*
====================================
PASSWORD POLICY
====================================
*/

// PolicyConfig tunes the password acceptance rules. The character-class
// requirements (upper, lower, digit, symbol) are fixed; only the minimum
// length is adjustable and it can never drop below 8.
type PolicyConfig struct {
	MinLength int
}

/*
====================================
EMAIL VERIFICATION
====================================
*/

// VerificationConfig controls the registration OTP challenge.
type VerificationConfig struct {
	OTPDigits int
	TTL       time.Duration

	// RequireForLogin rejects password logins from unverified accounts.
	// Off by default: the original storefront allowed login before
	// verification and gated sensitive routes in middleware instead.
	RequireForLogin bool
}

/*
====================================
PASSWORD RESET
====================================
*/

// ResetConfig controls the forgot-password OTP challenge.
type ResetConfig struct {
	OTPDigits int
	TTL       time.Duration
}

/*
====================================
AUDIT
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled bool

	// BufferSize bounds the dispatch queue. Events beyond it are dropped
	// and counted, never blocked on.
	BufferSize int
}

// DefaultConfig returns the baseline configuration. Token secrets are left
// empty and must be provided before Build.
func DefaultConfig() Config {
	return Config{
		Environment: EnvDevelopment,
		Token: token.Config{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
			Issuer:     "storeauth",
		},
		Password: password.Config{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Policy: PolicyConfig{MinLength: 8},
		Verification: VerificationConfig{
			OTPDigits: 6,
			TTL:       10 * time.Minute,
		},
		Reset: ResetConfig{
			OTPDigits: 6,
			TTL:       time.Hour,
		},
		RateLimit: rate.Config{
			EnableIPThrottle:   true,
			MaxLoginAttempts:   10,
			LoginCooldown:      15 * time.Minute,
			MaxRefreshAttempts: 30,
			RefreshCooldown:    time.Minute,
			MaxRequestAttempts: 5,
			RequestCooldown:    time.Hour,
			MaxConfirmAttempts: 10,
			ConfirmCooldown:    time.Hour,
		},
		Audit:   AuditConfig{Enabled: true, BufferSize: 256},
		Metrics: metrics.Config{Enabled: true},
	}
}

func (c *Config) validate() error {
	if c.Policy.MinLength < 8 {
		return errors.New("config: policy min length below 8")
	}
	if c.Verification.OTPDigits < 4 || c.Verification.OTPDigits > 10 {
		return fmt.Errorf("config: verification otp digits %d out of range", c.Verification.OTPDigits)
	}
	if c.Reset.OTPDigits < 4 || c.Reset.OTPDigits > 10 {
		return fmt.Errorf("config: reset otp digits %d out of range", c.Reset.OTPDigits)
	}
	if c.Verification.TTL <= 0 || c.Reset.TTL <= 0 {
		return errors.New("config: otp windows must be positive")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("config: audit buffer size must be positive")
	}
	return nil
}

// IsProduction reports whether the engine runs with production hardening.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}
