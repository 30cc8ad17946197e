package pixvault

import (
	"time"

	"github.com/pixvault/pixvault/password"
)

// Config carries the engine's tunables. Configure once before Build and
// treat as immutable afterwards.
type Config struct {
	// SecretKey is the long-lived global signing ingredient mixed into
	// cookie signatures. It is never used for API tokens. Required.
	SecretKey string

	// KeyPrefix namespaces every Redis key. Defaults to "pixvault".
	KeyPrefix string

	// CookieTTL is the default session cookie lifetime. Defaults to 2h.
	CookieTTL time.Duration

	// MinPasswordLength is the registration password policy floor.
	// Defaults to 6.
	MinPasswordLength int

	// OpTimeout bounds every backend call. Defaults to 5s.
	OpTimeout time.Duration

	// Password holds the argon2id hashing parameters.
	Password password.Config
}

func defaultConfig() Config {
	return Config{
		KeyPrefix:         "pixvault",
		CookieTTL:         2 * time.Hour,
		MinPasswordLength: 6,
		OpTimeout:         5 * time.Second,
		Password:          password.DefaultConfig(),
	}
}

func (c *Config) applyDefaults() {
	d := defaultConfig()
	if c.KeyPrefix == "" {
		c.KeyPrefix = d.KeyPrefix
	}
	if c.CookieTTL <= 0 {
		c.CookieTTL = d.CookieTTL
	}
	if c.MinPasswordLength <= 0 {
		c.MinPasswordLength = d.MinPasswordLength
	}
	if c.OpTimeout <= 0 {
		c.OpTimeout = d.OpTimeout
	}
	if c.Password == (password.Config{}) {
		c.Password = d.Password
	}
}
