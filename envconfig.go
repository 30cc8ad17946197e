package pixvault

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvSettings is the deployment configuration read from the environment.
type EnvSettings struct {
	// RedisURL is the backend connection string
	// (redis://[:password@]host:port/db).
	RedisURL string
	Config   Config
}

// LoadEnv reads PIXVAULT_* settings, first merging any .env files given
// (missing files are ignored, and real environment variables win over
// file values). PIXVAULT_REDIS_URL and PIXVAULT_SECRET_KEY are required.
//
// Optional: PIXVAULT_KEY_PREFIX, PIXVAULT_COOKIE_TTL (seconds),
// PIXVAULT_MIN_PASSWORD_LEN, PIXVAULT_OP_TIMEOUT (seconds).
func LoadEnv(files ...string) (EnvSettings, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return EnvSettings{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	redisURL := os.Getenv("PIXVAULT_REDIS_URL")
	if redisURL == "" {
		return EnvSettings{}, fmt.Errorf("%w: PIXVAULT_REDIS_URL required", ErrEngineNotReady)
	}
	secret := os.Getenv("PIXVAULT_SECRET_KEY")
	if secret == "" {
		return EnvSettings{}, fmt.Errorf("%w: PIXVAULT_SECRET_KEY required", ErrEngineNotReady)
	}

	cfg := defaultConfig()
	cfg.SecretKey = secret
	if v := os.Getenv("PIXVAULT_KEY_PREFIX"); v != "" {
		cfg.KeyPrefix = v
	}

	var err error
	if cfg.CookieTTL, err = envSeconds("PIXVAULT_COOKIE_TTL", cfg.CookieTTL); err != nil {
		return EnvSettings{}, err
	}
	if cfg.OpTimeout, err = envSeconds("PIXVAULT_OP_TIMEOUT", cfg.OpTimeout); err != nil {
		return EnvSettings{}, err
	}
	if v := os.Getenv("PIXVAULT_MIN_PASSWORD_LEN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return EnvSettings{}, fmt.Errorf("invalid PIXVAULT_MIN_PASSWORD_LEN: %q", v)
		}
		cfg.MinPasswordLength = n
	}

	return EnvSettings{RedisURL: redisURL, Config: cfg}, nil
}

func envSeconds(name string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s: %q", name, v)
	}
	return time.Duration(n) * time.Second, nil
}
