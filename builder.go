package pixvault

import (
	"errors"
	"fmt"
	"time"

	"github.com/pixvault/pixvault/logging"
	"github.com/pixvault/pixvault/password"
	"github.com/pixvault/pixvault/storage"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. Construction is allocation-only: no I/O
// happens until the first Engine method call.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	log    logging.Logger
	audit  AuditSink
	clock  func() time.Time
	built  bool
}

// New returns a Builder seeded with defaults.
func New() *Builder {
	return &Builder{config: defaultConfig()}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the backend client. The caller owns its lifecycle.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func (b *Builder) WithLogger(log logging.Logger) *Builder {
	b.log = log
	return b
}

// WithAuditSink sets an optional receiver for credential decisions.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.audit = sink
	return b
}

// WithClock replaces the wall-clock source. Defaults to time.Now.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// Build validates the configuration and returns the Engine. A builder is
// single-use.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	b.built = true

	if b.redis == nil {
		return nil, fmt.Errorf("%w: redis client required", ErrEngineNotReady)
	}
	if b.config.SecretKey == "" {
		return nil, fmt.Errorf("%w: secret key required", ErrEngineNotReady)
	}

	b.config.applyDefaults()

	hasher, err := password.NewHasher(b.config.Password)
	if err != nil {
		return nil, err
	}

	log := b.log
	if log == nil {
		log = logging.Nop{}
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	return &Engine{
		config: b.config,
		store:  storage.New(b.redis, b.config.KeyPrefix, b.config.OpTimeout),
		hasher: hasher,
		log:    log,
		audit:  b.audit,
		now:    clock,
	}, nil
}
