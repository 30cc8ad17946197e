package pixvault

import (
	"context"
	"regexp"
	"time"

	"github.com/pixvault/pixvault/logging"
	"github.com/pixvault/pixvault/password"
	"github.com/pixvault/pixvault/storage"
)

// usernamePat is the registration naming policy: a letter followed by
// 3-31 word characters.
var usernamePat = regexp.MustCompile(`^[a-zA-Z][0-9a-zA-Z_]{3,31}$`)

// Engine is the account and credential core. Build one through [Builder]
// at process start and share it by reference; all methods are safe for
// concurrent use.
type Engine struct {
	config Config
	store  *storage.Store
	hasher *password.Hasher
	log    logging.Logger
	audit  AuditSink
	now    func() time.Time
}

// Store exposes the typed storage layer so collaborators can persist
// other record kinds (hook config, caches) under the same contract.
func (e *Engine) Store() *storage.Store {
	return e.store
}

// Ping reports backend availability and round-trip latency.
func (e *Engine) Ping(ctx context.Context) (time.Duration, error) {
	return e.store.Ping(ctx)
}

// Key names under the store prefix. The layout is a stable contract:
// accounts (set), account:<user> (hash), config:system (hash),
// tokens (hash: issued token -> owner), msg:<user> (list).
func (e *Engine) accountIndexKey() string    { return e.store.Key("accounts") }
func (e *Engine) accountKey(u string) string { return e.store.Key("account", u) }
func (e *Engine) systemConfigKey() string    { return e.store.Key("config", "system") }
func (e *Engine) tokenIndexKey() string      { return e.store.Key("tokens") }
func (e *Engine) messageKey(u string) string { return e.store.Key("msg", u) }

func (e *Engine) emit(action, username string, ok bool) {
	if e.audit == nil {
		return
	}
	e.audit.Emit(AuditEvent{
		Time:     e.now(),
		Action:   action,
		Username: username,
		OK:       ok,
	})
}
