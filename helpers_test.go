package pixvault

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/pixvault/pixvault/password"
)

// fakeClock is a settable time source shared with the engine under test,
// so expiry behavior is driven instead of slept for.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fastPassword keeps argon2 cheap enough for the test matrix while
// staying above the hasher's floor parameters.
func fastPassword() password.Config {
	return password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	}
}

func newTestEngine(t *testing.T) (*Engine, *miniredis.Miniredis, *fakeClock) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	clock := newFakeClock()
	engine, err := New().
		WithConfig(Config{
			SecretKey: "test-secret",
			Password:  fastPassword(),
		}).
		WithRedis(rdb).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	return engine, mr, clock
}

func mustRegister(t *testing.T, e *Engine, username, plaintext string) {
	t.Helper()
	if err := e.Register(context.Background(), username, plaintext); err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
}
