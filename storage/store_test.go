package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newStoreTest(t *testing.T) (*Store, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := New(rdb, "pv", 0)
	return store, mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func TestKeyLayout(t *testing.T) {
	store, _, done := newStoreTest(t)
	defer done()

	if got := store.Key("account", "alice"); got != "pv:account:alice" {
		t.Fatalf("key layout changed: %q", got)
	}
}

func TestSetGetTyped(t *testing.T) {
	store, mr, done := newStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Set(ctx, "k", map[string]any{"a": float64(1)}, 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	// At rest the value is canonical text.
	raw, err := mr.Get("k")
	if err != nil {
		t.Fatalf("raw get: %v", err)
	}
	if raw != `{"a":1}` {
		t.Fatalf("unexpected stored text %q", raw)
	}

	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reflect.DeepEqual(got, map[string]any{"a": float64(1)}) {
		t.Fatalf("decoded value diverged: %#v", got)
	}
}

func TestGetAbsentKeyIsNil(t *testing.T) {
	store, _, done := newStoreTest(t)
	defer done()

	got, err := store.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("get absent: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for absent key, got %#v", got)
	}
}

func TestSetNilRejectedBeforeWrite(t *testing.T) {
	store, mr, done := newStoreTest(t)
	defer done()

	if err := store.Set(context.Background(), "k", nil, 0); !errors.Is(err, ErrInvalidWrite) {
		t.Fatalf("expected ErrInvalidWrite, got %v", err)
	}
	if mr.Exists("k") {
		t.Fatal("nil write reached the backend")
	}
}

func TestSetTTL(t *testing.T) {
	store, mr, done := newStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected expiry, got %#v", got)
	}
}

func TestHashFieldOps(t *testing.T) {
	store, _, done := newStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.HSet(ctx, "h", "count", 3); err != nil {
		t.Fatalf("hset: %v", err)
	}
	if err := store.HSetMap(ctx, "h", map[string]any{"name": "alice", "flags": []any{"a"}}); err != nil {
		t.Fatalf("hsetmap: %v", err)
	}

	got, err := store.HGet(ctx, "h", "count")
	if err != nil {
		t.Fatalf("hget: %v", err)
	}
	if got != float64(3) {
		t.Fatalf("expected 3, got %#v", got)
	}

	m, err := store.HGetMap(ctx, "h", "name", "absent")
	if err != nil {
		t.Fatalf("hgetmap: %v", err)
	}
	if m["name"] != "alice" || m["absent"] != nil {
		t.Fatalf("unexpected field map %#v", m)
	}

	all, err := store.HGetAll(ctx, "h")
	if err != nil {
		t.Fatalf("hgetall: %v", err)
	}
	if len(all) != 3 || !reflect.DeepEqual(all["flags"], []any{"a"}) {
		t.Fatalf("unexpected hash %#v", all)
	}
}

func TestHSetMapEncodesEverythingBeforeWriting(t *testing.T) {
	store, mr, done := newStoreTest(t)
	defer done()

	err := store.HSetMap(context.Background(), "h", map[string]any{
		"good": "value",
		"bad":  make(chan int), // no canonical text form
	})
	if !errors.Is(err, ErrInvalidWrite) {
		t.Fatalf("expected ErrInvalidWrite, got %v", err)
	}
	if mr.Exists("h") {
		t.Fatal("partial hash write reached the backend")
	}
}

func TestSetAndListOps(t *testing.T) {
	store, _, done := newStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.SAdd(ctx, "s", "a", "b"); err != nil {
		t.Fatalf("sadd: %v", err)
	}
	ok, err := store.SIsMember(ctx, "s", "a")
	if err != nil || !ok {
		t.Fatalf("sismember: ok=%v err=%v", ok, err)
	}
	n, err := store.SCard(ctx, "s")
	if err != nil || n != 2 {
		t.Fatalf("scard: n=%d err=%v", n, err)
	}
	if err := store.SRem(ctx, "s", "a"); err != nil {
		t.Fatalf("srem: %v", err)
	}

	if err := store.RPush(ctx, "l", map[string]any{"text": "hi"}, "plain"); err != nil {
		t.Fatalf("rpush: %v", err)
	}
	items, err := store.LRange(ctx, "l", 0, -1)
	if err != nil {
		t.Fatalf("lrange: %v", err)
	}
	if len(items) != 2 || items[1] != "plain" {
		t.Fatalf("unexpected list %#v", items)
	}
	if _, ok := items[0].(map[string]any); !ok {
		t.Fatalf("structured list item lost: %#v", items[0])
	}
}

func TestBackendDownSurfacesStoreUnavailable(t *testing.T) {
	store, mr, done := newStoreTest(t)
	defer done()
	mr.Close()

	if err := store.Set(context.Background(), "k", "v", 0); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if _, err := store.Get(context.Background(), "k"); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
