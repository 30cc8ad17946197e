package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTimeout = 5 * time.Second

// Store is a Redis adapter that applies [Encode] to every write and
// [Decode] to every read. It owns the physical key layout: logical names
// are joined with ':' under a fixed namespace prefix.
//
// A Store is safe for concurrent use. It holds no in-process locks;
// atomicity is delegated entirely to the backend via [Store.Batch].
type Store struct {
	rdb     redis.UniversalClient
	prefix  string
	timeout time.Duration
}

// New creates a Store on top of an already-connected Redis client.
// prefix namespaces every key; timeout bounds each backend call and
// defaults to 5s when zero. The caller owns the client's lifecycle:
// open it once at process start, close it at shutdown.
func New(rdb redis.UniversalClient, prefix string, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Store{rdb: rdb, prefix: prefix, timeout: timeout}
}

// Key joins path segments under the store's namespace prefix.
func (s *Store) Key(parts ...string) string {
	if s.prefix == "" {
		return strings.Join(parts, ":")
	}
	return s.prefix + ":" + strings.Join(parts, ":")
}

func (s *Store) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func wrapErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// Set encodes value and writes it under key. ttl <= 0 means no expiry.
func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := Encode(value)
	if err != nil {
		return err
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if err := s.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		return wrapErr(err)
	}
	return nil
}

// Get reads and decodes the value under key. An absent key yields nil.
func (s *Store) Get(ctx context.Context, key string) (any, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	data, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, wrapErr(err)
	}
	return Decode(data), nil
}

// HSet encodes value and writes a single hash field.
func (s *Store) HSet(ctx context.Context, key, field string, value any) error {
	data, err := Encode(value)
	if err != nil {
		return err
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if err := s.rdb.HSet(ctx, key, field, data).Err(); err != nil {
		return wrapErr(err)
	}
	return nil
}

// HSetMap writes several hash fields in one command. Every value is
// encoded before anything is sent, so a single bad value aborts the
// whole write with nothing applied.
func (s *Store) HSetMap(ctx context.Context, key string, mapping map[string]any) error {
	pairs, err := encodeMapping(mapping)
	if err != nil {
		return err
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if err := s.rdb.HSet(ctx, key, pairs...).Err(); err != nil {
		return wrapErr(err)
	}
	return nil
}

func encodeMapping(mapping map[string]any) ([]any, error) {
	pairs := make([]any, 0, len(mapping)*2)
	for field, value := range mapping {
		data, err := Encode(value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field, err)
		}
		pairs = append(pairs, field, data)
	}
	return pairs, nil
}

// HGet reads and decodes one hash field. An absent field yields nil.
func (s *Store) HGet(ctx context.Context, key, field string) (any, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	data, err := s.rdb.HGet(ctx, key, field).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, wrapErr(err)
	}
	return Decode(data), nil
}

// HGetMap reads the named fields and returns them decoded, keyed by field
// name. Absent fields map to nil.
func (s *Store) HGetMap(ctx context.Context, key string, fields ...string) (map[string]any, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	vals, err := s.rdb.HMGet(ctx, key, fields...).Result()
	if err != nil {
		return nil, wrapErr(err)
	}

	out := make(map[string]any, len(fields))
	for i, field := range fields {
		out[field] = decodeReply(vals[i])
	}
	return out, nil
}

// HGetAll reads the whole hash decoded.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]any, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	data, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, wrapErr(err)
	}

	out := make(map[string]any, len(data))
	for field, raw := range data {
		out[field] = Decode(raw)
	}
	return out, nil
}

// HDel removes hash fields.
func (s *Store) HDel(ctx context.Context, key string, fields ...string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if err := s.rdb.HDel(ctx, key, fields...).Err(); err != nil {
		return wrapErr(err)
	}
	return nil
}

// Exists reports whether key is present.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, wrapErr(err)
	}
	return n == 1, nil
}

// Delete removes keys.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return wrapErr(err)
	}
	return nil
}

// Expire sets a ttl on an existing key.
func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if err := s.rdb.Expire(ctx, key, ttl).Err(); err != nil {
		return wrapErr(err)
	}
	return nil
}

// SAdd adds members to a set.
func (s *Store) SAdd(ctx context.Context, key string, members ...string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	args := make([]any, len(members))
	for i, m := range members {
		args[i] = m
	}
	if err := s.rdb.SAdd(ctx, key, args...).Err(); err != nil {
		return wrapErr(err)
	}
	return nil
}

// SRem removes members from a set.
func (s *Store) SRem(ctx context.Context, key string, members ...string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	args := make([]any, len(members))
	for i, m := range members {
		args[i] = m
	}
	if err := s.rdb.SRem(ctx, key, args...).Err(); err != nil {
		return wrapErr(err)
	}
	return nil
}

// SIsMember reports set membership.
func (s *Store) SIsMember(ctx context.Context, key, member string) (bool, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	ok, err := s.rdb.SIsMember(ctx, key, member).Result()
	if err != nil {
		return false, wrapErr(err)
	}
	return ok, nil
}

// SMembers returns all members of a set.
func (s *Store) SMembers(ctx context.Context, key string) ([]string, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	members, err := s.rdb.SMembers(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, wrapErr(err)
	}
	return members, nil
}

// SCard returns the size of a set.
func (s *Store) SCard(ctx context.Context, key string) (int64, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	n, err := s.rdb.SCard(ctx, key).Result()
	if err != nil {
		return 0, wrapErr(err)
	}
	return n, nil
}

// RPush encodes values and appends them to a list.
func (s *Store) RPush(ctx context.Context, key string, values ...any) error {
	args := make([]any, len(values))
	for i, v := range values {
		data, err := Encode(v)
		if err != nil {
			return err
		}
		args[i] = data
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if err := s.rdb.RPush(ctx, key, args...).Err(); err != nil {
		return wrapErr(err)
	}
	return nil
}

// LRange reads a decoded slice of a list; 0, -1 reads the whole list.
func (s *Store) LRange(ctx context.Context, key string, start, stop int64) ([]any, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	raw, err := s.rdb.LRange(ctx, key, start, stop).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []any{}, nil
		}
		return nil, wrapErr(err)
	}

	out := make([]any, len(raw))
	for i, item := range raw {
		out[i] = Decode(item)
	}
	return out, nil
}

// RunScript evaluates a Lua script with the store's timeout bound. It is
// the backend-native conditional-write primitive used where a batch alone
// cannot express check-then-write atomicity.
func (s *Store) RunScript(ctx context.Context, script *redis.Script, keys []string, args ...any) (any, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := script.Run(ctx, s.rdb, keys, args...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, wrapErr(err)
	}
	return res, nil
}

// Ping returns a point-in-time backend availability check and its latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	start := time.Now()
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return time.Since(start), wrapErr(err)
	}
	return time.Since(start), nil
}

func decodeReply(v any) any {
	switch raw := v.(type) {
	case nil:
		return nil
	case string:
		return Decode(raw)
	case []byte:
		return Decode(string(raw))
	default:
		return raw
	}
}
