package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Batch accumulates store commands and applies them as one atomic unit
// (MULTI/EXEC). Writes use the same encoding as the direct calls; queued
// reads resolve through typed replies that become valid only after a
// successful [Batch.Exec].
//
// A batch is a write queue first. Reading a whole hash that the same batch
// has already written is refused with [ErrBatchOrderingViolation]: inside
// one atomic unit such a read has no unambiguous pre/post-write answer.
// Single-field reads of other keys remain allowed.
//
// Batches either commit fully or not at all. On backend failure Exec
// reports [ErrStoreUnavailable] with zero commands applied; the caller
// retries the whole batch, never a suffix of it.
type Batch struct {
	store    *Store
	ops      []batchOp
	written  map[string]bool
	err      error
	executed bool
}

type batchOp struct {
	queue  func(ctx context.Context, pipe redis.Pipeliner) redis.Cmder
	settle func(cmd redis.Cmder)
}

// ValueReply holds a decoded scalar or hash-field read, valid after Exec.
type ValueReply struct {
	val any
	err error
}

// Val returns the decoded value; nil when the key or field was absent.
func (r *ValueReply) Val() any { return r.val }

// Err returns the per-command error, if any.
func (r *ValueReply) Err() error { return r.err }

// BoolReply holds a boolean read, valid after Exec.
type BoolReply struct {
	val bool
	err error
}

// Val returns the boolean result.
func (r *BoolReply) Val() bool { return r.val }

// Err returns the per-command error, if any.
func (r *BoolReply) Err() error { return r.err }

// MapReply holds a decoded multi-field read, valid after Exec.
type MapReply struct {
	val map[string]any
	err error
}

// Val returns the decoded field map.
func (r *MapReply) Val() map[string]any { return r.val }

// Err returns the per-command error, if any.
func (r *MapReply) Err() error { return r.err }

// Batch opens a new atomic command sequence against the store.
func (s *Store) Batch() *Batch {
	return &Batch{store: s, written: make(map[string]bool)}
}

func (b *Batch) markWritten(key string) {
	b.written[key] = true
}

func (b *Batch) fail(err error) error {
	if b.err == nil {
		b.err = err
	}
	return err
}

// Set queues an encoded scalar write. The value is encoded immediately so
// an unencodable value aborts the batch before anything is queued.
func (b *Batch) Set(key string, value any, ttl time.Duration) error {
	data, err := Encode(value)
	if err != nil {
		return b.fail(err)
	}

	b.markWritten(key)
	b.ops = append(b.ops, batchOp{
		queue: func(ctx context.Context, pipe redis.Pipeliner) redis.Cmder {
			return pipe.Set(ctx, key, data, ttl)
		},
		settle: func(redis.Cmder) {},
	})
	return nil
}

// HSet queues an encoded single-field hash write.
func (b *Batch) HSet(key, field string, value any) error {
	data, err := Encode(value)
	if err != nil {
		return b.fail(err)
	}

	b.markWritten(key)
	b.ops = append(b.ops, batchOp{
		queue: func(ctx context.Context, pipe redis.Pipeliner) redis.Cmder {
			return pipe.HSet(ctx, key, field, data)
		},
		settle: func(redis.Cmder) {},
	})
	return nil
}

// HSetMap queues a multi-field hash write. Every field is encoded before
// the command is queued; one bad value aborts with nothing queued.
func (b *Batch) HSetMap(key string, mapping map[string]any) error {
	pairs, err := encodeMapping(mapping)
	if err != nil {
		return b.fail(err)
	}

	b.markWritten(key)
	b.ops = append(b.ops, batchOp{
		queue: func(ctx context.Context, pipe redis.Pipeliner) redis.Cmder {
			return pipe.HSet(ctx, key, pairs...)
		},
		settle: func(redis.Cmder) {},
	})
	return nil
}

// SAdd queues a set-membership write.
func (b *Batch) SAdd(key string, members ...string) {
	args := make([]any, len(members))
	for i, m := range members {
		args[i] = m
	}

	b.markWritten(key)
	b.ops = append(b.ops, batchOp{
		queue: func(ctx context.Context, pipe redis.Pipeliner) redis.Cmder {
			return pipe.SAdd(ctx, key, args...)
		},
		settle: func(redis.Cmder) {},
	})
}

// SRem queues a set-membership removal.
func (b *Batch) SRem(key string, members ...string) {
	args := make([]any, len(members))
	for i, m := range members {
		args[i] = m
	}

	b.markWritten(key)
	b.ops = append(b.ops, batchOp{
		queue: func(ctx context.Context, pipe redis.Pipeliner) redis.Cmder {
			return pipe.SRem(ctx, key, args...)
		},
		settle: func(redis.Cmder) {},
	})
}

// Delete queues key removals.
func (b *Batch) Delete(keys ...string) {
	for _, k := range keys {
		b.markWritten(k)
	}
	b.ops = append(b.ops, batchOp{
		queue: func(ctx context.Context, pipe redis.Pipeliner) redis.Cmder {
			return pipe.Del(ctx, keys...)
		},
		settle: func(redis.Cmder) {},
	})
}

// Expire queues a ttl update.
func (b *Batch) Expire(key string, ttl time.Duration) {
	b.markWritten(key)
	b.ops = append(b.ops, batchOp{
		queue: func(ctx context.Context, pipe redis.Pipeliner) redis.Cmder {
			return pipe.Expire(ctx, key, ttl)
		},
		settle: func(redis.Cmder) {},
	})
}

// Get queues a decoded scalar read.
func (b *Batch) Get(key string) *ValueReply {
	reply := &ValueReply{}
	b.ops = append(b.ops, batchOp{
		queue: func(ctx context.Context, pipe redis.Pipeliner) redis.Cmder {
			return pipe.Get(ctx, key)
		},
		settle: func(cmd redis.Cmder) {
			settleString(cmd.(*redis.StringCmd), reply)
		},
	})
	return reply
}

// HGet queues a decoded single-field hash read.
func (b *Batch) HGet(key, field string) *ValueReply {
	reply := &ValueReply{}
	b.ops = append(b.ops, batchOp{
		queue: func(ctx context.Context, pipe redis.Pipeliner) redis.Cmder {
			return pipe.HGet(ctx, key, field)
		},
		settle: func(cmd redis.Cmder) {
			settleString(cmd.(*redis.StringCmd), reply)
		},
	})
	return reply
}

// Exists queues a key-presence read.
func (b *Batch) Exists(key string) *BoolReply {
	reply := &BoolReply{}
	b.ops = append(b.ops, batchOp{
		queue: func(ctx context.Context, pipe redis.Pipeliner) redis.Cmder {
			return pipe.Exists(ctx, key)
		},
		settle: func(cmd redis.Cmder) {
			n, err := cmd.(*redis.IntCmd).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				reply.err = wrapErr(err)
				return
			}
			reply.val = n == 1
		},
	})
	return reply
}

// SIsMember queues a set-membership read.
func (b *Batch) SIsMember(key, member string) *BoolReply {
	reply := &BoolReply{}
	b.ops = append(b.ops, batchOp{
		queue: func(ctx context.Context, pipe redis.Pipeliner) redis.Cmder {
			return pipe.SIsMember(ctx, key, member)
		},
		settle: func(cmd redis.Cmder) {
			ok, err := cmd.(*redis.BoolCmd).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				reply.err = wrapErr(err)
				return
			}
			reply.val = ok
		},
	})
	return reply
}

// HGetAll queues a whole-hash read. It fails with
// [ErrBatchOrderingViolation] when the key was written earlier in this
// batch; the violation also poisons the batch so Exec refuses to run.
func (b *Batch) HGetAll(key string) (*MapReply, error) {
	if b.written[key] {
		return nil, b.fail(ErrBatchOrderingViolation)
	}

	reply := &MapReply{}
	b.ops = append(b.ops, batchOp{
		queue: func(ctx context.Context, pipe redis.Pipeliner) redis.Cmder {
			return pipe.HGetAll(ctx, key)
		},
		settle: func(cmd redis.Cmder) {
			data, err := cmd.(*redis.MapStringStringCmd).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				reply.err = wrapErr(err)
				return
			}
			out := make(map[string]any, len(data))
			for field, raw := range data {
				out[field] = Decode(raw)
			}
			reply.val = out
		},
	})
	return reply, nil
}

// HGetMap queues a multi-field hash read, subject to the same ordering
// rule as [Batch.HGetAll].
func (b *Batch) HGetMap(key string, fields ...string) (*MapReply, error) {
	if b.written[key] {
		return nil, b.fail(ErrBatchOrderingViolation)
	}

	reply := &MapReply{}
	b.ops = append(b.ops, batchOp{
		queue: func(ctx context.Context, pipe redis.Pipeliner) redis.Cmder {
			return pipe.HMGet(ctx, key, fields...)
		},
		settle: func(cmd redis.Cmder) {
			vals, err := cmd.(*redis.SliceCmd).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				reply.err = wrapErr(err)
				return
			}
			out := make(map[string]any, len(fields))
			for i, field := range fields {
				out[field] = decodeReply(vals[i])
			}
			reply.val = out
		},
	})
	return reply, nil
}

// Len reports the number of queued commands.
func (b *Batch) Len() int { return len(b.ops) }

// Exec applies every queued command as a single atomic unit. A poisoned
// batch (encode failure or ordering violation) returns that error before
// any backend contact. After a successful Exec the read replies are
// settled and the batch cannot be reused.
func (b *Batch) Exec(ctx context.Context) error {
	if b.err != nil {
		return b.err
	}
	if b.executed {
		return ErrBatchExecuted
	}
	b.executed = true

	if len(b.ops) == 0 {
		return nil
	}

	ctx, cancel := b.store.opCtx(ctx)
	defer cancel()

	cmds := make([]redis.Cmder, len(b.ops))
	_, err := b.store.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, op := range b.ops {
			cmds[i] = op.queue(ctx, pipe)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return wrapErr(err)
	}

	for i, op := range b.ops {
		op.settle(cmds[i])
	}
	return nil
}

func settleString(cmd *redis.StringCmd, reply *ValueReply) {
	data, err := cmd.Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			reply.val = nil
			return
		}
		reply.err = wrapErr(err)
		return
	}
	reply.val = Decode(data)
}
