// Package storage provides the typed key-value layer of pixvault: a JSON
// text codec that is total and idempotent over plain strings, a Redis
// adapter that applies the codec transparently to every read and write,
// and an atomic batch that queues writes and resolves reads only after
// the whole batch has committed.
//
// All values at rest are the codec's canonical text encoding, so the data
// can be moved between backends by rewriting each key verbatim.
package storage
