package storage

import "errors"

var (
	// ErrStoreUnavailable is returned when the backend cannot be reached or
	// an operation exceeds its bounded timeout. Batches report it with zero
	// commands applied.
	ErrStoreUnavailable = errors.New("storage backend unavailable")

	// ErrInvalidWrite is returned when a caller attempts to store an absent
	// value (nil) or a value that has no canonical text form.
	ErrInvalidWrite = errors.New("invalid write: value has no stored form")

	// ErrBatchOrderingViolation is a programmer error: a whole-hash read was
	// queued against a key already written inside the same batch. The batch
	// refuses to execute rather than return ambiguous pre/post-write state.
	ErrBatchOrderingViolation = errors.New("batch ordering violation: whole-hash read of a key written in the same batch")

	// ErrBatchExecuted is returned when a batch is executed twice.
	ErrBatchExecuted = errors.New("batch already executed")
)
