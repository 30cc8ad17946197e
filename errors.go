package pixvault

import "errors"

var (
	// ErrInvalidArgument is a caller contract violation, such as issuing a
	// token with an empty signing secret.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned when the addressed account does not exist.
	ErrNotFound = errors.New("account not found")

	// ErrUsernameInvalid is returned when a registration name fails the
	// naming policy or is on the forbidden list.
	ErrUsernameInvalid = errors.New("username invalid or not allowed")

	// ErrUsernameTaken is returned when the registration name is already
	// present in the account index or record space.
	ErrUsernameTaken = errors.New("username already exists")

	// ErrPasswordTooWeak is returned when a password is shorter than the
	// configured minimum.
	ErrPasswordTooWeak = errors.New("password below minimum length")

	// ErrActivationExpired is returned by CheckActivationToken for a token
	// whose signature is valid but whose lifetime has passed.
	ErrActivationExpired = errors.New("activation token expired")

	// ErrActivationInvalid is returned by CheckActivationToken for any
	// malformed or mis-signed token.
	ErrActivationInvalid = errors.New("activation token invalid")

	// ErrEngineNotReady is returned by Build when a required dependency is
	// missing.
	ErrEngineNotReady = errors.New("engine not initialized")
)
