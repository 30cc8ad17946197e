// Package pixvault is the account and credential core of an image-hosting
// service: a typed Redis storage layer with transparent JSON encoding, the
// account record model built on it, and a stateless credential engine that
// issues and verifies short-lived session cookies and long-lived API
// tokens without any server-side session table.
//
// The package is library-first. Construct an [Engine] through [Builder]
// once at process start; Engine methods are then safe to call from many
// goroutines. No in-process locks are held; atomicity is delegated to the
// backend through the storage batch and Lua primitives.
//
// # Credential model
//
// Both credential kinds are self-contained signed strings verified by
// re-deriving the expected signature from the account's current secrets:
//
//   - Cookies are bound to the current password hash, so a password change
//     revokes every outstanding cookie instantly.
//   - Tokens are gated on a server-side reverse index (issued token →
//     owner) and accept either the password hash or the rotatable
//     token_key as signing secret, so API tokens can survive a password
//     change when the deployment wants them to.
//
// Verification is a pure decision function: it returns a bare boolean and
// never distinguishes why a credential failed.
package pixvault
