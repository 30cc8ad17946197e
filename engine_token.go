package pixvault

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pixvault/pixvault/internal/sign"
)

// IssueToken mints a long-lived API token for username, signed with
// tokenSecret (the account's password hash or its token_key). The random
// nonce only guarantees that repeated issuance yields distinct tokens.
//
// Issuing does not record the token: the issuing collaborator stores it
// in the reverse index with [Engine.RecordToken], and only then does the
// token verify.
func (e *Engine) IssueToken(ctx context.Context, username, tokenSecret string) (string, error) {
	if username == "" || tokenSecret == "" {
		return "", fmt.Errorf("%w: username and token secret required", ErrInvalidArgument)
	}

	nonce := strings.ReplaceAll(uuid.NewString(), "-", "")
	sig := sign.HMACSHA256Hex(tokenSecret, username)
	payload := fmt.Sprintf("%s.%s.%d.%s", nonce, username, e.now().Unix(), sig)

	e.emit("token_issued", username, true)
	return base64.URLEncoding.EncodeToString([]byte(payload)), nil
}

// RecordToken writes the reverse index entry (issued token -> owner).
// The index is the issuance ledger: a token absent from it never
// verifies, however well it is signed.
func (e *Engine) RecordToken(ctx context.Context, token, username string) error {
	if token == "" || username == "" {
		return fmt.Errorf("%w: token and username required", ErrInvalidArgument)
	}
	return e.store.HSet(ctx, e.tokenIndexKey(), token, username)
}

// RevokeToken deletes the reverse index entry, invalidating the token
// immediately regardless of its signature.
func (e *Engine) RevokeToken(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("%w: token required", ErrInvalidArgument)
	}
	return e.store.HDel(ctx, e.tokenIndexKey(), token)
}

// VerifyToken reports whether a presented API token is currently valid.
// Total and fail-closed, like [Engine.VerifyCookie].
//
// The decision runs: reverse-index lookup, shape parse, owner match,
// account load (absent or disabled fails), signature check against the
// current password hash and token_key, and last the login-lockdown
// policy gate: when the system config disables login, only admin
// accounts keep verifying.
func (e *Engine) VerifyToken(ctx context.Context, token string) bool {
	username, ok := e.verifyToken(ctx, token)
	e.emit("token_verified", username, ok)
	return ok
}

// TokenUsername returns the owning username of a valid token, or "".
func (e *Engine) TokenUsername(ctx context.Context, token string) string {
	username, ok := e.verifyToken(ctx, token)
	if !ok {
		return ""
	}
	return username
}

func (e *Engine) verifyToken(ctx context.Context, token string) (string, bool) {
	if token == "" {
		return "", false
	}

	// The index is consulted, never written, on this path.
	owner, err := e.store.HGet(ctx, e.tokenIndexKey(), token)
	if err != nil {
		return "", false
	}
	ownerName, _ := owner.(string)
	if ownerName == "" {
		return "", false
	}

	raw, err := decodeBase64(token)
	if err != nil {
		return "", false
	}
	parts := strings.Split(raw, ".")
	if len(parts) != 4 {
		return "", false
	}
	username, ctimeText, presented := parts[1], parts[2], parts[3]
	if username == "" || presented == "" {
		return "", false
	}
	if _, err := strconv.ParseInt(ctimeText, 10, 64); err != nil {
		return "", false
	}

	if ownerName != username {
		return "", false
	}

	acct, err := e.GetAccount(ctx, username)
	if err != nil {
		return "", false
	}
	if acct.Status == StatusDisabled {
		return "", false
	}

	valid := sign.Equal(sign.HMACSHA256Hex(acct.PasswordHash, username), presented)
	if !valid && acct.TokenKey != "" {
		valid = sign.Equal(sign.HMACSHA256Hex(acct.TokenKey, username), presented)
	}
	if !valid {
		return "", false
	}

	// Policy gate, deliberately after cryptographic validity: a lockdown
	// rejects ordinary accounts without implying anything about the
	// credential itself.
	disabled, err := e.ConfigValue(ctx, "disable_login")
	if err != nil {
		return "", false
	}
	if truthy(disabled) && !acct.IsAdmin {
		return "", false
	}

	return username, true
}
