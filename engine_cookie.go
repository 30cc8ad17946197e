package pixvault

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pixvault/pixvault/internal/sign"
)

// IssueCookie mints a self-contained session cookie for username with
// the given lifetime (the configured default when ttl <= 0). The
// signature is keyed by the account's current password hash and mixes in
// the engine SecretKey, so it can only be re-derived server-side and dies
// with the next password change.
func (e *Engine) IssueCookie(ctx context.Context, username string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = e.config.CookieTTL
	}

	hash, err := e.store.HGet(ctx, e.accountKey(username), "password")
	if err != nil {
		return "", err
	}
	pwdHash, _ := hash.(string)
	if pwdHash == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, username)
	}

	expiry := e.now().Add(ttl).Unix()
	sig := e.cookieSignature(username, pwdHash, expiry)
	payload := fmt.Sprintf("%s.%d.%s", username, expiry, sig)

	e.emit("cookie_issued", username, true)
	return base64.URLEncoding.EncodeToString([]byte(payload)), nil
}

// VerifyCookie reports whether a presented cookie is currently valid. It
// is total and fails closed: malformed input, expiry, a missing account,
// and a signature mismatch all collapse to false with no distinction.
func (e *Engine) VerifyCookie(ctx context.Context, cookie string) bool {
	username, ok := e.verifyCookie(ctx, cookie)
	e.emit("cookie_verified", username, ok)
	return ok
}

// CookieUsername returns the authenticated username carried by a valid
// cookie, or "" when the cookie does not verify. It is the login-state
// lookup used by the request layer.
func (e *Engine) CookieUsername(ctx context.Context, cookie string) string {
	username, ok := e.verifyCookie(ctx, cookie)
	if !ok {
		return ""
	}
	return username
}

func (e *Engine) verifyCookie(ctx context.Context, cookie string) (string, bool) {
	raw, err := decodeBase64(cookie)
	if err != nil {
		return "", false
	}

	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return "", false
	}
	username, expiryText, presented := parts[0], parts[1], parts[2]
	if username == "" || presented == "" {
		return "", false
	}

	expiry, err := strconv.ParseInt(expiryText, 10, 64)
	if err != nil {
		return "", false
	}
	if expiry <= e.now().Unix() {
		return "", false
	}

	// Re-derive from the *current* stored hash: a rotated password makes
	// every older cookie unverifiable from this point on.
	hash, err := e.store.HGet(ctx, e.accountKey(username), "password")
	if err != nil {
		return "", false
	}
	pwdHash, _ := hash.(string)
	if pwdHash == "" {
		return "", false
	}

	expected := e.cookieSignature(username, pwdHash, expiry)
	if !sign.Equal(expected, presented) {
		return "", false
	}
	return username, true
}

func (e *Engine) cookieSignature(username, pwdHash string, expiry int64) string {
	msg := fmt.Sprintf("%s:%s:%d:%s", username, pwdHash, expiry, e.config.SecretKey)
	return sign.HMACSHA256Hex(pwdHash, msg)
}

// decodeBase64 accepts both padded and unpadded url-safe base64, since
// intermediaries are known to strip padding.
func decodeBase64(s string) (string, error) {
	if raw, err := base64.URLEncoding.DecodeString(s); err == nil {
		return string(raw), nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
