package pixvault

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IssueActivationToken signs a short-lived token carrying data, for
// out-of-band account flows (email confirmation, password reset links).
// Unlike cookies and API tokens these are signed with the engine
// SecretKey alone and expire on their own; they authorize one narrow
// action, not a login state.
func (e *Engine) IssueActivationToken(data map[string]string, ttl time.Duration) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: activation data required", ErrInvalidArgument)
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	now := e.now()
	claims := jwt.MapClaims{
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
		"data": data,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(e.config.SecretKey))
}

// CheckActivationToken verifies a token from IssueActivationToken and
// returns its data payload. Expired-but-well-signed and malformed
// tokens are told apart ([ErrActivationExpired] vs
// [ErrActivationInvalid]) so the caller can offer a re-send.
func (e *Engine) CheckActivationToken(token string) (map[string]string, error) {
	parsed, err := jwt.Parse(
		token,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(e.config.SecretKey), nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(e.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrActivationExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrActivationInvalid, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrActivationInvalid
	}
	raw, ok := claims["data"].(map[string]any)
	if !ok {
		return nil, ErrActivationInvalid
	}

	data := make(map[string]string, len(raw))
	for k, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, ErrActivationInvalid
		}
		data[k] = s
	}
	return data, nil
}
