// Package sign holds the keyed-hash primitives shared by the cookie and
// token paths. Signatures are lowercase hex so they survive any text
// transport unchanged.
package sign

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSHA256Hex computes hex(HMAC-SHA256(key, msg)).
func HMACSHA256Hex(key, msg string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}

// SHA256Hex computes hex(SHA-256(text)).
func SHA256Hex(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Equal compares two signature strings in constant time.
func Equal(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}
