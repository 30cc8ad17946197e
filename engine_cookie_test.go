package pixvault

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"
)

func TestCookieRoundTrip(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	mustRegister(t, e, "alice", "sekret1")
	cookie, err := e.IssueCookie(ctx, "alice", 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if !e.VerifyCookie(ctx, cookie) {
		t.Fatal("fresh cookie does not verify")
	}
	if got := e.CookieUsername(ctx, cookie); got != "alice" {
		t.Fatalf("CookieUsername = %q, want alice", got)
	}
}

func TestCookieExpires(t *testing.T) {
	e, _, clock := newTestEngine(t)
	ctx := context.Background()

	mustRegister(t, e, "alice", "sekret1")
	cookie, err := e.IssueCookie(ctx, "alice", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !e.VerifyCookie(ctx, cookie) {
		t.Fatal("cookie dead on arrival")
	}

	clock.Advance(2 * time.Minute)
	if e.VerifyCookie(ctx, cookie) {
		t.Fatal("expired cookie still verifies")
	}
	if got := e.CookieUsername(ctx, cookie); got != "" {
		t.Fatalf("CookieUsername = %q, want empty", got)
	}
}

func TestCookieDiesWithPasswordChange(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	mustRegister(t, e, "alice", "sekret1")
	cookie, err := e.IssueCookie(ctx, "alice", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := e.UpdatePassword(ctx, "alice", "fresher1"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	if e.VerifyCookie(ctx, cookie) {
		t.Fatal("cookie survived a password change")
	}
}

func TestCookieUnknownUser(t *testing.T) {
	e, _, _ := newTestEngine(t)

	if _, err := e.IssueCookie(context.Background(), "nobody", 0); err == nil {
		t.Fatal("issued a cookie for an unknown account")
	}
}

func TestCookieTamperingFailsClosed(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	mustRegister(t, e, "alice", "sekret1")
	mustRegister(t, e, "mallory", "sekret1")
	cookie, err := e.IssueCookie(ctx, "alice", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	raw, err := base64.URLEncoding.DecodeString(cookie)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	parts := strings.Split(string(raw), ".")
	if len(parts) != 3 {
		t.Fatalf("payload shape: %q", raw)
	}

	reencode := func(p []string) string {
		return base64.URLEncoding.EncodeToString([]byte(strings.Join(p, ".")))
	}

	cases := map[string]string{
		"empty":            "",
		"not base64":       "!!not-base64!!",
		"truncated":        cookie[:len(cookie)/2],
		"swapped username": reencode([]string{"mallory", parts[1], parts[2]}),
		"future expiry":    reencode([]string{parts[0], "9999999999", parts[2]}),
		"garbled sig":      reencode([]string{parts[0], parts[1], "deadbeef"}),
		"missing segment":  reencode([]string{parts[0], parts[1]}),
	}
	for name, bad := range cases {
		if e.VerifyCookie(ctx, bad) {
			t.Errorf("%s: tampered cookie verified", name)
		}
		if got := e.CookieUsername(ctx, bad); got != "" {
			t.Errorf("%s: CookieUsername = %q", name, got)
		}
	}
}

func TestCookieAcceptsUnpaddedBase64(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	mustRegister(t, e, "alice", "sekret1")
	cookie, err := e.IssueCookie(ctx, "alice", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	stripped := strings.TrimRight(cookie, "=")
	if !e.VerifyCookie(ctx, stripped) {
		t.Fatal("padding-stripped cookie rejected")
	}
}
