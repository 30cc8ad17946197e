// Command pixvault-smoke runs the register → cookie → token flow against
// a live backend and reports each step. It is a deployment check, not a
// benchmark: one pass, one throwaway account, cleaned up on exit.
//
// Configuration comes from PIXVAULT_* environment variables (optionally
// via a .env file); with -miniredis it spins up an in-process Redis and
// needs no environment at all.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/pixvault/pixvault"
	"github.com/pixvault/pixvault/logging"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		envFile = flag.String("env", ".env", "env file to merge before reading PIXVAULT_* variables")
		local   = flag.Bool("miniredis", false, "run against an in-process miniredis instead of PIXVAULT_REDIS_URL")
	)
	flag.Parse()

	if err := run(*envFile, *local); err != nil {
		fmt.Fprintf(os.Stderr, "smoke failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("smoke passed")
}

func run(envFile string, local bool) error {
	ctx := context.Background()

	var (
		client  redis.UniversalClient
		cfg     pixvault.Config
		cleanup func()
	)

	if local {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("start miniredis: %w", err)
		}
		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		cfg = pixvault.Config{SecretKey: "smoke-only-secret"}
		cleanup = func() { _ = client.Close(); mr.Close() }
	} else {
		settings, err := pixvault.LoadEnv(envFile)
		if err != nil {
			return err
		}
		opts, err := redis.ParseURL(settings.RedisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opts)
		cfg = settings.Config
		cleanup = func() { _ = client.Close() }
	}
	defer cleanup()

	engine, err := pixvault.New().
		WithRedis(client).
		WithConfig(cfg).
		WithLogger(logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))).
		Build()
	if err != nil {
		return err
	}

	latency, err := engine.Ping(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("backend reachable (%s)\n", latency)

	username := "smoke_" + uuid.NewString()[:8]
	password := "smoke-" + uuid.NewString()
	if err := engine.Register(ctx, username, password); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	defer func() {
		store := engine.Store()
		_ = store.SRem(ctx, store.Key("accounts"), username)
		_ = store.Delete(ctx, store.Key("account", username))
	}()
	fmt.Printf("registered %s\n", username)

	cookie, err := engine.IssueCookie(ctx, username, time.Minute)
	if err != nil {
		return fmt.Errorf("issue cookie: %w", err)
	}
	if !engine.VerifyCookie(ctx, cookie) {
		return fmt.Errorf("fresh cookie did not verify")
	}
	fmt.Println("cookie round trip ok")

	acct, err := engine.GetAccount(ctx, username)
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}
	token, err := engine.IssueToken(ctx, username, acct.PasswordHash)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	if engine.VerifyToken(ctx, token) {
		return fmt.Errorf("unrecorded token verified")
	}
	if err := engine.RecordToken(ctx, token, username); err != nil {
		return fmt.Errorf("record token: %w", err)
	}
	if !engine.VerifyToken(ctx, token) {
		return fmt.Errorf("recorded token did not verify")
	}
	if err := engine.RevokeToken(ctx, token); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	if engine.VerifyToken(ctx, token) {
		return fmt.Errorf("revoked token still verifies")
	}
	fmt.Println("token ledger round trip ok")

	return nil
}
