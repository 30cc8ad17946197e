package pixvault

import (
	"context"
	"fmt"
	"strings"

	"github.com/pixvault/pixvault/storage"
	"github.com/redis/go-redis/v9"
)

// registerScript adds the index membership and the account record as one
// conditional unit: if the username is already in the index or the record
// key exists, nothing is written. This closes the duplicate-registration
// race that a plain batch would resolve last-writer-wins.
const registerScript = `
if redis.call("SISMEMBER", KEYS[1], ARGV[1]) == 1 then
  return 0
end
if redis.call("EXISTS", KEYS[2]) == 1 then
  return 0
end
redis.call("SADD", KEYS[1], ARGV[1])
redis.call("HSET", KEYS[2], unpack(ARGV, 2))
return 1
`

var registerLua = redis.NewScript(registerScript)

// AccountExists reports whether username is a registered account. The
// index membership and the record key are checked together in one batch;
// only both answers agreeing counts as existing.
func (e *Engine) AccountExists(ctx context.Context, username string) (bool, error) {
	batch := e.store.Batch()
	inIndex := batch.SIsMember(e.accountIndexKey(), username)
	hasRecord := batch.Exists(e.accountKey(username))

	if err := batch.Exec(ctx); err != nil {
		return false, err
	}
	if err := inIndex.Err(); err != nil {
		return false, err
	}
	if err := hasRecord.Err(); err != nil {
		return false, err
	}
	return inIndex.Val() && hasRecord.Val(), nil
}

// GetAccount fetches the fixed account field set. It returns
// [ErrNotFound] when the record is absent.
func (e *Engine) GetAccount(ctx context.Context, username string) (*Account, error) {
	record, err := e.store.HGetMap(ctx, e.accountKey(username), accountFields...)
	if err != nil {
		return nil, err
	}
	if record["username"] == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, username)
	}
	return accountFromRecord(record), nil
}

// Register creates a new account. The username must satisfy the naming
// policy and not be forbidden or taken; the password must meet the
// configured minimum length. The initial status follows the system
// config review flag: pending review when enabled, active otherwise.
// Index membership and the record are written both-or-neither.
func (e *Engine) Register(ctx context.Context, username, plaintext string) error {
	ok, err := e.checkUsername(ctx, username)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrUsernameInvalid, username)
	}

	if len(plaintext) < e.config.MinPasswordLength {
		return fmt.Errorf("%w: minimum %d characters", ErrPasswordTooWeak, e.config.MinPasswordLength)
	}

	review, err := e.ConfigValue(ctx, "review")
	if err != nil {
		return err
	}
	status := StatusActive
	if truthy(review) {
		status = StatusPending
	}

	hash, err := e.hasher.Hash(plaintext)
	if err != nil {
		return err
	}

	fields := map[string]any{
		"username": username,
		"password": hash,
		"is_admin": 0,
		"status":   int(status),
		"avatar":   "",
		"nickname": "",
		"ctime":    e.now().Unix(),
	}

	args := []any{username}
	for field, value := range fields {
		data, err := storage.Encode(value)
		if err != nil {
			return err
		}
		args = append(args, field, data)
	}

	res, err := e.store.RunScript(
		ctx,
		registerLua,
		[]string{e.accountIndexKey(), e.accountKey(username)},
		args...,
	)
	if err != nil {
		return err
	}
	if created, _ := res.(int64); created != 1 {
		return fmt.Errorf("%w: %q", ErrUsernameTaken, username)
	}

	e.log.Info(ctx, "account registered", "username", username, "status", int(status))
	e.emit("register", username, true)
	return nil
}

// UpdatePassword rehashes and stores a new password. Every outstanding
// cookie for the account stops verifying the moment the hash changes.
func (e *Engine) UpdatePassword(ctx context.Context, username, plaintext string) error {
	if len(plaintext) < e.config.MinPasswordLength {
		return fmt.Errorf("%w: minimum %d characters", ErrPasswordTooWeak, e.config.MinPasswordLength)
	}

	exists, err := e.AccountExists(ctx, username)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, username)
	}

	hash, err := e.hasher.Hash(plaintext)
	if err != nil {
		return err
	}
	if err := e.store.HSet(ctx, e.accountKey(username), "password", hash); err != nil {
		return err
	}

	e.log.Info(ctx, "password updated", "username", username)
	return nil
}

// CheckPassword verifies a plaintext against the stored hash. It is the
// login primitive used by the request layer before issuing a cookie.
func (e *Engine) CheckPassword(ctx context.Context, username, plaintext string) (bool, error) {
	hash, err := e.store.HGet(ctx, e.accountKey(username), "password")
	if err != nil {
		return false, err
	}
	encoded, _ := hash.(string)
	if encoded == "" {
		return false, nil
	}
	return e.hasher.Verify(plaintext, encoded)
}

// UpdateProfile writes the mutable presentation fields in one command.
func (e *Engine) UpdateProfile(ctx context.Context, username, nickname, avatar string) error {
	exists, err := e.AccountExists(ctx, username)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, username)
	}

	return e.store.HSetMap(ctx, e.accountKey(username), map[string]any{
		"nickname": nickname,
		"avatar":   avatar,
	})
}

// SetStatus is the administrative status change.
func (e *Engine) SetStatus(ctx context.Context, username string, status AccountStatus) error {
	exists, err := e.AccountExists(ctx, username)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, username)
	}
	return e.store.HSet(ctx, e.accountKey(username), "status", int(status))
}

// SetTokenKey rotates the account's secondary token signing secret.
// Rotating it revokes every token signed with the previous key without
// touching the password. An empty key clears it, leaving tokens bound to
// the password hash alone.
func (e *Engine) SetTokenKey(ctx context.Context, username, tokenKey string) error {
	exists, err := e.AccountExists(ctx, username)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, username)
	}

	key := e.accountKey(username)
	if tokenKey == "" {
		return e.store.HDel(ctx, key, "token_key")
	}
	return e.store.HSet(ctx, key, "token_key", tokenKey)
}

// UserSettings returns the account's ucfg_-prefixed preference fields.
func (e *Engine) UserSettings(ctx context.Context, username string) (map[string]any, error) {
	record, err := e.store.HGetAll(ctx, e.accountKey(username))
	if err != nil {
		return nil, err
	}

	settings := make(map[string]any)
	for field, value := range record {
		if strings.HasPrefix(field, "ucfg_") {
			settings[field] = value
		}
	}
	return settings, nil
}

func (e *Engine) checkUsername(ctx context.Context, username string) (bool, error) {
	if !usernamePat.MatchString(username) {
		return false, nil
	}

	forbidden, err := e.ConfigValue(ctx, "forbidden_username")
	if err != nil {
		return false, err
	}
	if username == "anonymous" {
		return false, nil
	}
	if s, ok := forbidden.(string); ok && s != "" {
		for _, name := range strings.Split(s, ",") {
			if strings.TrimSpace(name) == username {
				return false, nil
			}
		}
	}
	return true, nil
}
