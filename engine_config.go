package pixvault

import (
	"context"
	"fmt"
)

// ConfigAll returns the whole system config record (the console
// settings: review, disable_login, forbidden_username, and whatever else
// administrators store there).
func (e *Engine) ConfigAll(ctx context.Context) (map[string]any, error) {
	return e.store.HGetAll(ctx, e.systemConfigKey())
}

// ConfigValue reads one system config setting; nil when unset.
func (e *Engine) ConfigValue(ctx context.Context, name string) (any, error) {
	return e.store.HGet(ctx, e.systemConfigKey(), name)
}

// SetConfig merges settings into the system config record in one write.
func (e *Engine) SetConfig(ctx context.Context, mapping map[string]any) error {
	if len(mapping) == 0 {
		return fmt.Errorf("%w: empty config mapping", ErrInvalidArgument)
	}
	return e.store.HSetMap(ctx, e.systemConfigKey(), mapping)
}
