package pixvault

import (
	"context"
	"fmt"
)

// Message is one console notification pushed to a user.
type Message struct {
	Text  string `json:"text"`
	Level string `json:"level"`
}

var messageLevels = map[string]bool{
	"info": true, "warn": true, "success": true, "error": true,
}

// PushMessage appends a notification to the user's message queue. It
// refuses unknown levels and accounts that do not exist, so queues are
// never created for stray names.
func (e *Engine) PushMessage(ctx context.Context, username string, msg Message) error {
	if msg.Text == "" || !messageLevels[msg.Level] {
		return fmt.Errorf("%w: message text and a known level required", ErrInvalidArgument)
	}

	exists, err := e.store.Exists(ctx, e.accountKey(username))
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, username)
	}

	return e.store.RPush(ctx, e.messageKey(username), msg)
}

// DrainMessages returns and clears the user's pending notifications in
// arrival order.
func (e *Engine) DrainMessages(ctx context.Context, username string) ([]Message, error) {
	key := e.messageKey(username)

	items, err := e.store.LRange(ctx, key, 0, -1)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []Message{}, nil
	}

	if err := e.store.Delete(ctx, key); err != nil {
		return nil, err
	}

	msgs := make([]Message, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		msgs = append(msgs, Message{
			Text:  fieldString(m, "text", ""),
			Level: fieldString(m, "level", "info"),
		})
	}
	return msgs, nil
}
