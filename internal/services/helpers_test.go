package services

import (
	"context"
	"errors"
	"sync"

	"github.com/pratik-mahalle/opsguard/internal/domain/notification"
)

// recordingNotifier captures messages and fails for configured recipients
type recordingNotifier struct {
	mu       sync.Mutex
	messages []*notification.Message
	failFor  map[string]bool
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{failFor: make(map[string]bool)}
}

func (r *recordingNotifier) Channel() notification.Channel {
	return notification.ChannelEmail
}

func (r *recordingNotifier) Notify(ctx context.Context, msg *notification.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[msg.Recipient] {
		return errors.New("mailbox unavailable")
	}
	r.messages = append(r.messages, msg)
	return nil
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}
