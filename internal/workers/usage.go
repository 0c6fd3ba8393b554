// Package workers runs background work off the request path.
package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var ErrClosed = errors.New("usage toucher closed")

// UsageStore persists the last time a key was used.
type UsageStore interface {
	TouchLastUsed(ctx context.Context, id string, at time.Time) error
}

type touch struct {
	keyID string
	at    time.Time
}

// UsageToucher records key usage asynchronously through a bounded queue.
// When the queue is full the touch is dropped: last_used_at is advisory.
type UsageToucher struct {
	store   UsageStore
	queue   chan touch
	done    chan struct{}
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
}

func NewUsageToucher(store UsageStore, size int) *UsageToucher {
	if size <= 0 {
		size = 1
	}
	u := &UsageToucher{
		store:   store,
		queue:   make(chan touch, size),
		done:    make(chan struct{}),
		timeout: 5 * time.Second,
	}
	go u.run()
	return u
}

// RecordUsage enqueues a touch without blocking.
func (u *UsageToucher) RecordUsage(_ context.Context, keyID string, at time.Time) error {
	u.mu.RLock()
	defer u.mu.RUnlock()

	if u.closed {
		return ErrClosed
	}

	select {
	case u.queue <- touch{keyID: keyID, at: at}:
	default:
		log.Warn().Str("api_key_id", keyID).Msg("usage queue full, dropping last_used update")
	}
	return nil
}

func (u *UsageToucher) run() {
	defer close(u.done)

	for t := range u.queue {
		ctx, cancel := context.WithTimeout(context.Background(), u.timeout)
		if err := u.store.TouchLastUsed(ctx, t.keyID, t.at); err != nil {
			log.Error().Err(err).Str("api_key_id", t.keyID).Msg("failed to update last_used_at")
		}
		cancel()
	}
}

// Close stops accepting touches and waits until the queue is drained.
func (u *UsageToucher) Close() {
	u.mu.Lock()
	if !u.closed {
		u.closed = true
		close(u.queue)
	}
	u.mu.Unlock()

	<-u.done
}
