package dashboard

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ziadkadry99/foresight/internal/audit"
)

const subscriberBuffer = 16

// Feed is an audit.Recorder that stores entries through an inner recorder
// and fans each stored entry out to live subscribers.
type Feed struct {
	inner  audit.Recorder
	logger *slog.Logger

	mu   sync.Mutex
	subs map[chan audit.Entry]struct{}
}

// NewFeed wraps inner. A nil logger uses slog.Default.
func NewFeed(inner audit.Recorder, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{inner: inner, logger: logger, subs: make(map[chan audit.Entry]struct{})}
}

// Log records e and, once stored, publishes it. Subscribers that have
// fallen behind miss the entry rather than block the caller.
func (f *Feed) Log(ctx context.Context, e audit.Entry) error {
	if f.inner != nil {
		if err := f.inner.Log(ctx, e); err != nil {
			return err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		select {
		case ch <- e:
		default:
			f.logger.Debug("dashboard subscriber lagging, entry dropped", "action", e.Action)
		}
	}
	return nil
}

// Subscribe registers a new subscriber. The returned cancel func removes it
// and closes the channel.
func (f *Feed) Subscribe() (<-chan audit.Entry, func()) {
	ch := make(chan audit.Entry, subscriberBuffer)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, ch)
			f.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the number of live subscribers.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
