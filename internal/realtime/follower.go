// Package realtime keeps a consumer's view of inspection data fresh.
// Event delivery is best effort, so a follower pairs three mechanisms:
// a debounced reload on incoming events, a periodic consistency
// refresh, and a pure polling mode when no subscription is available.
package realtime

import (
	"context"
	"time"

	"github.com/inspectrack/inspectrack/internal/notifier"
	"go.uber.org/zap"
)

// Default intervals.
const (
	DefaultDebounce = 800 * time.Millisecond
	DefaultRefresh  = 60 * time.Second
	DefaultPoll     = 30 * time.Second
)

// Config tunes a follower. Zero values take the defaults.
type Config struct {
	// Debounce coalesces bursts of events into one reload.
	Debounce time.Duration
	// Refresh forces a reload even when no event arrived.
	Refresh time.Duration
	// Poll is the reload interval when following without events.
	Poll time.Duration
}

func (c Config) withDefaults() Config {
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	if c.Refresh <= 0 {
		c.Refresh = DefaultRefresh
	}
	if c.Poll <= 0 {
		c.Poll = DefaultPoll
	}
	return c
}

// Follower drives reloads for one subscriber.
type Follower struct {
	logger *zap.Logger
	cfg    Config
	reload func(ctx context.Context)

	cancel context.CancelFunc
	done   chan struct{}
}

// NewFollower creates a follower that invokes reload whenever the
// underlying data should be re-read.
func NewFollower(logger *zap.Logger, cfg Config, reload func(ctx context.Context)) *Follower {
	return &Follower{
		logger: logger.Named("realtime.follower"),
		cfg:    cfg.withDefaults(),
		reload: reload,
		done:   make(chan struct{}),
	}
}

// Follow consumes events until the context ends or Close is called.
// A nil events channel switches the follower to pure polling.
func (f *Follower) Follow(ctx context.Context, events <-chan *notifier.Event) {
	ctx, f.cancel = context.WithCancel(ctx)
	go f.run(ctx, events)
}

// Close stops the follower and waits for its loop to exit.
func (f *Follower) Close() {
	if f.cancel != nil {
		f.cancel()
	}
	<-f.done
}

func (f *Follower) run(ctx context.Context, events <-chan *notifier.Event) {
	defer close(f.done)

	if events == nil {
		f.poll(ctx)
		return
	}

	refresh := time.NewTicker(f.cfg.Refresh)
	defer refresh.Stop()

	debounce := time.NewTimer(f.cfg.Debounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return

		case evt, ok := <-events:
			if !ok {
				// Subscription lost; degrade to polling.
				f.logger.Warn("event stream closed, falling back to polling")
				f.poll(ctx)
				return
			}
			f.logger.Debug("event received", zap.String("type", evt.Type))
			if pending {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
			}
			debounce.Reset(f.cfg.Debounce)
			pending = true

		case <-debounce.C:
			pending = false
			f.reload(ctx)
			refresh.Reset(f.cfg.Refresh)

		case <-refresh.C:
			f.reload(ctx)
		}
	}
}

// poll reloads on a fixed interval.
func (f *Follower) poll(ctx context.Context) {
	ticker := time.NewTicker(f.cfg.Poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.reload(ctx)
		}
	}
}
