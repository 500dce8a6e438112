package notifier

import (
	"context"

	"go.uber.org/zap"
)

// CompositeNotifier implements Notifier by combining multiple
// notifiers: publishes fan out to every sender, subscriptions merge
// events from every receiver.
type CompositeNotifier struct {
	logger    *zap.Logger
	notifiers []Notifier
}

// NewCompositeNotifier creates a new composite notifier
func NewCompositeNotifier(logger *zap.Logger, notifiers ...Notifier) *CompositeNotifier {
	return &CompositeNotifier{
		logger:    logger.Named("notifier.composite"),
		notifiers: notifiers,
	}
}

// Publish implements Notifier.Publish
func (n *CompositeNotifier) Publish(ctx context.Context, channel string, evt *Event) error {
	var lastErr error
	for _, notifier := range n.notifiers {
		if !notifier.CanSend() {
			continue
		}
		if err := notifier.Publish(ctx, channel, evt); err != nil {
			lastErr = err
			n.logger.Error("failed to publish event",
				zap.String("channel", channel),
				zap.Error(err))
		}
	}
	return lastErr
}

// Subscribe implements Notifier.Subscribe
func (n *CompositeNotifier) Subscribe(ctx context.Context, channel string) (<-chan *Event, error) {
	merged := make(chan *Event, 16)
	started := 0

	for _, notifier := range n.notifiers {
		if !notifier.CanReceive() {
			continue
		}
		sub, err := notifier.Subscribe(ctx, channel)
		if err != nil {
			n.logger.Error("failed to subscribe underlying notifier",
				zap.String("channel", channel),
				zap.Error(err))
			continue
		}
		started++
		go func(sub <-chan *Event) {
			for {
				select {
				case <-ctx.Done():
					return
				case evt, ok := <-sub:
					if !ok {
						return
					}
					select {
					case merged <- evt:
					case <-ctx.Done():
						return
					}
				}
			}
		}(sub)
	}

	if started == 0 {
		close(merged)
	}

	return merged, nil
}

// CanReceive returns true if any underlying notifier can receive events
func (n *CompositeNotifier) CanReceive() bool {
	for _, notifier := range n.notifiers {
		if notifier.CanReceive() {
			return true
		}
	}
	return false
}

// CanSend returns true if any underlying notifier can send events
func (n *CompositeNotifier) CanSend() bool {
	for _, notifier := range n.notifiers {
		if notifier.CanSend() {
			return true
		}
	}
	return false
}

// Close implements Notifier.Close
func (n *CompositeNotifier) Close() error {
	var lastErr error
	for _, notifier := range n.notifiers {
		if err := notifier.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
