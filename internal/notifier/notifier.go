// Package notifier propagates inspection events to dashboard and
// portal subscribers. Delivery is best effort: consumers pair a
// subscription with periodic refresh instead of assuming every event
// arrives.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/inspectrack/inspectrack/internal/common/cnst"
)

// Event is one realtime notification on a company channel.
type Event struct {
	Type      string          `json:"type"`
	CompanyID uint            `json:"company_id"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	EmittedAt time.Time       `json:"emitted_at"`
}

// NewEvent builds an event, marshalling the payload.
func NewEvent(eventType string, companyID uint, payload any) (*Event, error) {
	evt := &Event{
		Type:      eventType,
		CompanyID: companyID,
		EmittedAt: time.Now(),
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal event payload: %w", err)
		}
		evt.Payload = data
	}
	return evt, nil
}

// CompanyChannel names the internal channel for a company's
// back-office dashboards.
func CompanyChannel(companyID uint) string {
	return fmt.Sprintf("%s%d", cnst.ChannelCompanyPrefix, companyID)
}

// PortalChannel names the channel client-company portal viewers
// subscribe to.
func PortalChannel(companyID uint) string {
	return fmt.Sprintf("%s%d", cnst.ChannelPortalPrefix, companyID)
}

// Notifier defines the interface for event propagation between server
// instances and their realtime subscribers.
type Notifier interface {
	// Publish sends an event to a channel.
	Publish(ctx context.Context, channel string, evt *Event) error

	// Subscribe returns a channel that receives events published to
	// the named channel until ctx is done.
	Subscribe(ctx context.Context, channel string) (<-chan *Event, error)

	// CanReceive returns true if the notifier can receive events
	CanReceive() bool

	// CanSend returns true if the notifier can send events
	CanSend() bool

	// Close releases the notifier's resources.
	Close() error
}
