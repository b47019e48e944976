// Package activity records a per-tour feed of ledger events.
package activity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/travelwallet/travelwallet/internal/money"
)

// EventType names a ledger mutation.
type EventType string

const (
	EventTourCreated   EventType = "tour_created"
	EventTourUpdated   EventType = "tour_updated"
	EventFriendAdded   EventType = "friend_added"
	EventFriendRemoved EventType = "friend_removed"
	EventExpenseAdded  EventType = "expense_added"
)

// IsValid reports whether t is a known event type.
func (t EventType) IsValid() bool {
	switch t {
	case EventTourCreated, EventTourUpdated, EventFriendAdded, EventFriendRemoved, EventExpenseAdded:
		return true
	}
	return false
}

// Validation errors.
var (
	ErrInvalidEvent = errors.New("invalid activity event")
)

// Event is one entry of a tour's activity feed.
type Event struct {
	ID      string       `json:"id,omitempty"`
	TourID  string       `json:"tourId"`
	Type    EventType    `json:"type"`
	Email   string       `json:"email,omitempty"`
	Amount  money.Amount `json:"amount,omitempty"`
	Details string       `json:"details,omitempty"`
	Version int64        `json:"version"`
	At      time.Time    `json:"at"`
}

// Validate checks the fields every event must carry.
func (e Event) Validate() error {
	if e.TourID == "" {
		return fmt.Errorf("%w: tour_id is required", ErrInvalidEvent)
	}
	if !e.Type.IsValid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.Type)
	}
	if e.At.IsZero() {
		return fmt.Errorf("%w: timestamp is required", ErrInvalidEvent)
	}
	return nil
}

// Feed publishes and lists tour activity.
type Feed interface {
	Publish(ctx context.Context, event Event) (string, error)
	List(ctx context.Context, tourID string, limit int) ([]Event, error)
	Delete(ctx context.Context, tourID string) error
}

// DefaultListLimit is used when a caller asks for a non-positive number of events.
const DefaultListLimit = 50

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return DefaultListLimit
	}
	return limit
}
