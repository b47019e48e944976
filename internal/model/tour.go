// Package model defines domain entities for the application.
package model

import (
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/travelwallet/travelwallet/internal/money"
)

// DateLayout is the wire format of tour start and end dates.
const DateLayout = "2006-01-02"

// Validation errors.
var (
	ErrValidation  = errors.New("validation failed")
	ErrInvalidCost = errors.New("cost must be an integer")
)

// Friend is a participant in a tour's shared ledger.
// Balance is positive when the friend is owed money and negative when they owe.
type Friend struct {
	Email   string       `json:"email"`
	Name    string       `json:"name,omitempty"`
	Profile string       `json:"profile,omitempty"`
	Balance money.Amount `json:"balance"`
}

// Expense is a single recorded payment. Expenses are append-only.
type Expense struct {
	ID        string       `json:"id"`
	Payer     string       `json:"payer"`
	Amount    money.Amount `json:"amount"`
	Details   string       `json:"details,omitempty"`
	Email     string       `json:"email"`
	CreatedAt time.Time    `json:"createdAt"`
}

// TourDetails is the set of tour fields replaced wholesale by an update.
type TourDetails struct {
	OrganizerID    string   `json:"organizerId"`
	OrganizerBy    string   `json:"organizerBy"`
	TourName       string   `json:"tourName"`
	Description    string   `json:"description"`
	Itinerary      []string `json:"itinerary"`
	Duration       string   `json:"duration"`
	MeetingPoint   string   `json:"meetingPoint"`
	Transportation string   `json:"transportation"`
	Cost           int64    `json:"cost"`
	StartDate      string   `json:"startDate"`
	EndDate        string   `json:"endDate"`
	Destination    string   `json:"destination"`
}

// Validate checks the invariants of a details payload.
func (d TourDetails) Validate() error {
	if strings.TrimSpace(d.TourName) == "" {
		return fmt.Errorf("%w: tourName is required", ErrValidation)
	}
	if _, err := mail.ParseAddress(d.OrganizerBy); err != nil {
		return fmt.Errorf("%w: organizerBy must be an email address", ErrValidation)
	}
	if d.Cost < 0 {
		return fmt.Errorf("%w: cost must not be negative", ErrValidation)
	}

	var start, end time.Time
	var err error
	if d.StartDate != "" {
		if start, err = time.Parse(DateLayout, d.StartDate); err != nil {
			return fmt.Errorf("%w: startDate must be YYYY-MM-DD", ErrValidation)
		}
	}
	if d.EndDate != "" {
		if end, err = time.Parse(DateLayout, d.EndDate); err != nil {
			return fmt.Errorf("%w: endDate must be YYYY-MM-DD", ErrValidation)
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return fmt.Errorf("%w: endDate is before startDate", ErrValidation)
	}

	return nil
}

// Tour is a shared trip record owning its friends and expense ledger.
type Tour struct {
	ID string `json:"_id"`

	TourDetails

	Friends   []Friend  `json:"friends"`
	Expenses  []Expense `json:"expenses"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a deep copy of the tour so callers can mutate it freely.
func (t *Tour) Clone() *Tour {
	c := *t
	if t.Itinerary != nil {
		c.Itinerary = append([]string(nil), t.Itinerary...)
	}
	if t.Friends != nil {
		c.Friends = append([]Friend(nil), t.Friends...)
	}
	if t.Expenses != nil {
		c.Expenses = append([]Expense(nil), t.Expenses...)
	}
	return &c
}

// FriendIndex returns the index of the first friend with the given email, or -1.
// Matching is exact and case-sensitive.
func (t *Tour) FriendIndex(email string) int {
	for i := range t.Friends {
		if t.Friends[i].Email == email {
			return i
		}
	}
	return -1
}

// HasFriend reports whether a friend with the given email is on the tour.
func (t *Tour) HasFriend(email string) bool {
	return t.FriendIndex(email) >= 0
}

// RemoveFriend removes the first friend with the given email and returns it.
// The second return value is false when no friend matched.
func (t *Tour) RemoveFriend(email string) (Friend, bool) {
	idx := t.FriendIndex(email)
	if idx < 0 {
		return Friend{}, false
	}

	removed := t.Friends[idx]
	friends := make([]Friend, 0, len(t.Friends)-1)
	friends = append(friends, t.Friends[:idx]...)
	friends = append(friends, t.Friends[idx+1:]...)
	t.Friends = friends
	return removed, true
}

// IsParticipant reports whether email organizes the tour or is one of its friends.
func (t *Tour) IsParticipant(email string) bool {
	return t.OrganizerBy == email || t.HasFriend(email)
}

// ParseCost coerces a cost value to an integer.
// It accepts integral numbers and numeric strings; anything else is ErrInvalidCost.
func ParseCost(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	raw = strings.Trim(raw, `"`)
	cost, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, ErrInvalidCost
	}
	return cost, nil
}
