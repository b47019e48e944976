// Package store declares the persistence contract for tours and users.
//
// Backends live in internal/store/memory, internal/repository (PostgreSQL) and
// internal/mongostore. All of them translate their driver errors into the
// sentinels declared here so callers can branch with errors.Is.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/travelwallet/travelwallet/internal/model"
)

// Common store errors.
var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("record was modified concurrently")
	ErrEmailExists     = errors.New("email already exists")
	ErrInvalidID       = errors.New("malformed record id")
)

// TourStore persists tours and their ledgers.
//
// SaveFriends and AppendExpense are conditional writes: they succeed only when the
// stored version equals expectedVersion, and they increment the version on success.
// A missing tour yields ErrNotFound; a stale version yields ErrVersionConflict.
type TourStore interface {
	CreateTour(ctx context.Context, tour *model.Tour) error
	GetTour(ctx context.Context, id string) (*model.Tour, error)
	// ListToursByEmail returns tours organized by email or having email among their friends.
	ListToursByEmail(ctx context.Context, email string) ([]*model.Tour, error)
	UpdateTourDetails(ctx context.Context, id string, details model.TourDetails) error
	DeleteTour(ctx context.Context, id string) error
	SaveFriends(ctx context.Context, id string, expectedVersion int64, friends []model.Friend) error
	AppendExpense(ctx context.Context, id string, expectedVersion int64, friends []model.Friend, expense model.Expense) error
	Ping(ctx context.Context) error
}

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser inserts a user. A duplicate email yields ErrEmailExists.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// SearchUsersByName returns users whose name contains query, ignoring case.
	SearchUsersByName(ctx context.Context, query string) ([]*model.User, error)
}

// Store combines both contracts; every backend implements it.
type Store interface {
	TourStore
	UserStore
	Close(ctx context.Context) error
}

// ValidateID reports ErrInvalidID unless id is a canonical ULID string.
func ValidateID(id string) error {
	if _, err := ulid.ParseStrict(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}
