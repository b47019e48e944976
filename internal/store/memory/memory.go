// Package memory is an in-process store.Store used by tests and local development.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/travelwallet/travelwallet/internal/model"
	"github.com/travelwallet/travelwallet/internal/store"
)

// Store keeps tours and users in maps guarded by a single mutex.
// Every read and write copies the records so callers never share memory with the store.
type Store struct {
	mu    sync.RWMutex
	tours map[string]*model.Tour
	users map[string]*model.User // keyed by email
	now   func() time.Time
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		tours: make(map[string]*model.Tour),
		users: make(map[string]*model.User),
		now:   time.Now,
	}
}

// CreateTour stores a copy of tour.
func (s *Store) CreateTour(_ context.Context, tour *model.Tour) error {
	if err := store.ValidateID(tour.ID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tours[tour.ID] = tour.Clone()
	return nil
}

// GetTour returns a copy of the tour with the given id.
func (s *Store) GetTour(_ context.Context, id string) (*model.Tour, error) {
	if err := store.ValidateID(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	tour, ok := s.tours[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return tour.Clone(), nil
}

// ListToursByEmail returns tours the email organizes or participates in, newest first.
func (s *Store) ListToursByEmail(_ context.Context, email string) ([]*model.Tour, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tours []*model.Tour
	for _, tour := range s.tours {
		if tour.IsParticipant(email) {
			tours = append(tours, tour.Clone())
		}
	}

	sort.Slice(tours, func(i, j int) bool {
		if !tours[i].CreatedAt.Equal(tours[j].CreatedAt) {
			return tours[i].CreatedAt.After(tours[j].CreatedAt)
		}
		return tours[i].ID > tours[j].ID
	})
	return tours, nil
}

// UpdateTourDetails replaces the detail fields of a tour.
func (s *Store) UpdateTourDetails(_ context.Context, id string, details model.TourDetails) error {
	if err := store.ValidateID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tour, ok := s.tours[id]
	if !ok {
		return store.ErrNotFound
	}
	details.Itinerary = append([]string(nil), details.Itinerary...)
	tour.TourDetails = details
	tour.UpdatedAt = s.now()
	return nil
}

// DeleteTour removes a tour.
func (s *Store) DeleteTour(_ context.Context, id string) error {
	if err := store.ValidateID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tours[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.tours, id)
	return nil
}

// SaveFriends replaces the friend list if the stored version matches.
func (s *Store) SaveFriends(_ context.Context, id string, expectedVersion int64, friends []model.Friend) error {
	if err := store.ValidateID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tour, err := s.lockedForWrite(id, expectedVersion)
	if err != nil {
		return err
	}
	tour.Friends = append([]model.Friend{}, friends...)
	tour.Version++
	tour.UpdatedAt = s.now()
	return nil
}

// AppendExpense stores the settled friend list and appends expense in one step.
func (s *Store) AppendExpense(_ context.Context, id string, expectedVersion int64, friends []model.Friend, expense model.Expense) error {
	if err := store.ValidateID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tour, err := s.lockedForWrite(id, expectedVersion)
	if err != nil {
		return err
	}
	tour.Friends = append([]model.Friend{}, friends...)
	tour.Expenses = append(append([]model.Expense{}, tour.Expenses...), expense)
	tour.Version++
	tour.UpdatedAt = s.now()
	return nil
}

// lockedForWrite must be called with s.mu held.
func (s *Store) lockedForWrite(id string, expectedVersion int64) (*model.Tour, error) {
	tour, ok := s.tours[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if tour.Version != expectedVersion {
		return nil, store.ErrVersionConflict
	}
	return tour, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close(context.Context) error { return nil }

// CreateUser stores a copy of user.
func (s *Store) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.Email]; exists {
		return store.ErrEmailExists
	}
	u := *user
	s.users[user.Email] = &u
	return nil
}

// GetUserByEmail looks a user up by exact email.
func (s *Store) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	u := *user
	return &u, nil
}

// SearchUsersByName returns users whose name contains query, ignoring case, ordered by name.
func (s *Store) SearchUsersByName(_ context.Context, query string) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var users []*model.User
	for _, user := range s.users {
		if user.MatchesName(query) {
			u := *user
			users = append(users, &u)
		}
	}

	sort.Slice(users, func(i, j int) bool {
		return strings.ToLower(users[i].UserName) < strings.ToLower(users[j].UserName)
	})
	return users, nil
}
