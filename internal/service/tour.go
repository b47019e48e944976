// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/travelwallet/travelwallet/internal/activity"
	"github.com/travelwallet/travelwallet/internal/cache"
	"github.com/travelwallet/travelwallet/internal/metrics"
	"github.com/travelwallet/travelwallet/internal/model"
	"github.com/travelwallet/travelwallet/internal/money"
	"github.com/travelwallet/travelwallet/internal/settlement"
	"github.com/travelwallet/travelwallet/internal/store"
)

// Service errors.
var (
	ErrTourNotFound     = errors.New("tour not found")
	ErrFriendNotFound   = errors.New("friend not found")
	ErrFriendExists     = errors.New("friend already on tour")
	ErrFriendHasBalance = errors.New("friend has an unsettled balance")
	ErrInvalidTourID    = errors.New("invalid tour id")
	ErrConcurrentUpdate = errors.New("tour was modified concurrently, retry the request")
)

// TourCache is the read-through cache used by GetTour.
// *cache.Cache implements it; a nil TourCache disables caching.
//
// DeleteTour bumps the tour's generation. SetTour stores a snapshot only if
// the generation still matches the one read by TourGeneration before the
// store read, so a writer's invalidation always wins over a slower reader.
type TourCache interface {
	GetTour(ctx context.Context, id string) (*model.Tour, error)
	TourGeneration(ctx context.Context, id string) (int64, error)
	SetTour(ctx context.Context, tour *model.Tour, gen int64) (bool, error)
	DeleteTour(ctx context.Context, id string) error
	IsNegativelyCached(ctx context.Context, id string) (bool, error)
	SetNegativeCache(ctx context.Context, id string) error
}

// TourService handles tour, friend and expense business logic.
//
// Every ledger mutation reads the tour from the store, applies the change in
// memory and writes it back conditioned on the version it read. A stale version
// is returned to the caller as ErrConcurrentUpdate; nothing is retried here.
type TourService struct {
	store   store.TourStore
	cache   TourCache
	feed    activity.Feed
	metrics metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time
}

// NewTourService creates a new TourService. cache and feed may be nil.
func NewTourService(st store.TourStore, tourCache TourCache, feed activity.Feed, recorder metrics.Recorder, logger *slog.Logger) *TourService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TourService{
		store:   st,
		cache:   tourCache,
		feed:    feed,
		metrics: recorder,
		logger:  logger.With("component", "tour_service"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateTourInput defines input for creating a tour.
type CreateTourInput struct {
	Details model.TourDetails
	Friends []model.Friend
}

// CreateTour validates and stores a new tour.
// Initial friends must have distinct email addresses and always start at a zero balance.
func (s *TourService) CreateTour(ctx context.Context, input CreateTourInput) (*model.Tour, error) {
	defer s.observe("create_tour", time.Now())

	if err := input.Details.Validate(); err != nil {
		return nil, err
	}

	friends := make([]model.Friend, 0, len(input.Friends))
	seen := make(map[string]struct{}, len(input.Friends))
	for _, f := range input.Friends {
		if err := validateEmail(f.Email); err != nil {
			return nil, err
		}
		if _, dup := seen[f.Email]; dup {
			return nil, fmt.Errorf("%w: duplicate friend %q", model.ErrValidation, f.Email)
		}
		seen[f.Email] = struct{}{}
		f.Balance = money.Zero
		friends = append(friends, f)
	}

	now := s.now()
	tour := &model.Tour{
		ID:          newID(),
		TourDetails: input.Details,
		Friends:     friends,
		Expenses:    []model.Expense{},
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if tour.Itinerary == nil {
		tour.Itinerary = []string{}
	}

	if err := s.store.CreateTour(ctx, tour); err != nil {
		return nil, fmt.Errorf("create tour: %w", err)
	}

	s.metrics.IncTourCreated()
	s.publish(ctx, activity.Event{
		TourID:  tour.ID,
		Type:    activity.EventTourCreated,
		Email:   tour.OrganizerBy,
		Details: tour.TourName,
		Version: tour.Version,
		At:      now,
	})

	return tour, nil
}

// GetTour retrieves a tour by ID, consulting the cache first.
func (s *TourService) GetTour(ctx context.Context, id string) (*model.Tour, error) {
	if err := store.ValidateID(id); err != nil {
		return nil, ErrInvalidTourID
	}

	var (
		gen      int64
		backfill bool
	)
	if s.cache != nil {
		cached, err := s.cache.GetTour(ctx, id)
		if err == nil {
			s.metrics.IncTourCacheHit()
			return cached, nil
		}
		if errors.Is(err, cache.ErrCacheMiss) {
			s.metrics.IncTourCacheMiss()
			if negative, _ := s.cache.IsNegativelyCached(ctx, id); negative {
				return nil, ErrTourNotFound
			}
			gen, err = s.cache.TourGeneration(ctx, id)
			backfill = err == nil
		}
		if err != nil {
			s.logger.Warn("tour cache read failed", "tour_id", id, "error", err)
		}
	}

	tour, err := s.store.GetTour(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) && s.cache != nil {
			if cerr := s.cache.SetNegativeCache(ctx, id); cerr != nil {
				s.logger.Warn("negative cache write failed", "tour_id", id, "error", cerr)
			}
		}
		return nil, mapStoreError(err)
	}

	if backfill {
		stored, err := s.cache.SetTour(ctx, tour, gen)
		switch {
		case err != nil:
			s.logger.Warn("tour cache backfill failed", "tour_id", id, "error", err)
		case !stored:
			s.logger.Debug("tour cache backfill skipped, tour changed meanwhile", "tour_id", id)
		}
	}

	return tour, nil
}

// ListToursByEmail returns the tours email organizes or takes part in.
func (s *TourService) ListToursByEmail(ctx context.Context, email string) ([]*model.Tour, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	tours, err := s.store.ListToursByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("list tours: %w", err)
	}
	if tours == nil {
		tours = []*model.Tour{}
	}
	return tours, nil
}

// UpdateTourFields replaces the tour details wholesale.
// Friends, expenses and the ledger version are left untouched.
func (s *TourService) UpdateTourFields(ctx context.Context, id string, details model.TourDetails) (*model.Tour, error) {
	defer s.observe("update_tour", time.Now())

	if err := store.ValidateID(id); err != nil {
		return nil, ErrInvalidTourID
	}
	if err := details.Validate(); err != nil {
		return nil, err
	}
	if details.Itinerary == nil {
		details.Itinerary = []string{}
	}

	if err := s.store.UpdateTourDetails(ctx, id, details); err != nil {
		return nil, mapStoreError(err)
	}
	s.invalidate(ctx, id)

	tour, err := s.store.GetTour(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}

	s.metrics.IncTourUpdated()
	s.publish(ctx, activity.Event{
		TourID:  id,
		Type:    activity.EventTourUpdated,
		Email:   details.OrganizerBy,
		Details: details.TourName,
		Version: tour.Version,
		At:      s.now(),
	})

	return tour, nil
}

// DeleteTour removes a tour, evicts it from the cache and drops its activity feed.
func (s *TourService) DeleteTour(ctx context.Context, id string) error {
	defer s.observe("delete_tour", time.Now())

	if err := store.ValidateID(id); err != nil {
		return ErrInvalidTourID
	}

	if err := s.store.DeleteTour(ctx, id); err != nil {
		return mapStoreError(err)
	}

	s.metrics.IncTourDeleted()
	s.invalidate(ctx, id)

	if s.feed != nil {
		if err := s.feed.Delete(ctx, id); err != nil {
			s.logger.Warn("activity delete failed", "tour_id", id, "error", err)
		}
	}
	return nil
}

// AddFriend appends a participant to the tour with a zero balance.
func (s *TourService) AddFriend(ctx context.Context, tourID string, friend model.Friend) (*model.Tour, error) {
	defer s.observe("add_friend", time.Now())

	if err := validateEmail(friend.Email); err != nil {
		return nil, err
	}

	tour, err := s.load(ctx, tourID)
	if err != nil {
		return nil, err
	}
	if tour.HasFriend(friend.Email) {
		return nil, ErrFriendExists
	}

	friend.Balance = money.Zero
	friends := append(append([]model.Friend{}, tour.Friends...), friend)

	if err := s.store.SaveFriends(ctx, tourID, tour.Version, friends); err != nil {
		return nil, s.writeError(err)
	}

	tour.Friends = friends
	tour.Version++
	tour.UpdatedAt = s.now()

	s.metrics.IncFriendAdded()
	s.invalidate(ctx, tourID)
	s.publish(ctx, activity.Event{
		TourID:  tourID,
		Type:    activity.EventFriendAdded,
		Email:   friend.Email,
		Details: friend.Name,
		Version: tour.Version,
		At:      tour.UpdatedAt,
	})

	return tour, nil
}

// RemoveFriend removes the first participant with email.
// A friend who still owes or is owed money cannot be removed.
func (s *TourService) RemoveFriend(ctx context.Context, tourID, email string) (*model.Tour, error) {
	defer s.observe("remove_friend", time.Now())

	tour, err := s.load(ctx, tourID)
	if err != nil {
		return nil, err
	}

	idx := tour.FriendIndex(email)
	if idx < 0 {
		return nil, ErrFriendNotFound
	}
	if !tour.Friends[idx].Balance.IsZero() {
		return nil, fmt.Errorf("%w: %s", ErrFriendHasBalance, tour.Friends[idx].Balance)
	}

	updated := tour.Clone()
	updated.RemoveFriend(email)

	if err := s.store.SaveFriends(ctx, tourID, tour.Version, updated.Friends); err != nil {
		return nil, s.writeError(err)
	}

	updated.Version++
	updated.UpdatedAt = s.now()

	s.metrics.IncFriendRemoved()
	s.invalidate(ctx, tourID)
	s.publish(ctx, activity.Event{
		TourID:  tourID,
		Type:    activity.EventFriendRemoved,
		Email:   email,
		Version: updated.Version,
		At:      updated.UpdatedAt,
	})

	return updated, nil
}

// AddExpenseInput defines input for recording an expense.
type AddExpenseInput struct {
	Payer   string
	Amount  money.Amount
	Details string
	Email   string
}

// AddExpense records a payment fronted by the friend with input.Email and
// splits it equally across every friend on the tour.
func (s *TourService) AddExpense(ctx context.Context, tourID string, input AddExpenseInput) (*model.Tour, error) {
	defer s.observe("add_expense", time.Now())

	tour, err := s.load(ctx, tourID)
	if err != nil {
		return nil, err
	}

	friends, err := settlement.ApplyExpense(tour.Friends, input.Email, input.Amount)
	if err != nil {
		return nil, err
	}

	now := s.now()
	expense := model.Expense{
		ID:        newID(),
		Payer:     input.Payer,
		Amount:    input.Amount,
		Details:   input.Details,
		Email:     input.Email,
		CreatedAt: now,
	}

	if err := s.store.AppendExpense(ctx, tourID, tour.Version, friends, expense); err != nil {
		return nil, s.writeError(err)
	}

	tour.Friends = friends
	tour.Expenses = append(tour.Expenses, expense)
	tour.Version++
	tour.UpdatedAt = now

	s.metrics.IncExpenseRecorded()
	s.invalidate(ctx, tourID)
	s.publish(ctx, activity.Event{
		TourID:  tourID,
		Type:    activity.EventExpenseAdded,
		Email:   input.Email,
		Amount:  input.Amount,
		Details: input.Details,
		Version: tour.Version,
		At:      now,
	})

	return tour, nil
}

// Balances summarises a tour ledger.
type Balances struct {
	TourID    string                `json:"tourId"`
	Version   int64                 `json:"version"`
	Friends   []model.Friend        `json:"friends"`
	Transfers []settlement.Transfer `json:"transfers"`
	// Total is the sum of all balances and is zero for a consistent ledger.
	Total money.Amount `json:"total"`
}

// GetBalances returns per-friend balances plus the payments that would settle them.
func (s *TourService) GetBalances(ctx context.Context, tourID string) (*Balances, error) {
	tour, err := s.GetTour(ctx, tourID)
	if err != nil {
		return nil, err
	}

	friends := tour.Friends
	if friends == nil {
		friends = []model.Friend{}
	}
	transfers := settlement.SuggestTransfers(friends)
	if transfers == nil {
		transfers = []settlement.Transfer{}
	}
	return &Balances{
		TourID:    tour.ID,
		Version:   tour.Version,
		Friends:   friends,
		Transfers: transfers,
		Total:     settlement.Total(friends),
	}, nil
}

// ListActivity returns the most recent events of a tour, newest first.
func (s *TourService) ListActivity(ctx context.Context, tourID string, limit int) ([]activity.Event, error) {
	if _, err := s.GetTour(ctx, tourID); err != nil {
		return nil, err
	}
	if s.feed == nil {
		return []activity.Event{}, nil
	}

	events, err := s.feed.List(ctx, tourID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return events, nil
}

// load reads a tour from the store, bypassing the cache.
func (s *TourService) load(ctx context.Context, id string) (*model.Tour, error) {
	if err := store.ValidateID(id); err != nil {
		return nil, ErrInvalidTourID
	}
	tour, err := s.store.GetTour(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if tour.Expenses == nil {
		tour.Expenses = []model.Expense{}
	}
	return tour, nil
}

// writeError maps a conditional write failure and counts conflicts.
func (s *TourService) writeError(err error) error {
	if errors.Is(err, store.ErrVersionConflict) {
		s.metrics.IncLedgerConflict()
		return ErrConcurrentUpdate
	}
	return mapStoreError(err)
}

func (s *TourService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteTour(ctx, id); err != nil {
		// Stale reads last at most one TTL.
		s.logger.Warn("tour cache invalidation failed", "tour_id", id, "error", err)
	}
}

func (s *TourService) publish(ctx context.Context, event activity.Event) {
	if s.feed == nil {
		return
	}
	if _, err := s.feed.Publish(ctx, event); err != nil {
		s.logger.Warn("activity publish failed",
			"tour_id", event.TourID,
			"type", string(event.Type),
			"error", err,
		)
	}
}

func (s *TourService) observe(op string, start time.Time) {
	s.metrics.ObserveMutationDuration(op, time.Since(start))
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrTourNotFound
	case errors.Is(err, store.ErrInvalidID):
		return ErrInvalidTourID
	default:
		return err
	}
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", model.ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: %q is not an email address", model.ErrValidation, email)
	}
	return nil
}

// newID returns a new ULID string.
func newID() string {
	return ulid.Make().String()
}
