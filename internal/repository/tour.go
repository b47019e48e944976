package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/travelwallet/travelwallet/internal/model"
	"github.com/travelwallet/travelwallet/internal/store"
)

const tourColumns = `id, organizer_id, organizer_by, tour_name, description, itinerary, duration,
	meeting_point, transportation, cost, start_date, end_date, destination,
	friends, expenses, version, created_at, updated_at`

// CreateTour inserts a new tour into the database.
func (r *Repository) CreateTour(ctx context.Context, tour *model.Tour) error {
	if err := store.ValidateID(tour.ID); err != nil {
		return err
	}

	friends, expenses, err := encodeLedger(tour.Friends, tour.Expenses)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tours (` + tourColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14::jsonb, $15::jsonb, $16, $17, $18)
	`

	d := tour.TourDetails
	_, err = r.pool.Exec(ctx, query,
		tour.ID,
		d.OrganizerID,
		d.OrganizerBy,
		d.TourName,
		d.Description,
		pq.Array(itinerary(d.Itinerary)),
		d.Duration,
		d.MeetingPoint,
		d.Transportation,
		d.Cost,
		d.StartDate,
		d.EndDate,
		d.Destination,
		friends,
		expenses,
		tour.Version,
		tour.CreatedAt,
		tour.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create tour: %w", err)
	}

	return nil
}

// GetTour retrieves a tour by its ID.
func (r *Repository) GetTour(ctx context.Context, id string) (*model.Tour, error) {
	if err := store.ValidateID(id); err != nil {
		return nil, err
	}

	query := `SELECT ` + tourColumns + ` FROM tours WHERE id = $1`

	tour, err := scanTour(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tour: %w", err)
	}

	return tour, nil
}

// ListToursByEmail retrieves tours organized by email or listing it among friends.
func (r *Repository) ListToursByEmail(ctx context.Context, email string) ([]*model.Tour, error) {
	query := `
		SELECT ` + tourColumns + `
		FROM tours
		WHERE organizer_by = $1
		   OR friends @> jsonb_build_array(jsonb_build_object('email', $1::text))
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list tours: %w", err)
	}
	defer rows.Close()

	var tours []*model.Tour
	for rows.Next() {
		tour, err := scanTour(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tour: %w", err)
		}
		tours = append(tours, tour)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tours: %w", err)
	}

	return tours, nil
}

// UpdateTourDetails replaces the detail columns of a tour. The ledger and version are untouched.
func (r *Repository) UpdateTourDetails(ctx context.Context, id string, d model.TourDetails) error {
	if err := store.ValidateID(id); err != nil {
		return err
	}

	query := `
		UPDATE tours
		SET organizer_id = $2, organizer_by = $3, tour_name = $4, description = $5, itinerary = $6,
		    duration = $7, meeting_point = $8, transportation = $9, cost = $10, start_date = $11,
		    end_date = $12, destination = $13, updated_at = $14
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		id,
		d.OrganizerID,
		d.OrganizerBy,
		d.TourName,
		d.Description,
		pq.Array(itinerary(d.Itinerary)),
		d.Duration,
		d.MeetingPoint,
		d.Transportation,
		d.Cost,
		d.StartDate,
		d.EndDate,
		d.Destination,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to update tour: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	return nil
}

// DeleteTour removes a tour.
func (r *Repository) DeleteTour(ctx context.Context, id string) error {
	if err := store.ValidateID(id); err != nil {
		return err
	}

	result, err := r.pool.Exec(ctx, `DELETE FROM tours WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tour: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	return nil
}

// SaveFriends replaces the friend list when the stored version matches expectedVersion.
func (r *Repository) SaveFriends(ctx context.Context, id string, expectedVersion int64, friends []model.Friend) error {
	if err := store.ValidateID(id); err != nil {
		return err
	}

	data, err := json.Marshal(nonNilFriends(friends))
	if err != nil {
		return fmt.Errorf("failed to encode friends: %w", err)
	}

	query := `
		UPDATE tours
		SET friends = $3::jsonb, version = version + 1, updated_at = $4
		WHERE id = $1 AND version = $2
	`

	result, err := r.pool.Exec(ctx, query, id, expectedVersion, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save friends: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.missOrConflict(ctx, id)
	}

	return nil
}

// AppendExpense writes the settled friends and appends expense in a single statement.
func (r *Repository) AppendExpense(ctx context.Context, id string, expectedVersion int64, friends []model.Friend, expense model.Expense) error {
	if err := store.ValidateID(id); err != nil {
		return err
	}

	friendsJSON, err := json.Marshal(nonNilFriends(friends))
	if err != nil {
		return fmt.Errorf("failed to encode friends: %w", err)
	}
	expenseJSON, err := json.Marshal(expense)
	if err != nil {
		return fmt.Errorf("failed to encode expense: %w", err)
	}

	query := `
		UPDATE tours
		SET friends = $3::jsonb,
		    expenses = expenses || jsonb_build_array($4::jsonb),
		    version = version + 1,
		    updated_at = $5
		WHERE id = $1 AND version = $2
	`

	result, err := r.pool.Exec(ctx, query, id, expectedVersion, string(friendsJSON), string(expenseJSON), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to append expense: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.missOrConflict(ctx, id)
	}

	return nil
}

// missOrConflict explains a conditional update that matched no rows.
func (r *Repository) missOrConflict(ctx context.Context, id string) error {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tours WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check tour existence: %w", err)
	}
	if !exists {
		return store.ErrNotFound
	}
	return store.ErrVersionConflict
}

func scanTour(row pgx.Row) (*model.Tour, error) {
	var (
		tour     model.Tour
		friends  []byte
		expenses []byte
	)

	d := &tour.TourDetails
	err := row.Scan(
		&tour.ID,
		&d.OrganizerID,
		&d.OrganizerBy,
		&d.TourName,
		&d.Description,
		pq.Array(&d.Itinerary),
		&d.Duration,
		&d.MeetingPoint,
		&d.Transportation,
		&d.Cost,
		&d.StartDate,
		&d.EndDate,
		&d.Destination,
		&friends,
		&expenses,
		&tour.Version,
		&tour.CreatedAt,
		&tour.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(friends, &tour.Friends); err != nil {
		return nil, fmt.Errorf("decode friends: %w", err)
	}
	if err := json.Unmarshal(expenses, &tour.Expenses); err != nil {
		return nil, fmt.Errorf("decode expenses: %w", err)
	}

	return &tour, nil
}

func encodeLedger(friends []model.Friend, expenses []model.Expense) (string, string, error) {
	f, err := json.Marshal(nonNilFriends(friends))
	if err != nil {
		return "", "", fmt.Errorf("failed to encode friends: %w", err)
	}
	if expenses == nil {
		expenses = []model.Expense{}
	}
	e, err := json.Marshal(expenses)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode expenses: %w", err)
	}
	return string(f), string(e), nil
}

func nonNilFriends(friends []model.Friend) []model.Friend {
	if friends == nil {
		return []model.Friend{}
	}
	return friends
}

func itinerary(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
