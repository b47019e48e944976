// Package testutil holds helpers shared by integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/travelwallet/travelwallet/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema applies every down migration and then every up migration.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}
	dir := filepath.Join(root, "internal", "repository", "migrations")

	down, err := migrationPaths(dir, "down")
	if err != nil {
		return err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(down)))

	up, err := migrationPaths(dir, "up")
	if err != nil {
		return err
	}

	for _, path := range append(down, up...) {
		sql, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", filepath.Base(path), err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply migration %s: %w", filepath.Base(path), err)
		}
	}

	return nil
}

func migrationPaths(dir, direction string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*."+direction+".sql"))
	if err != nil {
		return nil, fmt.Errorf("list %s migrations: %w", direction, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestTour creates a tour organized by organizer with zero-balance friends.
func NewTestTour(t testing.TB, organizer string, friendEmails ...string) *model.Tour {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	tour := &model.Tour{
		ID: ulid.Make().String(),
		TourDetails: model.TourDetails{
			OrganizerBy: organizer,
			TourName:    "Test tour",
			Itinerary:   []string{"arrive", "depart"},
			Cost:        1200,
			StartDate:   "2024-06-01",
			EndDate:     "2024-06-07",
			Destination: "Lisbon",
		},
		Friends:   []model.Friend{},
		Expenses:  []model.Expense{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, email := range friendEmails {
		name, _, _ := strings.Cut(email, "@")
		tour.Friends = append(tour.Friends, model.Friend{Email: email, Name: name})
	}
	return tour
}

// NewTestUser creates a user with a unique email.
func NewTestUser(t testing.TB, name string) *model.User {
	t.Helper()
	return &model.User{
		ID:           ulid.Make().String(),
		UserName:     name,
		Email:        UniqueEmail(strings.ToLower(name)),
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

// UniqueEmail generates a unique email address for tests.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.test", prefix, time.Now().UnixNano())
}
