//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

func TestIntegrationMigration_Schema(t *testing.T) {
	ctx, repo := newTestEnv(t)

	want := map[string][]string{
		"users": {"id", "user_name", "email", "password_hash", "profile", "created_at"},
		"tours": {
			"id", "organizer_id", "organizer_by", "tour_name", "itinerary", "cost",
			"start_date", "end_date", "friends", "expenses", "version", "updated_at",
		},
	}

	for table, columns := range want {
		got, err := columnsOf(ctx, repo.pool, table)
		if err != nil {
			t.Fatalf("columns of %s: %v", table, err)
		}
		if len(got) == 0 {
			t.Errorf("table %s missing after Migrate", table)
			continue
		}
		for _, col := range columns {
			if !got[col] {
				t.Errorf("%s.%s missing", table, col)
			}
		}
	}
}

func TestIntegrationMigration_RerunIsNoop(t *testing.T) {
	ctx, repo := newTestEnv(t)

	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	if _, err := repo.pool.Exec(ctx, `INSERT INTO tours (id, organizer_by, tour_name, cost) VALUES ('t1', 'a@x.io', 'Alps', -1)`); err == nil {
		t.Error("negative cost accepted, want CHECK violation")
	}
}

func columnsOf(ctx context.Context, pool *pgxpool.Pool, table string) (map[string]bool, error) {
	rows, err := pool.Query(ctx,
		`SELECT column_name FROM information_schema.columns WHERE table_schema = 'public' AND table_name = $1`,
		table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}
