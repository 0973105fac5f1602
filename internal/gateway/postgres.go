package gateway

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"expense-backfill/internal/domain"
)

// PostgresStore implements the activity, expense and category repositories
// on the hosted Postgres database. The schema is owned by the host
// application and is not migrated here.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects a pool to url and verifies the connection.
func OpenPostgres(ctx context.Context, url string, maxConns int32) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases every pooled connection.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// ListActivities returns every activity of a trip, categorized or not.
func (s *PostgresStore) ListActivities(ctx context.Context, tripID string) ([]domain.Activity, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, trip_id::text, title, category
		FROM activities
		WHERE trip_id = $1
		ORDER BY created_at, id
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}

	activities, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Activity, error) {
		var a domain.Activity
		err := row.Scan(&a.ID, &a.TripID, &a.Title, &a.Category)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan activities: %w", err)
	}
	return activities, nil
}

// ListUncategorized returns the trip's expenses with a null category_id.
func (s *PostgresStore) ListUncategorized(ctx context.Context, tripID string) ([]domain.Expense, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, trip_id::text, title
		FROM expenses
		WHERE trip_id = $1 AND category_id IS NULL
		ORDER BY created_at, id
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("query uncategorized expenses: %w", err)
	}

	expenses, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Expense, error) {
		var e domain.Expense
		err := row.Scan(&e.ID, &e.TripID, &e.Title)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan expenses: %w", err)
	}
	return expenses, nil
}

// UpdateCategory sets the category of one expense. Pool connections make it
// safe to call concurrently.
func (s *PostgresStore) UpdateCategory(ctx context.Context, expenseID, categoryID string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE expenses
		SET category_id = $1, updated_at = now()
		WHERE id = $2
	`, categoryID, expenseID)
	if err != nil {
		return fmt.Errorf("update expense %s: %w", expenseID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update expense %s: %w", expenseID, domain.ErrExpenseNotFound)
	}
	return nil
}

// ListCategories returns the expense category catalog.
func (s *PostgresStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT id::text, name FROM expense_categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}

	categories, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Category, error) {
		var c domain.Category
		err := row.Scan(&c.ID, &c.Name)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan categories: %w", err)
	}
	return categories, nil
}
