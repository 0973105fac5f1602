package gateway

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"expense-backfill/internal/domain"
)

// SQLiteStore implements the activity, expense and category repositories on
// a local SQLite database. It is used offline and in tests; the schema is
// migrated on open.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and applies migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ListActivities returns every activity of a trip in insertion order.
func (s *SQLiteStore) ListActivities(ctx context.Context, tripID string) ([]domain.Activity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trip_id, title, category
		FROM activities
		WHERE trip_id = ?
		ORDER BY created_at, rowid
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	activities := make([]domain.Activity, 0)
	for rows.Next() {
		var (
			a        domain.Activity
			category sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.TripID, &a.Title, &category); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		if category.Valid {
			a.Category = &category.String
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// ListUncategorized returns the trip's expenses without a category.
func (s *SQLiteStore) ListUncategorized(ctx context.Context, tripID string) ([]domain.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trip_id, title
		FROM expenses
		WHERE trip_id = ? AND category_id IS NULL
		ORDER BY created_at, rowid
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("query uncategorized expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]domain.Expense, 0)
	for rows.Next() {
		var e domain.Expense
		if err := rows.Scan(&e.ID, &e.TripID, &e.Title); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// UpdateCategory sets the category of one expense.
func (s *SQLiteStore) UpdateCategory(ctx context.Context, expenseID, categoryID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE expenses
		SET category_id = ?, updated_at = datetime('now')
		WHERE id = ?
	`, categoryID, expenseID)
	if err != nil {
		return fmt.Errorf("update expense %s: %w", expenseID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update expense %s: %w", expenseID, err)
	}
	if n == 0 {
		return fmt.Errorf("update expense %s: %w", expenseID, domain.ErrExpenseNotFound)
	}
	return nil
}

// ListCategories returns the expense category catalog.
func (s *SQLiteStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM expense_categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetExpense returns a single expense by id.
func (s *SQLiteStore) GetExpense(ctx context.Context, id string) (domain.Expense, error) {
	var (
		e          domain.Expense
		categoryID sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, trip_id, title, category_id FROM expenses WHERE id = ?
	`, id).Scan(&e.ID, &e.TripID, &e.Title, &categoryID)
	if err == sql.ErrNoRows {
		return e, domain.ErrExpenseNotFound
	}
	if err != nil {
		return e, fmt.Errorf("query expense: %w", err)
	}
	if categoryID.Valid {
		e.CategoryID = &categoryID.String
	}
	return e, nil
}

// Seed upserts fixtures in a single transaction. Categories are written
// first so expense category references resolve.
func (s *SQLiteStore) Seed(ctx context.Context, fx Fixtures) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}

	if err := seedTx(ctx, tx, fx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func seedTx(ctx context.Context, tx *sql.Tx, fx Fixtures) error {
	for _, c := range fx.Categories {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO expense_categories (id, name) VALUES (?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name
		`, c.ID, c.Name); err != nil {
			return fmt.Errorf("insert category %s: %w", c.Name, err)
		}
	}
	for _, a := range fx.Activities {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO activities (id, trip_id, title, category) VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET trip_id = excluded.trip_id, title = excluded.title, category = excluded.category
		`, a.ID, a.TripID, a.Title, nullable(a.Category)); err != nil {
			return fmt.Errorf("insert activity %s: %w", a.ID, err)
		}
	}
	for _, e := range fx.Expenses {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO expenses (id, trip_id, title, category_id) VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET trip_id = excluded.trip_id, title = excluded.title, category_id = excluded.category_id
		`, e.ID, e.TripID, e.Title, nullable(e.CategoryID)); err != nil {
			return fmt.Errorf("insert expense %s: %w", e.ID, err)
		}
	}
	return nil
}

func nullable(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
