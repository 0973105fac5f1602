package usecase

import (
	"context"

	"expense-backfill/internal/domain"
)

// ActivityRepository loads the categorized reference records of a trip.
// It must return every activity in scope, with or without a category.
//
//go:generate mockgen -destination=mocks/mock_repository.go -source=interface.go
type ActivityRepository interface {
	ListActivities(ctx context.Context, tripID string) ([]domain.Activity, error)
}

// ExpenseRepository loads uncategorized expenses and writes their category.
// UpdateCategory must be safe to call concurrently for disjoint ids.
type ExpenseRepository interface {
	ListUncategorized(ctx context.Context, tripID string) ([]domain.Expense, error)
	UpdateCategory(ctx context.Context, expenseID, categoryID string) error
}

// CategoryRepository loads the expense category catalog.
type CategoryRepository interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
}
