package usecase_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"expense-backfill/internal/domain"
	"expense-backfill/internal/usecase"
	mock_usecase "expense-backfill/internal/usecase/mocks"
)

func TestBatchUpdater_Apply(t *testing.T) {
	errConflict := errors.New("write conflict")

	tests := []struct {
		name         string
		updates      []domain.CategoryUpdate
		errs         map[string]error
		wantApplied  int
		wantFailures []string
	}{
		{
			name:         "empty batch",
			updates:      nil,
			wantApplied:  0,
			wantFailures: []string{},
		},
		{
			name: "all succeed",
			updates: []domain.CategoryUpdate{
				{ExpenseID: "exp-1", CategoryID: "cat-1"},
				{ExpenseID: "exp-2", CategoryID: "cat-2"},
			},
			wantApplied:  2,
			wantFailures: []string{},
		},
		{
			name: "failures are reported in input order",
			updates: []domain.CategoryUpdate{
				{ExpenseID: "exp-1", CategoryID: "cat-1"},
				{ExpenseID: "exp-2", CategoryID: "cat-2"},
				{ExpenseID: "exp-3", CategoryID: "cat-3"},
				{ExpenseID: "exp-4", CategoryID: "cat-4"},
			},
			errs:         map[string]error{"exp-3": errConflict, "exp-1": domain.ErrExpenseNotFound},
			wantApplied:  2,
			wantFailures: []string{"exp-1", "exp-3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mExpenses := mock_usecase.NewMockExpenseRepository(ctrl)
			for _, upd := range tt.updates {
				mExpenses.EXPECT().
					UpdateCategory(gomock.Any(), upd.ExpenseID, upd.CategoryID).
					Return(tt.errs[upd.ExpenseID])
			}

			got := usecase.NewBatchUpdater(mExpenses, 2, nil).Apply(context.Background(), tt.updates)

			assert.Equal(t, tt.wantApplied, got.Applied)
			ids := make([]string, 0, len(got.Failures))
			for _, f := range got.Failures {
				ids = append(ids, f.ExpenseID)
				assert.ErrorIs(t, f.Err, tt.errs[f.ExpenseID])
				assert.Equal(t, tt.errs[f.ExpenseID].Error(), f.Error)
			}
			assert.Equal(t, tt.wantFailures, ids)
		})
	}
}

func TestBatchUpdater_Apply_RespectsConcurrencyLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var inFlight, peak int32
	mExpenses := mock_usecase.NewMockExpenseRepository(ctrl)
	mExpenses.EXPECT().
		UpdateCategory(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, expenseID, categoryID string) error {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return nil
		}).
		Times(10)

	updates := make([]domain.CategoryUpdate, 10)
	for i := range updates {
		updates[i] = domain.CategoryUpdate{ExpenseID: "exp", CategoryID: "cat"}
	}

	got := usecase.NewBatchUpdater(mExpenses, 3, nil).Apply(context.Background(), updates)

	assert.Equal(t, 10, got.Applied)
	assert.Empty(t, got.Failures)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}
