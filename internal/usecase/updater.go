package usecase

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"expense-backfill/internal/domain"
	"expense-backfill/internal/logging"
)

// BatchUpdater applies category updates concurrently. Updates are
// independent: a failure never cancels or rolls back its siblings.
type BatchUpdater struct {
	repo        ExpenseRepository
	concurrency int
	log         logrus.FieldLogger
}

// NewBatchUpdater creates an updater. A concurrency of zero or less dispatches
// every update at once.
func NewBatchUpdater(repo ExpenseRepository, concurrency int, log logrus.FieldLogger) *BatchUpdater {
	if log == nil {
		log = logging.Discard()
	}
	return &BatchUpdater{repo: repo, concurrency: concurrency, log: log}
}

// Apply dispatches every update and waits for all of them to settle.
func (u *BatchUpdater) Apply(ctx context.Context, updates []domain.CategoryUpdate) domain.BatchResult {
	errs := make([]error, len(updates))

	var g errgroup.Group
	if u.concurrency > 0 {
		g.SetLimit(u.concurrency)
	}
	for i, upd := range updates {
		i, upd := i, upd
		g.Go(func() error {
			errs[i] = u.repo.UpdateCategory(ctx, upd.ExpenseID, upd.CategoryID)
			return nil
		})
	}
	_ = g.Wait()

	result := domain.BatchResult{Failures: make([]domain.UpdateFailure, 0)}
	for i, err := range errs {
		if err == nil {
			result.Applied++
			continue
		}
		u.log.WithFields(logrus.Fields{
			logging.FieldExpenseID: updates[i].ExpenseID,
			logging.FieldCategory:  updates[i].CategoryID,
		}).WithError(err).Warn("category update failed")
		result.Failures = append(result.Failures, domain.UpdateFailure{
			ExpenseID: updates[i].ExpenseID,
			Err:       err,
			Error:     err.Error(),
		})
	}
	return result
}
