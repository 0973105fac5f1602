package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"expense-backfill/internal/domain"
	"expense-backfill/internal/logging"
)

// BackfillUseCase repairs uncategorized expenses by inferring their category
// from the trip activity they were derived from.
type BackfillUseCase struct {
	activities ActivityRepository
	expenses   ExpenseRepository
	categories CategoryRepository

	matcher  *TitleMatcher
	resolver *CategoryResolver
	updater  *BatchUpdater
	log      logrus.FieldLogger
}

// Option configures a BackfillUseCase.
type Option func(*options)

type options struct {
	table       CategoryTable
	concurrency int
	log         logrus.FieldLogger
}

// WithCategoryTable replaces the built-in domain → display name table.
func WithCategoryTable(table CategoryTable) Option {
	return func(o *options) { o.table = table }
}

// WithUpdateConcurrency bounds the number of in-flight category updates.
func WithUpdateConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

// WithLogger sets the logger used for run diagnostics.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) { o.log = log }
}

// NewBackfillUseCase creates a new instance of the usecase.
func NewBackfillUseCase(activities ActivityRepository, expenses ExpenseRepository, categories CategoryRepository, opts ...Option) *BackfillUseCase {
	o := options{log: logging.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	return &BackfillUseCase{
		activities: activities,
		expenses:   expenses,
		categories: categories,
		matcher:    NewTitleMatcher(),
		resolver:   NewCategoryResolver(o.table),
		updater:    NewBatchUpdater(expenses, o.concurrency, o.log),
		log:        o.log,
	}
}

// Backfill runs one reconciliation pass for a trip and applies every
// resolved category. Individual update failures are reported in the summary;
// ErrAllUpdatesFailed is returned alongside the summary when none applied.
func (uc *BackfillUseCase) Backfill(ctx context.Context, tripID string) (*domain.BackfillSummary, error) {
	return uc.run(ctx, tripID, false)
}

// Preview runs the same pass without writing anything.
func (uc *BackfillUseCase) Preview(ctx context.Context, tripID string) (*domain.BackfillSummary, error) {
	return uc.run(ctx, tripID, true)
}

func (uc *BackfillUseCase) run(ctx context.Context, tripID string, dryRun bool) (*domain.BackfillSummary, error) {
	tripID = strings.TrimSpace(tripID)
	if tripID == "" {
		return nil, domain.ErrTripIDRequired
	}

	start := time.Now()
	log := uc.log.WithFields(logrus.Fields{
		logging.FieldTripID: tripID,
		logging.FieldDryRun: dryRun,
	})

	// Step 1: Data Ingestion
	var (
		expenses   []domain.Expense
		activities []domain.Activity
		categories []domain.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		expenses, err = uc.expenses.ListUncategorized(gctx, tripID)
		if err != nil {
			return &domain.LoadError{Collection: "expenses", TripID: tripID, Err: err}
		}
		return nil
	})
	g.Go(func() (err error) {
		activities, err = uc.activities.ListActivities(gctx, tripID)
		if err != nil {
			return &domain.LoadError{Collection: "activities", TripID: tripID, Err: err}
		}
		return nil
	})
	g.Go(func() (err error) {
		categories, err = uc.categories.ListCategories(gctx)
		if err != nil {
			return &domain.LoadError{Collection: "categories", Err: err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		log.WithError(err).Error("backfill load failed")
		return nil, err
	}

	summary := &domain.BackfillSummary{
		TripID:   tripID,
		Skipped:  make(map[domain.MatchReason]int),
		Failures: make([]domain.UpdateFailure, 0),
		Results:  make([]domain.MatchResult, 0),
		DryRun:   dryRun,
	}

	expenses = dedupeExpenses(expenses)
	summary.Total = len(expenses)
	if len(expenses) == 0 {
		log.Info("no uncategorized expenses")
		return summary, nil
	}

	// Step 2: Matching
	updates := uc.plan(expenses, activities, categories, summary, log)

	log.WithFields(logrus.Fields{
		logging.FieldCount:      len(updates),
		logging.FieldActivities: len(activities),
		logging.FieldCategories: len(categories),
	}).Debug("backfill plan ready")

	if dryRun || len(updates) == 0 {
		log.WithFields(logrus.Fields{
			logging.FieldTotal:   summary.Total,
			logging.FieldSkipped: summary.SkippedCount(),
		}).Info("backfill finished without updates")
		return summary, nil
	}

	// Step 3: Apply
	batch := uc.updater.Apply(ctx, updates)
	summary.Fixed = batch.Applied
	summary.Failures = batch.Failures

	log.WithFields(logrus.Fields{
		logging.FieldFixed:    summary.Fixed,
		logging.FieldTotal:    summary.Total,
		logging.FieldSkipped:  summary.SkippedCount(),
		logging.FieldFailed:   len(summary.Failures),
		logging.FieldDuration: time.Since(start).Milliseconds(),
	}).Info("backfill finished")

	if batch.Applied == 0 {
		return summary, domain.ErrAllUpdatesFailed
	}
	return summary, nil
}

// plan matches every expense in input order, records a MatchResult for each
// and returns the updates for the matched ones.
func (uc *BackfillUseCase) plan(expenses []domain.Expense, activities []domain.Activity, categories []domain.Category, summary *domain.BackfillSummary, log logrus.FieldLogger) []domain.CategoryUpdate {
	idx := NewActivityIndex(activities)
	catalog := NewCatalog(categories)

	updates := make([]domain.CategoryUpdate, 0, len(expenses))
	for _, exp := range expenses {
		result := domain.MatchResult{ExpenseID: exp.ID, Title: exp.Title}

		activity := uc.matcher.MatchIndexed(exp, idx)
		if activity == nil {
			result.Reason = domain.ReasonNoReferenceMatch
			result.Suggestion = uc.matcher.Suggest(exp, idx)
		} else {
			result.ActivityID = activity.ID
			result.CategoryID, result.Reason = uc.resolver.Resolve(*activity, catalog)
		}
		summary.Results = append(summary.Results, result)

		if result.Matched() {
			updates = append(updates, domain.CategoryUpdate{ExpenseID: exp.ID, CategoryID: result.CategoryID})
			continue
		}

		summary.Skipped[result.Reason]++
		entry := log.WithFields(logrus.Fields{
			logging.FieldExpenseID: exp.ID,
			logging.FieldTitle:     exp.Title,
			logging.FieldReason:    result.Reason,
		})
		if result.Suggestion != "" {
			entry = entry.WithField(logging.FieldSuggestion, result.Suggestion)
		}
		entry.Debug("expense skipped")
	}
	return updates
}

// dedupeExpenses keeps the first occurrence of each expense id so no record is
// updated twice in one run.
func dedupeExpenses(expenses []domain.Expense) []domain.Expense {
	seen := make(map[string]bool, len(expenses))
	out := make([]domain.Expense, 0, len(expenses))
	for _, exp := range expenses {
		if seen[exp.ID] {
			continue
		}
		seen[exp.ID] = true
		out = append(out, exp)
	}
	return out
}
