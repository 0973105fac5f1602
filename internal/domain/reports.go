package domain

// MatchReason explains the outcome of matching a single expense.
type MatchReason string

const (
	ReasonMatched                MatchReason = "matched"
	ReasonNoReferenceMatch       MatchReason = "no-reference-match"
	ReasonReferenceHasNoCategory MatchReason = "reference-has-no-category"
	ReasonCategoryNotInCatalog   MatchReason = "category-not-in-catalog"
)

// MatchResult is produced once per uncategorized expense during a run.
type MatchResult struct {
	ExpenseID  string      `json:"expense_id"`
	Title      string      `json:"title"`
	ActivityID string      `json:"activity_id,omitempty"`
	CategoryID string      `json:"category_id,omitempty"`
	Reason     MatchReason `json:"reason"`
	// Suggestion is the closest activity title for unmatched expenses. It is
	// informational only and never applied.
	Suggestion string `json:"suggestion,omitempty"`
}

// Matched reports whether the result resolved to a catalog category.
func (r MatchResult) Matched() bool {
	return r.Reason == ReasonMatched && r.CategoryID != ""
}

// UpdateFailure records a single category update that did not apply.
type UpdateFailure struct {
	ExpenseID string `json:"expense_id"`
	Err       error  `json:"-"`
	Error     string `json:"error"`
}

// BatchResult aggregates the outcome of a batch of category updates.
type BatchResult struct {
	Applied  int             `json:"applied"`
	Failures []UpdateFailure `json:"failures"`
}

// BackfillSummary is the outcome of one backfill run for a trip.
type BackfillSummary struct {
	TripID   string              `json:"trip_id"`
	Fixed    int                 `json:"fixed"`
	Total    int                 `json:"total"`
	Skipped  map[MatchReason]int `json:"skipped"`
	Failures []UpdateFailure     `json:"failures"`
	Results  []MatchResult       `json:"results,omitempty"`
	DryRun   bool                `json:"dry_run"`
}

// SkippedCount returns the number of expenses excluded from the update batch.
func (s BackfillSummary) SkippedCount() int {
	count := 0
	for _, n := range s.Skipped {
		count += n
	}
	return count
}
