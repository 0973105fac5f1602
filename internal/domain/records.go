package domain

// Activity is a planned or executed trip activity. It is the source of truth
// for categorisation and is never written by the backfill.
type Activity struct {
	ID       string  `json:"id"`
	TripID   string  `json:"trip_id"`
	Title    string  `json:"title"`
	Category *string `json:"category"` // e.g. "flight", "food"; nil when unset
}

// HasCategory reports whether the activity carries a usable domain category.
func (a Activity) HasCategory() bool {
	return a.Category != nil && *a.Category != ""
}

// Expense is a trip expense. An expense with a nil CategoryID is the defect
// the backfill repairs.
type Expense struct {
	ID         string  `json:"id"`
	TripID     string  `json:"trip_id"`
	Title      string  `json:"title"` // e.g. "City Museum (Planning)"
	CategoryID *string `json:"category_id"`
}

// Category is an entry of the externally managed expense category catalog.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CategoryUpdate sets the category of exactly one expense.
type CategoryUpdate struct {
	ExpenseID  string `json:"expense_id"`
	CategoryID string `json:"category_id"`
}
