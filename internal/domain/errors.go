package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTripIDRequired is returned before any store is contacted.
	ErrTripIDRequired = errors.New("trip id is required")

	// ErrExpenseNotFound is returned by stores when an update touches no row.
	ErrExpenseNotFound = errors.New("expense not found")

	// ErrAllUpdatesFailed marks a run where every resolved update failed.
	ErrAllUpdatesFailed = errors.New("all category updates failed")
)

// LoadError is returned when one of the initial reads fails. Nothing has been
// mutated when it is returned.
type LoadError struct {
	Collection string
	TripID     string
	Err        error
}

func (e *LoadError) Error() string {
	if e.TripID == "" {
		return fmt.Sprintf("load %s: %v", e.Collection, e.Err)
	}
	return fmt.Sprintf("load %s for trip %s: %v", e.Collection, e.TripID, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
