package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"expense-backfill/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestTitleMatcher_Match(t *testing.T) {
	activities := []domain.Activity{
		{ID: "act-1", Title: "City Museum", Category: strPtr("activity")},
		{ID: "act-2", Title: "Airport Taxi"},
		{ID: "act-3", Title: "City Museum", Category: strPtr("food")},
		{ID: "act-4", Title: "Boat Tour (Split)", Category: strPtr("activity")},
		{ID: "act-5", Title: "Boat Tour", Category: strPtr("transport")},
	}

	tests := []struct {
		name   string
		title  string
		wantID string // empty means no match
	}{
		{name: "planning suffix", title: "City Museum (Planning)", wantID: "act-1"},
		{name: "split suffix", title: "Airport Taxi (Split)", wantID: "act-2"},
		{name: "dividido suffix", title: "Airport Taxi (Dividido)", wantID: "act-2"},
		{name: "duplicate titles pick first in input order", title: "City Museum (Split)", wantID: "act-1"},
		{name: "no suffix never matches even with equal title", title: "City Museum", wantID: ""},
		{name: "suffix but no reference", title: "Random Hotel Charge (Planning)", wantID: ""},
		{name: "match is case sensitive", title: "city museum (Planning)", wantID: ""},
		{name: "match preserves whitespace", title: "City  Museum (Planning)", wantID: ""},
		{name: "lowercase marker is not recognised", title: "City Museum (planning)", wantID: ""},
		{name: "marker without leading space is not stripped", title: "City Museum(Planning)", wantID: ""},
		{name: "planning marker takes priority over split", title: "Boat Tour (Split) (Planning)", wantID: "act-4"},
		{name: "only one marker is stripped", title: "Airport Taxi (Planning) (Split)", wantID: ""},
		{name: "empty title", title: "", wantID: ""},
	}

	m := NewTitleMatcher()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Match(domain.Expense{ID: "exp-1", Title: tt.title}, activities)
			if tt.wantID == "" {
				assert.Nil(t, got)
				return
			}
			if assert.NotNil(t, got) {
				assert.Equal(t, tt.wantID, got.ID)
			}
		})
	}
}

func TestTitleMatcher_BaseTitle(t *testing.T) {
	m := NewTitleMatcher()

	base, ok := m.BaseTitle("Lunch (Split)")
	assert.True(t, ok)
	assert.Equal(t, "Lunch", base)

	base, ok = m.BaseTitle("Lunch (Split) (Dividido)")
	assert.True(t, ok)
	assert.Equal(t, "Lunch (Dividido)", base)

	_, ok = m.BaseTitle("Lunch")
	assert.False(t, ok)
}

func TestTitleMatcher_Suggest(t *testing.T) {
	idx := NewActivityIndex([]domain.Activity{
		{ID: "act-1", Title: "City Museum"},
		{ID: "act-2", Title: "Airport Taxi"},
	})
	m := NewTitleMatcher()

	assert.Equal(t, "City Museum", m.Suggest(domain.Expense{Title: "City Musem (Planning)"}, idx))
	assert.Equal(t, "Airport Taxi", m.Suggest(domain.Expense{Title: "Airport Taxi"}, idx))
	assert.Empty(t, m.Suggest(domain.Expense{Title: "Random Hotel Charge"}, idx))
	assert.Empty(t, m.Suggest(domain.Expense{Title: "Anything (Split)"}, NewActivityIndex(nil)))
}
