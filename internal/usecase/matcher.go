package usecase

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"expense-backfill/internal/domain"
)

// suggestionMaxDistance bounds how different a title may be and still be
// offered as a suggestion for an unmatched expense.
const suggestionMaxDistance = 3

// suffixRule recognises one annotation appended to an expense title when the
// expense was derived from an activity.
type suffixRule struct {
	marker string
	strip  func(title string) string
}

func stripSuffix(marker string) suffixRule {
	return suffixRule{
		marker: marker,
		strip: func(title string) string {
			return strings.Replace(title, " "+marker, "", 1)
		},
	}
}

// defaultSuffixRules lists the recognised annotations in priority order.
func defaultSuffixRules() []suffixRule {
	return []suffixRule{
		stripSuffix("(Planning)"),
		stripSuffix("(Split)"),
		stripSuffix("(Dividido)"),
	}
}

// ActivityIndex maps an activity title to the first activity carrying it.
type ActivityIndex struct {
	byTitle map[string]domain.Activity
	titles  []string
}

// NewActivityIndex indexes activities by exact title. When several activities
// share a title the first one in input order wins.
func NewActivityIndex(activities []domain.Activity) *ActivityIndex {
	idx := &ActivityIndex{byTitle: make(map[string]domain.Activity, len(activities))}
	for _, a := range activities {
		if _, seen := idx.byTitle[a.Title]; seen {
			continue
		}
		idx.byTitle[a.Title] = a
		idx.titles = append(idx.titles, a.Title)
	}
	return idx
}

// Lookup returns the activity whose title equals title exactly.
func (idx *ActivityIndex) Lookup(title string) (domain.Activity, bool) {
	a, ok := idx.byTitle[title]
	return a, ok
}

// TitleMatcher correlates an expense with the activity it was derived from.
type TitleMatcher struct {
	rules []suffixRule
}

// NewTitleMatcher creates a matcher using the default suffix rules.
func NewTitleMatcher() *TitleMatcher {
	return &TitleMatcher{rules: defaultSuffixRules()}
}

// BaseTitle strips the first recognised annotation from title. Only the
// highest-priority marker present is considered; ok is false when the title
// carries none.
func (m *TitleMatcher) BaseTitle(title string) (base string, ok bool) {
	for _, rule := range m.rules {
		if strings.Contains(title, rule.marker) {
			return rule.strip(title), true
		}
	}
	return "", false
}

// Match returns the activity the expense was derived from, or nil.
func (m *TitleMatcher) Match(expense domain.Expense, activities []domain.Activity) *domain.Activity {
	return m.MatchIndexed(expense, NewActivityIndex(activities))
}

// MatchIndexed is Match against a prebuilt index.
func (m *TitleMatcher) MatchIndexed(expense domain.Expense, idx *ActivityIndex) *domain.Activity {
	base, ok := m.BaseTitle(expense.Title)
	if !ok {
		return nil
	}
	a, found := idx.Lookup(base)
	if !found {
		return nil
	}
	return &a
}

// Suggest returns the closest activity title to the expense title, or "" when
// nothing is close enough.
func (m *TitleMatcher) Suggest(expense domain.Expense, idx *ActivityIndex) string {
	target := expense.Title
	if base, ok := m.BaseTitle(expense.Title); ok {
		target = base
	}

	best, bestDist := "", suggestionMaxDistance+1
	for _, title := range idx.titles {
		d := levenshtein.ComputeDistance(target, title)
		if d < bestDist {
			best, bestDist = title, d
		}
	}
	return best
}
