package usecase

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"expense-backfill/internal/domain"
)

// CategoryTable translates an activity's domain category into the display
// name used by the expense category catalog. It is a closed enumeration:
// unknown domain categories do not resolve.
type CategoryTable map[string]string

// DefaultCategoryTable returns the built-in domain → display name table.
func DefaultCategoryTable() CategoryTable {
	return CategoryTable{
		"flight":        "Flights",
		"accommodation": "Lodging",
		"transport":     "Transport",
		"food":          "Food",
		"activity":      "Activities",
		"shopping":      "Shopping",
		"other":         "Other",
	}
}

// LoadCategoryTable reads a table from a YAML mapping of domain category to
// display name, e.g. `flight: Flights`.
func LoadCategoryTable(path string) (CategoryTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read category table %s: %w", path, err)
	}

	var table CategoryTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse category table %s: %w", path, err)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("category table %s is empty", path)
	}
	for domainCategory, name := range table {
		if domainCategory == "" || name == "" {
			return nil, fmt.Errorf("category table %s: empty entry %q: %q", path, domainCategory, name)
		}
	}
	return table, nil
}

// Catalog maps a category display name to its catalog identifier.
type Catalog map[string]string

// NewCatalog builds the name → id mapping. The first entry wins when names
// repeat.
func NewCatalog(categories []domain.Category) Catalog {
	catalog := make(Catalog, len(categories))
	for _, c := range categories {
		if _, seen := catalog[c.Name]; !seen {
			catalog[c.Name] = c.ID
		}
	}
	return catalog
}

// CategoryResolver maps an activity to a catalog category identifier.
type CategoryResolver struct {
	table CategoryTable
}

// NewCategoryResolver creates a resolver over table. A nil table falls back
// to DefaultCategoryTable.
func NewCategoryResolver(table CategoryTable) *CategoryResolver {
	if table == nil {
		table = DefaultCategoryTable()
	}
	return &CategoryResolver{table: table}
}

// Resolve returns the catalog id for the activity's category, or "" with the
// reason resolution failed.
func (r *CategoryResolver) Resolve(activity domain.Activity, catalog Catalog) (string, domain.MatchReason) {
	if !activity.HasCategory() {
		return "", domain.ReasonReferenceHasNoCategory
	}

	name, ok := r.table[*activity.Category]
	if !ok {
		return "", domain.ReasonCategoryNotInCatalog
	}

	id, ok := catalog[name]
	if !ok || id == "" {
		return "", domain.ReasonCategoryNotInCatalog
	}
	return id, domain.ReasonMatched
}
