package gateway

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"

	"expense-backfill/internal/domain"
)

// Fixture file names inside a fixtures directory.
const (
	CategoriesFile = "categories.csv"
	ActivitiesFile = "activities.csv"
	ExpensesFile   = "expenses.csv"
)

// Fixtures is a snapshot of the three collections, used to seed a store.
type Fixtures struct {
	Categories []domain.Category
	Activities []domain.Activity
	Expenses   []domain.Expense
}

type categoryRow struct {
	ID   string `csv:"id"`
	Name string `csv:"name"`
}

type activityRow struct {
	ID       string `csv:"id"`
	TripID   string `csv:"trip_id"`
	Title    string `csv:"title"`
	Category string `csv:"category"`
}

type expenseRow struct {
	ID         string `csv:"id"`
	TripID     string `csv:"trip_id"`
	Title      string `csv:"title"`
	CategoryID string `csv:"category_id"`
}

// CSVFixtureReader reads categories.csv, activities.csv and expenses.csv from
// a directory. Missing files yield empty collections; a directory with none
// of them is an error.
type CSVFixtureReader struct{}

// NewCSVFixtureReader creates a new reader instance.
func NewCSVFixtureReader() *CSVFixtureReader {
	return &CSVFixtureReader{}
}

// ReadDir reads every fixture file present in dir.
func (r *CSVFixtureReader) ReadDir(dir string) (Fixtures, error) {
	var fx Fixtures
	found := 0

	var categories []categoryRow
	ok, err := readCSV(filepath.Join(dir, CategoriesFile), &categories)
	if err != nil {
		return Fixtures{}, err
	}
	if ok {
		found++
	}
	for i, row := range categories {
		c, err := row.toDomain()
		if err != nil {
			return Fixtures{}, fmt.Errorf("%s row %d: %w", CategoriesFile, i+2, err)
		}
		fx.Categories = append(fx.Categories, c)
	}

	var activities []activityRow
	ok, err = readCSV(filepath.Join(dir, ActivitiesFile), &activities)
	if err != nil {
		return Fixtures{}, err
	}
	if ok {
		found++
	}
	for i, row := range activities {
		a, err := row.toDomain()
		if err != nil {
			return Fixtures{}, fmt.Errorf("%s row %d: %w", ActivitiesFile, i+2, err)
		}
		fx.Activities = append(fx.Activities, a)
	}

	var expenses []expenseRow
	ok, err = readCSV(filepath.Join(dir, ExpensesFile), &expenses)
	if err != nil {
		return Fixtures{}, err
	}
	if ok {
		found++
	}
	for i, row := range expenses {
		e, err := row.toDomain()
		if err != nil {
			return Fixtures{}, fmt.Errorf("%s row %d: %w", ExpensesFile, i+2, err)
		}
		fx.Expenses = append(fx.Expenses, e)
	}

	if found == 0 {
		return Fixtures{}, fmt.Errorf("no fixture files found in %s", dir)
	}
	return fx, nil
}

// readCSV decodes path into out. It reports false without error when the
// file does not exist.
func readCSV(path string, out interface{}) (bool, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to open fixture file %s: %w", path, err)
	}
	defer file.Close()

	if err := gocsv.UnmarshalFile(file, out); err != nil {
		return false, fmt.Errorf("error reading records from %s: %w", path, err)
	}
	return true, nil
}

func (row categoryRow) toDomain() (domain.Category, error) {
	name := strings.TrimSpace(row.Name)
	if name == "" {
		return domain.Category{}, errors.New("category name is required")
	}
	id := strings.TrimSpace(row.ID)
	if id == "" {
		id = CategoryIDForName(name)
	}
	return domain.Category{ID: id, Name: name}, nil
}

func (row activityRow) toDomain() (domain.Activity, error) {
	if row.ID == "" || row.TripID == "" {
		return domain.Activity{}, errors.New("activity id and trip_id are required")
	}
	return domain.Activity{
		ID:       row.ID,
		TripID:   row.TripID,
		Title:    row.Title,
		Category: optional(row.Category),
	}, nil
}

func (row expenseRow) toDomain() (domain.Expense, error) {
	if row.ID == "" || row.TripID == "" {
		return domain.Expense{}, errors.New("expense id and trip_id are required")
	}
	return domain.Expense{
		ID:         row.ID,
		TripID:     row.TripID,
		Title:      row.Title,
		CategoryID: optional(row.CategoryID),
	}, nil
}

// CategoryIDForName derives a stable id for a category fixture without one.
func CategoryIDForName(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("category:"+name)).String()
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
