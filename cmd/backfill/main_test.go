package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expense-backfill/internal/domain"
	"expense-backfill/internal/handler"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf("log:\n  level: error\nstore:\n  driver: sqlite\n  sqlite_path: %s\n", filepath.Join(dir, "backfill.db"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	cfg := writeConfig(t)

	_, err := execute(t, "--config", cfg, "seed", "--dir", filepath.Join("..", "..", "testdata", "fixtures"))
	require.NoError(t, err)

	// Preview first: nothing is written.
	out, err := execute(t, "--config", cfg, "run", "--trip", "trip-lisbon", "--dry-run", "--results")
	require.NoError(t, err)

	var preview handler.Response
	require.NoError(t, json.Unmarshal([]byte(out), &preview))
	assert.True(t, preview.DryRun)
	assert.Equal(t, 0, preview.Fixed)
	assert.Equal(t, 6, preview.Total)
	assert.Len(t, preview.Results, 6)

	out, err = execute(t, "--config", cfg, "run", "--trip", "trip-lisbon")
	require.NoError(t, err)

	var resp handler.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Fixed 3 of 6 uncategorized expenses", resp.Message)
	assert.Equal(t, map[domain.MatchReason]int{
		domain.ReasonReferenceHasNoCategory: 1,
		domain.ReasonNoReferenceMatch:       1,
		domain.ReasonCategoryNotInCatalog:   1,
	}, resp.Skipped)
	assert.Empty(t, resp.Results)
}

func TestRunCommand_RequiresTrip(t *testing.T) {
	_, err := execute(t, "--config", writeConfig(t), "run")
	assert.Error(t, err)
}

func TestSeedCommand_RejectsPostgres(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: postgres\n  postgres_url: postgres://localhost/trips\n"), 0o644))

	_, err := execute(t, "--config", path, "seed")
	assert.ErrorContains(t, err, "seed only supports")
}
