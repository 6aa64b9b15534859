package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlint/triagebot/internal/tracker"
	"github.com/sqlint/triagebot/internal/types"
)

func writeConfig(t *testing.T, root, content string) {
	t.Helper()
	dir := filepath.Join(root, ".triagebot")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644))
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "triagebot", cfg.Actor)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 1, cfg.Quota.Comment)
	assert.Equal(t, 1, cfg.Quota.UpdateIssue)
	assert.True(t, cfg.ShouldTriage(types.EventOpened))
	assert.True(t, cfg.ShouldTriage(types.EventEdited))
	assert.True(t, cfg.Capabilities.Has(tracker.CapUpdateIssue))
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
actor: bot-2
capabilities:
  - read
  - add-comment
triggers:
  - opened
quota:
  comment: 2
max_attempts: 5
dialects:
  - postgres
  - tsql
scorer:
  enabled: true
  model: claude-sonnet-4-5-20250929
audit:
  retention_days: 30
`)

	cfg, err := Load(root)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "bot-2", cfg.Actor)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, 2, cfg.Quota.Comment)
	assert.Equal(t, 1, cfg.Quota.UpdateIssue)
	assert.True(t, cfg.ShouldTriage(types.EventOpened))
	assert.False(t, cfg.ShouldTriage(types.EventEdited))
	assert.True(t, cfg.Capabilities.Has(tracker.CapComment))
	assert.False(t, cfg.Capabilities.Has(tracker.CapUpdateIssue))
	assert.Equal(t, []string{"postgres", "tsql"}, cfg.Dialects)
	assert.True(t, cfg.ScorerEnabled)
	assert.Equal(t, 30, cfg.Audit.RetentionDays)
	// Untouched audit fields keep their defaults.
	assert.Equal(t, ".triagebot/audit.db", cfg.Audit.Path)
}

func TestLoadRejectsUnknownCapability(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "capabilities:\n  - delete-issue\n")

	_, err := Load(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown capability")
}

func TestLoadRejectsUnknownTrigger(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "triggers:\n  - closed\n")

	_, err := Load(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown trigger")
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxAttempts = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Capabilities = tracker.CapabilitySet{tracker.CapComment: true}
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.ScorerEnabled = true
	cfg.ScorerModel = ""
	assert.Error(t, cfg.Validate())
}

func TestExampleConfigRoundTrips(t *testing.T) {
	root := t.TempDir()
	path, err := Save(root)
	require.NoError(t, err)
	assert.FileExists(t, path)

	cfg, err := Load(root)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "triagebot", cfg.Actor)

	// A second init must not clobber an existing config.
	_, err = Save(root)
	assert.Error(t, err)
}
