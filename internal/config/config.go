// Package config loads triagebot configuration from .triagebot/config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sqlint/triagebot/internal/dispatch"
	"github.com/sqlint/triagebot/internal/storage"
	"github.com/sqlint/triagebot/internal/tracker"
	"github.com/sqlint/triagebot/internal/types"
)

// ConfigFile represents the structure of .triagebot/config.yaml
type ConfigFile struct {
	// Actor is the identity used for tracker writes and audit events
	Actor string `yaml:"actor"`

	// Tracker settings
	Tracker TrackerConfig `yaml:"tracker"`

	// Capabilities granted for this invocation (read/add-comment/
	// update-issue/create-issue). Empty grants everything.
	Capabilities []string `yaml:"capabilities"`

	// Triggers are the issue events that start a run (opened/edited)
	Triggers []string `yaml:"triggers"`

	// Quota holds the per-run output ceilings
	Quota QuotaFileConfig `yaml:"quota"`

	// MaxAttempts bounds label-conflict retries per run
	MaxAttempts int `yaml:"max_attempts"`

	// Dialects overrides the known dialect list (empty = built-in list)
	Dialects []string `yaml:"dialects"`

	// Scorer settings for the optional LLM evidence supplement
	Scorer ScorerFileConfig `yaml:"scorer"`

	// Audit settings for the local event store
	Audit AuditFileConfig `yaml:"audit"`
}

// TrackerConfig defines tracker backend settings in the config file.
type TrackerConfig struct {
	DBPath string `yaml:"db_path"`
}

// QuotaFileConfig defines per-run output ceilings in the config file.
type QuotaFileConfig struct {
	Comment     int `yaml:"comment"`
	UpdateIssue int `yaml:"update_issue"`
}

// ScorerFileConfig defines LLM scorer settings in the config file.
type ScorerFileConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
}

// AuditFileConfig defines audit store settings in the config file.
type AuditFileConfig struct {
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
	PerIssueLimit int    `yaml:"per_issue_limit"`
}

// Config is the resolved runtime configuration.
type Config struct {
	// Actor is the identity used for tracker writes and audit events
	// Default: "triagebot"
	Actor string
	// TrackerDBPath is the beads database file path
	// Default: ".triagebot/triage.db"
	TrackerDBPath string
	// Capabilities are the grants for this invocation
	Capabilities tracker.CapabilitySet
	// Triggers are the event kinds that start a run
	Triggers map[types.EventKind]bool
	// Quota holds the per-run output ceilings
	Quota dispatch.QuotaConfig
	// MaxAttempts bounds label-conflict retries per run
	// Default: 3
	MaxAttempts int
	// Dialects overrides the known dialect list (nil = built-in list)
	Dialects []string
	// ScorerEnabled turns on the LLM evidence supplement
	// Default: false
	ScorerEnabled bool
	// ScorerModel is the model used when the scorer is enabled
	ScorerModel string
	// Audit configures the local event store
	Audit storage.Config
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Actor:         "triagebot",
		TrackerDBPath: ".triagebot/triage.db",
		Capabilities: tracker.CapabilitySet{
			tracker.CapRead:        true,
			tracker.CapComment:     true,
			tracker.CapUpdateIssue: true,
			tracker.CapCreateIssue: true,
		},
		Triggers: map[types.EventKind]bool{
			types.EventOpened: true,
			types.EventEdited: true,
		},
		Quota:       dispatch.DefaultQuotaConfig(),
		MaxAttempts: 3,
		ScorerModel: "claude-sonnet-4-5-20250929",
		Audit:       *storage.DefaultConfig(),
	}
}

// ShouldTriage reports whether the event kind triggers a run.
func (c *Config) ShouldTriage(kind types.EventKind) bool {
	return c.Triggers[kind]
}

// Load loads configuration from .triagebot/config.yaml under projectRoot.
// A missing file yields the defaults.
func Load(projectRoot string) (*Config, error) {
	configPath := filepath.Join(projectRoot, ".triagebot", "config.yaml")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var configFile ConfigFile
	if err := yaml.Unmarshal(data, &configFile); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return configFile.ToConfig()
}

// ToConfig converts a ConfigFile to a Config.
func (cf *ConfigFile) ToConfig() (*Config, error) {
	config := DefaultConfig()

	if cf.Actor != "" {
		config.Actor = cf.Actor
	}
	if cf.Tracker.DBPath != "" {
		config.TrackerDBPath = cf.Tracker.DBPath
	}

	if len(cf.Capabilities) > 0 {
		caps := tracker.CapabilitySet{}
		for _, name := range cf.Capabilities {
			c := tracker.Capability(name)
			switch c {
			case tracker.CapRead, tracker.CapComment, tracker.CapUpdateIssue, tracker.CapCreateIssue:
				caps[c] = true
			default:
				return nil, fmt.Errorf("unknown capability: %s", name)
			}
		}
		config.Capabilities = caps
	}

	if len(cf.Triggers) > 0 {
		triggers := map[types.EventKind]bool{}
		for _, name := range cf.Triggers {
			k := types.EventKind(name)
			switch k {
			case types.EventOpened, types.EventEdited:
				triggers[k] = true
			default:
				return nil, fmt.Errorf("unknown trigger: %s", name)
			}
		}
		config.Triggers = triggers
	}

	if cf.Quota.Comment > 0 {
		config.Quota.Comment = cf.Quota.Comment
	}
	if cf.Quota.UpdateIssue > 0 {
		config.Quota.UpdateIssue = cf.Quota.UpdateIssue
	}
	if cf.MaxAttempts > 0 {
		config.MaxAttempts = cf.MaxAttempts
	}
	if len(cf.Dialects) > 0 {
		config.Dialects = cf.Dialects
	}

	config.ScorerEnabled = cf.Scorer.Enabled
	if cf.Scorer.Model != "" {
		config.ScorerModel = cf.Scorer.Model
	}

	if cf.Audit.Path != "" {
		config.Audit.Path = cf.Audit.Path
	}
	if cf.Audit.RetentionDays > 0 {
		config.Audit.RetentionDays = cf.Audit.RetentionDays
	}
	if cf.Audit.PerIssueLimit > 0 {
		config.Audit.PerIssueLimit = cf.Audit.PerIssueLimit
	}

	return config, nil
}

// Validate checks the resolved configuration for consistency.
func (c *Config) Validate() error {
	if c.Actor == "" {
		return fmt.Errorf("actor must not be empty")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.Quota.Comment < 0 || c.Quota.UpdateIssue < 0 {
		return fmt.Errorf("quota ceilings must not be negative")
	}
	if len(c.Triggers) == 0 {
		return fmt.Errorf("at least one trigger is required")
	}
	if !c.Capabilities.Has(tracker.CapRead) {
		return fmt.Errorf("the read capability is required")
	}
	if c.ScorerEnabled && c.ScorerModel == "" {
		return fmt.Errorf("scorer.model is required when the scorer is enabled")
	}
	return nil
}

// ExampleConfigFile returns an example configuration file content.
func ExampleConfigFile() string {
	return `# triagebot configuration

# Identity used for tracker writes and audit events
actor: triagebot

# Tracker backend
tracker:
  db_path: .triagebot/triage.db

# Capabilities granted for this invocation.
# Remove entries to run in a restricted mode; missing write capabilities
# are surfaced as escalation issues instead of failing silently.
capabilities:
  - read
  - add-comment
  - update-issue
  - create-issue

# Issue events that start a triage run
triggers:
  - opened
  - edited

# Per-run output ceilings
quota:
  comment: 1
  update_issue: 1

# Label-conflict retries per run
max_attempts: 3

# Override the known dialect list (empty = built-in list)
dialects: []

# Optional LLM evidence supplement (requires ANTHROPIC_API_KEY)
scorer:
  enabled: false
  model: claude-sonnet-4-5-20250929

# Local audit event store
audit:
  path: .triagebot/audit.db
  retention_days: 90
  per_issue_limit: 200
`
}

// Save writes the example configuration to .triagebot/config.yaml,
// refusing to overwrite an existing file.
func Save(projectRoot string) (string, error) {
	configPath := filepath.Join(projectRoot, ".triagebot", "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		return configPath, fmt.Errorf("config file already exists: %s", configPath)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return "", fmt.Errorf("creating .triagebot directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(ExampleConfigFile()), 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return configPath, nil
}
