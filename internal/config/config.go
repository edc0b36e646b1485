// ABOUTME: Pulse configuration with engine tuning knobs.
// ABOUTME: JSON file at XDG config path; typed getters supply defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harperreed/pulse/internal/models"
)

// Thresholds holds per-metric anomaly classification boundaries in
// stddev units.
type Thresholds struct {
	Normal float64 `json:"normal"`
	Alert  float64 `json:"alert"`
}

// SanityRange bounds plausible raw values for an observation type.
// Values outside the range are rejected at ingest.
type SanityRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Config stores pulse engine configuration.
type Config struct {
	// DataDir is the root directory for the SQLite database.
	// Supports ~ expansion. Defaults to ~/.local/share/pulse.
	DataDir string `json:"data_dir,omitempty"`

	// DefaultUser is assumed by CLI commands when --user is omitted.
	DefaultUser string `json:"default_user,omitempty"`

	// HabitsFile is the YAML file declaring habit definitions.
	// Defaults to habits.yaml next to the config file.
	HabitsFile string `json:"habits_file,omitempty"`

	// MaxBatchSize caps one ingest call. Defaults to 5000.
	MaxBatchSize int `json:"max_batch_size,omitempty"`

	// MaxTimelineLimit clamps timeline query limits. Defaults to 1000.
	MaxTimelineLimit int `json:"max_timeline_limit,omitempty"`

	// BaselineWindowDays is the trailing retention window for HR and
	// HRV baselines. Defaults to 30.
	BaselineWindowDays int `json:"baseline_window_days,omitempty"`

	// BaselineSampleCap caps retained samples per baseline bucket for
	// the windowed strategy. Defaults to 2000.
	BaselineSampleCap int `json:"baseline_sample_cap,omitempty"`

	// MinBaselineSamples is the confidence floor below which a baseline
	// is reported unavailable. Defaults to 5.
	MinBaselineSamples int `json:"min_baseline_samples,omitempty"`

	// MinCorrelationDays is the minimum trailing days required before a
	// correlation strength is reported. Defaults to 5.
	MinCorrelationDays int `json:"min_correlation_days,omitempty"`

	// AtRiskElapsed is the fraction of a habit period after which a
	// short count moves the habit to at_risk. Defaults to 0.7.
	AtRiskElapsed float64 `json:"at_risk_elapsed,omitempty"`

	// FeedbackLearningRate is the EMA rate for confidence weight
	// adjustment. Defaults to 0.2.
	FeedbackLearningRate float64 `json:"feedback_learning_rate,omitempty"`

	// SuggestionTTLHours is the lifetime of a generated suggestion.
	// Defaults to 24.
	SuggestionTTLHours int `json:"suggestion_ttl_hours,omitempty"`

	// MirrorEnabled turns on the Charm Cloud mirror: accepted raw
	// entities are pushed after each write. Defaults to off; 'pulse
	// sync push' backfills regardless.
	MirrorEnabled bool `json:"mirror_enabled,omitempty"`

	// Thresholds overrides anomaly boundaries per metric.
	Thresholds map[string]Thresholds `json:"thresholds,omitempty"`

	// SanityRanges overrides ingest bounds per observation type.
	SanityRanges map[string]SanityRange `json:"sanity_ranges,omitempty"`
}

// defaultThresholds follow the original deployment: HR flags earlier
// than HRV, whose 30-day baseline carried a 2.0 z threshold.
var defaultThresholds = map[models.ObservationType]Thresholds{
	models.ObsHeartRate: {Normal: 1.5, Alert: 3.0},
	models.ObsHRV:       {Normal: 1.5, Alert: 2.0},
}

var defaultSanityRanges = map[models.ObservationType]SanityRange{
	models.ObsHeartRate:       {Min: 20, Max: 250},
	models.ObsRestingHR:       {Min: 20, Max: 150},
	models.ObsHRV:             {Min: 1, Max: 300},
	models.ObsRespiratoryRate: {Min: 4, Max: 60},
	models.ObsSteps:           {Min: 0, Max: 100000},
	models.ObsActiveEnergy:    {Min: 0, Max: 10000},
	models.ObsMotion:          {Min: 0, Max: 100000},
	models.ObsSleepHours:      {Min: 0, Max: 24},
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return DataDir()
	}
	return ExpandPath(c.DataDir)
}

// DBPath returns the SQLite database path under the data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.GetDataDir(), "pulse.db")
}

// GetDefaultUser returns the default user id, falling back to $USER.
func (c *Config) GetDefaultUser() string {
	if c.DefaultUser != "" {
		return c.DefaultUser
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "default"
}

// GetHabitsFile returns the habit definitions path.
func (c *Config) GetHabitsFile() string {
	if c.HabitsFile != "" {
		return ExpandPath(c.HabitsFile)
	}
	return filepath.Join(filepath.Dir(GetConfigPath()), "habits.yaml")
}

// GetMaxBatchSize returns the ingest batch cap.
func (c *Config) GetMaxBatchSize() int {
	if c.MaxBatchSize > 0 {
		return c.MaxBatchSize
	}
	return 5000
}

// GetMaxTimelineLimit returns the timeline limit clamp.
func (c *Config) GetMaxTimelineLimit() int {
	if c.MaxTimelineLimit > 0 {
		return c.MaxTimelineLimit
	}
	return 1000
}

// GetBaselineWindow returns the baseline retention window.
func (c *Config) GetBaselineWindow() time.Duration {
	days := c.BaselineWindowDays
	if days <= 0 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour
}

// GetBaselineSampleCap returns the windowed-strategy sample cap.
func (c *Config) GetBaselineSampleCap() int {
	if c.BaselineSampleCap > 0 {
		return c.BaselineSampleCap
	}
	return 2000
}

// GetMinBaselineSamples returns the baseline confidence floor.
func (c *Config) GetMinBaselineSamples() int {
	if c.MinBaselineSamples > 0 {
		return c.MinBaselineSamples
	}
	return 5
}

// GetMinCorrelationDays returns the correlation minimum sample window.
func (c *Config) GetMinCorrelationDays() int {
	if c.MinCorrelationDays > 0 {
		return c.MinCorrelationDays
	}
	return 5
}

// GetAtRiskElapsed returns the habit at-risk period fraction.
func (c *Config) GetAtRiskElapsed() float64 {
	if c.AtRiskElapsed > 0 {
		return c.AtRiskElapsed
	}
	return 0.7
}

// GetFeedbackLearningRate returns the confidence EMA rate.
func (c *Config) GetFeedbackLearningRate() float64 {
	if c.FeedbackLearningRate > 0 {
		return c.FeedbackLearningRate
	}
	return 0.2
}

// GetSuggestionTTL returns the suggestion lifetime.
func (c *Config) GetSuggestionTTL() time.Duration {
	hours := c.SuggestionTTLHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

// ThresholdsFor returns the anomaly boundaries for a metric, falling
// back to the built-in defaults and finally to the HR boundaries.
func (c *Config) ThresholdsFor(metric models.ObservationType) Thresholds {
	if t, ok := c.Thresholds[string(metric)]; ok {
		return t
	}
	if t, ok := defaultThresholds[metric]; ok {
		return t
	}
	return defaultThresholds[models.ObsHeartRate]
}

// SanityRangeFor returns the ingest bounds for an observation type.
// ok is false when no range is known, in which case values pass.
func (c *Config) SanityRangeFor(obsType models.ObservationType) (SanityRange, bool) {
	if r, ok := c.SanityRanges[string(obsType)]; ok {
		return r, true
	}
	r, ok := defaultSanityRanges[obsType]
	return r, ok
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// DataDir returns the default data directory following XDG spec.
func DataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "pulse")
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "pulse", "config.json")
}

// Load reads config from disk.
func Load() (*Config, error) {
	path := GetConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
