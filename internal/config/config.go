// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults, Load(ctx) to layer in
//   file and environment overrides.
// - External errors must be wrapped via this package's error helpers.
package config

// Store backend names accepted by the store config key.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Store selects the feedback store backend: memory or sqlite.
	Store string `koanf:"store"`

	// SQLitePath is the database file used when Store is sqlite.
	SQLitePath string `koanf:"sqlite_path"`

	// MaturationWindowDays is the minimum age of an executed, unmeasured
	// event before the batch scanner auto-measures it.
	MaturationWindowDays int `koanf:"maturation_window_days"`

	// BatchWorkerCount sets the number of maturation scan workers.
	BatchWorkerCount int `koanf:"batch_worker_count"`

	// EntityFeedbackLimit is the default page size of entity feedback
	// listings.
	EntityFeedbackLimit int `koanf:"entity_feedback_limit"`

	// StrictOutcome rejects repeated outcome measurements instead of
	// overwriting them.
	StrictOutcome bool `koanf:"strict_outcome"`

	// TrainingThreshold is the untrained-event count that marks the model
	// ready for retraining.
	TrainingThreshold int `koanf:"training_threshold"`

	// MaturationIntervalMinutes schedules the background maturation scan.
	// Zero disables the scheduler.
	MaturationIntervalMinutes int `koanf:"maturation_interval_minutes"`

	// MaxWindowDays caps the span of a learning metrics query. Requests for
	// longer windows are rejected.
	MaxWindowDays int `koanf:"max_window_days"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                  "info",
		Addr:                      ":8080",
		Store:                     StoreMemory,
		SQLitePath:                "kaliber.db",
		MaturationWindowDays:      30,
		BatchWorkerCount:          4,
		EntityFeedbackLimit:       50,
		StrictOutcome:             false,
		TrainingThreshold:         100,
		MaturationIntervalMinutes: 60,
		MaxWindowDays:             365,
	}
}
