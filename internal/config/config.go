// Package config defines service configuration and its defaults.
//
// Values are layered by Load: defaults from New, then an optional YAML
// file, then PRIZEWHEEL_* environment variables.
package config

import (
	"fmt"
	"time"
)

// Store drivers.
const (
	DriverMemory    = "memory"
	DriverSQLite    = "sqlite"
	DriverFirestore = "firestore"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the document store backend.
	StoreDriver string `koanf:"store_driver"`

	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `koanf:"sqlite_path"`

	// FirestoreProjectID and FirestoreCredentialsFile configure the firestore driver.
	// An empty credentials file falls back to application default credentials.
	FirestoreProjectID       string `koanf:"firestore_project_id"`
	FirestoreCredentialsFile string `koanf:"firestore_credentials_file"`

	// AdminToken guards /api/admin. Empty disables the check.
	AdminToken string `koanf:"admin_token"`

	// Locale and Timezone drive date rendering and datetime-local parsing.
	Locale   string `koanf:"locale"`
	Timezone string `koanf:"timezone"`

	// NotificationTTLMS is how long a notification stays visible.
	NotificationTTLMS int `koanf:"notification_ttl_ms"`

	// SpinTurns and SpinDurationMS shape the wheel animation.
	SpinTurns      int  `koanf:"spin_turns"`
	SpinDurationMS int  `koanf:"spin_duration_ms"`
	SpinPlayback   bool `koanf:"spin_playback"`
	SpinFPS        int  `koanf:"spin_fps"`

	// SnapshotQueueSize bounds snapshots waiting for the cache writer.
	SnapshotQueueSize int `koanf:"snapshot_queue_size"`

	// Resubscribe backoff bounds after a subscription error.
	ResubscribeMinBackoffMS int `koanf:"resubscribe_min_backoff_ms"`
	ResubscribeMaxBackoffMS int `koanf:"resubscribe_max_backoff_ms"`

	// DescriptionPreviewLen truncates descriptions in the admin list.
	DescriptionPreviewLen int `koanf:"description_preview_len"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		Addr:                    ":9080",
		StoreDriver:             DriverMemory,
		SQLitePath:              "prizewheel.db",
		Locale:                  "th-TH",
		Timezone:                "Asia/Bangkok",
		NotificationTTLMS:       3000,
		SpinTurns:               10,
		SpinDurationMS:          3000,
		SpinPlayback:            true,
		SpinFPS:                 30,
		SnapshotQueueSize:       64,
		ResubscribeMinBackoffMS: 500,
		ResubscribeMaxBackoffMS: 30_000,
		DescriptionPreviewLen:   50,
	}
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// NotificationTTL returns NotificationTTLMS as a duration.
func (c *Config) NotificationTTL() time.Duration {
	return time.Duration(c.NotificationTTLMS) * time.Millisecond
}

// SpinDuration returns SpinDurationMS as a duration.
func (c *Config) SpinDuration() time.Duration {
	return time.Duration(c.SpinDurationMS) * time.Millisecond
}

// ResubscribeBackoff returns the min and max resubscribe delays.
func (c *Config) ResubscribeBackoff() (time.Duration, time.Duration) {
	return time.Duration(c.ResubscribeMinBackoffMS) * time.Millisecond,
		time.Duration(c.ResubscribeMaxBackoffMS) * time.Millisecond
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.SpinTurns < 1:
		return fmt.Errorf("%w: spin_turns must be positive", ErrInvalidConfig)
	case c.SpinDurationMS < 0:
		return fmt.Errorf("%w: spin_duration_ms must not be negative", ErrInvalidConfig)
	case c.NotificationTTLMS <= 0:
		return fmt.Errorf("%w: notification_ttl_ms must be positive", ErrInvalidConfig)
	case c.SnapshotQueueSize < 1:
		return fmt.Errorf("%w: snapshot_queue_size must be positive", ErrInvalidConfig)
	case c.ResubscribeMinBackoffMS <= 0 || c.ResubscribeMaxBackoffMS < c.ResubscribeMinBackoffMS:
		return fmt.Errorf("%w: resubscribe backoff bounds are inconsistent", ErrInvalidConfig)
	}

	switch c.StoreDriver {
	case DriverMemory:
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path must not be empty", ErrInvalidConfig)
		}
	case DriverFirestore:
		if c.FirestoreProjectID == "" {
			return fmt.Errorf("%w: firestore_project_id must not be empty", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}
