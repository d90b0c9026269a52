// Package config loads the service configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every runtime knob. Defaults suit a single-household install
// backed by the in-memory store; set GUILDHALL_FIRESTORE_PROJECT to sync
// through Firestore.
type Config struct {
	Port     string `env:"GUILDHALL_PORT" envDefault:"8080"`
	LogLevel string `env:"GUILDHALL_LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"GUILDHALL_LOG_JSON" envDefault:"false"`

	// Path to the v1 SQLite database holding pre-sync state. Empty disables
	// the legacy migration entirely.
	LegacyDBPath string `env:"GUILDHALL_LEGACY_DB"`

	FirestoreProject     string `env:"GUILDHALL_FIRESTORE_PROJECT"`
	FirestoreCredentials string `env:"GUILDHALL_FIRESTORE_CREDENTIALS"`
	AppID                string `env:"GUILDHALL_APP_ID" envDefault:"brown-family-guild"`

	// bcrypt hash of the household passcode. Empty disables the gate.
	PasscodeHash string `env:"GUILDHALL_PASSCODE_HASH"`

	ArchiveEndpoint  string        `env:"GUILDHALL_ARCHIVE_S3_ENDPOINT"`
	ArchiveBucket    string        `env:"GUILDHALL_ARCHIVE_S3_BUCKET"`
	ArchiveRegion    string        `env:"GUILDHALL_ARCHIVE_S3_REGION" envDefault:"auto"`
	ArchiveAccessKey string        `env:"GUILDHALL_ARCHIVE_S3_ACCESS_KEY"`
	ArchiveSecretKey string        `env:"GUILDHALL_ARCHIVE_S3_SECRET_KEY"`
	ArchivePrefix    string        `env:"GUILDHALL_ARCHIVE_PREFIX"`
	ArchiveInterval  time.Duration `env:"GUILDHALL_ARCHIVE_INTERVAL" envDefault:"24h"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// UseFirestore reports whether the remote document store is configured.
func (c Config) UseFirestore() bool {
	return c.FirestoreProject != ""
}
