// Package config loads runtime settings for the vault CLI from defaults,
// an optional JSON file, and command-line flags, in that order of precedence.
package config

import "time"

// Config holds runtime settings for the vault CLI.
//
// Units: SyncInterval is a time.Duration (e.g., 30*time.Second).
type Config struct {
	// DBPath is the local sqlite database file.
	DBPath string
	// DefaultTLD is appended to website names entered without a dot.
	DefaultTLD string
	// SyncInterval is how often the background sync pushes modified rows.
	SyncInterval time.Duration

	// RemoteDSN is the Postgres DSN of the remote mirror. Empty disables
	// sync and remote propagation.
	RemoteDSN string
	// IdentityURL and IdentityAPIKey point at the identity provider.
	IdentityURL    string
	IdentityAPIKey string

	// BackupDir receives local database snapshots.
	BackupDir string

	S3Bucket       string
	S3Region       string
	S3RootUser     string
	S3RootPassword string
	S3BaseEndpoint string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DBPath = "cyphero.db"
	c.DefaultTLD = ".com"
	c.SyncInterval = 30 * time.Second
	c.BackupDir = "backups"
	c.S3Bucket = "cyphero-backups"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
