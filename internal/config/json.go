package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/cyphero-app/cyphero/internal/flagx"
	"github.com/cyphero-app/cyphero/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "30s"
// or as integer nanoseconds.
type JsonConfig struct {
	DBPath         string         `json:"db_path"`
	DefaultTLD     string         `json:"default_tld"`
	SyncInterval   timex.Duration `json:"sync_interval"`
	RemoteDSN      string         `json:"remote_dsn"`
	IdentityURL    string         `json:"identity_url"`
	IdentityAPIKey string         `json:"identity_api_key"`
	BackupDir      string         `json:"backup_dir"`
	S3Bucket       string         `json:"s3_bucket"`
	S3Region       string         `json:"s3_region"`
	S3RootUser     string         `json:"s3_root_user"`
	S3RootPassword string         `json:"s3_root_password"`
	S3BaseEndpoint string         `json:"s3_base_endpoint"`
}

// parseJson overlays cfg with values loaded from the JSON file named by the
// -c/-config flag. Absent flag means no JSON is loaded. Read or unmarshal
// errors panic; the caller decides whether to recover.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	cfg.DBPath = jc.DBPath
	cfg.DefaultTLD = jc.DefaultTLD
	cfg.SyncInterval = time.Duration(jc.SyncInterval.Duration)
	cfg.RemoteDSN = jc.RemoteDSN
	cfg.IdentityURL = jc.IdentityURL
	cfg.IdentityAPIKey = jc.IdentityAPIKey
	cfg.BackupDir = jc.BackupDir
	cfg.S3Bucket = jc.S3Bucket
	cfg.S3Region = jc.S3Region
	cfg.S3RootUser = jc.S3RootUser
	cfg.S3RootPassword = jc.S3RootPassword
	cfg.S3BaseEndpoint = jc.S3BaseEndpoint
}
