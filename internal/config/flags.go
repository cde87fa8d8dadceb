package config

import (
	"flag"
	"os"
	"time"

	"github.com/cyphero-app/cyphero/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   local database file
//	-t string   default TLD appended to bare website names
//	-s int      background sync interval in seconds
//	-r string   remote Postgres DSN (empty disables sync)
//	-i string   identity provider base URL
//	-k string   identity provider API key
//	-b string   local backup directory
//	-u string   S3 root user
//	-p string   S3 root password
//	-n string   S3 bucket
//	-g string   S3 region
//	-e string   S3 base endpoint
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:],
		[]string{"-d", "-t", "-s", "-r", "-i", "-k", "-b", "-u", "-p", "-n", "-g", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "local database file")
	fs.StringVar(&cfg.DefaultTLD, "t", cfg.DefaultTLD, "default TLD for bare website names")
	syncInterval := fs.Int("s", int(cfg.SyncInterval.Seconds()), "sync interval (in seconds)")
	fs.StringVar(&cfg.RemoteDSN, "r", cfg.RemoteDSN, "remote Postgres DSN")
	fs.StringVar(&cfg.IdentityURL, "i", cfg.IdentityURL, "identity provider base URL")
	fs.StringVar(&cfg.IdentityAPIKey, "k", cfg.IdentityAPIKey, "identity provider API key")
	fs.StringVar(&cfg.BackupDir, "b", cfg.BackupDir, "local backup directory")
	fs.StringVar(&cfg.S3RootUser, "u", cfg.S3RootUser, "S3 root user")
	fs.StringVar(&cfg.S3RootPassword, "p", cfg.S3RootPassword, "S3 root password")
	fs.StringVar(&cfg.S3Bucket, "n", cfg.S3Bucket, "S3 bucket")
	fs.StringVar(&cfg.S3Region, "g", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3BaseEndpoint, "e", cfg.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.SyncInterval = time.Duration(*syncInterval) * time.Second
}
