// Package cli is the interactive frontend of the vault: a REPL over the
// account, credential, sync, and backup services.
package cli

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/cyphero-app/cyphero/internal/config"
	"github.com/cyphero-app/cyphero/internal/logging"
	"github.com/cyphero-app/cyphero/internal/remote"
	"github.com/cyphero-app/cyphero/internal/vault"
	"github.com/cyphero-app/cyphero/internal/vault/backup"
	"github.com/cyphero-app/cyphero/internal/vault/services"
)

// App holds the wired services plus the per-session state: the authenticated
// user and the derived key. The key lives only in memory and is wiped on
// logout.
type App struct {
	config *config.Config
	log    logging.Logger

	store    *vault.Store
	accounts *services.AccountService
	creds    *services.CredentialService
	sync     *services.SyncService

	identity    remote.Identity
	remoteStore remote.Store
	uploader    *backup.S3Uploader

	session *services.Session
	idSess  *remote.IdentitySession
	reader  *bufio.Reader
	out     io.Writer
}

// NewApp opens the local store and wires the services. A remote mirror and
// identity provider are attached only when configured; without them the vault
// runs purely local and sync commands report accordingly.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	store, err := vault.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}

	policy, err := services.LoadPolicy(ctx, store.Config)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	guard := services.NewAuthGuard(store.Attempts, policy, log)

	var remoteStore remote.Store
	var syncSvc *services.SyncService
	if cfg.RemoteDSN != "" {
		ps, err := remote.OpenPostgres(ctx, cfg.RemoteDSN)
		if err != nil {
			// degraded start: the vault works locally and sync stays off
			log.Warn(ctx, "remote mirror unreachable, starting local-only", "error", err)
		} else {
			remoteStore = ps
			syncSvc = services.NewSyncService(store, ps, log)
		}
	}

	var identity remote.Identity
	if cfg.IdentityURL != "" {
		identity = remote.NewHTTPIdentity(cfg.IdentityURL, cfg.IdentityAPIKey)
	}

	var uploader *backup.S3Uploader
	if cfg.S3RootUser != "" {
		uploader = backup.NewS3Uploader(backup.S3Options{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			RootUser:     cfg.S3RootUser,
			RootPassword: cfg.S3RootPassword,
			BaseEndpoint: cfg.S3BaseEndpoint,
		}, log)
	}

	return &App{
		config:      cfg,
		log:         log,
		store:       store,
		accounts:    services.NewAccountService(store, guard, remoteStore, log),
		creds:       services.NewCredentialService(store, remoteStore, log),
		sync:        syncSvc,
		identity:    identity,
		remoteStore: remoteStore,
		uploader:    uploader,
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.session != nil
}

// Run drives the REPL until the user exits, then releases everything. A
// background push keeps the remote mirror close to the local state between
// explicit sync commands.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.StartSyncWorker(ctx, a.config.SyncInterval)

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}

// StartSyncWorker pushes modified rows on every tick until ctx is cancelled.
// Ticks while logged out are skipped, and a failed push is only logged: the
// bookmark is untouched, so the rows ride along on the next tick.
func (a *App) StartSyncWorker(ctx context.Context, interval time.Duration) {
	if a.sync == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !a.isLoggedIn() {
				continue
			}
			if _, err := a.sync.PushModified(ctx); err != nil {
				a.log.Warn(ctx, "background push failed", "error", err)
			}
		}
	}
}

// Close wipes the session key and closes the store handles.
func (a *App) Close() {
	if a.session != nil {
		a.session.Wipe()
		a.session = nil
	}
	if c, ok := a.remoteStore.(*remote.PostgresStore); ok {
		_ = c.Close()
	}
	_ = a.store.Close()
}

func (a *App) getStatus() string {
	if a.session == nil {
		return ""
	}
	return "(" + a.session.Username + ")"
}
