// Package services contains the application services of the vault engine:
// lockout enforcement, account lifecycle, credential CRUD, and sync.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cyphero-app/cyphero/internal/common"
	"github.com/cyphero-app/cyphero/internal/logging"
	"github.com/cyphero-app/cyphero/internal/vault/repositories/attempts"
	"github.com/cyphero-app/cyphero/internal/vault/repositories/config"
)

// Policy holds the lockout constants. It is injected at construction; the
// config table is one possible backing store (see LoadPolicy), not the only
// one.
type Policy struct {
	MaxAttempts   int
	LockoutWindow time.Duration
}

// DefaultPolicy mirrors the values seeded into the config table.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 5, LockoutWindow: 60 * time.Second}
}

// LoadPolicy reads the lockout constants from the config table, falling back
// to defaults for absent keys so a partially seeded table stays usable.
func LoadPolicy(ctx context.Context, cfg config.Repository) (Policy, error) {
	p := DefaultPolicy()

	maxAttempts, err := cfg.GetInt(ctx, config.KeyMaxAttempts)
	switch {
	case err == nil:
		p.MaxAttempts = maxAttempts
	case !errors.Is(err, common.ErrorNotFound):
		return Policy{}, fmt.Errorf("load %s: %w", config.KeyMaxAttempts, err)
	}

	lockoutSeconds, err := cfg.GetInt(ctx, config.KeyLockoutTime)
	switch {
	case err == nil:
		p.LockoutWindow = time.Duration(lockoutSeconds) * time.Second
	case !errors.Is(err, common.ErrorNotFound):
		return Policy{}, fmt.Errorf("load %s: %w", config.KeyLockoutTime, err)
	}

	return p, nil
}

// AuthGuard enforces the per-username lockout state machine:
// Unlocked → Locked → Unlocked. A username is locked while it has at least
// MaxAttempts recorded failures and the most recent one is younger than
// LockoutWindow; the lock expires by itself with no explicit reset.
type AuthGuard struct {
	attempts attempts.Repository
	policy   Policy
	log      logging.Logger
	now      func() time.Time
}

// NewAuthGuard builds a guard over the given attempt store and policy.
func NewAuthGuard(repo attempts.Repository, policy Policy, log logging.Logger) *AuthGuard {
	return &AuthGuard{attempts: repo, policy: policy, log: log, now: time.Now}
}

// CheckAllowed reports whether a login attempt for username may proceed.
func (g *AuthGuard) CheckAllowed(ctx context.Context, username string) (bool, error) {
	a, err := g.attempts.Get(ctx, username)
	if errors.Is(err, common.ErrorNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	sinceLast := g.now().Unix() - a.LastAttempt
	if a.Attempts >= g.policy.MaxAttempts && sinceLast < int64(g.policy.LockoutWindow.Seconds()) {
		g.log.Warn(ctx, "login blocked by lockout policy", "username", username, "attempts", a.Attempts)
		return false, nil
	}
	return true, nil
}

// RecordFailure bumps the failure counter and refreshes its timestamp.
func (g *AuthGuard) RecordFailure(ctx context.Context, username string) error {
	return g.attempts.Increment(ctx, username, g.now().Unix())
}

// RecordSuccess clears all lockout state for username.
func (g *AuthGuard) RecordSuccess(ctx context.Context, username string) error {
	return g.attempts.Reset(ctx, username)
}
