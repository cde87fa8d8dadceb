package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cyphero-app/cyphero/internal/common"
	"github.com/cyphero-app/cyphero/internal/remote"
	"github.com/cyphero-app/cyphero/internal/vault/backup"
	"github.com/cyphero-app/cyphero/internal/vault/models"
	"github.com/cyphero-app/cyphero/internal/vault/passgen"
	"github.com/cyphero-app/cyphero/internal/vault/repositories/credentials"
)

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format+"\n", args...)
}

// Register creates an account: with an identity provider configured, the
// provider assigns the user id; otherwise a local UUID is used. The new user
// is mirrored to the remote store when one is attached.
func (a *App) Register(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword("Choose master password", a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	if s := passgen.Score(string(password)); s == passgen.StrengthWeak {
		a.printf("warning: master password rated %s", s)
	}

	userID := uuid.NewString()
	if a.identity != nil {
		userID, err = a.identity.SignUp(ctx, username, string(password))
		if err != nil {
			a.printf("registration failed: %v", err)
			return err
		}
	}

	user, err := a.accounts.Register(ctx, username, string(password), userID, nil)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			a.printf("username already taken")
		} else {
			a.printf("registration failed: %v", err)
		}
		return err
	}

	if a.remoteStore != nil {
		err := a.remoteStore.InsertUser(ctx, &remote.User{
			ID:           user.ID,
			Username:     user.Username,
			PasswordHash: user.PasswordHash,
			Salt:         base64.StdEncoding.EncodeToString(user.Salt),
		})
		if err != nil && !errors.Is(err, common.ErrorAlreadyExists) {
			a.printf("warning: account not mirrored remotely: %v", err)
		}
	}

	a.printf("account created, you can now log in")
	return nil
}

// Login authenticates against the local vault. When the username is unknown
// locally but an identity provider and remote mirror are attached, the
// account is bootstrapped from the remote copy first (same salt, so the
// derived key matches the synced envelopes).
func (a *App) Login(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword("Enter master password", a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	exists, err := a.store.Users.Exists(ctx, username)
	if err != nil {
		return err
	}
	if !exists && a.identity != nil && a.remoteStore != nil {
		if err := a.bootstrapFromRemote(ctx, username, string(password)); err != nil {
			a.printf("login failed: %v", err)
			return err
		}
	}

	sess, err := a.accounts.Authenticate(ctx, username, string(password))
	switch {
	case errors.Is(err, common.ErrorLockedOut):
		a.printf("too many failed attempts, try again later")
		return err
	case errors.Is(err, common.ErrorWrongPassword):
		a.printf("wrong email or password")
		return err
	case err != nil:
		a.printf("login failed: %v", err)
		return err
	}

	a.session = sess
	a.printf("logged in as %s", sess.Username)

	if a.sync != nil {
		if _, _, err := a.sync.Pull(ctx, sess.UserID); err != nil {
			a.printf("warning: pull failed: %v", err)
		}
	}
	return nil
}

// bootstrapFromRemote signs in with the identity provider, fetches the user's
// remote hash and salt, and recreates the local account row.
func (a *App) bootstrapFromRemote(ctx context.Context, username, password string) error {
	idSess, err := a.identity.SignIn(ctx, username, password)
	if err != nil {
		return err
	}
	a.idSess = idSess

	ru, err := a.remoteStore.GetUser(ctx, idSess.UserID)
	if err != nil {
		return fmt.Errorf("remote account lookup: %w", err)
	}
	salt, err := base64.StdEncoding.DecodeString(ru.Salt)
	if err != nil {
		return fmt.Errorf("remote salt is malformed: %w", err)
	}

	user := &models.User{ID: ru.ID, Username: username, PasswordHash: ru.PasswordHash, Salt: salt}
	if err := a.store.Users.Create(ctx, user); err != nil {
		return err
	}
	a.printf("account restored from remote")
	return nil
}

// Logout wipes the session key and revokes the identity session if one exists.
func (a *App) Logout(ctx context.Context) error {
	if a.session != nil {
		a.session.Wipe()
		a.session = nil
	}
	if a.idSess != nil && a.identity != nil {
		if err := a.identity.SignOut(ctx, a.idSess.AccessToken); err != nil {
			a.log.Warn(ctx, "identity sign-out failed", "error", err)
		}
		a.idSess = nil
	}
	a.printf("logged out")
	return nil
}

// Add stores a new credential. An empty password prompt generates one.
func (a *App) Add(ctx context.Context) error {
	if !a.isLoggedIn() {
		return a.authRequired()
	}

	website, err := GetSimpleText(a.reader, "Website", a.out)
	if err != nil {
		return err
	}
	login, err := GetSimpleText(a.reader, "Login username", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword("Password (empty to generate)", a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	plain := string(password)
	if plain == "" {
		plain, err = passgen.Generate(16, 2)
		if err != nil {
			return err
		}
		a.printf("generated: %s", plain)
	}

	category, err := a.pickCategory()
	if err != nil {
		return err
	}

	_, err = a.creds.Store(ctx, a.session.UserID, website, login, plain, category,
		a.session.Key, a.config.DefaultTLD)
	if err != nil {
		a.printf("failed to store credential: %v", err)
		return err
	}
	a.printf("stored")
	return nil
}

func (a *App) pickCategory() (string, error) {
	cats := models.Categories()
	for i, c := range cats {
		a.printf("%2d. %s", i+1, c)
	}
	choice, err := GetSimpleText(a.reader, "Category (name or number, empty = Other)", a.out)
	if err != nil {
		return "", err
	}
	choice = strings.TrimSpace(choice)
	if choice == "" {
		return models.CategoryOther, nil
	}
	for i, c := range cats {
		if strings.EqualFold(c, choice) || choice == fmt.Sprint(i+1) {
			return c, nil
		}
	}
	return models.CategoryOther, nil
}

// List prints the user's credentials. An optional filter argument narrows by
// category, "All", or "Favorites".
func (a *App) List(ctx context.Context) error {
	if !a.isLoggedIn() {
		return a.authRequired()
	}

	filter, err := GetSimpleText(a.reader, "Filter (All, Favorites, or a category)", a.out)
	if err != nil {
		return err
	}
	if filter == "" {
		filter = models.FilterAll
	}

	views, err := a.creds.List(ctx, a.session.UserID, a.session.Key,
		credentials.Filter{Category: filter})
	if err != nil {
		a.printf("listing failed: %v", err)
		return err
	}
	if len(views) == 0 {
		a.printf("no credentials")
		return nil
	}

	for _, v := range views {
		marker := " "
		if v.Favorite {
			marker = "*"
		}
		if v.DecryptFailed {
			a.printf("%s %-30s %-20s <cannot decrypt> [%s]", marker, v.Website, v.LoginUsername, v.Category)
			continue
		}
		a.printf("%s %-30s %-20s %s [%s]", marker, v.Website, v.LoginUsername, v.Password, v.Category)
	}
	return nil
}

// Categories prints the (category, website) overview.
func (a *App) Categories(ctx context.Context) error {
	if !a.isLoggedIn() {
		return a.authRequired()
	}

	pairs, err := a.creds.Categories(ctx, a.session.UserID, a.session.Key)
	if err != nil {
		a.printf("failed: %v", err)
		return err
	}
	for _, p := range pairs {
		a.printf("%-12s %s", p.Category, p.Website)
	}
	return nil
}

// Edit rewrites a credential located by its current website and username.
func (a *App) Edit(ctx context.Context) error {
	if !a.isLoggedIn() {
		return a.authRequired()
	}

	oldWebsite, err := GetSimpleText(a.reader, "Current website", a.out)
	if err != nil {
		return err
	}
	oldLogin, err := GetSimpleText(a.reader, "Current login username", a.out)
	if err != nil {
		return err
	}
	newWebsite, err := GetSimpleText(a.reader, "New website", a.out)
	if err != nil {
		return err
	}
	newLogin, err := GetSimpleText(a.reader, "New login username", a.out)
	if err != nil {
		return err
	}
	newPassword, err := GetPassword("New password", a.out)
	if err != nil {
		return err
	}
	defer wipe(newPassword)

	err = a.creds.Edit(ctx, a.session.UserID, oldWebsite, oldLogin,
		newWebsite, newLogin, string(newPassword), a.session.Key)
	if errors.Is(err, common.ErrorNotFound) {
		a.printf("no such credential")
		return err
	}
	if err != nil {
		a.printf("edit failed: %v", err)
		return err
	}
	a.printf("updated")
	return nil
}

// Delete removes a credential located by website and username.
func (a *App) Delete(ctx context.Context) error {
	if !a.isLoggedIn() {
		return a.authRequired()
	}

	id, err := a.findByDisplay(ctx)
	if err != nil {
		return err
	}
	if err := a.creds.Delete(ctx, a.session.UserID, id); err != nil {
		a.printf("delete failed: %v", err)
		return err
	}
	a.printf("deleted")
	return nil
}

// Favorite toggles the favorite flag on a credential.
func (a *App) Favorite(ctx context.Context) error {
	return a.toggle(ctx, "favorite", func(id string, value bool) error {
		return a.creds.ToggleFavorite(ctx, id, value, a.session.Key)
	})
}

// Syncable toggles the syncable flag on a credential.
func (a *App) Syncable(ctx context.Context) error {
	return a.toggle(ctx, "syncable", func(id string, value bool) error {
		return a.creds.ToggleSyncable(ctx, id, value, a.session.Key)
	})
}

func (a *App) toggle(ctx context.Context, what string, set func(id string, value bool) error) error {
	if !a.isLoggedIn() {
		return a.authRequired()
	}

	id, err := a.findByDisplay(ctx)
	if err != nil {
		return err
	}
	answer, err := GetSimpleText(a.reader, "Set "+what+"? (y/n)", a.out)
	if err != nil {
		return err
	}
	value := strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")

	if err := set(id, value); err != nil {
		a.printf("failed: %v", err)
		return err
	}
	a.printf("%s = %v", what, value)
	return nil
}

func (a *App) findByDisplay(ctx context.Context) (string, error) {
	website, err := GetSimpleText(a.reader, "Website", a.out)
	if err != nil {
		return "", err
	}
	login, err := GetSimpleText(a.reader, "Login username", a.out)
	if err != nil {
		return "", err
	}
	id, err := a.store.Credentials.FindIDByDisplay(ctx, a.session.UserID, website, login)
	if errors.Is(err, common.ErrorNotFound) {
		a.printf("no such credential")
		return "", err
	}
	return id, err
}

// Generate prints a fresh random password and its strength.
func (a *App) Generate(ctx context.Context) error {
	pw, err := passgen.Generate(16, 2)
	if err != nil {
		return err
	}
	a.printf("%s  (%s)", pw, passgen.Score(pw))
	return nil
}

// Sync pushes modified rows and pulls the remote state.
func (a *App) Sync(ctx context.Context) error {
	if !a.isLoggedIn() {
		return a.authRequired()
	}
	if a.sync == nil {
		a.printf("sync is not configured")
		return nil
	}

	pushed, err := a.sync.PushModified(ctx)
	if err != nil {
		a.printf("push failed: %v", err)
		return err
	}
	inserted, updated, err := a.sync.Pull(ctx, a.session.UserID)
	if err != nil {
		a.printf("pull failed: %v", err)
		return err
	}
	a.printf("pushed %d, pulled %d new, %d updated", pushed, inserted, updated)
	return nil
}

// SyncAll re-uploads every syncable credential, repairing a diverged remote.
func (a *App) SyncAll(ctx context.Context) error {
	if !a.isLoggedIn() {
		return a.authRequired()
	}
	if a.sync == nil {
		a.printf("sync is not configured")
		return nil
	}

	n, err := a.sync.PushAll(ctx)
	if err != nil {
		a.printf("push failed: %v", err)
		return err
	}
	a.printf("pushed %d", n)
	return nil
}

// Backup snapshots the database locally and, when configured, uploads the
// snapshot to S3.
func (a *App) Backup(ctx context.Context) error {
	snap, err := backup.CopyLocal(a.config.DBPath, a.config.BackupDir)
	if err != nil {
		a.printf("backup failed: %v", err)
		return err
	}
	a.printf("snapshot written to %s", snap)

	if a.uploader != nil {
		key, err := a.uploader.Upload(ctx, snap)
		if err != nil {
			a.printf("upload failed: %v", err)
			return err
		}
		a.printf("uploaded as %s", key)
	}
	return nil
}

// Rotate changes the master password, re-encrypting every stored credential.
func (a *App) Rotate(ctx context.Context) error {
	if !a.isLoggedIn() {
		return a.authRequired()
	}

	oldPw, err := GetPassword("Current master password", a.out)
	if err != nil {
		return err
	}
	defer wipe(oldPw)
	newPw, err := GetPassword("New master password", a.out)
	if err != nil {
		return err
	}
	defer wipe(newPw)

	err = a.accounts.RotateMasterPassword(ctx, a.session.UserID, string(oldPw), string(newPw))
	switch {
	case errors.Is(err, common.ErrorRemoteUpdateFailed):
		// the local vault already took the new password, so the old session
		// key is stale even though the remote lagged behind
		a.session.Wipe()
		a.session = nil
		a.printf("password changed locally, but the remote copy is not updated yet; log in with the new password and rotate again when back online")
		return err
	case err != nil:
		a.printf("rotation failed: %v", err)
		return err
	}

	// the session key is stale now; force a fresh login
	a.session.Wipe()
	a.session = nil
	a.printf("password changed, log in again")
	return nil
}

// DeleteAccount removes the account and all its credentials.
func (a *App) DeleteAccount(ctx context.Context) error {
	if !a.isLoggedIn() {
		return a.authRequired()
	}

	pw, err := GetPassword("Master password to confirm", a.out)
	if err != nil {
		return err
	}
	defer wipe(pw)

	if err := a.accounts.DeleteAccount(ctx, a.session.UserID, string(pw)); err != nil {
		a.printf("failed: %v", err)
		return err
	}
	a.session.Wipe()
	a.session = nil
	a.printf("account deleted")
	return nil
}

func (a *App) authRequired() error {
	a.printf("log in first")
	return common.ErrorAuthRequired
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
