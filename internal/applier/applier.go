// Package applier materializes the active profile of a target app into
// that app's live config. Every write follows the temp-then-rename
// discipline, and the previous live bytes are copied to a per-app backup
// slot first, so a bad apply is always reversible and a crash mid-apply
// can never leave a half-written live config.
package applier

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/billie-coop/switchboard/internal/adapter"
	"github.com/billie-coop/switchboard/internal/fsutil"
	"github.com/billie-coop/switchboard/internal/profile"
	"github.com/billie-coop/switchboard/internal/store"
)

var (
	// ErrNoActiveProfile means no provider is active for the requested app.
	ErrNoActiveProfile = errors.New("no active profile for app")
	// ErrNoBackup means rollback was requested before any apply took a backup.
	ErrNoBackup = errors.New("no backup available for app")
)

// Applier orchestrates resolve → render → backup → atomic replace.
type Applier struct {
	store     *store.Store
	home      string
	backupDir string
	overrides map[profile.App]adapter.Paths

	// writeFile is swappable so tests can inject failures between the
	// backup and the live write.
	writeFile func(path string, data []byte, perm os.FileMode) error
}

// Option configures an Applier.
type Option func(*Applier)

// WithLivePaths overrides the conventional live file locations for app.
func WithLivePaths(app profile.App, paths adapter.Paths) Option {
	return func(a *Applier) {
		a.overrides[app] = paths
	}
}

// New creates an Applier writing live configs under home and backups under
// backupDir.
func New(s *store.Store, home, backupDir string, opts ...Option) *Applier {
	a := &Applier{
		store:     s,
		home:      home,
		backupDir: backupDir,
		overrides: map[profile.App]adapter.Paths{},
		writeFile: fsutil.WriteFileAtomic,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// LivePaths returns where app's live files are written.
func (a *Applier) LivePaths(app profile.App) (adapter.Paths, error) {
	ad, err := adapter.For(app)
	if err != nil {
		return adapter.Paths{}, err
	}
	if p, ok := a.overrides[app]; ok {
		return p, nil
	}
	return ad.Paths(a.home), nil
}

func (a *Applier) backupPaths(app profile.App) adapter.Paths {
	return adapter.Paths{
		Main: filepath.Join(a.backupDir, string(app)+".bak"),
		Aux:  filepath.Join(a.backupDir, string(app)+".aux.bak"),
	}
}

// Apply renders the active profile for app into its live config. On any
// failure before the final rename the live files are untouched; the backup
// slot is only ever consumed by an explicit Rollback, never automatically.
func (a *Applier) Apply(app profile.App) error {
	ad, err := adapter.For(app)
	if err != nil {
		return err
	}
	id, ok := a.store.ActiveID(app)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoActiveProfile, app)
	}
	active, err := a.store.Get(profile.KindProvider, app, id)
	if err != nil {
		return err
	}

	live, err := a.LivePaths(app)
	if err != nil {
		return err
	}
	current, err := readDocument(live)
	if err != nil {
		return err
	}

	rendered, err := ad.Render(active, current, a.store.List(profile.KindMcp, ""))
	if err != nil {
		return err
	}

	if err := a.takeBackup(app, live); err != nil {
		return err
	}

	// Aux first: if the main write then fails, the old main document still
	// pairs with a usable auth file.
	if len(rendered.Aux) > 0 && live.Aux != "" {
		if err := a.writeFile(live.Aux, rendered.Aux, 0o600); err != nil {
			return err
		}
	}
	return a.writeFile(live.Main, rendered.Main, 0o600)
}

// Rollback restores the backup slot over the live config, atomically.
func (a *Applier) Rollback(app profile.App) error {
	if _, err := adapter.For(app); err != nil {
		return err
	}
	live, err := a.LivePaths(app)
	if err != nil {
		return err
	}
	backup := a.backupPaths(app)

	data, err := os.ReadFile(backup.Main)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNoBackup, app)
	}
	if err != nil {
		return fmt.Errorf("failed to read backup for %s: %w", app, err)
	}

	if live.Aux != "" {
		auxData, auxErr := os.ReadFile(backup.Aux)
		switch {
		case auxErr == nil:
			if err := a.writeFile(live.Aux, auxData, 0o600); err != nil {
				return err
			}
		case os.IsNotExist(auxErr):
			// No aux file existed before the last apply, so the one the
			// apply created has to go for rollback to be an exact inverse.
			if err := os.Remove(live.Aux); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove %s: %w", live.Aux, err)
			}
		default:
			return fmt.Errorf("failed to read aux backup for %s: %w", app, auxErr)
		}
	}
	return a.writeFile(live.Main, data, 0o600)
}

// takeBackup copies the current live bytes into the app's single backup
// slot, overwriting the previous backup. A missing live file means a fresh
// install; nothing to back up.
func (a *Applier) takeBackup(app profile.App, live adapter.Paths) error {
	backup := a.backupPaths(app)
	if _, err := os.Stat(live.Main); err == nil {
		if err := fsutil.CopyFile(backup.Main, live.Main); err != nil {
			return fmt.Errorf("failed to back up %s: %w", live.Main, err)
		}
	}
	if live.Aux != "" {
		if _, err := os.Stat(live.Aux); err == nil {
			if err := fsutil.CopyFile(backup.Aux, live.Aux); err != nil {
				return fmt.Errorf("failed to back up %s: %w", live.Aux, err)
			}
		} else if err := os.Remove(backup.Aux); err != nil && !os.IsNotExist(err) {
			// The empty slot records that no aux file existed.
			return fmt.Errorf("failed to clear aux backup for %s: %w", app, err)
		}
	}
	return nil
}

func readDocument(live adapter.Paths) (adapter.Document, error) {
	var doc adapter.Document
	data, err := os.ReadFile(live.Main)
	if err != nil && !os.IsNotExist(err) {
		return doc, fmt.Errorf("failed to read %s: %w", live.Main, err)
	}
	doc.Main = data
	if live.Aux != "" {
		aux, err := os.ReadFile(live.Aux)
		if err != nil && !os.IsNotExist(err) {
			return doc, fmt.Errorf("failed to read %s: %w", live.Aux, err)
		}
		doc.Aux = aux
	}
	return doc, nil
}
