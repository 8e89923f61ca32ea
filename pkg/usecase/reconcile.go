package usecase

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/modsync/pkg/domain/interfaces"
	"github.com/m-mizutani/modsync/pkg/domain/model"
	"github.com/m-mizutani/modsync/pkg/domain/types"
	"github.com/m-mizutani/modsync/pkg/utils/throttle"
	"github.com/spf13/afero"
)

// CanonicalMarker is written into a reconciled folder whose display name is
// itself a number. It holds the mod ID the folder was named from, so the
// folder is not mistaken for an identifier-named one on the next run.
const CanonicalMarker = ".modsync-id"

// Reconciler renames identifier-named mod folders after the display name of
// the mod. When a folder with the display name already exists the two are
// merged.
type Reconciler struct {
	names   interfaces.NameSource
	limiter *throttle.Limiter
	fs      afero.Fs
}

// ReconcilerOption is a functional option for Reconciler
type ReconcilerOption func(*Reconciler)

// WithFs replaces the filesystem, the OS filesystem by default
func WithFs(fsys afero.Fs) ReconcilerOption {
	return func(r *Reconciler) {
		r.fs = fsys
	}
}

// NewReconciler creates a Reconciler. nil limiter disables rate limiting of
// name lookups.
func NewReconciler(names interfaces.NameSource, limiter *throttle.Limiter, opts ...ReconcilerOption) *Reconciler {
	if limiter == nil {
		limiter = throttle.New(0)
	}
	r := &Reconciler{
		names:   names,
		limiter: limiter,
		fs:      afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile processes the immediate subdirectories of {modsRoot}/{domain}
// whose names are mod IDs. Other entries are left untouched. A missing domain
// directory yields an empty report. Failures of one folder are recorded and
// never stop the others.
func (r *Reconciler) Reconcile(ctx context.Context, modsRoot string, domain model.GameDomain) (*model.ReconcileReport, error) {
	logger := ctxlog.From(ctx).With("domain", domain)
	report := &model.ReconcileReport{Domain: domain}

	domainDir := filepath.Join(modsRoot, domain.String())
	entries, err := afero.ReadDir(r.fs, domainDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("Domain directory not found, nothing to reconcile", "dir", domainDir)
			return report, nil
		}
		return nil, goerr.Wrap(err, "failed to read domain directory", goerr.V("dir", domainDir))
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		modID, ok := model.ParseModID(entry.Name())
		if !ok {
			continue
		}
		if r.isCanonical(filepath.Join(domainDir, entry.Name()), modID) {
			continue
		}

		if err := ctx.Err(); err != nil {
			return report, goerr.Wrap(err, "reconciliation interrupted", goerr.V("domain", domain))
		}
		if err := r.limiter.Wait(ctx); err != nil {
			return report, goerr.Wrap(err, "reconciliation interrupted", goerr.V("domain", domain))
		}

		outcome := r.reconcileFolder(ctx, domainDir, domain, modID, entry.Name())
		report.Outcomes = append(report.Outcomes, outcome)

		switch outcome.Action {
		case model.FolderFailed:
			logger.Error("Failed to reconcile mod folder", "mod_id", modID, "reason", outcome.Reason)
		case model.FolderSkipped:
			logger.Warn("Skipped mod folder", "mod_id", modID, "reason", outcome.Reason)
		default:
			logger.Info("Reconciled mod folder",
				"mod_id", modID,
				"action", outcome.Action,
				"destination", outcome.Destination,
			)
		}
	}

	logger.Info("Reconciliation finished",
		"folders", len(report.Outcomes),
		"renamed", report.Count(model.FolderRenamed),
		"merged", report.Count(model.FolderMerged),
		"skipped", report.Count(model.FolderSkipped),
		"failed", report.Count(model.FolderFailed),
	)

	return report, nil
}

// isCanonical reports whether a numeric folder was named by an earlier run
// after a different mod
func (r *Reconciler) isCanonical(dir string, folderID model.ModID) bool {
	raw, err := afero.ReadFile(r.fs, filepath.Join(dir, CanonicalMarker))
	if err != nil {
		return false
	}
	origin, ok := model.ParseModID(strings.TrimSpace(string(raw)))
	return ok && origin != folderID
}

func (r *Reconciler) reconcileFolder(ctx context.Context, domainDir string, domain model.GameDomain, modID model.ModID, folder string) model.FolderOutcome {
	outcome := model.FolderOutcome{
		ModID:  modID,
		Source: filepath.Join(domainDir, folder),
	}

	displayName, err := r.names.DisplayName(ctx, domain, modID)
	if err != nil {
		outcome.Action = model.FolderSkipped
		outcome.Reason = err.Error()
		return outcome
	}

	name := model.SanitizeName(displayName)
	if !model.IsUsableName(name) {
		outcome.Action = model.FolderSkipped
		outcome.Reason = "display name is not usable as a folder name: " + displayName
		return outcome
	}

	outcome.Destination = filepath.Join(domainDir, name)
	if name == folder {
		outcome.Action = model.FolderUnchanged
		return outcome
	}

	info, err := lstat(r.fs, outcome.Destination)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := r.fs.Rename(outcome.Source, outcome.Destination); err != nil {
			outcome.Action = model.FolderFailed
			outcome.Reason = err.Error()
			return outcome
		}
		outcome.Action = model.FolderRenamed

	case err != nil:
		outcome.Action = model.FolderFailed
		outcome.Reason = err.Error()
		return outcome

	case info.IsDir():
		if err := Combine(r.fs, outcome.Destination, outcome.Source); err != nil {
			outcome.Action = model.FolderFailed
			outcome.Reason = err.Error()
			return outcome
		}
		outcome.Action = model.FolderMerged

	default:
		outcome.Action = model.FolderFailed
		outcome.Reason = "destination exists and is not a directory"
		return outcome
	}

	if _, numeric := model.ParseModID(name); numeric {
		marker := filepath.Join(outcome.Destination, CanonicalMarker)
		if err := afero.WriteFile(r.fs, marker, []byte(modID.String()+"\n"), 0644); err != nil {
			ctxlog.From(ctx).Warn("Failed to mark folder as reconciled", "path", marker, "error", err)
		}
	}

	return outcome
}

// Combine merges the tree of src into dst on fsys. Files of src overwrite
// files of dst, directories are merged recursively and created when missing.
// Symbolic links are copied as links and never followed. src is left in
// place.
func Combine(fsys afero.Fs, dst, src string) error {
	info, err := lstat(fsys, src)
	if err != nil {
		return goerr.Wrap(err, "failed to stat merge source", goerr.V("src", src))
	}
	if !info.IsDir() {
		return goerr.New("merge source is not a directory", goerr.V("src", src))
	}

	if err := ensureDir(fsys, dst, info.Mode().Perm()); err != nil {
		return err
	}

	entries, err := afero.ReadDir(fsys, src)
	if err != nil {
		return goerr.Wrap(err, "failed to read merge source", goerr.V("src", src))
	}

	for _, entry := range entries {
		from := filepath.Join(src, entry.Name())
		to := filepath.Join(dst, entry.Name())

		switch mode := entry.Mode(); {
		case mode&fs.ModeSymlink != 0:
			if err := copySymlink(fsys, to, from); err != nil {
				return err
			}
		case mode.IsDir():
			if err := Combine(fsys, to, from); err != nil {
				return err
			}
		case mode.IsRegular():
			if err := copyFile(fsys, to, from); err != nil {
				return err
			}
		default:
			// sockets, devices and pipes are not part of a mod
			continue
		}
	}

	return nil
}

// lstat does not follow a final symlink when fsys supports it
func lstat(fsys afero.Fs, path string) (fs.FileInfo, error) {
	if l, ok := fsys.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)
		return info, err
	}
	return fsys.Stat(path)
}

func ensureDir(fsys afero.Fs, dir string, perm fs.FileMode) error {
	info, err := lstat(fsys, dir)
	if err == nil {
		if !info.IsDir() {
			return goerr.New("merge destination is not a directory", goerr.V("dst", dir))
		}
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return goerr.Wrap(err, "failed to stat merge destination", goerr.V("dst", dir))
	}
	if err := fsys.Mkdir(dir, perm|0700); err != nil {
		return goerr.Wrap(err, "failed to create directory", goerr.V("dst", dir))
	}
	return nil
}

// replaceable removes a non-directory entry at path so that it can be
// overwritten without following a link
func replaceable(fsys afero.Fs, path string) error {
	info, err := lstat(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return goerr.Wrap(err, "failed to stat merge destination", goerr.V("dst", path))
	}
	if info.IsDir() {
		return goerr.New("cannot overwrite a directory with a file", goerr.V("dst", path))
	}
	if err := fsys.Remove(path); err != nil {
		return goerr.Wrap(err, "failed to remove merge destination", goerr.V("dst", path))
	}
	return nil
}

func copySymlink(fsys afero.Fs, dst, src string) error {
	reader, okRead := fsys.(afero.LinkReader)
	linker, okLink := fsys.(afero.Linker)
	if !okRead || !okLink {
		return goerr.New("filesystem does not support symlinks", goerr.V("src", src))
	}

	target, err := reader.ReadlinkIfPossible(src)
	if err != nil {
		return goerr.Wrap(err, "failed to read symlink", goerr.V("src", src))
	}
	if err := replaceable(fsys, dst); err != nil {
		return err
	}
	if err := linker.SymlinkIfPossible(target, dst); err != nil {
		return goerr.Wrap(err, "failed to create symlink", goerr.V("dst", dst), goerr.V("target", target))
	}
	return nil
}

func copyFile(fsys afero.Fs, dst, src string) error {
	in, err := fsys.Open(src)
	if err != nil {
		return goerr.Wrap(err, "failed to open file", goerr.V("src", src))
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return goerr.Wrap(err, "failed to stat file", goerr.V("src", src))
	}

	if err := replaceable(fsys, dst); err != nil {
		return err
	}

	out, err := fsys.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return goerr.Wrap(err, "failed to create file", goerr.V("dst", dst))
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return goerr.Wrap(err, "failed to copy file", goerr.V("src", src), goerr.V("dst", dst))
	}
	if err := out.Close(); err != nil {
		return goerr.Wrap(err, "failed to close file", goerr.V("dst", dst))
	}
	return nil
}

// NameTable is a NameSource backed by names known in advance, such as the
// subscription names of a GameBanana member
type NameTable map[model.ModID]string

// NewNameTable creates a NameTable from subscriptions
func NewNameTable(subs []model.Subscription) NameTable {
	table := make(NameTable, len(subs))
	for _, s := range subs {
		table[s.ModID] = s.Name
	}
	return table
}

// DisplayName returns the name registered for modID
func (t NameTable) DisplayName(_ context.Context, domain model.GameDomain, modID model.ModID) (string, error) {
	name, ok := t[modID]
	if !ok || name == "" {
		return "", goerr.New("mod name is unknown",
			goerr.V("domain", domain),
			goerr.V("mod_id", modID),
			goerr.T(types.ErrTagNotFound))
	}
	return name, nil
}
