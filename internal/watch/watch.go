// Package watch runs a drop-directory importer: files placed in the
// watched directory are imported into the graph, journaled, and renamed
// with an ".imported" suffix. A content checksum recorded in the journal
// keeps re-dropped files from being uploaded twice — the upload itself
// has no idempotence to lean on.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/graphsvc"
	"github.com/starford/ansuz/internal/journal"
)

// importedSuffix marks files the watcher has finished with.
const importedSuffix = ".imported"

// importable reports whether a file name is a supported drop format.
func importable(name string) bool {
	if strings.HasSuffix(name, importedSuffix) {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown", ".txt", ".json":
		return true
	}
	return false
}

// Run watches dir and imports dropped files until ctx is cancelled.
// Files already present at startup are swept first.
func Run(ctx context.Context, svc *graphsvc.Service, db *journal.DB, dir string, logger *slog.Logger) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("dir", dir))

	sweep(ctx, svc, db, dir, logger)

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !importable(ev.Name) {
				continue
			}
			if info, statErr := os.Stat(ev.Name); statErr != nil || info.IsDir() {
				continue
			}
			if err := processFile(ctx, svc, db, ev.Name, logger); err != nil {
				logger.Warn("watcher: import failed",
					slog.String("path", ev.Name),
					slog.String("error", err.Error()))
			}

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: fsnotify error", slog.String("error", werr.Error()))
		}
	}
}

// sweep imports files already sitting in the drop directory.
func sweep(ctx context.Context, svc *graphsvc.Service, db *journal.DB, dir string, logger *slog.Logger) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("watcher: sweep failed", slog.String("error", err.Error()))
		return
	}
	for _, e := range entries {
		if ctx.Err() != nil {
			return
		}
		if e.IsDir() || !importable(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := processFile(ctx, svc, db, path, logger); err != nil {
			logger.Warn("watcher: import failed",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
	}
}

// processFile imports one dropped file, journals the run, and renames
// the file out of the way. A file whose content checksum is already in
// the journal is renamed without re-importing.
func processFile(ctx context.Context, svc *graphsvc.Service, db *journal.DB, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	sum := checksum.Sum(data)
	seen, err := db.AlreadyImported(sum)
	if err != nil {
		return err
	}
	if seen {
		logger.Info("watcher: content already imported, skipping",
			slog.String("path", path))
		return os.Rename(path, path+importedSuffix)
	}

	started := time.Now().UTC()
	res, importErr := svc.ImportFile(ctx, path)

	run := journal.Run{
		Kind:       journal.KindImport,
		Source:     path,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	}
	if res != nil {
		run.PageTitle = res.PageTitle
		run.PageUID = res.PageUID
		run.Created = res.Report.Created
		run.Failed = res.Report.Failed
	}
	if importErr != nil {
		run.Error = importErr.Error()
	}
	if jerr := db.Record(run); jerr != nil {
		logger.Warn("watcher: journal write failed", slog.String("error", jerr.Error()))
	}
	if importErr != nil {
		return importErr
	}

	if err := db.MarkImported(sum, path); err != nil {
		logger.Warn("watcher: checksum record failed", slog.String("error", err.Error()))
	}
	logger.Info("watcher: imported",
		slog.String("path", path),
		slog.String("page", res.PageTitle),
		slog.Int("created", res.Report.Created))
	return os.Rename(path, path+importedSuffix)
}
