// Package reconcile syncs files already on disk into the resource store
// so pre-existing downloads are picked up by the upload sweep.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"feedrelay/internal/logging"
	"feedrelay/internal/store"
	"feedrelay/internal/upload"
)

// Reconciler scans the data directory and records unknown files.
type Reconciler struct {
	store     *store.Store
	dataDir   string
	remoteDir string
	logger    *slog.Logger
}

// New constructs a Reconciler over the given data directory.
func New(st *store.Store, dataDir, remoteDir string, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Reconciler{store: st, dataDir: dataDir, remoteDir: remoteDir, logger: logger}
}

// Sync walks the data directory once and inserts a resource row for
// every completed file the store does not know yet. Files still being
// written (a .download marker suffix), hidden files, and directories
// are skipped. Known names are left untouched so repeated syncs are
// idempotent. Returns the number of rows created.
func (r *Reconciler) Sync(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(r.dataDir)
	if err != nil {
		return 0, fmt.Errorf("read data dir: %w", err)
	}

	created := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return created, ctx.Err()
		}
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".download") {
			continue
		}

		existing, err := r.store.FindResourceByName(ctx, name)
		if err != nil {
			return created, err
		}
		if existing != nil {
			continue
		}

		localPath := filepath.Join(r.dataDir, name)
		info, err := os.Stat(localPath)
		if err != nil {
			// Names with unusual characters can fail to resolve; leave
			// them for a later run rather than recording a bad row.
			r.logger.Warn("skipping unreadable file",
				logging.String("file", name), logging.Error(err))
			continue
		}
		mime, err := mimetype.DetectFile(localPath)
		if err != nil {
			r.logger.Warn("skipping unprobeable file",
				logging.String("file", name), logging.Error(err))
			continue
		}

		resource := &store.Resource{
			URL:            "",
			Name:           name,
			LocalPath:      localPath,
			RemotePath:     upload.RemotePath(r.remoteDir, name),
			MimeType:       mime.String(),
			Size:           info.Size(),
			DownloadStatus: store.StatusSuccess,
			UploadStatus:   store.StatusUnknown,
		}
		if err := r.store.UpsertResource(ctx, resource); err != nil {
			return created, err
		}
		created++
		r.logger.Info("recorded local file",
			logging.String("file", name),
			logging.Int64("size", info.Size()),
			logging.String("type", mime.String()))
	}
	return created, nil
}
