// Package pipeline orchestrates the feed-to-upload lifecycle: fetching
// feeds, extracting and downloading media, and relaying files to remote
// storage.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"feedrelay/internal/config"
	"feedrelay/internal/cookies"
	"feedrelay/internal/extract"
	"feedrelay/internal/feed"
	"feedrelay/internal/logging"
	"feedrelay/internal/naming"
	"feedrelay/internal/notifications"
	"feedrelay/internal/pool"
	"feedrelay/internal/reconcile"
	"feedrelay/internal/store"
	"feedrelay/internal/upload"
)

// FeedFetcher retrieves feed items for a source URL.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]feed.Item, error)
}

// CookieSource refreshes the local cookie cache from a remote service.
type CookieSource interface {
	Fetch(ctx context.Context) (map[string][]cookies.Cookie, error)
}

// Params bundles the collaborators a Pipeline needs.
type Params struct {
	Config    *config.Config
	Store     *store.Store
	Fetcher   FeedFetcher
	Extractor extract.Client
	Uploader  upload.Client
	Notifier  *notifications.Service
	Cookies   CookieSource
	Logger    *slog.Logger
}

// Pipeline runs the full reconcile-and-relay sequence. One Pipeline may
// be run repeatedly in scheduled mode; each Run builds fresh task pools.
type Pipeline struct {
	cfg       *config.Config
	store     *store.Store
	fetcher   FeedFetcher
	extractor extract.Client
	uploader  upload.Client
	notifier  *notifications.Service
	cookies   CookieSource
	logger    *slog.Logger
}

// New constructs a Pipeline. Fetcher, Extractor, and Uploader default to
// their CLI-backed implementations when unset.
func New(params Params) (*Pipeline, error) {
	if params.Config == nil {
		return nil, fmt.Errorf("config required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("store required")
	}
	logger := params.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &Pipeline{
		cfg:       params.Config,
		store:     params.Store,
		fetcher:   params.Fetcher,
		extractor: params.Extractor,
		uploader:  params.Uploader,
		notifier:  params.Notifier,
		cookies:   params.Cookies,
		logger:    logging.WithComponent(logger, "pipeline"),
	}
	if p.fetcher == nil {
		p.fetcher = feed.NewFetcher()
	}
	if p.extractor == nil {
		p.extractor = extract.NewCLI(extract.WithBinary(p.cfg.Extract.Binary))
	}
	if p.uploader == nil {
		p.uploader = upload.NewCLI(upload.WithBinary(p.cfg.Upload.Binary))
	}
	return p, nil
}

// run-scoped pools, rebuilt for every Run.
type pools struct {
	feeds     *pool.Pool
	downloads *pool.Pool
	uploads   *pool.Pool
}

// Run executes one full pass and blocks until the upload pool drains.
// Per-item failures are logged and recorded, never returned; the error
// covers only failures that stop the whole pass.
func (p *Pipeline) Run(ctx context.Context) error {
	p.refreshCookies(ctx)

	reconciler := reconcile.New(p.store, p.cfg.Paths.DataDir, p.cfg.Upload.RemotePath, p.logger)
	created, err := reconciler.Sync(ctx)
	if err != nil {
		return fmt.Errorf("reconcile local files: %w", err)
	}
	if created > 0 {
		p.logger.Info("reconciled local files", logging.Int("created", created))
	}

	run := &pools{
		feeds:     pool.New(p.cfg.Pipeline.FeedLimit),
		downloads: pool.New(p.cfg.Pipeline.DownloadLimit),
		uploads:   pool.New(p.cfg.Pipeline.UploadLimit),
	}

	if err := p.sweepPending(ctx, run); err != nil {
		return err
	}

	for _, source := range p.cfg.Feeds.Sources {
		source := source
		run.feeds.Submit(func() {
			p.processFeed(ctx, run, source)
		})
	}

	run.feeds.Wait()
	run.downloads.Wait()
	run.uploads.Wait()
	return ctx.Err()
}

// refreshCookies pulls a fresh cookie snapshot when a cookie service is
// configured. Failures degrade to the cached files on disk.
func (p *Pipeline) refreshCookies(ctx context.Context) {
	if p.cookies == nil {
		return
	}
	data, err := p.cookies.Fetch(ctx)
	if err != nil {
		p.logger.Warn("cookie refresh failed", logging.Error(err))
		return
	}
	if err := cookies.WriteFiles(p.cfg.Paths.CookieDir, data); err != nil {
		p.logger.Warn("cookie cache write failed", logging.Error(err))
		return
	}
	p.logger.Info("cookie cache refreshed", logging.Int("domains", len(data)))
}

// sweepPending enqueues uploads for every resource whose upload has not
// succeeded yet, covering both files found by the reconciler and
// failures from earlier runs.
func (p *Pipeline) sweepPending(ctx context.Context, run *pools) error {
	pending, err := p.store.ResourcesByUploadStatus(ctx, store.StatusUnknown, store.StatusFail)
	if err != nil {
		return fmt.Errorf("list pending uploads: %w", err)
	}
	for _, resource := range pending {
		if resource.DownloadStatus != store.StatusSuccess {
			continue
		}
		resource := resource
		run.uploads.Submit(func() {
			p.uploadResource(ctx, resource)
		})
	}
	if len(pending) > 0 {
		p.logger.Info("queued pending uploads", logging.Int("count", len(pending)))
	}
	return nil
}

func (p *Pipeline) processFeed(ctx context.Context, run *pools, source string) {
	items, err := p.fetcher.Fetch(ctx, source)
	if err != nil {
		p.logger.Error("feed fetch failed",
			logging.String("feed", source), logging.Error(err))
		return
	}
	p.logger.Info("fetched feed",
		logging.String("feed", source), logging.Int("items", len(items)))
	for _, item := range items {
		item := item
		run.downloads.Submit(func() {
			p.processItem(ctx, run, item)
		})
	}
}

// processItem runs the dedup gate and extraction for one feed item, then
// drives the download of every resolved media descriptor.
func (p *Pipeline) processItem(ctx context.Context, run *pools, item feed.Item) {
	parsed, err := url.Parse(item.Link)
	if err != nil || parsed.Host == "" {
		p.logger.Warn("skipping item with unusable link",
			logging.String("link", item.Link))
		return
	}
	link := parsed.String()

	seen, err := p.store.HasSeen(ctx, link)
	if err != nil {
		p.logger.Error("dedup lookup failed",
			logging.String("link", link), logging.Error(err))
		return
	}
	if seen {
		return
	}

	recordBefore := p.cfg.Pipeline.RecordSeenBeforeExtraction
	if recordBefore {
		if err := p.store.RecordSeen(ctx, link, item.Title); err != nil {
			p.logger.Error("dedup record failed",
				logging.String("link", link), logging.Error(err))
			return
		}
	}

	cookiePath := cookies.Resolve(p.cfg.Paths.CookieDir, parsed.Host)
	descriptors, err := p.extractor.FetchInfos(ctx, link, cookiePath)
	if err != nil {
		// With record-before semantics the item is permanently skipped;
		// otherwise a later run retries it.
		p.logger.Error("extraction failed",
			logging.String("link", link), logging.Error(err))
		return
	}
	if !recordBefore {
		if err := p.store.RecordSeen(ctx, link, item.Title); err != nil {
			p.logger.Error("dedup record failed",
				logging.String("link", link), logging.Error(err))
		}
	}

	for _, descriptor := range descriptors {
		p.processDescriptor(ctx, run, descriptor, cookiePath)
	}
}

// processDescriptor owns one (url, name) resource for the duration of
// its download and hands it to the upload pool afterwards.
func (p *Pipeline) processDescriptor(ctx context.Context, run *pools, descriptor extract.MediaDescriptor, cookiePath string) {
	baseName := naming.TargetName(descriptor.Title, descriptor.URL)
	videoName := baseName + ".mp4"
	sidecarName := baseName + ".cmt.xml"

	resource, err := p.store.FindResource(ctx, descriptor.URL, videoName)
	if err != nil {
		p.logger.Error("resource lookup failed",
			logging.String("name", videoName), logging.Error(err))
		return
	}
	if resource == nil {
		resource = &store.Resource{
			URL:            descriptor.URL,
			Name:           videoName,
			LocalPath:      filepath.Join(p.cfg.Paths.DataDir, videoName),
			RemotePath:     upload.RemotePath(p.cfg.Upload.RemotePath, videoName),
			DownloadStatus: store.StatusUnknown,
			UploadStatus:   store.StatusUnknown,
		}
		if err := p.store.UpsertResource(ctx, resource); err != nil {
			p.logger.Error("resource create failed",
				logging.String("name", videoName), logging.Error(err))
			return
		}
	}
	if resource.UploadStatus == store.StatusSuccess {
		return
	}

	if resource.DownloadStatus != store.StatusSuccess {
		if err := p.extractor.Download(ctx, descriptor.URL, cookiePath, p.cfg.Paths.DataDir, baseName); err != nil {
			p.logger.Error("download failed",
				logging.String("name", videoName), logging.Error(err))
			resource.DownloadStatus = store.StatusFail
			if err := p.store.UpsertResource(ctx, resource); err != nil {
				p.logger.Error("resource update failed",
					logging.String("name", videoName), logging.Error(err))
			}
			return
		}
		resource.DownloadStatus = store.StatusSuccess
		if info, statErr := os.Stat(resource.LocalPath); statErr == nil {
			resource.Size = info.Size()
			if mime, mimeErr := mimetype.DetectFile(resource.LocalPath); mimeErr == nil {
				resource.MimeType = mime.String()
			}
		}
		if err := p.store.UpsertResource(ctx, resource); err != nil {
			p.logger.Error("resource update failed",
				logging.String("name", videoName), logging.Error(err))
			return
		}
		p.logger.Info("downloaded",
			logging.String("name", videoName), logging.Int64("size", resource.Size))
	}

	uploadable := *resource
	run.uploads.Submit(func() {
		p.uploadResource(ctx, &uploadable)
	})
	run.uploads.Submit(func() {
		p.uploadSidecar(ctx, resource, sidecarName)
	})
}

// uploadResource relays one downloaded file and records the outcome. The
// local file is removed after a successful transfer when auto-remove is
// enabled; the row always persists.
func (p *Pipeline) uploadResource(ctx context.Context, resource *store.Resource) {
	if _, err := os.Stat(resource.LocalPath); err != nil {
		p.logger.Warn("skipping upload, local file missing",
			logging.String("name", resource.Name))
		return
	}

	if err := p.uploader.UniqUpload(ctx, resource.LocalPath, p.cfg.Upload.RemotePath); err != nil {
		p.logger.Error("upload failed",
			logging.String("name", resource.Name), logging.Error(err))
		resource.UploadStatus = store.StatusFail
	} else {
		resource.UploadStatus = store.StatusSuccess
	}
	if err := p.store.UpsertResource(ctx, resource); err != nil {
		p.logger.Error("resource update failed",
			logging.String("name", resource.Name), logging.Error(err))
		return
	}
	if resource.UploadStatus != store.StatusSuccess {
		return
	}

	p.logger.Info("uploaded",
		logging.String("name", resource.Name),
		logging.String("remote", resource.RemotePath))
	if p.notifier != nil {
		p.notifier.NotifyUploaded(ctx,
			fmt.Sprintf("Uploaded %s", resource.Name),
			fmt.Sprintf("%s is now at %s", resource.Name, resource.RemotePath))
	}
	if p.cfg.Pipeline.AutoRemove {
		if err := os.Remove(resource.LocalPath); err != nil {
			p.logger.Warn("auto-remove failed",
				logging.String("name", resource.Name), logging.Error(err))
		}
	}
}

// uploadSidecar relays a comment sidecar written next to the video when
// the extractor produced one. The sidecar gets its own resource row
// cloned from the video's.
func (p *Pipeline) uploadSidecar(ctx context.Context, parent *store.Resource, sidecarName string) {
	localPath := filepath.Join(p.cfg.Paths.DataDir, sidecarName)
	info, err := os.Stat(localPath)
	if err != nil {
		return
	}

	sidecar := parent.Clone()
	sidecar.Name = sidecarName
	sidecar.LocalPath = localPath
	sidecar.RemotePath = upload.RemotePath(p.cfg.Upload.RemotePath, sidecarName)
	sidecar.Size = info.Size()
	sidecar.MimeType = ""
	if mime, mimeErr := mimetype.DetectFile(localPath); mimeErr == nil {
		sidecar.MimeType = mime.String()
	}
	sidecar.DownloadStatus = store.StatusSuccess
	sidecar.UploadStatus = store.StatusUnknown

	p.uploadResource(ctx, sidecar)
}
