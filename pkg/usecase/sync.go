package usecase

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/modsync/pkg/domain/interfaces"
	"github.com/m-mizutani/modsync/pkg/domain/model"
	"github.com/m-mizutani/modsync/pkg/domain/types"
	"github.com/m-mizutani/modsync/pkg/infra/linkstore"
	"github.com/m-mizutani/modsync/pkg/infra/transport"
	"github.com/m-mizutani/modsync/pkg/utils/throttle"
)

// Workflow names reported in a RunSummary
const (
	WorkflowNexus      = "nexus"
	WorkflowGameBanana = "gamebanana"
	WorkflowRename     = "rename"
)

type syncConfig struct {
	catalogLimiter *throttle.Limiter
	streamer       interfaces.Streamer
	resolverOpts   []ResolverOption
	downloaderOpts []DownloaderOption
	notifier       interfaces.Notifier
	linksOnly      bool
	fromLinks      bool
}

// SyncOption is a functional option shared by the workflows
type SyncOption func(*syncConfig)

// WithCatalogLimiter sets the limiter shared by every request to the catalog
func WithCatalogLimiter(limiter *throttle.Limiter) SyncOption {
	return func(c *syncConfig) {
		c.catalogLimiter = limiter
	}
}

// WithStreamer replaces the HTTP client used to download files
func WithStreamer(s interfaces.Streamer) SyncOption {
	return func(c *syncConfig) {
		c.streamer = s
	}
}

// WithResolverOptions passes options to the link resolver
func WithResolverOptions(opts ...ResolverOption) SyncOption {
	return func(c *syncConfig) {
		c.resolverOpts = append(c.resolverOpts, opts...)
	}
}

// WithDownloaderOptions passes options to the downloader
func WithDownloaderOptions(opts ...DownloaderOption) SyncOption {
	return func(c *syncConfig) {
		c.downloaderOpts = append(c.downloaderOpts, opts...)
	}
}

// WithNotifier sends the summary of every run to n
func WithNotifier(n interfaces.Notifier) SyncOption {
	return func(c *syncConfig) {
		c.notifier = n
	}
}

// WithLinksOnly stops the Nexus workflow after the link file is saved
func WithLinksOnly() SyncOption {
	return func(c *syncConfig) {
		c.linksOnly = true
	}
}

// WithFromLinks makes the Nexus workflow download the link file saved by a
// previous run instead of resolving links
func WithFromLinks() SyncOption {
	return func(c *syncConfig) {
		c.fromLinks = true
	}
}

func newSyncConfig(opts []SyncOption) *syncConfig {
	cfg := &syncConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.catalogLimiter == nil {
		cfg.catalogLimiter = throttle.New(DefaultCatalogInterval)
	}
	if cfg.streamer == nil {
		cfg.streamer = transport.New()
	}
	return cfg
}

// begin creates the summary of a run and a context whose logger carries the
// run ID
func begin(ctx context.Context, workflow string) (context.Context, *model.RunSummary) {
	summary := &model.RunSummary{
		RunID:     uuid.NewString(),
		Workflow:  workflow,
		StartedAt: time.Now(),
	}
	logger := ctxlog.From(ctx).With("run_id", summary.RunID, "workflow", workflow)
	logger.Info("Run started")
	return ctxlog.With(ctx, logger), summary
}

// finish logs the summary and hands it to the notifier. A failing notifier
// does not fail the run.
func (c *syncConfig) finish(ctx context.Context, summary *model.RunSummary) {
	logger := ctxlog.From(ctx)
	summary.Elapsed = time.Since(summary.StartedAt)

	logger.Info("Run finished",
		"domains", len(summary.Domains),
		"failed", summary.Failed(),
		"elapsed", summary.Elapsed,
	)

	if c.notifier == nil {
		return
	}
	if err := c.notifier.Notify(context.WithoutCancel(ctx), summary); err != nil {
		logger.Warn("Failed to send run summary", "error", err)
	}
}

// NexusSync resolves, saves, reloads and downloads the tracked mods of a
// Nexus Mods account for every requested domain
type NexusSync struct {
	client  interfaces.NexusClient
	store   interfaces.LinkStore
	baseDir string
	cfg     *syncConfig
}

// NewNexusSync creates the Nexus workflow writing below baseDir
func NewNexusSync(client interfaces.NexusClient, store interfaces.LinkStore, baseDir string, opts ...SyncOption) *NexusSync {
	return &NexusSync{
		client:  client,
		store:   store,
		baseDir: baseDir,
		cfg:     newSyncConfig(opts),
	}
}

// Run executes the workflow. Tracked mods are fetched once and resolved
// against each domain in the given order. A failure of one domain is
// recorded in its report and the next domain is processed; only
// cancellation, configuration and format errors end the run early.
func (x *NexusSync) Run(ctx context.Context, domains []model.GameDomain) (*model.RunSummary, error) {
	ctx, summary := begin(ctx, WorkflowNexus)
	defer x.cfg.finish(ctx, summary)
	logger := ctxlog.From(ctx)

	if len(domains) == 0 {
		return summary, goerr.New("at least one game domain is required", goerr.T(types.ErrTagConfiguration))
	}
	if x.cfg.linksOnly && x.cfg.fromLinks {
		return summary, goerr.New("links-only and from-links modes are exclusive", goerr.T(types.ErrTagConfiguration))
	}

	var tracked []model.ModID
	if !x.cfg.fromLinks {
		if err := x.cfg.catalogLimiter.Wait(ctx); err != nil {
			return summary, err
		}
		ids, err := x.client.TrackedModIDs(ctx)
		if err != nil {
			return summary, goerr.Wrap(err, "failed to fetch tracked mods")
		}
		logger.Info("Fetched tracked mods", "count", len(ids))
		tracked = ids
	}

	resolver := NewResolver(x.client, x.cfg.catalogLimiter, x.cfg.resolverOpts...)
	downloader := NewDownloader(x.baseDir, x.cfg.streamer, x.cfg.downloaderOpts...)

	for _, domain := range domains {
		report := &model.DomainReport{
			Domain:   domain,
			LinkFile: linkstore.Path(x.baseDir, domain),
		}
		summary.Domains = append(summary.Domains, report)

		if err := x.runDomain(ctx, resolver, downloader, tracked, report); err != nil {
			report.Err = err
			if ctx.Err() != nil || types.IsFatal(err) {
				return summary, err
			}
			logger.Error("Domain failed", "domain", domain, "error", err)
		}
	}

	return summary, nil
}

func (x *NexusSync) runDomain(ctx context.Context, resolver *Resolver, downloader *Downloader, tracked []model.ModID, report *model.DomainReport) error {
	if !x.cfg.fromLinks {
		resolved, err := resolver.ResolveAll(ctx, tracked, report.Domain)
		report.Resolve = resolved
		if err != nil {
			return err
		}
		if err := x.store.Save(resolved.Links, report.LinkFile); err != nil {
			return goerr.Wrap(err, "failed to save link file", goerr.V("path", report.LinkFile))
		}
		ctxlog.From(ctx).Info("Saved link file", "path", report.LinkFile, "links", len(resolved.Links))

		if x.cfg.linksOnly {
			return nil
		}
	}

	links, err := x.store.Load(report.LinkFile)
	if err != nil {
		return goerr.Wrap(err, "failed to load link file", goerr.V("path", report.LinkFile))
	}

	downloaded, err := downloader.DownloadAll(ctx, links, report.Domain)
	report.Download = downloaded
	return err
}

// GameBananaSync downloads the subscribed mods of a GameBanana member into
// one domain directory and renames their folders after the subscription
// names
type GameBananaSync struct {
	client  interfaces.GameBananaClient
	store   interfaces.LinkStore
	baseDir string
	cfg     *syncConfig
}

// NewGameBananaSync creates the GameBanana workflow writing below baseDir
func NewGameBananaSync(client interfaces.GameBananaClient, store interfaces.LinkStore, baseDir string, opts ...SyncOption) *GameBananaSync {
	return &GameBananaSync{
		client:  client,
		store:   store,
		baseDir: baseDir,
		cfg:     newSyncConfig(opts),
	}
}

// Run executes the workflow for the member userID
func (x *GameBananaSync) Run(ctx context.Context, userID string, domain model.GameDomain) (*model.RunSummary, error) {
	ctx, summary := begin(ctx, WorkflowGameBanana)
	defer x.cfg.finish(ctx, summary)

	if domain == "" {
		return summary, goerr.New("game domain is required", goerr.T(types.ErrTagConfiguration))
	}

	report := &model.DomainReport{
		Domain:   domain,
		LinkFile: linkstore.Path(x.baseDir, domain),
	}
	summary.Domains = append(summary.Domains, report)

	if err := x.run(ctx, userID, report); err != nil {
		report.Err = err
		return summary, err
	}
	return summary, nil
}

func (x *GameBananaSync) run(ctx context.Context, userID string, report *model.DomainReport) error {
	logger := ctxlog.From(ctx)

	if err := x.cfg.catalogLimiter.Wait(ctx); err != nil {
		return err
	}
	subs, err := x.client.Subscriptions(ctx, userID)
	if err != nil {
		return goerr.Wrap(err, "failed to fetch subscriptions", goerr.V("user_id", userID))
	}
	logger.Info("Fetched subscriptions", "count", len(subs))

	modIDs := make([]model.ModID, 0, len(subs))
	for _, s := range subs {
		modIDs = append(modIDs, s.ModID)
	}

	resolver := NewResolver(x.client, x.cfg.catalogLimiter, x.cfg.resolverOpts...)
	resolved, err := resolver.ResolveAll(ctx, modIDs, report.Domain)
	report.Resolve = resolved
	if err != nil {
		return err
	}

	if err := x.store.Save(resolved.Links, report.LinkFile); err != nil {
		return goerr.Wrap(err, "failed to save link file", goerr.V("path", report.LinkFile))
	}
	links, err := x.store.Load(report.LinkFile)
	if err != nil {
		return goerr.Wrap(err, "failed to load link file", goerr.V("path", report.LinkFile))
	}

	downloader := NewDownloader(x.baseDir, x.cfg.streamer, x.cfg.downloaderOpts...)
	downloaded, err := downloader.DownloadAll(ctx, links, report.Domain)
	report.Download = downloaded
	if err != nil {
		return err
	}

	reconciled, err := NewReconciler(NewNameTable(subs), nil).Reconcile(ctx, x.baseDir, report.Domain)
	report.Reconcile = reconciled
	return err
}

// Rename reconciles identifier-named folders of local domains with the
// display names of a catalog
type Rename struct {
	names   interfaces.NameSource
	baseDir string
	cfg     *syncConfig
}

// NewRename creates the rename workflow for the domains below baseDir
func NewRename(names interfaces.NameSource, baseDir string, opts ...SyncOption) *Rename {
	return &Rename{
		names:   names,
		baseDir: baseDir,
		cfg:     newSyncConfig(opts),
	}
}

// Run reconciles each domain. When no domain is given every directory below
// the base directory is treated as a domain.
func (x *Rename) Run(ctx context.Context, domains []model.GameDomain) (*model.RunSummary, error) {
	ctx, summary := begin(ctx, WorkflowRename)
	defer x.cfg.finish(ctx, summary)
	logger := ctxlog.From(ctx)

	if len(domains) == 0 {
		found, err := ListDomains(x.baseDir)
		if err != nil {
			return summary, err
		}
		if len(found) == 0 {
			logger.Warn("No game domains found", "base_dir", x.baseDir)
		}
		domains = found
	}

	reconciler := NewReconciler(x.names, x.cfg.catalogLimiter)
	for _, domain := range domains {
		reconciled, err := reconciler.Reconcile(ctx, x.baseDir, domain)
		report := &model.DomainReport{
			Domain:    domain,
			Reconcile: reconciled,
			Err:       err,
		}
		summary.Domains = append(summary.Domains, report)

		if err != nil {
			if ctx.Err() != nil {
				return summary, err
			}
			logger.Error("Domain failed", "domain", domain, "error", err)
		}
	}

	return summary, nil
}

// ListDomains returns the names of directories directly below baseDir in
// lexical order. A missing base directory yields no domains.
func ListDomains(baseDir string) ([]model.GameDomain, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to read base directory", goerr.V("dir", baseDir))
	}

	var domains []model.GameDomain
	for _, entry := range entries {
		if entry.IsDir() {
			domains = append(domains, model.GameDomain(entry.Name()))
		}
	}
	return domains, nil
}

var (
	_ interfaces.NexusSyncUseCase      = (*NexusSync)(nil)
	_ interfaces.GameBananaSyncUseCase = (*GameBananaSync)(nil)
	_ interfaces.RenameUseCase         = (*Rename)(nil)
	_ interfaces.NameSource            = NameTable(nil)
)
