package usecase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/modsync/pkg/domain/interfaces"
	"github.com/m-mizutani/modsync/pkg/domain/model"
	"github.com/m-mizutani/modsync/pkg/domain/types"
	"github.com/m-mizutani/modsync/pkg/infra/transport"
	"github.com/m-mizutani/modsync/pkg/utils/retry"
	"github.com/m-mizutani/modsync/pkg/utils/throttle"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultDownloadAttempts is the number of transfer attempts per record
	DefaultDownloadAttempts = 5

	// DefaultDownloadRetryDelay is waited between two attempts of a record
	DefaultDownloadRetryDelay = 5 * time.Second

	// DefaultDownloadInterval is the minimum gap between two transfer
	// requests, retries included, so consecutive records are always at least
	// this far apart whatever the outcome of the first one
	DefaultDownloadInterval = time.Second

	partSuffix = ".part"
)

// Downloader fetches every record of a link set into
// {base}/{domain}/{modID}/{file name}
type Downloader struct {
	baseDir string
	client  interfaces.Streamer
	limiter *throttle.Limiter
	policy  retry.Policy
	workers int
}

// DownloaderOption is a functional option for Downloader
type DownloaderOption func(*Downloader)

// WithDownloadRetry replaces the default policy of 5 attempts 5 seconds apart
func WithDownloadRetry(policy retry.Policy) DownloaderOption {
	return func(d *Downloader) {
		d.policy = policy
	}
}

// WithDownloadLimiter replaces the limiter awaited before every transfer attempt
func WithDownloadLimiter(limiter *throttle.Limiter) DownloaderOption {
	return func(d *Downloader) {
		d.limiter = limiter
	}
}

// WithWorkers sets the number of records downloaded in parallel. Workers
// share the limiter.
func WithWorkers(n int) DownloaderOption {
	return func(d *Downloader) {
		if n > 0 {
			d.workers = n
		}
	}
}

// NewDownloader creates a Downloader writing below baseDir
func NewDownloader(baseDir string, client interfaces.Streamer, opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		baseDir: baseDir,
		client:  client,
		limiter: throttle.New(DefaultDownloadInterval),
		policy: retry.Policy{
			MaxAttempts: DefaultDownloadAttempts,
			Delay:       DefaultDownloadRetryDelay,
		},
		workers: 1,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DownloadAll attempts every record of set and reports one outcome per
// record in (mod ID, file ID) order. A failing record never stops the batch.
// Cancellation of ctx is observed between records: a transfer in progress
// completes, records not started yet are reported as cancelled and the
// context error is returned with the report.
func (d *Downloader) DownloadAll(ctx context.Context, set model.LinkSet, domain model.GameDomain) (*model.DownloadReport, error) {
	logger := ctxlog.From(ctx).With("domain", domain)
	started := time.Now()

	records := set.Records()
	outcomes := make([]model.DownloadOutcome, len(records))
	for i, rec := range records {
		outcomes[i] = model.DownloadOutcome{
			LinkKey: rec.LinkKey,
			URL:     rec.URL,
			Status:  model.DownloadCancelled,
			Path:    d.destination(domain, rec),
			Reason:  "not started",
		}
	}

	workers := min(d.workers, len(records))
	var next atomic.Int64

	var eg errgroup.Group
	for range workers {
		eg.Go(func() error {
			for {
				if ctx.Err() != nil {
					return nil
				}
				idx := int(next.Add(1) - 1)
				if idx >= len(records) {
					return nil
				}
				outcomes[idx] = d.download(ctx, domain, records[idx])
			}
		})
	}
	_ = eg.Wait()

	report := &model.DownloadReport{
		Domain:   domain,
		Outcomes: outcomes,
		Elapsed:  time.Since(started),
	}

	logger.Info("Download finished",
		"records", len(records),
		"succeeded", report.Count(model.DownloadSucceeded),
		"failed", report.Count(model.DownloadFailed),
		"cancelled", report.Count(model.DownloadCancelled),
		"elapsed", report.Elapsed,
	)

	if err := ctx.Err(); err != nil && report.Count(model.DownloadCancelled) > 0 {
		return report, goerr.Wrap(err, "download interrupted",
			goerr.V("domain", domain),
			goerr.V("cancelled", report.Count(model.DownloadCancelled)))
	}

	return report, nil
}

func (d *Downloader) destination(domain model.GameDomain, rec model.LinkRecord) string {
	return filepath.Join(d.baseDir, domain.String(), rec.ModID.String(), FileName(rec))
}

func (d *Downloader) download(ctx context.Context, domain model.GameDomain, rec model.LinkRecord) model.DownloadOutcome {
	logger := ctxlog.From(ctx).With("domain", domain, "mod_id", rec.ModID, "file_id", rec.FileID)

	outcome := model.DownloadOutcome{
		LinkKey: rec.LinkKey,
		URL:     rec.URL,
		Path:    d.destination(domain, rec),
	}

	if err := os.MkdirAll(filepath.Dir(outcome.Path), 0755); err != nil {
		outcome.Status = model.DownloadFailed
		outcome.Reason = goerr.Wrap(err, "failed to create mod directory").Error()
		logger.Error("Download failed", "path", outcome.Path, "error", err)
		return outcome
	}

	reqURL := EscapeSpaces(rec.URL)
	transfers := 0
	result := d.policy.Do(ctx, func(ctx context.Context, attempt retry.Attempt) error {
		if err := d.limiter.Wait(ctx); err != nil {
			return err
		}
		transfers++
		// the transfer itself is never interrupted
		return d.transfer(context.WithoutCancel(ctx), reqURL, outcome.Path)
	}, func(attempt retry.Attempt, err error) {
		if ctx.Err() != nil {
			return
		}
		logger.Warn("Download attempt failed",
			"attempt", attempt.Number,
			"max_attempts", d.policy.MaxAttempts,
			"error", err,
		)
	})

	outcome.Attempts = transfers
	switch {
	case result.Err == nil:
		outcome.Status = model.DownloadSucceeded
		logger.Info("Downloaded file", "path", outcome.Path, "attempts", transfers)
	case ctx.Err() != nil && transfers == 0:
		outcome.Status = model.DownloadCancelled
		outcome.Reason = "not started"
	case ctx.Err() != nil:
		outcome.Status = model.DownloadCancelled
		outcome.Reason = result.Err.Error()
		logger.Warn("Download cancelled", "path", outcome.Path, "attempts", transfers)
	default:
		outcome.Status = model.DownloadFailed
		outcome.Reason = result.Err.Error()
		logger.Error("Download failed permanently", "path", outcome.Path, "attempts", transfers, "error", result.Err)
	}

	return outcome
}

// transfer streams rawURL into dst through a temporary file. dst is only
// replaced when the transfer succeeded with status 200.
func (d *Downloader) transfer(ctx context.Context, rawURL, dst string) error {
	part := dst + partSuffix
	f, err := os.Create(part)
	if err != nil {
		return goerr.Wrap(err, "failed to create file", goerr.V("path", part))
	}

	status, err := d.client.Stream(ctx, rawURL, f)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = goerr.Wrap(closeErr, "failed to close file", goerr.V("path", part))
	}
	if err == nil && status != http.StatusOK {
		err = transport.CheckStatus(status, rawURL)
	}
	if err != nil {
		_ = os.Remove(part)
		return err
	}

	if err := os.Rename(part, dst); err != nil {
		_ = os.Remove(part)
		return goerr.Wrap(err, "failed to move downloaded file into place",
			goerr.V("path", dst),
			goerr.T(types.ErrTagTransport))
	}
	return nil
}

// EscapeSpaces replaces spaces of a URL with %20
func EscapeSpaces(rawURL string) string {
	return strings.ReplaceAll(rawURL, " ", "%20")
}

// FileName derives the local file name of a record from the last path
// segment of its URL, without the query. Records whose URL yields no usable
// name are stored as mod_{modID}_file_{fileID}.zip.
func FileName(rec model.LinkRecord) string {
	fallback := fmt.Sprintf("mod_%d_file_%d.zip", rec.ModID, rec.FileID)

	u, err := url.Parse(EscapeSpaces(rec.URL))
	if err != nil {
		return fallback
	}

	segment := path.Base(u.Path)
	if segment == "/" {
		return fallback
	}

	name := model.SanitizeName(segment)
	if !model.IsUsableName(name) {
		return fallback
	}
	return name
}
