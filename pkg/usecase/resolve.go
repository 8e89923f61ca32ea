package usecase

import (
	"context"
	"slices"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/modsync/pkg/domain/interfaces"
	"github.com/m-mizutani/modsync/pkg/domain/model"
	"github.com/m-mizutani/modsync/pkg/domain/types"
	"github.com/m-mizutani/modsync/pkg/utils/retry"
	"github.com/m-mizutani/modsync/pkg/utils/throttle"
)

// DefaultCatalogInterval is the minimum interval between two catalog requests
const DefaultCatalogInterval = time.Second

// Resolver turns mod IDs into download links of one catalog
type Resolver struct {
	source  interfaces.LinkSource
	limiter *throttle.Limiter
	policy  retry.Policy
}

// ResolverOption is a functional option for Resolver
type ResolverOption func(*Resolver)

// WithResolveRetry sets the retry policy of catalog calls. The Retryable
// function of the policy is replaced so that only transport failures are
// retried.
func WithResolveRetry(policy retry.Policy) ResolverOption {
	return func(r *Resolver) {
		policy.Retryable = isTransportError
		r.policy = policy
	}
}

// NewResolver creates a Resolver. limiter must be shared with every other
// caller of the same catalog; nil creates a private limiter with the default
// interval.
func NewResolver(source interfaces.LinkSource, limiter *throttle.Limiter, opts ...ResolverOption) *Resolver {
	if limiter == nil {
		limiter = throttle.New(DefaultCatalogInterval)
	}
	r := &Resolver{
		source:  source,
		limiter: limiter,
		policy:  retry.Policy{MaxAttempts: 1, Retryable: isTransportError},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func isTransportError(err error) bool {
	return goerr.HasTag(err, types.ErrTagTransport)
}

// ResolveAll lists files of every mod and resolves a download URL per file.
// Mods are processed in ascending ID order and duplicates are ignored. A
// failing mod or file is recorded as skipped and resolution continues. When
// ctx is cancelled the partial report is returned together with the error.
func (r *Resolver) ResolveAll(ctx context.Context, modIDs []model.ModID, domain model.GameDomain) (*model.ResolveReport, error) {
	logger := ctxlog.From(ctx).With("domain", domain)

	report := &model.ResolveReport{
		Domain: domain,
		Links:  model.LinkSet{},
	}

	ids := slices.Clone(modIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	for _, modID := range ids {
		var fileIDs []model.FileID
		err := r.call(ctx, func(ctx context.Context) error {
			var err error
			fileIDs, err = r.source.FileIDs(ctx, domain, modID)
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				return report, goerr.Wrap(ctx.Err(), "link resolution interrupted", goerr.V("mod_id", modID))
			}
			logger.Warn("Failed to list files of mod", "mod_id", modID, "error", err)
			report.Skipped = append(report.Skipped, model.SkippedLink{ModID: modID, Reason: err.Error()})
			continue
		}

		if len(fileIDs) == 0 {
			logger.Info("Mod has no files", "mod_id", modID)
			continue
		}

		for _, fileID := range fileIDs {
			if url, ok := r.cached(domain, modID, fileID); ok {
				report.Links.Add(modID, fileID, url)
				logger.Debug("Resolved download link from listing", "mod_id", modID, "file_id", fileID)
				continue
			}

			var url string
			err := r.call(ctx, func(ctx context.Context) error {
				var err error
				url, err = r.source.DownloadURL(ctx, domain, modID, fileID)
				return err
			})
			if err != nil {
				if ctx.Err() != nil {
					return report, goerr.Wrap(ctx.Err(), "link resolution interrupted",
						goerr.V("mod_id", modID),
						goerr.V("file_id", fileID))
				}
				logger.Warn("Failed to resolve download link", "mod_id", modID, "file_id", fileID, "error", err)
				report.Skipped = append(report.Skipped, model.SkippedLink{ModID: modID, FileID: fileID, Reason: err.Error()})
				continue
			}

			report.Links.Add(modID, fileID, url)
			logger.Debug("Resolved download link", "mod_id", modID, "file_id", fileID)
		}
	}

	logger.Info("Link resolution finished",
		"mods", len(ids),
		"links", len(report.Links),
		"skipped", len(report.Skipped),
	)

	return report, nil
}

// cached answers a download URL the source already holds, which costs no
// catalog request and so no limiter wait
func (r *Resolver) cached(domain model.GameDomain, modID model.ModID, fileID model.FileID) (string, bool) {
	cs, ok := r.source.(interfaces.CachedLinkSource)
	if !ok {
		return "", false
	}
	return cs.CachedDownloadURL(domain, modID, fileID)
}

// call waits for the limiter before every attempt
func (r *Resolver) call(ctx context.Context, fn func(ctx context.Context) error) error {
	result := r.policy.Do(ctx, func(ctx context.Context, _ retry.Attempt) error {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
		return fn(ctx)
	}, func(attempt retry.Attempt, err error) {
		if !attempt.Last && isTransportError(err) {
			ctxlog.From(ctx).Debug("Catalog call failed, retrying", "attempt", attempt.Number, "error", err)
		}
	})
	return result.Err
}
