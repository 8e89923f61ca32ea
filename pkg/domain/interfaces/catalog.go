package interfaces

import (
	"context"
	"io"

	"github.com/m-mizutani/modsync/pkg/domain/model"
)

// LinkSource lists the files of a mod and resolves their download URLs
type LinkSource interface {
	// FileIDs returns the files of a mod. A mod without files yields an empty
	// slice and no error.
	FileIDs(ctx context.Context, domain model.GameDomain, modID model.ModID) ([]model.FileID, error)

	// DownloadURL resolves a (possibly signed) download URL of a file
	DownloadURL(ctx context.Context, domain model.GameDomain, modID model.ModID, fileID model.FileID) (string, error)
}

// CachedLinkSource is implemented by a LinkSource that already knows some
// download URLs locally. A hit is answered without contacting the catalog.
type CachedLinkSource interface {
	CachedDownloadURL(domain model.GameDomain, modID model.ModID, fileID model.FileID) (string, bool)
}

// NameSource provides the canonical display name of a mod
type NameSource interface {
	DisplayName(ctx context.Context, domain model.GameDomain, modID model.ModID) (string, error)
}

// NexusClient is the client of the curated mod repository
type NexusClient interface {
	LinkSource
	NameSource

	// TrackedModIDs returns the mods tracked by the owner of the API key
	TrackedModIDs(ctx context.Context) ([]model.ModID, error)
}

// GameBananaClient is the client of the community mod site
type GameBananaClient interface {
	LinkSource

	// Subscriptions returns the mods the member subscribed to
	Subscriptions(ctx context.Context, userID string) ([]model.Subscription, error)
}

// LinkStore persists resolved links between resolution and download
type LinkStore interface {
	Save(set model.LinkSet, path string) error
	Load(path string) (model.LinkSet, error)
}

// Notifier delivers a run summary to an external channel
type Notifier interface {
	Notify(ctx context.Context, summary *model.RunSummary) error
}

// Streamer fetches a URL into a writer and reports the status code
type Streamer interface {
	Stream(ctx context.Context, url string, w io.Writer) (int, error)
}
