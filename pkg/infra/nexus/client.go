package nexus

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/modsync/pkg/domain/model"
	"github.com/m-mizutani/modsync/pkg/domain/types"
	"github.com/m-mizutani/modsync/pkg/infra/transport"
)

const (
	// DefaultBaseURL is the public API endpoint of Nexus Mods
	DefaultBaseURL = "https://api.nexusmods.com"

	// DefaultFileCategory selects the files listed for a mod
	DefaultFileCategory = "main"

	// linkExpires is sent with download link requests. The API ignores it for
	// premium accounts.
	linkExpires = "999999"
)

// Client is a client of the Nexus Mods v1 API. Every request carries the API
// key in the apikey header.
type Client struct {
	transport    *transport.Client
	baseURL      string
	apiKey       types.Credential
	fileCategory string
}

// Option is a functional option for Client configuration
type Option func(*Client)

// WithBaseURL overrides the API endpoint
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTransport replaces the HTTP transport
func WithTransport(t *transport.Client) Option {
	return func(c *Client) {
		if t != nil {
			c.transport = t
		}
	}
}

// WithFileCategory sets the category filter of file listings
func WithFileCategory(category string) Option {
	return func(c *Client) {
		c.fileCategory = category
	}
}

// NewClient creates a Nexus Mods client. A missing API key is reported here,
// before any request is attempted.
func NewClient(apiKey types.Credential, opts ...Option) (*Client, error) {
	if apiKey.IsEmpty() {
		return nil, goerr.New("API key of Nexus Mods is required", goerr.T(types.ErrTagConfiguration))
	}

	client := &Client{
		transport:    transport.New(),
		baseURL:      DefaultBaseURL,
		apiKey:       apiKey,
		fileCategory: DefaultFileCategory,
	}
	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// TrackedModIDs returns the mods tracked by the owner of the API key, in
// response order without duplicates
func (c *Client) TrackedModIDs(ctx context.Context) ([]model.ModID, error) {
	logger := ctxlog.From(ctx)

	body, err := c.get(ctx, "/v1/user/tracked_mods.json", nil)
	if err != nil {
		if goerr.HasTag(err, types.ErrTagNotFound) {
			logger.Warn("Tracked mods endpoint returned no data")
			return []model.ModID{}, nil
		}
		return nil, goerr.Wrap(err, "failed to fetch tracked mods")
	}

	decoded := decodeTrackedMods(body)
	switch decoded.Kind {
	case model.DecodeMalformed:
		return nil, goerr.Wrap(decoded.Err, "unexpected tracked mods response", goerr.T(types.ErrTagProtocol))
	case model.DecodeEmpty:
		logger.Info("No mods found in the tracked mods response")
		return []model.ModID{}, nil
	}

	ids := make([]model.ModID, 0, len(decoded.Items))
	seen := make(map[model.ModID]struct{}, len(decoded.Items))
	for _, id := range decoded.Items {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	logger.Info("Retrieved tracked mods", "count", len(ids))
	return ids, nil
}

// FileIDs returns the files of a mod in the configured category
func (c *Client) FileIDs(ctx context.Context, domain model.GameDomain, modID model.ModID) ([]model.FileID, error) {
	logger := ctxlog.From(ctx)

	path := "/v1/games/" + url.PathEscape(domain.String()) + "/mods/" + modID.String() + "/files.json"
	query := url.Values{}
	if c.fileCategory != "" {
		query.Set("category", c.fileCategory)
	}

	body, err := c.get(ctx, path, query)
	if err != nil {
		if goerr.HasTag(err, types.ErrTagNotFound) {
			logger.Info("No files found for mod", "domain", domain, "mod_id", modID)
			return []model.FileID{}, nil
		}
		return nil, goerr.Wrap(err, "failed to fetch files", goerr.V("mod_id", modID), goerr.V("domain", domain))
	}

	decoded := decodeFileList(body)
	switch decoded.Kind {
	case model.DecodeMalformed:
		return nil, goerr.Wrap(decoded.Err, "unexpected file list response",
			goerr.V("mod_id", modID),
			goerr.V("domain", domain),
			goerr.T(types.ErrTagProtocol))
	case model.DecodeEmpty:
		logger.Info("No files found for mod", "domain", domain, "mod_id", modID)
		return []model.FileID{}, nil
	}

	logger.Debug("Retrieved file IDs", "domain", domain, "mod_id", modID, "count", len(decoded.Items))
	return decoded.Items, nil
}

// DownloadURL returns the first download link generated for a file
func (c *Client) DownloadURL(ctx context.Context, domain model.GameDomain, modID model.ModID, fileID model.FileID) (string, error) {
	path := "/v1/games/" + url.PathEscape(domain.String()) + "/mods/" + modID.String() +
		"/files/" + fileID.String() + "/download_link.json"
	query := url.Values{"expires": []string{linkExpires}}

	body, err := c.get(ctx, path, query)
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate download link",
			goerr.V("mod_id", modID),
			goerr.V("file_id", fileID),
			goerr.V("domain", domain))
	}

	decoded := decodeDownloadLinks(body)
	switch decoded.Kind {
	case model.DecodeMalformed:
		return "", goerr.Wrap(decoded.Err, "unexpected download link response",
			goerr.V("mod_id", modID),
			goerr.V("file_id", fileID),
			goerr.T(types.ErrTagProtocol))
	case model.DecodeEmpty:
		return "", goerr.New("no download link found",
			goerr.V("mod_id", modID),
			goerr.V("file_id", fileID),
			goerr.T(types.ErrTagNotFound))
	}

	return decoded.Items[0], nil
}

// DisplayName returns the name of a mod as shown on the site
func (c *Client) DisplayName(ctx context.Context, domain model.GameDomain, modID model.ModID) (string, error) {
	path := "/v1/games/" + url.PathEscape(domain.String()) + "/mods/" + modID.String()

	body, err := c.get(ctx, path, nil)
	if err != nil {
		return "", goerr.Wrap(err, "failed to fetch mod", goerr.V("mod_id", modID), goerr.V("domain", domain))
	}

	name, err := decodeModName(body)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read mod name", goerr.V("mod_id", modID), goerr.V("domain", domain))
	}

	return name, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	header := http.Header{}
	header.Set("accept", "application/json")
	header.Set("apikey", c.apiKey.String())

	ctxlog.From(ctx).Debug("Requesting Nexus Mods API", "url", endpoint)

	resp, err := c.transport.Get(ctx, endpoint, header)
	if err != nil {
		return nil, err
	}
	if err := transport.CheckStatus(resp.StatusCode, endpoint); err != nil {
		return nil, err
	}

	return resp.Body, nil
}
