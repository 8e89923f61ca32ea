package gamebanana

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/modsync/pkg/domain/model"
	"github.com/m-mizutani/modsync/pkg/domain/types"
	"github.com/m-mizutani/modsync/pkg/infra/transport"
)

// DefaultBaseURL is the public endpoint of GameBanana
const DefaultBaseURL = "https://gamebanana.com"

// Client is a client of the GameBanana apiv11 API. The API is public, so no
// credential is sent.
type Client struct {
	transport *transport.Client
	baseURL   string

	mu    sync.Mutex
	files map[model.LinkKey]string
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

// NewClient creates a GameBanana client
func NewClient(opts ...Option) *Client {
	client := &Client{
		transport: transport.New(),
		baseURL:   DefaultBaseURL,
		files:     make(map[model.LinkKey]string),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Subscriptions returns the mods a member subscribed to. Subscriptions of
// other kinds (tools, sounds, members) are ignored.
func (c *Client) Subscriptions(ctx context.Context, userID string) ([]model.Subscription, error) {
	logger := ctxlog.From(ctx)

	if userID == "" {
		return nil, goerr.New("GameBanana user ID is required", goerr.T(types.ErrTagConfiguration))
	}

	body, err := c.get(ctx, "/apiv11/Member/"+url.PathEscape(userID)+"/Subscriptions", nil)
	if err != nil {
		if goerr.HasTag(err, types.ErrTagNotFound) {
			logger.Warn("No subscriptions found for member", "user_id", userID)
			return []model.Subscription{}, nil
		}
		return nil, goerr.Wrap(err, "failed to fetch subscriptions", goerr.V("user_id", userID))
	}

	decoded := decodeSubscriptions(ctx, body)
	switch decoded.Kind {
	case model.DecodeMalformed:
		return nil, goerr.Wrap(decoded.Err, "unexpected subscriptions response",
			goerr.V("user_id", userID),
			goerr.T(types.ErrTagProtocol))
	case model.DecodeEmpty:
		logger.Info("No subscribed mods found", "user_id", userID)
		return []model.Subscription{}, nil
	}

	logger.Info("Retrieved subscribed mods", "user_id", userID, "count", len(decoded.Items))
	return decoded.Items, nil
}

// FileIDs lists the files of a mod. The download URLs of the listing are kept
// so that DownloadURL does not need another request.
func (c *Client) FileIDs(ctx context.Context, domain model.GameDomain, modID model.ModID) ([]model.FileID, error) {
	logger := ctxlog.From(ctx)

	query := url.Values{"_csvProperties": []string{"_aFiles"}}
	body, err := c.get(ctx, "/apiv11/Mod/"+modID.String(), query)
	if err != nil {
		if goerr.HasTag(err, types.ErrTagNotFound) {
			logger.Info("No files found for mod", "mod_id", modID)
			return []model.FileID{}, nil
		}
		return nil, goerr.Wrap(err, "failed to fetch mod files", goerr.V("mod_id", modID))
	}

	decoded := decodeFiles(body)
	switch decoded.Kind {
	case model.DecodeMalformed:
		return nil, goerr.Wrap(decoded.Err, "unexpected mod files response",
			goerr.V("mod_id", modID),
			goerr.T(types.ErrTagProtocol))
	case model.DecodeEmpty:
		logger.Info("No files found for mod", "mod_id", modID)
		return []model.FileID{}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]model.FileID, 0, len(decoded.Items))
	for _, f := range decoded.Items {
		c.files[model.LinkKey{ModID: modID, FileID: f.ID}] = f.URL
		ids = append(ids, f.ID)
	}

	return ids, nil
}

// DownloadURL returns the URL of a file listed by the last FileIDs call for
// the mod
func (c *Client) DownloadURL(ctx context.Context, domain model.GameDomain, modID model.ModID, fileID model.FileID) (string, error) {
	u, ok := c.CachedDownloadURL(domain, modID, fileID)
	if !ok {
		return "", goerr.New("file is not listed for mod",
			goerr.V("mod_id", modID),
			goerr.V("file_id", fileID),
			goerr.T(types.ErrTagNotFound))
	}
	return u, nil
}

// CachedDownloadURL looks up a URL kept by FileIDs without any request
func (c *Client) CachedDownloadURL(_ model.GameDomain, modID model.ModID, fileID model.FileID) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	u, ok := c.files[model.LinkKey{ModID: modID, FileID: fileID}]
	return u, ok
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	ctxlog.From(ctx).Debug("Requesting GameBanana API", "url", endpoint)

	resp, err := c.transport.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if err := transport.CheckStatus(resp.StatusCode, endpoint); err != nil {
		return nil, err
	}
	return resp.Body, nil
}
