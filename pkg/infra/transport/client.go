package transport

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/modsync/pkg/domain/types"
)

const (
	// DefaultTimeout bounds a catalog request including reading its body
	DefaultTimeout = time.Minute

	// DefaultResponseHeaderTimeout bounds the wait for the response header of
	// a streamed download. The body itself has no deadline.
	DefaultResponseHeaderTimeout = time.Minute

	dialTimeout         = 30 * time.Second
	tlsHandshakeTimeout = 30 * time.Second
)

// maxBodySize bounds catalog responses read into memory
const maxBodySize = 32 << 20

// Client performs plain HTTP GET requests. It is the only component that
// talks to the network; catalog clients and the downloader build on it.
type Client struct {
	httpClient   *http.Client
	streamClient *http.Client
	userAgent    string
}

// Option is a functional option for Client configuration
type Option func(*Client)

// WithHTTPClient replaces the http.Client used by Get
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout replaces the overall deadline of Get requests. Stream is not
// affected.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		client.httpClient = &http.Client{Timeout: d}
	}
}

// WithStreamClient replaces the http.Client used by Stream
func WithStreamClient(c *http.Client) Option {
	return func(client *Client) {
		client.streamClient = c
	}
}

// WithUserAgent sets the User-Agent header of every request
func WithUserAgent(ua string) Option {
	return func(client *Client) {
		client.userAgent = ua
	}
}

// New creates a new Client
func New(opts ...Option) *Client {
	client := &Client{
		httpClient:   &http.Client{Timeout: DefaultTimeout},
		streamClient: newStreamClient(),
		userAgent:    "modsync/" + types.Version,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// newStreamClient has no overall deadline, so large files may take as long
// as they need. Connecting and waiting for the header stay bounded.
func newStreamClient() *http.Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.DialContext = (&net.Dialer{
		Timeout:   dialTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	tr.TLSHandshakeTimeout = tlsHandshakeTimeout
	tr.ResponseHeaderTimeout = DefaultResponseHeaderTimeout
	return &http.Client{Transport: tr}
}

// Response is a fully read HTTP response
type Response struct {
	StatusCode int
	Body       []byte
}

// Get sends a GET request with header and reads the whole body. Only
// transport failures are returned as errors; any status code is a valid
// response.
func (c *Client) Get(ctx context.Context, url string, header http.Header) (*Response, error) {
	resp, err := c.do(ctx, c.httpClient, url, header)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read response body",
			goerr.V("url", url),
			goerr.T(types.ErrTagTransport))
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// Stream sends a GET request and copies the body into w when the status is
// 200. The status code is returned in every case where a response arrived.
func (c *Client) Stream(ctx context.Context, url string, w io.Writer) (int, error) {
	resp, err := c.do(ctx, c.streamClient, url, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// drain a little so the connection can be reused
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		return resp.StatusCode, nil
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return resp.StatusCode, goerr.Wrap(err, "failed to copy response body",
			goerr.V("url", url),
			goerr.T(types.ErrTagTransport))
	}

	return resp.StatusCode, nil
}

func (c *Client) do(ctx context.Context, httpClient *http.Client, url string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request",
			goerr.V("url", url),
			goerr.T(types.ErrTagProtocol))
	}

	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to send request",
			goerr.V("url", url),
			goerr.T(types.ErrTagTransport))
	}

	return resp, nil
}
