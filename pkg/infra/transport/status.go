package transport

import (
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/modsync/pkg/domain/types"
)

// CheckStatus converts a non-200 status into a tagged error. 404 means the
// remote has no record, 408, 429 and 5xx are transient, anything else is an
// unexpected response.
func CheckStatus(status int, url string) error {
	switch {
	case status == http.StatusOK:
		return nil

	case status == http.StatusNotFound:
		return goerr.New("remote record not found",
			goerr.V("url", url),
			goerr.V("status", status),
			goerr.T(types.ErrTagNotFound))

	case IsTransientStatus(status):
		return goerr.New("transient remote failure",
			goerr.V("url", url),
			goerr.V("status", status),
			goerr.T(types.ErrTagTransport))

	default:
		return goerr.New("unexpected status code",
			goerr.V("url", url),
			goerr.V("status", status),
			goerr.T(types.ErrTagProtocol))
	}
}

// IsTransientStatus returns true for status codes worth retrying
func IsTransientStatus(status int) bool {
	return status == http.StatusRequestTimeout ||
		status == http.StatusTooManyRequests ||
		status >= http.StatusInternalServerError
}
