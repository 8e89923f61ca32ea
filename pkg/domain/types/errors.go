package types

import "github.com/m-mizutani/goerr/v2"

// Error tags classify failures of the sync pipeline. Per-item failures
// (transport, protocol, not found) are recorded in reports; configuration and
// format failures are fatal to a run.
var (
	// ErrTagConfiguration marks a missing credential or required input. It is
	// always raised before any I/O is attempted.
	ErrTagConfiguration = goerr.NewTag("configuration")

	// ErrTagTransport marks connection, timeout, TLS or retryable status failures.
	ErrTagTransport = goerr.NewTag("transport")

	// ErrTagProtocol marks a response that does not match the expected schema.
	ErrTagProtocol = goerr.NewTag("protocol")

	// ErrTagNotFound marks a remote that has no record for the request.
	ErrTagNotFound = goerr.NewTag("not_found")

	// ErrTagFormat marks a malformed persisted link file.
	ErrTagFormat = goerr.NewTag("format")
)

// IsFatal reports whether err must stop the whole run instead of a single item.
func IsFatal(err error) bool {
	return goerr.HasTag(err, ErrTagConfiguration) || goerr.HasTag(err, ErrTagFormat)
}
