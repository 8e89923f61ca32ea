package types

// Credential is a secret value such as an API key. Loggers configured by the
// CLI redact every attribute of this type.
type Credential string

// String returns the raw secret. Call it only when building a request.
func (c Credential) String() string {
	return string(c)
}

// IsEmpty returns true when no credential was provided
func (c Credential) IsEmpty() bool {
	return c == ""
}
