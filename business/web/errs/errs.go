// Package errs provides the error types the node API surfaces to clients.
package errs

import "errors"

// Response is the shape of every error reply from the node API.
type Response struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted carries an error whose message is safe to return to the caller,
// together with the HTTP status to respond with.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted wraps an expected handler error with an HTTP status code.
// Anything not wrapped this way is reported to the client as a bare 500.
func NewTrusted(err error, status int) error {
	return &Trusted{err, status}
}

// Error implements the error interface using the wrapped error's message.
func (t *Trusted) Error() string {
	return t.Err.Error()
}

// IsTrusted reports whether a Trusted error exists in the chain.
func IsTrusted(err error) bool {
	var t *Trusted
	return errors.As(err, &t)
}

// GetTrusted extracts the Trusted error from the chain, or nil.
func GetTrusted(err error) *Trusted {
	var t *Trusted
	if !errors.As(err, &t) {
		return nil
	}
	return t
}
