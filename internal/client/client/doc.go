// Package client contains the client-side transport and storage bootstrap
// for AideMoi.
//
// HTTPClient talks to the auth API over JSON. It unwraps the
// {success, message, data, error} envelope, applies a per-request timeout
// and reports three kinds of failure that callers tell apart with errors.Is
// and errors.As:
//
//   - ErrTimeout: the request did not finish within the configured timeout.
//   - ErrUnavailable: the server could not be reached at all.
//   - *APIError: the server answered with a non-2xx status and a message.
//
// InitDatabase opens the local SQLite database and applies the embedded
// goose migrations.
package client
