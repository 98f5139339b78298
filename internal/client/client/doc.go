// Package client contains the client-side building blocks that talk to the
// outside world: the journey REST API and the device database.
//
// # API
//
// Client is the transport-agnostic contract: the three-step media upload
// protocol (Uploader), a health probe (Pinger), Login and Me. HTTPClient
// implements it over net/http and JSON.
//
// Error mapping:
//
//   - transport failures and 5xx responses wrap ErrUnavailable
//   - 401 and 403 wrap ErrUnauthorized
//   - other non-2xx responses are returned as *APIError
//
// # Persistence
//
// InitDatabase opens SQLite (modernc.org/sqlite through sqlx), applies the
// embedded goose migrations and returns the handle; NewRepositories wires
// the repositories on top of it.
package client
