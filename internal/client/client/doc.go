// Package client is the high level Agile API client.
//
// # Overview
//
// Client exposes every remote operation of the service as a Go method:
// directory and file management over JSON-RPC, raw uploads and multipart
// uploads over HTTP POST. Each call goes through the retry layer, so expired
// tokens are renewed transparently and the caller only sees business errors
// or exhausted retries.
//
// # Error Handling
//
// Remote failures are *common.APIError values. Callers match well-known
// conditions with errors.Is against common.ErrNotFound, common.ErrTokenExpired,
// common.ErrAuthentication and common.ErrRetriesExhausted. A result that
// cannot be decoded is reported as an APIError with common.CodeUnknownError.
//
// # Progress
//
// Upload progress is delivered to the callback attached to the call context
// with progress.WithFunc.
//
// # Concurrency
//
// A Client is safe for concurrent use. All calls share one login session.
package client
