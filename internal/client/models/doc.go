// Package models holds the results of Agile API calls, decoded either from
// JSON-RPC results or from the headers of upload responses.
package models
