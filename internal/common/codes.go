package common

import (
	"net/http"
	"strconv"
	"strings"
)

// Application status codes returned by the service, either in an RPC result
// or in the StatusHeader of an HTTP response.
const (
	CodeSuccess      = 0
	CodeNotFound     = -1
	CodeUnknownError = -999
	CodeExpiredToken = -10001
)

// The service reports a missing directory and a missing file with the same
// code. Both names are kept so call sites read naturally, but they cannot be
// told apart.
const (
	CodeDirNotFound  = CodeNotFound
	CodeFileNotFound = CodeNotFound
)

// ParseStatusHeader returns the application code carried by h. A missing or
// malformed header yields CodeUnknownError.
func ParseStatusHeader(h http.Header) int {
	raw := strings.TrimSpace(h.Get(StatusHeader))
	if raw == "" {
		return CodeUnknownError
	}
	code, err := strconv.Atoi(raw)
	if err != nil {
		return CodeUnknownError
	}
	return code
}

// IsAuthStatus reports whether an HTTP status from an upload endpoint means
// the session should be dropped and re-established. Status 0 stands for
// "no response at all".
func IsAuthStatus(status int) bool {
	switch status {
	case 0, http.StatusUnauthorized, http.StatusForbidden, http.StatusInternalServerError:
		return true
	}
	return false
}
