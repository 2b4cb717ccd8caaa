package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_IsMatchesWellKnownCodes(t *testing.T) {
	notFound := &APIError{Code: CodeNotFound}
	expired := &APIError{Code: CodeExpiredToken}
	other := &APIError{Code: -42}

	assert.ErrorIs(t, notFound, ErrNotFound)
	assert.NotErrorIs(t, notFound, ErrTokenExpired)
	assert.ErrorIs(t, expired, ErrTokenExpired)
	assert.NotErrorIs(t, other, ErrNotFound)
	assert.NotErrorIs(t, other, ErrTokenExpired)
}

func TestAPIError_DirAndFileNotFoundAreIndistinguishable(t *testing.T) {
	require.Equal(t, CodeDirNotFound, CodeFileNotFound)
	assert.ErrorIs(t, &APIError{Code: CodeDirNotFound}, ErrNotFound)
	assert.ErrorIs(t, &APIError{Code: CodeFileNotFound}, ErrNotFound)
}

func TestAPIError_UnwrapAndMessage(t *testing.T) {
	err := &APIError{Code: CodeExpiredToken, HTTPStatus: 403, Msg: "failed after 5 tries", Err: ErrRetriesExhausted}
	wrapped := fmt.Errorf("upload: %w", err)

	assert.ErrorIs(t, wrapped, ErrRetriesExhausted)
	assert.ErrorIs(t, wrapped, ErrTokenExpired)
	assert.Contains(t, err.Error(), "agile status -10001")
	assert.Contains(t, err.Error(), "http status 403")
	assert.Equal(t, CodeExpiredToken, CodeOf(wrapped))
}

func TestCodeOf_NonAPIError(t *testing.T) {
	assert.Equal(t, CodeUnknownError, CodeOf(errors.New("boom")))
	assert.Equal(t, CodeUnknownError, CodeOf(nil))
}

func TestTransportError_Code(t *testing.T) {
	h := http.Header{}
	h.Set(StatusHeader, "-7")

	assert.Equal(t, -7, (&TransportError{StatusCode: 409, Header: h}).Code())
	assert.Equal(t, CodeUnknownError, (&TransportError{}).Code())
	assert.Contains(t, (&TransportError{Err: errors.New("refused")}).Error(), "refused")
}

func TestParseStatusHeader(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"success", "0", CodeSuccess},
		{"expired", "-10001", CodeExpiredToken},
		{"padded", " -1 ", CodeNotFound},
		{"missing", "", CodeUnknownError},
		{"garbage", "abc", CodeUnknownError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.raw != "" {
				h.Set(StatusHeader, tt.raw)
			}
			assert.Equal(t, tt.want, ParseStatusHeader(h))
		})
	}
}

func TestIsAuthStatus(t *testing.T) {
	for _, s := range []int{0, 401, 403, 500} {
		assert.True(t, IsAuthStatus(s), "status %d", s)
	}
	for _, s := range []int{200, 400, 404, 409, 502, 503} {
		assert.False(t, IsAuthStatus(s), "status %d", s)
	}
}
