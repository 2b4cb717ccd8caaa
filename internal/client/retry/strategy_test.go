package retry

import (
	"encoding/json"
	"testing"

	"github.com/dmitrijs2005/agileclient/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenArgs_PrependsToken(t *testing.T) {
	mk := TokenArgs("/a/b", 10, true)
	require.Equal(t, []any{"tok", "/a/b", 10, true}, mk("tok"))
	require.Equal(t, []any{"tok2", "/a/b", 10, true}, mk("tok2"))
	require.Equal(t, []any{"tok"}, TokenArgs()("tok"))
}

func TestRawArgs_IgnoresToken(t *testing.T) {
	mk := RawArgs("explicit-token")
	require.Equal(t, []any{"explicit-token"}, mk("session-token"))

	got := mk("x")
	got[0] = "mutated"
	require.Equal(t, []any{"explicit-token"}, mk("y"))
}

func TestScalarCode(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{`0`, common.CodeSuccess},
		{`-10001`, common.CodeExpiredToken},
		{`-1`, common.CodeNotFound},
		{`"0"`, common.CodeUnknownError},
		{`{"code": 0}`, common.CodeUnknownError},
		{`null`, common.CodeUnknownError},
		{``, common.CodeUnknownError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ScalarCode(json.RawMessage(tt.raw)), "raw %q", tt.raw)
	}
}

func TestFieldCode(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{`{"code": 0, "size": 12}`, common.CodeSuccess},
		{`{"code": -10001}`, common.CodeExpiredToken},
		{`{"size": 12}`, common.CodeUnknownError},
		{`{"code": "x"}`, common.CodeUnknownError},
		{`0`, common.CodeUnknownError},
		{`[1,2]`, common.CodeUnknownError},
		{`null`, common.CodeUnknownError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DictCode(json.RawMessage(tt.raw)), "raw %q", tt.raw)
	}

	status := FieldCode("status")
	assert.Equal(t, -3, status(json.RawMessage(`{"status": -3, "code": 0}`)))
}
