package retry

import (
	"encoding/json"

	"github.com/dmitrijs2005/agileclient/internal/common"
)

// ArgMaker builds the final positional parameters of an RPC call from the
// current session token. It is evaluated once per attempt so a re-login is
// picked up by the next attempt.
type ArgMaker func(token string) []any

// TokenArgs prepends the session token to args.
func TokenArgs(args ...any) ArgMaker {
	return func(token string) []any {
		out := make([]any, 0, len(args)+1)
		out = append(out, token)
		return append(out, args...)
	}
}

// RawArgs passes args through unchanged, for calls where the caller already
// placed a token explicitly (logout of a given token).
func RawArgs(args ...any) ArgMaker {
	return func(string) []any {
		out := make([]any, len(args))
		copy(out, args)
		return out
	}
}

// CodeGetter extracts the application status from an RPC result. It never
// fails: undecodable results yield common.CodeUnknownError.
type CodeGetter func(result json.RawMessage) int

// ScalarCode reads the whole result as an integer code.
func ScalarCode(result json.RawMessage) int {
	var code *int
	if err := json.Unmarshal(result, &code); err != nil || code == nil {
		return common.CodeUnknownError
	}
	return *code
}

// FieldCode reads the named member of an object result as an integer code.
func FieldCode(name string) CodeGetter {
	return func(result json.RawMessage) int {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(result, &obj); err != nil || obj == nil {
			return common.CodeUnknownError
		}
		raw, ok := obj[name]
		if !ok {
			return common.CodeUnknownError
		}
		return ScalarCode(raw)
	}
}

// DictCode reads the "code" member of an object result.
var DictCode = FieldCode("code")
