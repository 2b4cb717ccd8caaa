package retry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/agileclient/internal/common"
)

// RPCInvoker is a one-shot JSON-RPC call. It returns the decoded result or an
// error on network or protocol failure.
type RPCInvoker interface {
	Invoke(ctx context.Context, method string, args []any) (json.RawMessage, error)
}

// RPC is the resilient JSON-RPC invoker.
type RPC struct {
	transport RPCInvoker
	sessions  Sessions
	opts      options
}

func NewRPC(transport RPCInvoker, sessions Sessions, opts ...Option) *RPC {
	return &RPC{transport: transport, sessions: sessions, opts: buildOptions(opts)}
}

// Invoke calls method until it succeeds, fails with a non-authentication
// error, or the attempt budget is spent.
func (r *RPC) Invoke(ctx context.Context, method string, args ArgMaker, codeOf CodeGetter) (json.RawMessage, error) {
	code := common.CodeUnknownError

	for attempt := 1; attempt <= r.opts.maxTries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s, err := r.sessions.Login(ctx)
		if err != nil {
			return nil, err
		}

		result, err := r.transport.Invoke(ctx, method, args(s.Token))
		if err != nil {
			if !isRPCAuthFault(err) {
				return nil, fmt.Errorf("%s: %w", method, err)
			}
			code = common.CodeExpiredToken
			r.reauth(ctx, method, attempt, err)
			continue
		}

		code = codeOf(result)
		switch code {
		case common.CodeSuccess:
			return result, nil
		case common.CodeExpiredToken:
			r.reauth(ctx, method, attempt, nil)
			continue
		}
		return nil, &common.APIError{Code: code, HTTPStatus: http.StatusOK, Msg: fmt.Sprintf("%s returned non-zero status", method)}
	}

	r.opts.logger.Error(ctx, "rpc retries exhausted", "method", method, "tries", r.opts.maxTries, "code", code)
	return nil, &common.APIError{
		Code:       code,
		HTTPStatus: http.StatusOK,
		Msg:        fmt.Sprintf("%s failed after %d tries", method, r.opts.maxTries),
		Err:        common.ErrRetriesExhausted,
	}
}

func (r *RPC) reauth(ctx context.Context, method string, attempt int, cause error) {
	r.sessions.Invalidate()
	args := []any{"method", method, "attempt", attempt}
	if cause != nil {
		args = append(args, "error", cause)
	}
	r.opts.logger.Warn(ctx, "session rejected, logging in again", args...)
}

// isRPCAuthFault reports whether a transport failure on the RPC endpoint is
// the service rejecting the token rather than a network problem.
func isRPCAuthFault(err error) bool {
	if errors.Is(err, common.ErrTokenExpired) {
		return true
	}
	var te *common.TransportError
	if errors.As(err, &te) {
		return te.StatusCode == http.StatusUnauthorized || te.StatusCode == http.StatusForbidden
	}
	return false
}
