package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/agileclient/internal/common"
)

// Poster is a one-shot HTTP upload. It sends the remaining bytes of body with
// the token and headers and returns the response headers. Failures are
// reported as *common.TransportError (connection failure or non-2xx) or
// *common.APIError (2xx carrying a non-success application status).
type Poster interface {
	Post(ctx context.Context, url, token string, body io.ReadSeeker, tag string, headers map[string]string) (http.Header, error)
}

// HTTP is the resilient raw upload invoker. The body is replayed from its
// starting position on every attempt.
type HTTP struct {
	transport Poster
	sessions  Sessions
	opts      options
}

func NewHTTP(transport Poster, sessions Sessions, opts ...Option) *HTTP {
	return &HTTP{transport: transport, sessions: sessions, opts: buildOptions(opts)}
}

// Invoke posts body to url until it succeeds, fails with a non-retriable
// error, or the attempt budget is spent. Whatever the outcome of a failed
// attempt, body is rewound to the position it had when Invoke was called.
func (h *HTTP) Invoke(ctx context.Context, url string, body io.ReadSeeker, tag string, headers map[string]string) (http.Header, error) {
	start, err := body.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("post %s: locate body: %w", tag, err)
	}

	lastStatus := 0
	lastCode := common.CodeUnknownError

	for attempt := 1; attempt <= h.opts.maxTries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s, err := h.sessions.Login(ctx)
		if err != nil {
			return nil, err
		}

		respHeader, err := h.transport.Post(ctx, url, s.Token, body, tag, headers)
		if err == nil {
			return respHeader, nil
		}

		if _, serr := body.Seek(start, io.SeekStart); serr != nil {
			return nil, fmt.Errorf("post %s: rewind body: %w", tag, serr)
		}

		var te *common.TransportError
		var apiErr *common.APIError
		switch {
		case errors.As(err, &te):
			lastStatus = te.StatusCode
			if common.IsAuthStatus(te.StatusCode) {
				h.reauth(ctx, tag, attempt, err)
				continue
			}
			lastCode = te.Code()
			h.opts.logger.Warn(ctx, "upload failed, retrying", "tag", tag, "attempt", attempt, "status", te.StatusCode, "code", lastCode)
			continue

		case errors.As(err, &apiErr) && apiErr.Code == common.CodeExpiredToken:
			lastStatus = apiErr.HTTPStatus
			lastCode = apiErr.Code
			h.reauth(ctx, tag, attempt, err)
			continue
		}

		return nil, err
	}

	h.opts.logger.Error(ctx, "upload retries exhausted", "tag", tag, "tries", h.opts.maxTries, "status", lastStatus, "code", lastCode)
	return nil, &common.APIError{
		Code:       lastCode,
		HTTPStatus: lastStatus,
		Msg:        fmt.Sprintf("post %s failed after %d tries", tag, h.opts.maxTries),
		Err:        common.ErrRetriesExhausted,
	}
}

func (h *HTTP) reauth(ctx context.Context, tag string, attempt int, cause error) {
	h.sessions.Invalidate()
	h.opts.logger.Warn(ctx, "upload rejected, logging in again", "tag", tag, "attempt", attempt, "error", cause)
}
