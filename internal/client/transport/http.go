package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/agileclient/internal/client/progress"
	"github.com/dmitrijs2005/agileclient/internal/common"
)

// HTTP performs a single raw upload POST.
type HTTP struct {
	client *http.Client
}

func NewHTTP(client *http.Client) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTP{client: client}
}

// Post sends the bytes between the current position and the end of body.
// The body is streamed in progress.BlockSize blocks and every block is
// reported to the progress callback attached to ctx, if any.
//
// A connection failure or non-2xx answer is a *common.TransportError; a 2xx
// answer whose status header is not CodeSuccess is a *common.APIError.
// Post does not touch body after it returns.
func (t *HTTP) Post(ctx context.Context, url, token string, body io.ReadSeeker, tag string, headers map[string]string) (http.Header, error) {
	size, err := remaining(body)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", tag, err)
	}

	pr, pw := io.Pipe()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		return nil, fmt.Errorf("post %s: build request: %w", tag, err)
	}
	req.ContentLength = size
	if size == 0 {
		req.Body = http.NoBody
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set(common.AuthorizationHeader, token)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := progress.Copy(pw, io.LimitReader(body, size), size, tag, progress.FromContext(ctx))
		pw.CloseWithError(err)
	}()
	defer func() {
		pr.Close()
		<-done
	}()

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &common.TransportError{Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &common.TransportError{StatusCode: resp.StatusCode, Header: resp.Header, Err: fmt.Errorf("post %s", tag)}
	}
	if code := common.ParseStatusHeader(resp.Header); code != common.CodeSuccess {
		return nil, &common.APIError{Code: code, HTTPStatus: resp.StatusCode, Msg: fmt.Sprintf("post %s to %s", tag, url)}
	}
	return resp.Header, nil
}

func remaining(s io.Seeker) (int64, error) {
	cur, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("locate body: %w", err)
	}
	end, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("measure body: %w", err)
	}
	if _, err := s.Seek(cur, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewind body: %w", err)
	}
	return end - cur, nil
}
