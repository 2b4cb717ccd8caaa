// Package transport holds the one-shot network calls used by the retry
// layer: a JSON-RPC call and a raw HTTP POST upload. Neither retries.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/dmitrijs2005/agileclient/internal/common"
)

type rpcRequest struct {
	ID     uint64 `json:"id"`
	Method string `json:"method"`
	Params []any  `json:"params"`
}

type rpcResponse struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
}

// JSONRPC posts {"id","method","params"} envelopes to one endpoint.
type JSONRPC struct {
	url    string
	client *http.Client
	lastID atomic.Uint64
}

// NewJSONRPC returns a transport posting to url. Timeouts are those of client.
func NewJSONRPC(url string, client *http.Client) *JSONRPC {
	if client == nil {
		client = http.DefaultClient
	}
	return &JSONRPC{url: url, client: client}
}

// Invoke performs one call and returns the raw "result" member.
func (t *JSONRPC) Invoke(ctx context.Context, method string, args []any) (json.RawMessage, error) {
	if args == nil {
		args = []any{}
	}
	payload, err := json.Marshal(rpcRequest{ID: t.lastID.Add(1), Method: method, Params: args})
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &common.TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &common.TransportError{StatusCode: resp.StatusCode, Header: resp.Header, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &common.TransportError{StatusCode: resp.StatusCode, Header: resp.Header, Err: fmt.Errorf("%s: %s", method, bytes.TrimSpace(body))}
	}

	var answer rpcResponse
	if err := json.Unmarshal(body, &answer); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}
	if len(answer.Error) > 0 && !bytes.Equal(answer.Error, []byte("null")) {
		return nil, fmt.Errorf("%w: %s: %s", common.ErrRPCFault, method, answer.Error)
	}
	if len(answer.Result) == 0 {
		return json.RawMessage("null"), nil
	}
	return answer.Result, nil
}
