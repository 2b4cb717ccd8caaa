package retry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/agileclient/internal/common"
	"github.com/stretchr/testify/require"
)

func statusHeader(code int) http.Header {
	h := http.Header{}
	h.Set(common.StatusHeader, fmt.Sprint(code))
	return h
}

func TestHTTP_SuccessReturnsHeaders(t *testing.T) {
	ok := statusHeader(0)
	ok.Set(common.PathHeader, "/a/b.txt")
	poster := &fakePoster{replies: []postReply{{consume: -1, header: ok}}}
	sessions := &fakeSessions{}
	h := NewHTTP(poster, sessions)

	got, err := h.Invoke(context.Background(), "http://x/post/raw", bytes.NewReader([]byte("hello")), "/a/b.txt", nil)
	require.NoError(t, err)
	require.Equal(t, "/a/b.txt", got.Get(common.PathHeader))
	require.Equal(t, []byte("hello"), poster.bodies[0])
	require.Equal(t, []string{"tok-1"}, poster.tokens)
}

func TestHTTP_AuthStatusesInvalidateAndRetry(t *testing.T) {
	poster := &fakePoster{replies: []postReply{
		{consume: 2, err: &common.TransportError{StatusCode: http.StatusForbidden}},
		{consume: 3, err: &common.TransportError{StatusCode: http.StatusUnauthorized}},
		{consume: 1, err: &common.TransportError{StatusCode: http.StatusInternalServerError}},
		{consume: 0, err: &common.TransportError{Err: errors.New("connection refused")}},
		{consume: -1, header: statusHeader(0)},
	}}
	sessions := &fakeSessions{}
	h := NewHTTP(poster, sessions)

	_, err := h.Invoke(context.Background(), "u", bytes.NewReader([]byte("payload")), "t", nil)
	require.NoError(t, err)
	require.Equal(t, 5, sessions.logins)
	require.Equal(t, 4, sessions.invalidates)
	require.Equal(t, 5, sessions.issued)
	require.Equal(t, []string{"tok-1", "tok-2", "tok-3", "tok-4", "tok-5"}, poster.tokens)
	require.Equal(t, []byte("payload"), poster.bodies[4])
}

func TestHTTP_OtherStatusRetriesWithoutReauth(t *testing.T) {
	poster := &fakePoster{replies: []postReply{
		{consume: 4, err: &common.TransportError{StatusCode: http.StatusConflict, Header: statusHeader(-42)}},
		{consume: -1, header: statusHeader(0)},
	}}
	sessions := &fakeSessions{}
	h := NewHTTP(poster, sessions)

	_, err := h.Invoke(context.Background(), "u", bytes.NewReader([]byte("payload")), "t", nil)
	require.NoError(t, err)
	require.Equal(t, 0, sessions.invalidates)
	require.Equal(t, 1, sessions.issued)
	require.Equal(t, []string{"tok-1", "tok-1"}, poster.tokens)
}

func TestHTTP_ExhaustedCarriesLastCodes(t *testing.T) {
	replies := make([]postReply, 3)
	for i := range replies {
		replies[i] = postReply{consume: 1, err: &common.TransportError{StatusCode: http.StatusBadGateway, Header: statusHeader(-7)}}
	}
	sessions := &fakeSessions{}
	h := NewHTTP(&fakePoster{replies: replies}, sessions, WithMaxTries(3))

	_, err := h.Invoke(context.Background(), "u", bytes.NewReader([]byte("abc")), "t", nil)
	require.ErrorIs(t, err, common.ErrRetriesExhausted)

	var apiErr *common.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, -7, apiErr.Code)
	require.Equal(t, http.StatusBadGateway, apiErr.HTTPStatus)
}

func TestHTTP_ExhaustedOnAuthCarriesHTTPStatus(t *testing.T) {
	replies := make([]postReply, 3)
	for i := range replies {
		replies[i] = postReply{err: &common.TransportError{StatusCode: http.StatusForbidden}}
	}
	sessions := &fakeSessions{}
	h := NewHTTP(&fakePoster{replies: replies}, sessions, WithMaxTries(3))

	_, err := h.Invoke(context.Background(), "u", bytes.NewReader(nil), "t", nil)
	var apiErr *common.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusForbidden, apiErr.HTTPStatus)
	require.Equal(t, 3, sessions.invalidates)
}

func TestHTTP_ExpiredApplicationStatusIsReauth(t *testing.T) {
	poster := &fakePoster{replies: []postReply{
		{consume: -1, err: &common.APIError{Code: common.CodeExpiredToken, HTTPStatus: 200}},
		{consume: -1, header: statusHeader(0)},
	}}
	sessions := &fakeSessions{}
	h := NewHTTP(poster, sessions)

	_, err := h.Invoke(context.Background(), "u", bytes.NewReader([]byte("abc")), "t", nil)
	require.NoError(t, err)
	require.Equal(t, 1, sessions.invalidates)
	require.Equal(t, []byte("abc"), poster.bodies[1])
}

func TestHTTP_BusinessErrorFailsFastAndRewinds(t *testing.T) {
	body := bytes.NewReader([]byte("0123456789"))
	_, err := body.Seek(3, io.SeekStart)
	require.NoError(t, err)

	poster := &fakePoster{replies: []postReply{
		{consume: -1, err: &common.APIError{Code: -5, HTTPStatus: 200}},
	}}
	sessions := &fakeSessions{}
	h := NewHTTP(poster, sessions)

	_, err = h.Invoke(context.Background(), "u", body, "t", nil)
	require.Equal(t, -5, common.CodeOf(err))
	require.Equal(t, 1, poster.calls)

	pos, _ := body.Seek(0, io.SeekCurrent)
	require.EqualValues(t, 3, pos)
}

func TestHTTP_LoginFailurePropagates(t *testing.T) {
	sessions := &fakeSessions{loginErr: common.ErrAuthentication}
	poster := &fakePoster{}
	h := NewHTTP(poster, sessions)

	_, err := h.Invoke(context.Background(), "u", bytes.NewReader(nil), "t", nil)
	require.ErrorIs(t, err, common.ErrAuthentication)
	require.Equal(t, 0, poster.calls)
}

func TestHTTP_LocalErrorPropagates(t *testing.T) {
	local := errors.New("disk read failed")
	poster := &fakePoster{replies: []postReply{{err: local}, {header: statusHeader(0)}}}
	h := NewHTTP(poster, &fakeSessions{})

	_, err := h.Invoke(context.Background(), "u", bytes.NewReader([]byte("x")), "t", nil)
	require.ErrorIs(t, err, local)
	require.Equal(t, 1, poster.calls)
}

// Whatever the stream length, start offset and failure point, every attempt
// starts from the original position and a failed call leaves the stream there.
func TestHTTP_StreamPositionRoundTrip(t *testing.T) {
	for _, length := range []int{0, 1, 7, 64, 1000} {
		for _, start := range []int{0, length / 2, length} {
			for _, consume := range []int{0, 1, length - start, -1} {
				name := fmt.Sprintf("len=%d/start=%d/consume=%d", length, start, consume)
				t.Run(name, func(t *testing.T) {
					data := bytes.Repeat([]byte{'z'}, length)
					body := bytes.NewReader(data)
					_, err := body.Seek(int64(start), io.SeekStart)
					require.NoError(t, err)

					replies := []postReply{
						{consume: consume, err: &common.TransportError{StatusCode: http.StatusForbidden}},
						{consume: consume, err: &common.TransportError{StatusCode: http.StatusServiceUnavailable}},
						{consume: consume, err: &common.TransportError{Err: errors.New("reset")}},
					}
					poster := &fakePoster{replies: replies}
					h := NewHTTP(poster, &fakeSessions{}, WithMaxTries(len(replies)))

					_, err = h.Invoke(context.Background(), "u", body, "t", nil)
					require.ErrorIs(t, err, common.ErrRetriesExhausted)

					for _, p := range poster.positions {
						require.EqualValues(t, start, p)
					}
					pos, _ := body.Seek(0, io.SeekCurrent)
					require.EqualValues(t, start, pos)
				})
			}
		}
	}
}
