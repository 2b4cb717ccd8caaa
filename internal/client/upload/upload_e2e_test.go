package upload_test

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/agileclient/internal/client/client"
	"github.com/dmitrijs2005/agileclient/internal/client/progress"
	"github.com/dmitrijs2005/agileclient/internal/client/upload"
	"github.com/dmitrijs2005/agileclient/internal/common"
	"github.com/dmitrijs2005/agileclient/internal/testutil/agiletest"
)

func TestSmartUpload_MultipartAgainstFakeServer(t *testing.T) {
	ctx := context.Background()
	srv := agiletest.New(t)
	c := client.New(srv.URL, "user", "secret")

	data := bytes.Repeat([]byte("0123456789"), 30)
	var soFar []int64
	fn := func(ev progress.Event) { soFar = append(soFar, ev.BytesReadSoFar) }

	// A rejected piece is replayed; progress must not go backwards.
	srv.FailUploads(common.MultipartPiecePath, http.StatusInternalServerError)
	mpID, err := upload.New(c, nil).Upload(ctx, bytes.NewReader(data), "/big.bin", 64, nil, fn)
	require.NoError(t, err)
	require.NotEmpty(t, mpID)

	got, ok := srv.File("/big.bin")
	require.True(t, ok)
	require.Equal(t, data, got)
	require.Equal(t, []int{1, 2, 3, 4, 5}, srv.Pieces(mpID))

	require.NotEmpty(t, soFar)
	for i := 1; i < len(soFar); i++ {
		require.GreaterOrEqual(t, soFar[i], soFar[i-1])
	}
	require.EqualValues(t, len(data), soFar[len(soFar)-1])
}

func TestSmartUpload_PieceRetryAfterForbidden(t *testing.T) {
	ctx := context.Background()
	srv := agiletest.New(t)
	c := client.New(srv.URL, "user", "secret")
	data := bytes.Repeat([]byte{7}, 200)

	srv.FailUploads(common.MultipartPiecePath, http.StatusForbidden)
	_, err := upload.New(c, nil).Upload(ctx, bytes.NewReader(data), "/f", 100, nil, nil)
	require.NoError(t, err)

	got, ok := srv.File("/f")
	require.True(t, ok)
	require.Equal(t, data, got)
	require.GreaterOrEqual(t, srv.Logins(), 2)
}
