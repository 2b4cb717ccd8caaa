// Package upload decides between a direct upload and a multipart upload and
// drives the multipart protocol piece by piece.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/agileclient/internal/client/models"
	"github.com/dmitrijs2005/agileclient/internal/client/progress"
	"github.com/dmitrijs2005/agileclient/internal/logging"
)

// DefaultPieceSize is used by callers that have no configured piece size.
const DefaultPieceSize = 10 * 1024 * 1024

var ErrInvalidPieceSize = errors.New("piece size must be positive")

// API is the part of client.Client used for uploads.
type API interface {
	MakeFile(ctx context.Context, body io.ReadSeeker, remotePath string, headers map[string]string) (*models.MakeFileResult, error)
	CreateMultipart(ctx context.Context, remotePath string, headers map[string]string) (*models.CreateMultipartResult, error)
	CreateMultipartPiece(ctx context.Context, body io.ReadSeeker, mpID string, number int) (*models.CreateMultipartPieceResult, error)
	CompleteMultipart(ctx context.Context, mpID string) (int, error)
}

type SmartUpload struct {
	api    API
	logger logging.Logger
}

func New(api API, logger logging.Logger) *SmartUpload {
	if logger == nil {
		logger = logging.Nop()
	}
	return &SmartUpload{api: api, logger: logger}
}

// Upload sends the bytes between the current position of body and its end
// to remotePath.
//
// When they fit in one piece a single direct upload is made and the returned
// multipart id is empty. Otherwise a multipart resource is created, the
// bytes are sent as pieces numbered from 1, and the resource is completed.
// A failed piece stops the upload; the multipart resource is left for the
// caller to abort or restart.
//
// onProgress receives cumulative totals for the whole upload. When it is nil
// the callback attached to ctx, if any, is used instead.
func (u *SmartUpload) Upload(ctx context.Context, body io.ReadSeeker, remotePath string, pieceSize int64, headers map[string]string, onProgress progress.Func) (string, error) {
	if pieceSize <= 0 {
		return "", fmt.Errorf("upload %s: %w: %d", remotePath, ErrInvalidPieceSize, pieceSize)
	}
	total, err := remaining(body)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", remotePath, err)
	}

	if onProgress == nil {
		onProgress = progress.FromContext(ctx)
	}
	agg := progress.NewAggregator(remotePath, total, onProgress)
	ctx = progress.WithFunc(ctx, agg.Func())

	if total <= pieceSize {
		if _, err := u.api.MakeFile(ctx, body, remotePath, headers); err != nil {
			return "", err
		}
		u.logger.Debug(ctx, "uploaded in one request", "path", remotePath, "size", total)
		return "", nil
	}

	mp, err := u.api.CreateMultipart(ctx, remotePath, headers)
	if err != nil {
		return "", err
	}
	mpID := mp.MpID
	u.logger.Debug(ctx, "multipart created", "path", remotePath, "mpid", mpID, "size", total, "piece_size", pieceSize)

	buf := make([]byte, min(pieceSize, total))
	number := 1
	for {
		n, err := fill(body, buf)
		if err != nil {
			return mpID, fmt.Errorf("upload %s: read piece %d: %w", remotePath, number, err)
		}
		if n == 0 {
			break
		}
		if _, err := u.api.CreateMultipartPiece(ctx, bytes.NewReader(buf[:n]), mpID, number); err != nil {
			return mpID, err
		}
		agg.Advance(int64(n))
		u.logger.Debug(ctx, "piece uploaded", "mpid", mpID, "number", number, "size", n)
		number++
	}

	if _, err := u.api.CompleteMultipart(ctx, mpID); err != nil {
		return mpID, err
	}
	u.logger.Debug(ctx, "multipart completed", "mpid", mpID, "pieces", number-1)
	return mpID, nil
}

// UploadFile uploads the local file at localPath.
func (u *SmartUpload) UploadFile(ctx context.Context, localPath, remotePath string, pieceSize int64, headers map[string]string, onProgress progress.Func) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()
	return u.Upload(ctx, f, remotePath, pieceSize, headers, onProgress)
}

// fill reads into buf in progress.BlockSize blocks until buf is full or r is
// exhausted.
func fill(r io.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		end := min(n+progress.BlockSize, len(buf))
		m, err := r.Read(buf[n:end])
		n += m
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
	}
	return n, nil
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
