package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/agileclient/internal/client/models"
	"github.com/dmitrijs2005/agileclient/internal/common"
)

// MakeFile uploads the remaining bytes of body to remotePath in one request.
// headers may be nil; it is not modified.
func (c *Client) MakeFile(ctx context.Context, body io.ReadSeeker, remotePath string, headers map[string]string) (*models.MakeFileResult, error) {
	h := withDirectoryAndBasename(remotePath, headers)
	respHeader, err := c.http.Invoke(ctx, c.urls.postRaw, body, remotePath, h)
	if err != nil {
		return nil, err
	}
	res := models.MakeFileResultFromHeaders(respHeader)
	if res.Status != common.CodeSuccess {
		return nil, statusError(res.Status, "makeFile %s", remotePath)
	}
	return res, nil
}

// MakeFileFromPath uploads a local file to remotePath in one request.
func (c *Client) MakeFileFromPath(ctx context.Context, localPath, remotePath string, headers map[string]string) (*models.MakeFileResult, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()
	return c.MakeFile(ctx, f, remotePath, headers)
}

// CreateMultipart creates a multipart resource for remotePath and returns
// its id.
func (c *Client) CreateMultipart(ctx context.Context, remotePath string, headers map[string]string) (*models.CreateMultipartResult, error) {
	h := withDirectoryAndBasename(remotePath, headers)
	respHeader, err := c.http.Invoke(ctx, c.urls.mpCreate, bytes.NewReader(nil), remotePath, h)
	if err != nil {
		return nil, err
	}
	res := models.CreateMultipartResultFromHeaders(respHeader)
	if res.Status != common.CodeSuccess {
		return nil, statusError(res.Status, "createMultipart %s", remotePath)
	}
	return res, nil
}

// CreateMultipartPiece uploads the remaining bytes of body as piece number
// of mpID. Piece numbers start at 1.
func (c *Client) CreateMultipartPiece(ctx context.Context, body io.ReadSeeker, mpID string, number int) (*models.CreateMultipartPieceResult, error) {
	h := map[string]string{
		common.MultipartHeader: mpID,
		common.PartHeader:      strconv.Itoa(number),
	}
	tag := fmt.Sprintf("%s-%d", mpID, number)
	respHeader, err := c.http.Invoke(ctx, c.urls.mpPiece, body, tag, h)
	if err != nil {
		return nil, err
	}
	res := models.CreateMultipartPieceResultFromHeaders(respHeader)
	if res.Status != common.CodeSuccess {
		return nil, statusError(res.Status, "createMultipartPiece %s", tag)
	}
	return res, nil
}

// CompleteMultipart finalizes mpID and returns the number of pieces the
// server assembled.
func (c *Client) CompleteMultipart(ctx context.Context, mpID string) (int, error) {
	var out models.CompleteMultipartResult
	if err := c.execDict(ctx, &out, "completeMultipart", mpID); err != nil {
		return 0, err
	}
	return out.NumPieces, nil
}

func (c *Client) AbortMultipart(ctx context.Context, mpID string) error {
	return c.execCode(ctx, "abortMultipart", mpID)
}

func (c *Client) RestartMultipart(ctx context.Context, mpID string) error {
	return c.execCode(ctx, "restartMultipart", mpID)
}

func (c *Client) GetMultipartStatus(ctx context.Context, mpID string) (*models.MultipartInfo, error) {
	var out models.MultipartInfo
	if err := c.execDict(ctx, &out, "getMultipartStatus", mpID); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMultipart lists the multipart uploads of the user.
func (c *Client) ListMultipart(ctx context.Context, pageSize, pageOffset int) (*models.MultipartResults, error) {
	var out models.MultipartResults
	if err := c.execDict(ctx, &out, "listMultipart", pageOffset, pageSize); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMultipartPiece lists the pieces received for mpID.
func (c *Client) ListMultipartPiece(ctx context.Context, mpID string, pageSize, pageOffset int) (*models.MultipartPieceResults, error) {
	var out models.MultipartPieceResults
	if err := c.execDict(ctx, &out, "listMultipartPiece", mpID, pageOffset, pageSize); err != nil {
		return nil, err
	}
	return &out, nil
}

// withDirectoryAndBasename copies headers and adds the directory and base
// name of remotePath.
func withDirectoryAndBasename(remotePath string, headers map[string]string) map[string]string {
	p := strings.ReplaceAll(remotePath, "\\", "/")
	out := make(map[string]string, len(headers)+2)
	for k, v := range headers {
		out[k] = v
	}
	out[common.DirectoryHeader] = path.Dir(p)
	out[common.BasenameHeader] = path.Base(p)
	return out
}
