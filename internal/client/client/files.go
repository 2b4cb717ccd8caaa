package client

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/agileclient/internal/client/models"
	"github.com/dmitrijs2005/agileclient/internal/common"
)

// MakeDir creates one directory. The parent must exist.
func (c *Client) MakeDir(ctx context.Context, remotePath string) error {
	return c.execCode(ctx, "makeDir", remotePath)
}

// MakeDir2 creates remotePath and any missing parents.
func (c *Client) MakeDir2(ctx context.Context, remotePath string) error {
	return c.execCode(ctx, "makeDir2", remotePath)
}

func (c *Client) CopyFile(ctx context.Context, fromPath, toPath string) error {
	return c.execCode(ctx, "copyFile", fromPath, toPath)
}

// Rename moves a file or directory.
func (c *Client) Rename(ctx context.Context, fromPath, toPath string) error {
	return c.execCode(ctx, "rename", fromPath, toPath)
}

// SetMTime sets the modification time of a file, in seconds since the epoch.
func (c *Client) SetMTime(ctx context.Context, remotePath string, mtime int64) error {
	return c.execCode(ctx, "setMTime", remotePath, mtime)
}

// DeleteDir deletes a directory; a missing directory is not an error.
func (c *Client) DeleteDir(ctx context.Context, remotePath string) error {
	return ignoreNotFound(c.MustDeleteDir(ctx, remotePath))
}

func (c *Client) MustDeleteDir(ctx context.Context, remotePath string) error {
	return c.execCode(ctx, "deleteDir", remotePath)
}

// DeleteFile deletes a file; a missing file is not an error.
func (c *Client) DeleteFile(ctx context.Context, remotePath string) error {
	return ignoreNotFound(c.MustDeleteFile(ctx, remotePath))
}

func (c *Client) MustDeleteFile(ctx context.Context, remotePath string) error {
	return c.execCode(ctx, "deleteFile", remotePath)
}

// DeleteObject deletes a file or a directory; a missing object is not an
// error.
func (c *Client) DeleteObject(ctx context.Context, remotePath string) error {
	return ignoreNotFound(c.MustDeleteObject(ctx, remotePath))
}

func (c *Client) MustDeleteObject(ctx context.Context, remotePath string) error {
	return c.execCode(ctx, "deleteObject", remotePath)
}

// Stat returns metadata for a file or directory. A missing object is
// reported as an error matching common.ErrNotFound.
func (c *Client) Stat(ctx context.Context, remotePath string) (*models.StatResult, error) {
	var out models.StatResult
	if err := c.execDict(ctx, &out, "stat", remotePath, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListDir lists the directories inside remotePath.
func (c *Client) ListDir(ctx context.Context, remotePath string, pageSize, pageOffset int, includeStat bool) (*models.ListDirResults, error) {
	var out models.ListDirResults
	if err := c.execDict(ctx, &out, "listDir", remotePath, pageSize, pageOffset, includeStat); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListFile lists the files inside remotePath.
func (c *Client) ListFile(ctx context.Context, remotePath string, pageSize, pageOffset int, includeStat bool) (*models.ListFileResults, error) {
	var out models.ListFileResults
	if err := c.execDict(ctx, &out, "listFile", remotePath, pageSize, pageOffset, includeStat); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPath lists directories and files inside remotePath. cookie is the
// value returned by the previous page, or "" for the first page.
func (c *Client) ListPath(ctx context.Context, remotePath string, pageSize int, cookie string, includeStat bool) (*models.ListPathResults, error) {
	var out models.ListPathResults
	if err := c.execDict(ctx, &out, "listPath", remotePath, pageSize, cookie, includeStat); err != nil {
		return nil, err
	}
	return &out, nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	return err
}
