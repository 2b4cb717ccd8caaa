package models

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/agileclient/internal/common"
)

// MakeFileResult is returned by a direct upload.
type MakeFileResult struct {
	Path     string
	Status   int
	Size     int64
	Checksum string
}

// CreateMultipartResult is returned when a multipart resource is created.
type CreateMultipartResult struct {
	Status int
	MpID   string
	Path   string
}

// CreateMultipartPieceResult is returned for each uploaded piece.
type CreateMultipartPieceResult struct {
	Status   int
	Size     int64
	Checksum string
}

func MakeFileResultFromHeaders(h http.Header) *MakeFileResult {
	return &MakeFileResult{
		Path:     h.Get(common.PathHeader),
		Status:   common.ParseStatusHeader(h),
		Size:     headerInt64(h, common.SizeHeader),
		Checksum: h.Get(common.ChecksumHeader),
	}
}

func CreateMultipartResultFromHeaders(h http.Header) *CreateMultipartResult {
	return &CreateMultipartResult{
		Status: common.ParseStatusHeader(h),
		MpID:   h.Get(common.MultipartHeader),
		Path:   h.Get(common.PathHeader),
	}
}

func CreateMultipartPieceResultFromHeaders(h http.Header) *CreateMultipartPieceResult {
	return &CreateMultipartPieceResult{
		Status:   common.ParseStatusHeader(h),
		Size:     headerInt64(h, common.SizeHeader),
		Checksum: h.Get(common.ChecksumHeader),
	}
}

// headerInt64 reads an integer header; absent or malformed values are 0.
func headerInt64(h http.Header, name string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(h.Get(name)), 10, 64)
	if err != nil {
		return 0
	}
	return v
}
