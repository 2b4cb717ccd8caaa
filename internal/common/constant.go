// Package common contains shared constants, status codes and the error
// taxonomy used across the Agile client packages.
package common

// Request and response headers understood by the Agile HTTP endpoints.
const (
	AuthorizationHeader = "X-Agile-Authorization"
	StatusHeader        = "X-Agile-Status"
	PathHeader          = "X-Agile-Path"
	SizeHeader          = "X-Agile-Size"
	ChecksumHeader      = "X-Agile-Checksum"
	MultipartHeader     = "X-Agile-Multipart"
	PartHeader          = "X-Agile-Part"
	DirectoryHeader     = "X-Agile-Directory"
	BasenameHeader      = "X-Agile-Basename"
)

// Endpoint paths relative to the API base URL.
const (
	RPCPath               = "/jsonrpc"
	PostRawPath           = "/post/raw"
	PostFormPath          = "/post/file"
	MultipartCreatePath   = "/multipart/create"
	MultipartPiecePath    = "/multipart/piece"
	MultipartCompletePath = "/multipart/complete"
)
