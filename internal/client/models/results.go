package models

import "encoding/json"

// Object types reported by stat and listing calls.
const (
	TypeDir  = 1
	TypeFile = 2
)

// Stat is the metadata block shared by stat and listing results.
type Stat struct {
	Ctime int `json:"ctime"`
	Gid   int `json:"gid"`
	Mtime int `json:"mtime"`
	Type  int `json:"type"`
	Uid   int `json:"uid"`
}

type StatResult struct {
	Stat
	Code     int    `json:"code"`
	Checksum string `json:"checksum"`
	Size     int64  `json:"size"`
}

func (r *StatResult) IsFile() bool { return r.Type == TypeFile }
func (r *StatResult) IsDir() bool  { return r.Type == TypeDir }

// DirEntry is one directory of a listing. Stat is zero unless the listing
// was requested with stat data.
type DirEntry struct {
	Name string
	Stat
}

func (e *DirEntry) UnmarshalJSON(b []byte) error {
	var raw struct {
		Name string `json:"name"`
		Stat *Stat  `json:"stat"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*e = DirEntry{Name: raw.Name}
	if raw.Stat != nil {
		e.Stat = *raw.Stat
	}
	e.Type = TypeDir
	return nil
}

type ListDirResults struct {
	Cookie int64      `json:"cookie"`
	Dirs   []DirEntry `json:"list"`
}

// FileEntry is one file of a listFile result.
type FileEntry struct {
	Name        string
	Type        int
	Checksum    string
	ContentType string
	Size        int64
	Ctime       int
	Gid         int
	Mtime       int
	Uid         int
}

func (e *FileEntry) UnmarshalJSON(b []byte) error {
	var raw struct {
		Name string `json:"name"`
		Type int    `json:"type"`
		Stat *struct {
			Checksum string `json:"checksum"`
			Ctime    int    `json:"ctime"`
			Gid      int    `json:"gid"`
			MimeType string `json:"mimetype"`
			Mtime    int    `json:"mtime"`
			Size     int64  `json:"size"`
			Uid      int    `json:"uid"`
		} `json:"stat"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*e = FileEntry{Name: raw.Name, Type: raw.Type}
	if s := raw.Stat; s != nil {
		e.Checksum = s.Checksum
		e.Ctime = s.Ctime
		e.Gid = s.Gid
		e.ContentType = s.MimeType
		e.Mtime = s.Mtime
		e.Size = s.Size
		e.Uid = s.Uid
	}
	return nil
}

type ListFileResults struct {
	Cookie int64       `json:"cookie"`
	Files  []FileEntry `json:"list"`
}

// PathFileEntry is one file of a listPath result. ContentType is the numeric
// content type id used by that call.
type PathFileEntry struct {
	Name        string
	Checksum    string
	ContentType int
	Size        int64
	Ctime       int
	Gid         int
	Mtime       int
	Uid         int
}

func (e *PathFileEntry) UnmarshalJSON(b []byte) error {
	var raw struct {
		Name string `json:"name"`
		Stat *struct {
			Hash  string `json:"hash"`
			Ctime int    `json:"ctime"`
			Ctype int    `json:"ctype"`
			Gid   int    `json:"gid"`
			Mtime int    `json:"mtime"`
			Size  int64  `json:"size"`
			Uid   int    `json:"uid"`
		} `json:"stat"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*e = PathFileEntry{Name: raw.Name}
	if s := raw.Stat; s != nil {
		e.Checksum = s.Hash
		e.Ctime = s.Ctime
		e.ContentType = s.Ctype
		e.Gid = s.Gid
		e.Mtime = s.Mtime
		e.Size = s.Size
		e.Uid = s.Uid
	}
	return nil
}

// ListPathResults pages through directories and files at once. Cookie is an
// opaque continuation token; empty means the listing is complete.
type ListPathResults struct {
	Cookie string          `json:"cookie"`
	Dirs   []DirEntry      `json:"dirs"`
	Files  []PathFileEntry `json:"files"`
}

type MultipartInfo struct {
	Created     int    `json:"created"`
	State       int    `json:"state"`
	Error       int    `json:"error"`
	NumPieces   int    `json:"numpieces"`
	Path        string `json:"path"`
	ContentType string `json:"content_type"`
	Mtime       int    `json:"mtime"`
}

type MultipartSummary struct {
	Error int    `json:"error"`
	Gid   int    `json:"gid"`
	MpID  string `json:"mpid"`
	Mtime int    `json:"mtime"`
	Path  string `json:"path"`
	State int    `json:"state"`
	Uid   int    `json:"uid"`
}

type MultipartResults struct {
	Cookie     int                `json:"cookie"`
	Multiparts []MultipartSummary `json:"multipart"`
}

type MultipartPiece struct {
	Error  int `json:"error"`
	Number int `json:"number"`
	State  int `json:"state"`
}

type MultipartPieceResults struct {
	Cookie int              `json:"cookie"`
	Pieces []MultipartPiece `json:"pieces"`
}

// CompleteMultipartResult is returned when a multipart upload is finalized.
type CompleteMultipartResult struct {
	NumPieces int `json:"numpieces"`
}
