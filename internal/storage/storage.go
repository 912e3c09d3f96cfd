package storage

import "io"

type FileInfo struct {
	Filename    string
	ContentType string
	Size        int64
}

// Storage holds preview image files uploaded through the
// report-creation flow. Files are short-lived: every saved file is
// released again, either on explicit removal or on session teardown.
type Storage interface {
	SaveFile(file io.Reader, info FileInfo) (string, error)
	OpenFile(path string) (io.ReadSeekCloser, error)
	DeleteFile(path string) error
}
