package page

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"os"
	"path/filepath"
)

// Upload is a file chosen for identification. Open may be called more than
// once; each call reads the file from the start.
type Upload struct {
	Name        string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// FileUpload reads the upload from a local file.
func FileUpload(path string) Upload {
	return Upload{
		Name:        filepath.Base(path),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Open:        func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// BytesUpload wraps data already in memory.
func BytesUpload(name, contentType string, data []byte) Upload {
	return Upload{
		Name:        name,
		ContentType: contentType,
		Open:        func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// ReadAll returns the full file contents.
func (u Upload) ReadAll() ([]byte, error) {
	rc, err := u.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// DataURL reads the file into a base64 data URL.
func (u Upload) DataURL() (string, error) {
	data, err := u.ReadAll()
	if err != nil {
		return "", err
	}
	return "data:" + u.mimeType() + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func (u Upload) mimeType() string {
	if u.ContentType == "" {
		return "application/octet-stream"
	}
	return u.ContentType
}
