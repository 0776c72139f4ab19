// Package storage keeps the files uploaded as image elements. Element rows
// only hold the key returned by NewKey; the backing Store maps keys to
// bytes and public URLs.
package storage

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const uploadPrefix = "editor_uploads"

type Store interface {
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Remove deletes key. A key that is already gone is not an error.
	Remove(ctx context.Context, key string) error
	URL(key string) string
}

// NewKey builds a unique upload key. The extension comes from the declared
// content type and falls back to the client file name.
func NewKey(contentType, filename string) string {
	ext := ""
	if mt := mimetype.Lookup(baseMediaType(contentType)); mt != nil {
		ext = mt.Extension()
	}
	if ext == "" {
		ext = strings.ToLower(path.Ext(filename))
	}
	return path.Join(uploadPrefix, uuid.NewString()+ext)
}

func baseMediaType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.TrimSpace(strings.ToLower(contentType))
}
