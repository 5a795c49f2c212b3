// Package storage keeps uploaded product images on local disk or in S3.
package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
)

var ErrUnsupportedType = errors.New("unsupported image type")

type PutInput struct {
	// Dir groups objects, e.g. "products/<id>". Empty puts at the root.
	Dir         string
	Filename    string
	ContentType string
	Size        int64
}

type PutResult struct {
	Key string
	URL string
}

type Storage interface {
	Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error)
	Delete(ctx context.Context, key string) error
}

var imageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// ImageExt validates an upload by extension and returns the normalized
// extension together with its content type.
func ImageExt(filename string) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	ct, ok := imageTypes[ext]
	if !ok {
		return "", "", ErrUnsupportedType
	}
	return ext, ct, nil
}

// cleanDir strips traversal and leading/trailing slashes from a key prefix.
func cleanDir(dir string) string {
	dir = filepath.ToSlash(filepath.Clean("/" + dir))
	return strings.Trim(dir, "/")
}

func joinKey(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "/")
}
