package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketly.com/app/internal/config"
)

func TestLocalPutAndDelete(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal(dir, "/uploads/")
	ctx := context.Background()

	res, err := l.Put(ctx, strings.NewReader("png-bytes"), PutInput{Dir: "products/p1", Filename: "Photo.PNG"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Key, "products/p1/"))
	assert.True(t, strings.HasSuffix(res.Key, ".png"))
	assert.Equal(t, "/uploads/"+res.Key, res.URL)

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(res.Key)))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, l.Delete(ctx, res.Key))
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(res.Key)))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, l.Delete(ctx, res.Key), "deleting twice is fine")
}

func TestLocalRejectsNonImages(t *testing.T) {
	l := NewLocal(t.TempDir(), "/uploads")
	_, err := l.Put(context.Background(), strings.NewReader("x"), PutInput{Filename: "run.sh"})
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestLocalKeepsWritesInsideBaseDir(t *testing.T) {
	base := t.TempDir()
	l := NewLocal(filepath.Join(base, "uploads"), "/uploads")

	res, err := l.Put(context.Background(), strings.NewReader("x"), PutInput{Dir: "../../etc", Filename: "a.gif"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Key, "etc/"))
	_, err = os.Stat(filepath.Join(base, "uploads", filepath.FromSlash(res.Key)))
	assert.NoError(t, err)
}

func TestImageExt(t *testing.T) {
	tests := []struct {
		name   string
		ext    string
		ct     string
		wantOK bool
	}{
		{"a.jpg", ".jpg", "image/jpeg", true},
		{"b.JPEG", ".jpeg", "image/jpeg", true},
		{"c.webp", ".webp", "image/webp", true},
		{"d.svg", "", "", false},
		{"noext", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, ct, err := ImageExt(tt.name)
			if !tt.wantOK {
				assert.ErrorIs(t, err, ErrUnsupportedType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ext, ext)
			assert.Equal(t, tt.ct, ct)
		})
	}
}

func TestFromConfig(t *testing.T) {
	res, err := FromConfig(context.Background(), config.StorageConfig{Driver: "local", LocalDir: t.TempDir(), LocalURLPrefix: "/u"})
	require.NoError(t, err)
	assert.Equal(t, "local", res.Driver)

	_, err = FromConfig(context.Background(), config.StorageConfig{Driver: "s3"})
	assert.Error(t, err)

	_, err = FromConfig(context.Background(), config.StorageConfig{Driver: "ftp"})
	assert.Error(t, err)
}
