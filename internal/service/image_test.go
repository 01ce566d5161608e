package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tastebook-backend/config"
)

const pngDataURI = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

func TestDecodeDataURI(t *testing.T) {
	data, ext, err := DecodeDataURI(pngDataURI)
	require.NoError(t, err)
	assert.Equal(t, "png", ext)
	assert.Equal(t, "\x89PNG", string(data[:4]))
}

func TestDecodeDataURIRejectsGarbage(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"plain text", "just some text"},
		{"wrong scheme", "data:text/plain;base64,aGVsbG8="},
		{"no base64 marker", "data:image/png,rawbytes"},
		{"missing subtype", "data:image/;base64,aGVsbG8="},
		{"bad payload", "data:image/png;base64,###"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := DecodeDataURI(tc.input)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestSaveDataURILocal(t *testing.T) {
	root := t.TempDir()
	svc, err := NewImageService(&config.Config{MediaRoot: root})
	require.NoError(t, err)

	path, err := svc.SaveDataURI(context.Background(), pngDataURI, "recipes/images")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "recipes/images/"))
	assert.True(t, strings.HasSuffix(path, ".png"))

	stored, err := os.ReadFile(filepath.Join(root, path))
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(stored[:4]))

	require.NoError(t, svc.Delete(path))
	_, err = os.Stat(filepath.Join(root, path))
	assert.True(t, os.IsNotExist(err))

	// Deleting twice is not an error.
	assert.NoError(t, svc.Delete(path))
}

func TestDeleteIgnoresRemoteURLs(t *testing.T) {
	svc, err := NewImageService(&config.Config{MediaRoot: t.TempDir()})
	require.NoError(t, err)
	assert.NoError(t, svc.Delete("https://bucket.s3.amazonaws.com/recipes/images/x.png"))
}
