package media

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jpegHeader is enough of a JFIF file for content sniffing.
var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x01, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestPick(t *testing.T) {
	path := writeFile(t, "foot.jpg", jpegHeader)
	picker := NewPicker(StaticPermissions{Camera: true, Gallery: true})

	img, err := picker.Pick(context.Background(), SourceGallery, path)
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, "image/jpeg", img.MIME)
	assert.True(t, strings.HasPrefix(img.URI, "file://"))
	assert.Equal(t, int64(len(jpegHeader)), img.Size)
}

func TestPickCancelled(t *testing.T) {
	picker := NewPicker(StaticPermissions{Gallery: true})
	img, err := picker.Pick(context.Background(), SourceGallery, "  ")
	require.NoError(t, err)
	assert.Nil(t, img)
}

func TestPickDenied(t *testing.T) {
	path := writeFile(t, "foot.jpg", jpegHeader)
	picker := NewPicker(StaticPermissions{Camera: false, Gallery: true})

	_, err := picker.Pick(context.Background(), SourceCamera, path)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestPickRejectsNonImage(t *testing.T) {
	path := writeFile(t, "notes.txt", []byte("just some text\n"))
	picker := NewPicker(StaticPermissions{Gallery: true})

	_, err := picker.Pick(context.Background(), SourceGallery, path)
	assert.ErrorIs(t, err, ErrNotAnImage)

	_, err = picker.Pick(context.Background(), SourceGallery, filepath.Dir(path))
	assert.ErrorIs(t, err, ErrNotAnImage)
}

func TestPromptPermissions(t *testing.T) {
	var out bytes.Buffer
	gate := NewPromptPermissions(strings.NewReader("y\nno\n"), &out)

	ok, err := gate.Request(context.Background(), SourceCamera)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = gate.Request(context.Background(), SourceGallery)
	require.NoError(t, err)
	assert.False(t, ok)

	// remembered, nothing more is read
	ok, err = gate.Request(context.Background(), SourceCamera)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, strings.Count(out.String(), "Allow access"))
}

func TestParseSource(t *testing.T) {
	s, err := ParseSource("Camera")
	require.NoError(t, err)
	assert.Equal(t, SourceCamera, s)
	assert.Equal(t, "Camera permission required", s.DeniedMessage())
	assert.Equal(t, "Gallery permission required", SourceGallery.DeniedMessage())

	_, err = ParseSource("scanner")
	assert.ErrorIs(t, err, ErrUnknownSource)
}
