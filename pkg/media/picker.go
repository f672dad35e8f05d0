// Package media resolves images picked from the camera or the gallery.
package media

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotAnImage       = errors.New("selected file is not an image")
	ErrUnknownSource    = errors.New("unknown image source")
)

// Source is where an image comes from.
type Source string

const (
	SourceCamera  Source = "camera"
	SourceGallery Source = "gallery"
)

// ParseSource accepts "camera" or "gallery".
func ParseSource(s string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(s))) {
	case SourceCamera:
		return SourceCamera, nil
	case SourceGallery:
		return SourceGallery, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSource, s)
}

// DeniedMessage is the alert shown when access to s is refused.
func (s Source) DeniedMessage() string {
	if s == SourceCamera {
		return "Camera permission required"
	}
	return "Gallery permission required"
}

// Image is a picked image on the local filesystem.
type Image struct {
	Path string
	URI  string
	MIME string
	Size int64
}

// Open opens the image for reading.
func (i Image) Open() (io.ReadCloser, error) {
	return os.Open(i.Path)
}

// PermissionGate decides whether a source may be used.
type PermissionGate interface {
	Request(ctx context.Context, source Source) (bool, error)
}

// StaticPermissions grants access from configuration.
type StaticPermissions struct {
	Camera  bool
	Gallery bool
}

func (p StaticPermissions) Request(_ context.Context, source Source) (bool, error) {
	switch source {
	case SourceCamera:
		return p.Camera, nil
	case SourceGallery:
		return p.Gallery, nil
	}
	return false, fmt.Errorf("%w: %q", ErrUnknownSource, source)
}

// PromptPermissions asks on a terminal, once per source, and remembers the answer.
type PromptPermissions struct {
	In      *bufio.Reader
	Out     io.Writer
	answers map[Source]bool
}

// NewPromptPermissions creates a gate reading y/n answers from in.
func NewPromptPermissions(in io.Reader, out io.Writer) *PromptPermissions {
	br, ok := in.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(in)
	}
	return &PromptPermissions{In: br, Out: out, answers: make(map[Source]bool)}
}

func (p *PromptPermissions) Request(ctx context.Context, source Source) (bool, error) {
	if granted, ok := p.answers[source]; ok {
		return granted, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	fmt.Fprintf(p.Out, "Allow access to the %s? [y/N] ", source)
	line, err := p.In.ReadString('\n')
	if err != nil && line == "" {
		return false, fmt.Errorf("error reading answer: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	granted := answer == "y" || answer == "yes"
	p.answers[source] = granted
	return granted, nil
}

// Picker turns a source and a path into an Image after checking permission.
type Picker struct {
	gate PermissionGate
}

// NewPicker creates a picker guarded by gate.
func NewPicker(gate PermissionGate) *Picker {
	return &Picker{gate: gate}
}

// Pick returns (nil, nil) when path is empty, which is how a cancelled
// selection is reported.
func (p *Picker) Pick(ctx context.Context, source Source, path string) (*Image, error) {
	granted, err := p.gate.Request(ctx, source)
	if err != nil {
		return nil, err
	}
	if !granted {
		return nil, fmt.Errorf("%s: %w", source, ErrPermissionDenied)
	}

	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("error resolving %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("error opening image: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory: %w", abs, ErrNotAnImage)
	}

	mt, err := mimetype.DetectFile(abs)
	if err != nil {
		return nil, fmt.Errorf("error reading image: %w", err)
	}
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%s is %s: %w", abs, mt.String(), ErrNotAnImage)
	}

	return &Image{
		Path: abs,
		URI:  (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(),
		MIME: mt.String(),
		Size: info.Size(),
	}, nil
}
