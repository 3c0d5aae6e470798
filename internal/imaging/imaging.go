// Package imaging decodes and stores extracted image bytes.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"

	apierrors "github.com/diogo/genaiprobe/internal/errors"
)

// Info describes a decoded image
type Info struct {
	Format string
	Width  int
	Height int
	Size   int
}

func (i Info) String() string {
	return fmt.Sprintf("%s %dx%d (%d bytes)", i.Format, i.Width, i.Height, i.Size)
}

// Decode reads the image header of data. It fails with a DecodeError when
// the bytes are not a PNG, JPEG, GIF or WebP image.
func Decode(data []byte) (Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, apierrors.NewDecodeError(len(data), err)
	}
	return Info{
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
		Size:   len(data),
	}, nil
}

// Extension returns the file extension for a decoded format
func Extension(format string) string {
	switch format {
	case "png":
		return ".png"
	case "gif":
		return ".gif"
	case "webp":
		return ".webp"
	case "jpeg":
		return ".jpg"
	default:
		return ".bin"
	}
}

// Filename builds a unique name for an image of the given format
func Filename(format string, now time.Time) string {
	id := uuid.NewString()[:8]
	return fmt.Sprintf("image_%s_%s%s", now.Format("20060102_150405"), id, Extension(format))
}

// Save writes data into dir and returns the absolute path of the new file.
func Save(dir string, data []byte, info Info) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	destPath := filepath.Join(dir, Filename(info.Format, time.Now()))
	if err := os.WriteFile(destPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	// Return absolute path (fallback to relative path if Abs fails)
	absPath, err := filepath.Abs(destPath)
	if err != nil {
		return destPath, nil
	}
	return absPath, nil
}
