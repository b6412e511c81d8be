// Package thumbnail checks local image files against the platform's custom
// thumbnail constraints before they are uploaded.
package thumbnail

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
)

// Platform limits for custom thumbnails.
const (
	MaxBytes  = 2 * 1024 * 1024
	MinWidth  = 1280
	MinHeight = 720
)

var supportedExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
}

// InspectFunc returns the pixel dimensions of an image file.
type InspectFunc func(path string) (width, height int, err error)

// Validator is a fail-closed thumbnail check.
//
// A nil Inspect skips the dimension check; every other check still applies.
type Validator struct {
	MaxBytes  int64
	MinWidth  int
	MinHeight int
	Inspect   InspectFunc
}

// DefaultValidator returns a Validator with platform limits that decodes image headers.
func DefaultValidator() *Validator {
	return &Validator{
		MaxBytes:  MaxBytes,
		MinWidth:  MinWidth,
		MinHeight: MinHeight,
		Inspect:   DecodeDimensions,
	}
}

// DecodeDimensions reads only the image header of path.
func DecodeDimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// Supported reports whether path carries one of the accepted raster extensions.
func Supported(path string) bool {
	return supportedExts[strings.ToLower(filepath.Ext(path))]
}

// Validate reports whether the file at path may be sent as a thumbnail.
//
// Each rejection is reported once through logf, which may be nil.
func (v *Validator) Validate(path string, logf func(string)) bool {
	reject := func(format string, args ...any) bool {
		if logf != nil {
			logf(fmt.Sprintf(format, args...))
		}
		return false
	}

	path = strings.TrimSpace(path)
	if path == "" {
		return reject("thumbnail path is empty")
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return reject("thumbnail not found: %s", path)
	}

	if !Supported(path) {
		return reject("unsupported thumbnail format %q (use jpg, jpeg, png, gif or bmp)", filepath.Ext(path))
	}

	if v.MaxBytes > 0 && info.Size() > v.MaxBytes {
		return reject("thumbnail too large: %.2f MB (max %.0f MB)",
			float64(info.Size())/(1024*1024), float64(v.MaxBytes)/(1024*1024))
	}

	if v.Inspect == nil {
		return true
	}

	w, h, err := v.inspect(path)
	if err != nil {
		return reject("thumbnail could not be read: %v", err)
	}
	if w < v.MinWidth || h < v.MinHeight {
		return reject("thumbnail too small: %dx%d (min %dx%d)", w, h, v.MinWidth, v.MinHeight)
	}
	return true
}

func (v *Validator) inspect(path string) (w, h int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decoder panic: %v", r)
		}
	}()
	return v.Inspect(path)
}
