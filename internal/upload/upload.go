package upload

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"

	// extra decoders beyond the ones imaging registers
	_ "golang.org/x/image/webp"
)

var (
	ErrEmpty           = errors.New("uploaded file is empty")
	ErrTooLarge        = errors.New("uploaded file is too large")
	ErrUnsupportedType = errors.New("uploaded file is not a supported image")
	ErrMalformedURI    = errors.New("malformed data URI")
)

// Image is an uploaded image held in memory for the lifetime of a session.
type Image struct {
	DataURI  string
	MimeType string
	Width    int
	Height   int
	Size     int
	Decoded  image.Image
}

var supportedTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp", "image/bmp", "image/tiff"}

// Limits bound an upload by encoded size and by decoded pixel count. A small,
// highly compressed file can still declare an enormous canvas, so both apply.
// A non-positive Pixels disables the pixel check.
type Limits struct {
	Bytes  int64
	Pixels int64
}

// Decode reads at most lim.Bytes bytes from r and turns them into an Image.
// EXIF orientation is applied so the preview matches what the user sees locally.
func Decode(ctx context.Context, r io.Reader, lim Limits) (*Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, lim.Bytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > lim.Bytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, lim.Bytes)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return FromBytes(data, lim.Pixels)
}

// FromBytes validates and decodes raw image bytes. The header is checked
// against maxPixels before any pixel buffer is allocated.
func FromBytes(data []byte, maxPixels int64) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}

	mime := mimetype.Detect(data)
	if !mimetype.EqualsAny(mime.String(), supportedTypes...) {
		return nil, fmt.Errorf("%w: detected %s", ErrUnsupportedType, mime.String())
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedType, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: image has no pixels", ErrUnsupportedType)
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, cfg.Width, cfg.Height, maxPixels)
	}

	decoded, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedType, err)
	}

	bounds := decoded.Bounds()
	return &Image{
		DataURI:  "data:" + mime.String() + ";base64," + base64.StdEncoding.EncodeToString(data),
		MimeType: mime.String(),
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Size:     len(data),
		Decoded:  decoded,
	}, nil
}

// ParseDataURI accepts the base64 data URI form a browser FileReader produces.
func ParseDataURI(uri string, lim Limits) (*Image, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "data:")
	if !ok {
		return nil, ErrMalformedURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, ErrMalformedURI
	}
	if int64(base64.StdEncoding.DecodedLen(len(payload))) > lim.Bytes+2 {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, lim.Bytes)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedURI, err)
	}
	if int64(len(data)) > lim.Bytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, lim.Bytes)
	}
	return FromBytes(data, lim.Pixels)
}
