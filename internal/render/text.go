package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"brandshot-backend/internal/style"
)

var fontData = map[style.FontFamily][]byte{
	style.FontSans:   goregular.TTF,
	style.FontBold:   gobold.TTF,
	style.FontItalic: goitalic.TTF,
	style.FontMono:   gomono.TTF,
}

type faceKey struct {
	family style.FontFamily
	size   float64
}

// FontSet parses the bundled fonts once and caches faces per family and pixel size.
type FontSet struct {
	mu    sync.Mutex
	fonts map[style.FontFamily]*opentype.Font
	faces map[faceKey]font.Face
}

func NewFontSet() *FontSet {
	return &FontSet{
		fonts: make(map[style.FontFamily]*opentype.Font),
		faces: make(map[faceKey]font.Face),
	}
}

// Face returns a face for family at sizePx pixels. Unknown families fall back to sans.
func (fs *FontSet) Face(family style.FontFamily, sizePx float64) (font.Face, error) {
	if _, ok := fontData[family]; !ok {
		family = style.FontSans
	}
	key := faceKey{family: family, size: math.Round(sizePx*4) / 4}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if face, ok := fs.faces[key]; ok {
		return face, nil
	}
	f, ok := fs.fonts[family]
	if !ok {
		parsed, err := opentype.Parse(fontData[family])
		if err != nil {
			return nil, fmt.Errorf("failed to parse font %s: %w", family, err)
		}
		fs.fonts[family] = parsed
		f = parsed
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    key.size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face %s@%.2f: %w", family, key.size, err)
	}
	fs.faces[key] = face
	return face, nil
}

// drawCentered draws text so that its bounding box is centred on (cx, cy).
// font.Face values are not safe for concurrent use, so drawing holds the set's lock.
func (fs *FontSet) drawCentered(dst draw.Image, family style.FontFamily, sizePx float64, c color.NRGBA, text string, cx, cy float64) error {
	face, err := fs.Face(family, sizePx)
	if err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
	}
	width := d.MeasureString(text)
	metrics := face.Metrics()
	height := metrics.Ascent + metrics.Descent

	x := fixed.Int26_6(math.Round(cx*64)) - width/2
	y := fixed.Int26_6(math.Round(cy*64)) - height/2 + metrics.Ascent
	d.Dot = fixed.Point26_6{X: x, Y: y}
	d.DrawString(text)
	return nil
}
