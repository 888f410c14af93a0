package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"brandshot-backend/internal/style"
)

var ErrEmptyTree = errors.New("nothing to rasterize")

// Rasterizer turns a visual tree into pixels at the given density multiplier.
// The capture background is always transparent, so rounded corners never pick
// up an opaque fill.
type Rasterizer interface {
	Rasterize(ctx context.Context, tree Tree, scale float64) (*image.NRGBA, error)
}

// ImagingRasterizer composites trees with disintegration/imaging.
type ImagingRasterizer struct {
	fonts *FontSet
}

func NewRasterizer(fonts *FontSet) *ImagingRasterizer {
	if fonts == nil {
		fonts = NewFontSet()
	}
	return &ImagingRasterizer{fonts: fonts}
}

func (r *ImagingRasterizer) Rasterize(ctx context.Context, tree Tree, scale float64) (*image.NRGBA, error) {
	if scale <= 0 || math.IsNaN(scale) {
		return nil, fmt.Errorf("invalid scale %v", scale)
	}
	w := int(math.Round(float64(tree.Width) * scale))
	h := int(math.Round(float64(tree.Height) * scale))
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyTree
	}

	canvas := imaging.New(w, h, color.Transparent)
	return r.paint(ctx, canvas, tree.Root, scale)
}

func (r *ImagingRasterizer) paint(ctx context.Context, canvas *image.NRGBA, n Node, scale float64) (*image.NRGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var err error
	switch n.Kind {
	case KindBackground:
		paint, perr := ParsePaint(n.Fill)
		if perr != nil {
			return nil, fmt.Errorf("background: %w", perr)
		}
		fillRounded(canvas, scaleRect(n.Box, scale), n.Radius*scale, paint)
		for _, child := range n.Children {
			if canvas, err = r.paint(ctx, canvas, child, scale); err != nil {
				return nil, err
			}
		}
	case KindFrame:
		canvas, err = r.paintFrame(ctx, canvas, n, scale)
	case KindText:
		err = r.paintText(canvas, n, scale)
	default:
		err = fmt.Errorf("unexpected %s node at top level", n.Kind)
	}
	if err != nil {
		return nil, err
	}
	return canvas, nil
}

func (r *ImagingRasterizer) paintFrame(ctx context.Context, canvas *image.NRGBA, n Node, scale float64) (*image.NRGBA, error) {
	rect := scaleRect(n.Box, scale)
	if rect.Empty() {
		return canvas, nil
	}
	radius := n.Radius * scale

	if n.Shadow != nil && n.Shadow.Opacity > 0 {
		canvas = drawShadow(canvas, rect, radius, *n.Shadow, scale)
	}

	fw, fh := rect.Dx(), rect.Dy()
	layer := image.NewNRGBA(image.Rect(0, 0, fw, fh))
	if n.Fill != "" {
		paint, err := ParsePaint(n.Fill)
		if err != nil {
			return nil, fmt.Errorf("frame: %w", err)
		}
		fillRounded(layer, layer.Bounds(), 0, paint)
	}

	for _, child := range n.Children {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch child.Kind {
		case KindImage:
			if child.Source == nil || child.Source.Image == nil {
				continue
			}
			ir := scaleRect(child.Box, scale)
			if ir.Empty() {
				continue
			}
			resized := imaging.Resize(child.Source.Image, ir.Dx(), ir.Dy(), imaging.Lanczos)
			layer = imaging.Overlay(layer, resized, ir.Min.Sub(rect.Min), 1.0)
		case KindPlaceholder:
			if err := r.paintPlaceholder(layer, child.Caption, scale); err != nil {
				return nil, err
			}
		}
	}

	// clip to the rounded frame
	for y := 0; y < fh; y++ {
		for x := 0; x < fw; x++ {
			cov := roundedCoverage(float64(x)+0.5, float64(y)+0.5, float64(fw), float64(fh), radius)
			if cov >= 1 {
				continue
			}
			i := layer.PixOffset(x, y)
			layer.Pix[i+3] = uint8(math.Round(float64(layer.Pix[i+3]) * cov))
		}
	}

	if n.Border != nil && n.Border.Width > 0 {
		bc, err := ParseColor(n.Border.Color)
		if err != nil {
			return nil, fmt.Errorf("border: %w", err)
		}
		bw := math.Max(1, math.Round(n.Border.Width*scale))
		for y := 0; y < fh; y++ {
			for x := 0; x < fw; x++ {
				px, py := float64(x)+0.5, float64(y)+0.5
				outer := roundedCoverage(px, py, float64(fw), float64(fh), radius)
				inner := roundedCoverage(px-bw, py-bw, float64(fw)-2*bw, float64(fh)-2*bw, math.Max(0, radius-bw))
				if ring := outer - inner; ring > 0 {
					blend(layer, x, y, bc, ring)
				}
			}
		}
	}

	return imaging.Overlay(canvas, layer, rect.Min, 1.0), nil
}

func (r *ImagingRasterizer) paintPlaceholder(layer *image.NRGBA, caption string, scale float64) error {
	b := layer.Bounds()
	cx, cy := float64(b.Dx())/2, float64(b.Dy())/2

	stroke, _ := ParseColor(PlaceholderStroke)
	size := PlaceholderGlyph * scale
	glyph := image.Rect(
		int(math.Round(cx-size/2)), int(math.Round(cy-size/2-20*scale)),
		int(math.Round(cx+size/2)), int(math.Round(cy+size/2-20*scale)),
	)
	sw := math.Max(1, math.Round(3*scale))
	gw, gh := float64(glyph.Dx()), float64(glyph.Dy())
	for y := glyph.Min.Y; y < glyph.Max.Y; y++ {
		for x := glyph.Min.X; x < glyph.Max.X; x++ {
			px, py := float64(x-glyph.Min.X)+0.5, float64(y-glyph.Min.Y)+0.5
			outer := roundedCoverage(px, py, gw, gh, 8*scale)
			inner := roundedCoverage(px-sw, py-sw, gw-2*sw, gh-2*sw, math.Max(0, 8*scale-sw))
			sun := circleCoverage(px, py, gw*0.33, gh*0.35, 5*scale)
			if a := math.Max(outer-inner, sun); a > 0 && image.Pt(x, y).In(b) {
				blend(layer, x, y, stroke, a)
			}
		}
	}

	if caption == "" {
		return nil
	}
	textColor, _ := ParseColor(PlaceholderText)
	return r.fonts.drawCentered(layer, style.FontSans, 16*scale, textColor, caption, cx, cy+28*scale)
}

func (r *ImagingRasterizer) paintText(canvas *image.NRGBA, n Node, scale float64) error {
	if n.Text == nil || n.Text.Content == "" {
		return nil
	}
	c, err := ParseColor(n.Text.Color)
	if err != nil {
		return fmt.Errorf("text: %w", err)
	}
	size := math.Max(1, n.Text.FontSizePx*scale)
	return r.fonts.drawCentered(canvas, n.Text.FontFamily, size, c, n.Text.Content, n.Box.X*scale, n.Box.Y*scale)
}

func drawShadow(canvas *image.NRGBA, rect image.Rectangle, radius float64, sh Shadow, scale float64) *image.NRGBA {
	sigma := sh.Blur * scale / 2
	spread := math.Round(sh.Spread * scale)
	margin := int(math.Ceil(sigma * 3))

	sw := rect.Dx() + 2*int(spread) + 2*margin
	shh := rect.Dy() + 2*int(spread) + 2*margin
	mask := image.NewNRGBA(image.Rect(0, 0, sw, shh))

	bw, bh := float64(rect.Dx())+2*spread, float64(rect.Dy())+2*spread
	alpha := sh.Opacity * 255
	for y := 0; y < shh; y++ {
		for x := 0; x < sw; x++ {
			px := float64(x-margin) + 0.5
			py := float64(y-margin) + 0.5
			cov := roundedCoverage(px, py, bw, bh, radius+spread)
			if cov > 0 {
				mask.Pix[mask.PixOffset(x, y)+3] = uint8(math.Round(cov * alpha))
			}
		}
	}

	blurred := mask
	if sigma > 0 {
		blurred = imaging.Blur(mask, sigma)
	}

	// an outer shadow is never painted underneath the box itself
	ox := float64(margin) + spread
	oy := float64(margin) + spread - math.Round(sh.OffsetY*scale)
	fw, fh := float64(rect.Dx()), float64(rect.Dy())
	for y := 0; y < shh; y++ {
		for x := 0; x < sw; x++ {
			inside := roundedCoverage(float64(x)-ox+0.5, float64(y)-oy+0.5, fw, fh, radius)
			if inside > 0 {
				i := blurred.PixOffset(x, y) + 3
				blurred.Pix[i] = uint8(math.Round(float64(blurred.Pix[i]) * (1 - inside)))
			}
		}
	}

	pos := image.Pt(
		rect.Min.X-int(spread)-margin,
		rect.Min.Y-int(spread)-margin+int(math.Round(sh.OffsetY*scale)),
	)
	return imaging.Overlay(canvas, blurred, pos, 1.0)
}

// fillRounded paints rect with p, anti-aliasing the rounded corners.
func fillRounded(dst *image.NRGBA, rect image.Rectangle, radius float64, p Paint) {
	area := rect.Intersect(dst.Bounds())
	w, h := float64(rect.Dx()), float64(rect.Dy())
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			lx := float64(x-rect.Min.X) + 0.5
			ly := float64(y-rect.Min.Y) + 0.5
			cov := 1.0
			if radius > 0 {
				cov = roundedCoverage(lx, ly, w, h, radius)
			}
			if cov > 0 {
				blend(dst, x, y, p.At(lx, ly, w, h), cov)
			}
		}
	}
}

// roundedCoverage is the fraction of the pixel centred at (px, py) that lies
// inside a w×h rounded rectangle anchored at the origin.
func roundedCoverage(px, py, w, h, r float64) float64 {
	if w <= 0 || h <= 0 {
		return 0
	}
	r = math.Max(0, math.Min(r, math.Min(w, h)/2))
	qx := math.Abs(px-w/2) - (w/2 - r)
	qy := math.Abs(py-h/2) - (h/2 - r)
	d := math.Hypot(math.Max(qx, 0), math.Max(qy, 0)) + math.Min(math.Max(qx, qy), 0) - r
	return clamp01(0.5 - d)
}

func circleCoverage(px, py, cx, cy, r float64) float64 {
	return clamp01(r - math.Hypot(px-cx, py-cy) + 0.5)
}

// blend composites c over the pixel at (x, y) with extra coverage a, in
// non-premultiplied space.
func blend(dst *image.NRGBA, x, y int, c color.NRGBA, a float64) {
	sa := float64(c.A) / 255 * a
	if sa <= 0 {
		return
	}
	i := dst.PixOffset(x, y)
	p := dst.Pix[i : i+4 : i+4]
	da := float64(p[3]) / 255
	oa := sa + da*(1-sa)
	if oa <= 0 {
		return
	}
	mix := func(s, d uint8) uint8 {
		return uint8(math.Round((float64(s)*sa + float64(d)*da*(1-sa)) / oa))
	}
	p[0] = mix(c.R, p[0])
	p[1] = mix(c.G, p[1])
	p[2] = mix(c.B, p[2])
	p[3] = uint8(math.Round(oa * 255))
}

func scaleRect(r Rect, scale float64) image.Rectangle {
	x0 := int(math.Round(r.X * scale))
	y0 := int(math.Round(r.Y * scale))
	x1 := int(math.Round((r.X + r.W) * scale))
	y1 := int(math.Round((r.Y + r.H) * scale))
	return image.Rect(x0, y0, x1, y1)
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
