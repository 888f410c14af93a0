package render

import (
	"image"
	"math"

	"brandshot-backend/internal/style"
	"brandshot-backend/internal/upload"
)

type NodeKind string

const (
	KindBackground  NodeKind = "background"
	KindFrame       NodeKind = "frame"
	KindImage       NodeKind = "image"
	KindPlaceholder NodeKind = "placeholder"
	KindText        NodeKind = "text"
)

const (
	// FrameFill tints the frame behind a letterboxed image.
	FrameFill   = "rgba(0, 0, 0, 0.1)"
	BorderColor = "rgba(255, 255, 255, 0.1)"
	BorderWidth = 1.0

	PlaceholderCaption = "Upload an image to get started"
	PlaceholderGlyph   = 48.0
	PlaceholderText    = "#737373"
	PlaceholderStroke  = "#404040"
)

// Rect is a box in CSS pixels relative to the outer box's top-left corner.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

type Shadow struct {
	Blur    float64 `json:"blur"`
	Spread  float64 `json:"spread"`
	OffsetY float64 `json:"offset_y"`
	Opacity float64 `json:"opacity"`
}

type Border struct {
	Width float64 `json:"width"`
	Color string  `json:"color"`
}

type ImageSource struct {
	MimeType      string      `json:"mime_type"`
	NaturalWidth  int         `json:"natural_width"`
	NaturalHeight int         `json:"natural_height"`
	Image         image.Image `json:"-"`
}

type TextSpec struct {
	Content    string           `json:"content"`
	FontFamily style.FontFamily `json:"font_family"`
	FontSizePx float64          `json:"font_size"`
	Color      string           `json:"color"`
}

// Node is one layer of the visual tree.
type Node struct {
	Kind        NodeKind     `json:"kind"`
	Box         Rect         `json:"box"`
	Fill        string       `json:"fill,omitempty"`
	Radius      float64      `json:"radius,omitempty"`
	Shadow      *Shadow      `json:"shadow,omitempty"`
	Border      *Border      `json:"border,omitempty"`
	Source      *ImageSource `json:"source,omitempty"`
	Text        *TextSpec    `json:"text,omitempty"`
	Caption     string       `json:"caption,omitempty"`
	Interactive bool         `json:"interactive"`
	Children    []Node       `json:"children,omitempty"`
}

// Tree is the full visual tree for one State; Root is the outer background box.
type Tree struct {
	Width  int  `json:"width"`
	Height int  `json:"height"`
	Pro    bool `json:"pro"`
	Root   Node `json:"root"`
}

// HasImage reports whether the frame holds an uploaded image rather than the placeholder.
func (t Tree) HasImage() bool {
	for _, n := range t.Root.Children {
		if n.Kind != KindFrame {
			continue
		}
		for _, c := range n.Children {
			if c.Kind == KindImage {
				return true
			}
		}
	}
	return false
}

// ShadowFor maps an intensity in [0,1] to shadow geometry. Blur, spread,
// offset and opacity all grow with intensity; zero means no shadow.
func ShadowFor(intensity float64) *Shadow {
	i := math.Min(1, math.Max(0, intensity))
	if i == 0 {
		return nil
	}
	return &Shadow{
		Blur:    50 * i,
		Spread:  8 * i,
		OffsetY: 25 * i,
		Opacity: 0.15 + 0.25*i,
	}
}

// Build derives the visual tree from the current state. It is pure: the same
// inputs always give the same tree, and nothing is retained.
func Build(s style.State, img *upload.Image) Tree {
	outerW, outerH := s.OuterSize()
	frameBox := Rect{
		X: float64(s.PaddingX),
		Y: float64(s.PaddingY),
		W: float64(s.FrameWidth),
		H: float64(s.FrameHeight),
	}

	frame := Node{
		Kind:   KindFrame,
		Box:    frameBox,
		Fill:   FrameFill,
		Radius: float64(s.CornerRadius),
		Shadow: ShadowFor(s.ShadowIntensity),
	}
	if s.BorderEnabled {
		frame.Border = &Border{Width: BorderWidth, Color: BorderColor}
	}
	if img != nil && img.Decoded != nil {
		frame.Children = []Node{imageNode(frameBox, img)}
	} else {
		frame.Children = []Node{placeholderNode(frameBox)}
	}

	root := Node{
		Kind:     KindBackground,
		Box:      Rect{W: float64(outerW), H: float64(outerH)},
		Fill:     s.Background,
		Children: []Node{frame},
	}
	if t := s.TextOverlay; t != nil && t.Content != "" {
		root.Children = append(root.Children, Node{
			Kind: KindText,
			// anchor point; the text is centred on it
			Box: Rect{
				X: float64(outerW) * t.PositionX / 100,
				Y: float64(outerH) * t.PositionY / 100,
			},
			Text: &TextSpec{
				Content:    t.Content,
				FontFamily: t.FontFamily,
				FontSizePx: float64(t.FontSizePx),
				Color:      t.Color,
			},
		})
	}

	return Tree{Width: outerW, Height: outerH, Pro: s.ProEnabled, Root: root}
}

// imageNode fits the image inside the frame preserving its aspect ratio, centred.
func imageNode(frame Rect, img *upload.Image) Node {
	w, h := FitSize(float64(img.Width), float64(img.Height), frame.W, frame.H)
	return Node{
		Kind: KindImage,
		Box: Rect{
			X: frame.X + (frame.W-w)/2,
			Y: frame.Y + (frame.H-h)/2,
			W: w,
			H: h,
		},
		Source: &ImageSource{
			MimeType:      img.MimeType,
			NaturalWidth:  img.Width,
			NaturalHeight: img.Height,
			Image:         img.Decoded,
		},
	}
}

func placeholderNode(frame Rect) Node {
	return Node{
		Kind:    KindPlaceholder,
		Box:     frame,
		Caption: PlaceholderCaption,
	}
}

// FitSize scales (w, h) up or down to the largest size that fits in (maxW, maxH).
func FitSize(w, h, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 || maxW <= 0 || maxH <= 0 {
		return 0, 0
	}
	scale := math.Min(maxW/w, maxH/h)
	return w * scale, h * scale
}
