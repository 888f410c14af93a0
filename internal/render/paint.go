package render

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidPaint = errors.New("invalid color or gradient")

// Paint yields a colour for a point inside a w×h box.
type Paint interface {
	At(x, y, w, h float64) color.NRGBA
}

type Solid color.NRGBA

func (s Solid) At(_, _, _, _ float64) color.NRGBA { return color.NRGBA(s) }

type Stop struct {
	Color color.NRGBA
	Pos   float64
}

// LinearGradient follows CSS linear-gradient geometry. Either Angle (degrees,
// 0 = to top, clockwise) or a corner direction via CornerX/CornerY is used.
type LinearGradient struct {
	Angle   float64
	CornerX int
	CornerY int
	Stops   []Stop
}

func (g LinearGradient) At(x, y, w, h float64) color.NRGBA {
	var dx, dy float64
	if g.CornerX != 0 || g.CornerY != 0 {
		// perpendicular to the diagonal joining the other two corners
		dx, dy = float64(g.CornerX)*h, float64(g.CornerY)*w
		n := math.Hypot(dx, dy)
		dx, dy = dx/n, dy/n
	} else {
		rad := g.Angle * math.Pi / 180
		dx, dy = math.Sin(rad), -math.Cos(rad)
	}
	length := math.Abs(w*dx) + math.Abs(h*dy)
	if length == 0 {
		return g.Stops[0].Color
	}
	t := ((x-w/2)*dx+(y-h/2)*dy)/length + 0.5
	return g.colorAt(t)
}

func (g LinearGradient) colorAt(t float64) color.NRGBA {
	stops := g.Stops
	if t <= stops[0].Pos {
		return stops[0].Color
	}
	last := stops[len(stops)-1]
	if t >= last.Pos {
		return last.Color
	}
	for i := 1; i < len(stops); i++ {
		a, b := stops[i-1], stops[i]
		if t > b.Pos {
			continue
		}
		span := b.Pos - a.Pos
		if span <= 0 {
			return b.Color
		}
		return lerpColor(a.Color, b.Color, (t-a.Pos)/span)
	}
	return last.Color
}

func lerpColor(a, b color.NRGBA, t float64) color.NRGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.NRGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

// ParsePaint understands the CSS subset the style presets use: hex, rgb(),
// rgba(), a few keywords, and linear-gradient().
func ParsePaint(s string) (Paint, error) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "linear-gradient(") && strings.HasSuffix(lower, ")") {
		return parseLinearGradient(lower[len("linear-gradient(") : len(lower)-1])
	}
	c, err := ParseColor(s)
	if err != nil {
		return nil, err
	}
	return Solid(c), nil
}

func parseLinearGradient(body string) (Paint, error) {
	parts := splitTopLevel(body)
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: empty gradient", ErrInvalidPaint)
	}

	g := LinearGradient{Angle: 180}
	first := strings.TrimSpace(parts[0])
	switch {
	case strings.HasPrefix(first, "to "):
		if err := g.setDirection(strings.Fields(first)[1:]); err != nil {
			return nil, err
		}
		parts = parts[1:]
	case strings.HasSuffix(first, "deg"):
		angle, err := strconv.ParseFloat(strings.TrimSuffix(first, "deg"), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad angle %q", ErrInvalidPaint, first)
		}
		g.Angle = angle
		parts = parts[1:]
	}

	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: gradient needs at least two stops", ErrInvalidPaint)
	}
	for i, p := range parts {
		stop, err := parseStop(strings.TrimSpace(p), i, len(parts))
		if err != nil {
			return nil, err
		}
		g.Stops = append(g.Stops, stop)
	}
	return g, nil
}

func (g *LinearGradient) setDirection(words []string) error {
	for _, w := range words {
		switch w {
		case "top":
			g.CornerY = -1
		case "bottom":
			g.CornerY = 1
		case "left":
			g.CornerX = -1
		case "right":
			g.CornerX = 1
		default:
			return fmt.Errorf("%w: bad direction %q", ErrInvalidPaint, w)
		}
	}
	switch {
	case g.CornerX != 0 && g.CornerY != 0:
		return nil
	case g.CornerX != 0:
		g.Angle = 90 * float64(g.CornerX)
	case g.CornerY == -1:
		g.Angle = 0
	default:
		g.Angle = 180
	}
	g.CornerX, g.CornerY = 0, 0
	return nil
}

func parseStop(s string, index, count int) (Stop, error) {
	pos := float64(index) / float64(count-1)
	colorPart := s
	if i := strings.LastIndex(s, " "); i > 0 && strings.HasSuffix(s, "%") && strings.Count(s[:i], "(") == strings.Count(s[:i], ")") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s[i+1:], "%"), 64)
		if err != nil {
			return Stop{}, fmt.Errorf("%w: bad stop position %q", ErrInvalidPaint, s)
		}
		pos = v / 100
		colorPart = strings.TrimSpace(s[:i])
	}
	c, err := ParseColor(colorPart)
	if err != nil {
		return Stop{}, err
	}
	return Stop{Color: c, Pos: pos}, nil
}

var namedColors = map[string]color.NRGBA{
	"transparent": {},
	"black":       {A: 255},
	"white":       {R: 255, G: 255, B: 255, A: 255},
	"red":         {R: 255, A: 255},
	"green":       {G: 128, A: 255},
	"blue":        {B: 255, A: 255},
}

func ParseColor(s string) (color.NRGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	if strings.HasPrefix(s, "#") {
		return parseHex(s[1:])
	}
	if strings.HasPrefix(s, "rgb") {
		return parseRGBFunc(s)
	}
	return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidPaint, s)
}

func parseHex(h string) (color.NRGBA, error) {
	switch len(h) {
	case 3, 4:
		expanded := make([]byte, 0, len(h)*2)
		for i := 0; i < len(h); i++ {
			expanded = append(expanded, h[i], h[i])
		}
		h = string(expanded)
	case 6, 8:
	default:
		return color.NRGBA{}, fmt.Errorf("%w: bad hex color #%s", ErrInvalidPaint, h)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: bad hex color #%s", ErrInvalidPaint, h)
	}
	if len(h) == 6 {
		return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

func parseRGBFunc(s string) (color.NRGBA, error) {
	open, end := strings.Index(s, "("), strings.LastIndex(s, ")")
	if open < 0 || end < open {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidPaint, s)
	}
	args := strings.FieldsFunc(s[open+1:end], func(r rune) bool { return r == ',' || r == ' ' || r == '/' })
	if len(args) != 3 && len(args) != 4 {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidPaint, s)
	}

	var ch [3]uint8
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidPaint, s)
		}
		ch[i] = uint8(math.Round(math.Min(255, math.Max(0, v))))
	}
	alpha := 1.0
	if len(args) == 4 {
		a := args[3]
		pct := strings.HasSuffix(a, "%")
		v, err := strconv.ParseFloat(strings.TrimSuffix(a, "%"), 64)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidPaint, s)
		}
		if pct {
			v /= 100
		}
		alpha = math.Min(1, math.Max(0, v))
	}
	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: uint8(math.Round(alpha * 255))}, nil
}

// splitTopLevel splits on commas that are not nested inside parentheses.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" {
		parts = append(parts, rest)
	}
	return parts
}
