package style

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrUnknownField = errors.New("unknown style field")
	ErrInvalidValue = errors.New("invalid style value")
)

// Field names accepted by State.With.
const (
	FieldBackground      = "background"
	FieldPadding         = "padding"
	FieldPaddingX        = "padding_x"
	FieldPaddingY        = "padding_y"
	FieldCornerRadius    = "corner_radius"
	FieldShadowIntensity = "shadow_intensity"
	FieldFrameWidth      = "frame_width"
	FieldFrameHeight     = "frame_height"
	FieldBorderEnabled   = "border_enabled"
	FieldText            = "text"
	FieldTextContent     = "text.content"
	FieldTextFontFamily  = "text.font_family"
	FieldTextFontSize    = "text.font_size"
	FieldTextColor       = "text.color"
	FieldTextPositionX   = "text.position_x"
	FieldTextPositionY   = "text.position_y"
)

// TextOverlay is the optional caption drawn over the composition.
type TextOverlay struct {
	Content    string     `json:"content"`
	FontFamily FontFamily `json:"font_family"`
	FontSizePx int        `json:"font_size"`
	Color      string     `json:"color"`
	PositionX  float64    `json:"position_x"`
	PositionY  float64    `json:"position_y"`
}

// State is the complete set of user-chosen visual parameters. It is a value:
// every update produces a new State and never mutates a published one.
type State struct {
	Background      string       `json:"background"`
	PaddingX        int          `json:"padding_x"`
	PaddingY        int          `json:"padding_y"`
	CornerRadius    int          `json:"corner_radius"`
	ShadowIntensity float64      `json:"shadow_intensity"`
	FrameWidth      int          `json:"frame_width"`
	FrameHeight     int          `json:"frame_height"`
	BorderEnabled   bool         `json:"border_enabled"`
	TextOverlay     *TextOverlay `json:"text_overlay,omitempty"`
	ProEnabled      bool         `json:"pro_enabled"`
}

// Default returns the state every new session starts from.
func Default() State {
	return State{
		Background:      Backgrounds[0].Value,
		PaddingX:        Paddings[1].Value,
		PaddingY:        Paddings[1].Value,
		CornerRadius:    Roundings[2].Value,
		ShadowIntensity: ShadowPresets[len(ShadowPresets)-1].Value,
		FrameWidth:      600,
		FrameHeight:     400,
		BorderEnabled:   true,
	}
}

// DefaultTextOverlay is used when a text field is set on a state that has no overlay yet.
func DefaultTextOverlay() TextOverlay {
	return TextOverlay{
		FontFamily: FontSans,
		FontSizePx: 48,
		Color:      "#ffffff",
		PositionX:  50,
		PositionY:  50,
	}
}

// OuterSize is the size of the padded background box in CSS pixels.
func (s State) OuterSize() (int, int) {
	return s.FrameWidth + 2*s.PaddingX, s.FrameHeight + 2*s.PaddingY
}

// WithPro returns a copy with the feature gate set. It is not reachable through With:
// only server-side entitlement checks may flip it.
func (s State) WithPro(enabled bool) State {
	s.TextOverlay = s.TextOverlay.clone()
	s.ProEnabled = enabled
	return s
}

// With returns a copy of s with one field overwritten. Ranges are not enforced
// here; callers clamp at the input boundary with Clamp.
func (s State) With(field string, value any) (State, error) {
	next := s
	next.TextOverlay = s.TextOverlay.clone()

	switch field {
	case FieldBackground:
		v, err := toString(value)
		if err != nil {
			return s, fieldError(field, err)
		}
		if strings.TrimSpace(v) == "" {
			return s, fieldError(field, fmt.Errorf("%w: background cannot be empty", ErrInvalidValue))
		}
		next.Background = strings.TrimSpace(v)
	case FieldPadding:
		v, err := intField(field, value)
		if err != nil {
			return s, err
		}
		next.PaddingX, next.PaddingY = v, v
	case FieldPaddingX:
		v, err := intField(field, value)
		if err != nil {
			return s, err
		}
		next.PaddingX = v
	case FieldPaddingY:
		v, err := intField(field, value)
		if err != nil {
			return s, err
		}
		next.PaddingY = v
	case FieldCornerRadius:
		v, err := intField(field, value)
		if err != nil {
			return s, err
		}
		next.CornerRadius = v
	case FieldFrameWidth:
		v, err := intField(field, value)
		if err != nil {
			return s, err
		}
		next.FrameWidth = v
	case FieldFrameHeight:
		v, err := intField(field, value)
		if err != nil {
			return s, err
		}
		next.FrameHeight = v
	case FieldShadowIntensity:
		v, err := toShadow(value)
		if err != nil {
			return s, fieldError(field, err)
		}
		next.ShadowIntensity = v
	case FieldBorderEnabled:
		v, err := toBool(value)
		if err != nil {
			return s, fieldError(field, err)
		}
		next.BorderEnabled = v
	case FieldText:
		overlay, err := toOverlay(value)
		if err != nil {
			return s, fieldError(field, err)
		}
		next.TextOverlay = overlay
	case FieldTextContent, FieldTextFontFamily, FieldTextFontSize, FieldTextColor, FieldTextPositionX, FieldTextPositionY:
		if next.TextOverlay == nil {
			o := DefaultTextOverlay()
			next.TextOverlay = &o
		}
		if err := setText(next.TextOverlay, field, value); err != nil {
			return s, fieldError(field, err)
		}
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	return next, nil
}

// IsTextField reports whether field edits the text overlay.
func IsTextField(field string) bool {
	return field == FieldText || strings.HasPrefix(field, FieldText+".")
}

func intField(field string, value any) (int, error) {
	v, err := toInt(value)
	if err != nil {
		return 0, fieldError(field, err)
	}
	return v, nil
}

func setText(o *TextOverlay, field string, value any) error {
	switch field {
	case FieldTextContent:
		v, err := toString(value)
		if err != nil {
			return err
		}
		o.Content = v
	case FieldTextFontFamily:
		v, err := toString(value)
		if err != nil {
			return err
		}
		family, ok := ParseFontFamily(v)
		if !ok {
			return fmt.Errorf("%w: unknown font family %q", ErrInvalidValue, v)
		}
		o.FontFamily = family
	case FieldTextFontSize:
		v, err := toInt(value)
		if err != nil {
			return err
		}
		o.FontSizePx = v
	case FieldTextColor:
		v, err := toString(value)
		if err != nil {
			return err
		}
		o.Color = strings.TrimSpace(v)
	case FieldTextPositionX:
		v, err := toFloat(value)
		if err != nil {
			return err
		}
		o.PositionX = v
	case FieldTextPositionY:
		v, err := toFloat(value)
		if err != nil {
			return err
		}
		o.PositionY = v
	}
	return nil
}

func (o *TextOverlay) clone() *TextOverlay {
	if o == nil {
		return nil
	}
	c := *o
	return &c
}

func fieldError(field string, err error) error {
	return fmt.Errorf("field %s: %w", field, err)
}

func toString(value any) (string, error) {
	v, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected string, got %T", ErrInvalidValue, value)
	}
	return v, nil
}

// toFloat coerces JSON numbers and numeric strings. NaN and infinities are
// rejected: they have no place in any field and do not survive JSON encoding.
func toFloat(value any) (float64, error) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, v)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("%w: expected number, got %T", ErrInvalidValue, value)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: non-finite number", ErrInvalidValue)
	}
	return f, nil
}

func toInt(value any) (int, error) {
	f, err := toFloat(value)
	if err != nil {
		return 0, err
	}
	return int(math.Round(f)), nil
}

func toBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("%w: %q is not a boolean", ErrInvalidValue, v)
		}
		return b, nil
	default:
		return false, fmt.Errorf("%w: expected boolean, got %T", ErrInvalidValue, value)
	}
}

// toShadow accepts a number in [0,1] or a preset name such as "2xl".
func toShadow(value any) (float64, error) {
	if name, ok := value.(string); ok {
		if preset, found := ShadowPreset(name); found {
			return preset, nil
		}
	}
	return toFloat(value)
}

func toOverlay(value any) (*TextOverlay, error) {
	if value == nil {
		return nil, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	o := DefaultTextOverlay()
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	if _, ok := ParseFontFamily(string(o.FontFamily)); !ok {
		return nil, fmt.Errorf("%w: unknown font family %q", ErrInvalidValue, o.FontFamily)
	}
	return &o, nil
}
