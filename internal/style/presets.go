package style

import (
	"math"
	"strings"
)

type FontFamily string

const (
	FontSans   FontFamily = "sans"
	FontBold   FontFamily = "bold"
	FontItalic FontFamily = "italic"
	FontMono   FontFamily = "mono"
)

// FontFamilies lists the families the text layer can render.
var FontFamilies = []FontFamily{FontSans, FontBold, FontItalic, FontMono}

func ParseFontFamily(name string) (FontFamily, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, f := range FontFamilies {
		if string(f) == name {
			return f, true
		}
	}
	return "", false
}

type BackgroundOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type IntOption struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type FloatOption struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

var Backgrounds = []BackgroundOption{
	{Name: "Midnight", Value: "#0f172a"},
	{Name: "Clean White", Value: "#ffffff"},
	{Name: "Oceanic", Value: "linear-gradient(to right bottom, #3b82f6, #6366f1)"},
	{Name: "Sunset", Value: "linear-gradient(to right bottom, #f43f5e, #1d4ed8)"},
	{Name: "Gold Dust", Value: "linear-gradient(to right bottom, #fbbf24, #ef4444)"},
	{Name: "Neon Cyber", Value: "linear-gradient(to right, #f472b6, #d946ef, #8b5cf6)"},
	{Name: "Deep Sea", Value: "linear-gradient(to right, #000000, #434343)"},
	{Name: "Aurora", Value: "linear-gradient(to bottom right, #00f2fe, #4facfe)"},
}

var Paddings = []IntOption{
	{Name: "Small", Value: 32},
	{Name: "Medium", Value: 64},
	{Name: "Large", Value: 96},
	{Name: "Extra", Value: 128},
}

var Roundings = []IntOption{
	{Name: "None", Value: 0},
	{Name: "Small", Value: 8},
	{Name: "Large", Value: 24},
	{Name: "Full", Value: 48},
}

// ShadowPresets are ordered by increasing intensity.
var ShadowPresets = []FloatOption{
	{Name: "none", Value: 0},
	{Name: "sm", Value: 0.2},
	{Name: "md", Value: 0.4},
	{Name: "lg", Value: 0.6},
	{Name: "xl", Value: 0.8},
	{Name: "2xl", Value: 1},
}

func ShadowPreset(name string) (float64, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "shadow-")
	for _, p := range ShadowPresets {
		if p.Name == name {
			return p.Value, true
		}
	}
	return 0, false
}

// Range is the inclusive bound an input control enforces for a numeric field.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

var Ranges = map[string]Range{
	FieldPadding:         {Min: 0, Max: 256},
	FieldPaddingX:        {Min: 0, Max: 256},
	FieldPaddingY:        {Min: 0, Max: 256},
	FieldCornerRadius:    {Min: 0, Max: 128},
	FieldShadowIntensity: {Min: 0, Max: 1},
	FieldFrameWidth:      {Min: 64, Max: 2400},
	FieldFrameHeight:     {Min: 64, Max: 2400},
	FieldTextFontSize:    {Min: 8, Max: 240},
	FieldTextPositionX:   {Min: 0, Max: 100},
	FieldTextPositionY:   {Min: 0, Max: 100},
}

// Clamp bounds a numeric value to the field's input range, the way a slider
// would. Fields without a range and values that are not finite numbers pass
// through untouched, so State.With can reject them.
func Clamp(field string, value any) any {
	r, ok := Ranges[field]
	if !ok {
		return value
	}
	if field == FieldShadowIntensity {
		if name, isString := value.(string); isString {
			if _, preset := ShadowPreset(name); preset {
				return value
			}
		}
	}
	f, err := toFloat(value)
	if err != nil {
		return value
	}
	return math.Min(r.Max, math.Max(r.Min, f))
}
