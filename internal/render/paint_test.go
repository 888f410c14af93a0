package render_test

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brandshot-backend/internal/render"
	"brandshot-backend/internal/style"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"#fff", color.NRGBA{R: 255, G: 255, B: 255, A: 255}},
		{"#0f172a", color.NRGBA{R: 0x0f, G: 0x17, B: 0x2a, A: 255}},
		{"#ff000080", color.NRGBA{R: 255, A: 0x80}},
		{"rgba(0, 0, 0, 0.1)", color.NRGBA{A: 26}},
		{"rgb(10 20 30 / 50%)", color.NRGBA{R: 10, G: 20, B: 30, A: 128}},
		{"RGB(300, -5, 7)", color.NRGBA{R: 255, G: 0, B: 7, A: 255}},
		{"transparent", color.NRGBA{}},
		{" white ", color.NRGBA{R: 255, G: 255, B: 255, A: 255}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := render.ParseColor(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseColor_Invalid(t *testing.T) {
	for _, in := range []string{"", "#12", "#zzzzzz", "rgb(1, 2)", "hsl(0, 0%, 0%)", "bluish"} {
		_, err := render.ParseColor(in)
		assert.ErrorIs(t, err, render.ErrInvalidPaint, in)
	}
}

func TestParsePaint_AllBackgroundPresets(t *testing.T) {
	for _, bg := range style.Backgrounds {
		_, err := render.ParsePaint(bg.Value)
		assert.NoError(t, err, bg.Name)
	}
}

func TestLinearGradient_ToRight(t *testing.T) {
	p, err := render.ParsePaint("linear-gradient(to right, #000000, #ffffff)")
	require.NoError(t, err)

	left := p.At(0.5, 5, 100, 10)
	right := p.At(99.5, 5, 100, 10)
	mid := p.At(50, 5, 100, 10)

	assert.InDelta(t, 1, float64(left.R), 2)
	assert.InDelta(t, 254, float64(right.R), 2)
	assert.InDelta(t, 128, float64(mid.R), 2)
}

func TestLinearGradient_CornerDirection(t *testing.T) {
	p, err := render.ParsePaint("linear-gradient(to right bottom, #000000, #ffffff)")
	require.NoError(t, err)

	topLeft := p.At(0, 0, 200, 100)
	bottomRight := p.At(200, 100, 200, 100)
	// the two other corners sit on the same isoline
	topRight := p.At(200, 0, 200, 100)
	bottomLeft := p.At(0, 100, 200, 100)

	assert.Equal(t, uint8(0), topLeft.R)
	assert.Equal(t, uint8(255), bottomRight.R)
	assert.InDelta(t, float64(topRight.R), float64(bottomLeft.R), 1)
}

func TestLinearGradient_StopPositions(t *testing.T) {
	p, err := render.ParsePaint("linear-gradient(90deg, rgb(0 0 0 / 100%), #ffffff 50%, #ffffff)")
	require.NoError(t, err)

	assert.Equal(t, uint8(255), p.At(75, 0, 100, 10).R)
}

func TestParsePaint_InvalidGradient(t *testing.T) {
	for _, in := range []string{
		"linear-gradient()",
		"linear-gradient(to right, #000)",
		"linear-gradient(to nowhere, #000, #fff)",
		"linear-gradient(abcdeg, #000, #fff)",
		"linear-gradient(#000, #fff oops%)",
	} {
		_, err := render.ParsePaint(in)
		assert.ErrorIs(t, err, render.ErrInvalidPaint, in)
	}
}
