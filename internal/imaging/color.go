package imaging

import (
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// goldenAngle spaces successive hues so neighbouring labels get visibly
// different colors no matter how many labels exist.
const goldenAngle = 137.50776405003785

// LabelColor returns the display color for a label.
//
// Colors are deterministic: label n always gets the same hue, so overlays of
// the same mask rendered in different runs are directly comparable. Label 0
// (background) is transparent black.
func LabelColor(label int) color.RGBA {
	if label <= 0 {
		return color.RGBA{}
	}
	hue := math.Mod(float64(label-1)*goldenAngle, 360)
	// Alternate value so hues that land close together still separate.
	value := 0.95
	if label%2 == 0 {
		value = 0.8
	}
	c := colorful.Hsv(hue, 0.85, value)
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// LabelHex returns LabelColor as "#RRGGBB".
func LabelHex(label int) string {
	if label <= 0 {
		return "#000000"
	}
	c, _ := colorful.MakeColor(LabelColor(label))
	return c.Hex()
}

// parseLayerColor parses a fixed layer tint such as "#FF0000". An empty
// string means per-label palette colors.
func parseLayerColor(hex string) (color.RGBA, bool, error) {
	if hex == "" {
		return color.RGBA{}, false, nil
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, false, err
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, true, nil
}
