package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// IntensityImage is a single-channel raster of non-negative sample values,
// stored row-major like LabelMask.
type IntensityImage struct {
	Width  int
	Height int
	Pix    []float64
}

// NewIntensityImage returns a zero-valued image of the given size.
func NewIntensityImage(width, height int) *IntensityImage {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &IntensityImage{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height),
	}
}

// Validate checks that the pixel buffer matches the dimensions.
func (im *IntensityImage) Validate() error {
	if im == nil {
		return errors.New("nil intensity image")
	}
	if im.Width < 0 || im.Height < 0 || len(im.Pix) != im.Width*im.Height {
		return fmt.Errorf("intensity image %dx%d has %d pixels", im.Width, im.Height, len(im.Pix))
	}
	return nil
}

// At returns the sample at (x, y). Coordinates outside the image read as 0.
func (im *IntensityImage) At(x, y int) float64 {
	if x < 0 || y < 0 || x >= im.Width || y >= im.Height {
		return 0
	}
	return im.Pix[y*im.Width+x]
}

// Set writes a sample at (x, y).
func (im *IntensityImage) Set(x, y int, v float64) {
	if x < 0 || y < 0 || x >= im.Width || y >= im.Height {
		return
	}
	im.Pix[y*im.Width+x] = v
}

// Matches reports whether the image can be paired pixel-for-pixel with m.
func (im *IntensityImage) Matches(m *LabelMask) bool {
	return im.Width == m.Width && im.Height == m.Height
}

// Range returns the minimum and maximum sample values. An empty image
// returns (0, 0).
func (im *IntensityImage) Range() (lo, hi float64) {
	if len(im.Pix) == 0 {
		return 0, 0
	}
	lo, hi = im.Pix[0], im.Pix[0]
	for _, v := range im.Pix[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Sample returns the values at the given row-major pixel indices.
func (im *IntensityImage) Sample(indices []int) []float64 {
	values := make([]float64, len(indices))
	for i, idx := range indices {
		values[i] = im.Pix[idx]
	}
	return values
}

// IntensityFromImage converts a decoded grayscale channel image.
//
// 16-bit grayscale keeps its native 0-65535 scale and 8-bit grayscale its
// 0-255 scale, so statistics stay in the microscope's units. Color images
// are reduced to luminance at their own depth: 16-bit RGB on the 0-65535
// scale, every other color or palette image on the 0-255 scale.
func IntensityFromImage(img image.Image) *IntensityImage {
	bounds := img.Bounds()
	im := NewIntensityImage(bounds.Dx(), bounds.Dy())

	switch src := img.(type) {
	case *image.Gray16:
		for y := 0; y < im.Height; y++ {
			for x := 0; x < im.Width; x++ {
				im.Pix[y*im.Width+x] = float64(src.Gray16At(x+bounds.Min.X, y+bounds.Min.Y).Y)
			}
		}
	case *image.Gray:
		for y := 0; y < im.Height; y++ {
			for x := 0; x < im.Width; x++ {
				im.Pix[y*im.Width+x] = float64(src.GrayAt(x+bounds.Min.X, y+bounds.Min.Y).Y)
			}
		}
	case *image.RGBA64, *image.NRGBA64:
		for y := 0; y < im.Height; y++ {
			for x := 0; x < im.Width; x++ {
				g := color.Gray16Model.Convert(img.At(x+bounds.Min.X, y+bounds.Min.Y)).(color.Gray16)
				im.Pix[y*im.Width+x] = float64(g.Y)
			}
		}
	default:
		for y := 0; y < im.Height; y++ {
			for x := 0; x < im.Width; x++ {
				g := color.GrayModel.Convert(img.At(x+bounds.Min.X, y+bounds.Min.Y)).(color.Gray)
				im.Pix[y*im.Width+x] = float64(g.Y)
			}
		}
	}
	return im
}
