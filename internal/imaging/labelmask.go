package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// ErrShapeMismatch is returned when two rasters that must be paired
// pixel-for-pixel have different dimensions.
var ErrShapeMismatch = errors.New("raster dimensions do not match")

// LabelMask is an integer-labeled raster.
//
// Value 0 is background and each positive integer identifies one object.
// Labels are assigned upstream (segmentation) and are not guaranteed to be
// contiguous: MaxLabel is treated as the object count and callers iterate
// 1..MaxLabel, treating labels with no pixels as empty.
//
// Pixels are stored row-major: the label at (x, y) is Pix[y*Width+x].
// Operations in this module never mutate a mask they receive; every
// transformation returns a freshly allocated LabelMask.
type LabelMask struct {
	Width  int
	Height int
	Pix    []int
}

// NewLabelMask returns an all-background mask of the given size.
func NewLabelMask(width, height int) *LabelMask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &LabelMask{
		Width:  width,
		Height: height,
		Pix:    make([]int, width*height),
	}
}

// LabelMaskFromRows builds a mask from a row-major 2D slice. All rows must
// have the same length and no value may be negative.
func LabelMaskFromRows(rows [][]int) (*LabelMask, error) {
	height := len(rows)
	width := 0
	if height > 0 {
		width = len(rows[0])
	}
	m := NewLabelMask(width, height)
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d columns, want %d", y, len(row), width)
		}
		for x, v := range row {
			if v < 0 {
				return nil, fmt.Errorf("negative label %d at (%d,%d)", v, x, y)
			}
			m.Pix[y*width+x] = v
		}
	}
	return m, nil
}

// Validate checks that the pixel buffer matches the dimensions and holds no
// negative labels.
func (m *LabelMask) Validate() error {
	if m == nil {
		return errors.New("nil label mask")
	}
	if m.Width < 0 || m.Height < 0 || len(m.Pix) != m.Width*m.Height {
		return fmt.Errorf("label mask %dx%d has %d pixels", m.Width, m.Height, len(m.Pix))
	}
	for i, v := range m.Pix {
		if v < 0 {
			return fmt.Errorf("negative label %d at (%d,%d)", v, i%m.Width, i/m.Width)
		}
	}
	return nil
}

// At returns the label at (x, y). Coordinates outside the mask read as 0.
func (m *LabelMask) At(x, y int) int {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return 0
	}
	return m.Pix[y*m.Width+x]
}

// Set writes a label at (x, y). Intended for constructing new masks.
func (m *LabelMask) Set(x, y, label int) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.Pix[y*m.Width+x] = label
}

// SameShape reports whether m and other have identical dimensions.
func (m *LabelMask) SameShape(other *LabelMask) bool {
	return m.Width == other.Width && m.Height == other.Height
}

// MaxLabel returns the largest label in the mask (0 for an empty mask).
func (m *LabelMask) MaxLabel() int {
	max := 0
	for _, v := range m.Pix {
		if v > max {
			max = v
		}
	}
	return max
}

// Clone returns a deep copy of the mask.
func (m *LabelMask) Clone() *LabelMask {
	pix := make([]int, len(m.Pix))
	copy(pix, m.Pix)
	return &LabelMask{Width: m.Width, Height: m.Height, Pix: pix}
}

// Equal reports whether two masks have the same shape and labels.
func (m *LabelMask) Equal(other *LabelMask) bool {
	if other == nil || !m.SameShape(other) {
		return false
	}
	for i, v := range m.Pix {
		if other.Pix[i] != v {
			return false
		}
	}
	return true
}

// Presence returns the binary view of the mask: true wherever the label is
// positive.
func (m *LabelMask) Presence() []bool {
	present := make([]bool, len(m.Pix))
	for i, v := range m.Pix {
		present[i] = v > 0
	}
	return present
}

// Labels returns the distinct positive labels present, ascending.
func (m *LabelMask) Labels() []int {
	groups := m.PixelGroups()
	labels := make([]int, 0)
	for label := 1; label < len(groups); label++ {
		if len(groups[label]) > 0 {
			labels = append(labels, label)
		}
	}
	return labels
}

// ObjectCount returns the number of distinct positive labels present.
func (m *LabelMask) ObjectCount() int {
	return len(m.Labels())
}

// PixelGroups indexes the mask once and returns, for each label 0..MaxLabel,
// the row-major pixel indices carrying that label. Index 0 holds the
// background pixels. Unused labels map to an empty slice.
func (m *LabelMask) PixelGroups() [][]int {
	max := m.MaxLabel()
	counts := make([]int, max+1)
	for _, v := range m.Pix {
		counts[v]++
	}
	groups := make([][]int, max+1)
	for label, n := range counts {
		groups[label] = make([]int, 0, n)
	}
	for i, v := range m.Pix {
		groups[v] = append(groups[v], i)
	}
	return groups
}

// ToGray16 encodes the mask as a 16-bit grayscale image, the usual on-disk
// representation of a label image. Labels above 65535 are rejected.
func (m *LabelMask) ToGray16() (*image.Gray16, error) {
	img := image.NewGray16(image.Rect(0, 0, m.Width, m.Height))
	for i, v := range m.Pix {
		if v > 0xFFFF {
			return nil, fmt.Errorf("label %d exceeds 16-bit range", v)
		}
		img.SetGray16(i%m.Width, i/m.Width, color.Gray16{Y: uint16(v)})
	}
	return img, nil
}

// LabelMaskFromImage converts a decoded label image into a LabelMask.
//
// Gray16 and Gray images are read directly. Any other color model is
// treated as an 8-bit export and converted with color.GrayModel, so an RGB
// or palette label image keeps its luminance as the label value.
func LabelMaskFromImage(img image.Image) *LabelMask {
	bounds := img.Bounds()
	m := NewLabelMask(bounds.Dx(), bounds.Dy())

	switch src := img.(type) {
	case *image.Gray16:
		for y := 0; y < m.Height; y++ {
			for x := 0; x < m.Width; x++ {
				m.Pix[y*m.Width+x] = int(src.Gray16At(x+bounds.Min.X, y+bounds.Min.Y).Y)
			}
		}
	case *image.Gray:
		for y := 0; y < m.Height; y++ {
			for x := 0; x < m.Width; x++ {
				m.Pix[y*m.Width+x] = int(src.GrayAt(x+bounds.Min.X, y+bounds.Min.Y).Y)
			}
		}
	default:
		for y := 0; y < m.Height; y++ {
			for x := 0; x < m.Width; x++ {
				g := color.GrayModel.Convert(img.At(x+bounds.Min.X, y+bounds.Min.Y)).(color.Gray)
				m.Pix[y*m.Width+x] = int(g.Y)
			}
		}
	}
	return m
}
