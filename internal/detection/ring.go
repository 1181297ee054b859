package detection

import (
	"fmt"

	"github.com/ironsheep/coloc-tools-mcp/internal/imaging"
)

// BuildRing returns the local-background "donut" around every object.
//
// Each object's region is dilated by a disk of the given radius
// (all offsets with dx²+dy² <= radius²), then the footprint of every object
// in the original mask is removed. Each ring pixel carries the label of the
// object it was grown from, so the ring for label L is exactly the pixels
// where the result equals L.
//
// Where the dilations of two objects reach the same pixel, the object with
// the nearest pixel (Euclidean distance) claims it; at equal distance the
// lower label wins. Because the claim depends only on the nearest object, a
// larger radius never reassigns a pixel that a smaller radius already
// assigned: rings grow monotonically with radius.
//
// The structuring element is clipped at the image border: pixels outside the
// image neither contribute nor receive labels, and every row and column,
// including index 0, is processed.
func BuildRing(mask *imaging.LabelMask, radius int) (*imaging.LabelMask, error) {
	if err := mask.Validate(); err != nil {
		return nil, err
	}
	if radius < 1 {
		return nil, fmt.Errorf("ring radius %d must be at least 1", radius)
	}

	w, h := mask.Width, mask.Height
	offsets := diskOffsets(radius)

	ring := imaging.NewLabelMask(w, h)
	bestDist := make([]int, len(mask.Pix))

	for i, label := range mask.Pix {
		if label == 0 || !isBoundary(mask, i) {
			continue
		}
		x, y := i%w, i/w
		for _, o := range offsets {
			tx, ty := x+o.dx, y+o.dy
			if tx < 0 || tx >= w || ty < 0 || ty >= h {
				continue
			}
			t := ty*w + tx
			if mask.Pix[t] != 0 {
				continue
			}
			current := ring.Pix[t]
			if current == 0 || o.d2 < bestDist[t] || (o.d2 == bestDist[t] && label < current) {
				ring.Pix[t] = label
				bestDist[t] = o.d2
			}
		}
	}

	return ring, nil
}

type offset struct {
	dx, dy, d2 int
}

// diskOffsets lists the non-zero offsets of a disk structuring element.
func diskOffsets(radius int) []offset {
	r2 := radius * radius
	offsets := make([]offset, 0, 4*r2)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			d2 := dx*dx + dy*dy
			if d2 == 0 || d2 > r2 {
				continue
			}
			offsets = append(offsets, offset{dx: dx, dy: dy, d2: d2})
		}
	}
	return offsets
}

// isBoundary reports whether pixel i has a 4-neighbour inside the image with
// a different label.
//
// The pixel of an object nearest to any outside point always has such a
// neighbour (one step toward the point leaves the object), so dilating from
// boundary pixels alone yields the same nearest-object assignment as
// dilating from every pixel.
func isBoundary(m *imaging.LabelMask, i int) bool {
	x, y := i%m.Width, i/m.Width
	label := m.Pix[i]
	if x > 0 && m.Pix[i-1] != label {
		return true
	}
	if x < m.Width-1 && m.Pix[i+1] != label {
		return true
	}
	if y > 0 && m.Pix[i-m.Width] != label {
		return true
	}
	if y < m.Height-1 && m.Pix[i+m.Width] != label {
		return true
	}
	return false
}
