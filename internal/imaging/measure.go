package imaging

import (
	"math"
)

// Point represents a 2D pixel coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// BoundingBox is an object's extent. (X1,Y1) is inclusive, (X2,Y2) exclusive.
type BoundingBox struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Centroid is the mean pixel position of an object.
type Centroid struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ObjectProps describes one labeled object.
type ObjectProps struct {
	Label    int         `json:"label"`
	Area     int         `json:"area"`
	Centroid Centroid    `json:"centroid"`
	Bounds   BoundingBox `json:"bounds"`
}

// MeasureObjects returns area, centroid and bounding box for every label
// present in m, in ascending label order. Centroids are rounded to 0.01 px.
func MeasureObjects(m *LabelMask) []ObjectProps {
	groups := m.PixelGroups()
	props := make([]ObjectProps, 0, len(groups))

	for label := 1; label < len(groups); label++ {
		pixels := groups[label]
		if len(pixels) == 0 {
			continue
		}

		minX, minY := m.Width, m.Height
		maxX, maxY := -1, -1
		var sumX, sumY float64
		for _, i := range pixels {
			x, y := i%m.Width, i/m.Width
			sumX += float64(x)
			sumY += float64(y)
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}

		n := float64(len(pixels))
		props = append(props, ObjectProps{
			Label: label,
			Area:  len(pixels),
			Centroid: Centroid{
				X: math.Round(sumX/n*100) / 100,
				Y: math.Round(sumY/n*100) / 100,
			},
			Bounds: BoundingBox{X1: minX, Y1: minY, X2: maxX + 1, Y2: maxY + 1},
		})
	}
	return props
}

// PropsByLabel indexes MeasureObjects output by label.
func PropsByLabel(props []ObjectProps) map[int]ObjectProps {
	byLabel := make(map[int]ObjectProps, len(props))
	for _, p := range props {
		byLabel[p.Label] = p
	}
	return byLabel
}
