package detection

import (
	"fmt"

	"github.com/ironsheep/coloc-tools-mcp/internal/imaging"
)

// SizeRange bounds object pixel areas. Both ends are inclusive; Max == 0
// means no upper bound.
type SizeRange struct {
	Min int `json:"min_area"`
	Max int `json:"max_area"`
}

// Contains reports whether area falls within the range.
func (r SizeRange) Contains(area int) bool {
	if area < r.Min {
		return false
	}
	return r.Max == 0 || area <= r.Max
}

// Validate checks the range is well formed.
func (r SizeRange) Validate() error {
	if r.Min < 0 || r.Max < 0 {
		return fmt.Errorf("size range [%d, %d] has a negative bound", r.Min, r.Max)
	}
	if r.Max != 0 && r.Min > r.Max {
		return fmt.Errorf("size range min %d exceeds max %d", r.Min, r.Max)
	}
	return nil
}

// ComponentAreas labels the 8-connected components of the mask's positive
// region and returns each component's pixel area in raster-scan order.
// Labels are ignored: touching objects count as one component.
func ComponentAreas(mask *imaging.LabelMask) ([]int, error) {
	if err := mask.Validate(); err != nil {
		return nil, err
	}
	components := imaging.LabelComponents(mask.Presence(), mask.Width, mask.Height)
	groups := components.PixelGroups()

	areas := make([]int, 0, len(groups))
	for label := 1; label < len(groups); label++ {
		areas = append(areas, len(groups[label]))
	}
	return areas, nil
}

// CountObjects counts the connected objects of a logical mask whose pixel
// area lies in [minArea, maxArea] (maxArea 0 = unbounded).
func CountObjects(mask *imaging.LabelMask, minArea, maxArea int) (int, error) {
	r := SizeRange{Min: minArea, Max: maxArea}
	if err := r.Validate(); err != nil {
		return 0, err
	}
	areas, err := ComponentAreas(mask)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, a := range areas {
		if r.Contains(a) {
			count++
		}
	}
	return count, nil
}

// FilterBySize returns a copy of mask keeping only labels whose area lies in
// the range. Labels keep their values; this is per label, not per
// connected component.
func FilterBySize(mask *imaging.LabelMask, r SizeRange) (*imaging.LabelMask, error) {
	if err := mask.Validate(); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	out := imaging.NewLabelMask(mask.Width, mask.Height)
	groups := mask.PixelGroups()
	for label := 1; label < len(groups); label++ {
		if len(groups[label]) == 0 || !r.Contains(len(groups[label])) {
			continue
		}
		for _, i := range groups[label] {
			out.Pix[i] = label
		}
	}
	return out, nil
}
