package enrichment

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/ironsheep/coloc-tools-mcp/internal/imaging"
)

// DefaultAlpha is the significance level used when none is configured.
const DefaultAlpha = 0.05

// Reason classifies a skipped object or degenerate input.
type Reason string

const (
	// ReasonNoObjects means the expected mask held no objects.
	ReasonNoObjects Reason = "no_objects"

	// ReasonTooFewObjectPixels means the object had fewer than 2 pixels.
	ReasonTooFewObjectPixels Reason = "too_few_object_pixels"

	// ReasonTooFewBackgroundPixels means the object's ring had fewer than 2
	// pixels, usually because neighbours or the image border swallowed it.
	ReasonTooFewBackgroundPixels Reason = "too_few_background_pixels"
)

// Warning records an object that could not be tested. The object is treated
// as not significant.
type Warning struct {
	Label  int    `json:"label,omitempty"`
	Reason Reason `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

// ObjectStat summarises one tested object.
type ObjectStat struct {
	Label            int     `json:"label"`
	ObjectMedian     float64 `json:"object_median"`
	BackgroundMedian float64 `json:"background_median"`
	ObjectPixels     int     `json:"object_pixels"`
	BackgroundPixels int     `json:"background_pixels"`
	T                float64 `json:"t"`
	PValue           float64 `json:"p_value"`
	Passed           bool    `json:"passed"`
}

// Enrichment is the ratio of object median to background median. It is NaN
// when the background median is 0.
func (s ObjectStat) Enrichment() float64 {
	if s.BackgroundMedian == 0 {
		return math.NaN()
	}
	return s.ObjectMedian / s.BackgroundMedian
}

// MarshalJSON writes non-finite values (an infinite t for zero-variance
// samples, an undefined enrichment ratio) as null and adds the ratio.
func (s ObjectStat) MarshalJSON() ([]byte, error) {
	type plain ObjectStat
	return json.Marshal(struct {
		plain
		T          *float64 `json:"t"`
		Enrichment *float64 `json:"enrichment"`
	}{plain(s), finite(s.T), finite(s.Enrichment())})
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Result is the outcome of Validate.
type Result struct {
	// Mask holds the pixels of every passing object with its label.
	Mask *imaging.LabelMask `json:"-"`

	// Stats has one entry per passing object in ascending label order.
	Stats []ObjectStat `json:"stats"`

	// Tested has one entry per object that reached the t-test, passing or
	// not, in ascending label order.
	Tested []ObjectStat `json:"tested"`

	// Warnings lists objects skipped without a test.
	Warnings []Warning `json:"warnings,omitempty"`
}

// Passed returns the labels present in Mask.
func (r *Result) Passed() []int {
	labels := make([]int, len(r.Stats))
	for i, s := range r.Stats {
		labels[i] = s.Label
	}
	return labels
}

// Validate keeps the objects of expected whose intensities in img are
// significantly greater than the intensities of their background ring.
//
// For each label L in 1..max(expected) with a non-empty region, the object
// sample is img at expected == L and the background sample is img at
// background == L. GreaterTTest compares them; when p < alpha the object's
// pixels are copied into the result mask with label L and its medians are
// recorded. Labels are independent of each other.
//
// Objects with fewer than two pixels on either side are not tested and are
// reported as warnings instead of errors.
func Validate(img *imaging.IntensityImage, expected, background *imaging.LabelMask, alpha float64) (*Result, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if err := expected.Validate(); err != nil {
		return nil, fmt.Errorf("expected mask: %w", err)
	}
	if err := background.Validate(); err != nil {
		return nil, fmt.Errorf("background mask: %w", err)
	}
	if !img.Matches(expected) || !expected.SameShape(background) {
		return nil, fmt.Errorf("image %dx%d, expected %dx%d, background %dx%d: %w",
			img.Width, img.Height, expected.Width, expected.Height,
			background.Width, background.Height, imaging.ErrShapeMismatch)
	}
	if !(alpha > 0 && alpha < 1) {
		return nil, fmt.Errorf("alpha %v outside (0, 1)", alpha)
	}

	result := &Result{
		Mask:   imaging.NewLabelMask(expected.Width, expected.Height),
		Stats:  make([]ObjectStat, 0),
		Tested: make([]ObjectStat, 0),
	}

	objects := expected.PixelGroups()
	rings := groupsUpTo(background, len(objects)-1)

	found := false
	for label := 1; label < len(objects); label++ {
		pixels := objects[label]
		if len(pixels) == 0 {
			continue
		}
		found = true

		objectValues := img.Sample(pixels)
		backgroundValues := img.Sample(rings[label])

		tt, err := GreaterTTest(objectValues, backgroundValues)
		if errors.Is(err, ErrTooFewSamples) {
			result.Warnings = append(result.Warnings, tooFewWarning(label, len(objectValues), len(backgroundValues)))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("label %d: %w", label, err)
		}

		s := ObjectStat{
			Label:            label,
			ObjectMedian:     Median(objectValues),
			BackgroundMedian: Median(backgroundValues),
			ObjectPixels:     len(objectValues),
			BackgroundPixels: len(backgroundValues),
			T:                tt.T,
			PValue:           tt.PValue,
			Passed:           tt.PValue < alpha,
		}
		result.Tested = append(result.Tested, s)
		if !s.Passed {
			continue
		}

		for _, i := range pixels {
			result.Mask.Pix[i] = label
		}
		result.Stats = append(result.Stats, s)
	}

	if !found {
		result.Warnings = append(result.Warnings, Warning{Reason: ReasonNoObjects, Detail: "expected mask has no objects"})
	}
	return result, nil
}

// groupsUpTo returns the pixel indices of labels 0..maxLabel in m. Labels of
// m above maxLabel are ignored since no object can claim them.
func groupsUpTo(m *imaging.LabelMask, maxLabel int) [][]int {
	groups := make([][]int, maxLabel+1)
	for i, label := range m.Pix {
		if label > 0 && label <= maxLabel {
			groups[label] = append(groups[label], i)
		}
	}
	return groups
}

func tooFewWarning(label, objectPixels, backgroundPixels int) Warning {
	if objectPixels < 2 {
		return Warning{
			Label:  label,
			Reason: ReasonTooFewObjectPixels,
			Detail: fmt.Sprintf("%d object pixels", objectPixels),
		}
	}
	return Warning{
		Label:  label,
		Reason: ReasonTooFewBackgroundPixels,
		Detail: fmt.Sprintf("%d background pixels", backgroundPixels),
	}
}
