package detection

import (
	"fmt"

	"github.com/ironsheep/coloc-tools-mcp/internal/imaging"
)

// OverlapObject reports how much of one reference object lies inside the
// query channel's objects.
type OverlapObject struct {
	// Label is the object's label in the reference mask.
	Label int `json:"label"`

	// Area is the object's pixel count.
	Area int `json:"area"`

	// OverlapArea is the number of the object's pixels where the query mask
	// is positive.
	OverlapArea int `json:"overlap_area"`

	// Fraction is OverlapArea / Area.
	Fraction float64 `json:"fraction"`

	// Kept is true when Fraction reached the threshold.
	Kept bool `json:"kept"`
}

// OverlapResult is the outcome of comparing two channels' masks.
type OverlapResult struct {
	// Mask has the reference mask's shape. It holds, for every kept
	// reference object, the object's pixels that are also positive in the
	// query mask, labeled with the reference label. Everything else is 0.
	Mask *imaging.LabelMask `json:"-"`

	// Objects has one entry per reference label present, ascending.
	Objects []OverlapObject `json:"objects"`

	// Kept is the number of objects that passed the threshold.
	Kept int `json:"kept"`

	// Warnings lists non-fatal observations about the inputs.
	Warnings []Warning `json:"warnings,omitempty"`
}

// FindOverlap returns the reference objects that sufficiently overlap the
// query channel, keeping only their overlapping pixels.
//
// It is Overlap without the per-object report.
func FindOverlap(reference, query *imaging.LabelMask, threshold float64) (*imaging.LabelMask, error) {
	res, err := Overlap(reference, query, threshold)
	if err != nil {
		return nil, err
	}
	return res.Mask, nil
}

// Overlap finds which objects of the reference channel are colocalized with
// any object of the query channel.
//
// The query mask is reduced to presence (any positive label). For each
// reference label L in 1..max(reference), with pixel set P:
//
//	fraction = |P ∩ query| / |P|
//
// If fraction >= threshold, the pixels of P inside the query are written to
// the result with label L; the rest of P stays 0. Otherwise the object is
// dropped entirely. Labels with no pixels are skipped. Label identity always
// comes from the reference mask, never from the query's labeling.
//
// threshold must be in (0, 1]. At 1.0 only objects fully contained in the
// query's positive region survive.
//
// The reference channel is expected to hold no more objects than the query
// channel (reference objects are a subset population). When it holds more,
// the call still succeeds and a warning is recorded; the result will simply
// discard more objects.
func Overlap(reference, query *imaging.LabelMask, threshold float64) (*OverlapResult, error) {
	if err := checkPair(reference, query); err != nil {
		return nil, err
	}
	if !(threshold > 0 && threshold <= 1) {
		return nil, fmt.Errorf("overlap threshold %v outside (0, 1]", threshold)
	}

	result := &OverlapResult{
		Mask:    imaging.NewLabelMask(reference.Width, reference.Height),
		Objects: make([]OverlapObject, 0),
	}

	queryPresent := query.Presence()
	groups := reference.PixelGroups()

	refCount := 0
	for label := 1; label < len(groups); label++ {
		if len(groups[label]) > 0 {
			refCount++
		}
	}
	if refCount == 0 {
		result.Warnings = append(result.Warnings, Warning{Reason: ReasonNoObjects, Detail: "reference mask has no objects"})
	}
	if queryCount := query.ObjectCount(); refCount > queryCount {
		result.Warnings = append(result.Warnings, Warning{
			Reason: ReasonMoreReferenceObjects,
			Detail: fmt.Sprintf("reference has %d objects, query has %d", refCount, queryCount),
		})
	}

	for label := 1; label < len(groups); label++ {
		pixels := groups[label]
		if len(pixels) == 0 {
			continue
		}

		inside := 0
		for _, i := range pixels {
			if queryPresent[i] {
				inside++
			}
		}
		fraction := float64(inside) / float64(len(pixels))
		kept := fraction >= threshold

		if kept {
			for _, i := range pixels {
				if queryPresent[i] {
					result.Mask.Pix[i] = label
				}
			}
			result.Kept++
		}

		result.Objects = append(result.Objects, OverlapObject{
			Label:       label,
			Area:        len(pixels),
			OverlapArea: inside,
			Fraction:    fraction,
			Kept:        kept,
		})
	}

	return result, nil
}

func checkPair(a, b *imaging.LabelMask) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := b.Validate(); err != nil {
		return err
	}
	if !a.SameShape(b) {
		return fmt.Errorf("masks are %dx%d and %dx%d: %w", a.Width, a.Height, b.Width, b.Height, imaging.ErrShapeMismatch)
	}
	return nil
}
