package pipeline

import (
	"fmt"

	"github.com/ironsheep/coloc-tools-mcp/internal/detection"
	"github.com/ironsheep/coloc-tools-mcp/internal/enrichment"
	"github.com/ironsheep/coloc-tools-mcp/internal/imaging"
)

// Params are the analysis settings applied to every field.
type Params struct {
	OverlapThreshold float64 `json:"overlap_threshold"`
	RingRadius       int     `json:"ring_radius"`
	Alpha            float64 `json:"alpha"`
	MinArea          int     `json:"min_area"`
	MaxArea          int     `json:"max_area"`
}

// DefaultParams returns the settings used when nothing is configured.
func DefaultParams() Params {
	return Params{
		OverlapThreshold: 0.5,
		RingRadius:       3,
		Alpha:            enrichment.DefaultAlpha,
		MinArea:          1,
		MaxArea:          0,
	}
}

// Validate checks every parameter range up front so a batch fails before
// its first field rather than on each one.
func (p Params) Validate() error {
	if !(p.OverlapThreshold > 0 && p.OverlapThreshold <= 1) {
		return fmt.Errorf("overlap threshold %v outside (0, 1]", p.OverlapThreshold)
	}
	if p.RingRadius < 1 {
		return fmt.Errorf("ring radius %d must be at least 1", p.RingRadius)
	}
	if !(p.Alpha > 0 && p.Alpha < 1) {
		return fmt.Errorf("alpha %v outside (0, 1)", p.Alpha)
	}
	return detection.SizeRange{Min: p.MinArea, Max: p.MaxArea}.Validate()
}

// FieldInputs names the files of one field of view.
type FieldInputs struct {
	// Name identifies the field, usually the shared file identifier.
	Name string `json:"name"`

	// Group is the experimental group, if any.
	Group string `json:"group,omitempty"`

	// ReferenceMask and QueryMask are the label masks compared for
	// colocalization.
	ReferenceMask string `json:"reference_mask"`
	QueryMask     string `json:"query_mask"`

	// GranuleMask is the label mask of candidate objects tested for
	// enrichment in ProbeImage.
	GranuleMask string `json:"granule_mask"`
	ProbeImage  string `json:"probe_image"`
}

// FieldData is one field of view already in memory.
type FieldData struct {
	Name          string
	Group         string
	ReferenceMask *imaging.LabelMask
	QueryMask     *imaging.LabelMask
	GranuleMask   *imaging.LabelMask
	Probe         *imaging.IntensityImage
}

// FieldResult holds the quantities computed for one field.
type FieldResult struct {
	Name  string `json:"name"`
	Group string `json:"group,omitempty"`

	ReferenceObjects int `json:"reference_objects"`
	QueryObjects     int `json:"query_objects"`

	// Colocalized is the number of reference objects that passed the
	// overlap threshold.
	Colocalized int `json:"colocalized"`

	// CountedObjects is the number of connected objects in the overlap
	// mask whose area lies in the configured range.
	CountedObjects int `json:"counted_objects"`

	Overlap []detection.OverlapObject `json:"overlap"`

	GranuleObjects int `json:"granule_objects"`

	// Enriched has one entry per granule that passed the enrichment test.
	Enriched []enrichment.ObjectStat `json:"enriched"`

	// Tested has one entry per granule that reached the t-test.
	Tested []enrichment.ObjectStat `json:"tested"`

	// Granules holds area, centroid and bounds of every granule, ascending
	// by label.
	Granules []imaging.ObjectProps `json:"granules"`

	Warnings []string `json:"warnings,omitempty"`

	OverlapMask  *imaging.LabelMask      `json:"-"`
	RingMask     *imaging.LabelMask      `json:"-"`
	EnrichedMask *imaging.LabelMask      `json:"-"`
	Probe        *imaging.IntensityImage `json:"-"`
}

// EnrichedProps returns the measurements of the enriched granules, in the
// same order as Enriched.
func (r *FieldResult) EnrichedProps() []imaging.ObjectProps {
	byLabel := imaging.PropsByLabel(r.Granules)
	props := make([]imaging.ObjectProps, len(r.Enriched))
	for i, s := range r.Enriched {
		props[i] = byLabel[s.Label]
	}
	return props
}

// AnalyzeField loads a field's files and analyzes them.
func AnalyzeField(inputs FieldInputs, params Params) (*FieldResult, error) {
	return NewAnalyzer(imaging.NewImageCache(), params).Analyze(inputs)
}

// Analyzer runs the per-field analysis, sharing an image cache across the
// roles of one field (the same mask may serve as query and granule mask).
type Analyzer struct {
	cache  *imaging.ImageCache
	params Params
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(cache *imaging.ImageCache, params Params) *Analyzer {
	return &Analyzer{cache: cache, params: params}
}

// Analyze loads the field's files and runs AnalyzeData on them.
func (a *Analyzer) Analyze(inputs FieldInputs) (*FieldResult, error) {
	data, err := a.Load(inputs)
	if err != nil {
		return nil, err
	}
	return AnalyzeData(data, a.params)
}

// Load reads the field's masks and probe image.
func (a *Analyzer) Load(inputs FieldInputs) (*FieldData, error) {
	data := &FieldData{Name: inputs.Name, Group: inputs.Group}

	var err error
	if data.ReferenceMask, err = imaging.LoadLabelMask(a.cache, inputs.ReferenceMask); err != nil {
		return nil, fmt.Errorf("reference mask: %w", err)
	}
	if data.QueryMask, err = imaging.LoadLabelMask(a.cache, inputs.QueryMask); err != nil {
		return nil, fmt.Errorf("query mask: %w", err)
	}
	if data.GranuleMask, err = imaging.LoadLabelMask(a.cache, inputs.GranuleMask); err != nil {
		return nil, fmt.Errorf("granule mask: %w", err)
	}
	if data.Probe, err = imaging.LoadIntensityImage(a.cache, inputs.ProbeImage); err != nil {
		return nil, fmt.Errorf("probe image: %w", err)
	}
	return data, nil
}

// AnalyzeData runs both analysis paths on an in-memory field:
//
//  1. Overlap of the reference mask against the query mask, then a size
//     filtered count of the surviving objects.
//  2. A background ring around every granule, then the enrichment test of
//     the granules against the probe image.
//
// The two paths are independent; warnings from both are collected on the
// result.
func AnalyzeData(data *FieldData, params Params) (*FieldResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	result := &FieldResult{Name: data.Name, Group: data.Group}

	overlap, err := detection.Overlap(data.ReferenceMask, data.QueryMask, params.OverlapThreshold)
	if err != nil {
		return nil, fmt.Errorf("overlap: %w", err)
	}
	result.ReferenceObjects = data.ReferenceMask.ObjectCount()
	result.QueryObjects = data.QueryMask.ObjectCount()
	result.Colocalized = overlap.Kept
	result.Overlap = overlap.Objects
	result.OverlapMask = overlap.Mask
	for _, w := range overlap.Warnings {
		result.Warnings = append(result.Warnings, "overlap: "+w.String())
	}

	result.CountedObjects, err = detection.CountObjects(overlap.Mask, params.MinArea, params.MaxArea)
	if err != nil {
		return nil, fmt.Errorf("count: %w", err)
	}

	ring, err := detection.BuildRing(data.GranuleMask, params.RingRadius)
	if err != nil {
		return nil, fmt.Errorf("ring: %w", err)
	}
	result.RingMask = ring

	enriched, err := enrichment.Validate(data.Probe, data.GranuleMask, ring, params.Alpha)
	if err != nil {
		return nil, fmt.Errorf("enrichment: %w", err)
	}
	result.GranuleObjects = data.GranuleMask.ObjectCount()
	result.Enriched = enriched.Stats
	result.Tested = enriched.Tested
	result.EnrichedMask = enriched.Mask
	result.Probe = data.Probe
	result.Granules = imaging.MeasureObjects(data.GranuleMask)
	for _, w := range enriched.Warnings {
		result.Warnings = append(result.Warnings, fmt.Sprintf("enrichment: label %d: %s (%s)", w.Label, w.Reason, w.Detail))
	}

	return result, nil
}
