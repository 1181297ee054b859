package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/ironsheep/coloc-tools-mcp/internal/pipeline"
)

var colocalizationHeader = []string{
	"image", "group", "reference_objects", "query_objects", "colocalized", "counted_objects",
}

var enrichmentHeader = []string{
	"image", "label", "centroid_x", "centroid_y", "object_area", "background_area",
	"object_median", "background_median", "enrichment", "t", "p_value",
}

// WriteColocalizationCSV writes one row per field with its object counts.
func WriteColocalizationCSV(w io.Writer, results []*pipeline.FieldResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(colocalizationHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range results {
		row := []string{
			r.Name,
			r.Group,
			strconv.Itoa(r.ReferenceObjects),
			strconv.Itoa(r.QueryObjects),
			strconv.Itoa(r.Colocalized),
			strconv.Itoa(r.CountedObjects),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row for %s: %w", r.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEnrichmentCSV writes one row per enriched object. Undefined values
// (an infinite t, a ratio over a zero background median) are left empty.
func WriteEnrichmentCSV(w io.Writer, results []*pipeline.FieldResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(enrichmentHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range results {
		props := r.EnrichedProps()
		for i, s := range r.Enriched {
			row := []string{
				r.Name,
				strconv.Itoa(s.Label),
				formatFloat(props[i].Centroid.X),
				formatFloat(props[i].Centroid.Y),
				strconv.Itoa(s.ObjectPixels),
				strconv.Itoa(s.BackgroundPixels),
				formatFloat(s.ObjectMedian),
				formatFloat(s.BackgroundMedian),
				formatFloat(s.Enrichment()),
				formatFloat(s.T),
				strconv.FormatFloat(s.PValue, 'g', 6, 64),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write row for %s label %d: %w", r.Name, s.Label, err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
