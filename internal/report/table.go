package report

import (
	"math"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/coloc-tools-mcp/internal/enrichment"
	"github.com/ironsheep/coloc-tools-mcp/internal/pipeline"
)

// Summary aggregates a batch.
type Summary struct {
	Fields           int
	ReferenceObjects int
	Colocalized      int
	GranuleObjects   int
	EnrichedObjects  int

	// ColocalizedFraction is the mean over fields of colocalized /
	// reference objects, NaN when no field has reference objects.
	ColocalizedFraction float64

	// MedianEnrichment is the median enrichment ratio over all enriched
	// objects with a defined ratio, NaN when there are none.
	MedianEnrichment float64
}

// Summarize totals the results of a batch.
func Summarize(results []*pipeline.FieldResult) Summary {
	s := Summary{Fields: len(results)}
	var fractions, ratios []float64
	for _, r := range results {
		s.ReferenceObjects += r.ReferenceObjects
		s.Colocalized += r.Colocalized
		s.GranuleObjects += r.GranuleObjects
		s.EnrichedObjects += len(r.Enriched)
		if r.ReferenceObjects > 0 {
			fractions = append(fractions, float64(r.Colocalized)/float64(r.ReferenceObjects))
		}
		ratios = append(ratios, fieldRatios(r)...)
	}

	s.ColocalizedFraction = math.NaN()
	if len(fractions) > 0 {
		s.ColocalizedFraction = stat.Mean(fractions, nil)
	}
	s.MedianEnrichment = enrichment.Median(ratios)
	return s
}

func fieldRatios(r *pipeline.FieldResult) []float64 {
	var ratios []float64
	for _, st := range r.Enriched {
		if v := st.Enrichment(); !math.IsNaN(v) {
			ratios = append(ratios, v)
		}
	}
	return ratios
}

// RenderSummary renders a per-field table with a totals footer.
func RenderSummary(results []*pipeline.FieldResult) string {
	headers := []string{"Field", "Reference", "Query", "Colocalized", "Counted", "Granules", "Enriched", "Median ratio"}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, r := range results {
		tw.AppendRow(table.Row{
			r.Name,
			r.ReferenceObjects,
			r.QueryObjects,
			r.Colocalized,
			r.CountedObjects,
			r.GranuleObjects,
			len(r.Enriched),
			formatRatio(enrichment.Median(fieldRatios(r))),
		})
	}

	s := Summarize(results)
	tw.AppendFooter(table.Row{
		strconv.Itoa(s.Fields) + " fields",
		s.ReferenceObjects,
		"",
		s.Colocalized,
		"",
		s.GranuleObjects,
		s.EnrichedObjects,
		formatRatio(s.MedianEnrichment),
	})

	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := range headers {
		align := text.AlignRight
		if i == 0 {
			align = text.AlignLeft
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignFooter: align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func formatRatio(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
