package detection

import (
	"errors"
	"testing"

	"github.com/ironsheep/coloc-tools-mcp/internal/imaging"
)

func mustMask(t *testing.T, rows [][]int) *imaging.LabelMask {
	t.Helper()
	m, err := imaging.LabelMaskFromRows(rows)
	if err != nil {
		t.Fatalf("LabelMaskFromRows failed: %v", err)
	}
	return m
}

// sampleMasks returns a few masks with gaps, adjacent objects and objects on
// the border.
func sampleMasks(t *testing.T) map[string]*imaging.LabelMask {
	t.Helper()
	return map[string]*imaging.LabelMask{
		"single": mustMask(t, [][]int{
			{0, 0, 0},
			{0, 1, 0},
			{0, 0, 0},
		}),
		"gaps": mustMask(t, [][]int{
			{4, 4, 0, 0},
			{0, 0, 0, 9},
			{2, 0, 9, 9},
		}),
		"adjacent": mustMask(t, [][]int{
			{1, 1, 2, 2},
			{1, 1, 2, 2},
			{3, 3, 3, 3},
		}),
		"empty": imaging.NewLabelMask(5, 4),
	}
}

func TestFindOverlap_SelfAtFullThreshold(t *testing.T) {
	for name, m := range sampleMasks(t) {
		t.Run(name, func(t *testing.T) {
			before := m.Clone()
			got, err := FindOverlap(m, m, 1.0)
			if err != nil {
				t.Fatalf("FindOverlap failed: %v", err)
			}
			if !got.Equal(m) {
				t.Errorf("self overlap changed the mask: got %v, want %v", got.Pix, m.Pix)
			}
			if !m.Equal(before) {
				t.Error("input mask was mutated")
			}
			if got == m {
				t.Error("result aliases the input")
			}
		})
	}
}

func TestFindOverlap_ZeroQuery(t *testing.T) {
	for name, m := range sampleMasks(t) {
		for _, threshold := range []float64{0.01, 0.5, 1.0} {
			zero := imaging.NewLabelMask(m.Width, m.Height)
			got, err := FindOverlap(m, zero, threshold)
			if err != nil {
				t.Fatalf("%s@%v: FindOverlap failed: %v", name, threshold, err)
			}
			if got.MaxLabel() != 0 {
				t.Errorf("%s@%v: expected empty result, got %v", name, threshold, got.Pix)
			}
		}
	}
}

func TestOverlap_PartialObjectKeepsOverlappingPixels(t *testing.T) {
	reference := mustMask(t, [][]int{
		{1, 1, 0, 2},
		{1, 1, 0, 2},
	})
	query := mustMask(t, [][]int{
		{7, 7, 0, 0},
		{7, 0, 0, 5},
	})

	res, err := Overlap(reference, query, 0.75)
	if err != nil {
		t.Fatalf("Overlap failed: %v", err)
	}

	want := mustMask(t, [][]int{
		{1, 1, 0, 0},
		{1, 0, 0, 0},
	})
	if !res.Mask.Equal(want) {
		t.Errorf("mask: got %v, want %v", res.Mask.Pix, want.Pix)
	}
	if res.Kept != 1 {
		t.Errorf("Kept: got %d, want 1", res.Kept)
	}
	if len(res.Objects) != 2 {
		t.Fatalf("Objects: got %d entries, want 2", len(res.Objects))
	}

	first := res.Objects[0]
	if first.Label != 1 || first.Area != 4 || first.OverlapArea != 3 || first.Fraction != 0.75 || !first.Kept {
		t.Errorf("object 1: got %+v", first)
	}
	second := res.Objects[1]
	if second.Label != 2 || second.Fraction != 0.5 || second.Kept {
		t.Errorf("object 2: got %+v", second)
	}
}

func TestOverlap_ThresholdBoundaryIsInclusive(t *testing.T) {
	reference := mustMask(t, [][]int{{1, 1}})
	query := mustMask(t, [][]int{{3, 0}})

	res, err := Overlap(reference, query, 0.5)
	if err != nil {
		t.Fatalf("Overlap failed: %v", err)
	}
	if res.Kept != 1 {
		t.Errorf("fraction equal to threshold should be kept, got %+v", res.Objects)
	}
}

func TestOverlap_LabelsComeFromReference(t *testing.T) {
	reference := mustMask(t, [][]int{{0, 6, 6}})
	query := mustMask(t, [][]int{{0, 2, 3}})

	got, err := FindOverlap(reference, query, 1.0)
	if err != nil {
		t.Fatalf("FindOverlap failed: %v", err)
	}
	for i, v := range got.Pix {
		if v != 0 && v != 6 {
			t.Errorf("pixel %d: label %d not taken from reference", i, v)
		}
	}
	if got.Pix[1] != 6 || got.Pix[2] != 6 {
		t.Errorf("got %v, want [0 6 6]", got.Pix)
	}
}

func TestOverlap_Warnings(t *testing.T) {
	reference := mustMask(t, [][]int{{1, 2, 3}})
	query := mustMask(t, [][]int{{1, 1, 0}})

	res, err := Overlap(reference, query, 0.5)
	if err != nil {
		t.Fatalf("Overlap should not fail on more reference objects: %v", err)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Reason != ReasonMoreReferenceObjects {
		t.Errorf("warnings: got %v", res.Warnings)
	}

	empty := imaging.NewLabelMask(3, 1)
	res, err = Overlap(empty, query, 0.5)
	if err != nil {
		t.Fatalf("Overlap failed: %v", err)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Reason != ReasonNoObjects {
		t.Errorf("warnings: got %v", res.Warnings)
	}
	if len(res.Objects) != 0 {
		t.Errorf("objects: got %v, want none", res.Objects)
	}
}

func TestOverlap_InvalidInput(t *testing.T) {
	a := imaging.NewLabelMask(3, 3)
	b := imaging.NewLabelMask(3, 2)

	if _, err := Overlap(a, b, 0.5); !errors.Is(err, imaging.ErrShapeMismatch) {
		t.Errorf("shape mismatch: got %v, want ErrShapeMismatch", err)
	}

	for _, threshold := range []float64{0, -0.1, 1.01} {
		if _, err := Overlap(a, a, threshold); err == nil {
			t.Errorf("threshold %v: expected error", threshold)
		}
	}

	if _, err := Overlap(nil, a, 0.5); err == nil {
		t.Error("nil reference: expected error")
	}
}
