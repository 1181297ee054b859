package detection

import (
	"testing"

	"github.com/ironsheep/coloc-tools-mcp/internal/imaging"
)

func TestCountObjects(t *testing.T) {
	// Components (8-connected): a 3-pixel L, a diagonal pair, one isolated
	// pixel and a 6-pixel bar.
	m := mustMask(t, [][]int{
		{1, 0, 0, 0, 0, 1},
		{1, 1, 0, 0, 1, 0},
		{0, 0, 0, 0, 0, 0},
		{0, 0, 1, 0, 0, 0},
		{0, 0, 0, 0, 0, 0},
		{1, 1, 1, 1, 1, 1},
	})

	tests := []struct {
		name     string
		min, max int
		want     int
	}{
		{"unbounded", 0, 0, 4},
		{"inclusive lower", 2, 0, 3},
		{"inclusive upper", 1, 2, 2},
		{"exact", 3, 3, 1},
		{"none", 7, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CountObjects(m, tt.min, tt.max)
			if err != nil {
				t.Fatalf("CountObjects failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCountObjects_IgnoresLabels(t *testing.T) {
	// Two touching labels form one component; one label split in two forms
	// two components.
	m := mustMask(t, [][]int{
		{1, 2, 0, 3},
		{0, 0, 0, 0},
		{3, 0, 0, 0},
	})

	got, err := CountObjects(m, 1, 0)
	if err != nil {
		t.Fatalf("CountObjects failed: %v", err)
	}
	if got != 3 {
		t.Errorf("got %d, want 3", got)
	}
}

func TestCountObjects_InvalidRange(t *testing.T) {
	m := imaging.NewLabelMask(2, 2)
	for _, r := range [][2]int{{-1, 0}, {5, 2}, {0, -3}} {
		if _, err := CountObjects(m, r[0], r[1]); err == nil {
			t.Errorf("range %v: expected error", r)
		}
	}
}

func TestComponentAreas_RasterOrder(t *testing.T) {
	m := mustMask(t, [][]int{
		{0, 0, 1},
		{1, 0, 0},
		{1, 0, 0},
	})
	areas, err := ComponentAreas(m)
	if err != nil {
		t.Fatalf("ComponentAreas failed: %v", err)
	}
	if len(areas) != 2 || areas[0] != 1 || areas[1] != 2 {
		t.Errorf("got %v, want [1 2]", areas)
	}
}

func TestFilterBySize(t *testing.T) {
	m := mustMask(t, [][]int{
		{1, 1, 1, 0},
		{0, 0, 0, 2},
		{4, 4, 0, 0},
	})

	got, err := FilterBySize(m, SizeRange{Min: 2, Max: 2})
	if err != nil {
		t.Fatalf("FilterBySize failed: %v", err)
	}
	want := mustMask(t, [][]int{
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{4, 4, 0, 0},
	})
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got.Pix, want.Pix)
	}
	if m.At(0, 0) != 1 {
		t.Error("input mask was mutated")
	}
}
