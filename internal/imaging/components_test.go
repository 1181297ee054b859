package imaging

import "testing"

func boolsFromRows(rows []string) ([]bool, int, int) {
	h := len(rows)
	w := len(rows[0])
	fg := make([]bool, w*h)
	for y, row := range rows {
		for x, ch := range row {
			fg[y*w+x] = ch == '#'
		}
	}
	return fg, w, h
}

func TestLabelComponents(t *testing.T) {
	tests := []struct {
		name  string
		rows  []string
		count int
	}{
		{"empty", []string{"....", "...."}, 0},
		{"single pixel", []string{"....", ".#.."}, 1},
		{"diagonal joins", []string{"#...", ".#..", "..#."}, 1},
		{"two blobs", []string{"##..#", "##..#", "....#"}, 2},
		{"touching image edge", []string{"#..#", "....", "#..#"}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fg, w, h := boolsFromRows(tt.rows)
			m := LabelComponents(fg, w, h)
			if m.MaxLabel() != tt.count {
				t.Errorf("components: got %d, want %d", m.MaxLabel(), tt.count)
			}
			for i, on := range fg {
				if on != (m.Pix[i] > 0) {
					t.Fatalf("pixel %d: foreground=%v label=%d", i, on, m.Pix[i])
				}
			}
		})
	}
}

func TestLabelComponents_RasterOrder(t *testing.T) {
	fg, w, h := boolsFromRows([]string{
		"...#",
		"#...",
	})
	m := LabelComponents(fg, w, h)
	if m.At(3, 0) != 1 || m.At(0, 1) != 2 {
		t.Errorf("labels not in raster-scan order: %v", m.Pix)
	}
}

func TestRelabel_SplitsDisconnectedLabel(t *testing.T) {
	m := mustMask(t, [][]int{
		{4, 4, 0, 4},
		{0, 0, 0, 4},
		{9, 9, 9, 0},
	})

	out := Relabel(m)
	if out.MaxLabel() != 3 {
		t.Fatalf("MaxLabel: got %d, want 3 (%v)", out.MaxLabel(), out.Pix)
	}
	if out.At(0, 0) == out.At(3, 0) {
		t.Error("disconnected pieces of label 4 should be split")
	}
	// Adjacent pixels of different labels stay apart.
	if out.At(0, 2) == out.At(0, 0) {
		t.Error("label 9 merged with label 4")
	}
	if m.At(0, 0) != 4 {
		t.Error("Relabel mutated its input")
	}
}
