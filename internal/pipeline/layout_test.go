package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ironsheep/coloc-tools-mcp/internal/channels"
)

func TestLayout_MaskPath(t *testing.T) {
	tests := []struct {
		name   string
		layout Layout
		image  string
		want   string
	}{
		{"default suffix", Layout{MaskDir: "/masks"}, "C1_f1.tif", filepath.Join("/masks", "C1_f1_cp_masks.png")},
		{"custom suffix", Layout{MaskDir: "/m", MaskSuffix: "_seg.tif"}, "C3_f2.tiff", filepath.Join("/m", "C3_f2_seg.tif")},
		{"falls back to image dir", Layout{ImageDir: "/img"}, "C2_f1.tif", filepath.Join("/img", "C2_f1_cp_masks.png")},
		{"strips directories", Layout{MaskDir: "/m"}, "/elsewhere/C1_f1.tif", filepath.Join("/m", "C1_f1_cp_masks.png")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.layout.MaskPath(tt.image); got != tt.want {
				t.Errorf("MaskPath(%q) = %q, want %q", tt.image, got, tt.want)
			}
		})
	}
}

func TestLayout_Fields(t *testing.T) {
	layout := Layout{
		ImageDir: "/img",
		MaskDir:  "/masks",
		Roles:    Roles{OverlapReference: "C1", OverlapQuery: "C2", Granule: "C3", Probe: "C2"},
	}
	groups := []channels.Group{
		{Identifier: "f1.tif", Channels: []string{"C1", "C2", "C3"}, Files: []string{"C1_f1.tif", "C2_f1.tif", "C3_f1.tif"}},
		{Identifier: "f2.tif", Channels: []string{"C1", "C2"}, Files: []string{"C1_f2.tif", "C2_f2.tif"}},
	}

	fields, errs := layout.Fields(groups)

	want := []FieldInputs{{
		Name:          "f1.tif",
		ReferenceMask: filepath.Join("/masks", "C1_f1_cp_masks.png"),
		QueryMask:     filepath.Join("/masks", "C2_f1_cp_masks.png"),
		GranuleMask:   filepath.Join("/masks", "C3_f1_cp_masks.png"),
		ProbeImage:    filepath.Join("/img", "C2_f1.tif"),
	}}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
	if len(errs) != 1 {
		t.Fatalf("expected one error for the group missing C3, got %v", errs)
	}
}

func TestLayout_GroupOf(t *testing.T) {
	layout := Layout{Groups: []string{"control", "treated", ""}}

	tests := []struct {
		identifier string
		want       string
	}{
		{"control_rep1.tif", "control"},
		{"treated-3.tif", "treated"},
		{"control_treated.tif", "control"},
		{"other.tif", ""},
	}
	for _, tt := range tests {
		if got := layout.GroupOf(tt.identifier); got != tt.want {
			t.Errorf("GroupOf(%q) = %q, want %q", tt.identifier, got, tt.want)
		}
	}

	fields, errs := Layout{
		Groups: []string{"treated"},
		Roles:  Roles{OverlapReference: "C1", OverlapQuery: "C1", Granule: "C1", Probe: "C1"},
	}.Fields([]channels.Group{{Identifier: "treated_1.tif", Channels: []string{"C1"}, Files: []string{"C1_treated_1.tif"}}})
	if len(errs) != 0 || len(fields) != 1 {
		t.Fatalf("Fields() = %v, %v", fields, errs)
	}
	if fields[0].Group != "treated" {
		t.Errorf("Group = %q, want treated", fields[0].Group)
	}
}
