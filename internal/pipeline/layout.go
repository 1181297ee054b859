package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ironsheep/coloc-tools-mcp/internal/channels"
)

// DefaultMaskSuffix is appended to an image's base name to find its label
// mask (the segmentation tool's naming).
const DefaultMaskSuffix = "_cp_masks.png"

// Roles assigns channel tags to the parts of the analysis.
type Roles struct {
	OverlapReference string
	OverlapQuery     string
	Granule          string
	Probe            string
}

// Layout says where a field's files live.
type Layout struct {
	ImageDir   string
	MaskDir    string
	MaskSuffix string
	Roles      Roles

	// Groups are experimental group names. A field belongs to the first
	// group whose name appears in its identifier.
	Groups []string
}

// GroupOf returns the group a field identifier belongs to, or "".
func (l Layout) GroupOf(identifier string) string {
	for _, g := range l.Groups {
		if g != "" && strings.Contains(identifier, g) {
			return g
		}
	}
	return ""
}

// MaskPath returns the label mask path for an image file name: the mask
// directory joined with the image's base name (extension dropped) and the
// mask suffix.
func (l Layout) MaskPath(image string) string {
	suffix := l.MaskSuffix
	if suffix == "" {
		suffix = DefaultMaskSuffix
	}
	dir := l.MaskDir
	if dir == "" {
		dir = l.ImageDir
	}
	base := filepath.Base(image)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+suffix)
}

// Inputs maps a matched group to the files of one field.
func (l Layout) Inputs(g channels.Group) (FieldInputs, error) {
	pick := func(role, tag string) (string, error) {
		name, ok := g.File(tag)
		if !ok {
			return "", fmt.Errorf("field %s: no %s file for channel %s", g.Identifier, role, tag)
		}
		return name, nil
	}

	ref, err := pick("overlap reference", l.Roles.OverlapReference)
	if err != nil {
		return FieldInputs{}, err
	}
	query, err := pick("overlap query", l.Roles.OverlapQuery)
	if err != nil {
		return FieldInputs{}, err
	}
	granule, err := pick("granule", l.Roles.Granule)
	if err != nil {
		return FieldInputs{}, err
	}
	probe, err := pick("probe", l.Roles.Probe)
	if err != nil {
		return FieldInputs{}, err
	}

	return FieldInputs{
		Name:          g.Identifier,
		Group:         l.GroupOf(g.Identifier),
		ReferenceMask: l.MaskPath(ref),
		QueryMask:     l.MaskPath(query),
		GranuleMask:   l.MaskPath(granule),
		ProbeImage:    filepath.Join(l.ImageDir, probe),
	}, nil
}

// Fields maps every group to its inputs. Groups missing a role's channel are
// left out, each with one entry in the returned error slice.
func (l Layout) Fields(groups []channels.Group) ([]FieldInputs, []error) {
	fields := make([]FieldInputs, 0, len(groups))
	var errs []error
	for _, g := range groups {
		in, err := l.Inputs(g)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		fields = append(fields, in)
	}
	return fields, errs
}
