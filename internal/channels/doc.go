// Package channels pairs the per-channel image files of a fluorescence
// experiment.
//
// Every file name starts with a fixed-width channel tag ("C1_f3.tif",
// "C2_f3.tif") followed by an identifier shared by all channels of one field
// of view. Scan buckets a directory by tag; Match joins the buckets on the
// identifier. Matching never mutates its inputs and reports duplicate
// identifiers as typed errors instead of picking one of the files.
package channels
