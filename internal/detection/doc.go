// Package detection implements the geometric half of the colocalization
// engine: deciding which objects of one channel coincide with objects of
// another, building the local background around each object, and counting
// objects by size.
//
// # Overlap
//
// Overlap compares a reference mask (for example cell outlines from one
// marker) with a query mask (the same cells seen in another channel). A
// reference object is colocalized when at least the threshold fraction of
// its own pixels lies on positive query pixels. Survivors keep their
// reference label and only their overlapping pixels.
//
// # Background Rings
//
// BuildRing grows every object by a disk and removes all object footprints,
// leaving a labeled "donut" per object. The enrichment package compares an
// object's intensities with its ring's. Contested pixels between close
// objects go to the nearest object, lower label on ties.
//
// # Counting
//
// CountObjects labels 8-connected components of a logical mask and counts
// those within an inclusive pixel-area range.
//
// All functions leave their inputs untouched and allocate new masks.
// Labels are processed independently, so callers may run different fields
// or channel pairs concurrently.
package detection
