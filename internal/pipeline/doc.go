// Package pipeline wires the core components into the per-field analysis
// and runs it over a batch of fields.
//
// For each field of view two independent paths run: the overlap path
// compares a reference and a query channel's masks and counts the
// colocalized objects, and the enrichment path rings every granule and
// tests it against the probe channel. Runner fans fields out to a fixed
// number of workers; a failing field is recorded and the batch carries on.
package pipeline
