// Package report turns batch results into files and summaries: CSV tables
// of counts and enriched objects, a SQLite results database, a scatter plot
// of object against background medians, and a console table.
package report
