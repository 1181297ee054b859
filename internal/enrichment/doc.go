// Package enrichment decides which segmented objects are brighter than their
// surroundings in a probe channel.
//
// Each object is compared with its local background ring (see
// detection.BuildRing) using a one-tailed, equal-variance two-sample t-test
// whose alternative hypothesis is "object mean > background mean". Objects
// with p < alpha pass; their medians are reported as ObjectStat records.
//
// Objects too small to test, or whose ring was fully claimed by neighbours,
// fail closed: they are skipped with a Warning rather than an error.
package enrichment
