// Package imaging provides the raster types shared by the colocalization
// engine and the code that moves them between disk and memory.
//
// # Representations
//
// A LabelMask is an integer-labeled raster: 0 is background and each positive
// value is one segmented object (a cell, a granule). An IntensityImage holds
// the raw samples of one fluorescence channel. Both are stored row-major with
// (0,0) at the top-left corner, X increasing rightward and Y downward, and
// both are treated as immutable once built: every transformation elsewhere
// in the module allocates a new raster.
//
// Logical (binary) masks are converted to LabelMasks on ingest by labelling
// their 8-connected components, so the analysis packages never branch on
// which mask convention a file used.
//
// # File Formats
//
// Images are decoded with disintegration/imaging, which understands TIFF,
// PNG, BMP, JPEG and GIF. Label masks should be stored as 16-bit grayscale
// PNG or TIFF; 8-bit images work for masks with at most 255 objects.
// Intensity values keep the native scale of the file (0-65535 for 16-bit
// channels).
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. The raster types carry no locks;
// sharing one between goroutines is safe as long as nobody writes to it.
//
// # Visualization
//
// RenderOverlay composites masks over a contrast-stretched channel image
// with deterministic per-label colors, for checking segmentation and
// colocalization results by eye.
package imaging
