// Package imaging provides the raster type and the image operations the
// segmentation pipeline is assembled from.
//
// This package implements decoding, dataset folder scanning, color space
// conversion, smoothing, thresholding, morphology, edge detection, k-means
// color clustering, cropping and preview encoding. Masks are *image.Gray
// values restricted to 0 and 255; rasters are 3- or 4-channel 8-bit images
// stored as *image.NRGBA.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # Immutability
//
// Operations never modify their inputs. Every function returns a newly
// allocated raster or mask anchored at (0,0), so intermediate results can be
// shared between pipeline stages without copying.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Individual operations are
// stateless and can be called concurrently. Catalog is not safe for
// concurrent use. KMeans draws from the caller's *rand.Rand, which must not be
// shared between goroutines.
//
// # Color Conventions
//
// HSV values follow the common 8-bit convention:
//   - H: hue in half-degrees, 0-179
//   - S: saturation, 0-255
//   - V: value, 0-255
//
// Luminance uses the Rec. 601 weights 0.299R + 0.587G + 0.114B.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Masks whose size does not match the raster
//   - Crop regions outside the image bounds
//   - Files that cannot be opened or decoded (wrapping ErrDecode)
//   - Encoding errors during image output
package imaging
