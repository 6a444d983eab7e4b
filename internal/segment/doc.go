// Package segment isolates the dominant foreground object of a photograph.
//
// A Pipeline runs up to six named stages in a fixed order:
//
//  1. color: keep pixels whose blurred HSV value falls in the vegetation range
//  2. edge: keep the filled outline of the largest closed Canny edge contour
//  3. cluster: split blurred colors into two k-means clusters and drop the
//     brighter one
//  4. statistical: keep pixels at or below the Otsu threshold of the blurred
//     luminance
//  5. alpha: move the surviving foreground into an alpha channel
//  6. crop: trim to the foreground bounding box
//
// Which stages run is decided by a Config, a set of enabled stage names; the
// order names are given in never matters. The four masking stages AND their
// mask into the running result, so enabling more of them can only remove
// foreground.
package segment
