// Package detection provides region and contour algorithms for binary masks.
//
// This package finds the connected foreground regions of a mask, traces their
// outer borders, measures the enclosed area and rasterizes a contour back into
// a solid mask. It is used both by the segmentation pipeline (to keep only the
// dominant object outlined by edge detection) and by the label encoder (to
// turn a foreground mask into a polygon).
//
// # Algorithm Overview
//
// Contour extraction follows the usual pipeline:
//
//  1. Region Labeling: Group foreground pixels into 8-connected regions
//  2. Hole Detection: Flood the 4-connected background from the image frame;
//     regions inside holes of other regions are skipped
//  3. Border Following: Trace each remaining region's outer border
//  4. Measurement: Compute the enclosed area with the shoelace formula
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Bounding boxes use inclusive top-left and exclusive bottom-right
//
// # Contour Orientation
//
// Outer borders start at the region's top-left pixel and run down its left
// side first, which is counterclockwise as seen on screen.
//
// # Limitations
//
//   - Only outer borders are traced; holes are not reported
//   - Regions one pixel thick trace both sides of the stroke and have zero area
package detection
