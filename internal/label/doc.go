// Package label turns segmented leaf images into YOLO polygon labels.
//
// A label line is the class id followed by the normalized x y pairs of the
// largest external contour of the foreground mask:
//
//	<class_id> x1 y1 x2 y2 ... xn yn
//
// Class ids are the index of the class name among the sorted subdirectories
// of the dataset root, resolved at labeling time. Labeler handles one image;
// Batcher handles every image of a class folder.
package label
