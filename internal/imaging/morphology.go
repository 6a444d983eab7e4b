package imaging

import "image"

// Erode replaces every pixel with the minimum of its ksize×ksize square
// neighborhood, repeated iterations times. Neighbors outside the image are
// ignored, so the border does not eat into foreground touching the edge.
func Erode(g *image.Gray, ksize, iterations int) *image.Gray {
	return morph(g, ksize, iterations, false)
}

// Dilate replaces every pixel with the maximum of its ksize×ksize square
// neighborhood, repeated iterations times. Neighbors outside the image are
// ignored.
func Dilate(g *image.Gray, ksize, iterations int) *image.Gray {
	return morph(g, ksize, iterations, true)
}

// Open is erosion followed by dilation. It removes specks smaller than the
// kernel.
func Open(g *image.Gray, ksize int) *image.Gray {
	return Dilate(Erode(g, ksize, 1), ksize, 1)
}

// Close is dilation followed by erosion. It fills holes and gaps smaller than
// the kernel.
func Close(g *image.Gray, ksize int) *image.Gray {
	return Erode(Dilate(g, ksize, 1), ksize, 1)
}

// OpenClose applies Open then Close, the speckle cleanup every masking stage
// runs before its mask is applied.
func OpenClose(g *image.Gray, ksize int) *image.Gray {
	return Close(Open(g, ksize), ksize)
}

// morph runs a separable rectangular min/max filter: a horizontal pass
// followed by a vertical pass, which equals the full square window.
func morph(g *image.Gray, ksize, iterations int, max bool) *image.Gray {
	out := cloneGray(g)
	half := ksize / 2
	if half < 1 || iterations < 1 {
		return out
	}

	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	tmp := make([]uint8, w*h)

	better := func(a, b uint8) bool {
		if max {
			return a > b
		}
		return a < b
	}

	for it := 0; it < iterations; it++ {
		for y := 0; y < h; y++ {
			row := out.Pix[y*out.Stride : y*out.Stride+w]
			for x := 0; x < w; x++ {
				v := row[x]
				for k := x - half; k <= x+half; k++ {
					if k < 0 || k >= w || k == x {
						continue
					}
					if better(row[k], v) {
						v = row[k]
					}
				}
				tmp[y*w+x] = v
			}
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				v := tmp[y*w+x]
				for k := y - half; k <= y+half; k++ {
					if k < 0 || k >= h || k == y {
						continue
					}
					if better(tmp[k*w+x], v) {
						v = tmp[k*w+x]
					}
				}
				out.Pix[y*out.Stride+x] = v
			}
		}
	}
	return out
}

// cloneGray copies g into a new image anchored at (0,0).
func cloneGray(g *image.Gray) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		copy(out.Pix[y*out.Stride:y*out.Stride+b.Dx()], g.Pix[g.PixOffset(b.Min.X, b.Min.Y+y):])
	}
	return out
}
