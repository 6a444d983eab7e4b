package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestGaussianBlur(t *testing.T) {
	r := squareRaster(30, 30, color.Black, color.White, image.Rect(15, 0, 30, 30))

	out := GaussianBlur(r, 5)
	if out.Width() != 30 || out.Height() != 30 || out.Channels != 3 {
		t.Fatalf("got %dx%d with %d channels, want 30x30 with 3", out.Width(), out.Height(), out.Channels)
	}

	// The step is softened; pixels far from it keep their value.
	if v := out.At(15, 10).R; v == 0 || v == 255 {
		t.Errorf("pixel on the step should be intermediate, got %d", v)
	}
	if v := out.At(2, 10).R; v > 1 {
		t.Errorf("dark side should stay dark, got %d", v)
	}
	if v := out.At(27, 10).R; v < 254 {
		t.Errorf("bright side should stay bright, got %d", v)
	}
	for i := 3; i < len(out.Img.Pix); i += 4 {
		if out.Img.Pix[i] != 255 {
			t.Fatal("3-channel blur must stay opaque")
		}
	}
	if r.At(15, 10).R != 255 {
		t.Error("GaussianBlur modified its input")
	}
}

func TestGaussianBlur_SmallKernel(t *testing.T) {
	r := squareRaster(10, 10, color.Black, color.White, image.Rect(5, 0, 10, 10))

	out := GaussianBlur(r, 1)
	if out == r {
		t.Error("GaussianBlur should return a copy")
	}
	if out.At(5, 5).R != 255 || out.At(4, 5).R != 0 {
		t.Error("ksize 1 should not blur")
	}
}

func TestGaussianBlurGray(t *testing.T) {
	g := rectMask(20, 20, image.Rect(5, 5, 15, 15))

	out := GaussianBlurGray(g, 5)
	if out.Bounds() != g.Bounds() {
		t.Fatalf("bounds: got %v, want %v", out.Bounds(), g.Bounds())
	}
	if v := out.GrayAt(5, 10).Y; v == 0 || v == 255 {
		t.Errorf("border pixel should be intermediate, got %d", v)
	}
	if v := out.GrayAt(0, 0).Y; v != 0 {
		t.Errorf("far background should stay 0, got %d", v)
	}
}

func TestKernelRadius(t *testing.T) {
	tests := []struct {
		ksize int
		want  float64
	}{
		{0, 0},
		{1, 0},
		{3, 1},
		{4, 2},
		{5, 2},
	}

	for _, tt := range tests {
		if got := kernelRadius(tt.ksize); got != tt.want {
			t.Errorf("kernelRadius(%d) = %v, want %v", tt.ksize, got, tt.want)
		}
	}
}
