package glsl_test

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/kjkrol/gohips/internal/renderer/glsl"
)

func TestSourceDefines(t *testing.T) {
	src, err := glsl.Source("void main() {}", glsl.StageFragment, glsl.PassRaytrace, "mollweide")
	if err != nil {
		t.Fatalf("Source: %v", err)
	}
	want := "#version 330 core\n#define FRAGMENT\n#define PASS_RAYTRACE\n#define PROJ_MOLLWEIDE\nvoid main() {}\n"
	if diff := cmp.Diff(want, src); diff != "" {
		t.Fatalf("source mismatch (-want +got):\n%s", diff)
	}
}

func TestSourceKeepsTrailingNewline(t *testing.T) {
	src, err := glsl.Source("x\n", glsl.StageVertex, glsl.PassSurvey, "Orthographic")
	if err != nil {
		t.Fatalf("Source: %v", err)
	}
	if strings.HasSuffix(src, "\n\n") {
		t.Fatalf("extra newline appended: %q", src)
	}
}

func TestSourceUnknownProjection(t *testing.T) {
	if _, err := glsl.Source("", glsl.StageVertex, glsl.PassLines, "aitoff"); err == nil {
		t.Fatal("expected an error for a projection without shader")
	}
}

func TestTilePixelsMissing(t *testing.T) {
	pix := glsl.TilePixels(nil, 4)
	if len(pix) != 4*4*4 {
		t.Fatalf("len = %d, want 64", len(pix))
	}
	for i, b := range pix {
		if b != 0 {
			t.Fatalf("pix[%d] = %d, want transparent", i, b)
		}
	}
}

func TestTilePixelsSameSize(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 0, color.NRGBA{R: 255, A: 255})
	img.Set(0, 1, color.NRGBA{B: 255, A: 255})
	pix := glsl.TilePixels(img, 2)
	want := []byte{
		0, 0, 0, 0, 255, 0, 0, 255,
		0, 0, 255, 255, 0, 0, 0, 0,
	}
	if diff := cmp.Diff(want, pix); diff != "" {
		t.Fatalf("pixels mismatch (-want +got):\n%s", diff)
	}
}

func TestTilePixelsResample(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(10*y + x)})
		}
	}
	pix := glsl.TilePixels(img, 2)
	got := []byte{pix[0], pix[4], pix[8], pix[12]}
	want := []byte{0, 2, 20, 22}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("resampled pixels mismatch (-want +got):\n%s", diff)
	}
}

func TestColorToFloat(t *testing.T) {
	got := glsl.ColorToFloat(color.RGBA{R: 255, G: 0, B: 0, A: 255})
	if got != [4]float32{1, 0, 0, 1} {
		t.Fatalf("ColorToFloat = %v", got)
	}
	if glsl.ColorToFloat(nil) != [4]float32{} {
		t.Fatal("nil color should be zero")
	}
}
