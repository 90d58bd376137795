// Package glsl prepares the inputs of the GL backend that do not need a
// context: shader sources and tile pixels.
package glsl

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
)

const (
	StageVertex   = "VERTEX"
	StageFragment = "FRAGMENT"
)

// Pass selects the entry points of the single-source shader.
type Pass string

const (
	PassSurvey   Pass = "PASS_SURVEY"
	PassRaytrace Pass = "PASS_RAYTRACE"
	PassLines    Pass = "PASS_LINES"
)

// ProjectionDefine returns the preprocessor symbol selecting the projection
// functions for the projection called name.
func ProjectionDefine(name string) (string, error) {
	switch strings.ToLower(name) {
	case "orthographic":
		return "PROJ_ORTHOGRAPHIC", nil
	case "gnomonic":
		return "PROJ_GNOMONIC", nil
	case "mollweide":
		return "PROJ_MOLLWEIDE", nil
	default:
		return "", fmt.Errorf("glsl: no shader for projection %q", name)
	}
}

// Source prepends the version line and the stage, pass and projection
// defines to shader.
func Source(shader, stage string, pass Pass, projection string) (string, error) {
	proj, err := ProjectionDefine(projection)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString("#version 330 core\n")
	sb.WriteString("#define " + stage + "\n")
	sb.WriteString("#define " + string(pass) + "\n")
	sb.WriteString("#define " + proj + "\n")
	sb.WriteString(shader)
	if !strings.HasSuffix(shader, "\n") {
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// TilePixels returns the size×size RGBA bytes uploaded for a tile. A nil
// image, as for missing tiles, gives a transparent tile. Images of another
// size are sampled to the nearest pixel.
func TilePixels(img image.Image, size int) []byte {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	if img == nil {
		return dst.Pix
	}
	b := img.Bounds()
	if b.Dx() == size && b.Dy() == size {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst.Pix
	}
	if b.Empty() {
		return dst.Pix
	}
	for y := 0; y < size; y++ {
		sy := b.Min.Y + y*b.Dy()/size
		for x := 0; x < size; x++ {
			sx := b.Min.X + x*b.Dx()/size
			dst.Set(x, y, img.At(sx, sy))
		}
	}
	return dst.Pix
}

// ColorToFloat converts c to premultiplied components in [0, 1].
func ColorToFloat(c color.Color) [4]float32 {
	if c == nil {
		return [4]float32{}
	}
	r, g, b, a := c.RGBA()
	const inv = 1.0 / 65535.0
	return [4]float32{
		float32(r) * inv,
		float32(g) * inv,
		float32(b) * inv,
		float32(a) * inv,
	}
}

// Mat3 narrows a column-major matrix to the float32 layout of glUniformMatrix3fv.
func Mat3(m [9]float64) [9]float32 {
	var out [9]float32
	for i, v := range m {
		out[i] = float32(v)
	}
	return out
}
