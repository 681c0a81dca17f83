package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/vector"
)

// ImageSurface rasterizes strokes into an RGBA image, one pixel per logical
// unit.
type ImageSurface struct {
	Background color.Color
	LineWidth  float64

	img *image.RGBA
	z   *vector.Rasterizer
}

// Ensure ImageSurface implements Surface interface
var _ Surface = (*ImageSurface)(nil)

func NewImageSurface(width, height int) *ImageSurface {
	s := &ImageSurface{
		Background: color.White,
		LineWidth:  1,
		img:        image.NewRGBA(image.Rect(0, 0, width, height)),
	}
	s.Clear()
	return s
}

func (s *ImageSurface) Bounds() (float64, float64) {
	b := s.img.Bounds()
	return float64(b.Dx()), float64(b.Dy())
}

func (s *ImageSurface) Clear() {
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(s.Background), image.Point{}, draw.Src)
}

// StrokeLine fills a LineWidth wide quad around the segment. Zero-length
// segments draw nothing and the quad is clipped to the image.
func (s *ImageSurface) StrokeLine(x0, y0, x1, y1 float64, c color.Color) {
	dx, dy := x1-x0, y1-y0
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}

	// Half-width normal to the segment.
	nx := -dy / length * s.LineWidth / 2
	ny := dx / length * s.LineWidth / 2

	quad := [4][2]float64{
		{x0 + nx, y0 + ny},
		{x1 + nx, y1 + ny},
		{x1 - nx, y1 - ny},
		{x0 - nx, y0 - ny},
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range quad {
		minX, maxX = math.Min(minX, p[0]), math.Max(maxX, p[0])
		minY, maxY = math.Min(minY, p[1]), math.Max(maxY, p[1])
	}

	// Rasterize only the stroke's bounding box.
	r := image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX)), int(math.Ceil(maxY)),
	).Intersect(s.img.Bounds())
	if r.Empty() {
		return
	}

	if s.z == nil {
		s.z = vector.NewRasterizer(r.Dx(), r.Dy())
	} else {
		s.z.Reset(r.Dx(), r.Dy())
	}
	s.z.DrawOp = draw.Over

	local := func(p [2]float64) (float32, float32) {
		x := math.Min(math.Max(p[0], float64(r.Min.X)), float64(r.Max.X))
		y := math.Min(math.Max(p[1], float64(r.Min.Y)), float64(r.Max.Y))
		return float32(x - float64(r.Min.X)), float32(y - float64(r.Min.Y))
	}

	s.z.MoveTo(local(quad[0]))
	s.z.LineTo(local(quad[1]))
	s.z.LineTo(local(quad[2]))
	s.z.LineTo(local(quad[3]))
	s.z.ClosePath()
	s.z.Draw(s.img, r, image.NewUniform(c), image.Point{})
}

// Image returns the backing image.
func (s *ImageSurface) Image() *image.RGBA {
	return s.img
}

// WritePNG encodes the current frame.
func (s *ImageSurface) WritePNG(w io.Writer) error {
	if err := png.Encode(w, s.img); err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	return nil
}
