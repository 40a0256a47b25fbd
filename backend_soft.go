package fitstream

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/clone"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// ImageTexture wraps an image.Image as a source texture. *image.RGBA and
// *image.RGBA64 are renderable; anything else (decoded YCbCr frames, paletted
// images) is read through conversion.
type ImageTexture struct {
	img image.Image
}

// NewImageTexture wraps img.
func NewImageTexture(img image.Image) *ImageTexture {
	return &ImageTexture{img: img}
}

// Image returns the wrapped image.
func (t *ImageTexture) Image() image.Image {
	return t.img
}

// Descriptor implements Texture.
func (t *ImageTexture) Descriptor() TextureDescriptor {
	b := t.img.Bounds()
	d := TextureDescriptor{Width: b.Dx(), Height: b.Dy(), Format: DefaultPixelFormat}
	switch t.img.(type) {
	case *image.RGBA:
		d.Renderable = true
	case *image.RGBA64:
		d.Format = PixelFormatRGBA16
		d.Renderable = true
	}
	return d
}

// ToImage implements ImageExporter.
func (t *ImageTexture) ToImage() (image.Image, error) {
	return t.img, nil
}

// SoftBackend allocates CPU-side buffers. Rendering is deterministic: the
// same inputs always produce the same bytes.
type SoftBackend struct {
	// MaxSize caps either dimension. Zero means no limit.
	MaxSize int
}

// NewSoftBackend returns a SoftBackend without a size limit.
func NewSoftBackend() *SoftBackend {
	return &SoftBackend{}
}

// SupportsFormat implements FormatSupporter.
func (b *SoftBackend) SupportsFormat(format PixelFormat) bool {
	return format == PixelFormatRGBA8 || format == PixelFormatRGBA16
}

// Allocate implements Backend.
func (b *SoftBackend) Allocate(width, height int, format PixelFormat) (Surface, error) {
	if err := checkAllocation(width, height, b.MaxSize); err != nil {
		return nil, fmt.Errorf("soft allocate %dx%d: %w", width, height, err)
	}
	r := image.Rect(0, 0, width, height)
	switch format {
	case PixelFormatRGBA8:
		return &softSurface{format: format, rgba: image.NewRGBA(r)}, nil
	case PixelFormatRGBA16:
		return &softSurface{format: format, rgba64: image.NewRGBA64(r)}, nil
	}
	return nil, fmt.Errorf("soft allocate %dx%d: format %v: %w", width, height, format, ErrAllocationFailure)
}

// softSurface holds exactly one of rgba or rgba64, matching format.
type softSurface struct {
	format PixelFormat
	rgba   *image.RGBA
	rgba64 *image.RGBA64
}

func (s *softSurface) image() image.Image {
	if s.rgba != nil {
		return s.rgba
	}
	if s.rgba64 != nil {
		return s.rgba64
	}
	return nil
}

// Descriptor implements Texture.
func (s *softSurface) Descriptor() TextureDescriptor {
	img := s.image()
	if img == nil {
		return TextureDescriptor{Format: s.format, Renderable: true}
	}
	b := img.Bounds()
	return TextureDescriptor{Width: b.Dx(), Height: b.Dy(), Format: s.format, Renderable: true}
}

// Image returns the backing image, or nil once released.
func (s *softSurface) Image() image.Image {
	return s.image()
}

// ToImage implements ImageExporter.
func (s *softSurface) ToImage() (image.Image, error) {
	img := s.image()
	if img == nil {
		return nil, ErrResourceReleased
	}
	return img, nil
}

// Release implements Surface.
func (s *softSurface) Release() {
	s.rgba = nil
	s.rgba64 = nil
}

// Draw implements Surface.
func (s *softSurface) Draw(src Texture, m f64.Aff3) error {
	if s.image() == nil {
		return ErrResourceReleased
	}
	provider, ok := src.(interface{ Image() image.Image })
	if !ok || provider.Image() == nil {
		return fmt.Errorf("soft draw %T: %w", src, ErrUnsupportedTexture)
	}
	srcImg := provider.Image()
	if srcImg.Bounds().Empty() {
		return fmt.Errorf("soft draw empty source: %w", ErrInvalidGeometry)
	}
	inv := invertAffine(m)

	if s.rgba != nil {
		drawRGBA(s.rgba, clone.AsShallowRGBA(srcImg), inv)
		return nil
	}
	drawRGBA64(s.rgba64, asRGBA64(srcImg), inv)
	return nil
}

func asRGBA64(img image.Image) *image.RGBA64 {
	if v, ok := img.(*image.RGBA64); ok {
		return v
	}
	b := img.Bounds()
	out := image.NewRGBA64(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Copy(out, image.Point{}, img, b, draw.Src, nil)
	return out
}

// bilinearTap is one clamped bilinear lookup: four texel coordinates and
// the fractional weights between them.
type bilinearTap struct {
	x0, x1, y0, y1 int
	fx, fy         float64
}

// clampTap resolves the sample at pixel-space point (px, py) against a
// w x h source, repeating edge texels outside it.
func clampTap(px, py float64, w, h int) bilinearTap {
	// Texel centers sit at half-integers.
	sx := px - 0.5
	sy := py - 0.5
	fx0 := math.Floor(sx)
	fy0 := math.Floor(sy)
	t := bilinearTap{fx: sx - fx0, fy: sy - fy0}
	x0, y0 := int(fx0), int(fy0)
	t.x0 = clampInt(x0, 0, w-1)
	t.x1 = clampInt(x0+1, 0, w-1)
	t.y0 = clampInt(y0, 0, h-1)
	t.y1 = clampInt(y0+1, 0, h-1)
	return t
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func drawRGBA(dst, src *image.RGBA, inv f64.Aff3) {
	sb := src.Bounds()
	sw, sh := sb.Dx(), sb.Dy()
	db := dst.Bounds()
	for y := 0; y < db.Dy(); y++ {
		row := dst.Pix[y*dst.Stride:]
		for x := 0; x < db.Dx(); x++ {
			px, py := transformPoint(inv, float64(x)+0.5, float64(y)+0.5)
			t := clampTap(px, py, sw, sh)
			o00 := src.PixOffset(sb.Min.X+t.x0, sb.Min.Y+t.y0)
			o10 := src.PixOffset(sb.Min.X+t.x1, sb.Min.Y+t.y0)
			o01 := src.PixOffset(sb.Min.X+t.x0, sb.Min.Y+t.y1)
			o11 := src.PixOffset(sb.Min.X+t.x1, sb.Min.Y+t.y1)
			for c := 0; c < 4; c++ {
				top := lerp(float64(src.Pix[o00+c]), float64(src.Pix[o10+c]), t.fx)
				bot := lerp(float64(src.Pix[o01+c]), float64(src.Pix[o11+c]), t.fx)
				row[x*4+c] = uint8(math.Round(lerp(top, bot, t.fy)))
			}
		}
	}
}

func drawRGBA64(dst, src *image.RGBA64, inv f64.Aff3) {
	sb := src.Bounds()
	sw, sh := sb.Dx(), sb.Dy()
	db := dst.Bounds()
	at := func(off int) float64 {
		return float64(uint16(src.Pix[off])<<8 | uint16(src.Pix[off+1]))
	}
	for y := 0; y < db.Dy(); y++ {
		row := dst.Pix[y*dst.Stride:]
		for x := 0; x < db.Dx(); x++ {
			px, py := transformPoint(inv, float64(x)+0.5, float64(y)+0.5)
			t := clampTap(px, py, sw, sh)
			o00 := src.PixOffset(sb.Min.X+t.x0, sb.Min.Y+t.y0)
			o10 := src.PixOffset(sb.Min.X+t.x1, sb.Min.Y+t.y0)
			o01 := src.PixOffset(sb.Min.X+t.x0, sb.Min.Y+t.y1)
			o11 := src.PixOffset(sb.Min.X+t.x1, sb.Min.Y+t.y1)
			for c := 0; c < 8; c += 2 {
				top := lerp(at(o00+c), at(o10+c), t.fx)
				bot := lerp(at(o01+c), at(o11+c), t.fx)
				v := uint16(math.Round(lerp(top, bot, t.fy)))
				row[x*8+c] = uint8(v >> 8)
				row[x*8+c+1] = uint8(v)
			}
		}
	}
}
