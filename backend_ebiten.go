package fitstream

import (
	"fmt"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/math/f64"
)

// EbitenTexture wraps an *ebiten.Image as a source texture. Ebitengine images
// are always renderable RGBA8.
type EbitenTexture struct {
	img *ebiten.Image
}

// NewEbitenTexture wraps img.
func NewEbitenTexture(img *ebiten.Image) *EbitenTexture {
	return &EbitenTexture{img: img}
}

// EbitenImage returns the wrapped image.
func (t *EbitenTexture) EbitenImage() *ebiten.Image {
	return t.img
}

// Descriptor implements Texture.
func (t *EbitenTexture) Descriptor() TextureDescriptor {
	return ebitenDescriptor(t.img)
}

// ToImage implements ImageExporter. Ebitengine only allows pixel readback
// while the game loop is running.
func (t *EbitenTexture) ToImage() (image.Image, error) {
	return readEbitenImage(t.img)
}

func ebitenDescriptor(img *ebiten.Image) TextureDescriptor {
	if img == nil {
		return TextureDescriptor{Format: PixelFormatRGBA8, Renderable: true}
	}
	b := img.Bounds()
	return TextureDescriptor{Width: b.Dx(), Height: b.Dy(), Format: PixelFormatRGBA8, Renderable: true}
}

func readEbitenImage(img *ebiten.Image) (image.Image, error) {
	if img == nil {
		return nil, ErrResourceReleased
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	img.ReadPixels(out.Pix)
	return out, nil
}

// --- Kage shader ---

// fitShaderSrc maps each destination pixel back into the source through the
// inverse transform and samples it bilinearly with clamp-to-edge addressing.
const fitShaderSrc = `//kage:unit pixels
package main

var InvRow0 vec3
var InvRow1 vec3
var SrcSize vec2

func texel(p vec2) vec4 {
	p = clamp(p, vec2(0.5), SrcSize-vec2(0.5))
	return imageSrc0UnsafeAt(p + imageSrc0Origin())
}

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	pos := vec3(dst.xy-imageDstOrigin(), 1)
	p := vec2(dot(InvRow0, pos), dot(InvRow1, pos)) - vec2(0.5)
	base := floor(p)
	f := p - base
	base += vec2(0.5)
	c00 := texel(base)
	c10 := texel(base + vec2(1, 0))
	c01 := texel(base + vec2(0, 1))
	c11 := texel(base + vec2(1, 1))
	return mix(mix(c00, c10, f.x), mix(c01, c11, f.x), f.y)
}
`

// Lazy shader compilation (no sync.Once; rendering is single-threaded).
var fitShader *ebiten.Shader

func ensureFitShader() *ebiten.Shader {
	if fitShader == nil {
		s, err := ebiten.NewShader([]byte(fitShaderSrc))
		if err != nil {
			panic("fitstream: failed to compile fit shader: " + err.Error())
		}
		fitShader = s
	}
	return fitShader
}

var quadIndices = []uint16{0, 1, 2, 1, 2, 3}

// EbitenBackend allocates GPU images through Ebitengine. Only
// PixelFormatRGBA8 is supported; deeper renderable sources are rendered into
// RGBA8 buffers.
type EbitenBackend struct {
	// MaxSize caps either dimension. Zero means no limit beyond what
	// Ebitengine itself enforces.
	MaxSize int
}

// NewEbitenBackend returns an EbitenBackend without an extra size limit.
func NewEbitenBackend() *EbitenBackend {
	return &EbitenBackend{}
}

// SupportsFormat implements FormatSupporter.
func (b *EbitenBackend) SupportsFormat(format PixelFormat) bool {
	return format == PixelFormatRGBA8
}

// Allocate implements Backend. Panics raised by Ebitengine while creating the
// image are reported as ErrAllocationFailure.
func (b *EbitenBackend) Allocate(width, height int, format PixelFormat) (s Surface, err error) {
	if err := checkAllocation(width, height, b.MaxSize); err != nil {
		return nil, fmt.Errorf("ebiten allocate %dx%d: %w", width, height, err)
	}
	if format != PixelFormatRGBA8 {
		return nil, fmt.Errorf("ebiten allocate %dx%d: format %v: %w", width, height, format, ErrAllocationFailure)
	}
	defer func() {
		if r := recover(); r != nil {
			s = nil
			err = fmt.Errorf("ebiten allocate %dx%d: %v: %w", width, height, r, ErrAllocationFailure)
		}
	}()
	img := ebiten.NewImageWithOptions(
		image.Rect(0, 0, width, height),
		&ebiten.NewImageOptions{Unmanaged: true},
	)
	return newEbitenSurface(img, width, height), nil
}

// ebitenSurface is a GPU output buffer. Uniform slices and vertices are kept
// on the surface so per-frame draws do not allocate.
type ebitenSurface struct {
	image    *ebiten.Image
	vertices [4]ebiten.Vertex
	inv0     [3]float32
	inv1     [3]float32
	srcSize  [2]float32
	uniforms map[string]any
	op       ebiten.DrawTrianglesShaderOptions
}

func newEbitenSurface(img *ebiten.Image, w, h int) *ebitenSurface {
	s := &ebitenSurface{
		image:    img,
		uniforms: make(map[string]any, 3),
	}
	s.uniforms["InvRow0"] = s.inv0[:]
	s.uniforms["InvRow1"] = s.inv1[:]
	s.uniforms["SrcSize"] = s.srcSize[:]
	corners := [4][2]float32{{0, 0}, {float32(w), 0}, {0, float32(h)}, {float32(w), float32(h)}}
	for i, c := range corners {
		s.vertices[i] = ebiten.Vertex{
			DstX: c[0], DstY: c[1],
			ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1,
		}
	}
	s.op.Blend = ebiten.BlendCopy
	return s
}

// EbitenImage returns the backing image, or nil once released.
func (s *ebitenSurface) EbitenImage() *ebiten.Image {
	return s.image
}

// Descriptor implements Texture.
func (s *ebitenSurface) Descriptor() TextureDescriptor {
	return ebitenDescriptor(s.image)
}

// ToImage implements ImageExporter.
func (s *ebitenSurface) ToImage() (image.Image, error) {
	return readEbitenImage(s.image)
}

// Draw implements Surface.
func (s *ebitenSurface) Draw(src Texture, m f64.Aff3) error {
	if s.image == nil {
		return ErrResourceReleased
	}
	provider, ok := src.(interface{ EbitenImage() *ebiten.Image })
	if !ok || provider.EbitenImage() == nil {
		return fmt.Errorf("ebiten draw %T: %w", src, ErrUnsupportedTexture)
	}
	srcImg := provider.EbitenImage()
	sb := srcImg.Bounds()
	if sb.Empty() {
		return fmt.Errorf("ebiten draw empty source: %w", ErrInvalidGeometry)
	}

	inv := invertAffine(m)
	s.inv0 = [3]float32{float32(inv[0]), float32(inv[1]), float32(inv[2])}
	s.inv1 = [3]float32{float32(inv[3]), float32(inv[4]), float32(inv[5])}
	s.srcSize = [2]float32{float32(sb.Dx()), float32(sb.Dy())}

	srcCorners := [4][2]int{{sb.Min.X, sb.Min.Y}, {sb.Max.X, sb.Min.Y}, {sb.Min.X, sb.Max.Y}, {sb.Max.X, sb.Max.Y}}
	for i, c := range srcCorners {
		s.vertices[i].SrcX = float32(c[0])
		s.vertices[i].SrcY = float32(c[1])
	}

	s.op.Images[0] = srcImg
	s.op.Uniforms = s.uniforms
	s.image.DrawTrianglesShader(s.vertices[:], quadIndices, ensureFitShader(), &s.op)
	s.op.Images[0] = nil
	return nil
}

// Release implements Surface.
func (s *ebitenSurface) Release() {
	if s.image != nil {
		s.image.Deallocate()
		s.image = nil
	}
}
