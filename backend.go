package fitstream

import (
	"image"

	"golang.org/x/image/math/f64"
)

// Backend allocates output buffers. EbitenBackend allocates GPU images;
// SoftBackend allocates CPU images.
type Backend interface {
	// Allocate returns a new surface of exactly width x height in format,
	// or an error wrapping ErrAllocationFailure.
	Allocate(width, height int, format PixelFormat) (Surface, error)
}

// FormatSupporter is implemented by backends that can allocate only some
// pixel formats. The engine falls back to DefaultPixelFormat for the rest.
type FormatSupporter interface {
	SupportsFormat(format PixelFormat) bool
}

// Surface is a backend-owned output buffer.
type Surface interface {
	Texture
	// Draw overwrites every pixel of the surface with src seen through m,
	// the forward matrix from source pixels to surface pixels. Samples that
	// fall outside src are clamped to its edge.
	Draw(src Texture, m f64.Aff3) error
	// Release frees the buffer. Safe to call more than once.
	Release()
}

// ImageExporter is implemented by textures whose pixels can be read back as
// an image.Image.
type ImageExporter interface {
	ToImage() (image.Image, error)
}

// checkAllocation validates requested dimensions against an optional limit.
func checkAllocation(width, height, maxSize int) error {
	if width <= 0 || height <= 0 {
		return ErrInvalidGeometry
	}
	if maxSize > 0 && (width > maxSize || height > maxSize) {
		return ErrAllocationFailure
	}
	return nil
}
