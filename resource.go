package fitstream

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// TransformResource is an output buffer of fixed dimensions and format. It is
// owned by exactly one ResourceManager and must not be used after disposal.
type TransformResource struct {
	surface       Surface
	width, height int
	format        PixelFormat
	disposed      bool
}

// Width returns the buffer width in pixels.
func (r *TransformResource) Width() int { return r.width }

// Height returns the buffer height in pixels.
func (r *TransformResource) Height() int { return r.height }

// Format returns the buffer pixel format.
func (r *TransformResource) Format() PixelFormat { return r.format }

// Disposed reports whether the buffer has been released.
func (r *TransformResource) Disposed() bool { return r.disposed }

// Texture returns the handle consumers read from. The handle stays the same
// for the life of the resource; its contents are overwritten every frame.
func (r *TransformResource) Texture() Texture { return r.surface }

func (r *TransformResource) dispose() {
	if r.disposed {
		return
	}
	r.surface.Release()
	r.disposed = true
}

// ResourceManager lazily creates and replaces the single TransformResource of
// an engine. It is not safe for concurrent use.
type ResourceManager struct {
	backend     Backend
	current     *TransformResource
	allocations int
	disposals   int
}

// NewResourceManager returns a manager allocating from backend.
func NewResourceManager(backend Backend) *ResourceManager {
	return &ResourceManager{backend: backend}
}

// Ensure returns a resource of exactly width x height in format. A live
// resource with matching dimensions and format is returned unchanged;
// otherwise the old one is disposed before the new one is allocated.
func (m *ResourceManager) Ensure(width, height int, format PixelFormat) (*TransformResource, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("ensure %dx%d: %w", width, height, ErrInvalidGeometry)
	}
	if c := m.current; c != nil && c.width == width && c.height == height && c.format == format {
		return c, nil
	}

	m.Dispose()

	surface, err := m.backend.Allocate(width, height, format)
	if err != nil {
		return nil, fmt.Errorf("ensure %dx%d %v: %w", width, height, format, err)
	}
	m.allocations++
	m.current = &TransformResource{
		surface: surface,
		width:   width,
		height:  height,
		format:  format,
	}
	log().WithFields(logrus.Fields{
		"width":  width,
		"height": height,
		"format": format.String(),
	}).Debug("transform resource allocated")
	return m.current, nil
}

// Current returns the live resource, or nil.
func (m *ResourceManager) Current() *TransformResource {
	return m.current
}

// Dispose releases the live resource, if any. Safe to call repeatedly.
func (m *ResourceManager) Dispose() {
	if m.current == nil {
		return
	}
	c := m.current
	m.current = nil
	c.dispose()
	m.disposals++
	log().WithFields(logrus.Fields{
		"width":  c.width,
		"height": c.height,
	}).Debug("transform resource disposed")
}

// Allocations returns how many buffers this manager has created.
func (m *ResourceManager) Allocations() int { return m.allocations }

// Disposals returns how many buffers this manager has released.
func (m *ResourceManager) Disposals() int { return m.disposals }
