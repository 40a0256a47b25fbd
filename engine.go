package fitstream

import (
	"fmt"
	"math"
)

// EngineState is the lifecycle state of an Engine.
type EngineState uint8

const (
	EngineUninitialized EngineState = iota // no resource held yet
	EngineActive                           // a resource is held
	EngineDisposed                         // terminal; construct a new engine
)

func (s EngineState) String() string {
	switch s {
	case EngineUninitialized:
		return "uninitialized"
	case EngineActive:
		return "active"
	case EngineDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("EngineState(%d)", uint8(s))
	}
}

// TransformRequest is the per-frame input to Engine.Transform.
type TransformRequest struct {
	Source Texture
	// Pan is a translation in source UV units (fractions of the image extent).
	Pan Vec2
	// RotationDegrees rotates clockwise about the image center.
	RotationDegrees float64
	Plan            FitPlan
}

// Engine renders a source texture into its own output buffer under a
// pan/rotate/scale transform. It owns exactly one TransformResource at a time
// and must be driven from a single goroutine.
type Engine struct {
	resources *ResourceManager
	state     EngineState
}

// NewEngine returns an engine allocating output buffers from backend.
func NewEngine(backend Backend) *Engine {
	return &Engine{resources: NewResourceManager(backend)}
}

// State returns the current lifecycle state.
func (e *Engine) State() EngineState {
	return e.state
}

// Resources exposes the engine's resource manager for inspection.
func (e *Engine) Resources() *ResourceManager {
	return e.resources
}

// Transform renders req.Source into the engine's output buffer and returns
// the buffer's handle. Identity plans never allocate or render: they release
// any buffer left from an earlier frame and return req.Source itself.
// Allocation failures are returned, never papered over with the
// untransformed source.
func (e *Engine) Transform(req TransformRequest) (Texture, error) {
	if e.state == EngineDisposed {
		return nil, ErrEngineDisposed
	}
	if req.Source == nil {
		return nil, fmt.Errorf("transform: nil source: %w", ErrUnsupportedTexture)
	}
	if req.Plan.Mode == FitIdentity {
		e.Release()
		return req.Source, nil
	}

	desc := req.Source.Descriptor()
	if !desc.Size().Valid() {
		return nil, fmt.Errorf("transform source %s: %w", desc.Size(), ErrInvalidGeometry)
	}
	if !finite(req.Pan.X) || !finite(req.Pan.Y) || !finite(req.RotationDegrees) {
		return nil, fmt.Errorf("transform: non-finite pan or rotation: %w", ErrInvalidGeometry)
	}

	dst := req.Plan.Destination
	res, err := e.resources.Ensure(dst.Width, dst.Height, outputFormat(desc, e.resources.backend))
	if err != nil {
		if e.resources.Current() == nil {
			e.state = EngineUninitialized
		}
		return nil, fmt.Errorf("transform: %w", err)
	}
	e.state = EngineActive

	m := fitTransform(desc.Size(), dst, req.Pan, req.RotationDegrees, req.Plan.Scale)
	if err := res.surface.Draw(req.Source, m); err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}
	return res.Texture(), nil
}

// Release frees the output buffer without ending the engine's life: an
// Active engine goes back to Uninitialized and allocates again on its next
// non-identity frame. A disposed engine stays disposed.
func (e *Engine) Release() {
	e.resources.Dispose()
	if e.state == EngineActive {
		e.state = EngineUninitialized
	}
}

// Dispose releases the output buffer and moves the engine to its terminal
// state. Safe to call repeatedly.
func (e *Engine) Dispose() {
	e.resources.Dispose()
	e.state = EngineDisposed
}

// outputFormat picks the buffer format for a source: its own format when it is
// a render target the backend can allocate, otherwise DefaultPixelFormat.
func outputFormat(src TextureDescriptor, backend Backend) PixelFormat {
	if !src.Renderable {
		return DefaultPixelFormat
	}
	if fs, ok := backend.(FormatSupporter); ok && !fs.SupportsFormat(src.Format) {
		return DefaultPixelFormat
	}
	return src.Format
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
