package fitstream

import (
	"fmt"
	"strings"
)

// Vec2 is a 2D vector used for pan offsets and scale factors.
type Vec2 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Size is a width/height pair in pixels.
type Size struct {
	Width, Height int
}

// Aspect returns Width / Height. Zero if Height is zero.
func (s Size) Aspect() float64 {
	if s.Height == 0 {
		return 0
	}
	return float64(s.Width) / float64(s.Height)
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// PixelFormat identifies the texel layout of a buffer.
type PixelFormat uint8

const (
	PixelFormatRGBA8  PixelFormat = iota // 8 bits per channel, premultiplied
	PixelFormatRGBA16                    // 16 bits per channel, premultiplied
)

// DefaultPixelFormat is used for output buffers when the source is not itself
// a renderable buffer.
const DefaultPixelFormat = PixelFormatRGBA8

func (f PixelFormat) String() string {
	switch f {
	case PixelFormatRGBA8:
		return "rgba8"
	case PixelFormatRGBA16:
		return "rgba16"
	default:
		return fmt.Sprintf("PixelFormat(%d)", uint8(f))
	}
}

// FitMode selects how a source is re-framed to a target aspect ratio.
type FitMode uint8

const (
	FitTrim     FitMode = iota // crop the source to the target aspect
	FitAdapt                   // keep the source aspect; caller pads to the target
	FitIdentity                // pass the source through untouched
)

func (m FitMode) String() string {
	switch m {
	case FitTrim:
		return "trim"
	case FitAdapt:
		return "adapt"
	case FitIdentity:
		return "none"
	default:
		return fmt.Sprintf("FitMode(%d)", uint8(m))
	}
}

// ParseFitMode parses "trim", "adapt", "none" or "identity" (case-insensitive).
func ParseFitMode(s string) (FitMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trim":
		return FitTrim, nil
	case "adapt":
		return FitAdapt, nil
	case "none", "identity":
		return FitIdentity, nil
	}
	return 0, fmt.Errorf("unknown fit mode %q: %w", s, ErrInvalidConfig)
}

// Set implements the pflag.Value interface.
func (m *FitMode) Set(s string) error {
	v, err := ParseFitMode(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Type implements the pflag.Value interface.
func (m *FitMode) Type() string { return "fitMode" }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *FitMode) UnmarshalText(b []byte) error { return m.Set(string(b)) }

// MarshalText writes the mode name.
func (m FitMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// TextureDescriptor describes a source or destination image buffer.
type TextureDescriptor struct {
	Width, Height int
	Format        PixelFormat
	// Renderable is true when the texture is itself a render target whose
	// format can be used for derived buffers.
	Renderable bool
}

// Size returns the descriptor dimensions.
func (d TextureDescriptor) Size() Size {
	return Size{Width: d.Width, Height: d.Height}
}

// Texture is any image handle the engine can read or hand to consumers.
type Texture interface {
	Descriptor() TextureDescriptor
}
