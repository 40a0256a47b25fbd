package fitstream

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// columnsImage returns a w x h RGBA image whose column x is filled with
// colors[x].
func columnsImage(h int, colors ...color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, len(colors), h))
	for y := 0; y < h; y++ {
		for x, c := range colors {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

var (
	red   = color.RGBA{255, 0, 0, 255}
	green = color.RGBA{0, 255, 0, 255}
	blue  = color.RGBA{0, 0, 255, 255}
	white = color.RGBA{255, 255, 255, 255}
)

func exportRGBA(t *testing.T, tex Texture) *image.RGBA {
	t.Helper()
	exp, ok := tex.(ImageExporter)
	require.True(t, ok, "%T is not exportable", tex)
	img, err := exp.ToImage()
	require.NoError(t, err)
	rgba, ok := img.(*image.RGBA)
	require.True(t, ok, "%T is not *image.RGBA", img)
	return rgba
}

func TestEngineIdentityBypassesAllocation(t *testing.T) {
	e := NewEngine(NewSoftBackend())
	src := NewImageTexture(columnsImage(3, red, green, blue, white))

	plan, err := Plan(src.Descriptor().Size(), 4.0/3.0, FitTrim)
	require.NoError(t, err)
	require.Equal(t, FitIdentity, plan.Mode)

	out, err := e.Transform(TransformRequest{Source: src, Plan: plan})
	require.NoError(t, err)
	assert.Same(t, src, out)
	assert.Equal(t, 0, e.Resources().Allocations())
	assert.Nil(t, e.Resources().Current())
	assert.Equal(t, EngineUninitialized, e.State())
}

func TestEngineStateTransitions(t *testing.T) {
	e := NewEngine(NewSoftBackend())
	assert.Equal(t, EngineUninitialized, e.State())

	src := NewImageTexture(columnsImage(2, red, green, blue, white))
	plan, err := Plan(src.Descriptor().Size(), 1, FitTrim)
	require.NoError(t, err)

	_, err = e.Transform(TransformRequest{Source: src, Plan: plan})
	require.NoError(t, err)
	assert.Equal(t, EngineActive, e.State())

	e.Dispose()
	assert.Equal(t, EngineDisposed, e.State())
	assert.Nil(t, e.Resources().Current())

	_, err = e.Transform(TransformRequest{Source: src, Plan: plan})
	assert.ErrorIs(t, err, ErrEngineDisposed)

	e.Dispose()
	assert.Equal(t, EngineDisposed, e.State())
	assert.Equal(t, 1, e.Resources().Disposals())
}

func TestEngineTrimKeepsMiddleColumns(t *testing.T) {
	e := NewEngine(NewSoftBackend())
	src := NewImageTexture(columnsImage(2, red, green, blue, white))

	plan, err := Plan(src.Descriptor().Size(), 1, FitTrim)
	require.NoError(t, err)
	require.Equal(t, Size{2, 2}, plan.Destination)

	out, err := e.Transform(TransformRequest{Source: src, Plan: plan})
	require.NoError(t, err)

	img := exportRGBA(t, out)
	for y := 0; y < 2; y++ {
		assert.Equal(t, green, img.RGBAAt(0, y))
		assert.Equal(t, blue, img.RGBAAt(1, y))
	}
}

func TestEnginePanShiftsCrop(t *testing.T) {
	e := NewEngine(NewSoftBackend())
	src := NewImageTexture(columnsImage(2, red, green, blue, white))
	plan, err := Plan(src.Descriptor().Size(), 1, FitTrim)
	require.NoError(t, err)

	// One column right in UV units.
	out, err := e.Transform(TransformRequest{Source: src, Plan: plan, Pan: Vec2{X: 0.25}})
	require.NoError(t, err)
	img := exportRGBA(t, out)
	assert.Equal(t, red, img.RGBAAt(0, 0))
	assert.Equal(t, green, img.RGBAAt(1, 0))
}

func TestEngineClampsToEdge(t *testing.T) {
	e := NewEngine(NewSoftBackend())
	src := NewImageTexture(columnsImage(2, red, green, blue, white))
	plan, err := Plan(src.Descriptor().Size(), 1, FitTrim)
	require.NoError(t, err)

	// Pan far past the left edge: every sample repeats the first column.
	out, err := e.Transform(TransformRequest{Source: src, Plan: plan, Pan: Vec2{X: 5}})
	require.NoError(t, err)
	img := exportRGBA(t, out)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			assert.Equal(t, red, img.RGBAAt(x, y))
		}
	}
}

func TestEngineRotationOutputHasNoHoles(t *testing.T) {
	e := NewEngine(NewSoftBackend())
	src := NewImageTexture(columnsImage(4, red, green, blue, white, red, green))
	plan, err := Plan(src.Descriptor().Size(), 1, FitTrim)
	require.NoError(t, err)

	out, err := e.Transform(TransformRequest{Source: src, Plan: plan, RotationDegrees: 33})
	require.NoError(t, err)
	img := exportRGBA(t, out)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			assert.Equal(t, uint8(255), img.RGBAAt(x, y).A, "pixel (%d, %d) is transparent", x, y)
		}
	}
}

func TestEngineDeterministic(t *testing.T) {
	src := NewImageTexture(columnsImage(9, red, green, blue, white, red, green, blue, white, red, green, blue, white, red, green, blue, white))
	plan, err := Plan(src.Descriptor().Size(), 4.0/3.0, FitTrim)
	require.NoError(t, err)
	req := TransformRequest{Source: src, Plan: plan, Pan: Vec2{0.1, -0.05}, RotationDegrees: 17}

	render := func() []byte {
		e := NewEngine(NewSoftBackend())
		defer e.Dispose()
		out, err := e.Transform(req)
		require.NoError(t, err)
		img := exportRGBA(t, out)
		return append([]byte(nil), img.Pix...)
	}
	assert.Equal(t, render(), render())
}

func TestEngineReusesResourceAcrossFrames(t *testing.T) {
	e := NewEngine(NewSoftBackend())
	src := NewImageTexture(columnsImage(3, red, green, blue, white, red, green))
	plan, err := Plan(src.Descriptor().Size(), 1, FitTrim)
	require.NoError(t, err)

	first, err := e.Transform(TransformRequest{Source: src, Plan: plan})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		out, err := e.Transform(TransformRequest{Source: src, Plan: plan, Pan: Vec2{X: float64(i) * 0.01}})
		require.NoError(t, err)
		assert.Same(t, first, out)
	}
	assert.Equal(t, 1, e.Resources().Allocations())
}

func TestEngineAllocationFailurePropagates(t *testing.T) {
	e := NewEngine(&SoftBackend{MaxSize: 2})
	src := NewImageTexture(columnsImage(3, red, green, blue, white, red, green))
	plan, err := Plan(src.Descriptor().Size(), 1, FitTrim)
	require.NoError(t, err)
	require.Equal(t, Size{3, 3}, plan.Destination)

	out, err := e.Transform(TransformRequest{Source: src, Plan: plan})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrAllocationFailure)
	assert.Equal(t, EngineUninitialized, e.State())
}

func TestEngineRejectsBadRequests(t *testing.T) {
	e := NewEngine(NewSoftBackend())
	src := NewImageTexture(columnsImage(2, red, green, blue, white))
	plan, err := Plan(src.Descriptor().Size(), 1, FitTrim)
	require.NoError(t, err)

	_, err = e.Transform(TransformRequest{Plan: plan})
	assert.ErrorIs(t, err, ErrUnsupportedTexture)

	_, err = e.Transform(TransformRequest{Source: src, Plan: plan, RotationDegrees: math.NaN()})
	assert.ErrorIs(t, err, ErrInvalidGeometry)

	_, err = e.Transform(TransformRequest{Source: src, Plan: plan, Pan: Vec2{X: math.Inf(1)}})
	assert.ErrorIs(t, err, ErrInvalidGeometry)

	empty := NewImageTexture(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	_, err = e.Transform(TransformRequest{Source: empty, Plan: plan})
	assert.ErrorIs(t, err, ErrInvalidGeometry)
	assert.Equal(t, EngineUninitialized, e.State())
}

func TestEngineOutputFormatFollowsSource(t *testing.T) {
	e := NewEngine(NewSoftBackend())
	src := NewImageTexture(image.NewRGBA64(image.Rect(0, 0, 4, 2)))
	plan, err := Plan(src.Descriptor().Size(), 1, FitTrim)
	require.NoError(t, err)

	out, err := e.Transform(TransformRequest{Source: src, Plan: plan})
	require.NoError(t, err)
	assert.Equal(t, PixelFormatRGBA16, out.Descriptor().Format)

	// A non-renderable source gets the default format.
	gray := NewImageTexture(image.NewGray(image.Rect(0, 0, 4, 2)))
	out, err = e.Transform(TransformRequest{Source: gray, Plan: plan})
	require.NoError(t, err)
	assert.Equal(t, DefaultPixelFormat, out.Descriptor().Format)
	assert.Equal(t, 2, e.Resources().Allocations())
}

func TestEngineIdentityAfterTrimReleasesResource(t *testing.T) {
	e := NewEngine(NewSoftBackend())
	src := NewImageTexture(columnsImage(2, red, green, blue, white))

	trim, err := Plan(src.Descriptor().Size(), 1, FitTrim)
	require.NoError(t, err)
	_, err = e.Transform(TransformRequest{Source: src, Plan: trim})
	require.NoError(t, err)
	old := e.Resources().Current()
	require.NotNil(t, old)

	identity, err := Plan(src.Descriptor().Size(), 1, FitIdentity)
	require.NoError(t, err)
	out, err := e.Transform(TransformRequest{Source: src, Plan: identity})
	require.NoError(t, err)
	assert.Same(t, src, out)
	assert.True(t, old.Disposed())
	assert.Nil(t, e.Resources().Current())
	assert.Equal(t, EngineUninitialized, e.State())
	assert.Equal(t, 1, e.Resources().Allocations())
}

func TestEngineReleaseKeepsDisposedTerminal(t *testing.T) {
	e := NewEngine(NewSoftBackend())
	e.Release()
	assert.Equal(t, EngineUninitialized, e.State())

	e.Dispose()
	e.Release()
	assert.Equal(t, EngineDisposed, e.State())
}

// rgba8Backend is a SoftBackend limited to RGBA8, like EbitenBackend.
type rgba8Backend struct {
	SoftBackend
}

func (b *rgba8Backend) SupportsFormat(format PixelFormat) bool {
	return format == PixelFormatRGBA8
}

func TestEngineFallsBackToSupportedFormat(t *testing.T) {
	e := NewEngine(&rgba8Backend{})
	src := NewImageTexture(image.NewRGBA64(image.Rect(0, 0, 4, 2)))
	require.Equal(t, PixelFormatRGBA16, src.Descriptor().Format)
	plan, err := Plan(src.Descriptor().Size(), 1, FitTrim)
	require.NoError(t, err)

	out, err := e.Transform(TransformRequest{Source: src, Plan: plan})
	require.NoError(t, err)
	assert.Equal(t, PixelFormatRGBA8, out.Descriptor().Format)
}

func TestOutputFormat(t *testing.T) {
	deep := TextureDescriptor{Width: 4, Height: 4, Format: PixelFormatRGBA16, Renderable: true}
	assert.Equal(t, PixelFormatRGBA16, outputFormat(deep, NewSoftBackend()))
	assert.Equal(t, PixelFormatRGBA8, outputFormat(deep, NewEbitenBackend()))
	assert.Equal(t, PixelFormatRGBA16, outputFormat(deep, &recordingBackend{}))

	deep.Renderable = false
	assert.Equal(t, DefaultPixelFormat, outputFormat(deep, NewSoftBackend()))
}
