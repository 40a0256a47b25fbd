package fitstream

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Pump drives a Source through the planner and an Engine once per tick and
// forwards the results. A pump owns the engine it creates on Enable and
// disposes it on Disable. All methods must be called from one goroutine.
type Pump struct {
	// OnTexture is called once per tick in which the source had a new frame,
	// with the (possibly transformed) output. The texture is overwritten on
	// the next delivering tick; copy it to keep it.
	OnTexture func(tex Texture)
	// OnAspectChanged is called when the output aspect differs from the
	// previously reported value, and once for the first delivered frame.
	OnAspectChanged func(aspect float64)

	backend Backend
	cfg     Config

	engine  *Engine
	source  Source
	enabled bool

	screen   Size
	pan      Vec2
	rotation float64
	tweens   transformTweens

	lastAspect float64
	haveAspect bool
	lastPlan   FitPlan

	stats         Stats
	snapshotQueue []string
}

// NewPump returns a disabled pump rendering with backend under cfg.
func NewPump(backend Backend, cfg Config) *Pump {
	return &Pump{
		backend:  backend,
		cfg:      cfg,
		pan:      cfg.Pan,
		rotation: cfg.RotationDegrees,
	}
}

// Config returns the pump's current configuration, including runtime changes
// made through the setters.
func (p *Pump) Config() Config {
	c := p.cfg
	c.Pan = p.pan
	c.RotationDegrees = p.rotation
	return c
}

// Enabled reports whether the pump is active.
func (p *Pump) Enabled() bool {
	return p.enabled
}

// Engine returns the engine of the current activation, or nil when disabled.
func (p *Pump) Engine() *Engine {
	return p.engine
}

// LastPlan returns the plan of the most recent delivered frame.
func (p *Pump) LastPlan() FitPlan {
	return p.lastPlan
}

// Enable validates the configuration, starts src and creates a fresh engine.
// Without a source, or with an invalid configuration, the pump stays disabled
// and the error is returned.
func (p *Pump) Enable(src Source) error {
	if p.enabled {
		return nil
	}
	if src == nil {
		return fmt.Errorf("enable pump: %w", ErrNoSource)
	}
	if p.backend == nil {
		return fmt.Errorf("enable pump: no backend: %w", ErrInvalidConfig)
	}
	if err := p.cfg.Validate(); err != nil {
		return fmt.Errorf("enable pump: %w", err)
	}
	if err := src.Start(); err != nil {
		return fmt.Errorf("enable pump: start source: %w", err)
	}
	p.source = src
	p.engine = NewEngine(p.backend)
	p.enabled = true
	p.haveAspect = false
	log().WithFields(logrus.Fields{
		"mode":   p.cfg.Mode.String(),
		"aspect": p.cfg.TargetAspect.String(),
	}).Debug("pump enabled")
	return nil
}

// Disable stops the source and disposes the engine. The engine is disposed
// even when stopping the source fails.
func (p *Pump) Disable() error {
	if !p.enabled {
		return nil
	}
	p.enabled = false
	defer p.releaseEngine()

	src := p.source
	p.source = nil
	if err := src.Stop(); err != nil {
		return fmt.Errorf("disable pump: stop source: %w", err)
	}
	log().Debug("pump disabled")
	return nil
}

func (p *Pump) releaseEngine() {
	if p.engine == nil {
		return
	}
	p.engine.Dispose()
	p.stats.Allocations += p.engine.resources.Allocations()
	p.stats.Disposals += p.engine.resources.Disposals()
	p.engine = nil
}

// AdvanceToNext switches the source to its next feed.
func (p *Pump) AdvanceToNext() error {
	if !p.enabled {
		return fmt.Errorf("advance: %w", ErrNoSource)
	}
	if err := p.source.AdvanceToNext(); err != nil {
		return fmt.Errorf("advance: %w", err)
	}
	return nil
}

// SetScreenSize records the screen size used when the target aspect is
// ScreenAspect.
func (p *Pump) SetScreenSize(width, height int) {
	p.screen = Size{Width: width, Height: height}
}

// SetPan sets the pan offset in source UV units and cancels a running pan tween.
func (p *Pump) SetPan(x, y float64) {
	p.pan = Vec2{X: x, Y: y}
	p.tweens.panX, p.tweens.panY = nil, nil
}

// Pan returns the current pan offset.
func (p *Pump) Pan() Vec2 {
	return p.pan
}

// SetRotation sets the rotation in degrees and cancels a running rotation tween.
func (p *Pump) SetRotation(degrees float64) {
	p.rotation = degrees
	p.tweens.rotation = nil
}

// Rotation returns the current rotation in degrees.
func (p *Pump) Rotation() float64 {
	return p.rotation
}

// SetMode changes the fit mode from the next frame on.
func (p *Pump) SetMode(mode FitMode) {
	p.cfg.Mode = mode
}

// SetTargetAspect changes the target aspect source from the next frame on.
func (p *Pump) SetTargetAspect(a AspectSource) {
	p.cfg.TargetAspect = a
}

// targetAspect resolves the configured aspect source.
func (p *Pump) targetAspect() (float64, error) {
	if !p.cfg.TargetAspect.Screen {
		return p.cfg.TargetAspect.Value, nil
	}
	if !p.screen.Valid() {
		return 0, fmt.Errorf("screen size %s: %w", p.screen, ErrInvalidGeometry)
	}
	return p.screen.Aspect(), nil
}

// Tick advances tweens by dt seconds and, if the source has a new frame,
// plans, transforms and delivers it. A disabled pump does nothing.
func (p *Pump) Tick(dt float64) error {
	if !p.enabled {
		return nil
	}
	p.updateTweens(float32(dt))

	if !p.source.HasNewFrame() {
		p.stats.Skipped++
		return nil
	}

	tex, err := p.source.CurrentTexture()
	if err != nil {
		return fmt.Errorf("tick: %w", err)
	}
	target, err := p.targetAspect()
	if err != nil {
		return fmt.Errorf("tick: %w", err)
	}
	plan, err := Plan(tex.Descriptor().Size(), target, p.cfg.Mode)
	if err != nil {
		return fmt.Errorf("tick: %w", err)
	}
	out, err := p.engine.Transform(TransformRequest{
		Source:          tex,
		Pan:             p.pan,
		RotationDegrees: p.rotation,
		Plan:            plan,
	})
	if err != nil {
		if errors.Is(err, ErrAllocationFailure) {
			log().WithFields(logrus.Fields{
				"width":  plan.Destination.Width,
				"height": plan.Destination.Height,
			}).Warn("transform resource allocation failed")
		}
		return fmt.Errorf("tick: %w", err)
	}

	p.lastPlan = plan
	p.stats.Frames++
	if plan.Mode == FitIdentity {
		p.stats.PassThrough++
	}
	if p.OnTexture != nil {
		p.OnTexture(out)
	}
	p.notifyAspect(plan.Aspect())
	p.flushSnapshots(out)
	return nil
}

// notifyAspect fires OnAspectChanged when aspect differs from the last
// reported value. With a zero tolerance the comparison is exact.
func (p *Pump) notifyAspect(aspect float64) {
	if p.haveAspect {
		if tol := p.cfg.AspectTolerance; tol > 0 {
			if math.Abs(aspect-p.lastAspect) <= tol {
				return
			}
		} else if aspect == p.lastAspect {
			return
		}
	}
	p.lastAspect = aspect
	p.haveAspect = true
	p.stats.AspectChanges++
	if p.OnAspectChanged != nil {
		p.OnAspectChanged(aspect)
	}
}
