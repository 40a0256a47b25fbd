package fitstream

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// transformTweens holds the active eased transitions of a pump. A nil tween
// means the value is not animating.
type transformTweens struct {
	panX     *gween.Tween
	panY     *gween.Tween
	rotation *gween.Tween
}

// PanTo animates the pan offset to (x, y) over duration seconds. A nil easeFn
// uses ease.Linear. A non-positive duration sets the pan immediately.
func (p *Pump) PanTo(x, y float64, duration float32, easeFn ease.TweenFunc) {
	if duration <= 0 {
		p.SetPan(x, y)
		return
	}
	if easeFn == nil {
		easeFn = ease.Linear
	}
	p.tweens.panX = gween.New(float32(p.pan.X), float32(x), duration, easeFn)
	p.tweens.panY = gween.New(float32(p.pan.Y), float32(y), duration, easeFn)
}

// RotateTo animates the rotation to degrees over duration seconds. A nil
// easeFn uses ease.Linear. A non-positive duration sets it immediately.
func (p *Pump) RotateTo(degrees float64, duration float32, easeFn ease.TweenFunc) {
	if duration <= 0 {
		p.SetRotation(degrees)
		return
	}
	if easeFn == nil {
		easeFn = ease.Linear
	}
	p.tweens.rotation = gween.New(float32(p.rotation), float32(degrees), duration, easeFn)
}

// Animating reports whether a pan or rotation tween is running.
func (p *Pump) Animating() bool {
	t := &p.tweens
	return t.panX != nil || t.panY != nil || t.rotation != nil
}

// updateTweens advances running tweens by dt seconds.
func (p *Pump) updateTweens(dt float32) {
	t := &p.tweens
	if t.panX != nil {
		val, done := t.panX.Update(dt)
		p.pan.X = float64(val)
		if done {
			t.panX = nil
		}
	}
	if t.panY != nil {
		val, done := t.panY.Update(dt)
		p.pan.Y = float64(val)
		if done {
			t.panY = nil
		}
	}
	if t.rotation != nil {
		val, done := t.rotation.Update(dt)
		p.rotation = float64(val)
		if done {
			t.rotation = nil
		}
	}
}
