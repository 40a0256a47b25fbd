package fitstream

import (
	"fmt"
	"math"
)

// AspectEpsilon is the absolute aspect-ratio tolerance under which a source
// is considered to already match the target.
const AspectEpsilon = 0.01

// FitPlan is the geometry decision for one frame.
type FitPlan struct {
	// Destination is the size of the output buffer.
	Destination Size
	// Scale is the content magnification in UV space: how many destination
	// UV units one source UV unit spans. Trim is >= 1 on the cropped axis;
	// Adapt and Identity are (1, 1).
	Scale Vec2
	// Mode is the path that produced the plan. A requested Trim or Adapt
	// collapses to FitIdentity when the aspects already match.
	Mode FitMode
	// Content is the normalized rectangle the destination occupies inside a
	// frame of the target aspect. Only Adapt leaves bars around it.
	Content Rect
}

// Aspect returns the destination aspect ratio.
func (p FitPlan) Aspect() float64 {
	return p.Destination.Aspect()
}

var fullFrame = Rect{X: 0, Y: 0, Width: 1, Height: 1}

// Plan computes the destination geometry for a source of the given size
// shown at targetAspect under mode. It is a pure function.
func Plan(source Size, targetAspect float64, mode FitMode) (FitPlan, error) {
	if !source.Valid() {
		return FitPlan{}, fmt.Errorf("plan source %s: %w", source, ErrInvalidGeometry)
	}
	if !(targetAspect > 0) || math.IsInf(targetAspect, 0) {
		return FitPlan{}, fmt.Errorf("plan target aspect %v: %w", targetAspect, ErrInvalidGeometry)
	}

	srcAspect := source.Aspect()
	if mode == FitIdentity || math.Abs(srcAspect-targetAspect) < AspectEpsilon {
		return identityPlan(source), nil
	}

	switch mode {
	case FitTrim:
		return trimPlan(source, srcAspect, targetAspect), nil
	case FitAdapt:
		return adaptPlan(source, srcAspect, targetAspect), nil
	}
	return FitPlan{}, fmt.Errorf("plan: %v: %w", mode, ErrInvalidConfig)
}

func identityPlan(source Size) FitPlan {
	return FitPlan{
		Destination: source,
		Scale:       Vec2{1, 1},
		Mode:        FitIdentity,
		Content:     fullFrame,
	}
}

// trimPlan crops the longer axis so the destination has targetAspect.
func trimPlan(source Size, srcAspect, targetAspect float64) FitPlan {
	var dst Size
	if srcAspect > targetAspect {
		dst = Size{roundDim(float64(source.Height) * targetAspect), source.Height}
	} else {
		dst = Size{source.Width, roundDim(float64(source.Width) / targetAspect)}
	}
	return FitPlan{
		Destination: dst,
		Scale:       extentRatio(source, dst),
		Mode:        FitTrim,
		Content:     fullFrame,
	}
}

// adaptPlan sizes the destination to the source's own aspect inside the
// target region, constrained by whichever axis the target is narrower on.
func adaptPlan(source Size, srcAspect, targetAspect float64) FitPlan {
	var dst Size
	var content Rect
	if srcAspect < targetAspect {
		// Pillarbox: height is the constraint.
		dst = Size{roundDim(float64(source.Height) * srcAspect), source.Height}
		w := srcAspect / targetAspect
		content = Rect{X: (1 - w) / 2, Y: 0, Width: w, Height: 1}
	} else {
		// Letterbox: width is the constraint.
		dst = Size{source.Width, roundDim(float64(source.Width) / srcAspect)}
		h := targetAspect / srcAspect
		content = Rect{X: 0, Y: (1 - h) / 2, Width: 1, Height: h}
	}
	scale := extentRatio(source, dst)
	return FitPlan{
		Destination: dst,
		Scale:       scale,
		Mode:        FitAdapt,
		Content:     content,
	}
}

// extentRatio returns source/destination per axis. Axes that are not cropped
// come out as exactly 1.
func extentRatio(source, dst Size) Vec2 {
	return Vec2{
		X: float64(source.Width) / float64(dst.Width),
		Y: float64(source.Height) / float64(dst.Height),
	}
}

// roundDim rounds to the nearest pixel with a 1px floor.
func roundDim(v float64) int {
	return max(int(math.Round(v)), 1)
}
