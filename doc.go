// Package fitstream re-frames a video or texture stream to a target aspect
// ratio for [Ebitengine] games and headless tools.
//
// Each frame flows through three steps:
//
//   - [Plan] decides the destination size and scale for a source size, a
//     target aspect and a [FitMode] (trim, adapt, or pass-through).
//   - A [ResourceManager] keeps one output buffer, reallocating only when
//     the planned size or format changes.
//   - An [Engine] renders the source into that buffer under a combined
//     pan/rotate/scale transform with clamp-to-edge sampling.
//
// A [Pump] ties these to a [Source] and fires [Pump.OnTexture] and
// [Pump.OnAspectChanged] once per tick:
//
//	pump := fitstream.NewPump(fitstream.NewEbitenBackend(), fitstream.DefaultConfig())
//	pump.OnTexture = func(tex fitstream.Texture) { g.frame = tex }
//	if err := pump.Enable(fitstream.NewStillSource(fitstream.NewEbitenTexture(img))); err != nil {
//		return err
//	}
//	defer pump.Disable()
//
//	// in ebiten.Game.Update:
//	pump.SetScreenSize(w, h)
//	if err := pump.Tick(1.0 / 60); err != nil {
//		return err
//	}
//
// # Fit modes
//
// Trim crops the longer axis so the output has exactly the target aspect.
// Adapt keeps the source's own aspect; [FitPlan.Content] says where the
// output sits inside a target-aspect frame so the caller can pad it. When
// the source aspect is within [AspectEpsilon] of the target, the plan is
// [FitIdentity] and the source is passed through untouched.
//
// # Backends
//
// [EbitenBackend] renders on the GPU with a Kage shader. [SoftBackend]
// renders on the CPU into image.RGBA or image.RGBA64 and is byte-for-byte
// deterministic, which makes it the backend for tests and the fitframe CLI.
//
// # Threading
//
// Everything runs on the rendering goroutine, once per tick. Nothing blocks
// and nothing is safe for concurrent use except [SetLogger].
//
// [Ebitengine]: https://ebitengine.org
package fitstream
