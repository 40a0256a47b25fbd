package fitstream

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Stats counts what a pump has done since it was created.
type Stats struct {
	Frames        int // frames delivered through OnTexture
	PassThrough   int // delivered frames that skipped the engine (identity plans)
	Skipped       int // ticks without a new source frame
	Allocations   int // output buffers created
	Disposals     int // output buffers released
	AspectChanges int // OnAspectChanged notifications
}

func (s Stats) String() string {
	return fmt.Sprintf("frames: %d | pass-through: %d | skipped: %d | allocations: %d | disposals: %d | aspect changes: %d",
		s.Frames, s.PassThrough, s.Skipped, s.Allocations, s.Disposals, s.AspectChanges)
}

// Stats returns the pump counters, including the engine of the current
// activation.
func (p *Pump) Stats() Stats {
	s := p.stats
	if p.engine != nil {
		s.Allocations += p.engine.resources.Allocations()
		s.Disposals += p.engine.resources.Disposals()
	}
	return s
}

// LogStats writes the counters to the package logger at debug level.
func (p *Pump) LogStats() {
	s := p.Stats()
	log().WithFields(logrus.Fields{
		"frames":         s.Frames,
		"pass_through":   s.PassThrough,
		"skipped":        s.Skipped,
		"allocations":    s.Allocations,
		"disposals":      s.Disposals,
		"aspect_changes": s.AspectChanges,
	}).Debug("pump stats")
}
