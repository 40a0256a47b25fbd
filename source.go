package fitstream

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Source supplies frames to a Pump. Implementations are selected once at
// activation and polled once per tick from the rendering goroutine.
type Source interface {
	// HasNewFrame reports whether a frame arrived since the previous call.
	HasNewFrame() bool
	// CurrentTexture returns the most recent frame.
	CurrentTexture() (Texture, error)
	// Start begins delivery.
	Start() error
	// Stop ends delivery. Safe to call on a stopped source.
	Stop() error
	// AdvanceToNext selects the next underlying feed, when there is more
	// than one. Single-feed sources treat it as a no-op.
	AdvanceToNext() error
}

// StillSource delivers a single texture. A frame is reported on Start and
// again after each Invalidate, which callers use after redrawing the texture
// in place (for example an *ebiten.Image updated by a capture callback).
type StillSource struct {
	tex     Texture
	running bool
	pending bool
}

// NewStillSource returns a source for tex.
func NewStillSource(tex Texture) *StillSource {
	return &StillSource{tex: tex}
}

// Invalidate marks the texture as changed.
func (s *StillSource) Invalidate() {
	s.pending = true
}

// HasNewFrame implements Source.
func (s *StillSource) HasNewFrame() bool {
	if !s.running || !s.pending {
		return false
	}
	s.pending = false
	return true
}

// CurrentTexture implements Source.
func (s *StillSource) CurrentTexture() (Texture, error) {
	if s.tex == nil {
		return nil, fmt.Errorf("still source: %w", ErrNoSource)
	}
	return s.tex, nil
}

// Start implements Source.
func (s *StillSource) Start() error {
	if s.tex == nil {
		return fmt.Errorf("still source: %w", ErrNoSource)
	}
	s.running = true
	s.pending = true
	return nil
}

// Stop implements Source.
func (s *StillSource) Stop() error {
	s.running = false
	s.pending = false
	return nil
}

// AdvanceToNext implements Source.
func (s *StillSource) AdvanceToNext() error { return nil }

// SequenceSource delivers a fixed list of frames, one per tick.
type SequenceSource struct {
	// Loop restarts from the first frame after the last one.
	Loop bool

	frames  []Texture
	cur     int
	next    int
	running bool
}

// NewSequenceSource returns a source delivering frames in order.
func NewSequenceSource(frames ...Texture) *SequenceSource {
	return &SequenceSource{frames: frames, cur: -1}
}

// HasNewFrame implements Source.
func (s *SequenceSource) HasNewFrame() bool {
	if !s.running || len(s.frames) == 0 {
		return false
	}
	if s.next >= len(s.frames) {
		if !s.Loop {
			return false
		}
		s.next = 0
	}
	s.cur = s.next
	s.next++
	return true
}

// CurrentTexture implements Source.
func (s *SequenceSource) CurrentTexture() (Texture, error) {
	if s.cur < 0 || s.cur >= len(s.frames) {
		return nil, fmt.Errorf("sequence source: no frame delivered yet: %w", ErrNoSource)
	}
	return s.frames[s.cur], nil
}

// Start implements Source. Delivery restarts from the first frame.
func (s *SequenceSource) Start() error {
	if len(s.frames) == 0 {
		return fmt.Errorf("sequence source: no frames: %w", ErrNoSource)
	}
	s.running = true
	s.cur = -1
	s.next = 0
	return nil
}

// Stop implements Source.
func (s *SequenceSource) Stop() error {
	s.running = false
	return nil
}

// AdvanceToNext implements Source.
func (s *SequenceSource) AdvanceToNext() error { return nil }

// FeedSwitcher multiplexes several sources, delivering from one at a time.
// AdvanceToNext stops the active feed and starts the next, wrapping around.
type FeedSwitcher struct {
	feeds   []Source
	active  int
	running bool
}

// NewFeedSwitcher returns a switcher over feeds, starting with the first.
func NewFeedSwitcher(feeds ...Source) *FeedSwitcher {
	return &FeedSwitcher{feeds: feeds}
}

// Active returns the index of the feed currently delivering.
func (f *FeedSwitcher) Active() int {
	return f.active
}

// Len returns the number of feeds.
func (f *FeedSwitcher) Len() int {
	return len(f.feeds)
}

// HasNewFrame implements Source.
func (f *FeedSwitcher) HasNewFrame() bool {
	if !f.running {
		return false
	}
	return f.feeds[f.active].HasNewFrame()
}

// CurrentTexture implements Source.
func (f *FeedSwitcher) CurrentTexture() (Texture, error) {
	if len(f.feeds) == 0 {
		return nil, fmt.Errorf("feed switcher: %w", ErrNoSource)
	}
	return f.feeds[f.active].CurrentTexture()
}

// Start implements Source.
func (f *FeedSwitcher) Start() error {
	if len(f.feeds) == 0 {
		return fmt.Errorf("feed switcher: no feeds: %w", ErrNoSource)
	}
	if err := f.feeds[f.active].Start(); err != nil {
		return fmt.Errorf("feed switcher: start feed %d: %w", f.active, err)
	}
	f.running = true
	return nil
}

// Stop implements Source.
func (f *FeedSwitcher) Stop() error {
	if !f.running {
		return nil
	}
	f.running = false
	if err := f.feeds[f.active].Stop(); err != nil {
		return fmt.Errorf("feed switcher: stop feed %d: %w", f.active, err)
	}
	return nil
}

// AdvanceToNext implements Source. On a stopped switcher it only moves the
// selection; the new feed starts with the next Start. If the next feed fails
// to start, the previous one is restarted and stays selected.
func (f *FeedSwitcher) AdvanceToNext() error {
	if len(f.feeds) < 2 {
		return nil
	}
	prev := f.active
	next := (f.active + 1) % len(f.feeds)
	if f.running {
		if err := f.feeds[prev].Stop(); err != nil {
			return fmt.Errorf("feed switcher: stop feed %d: %w", prev, err)
		}
		if err := f.feeds[next].Start(); err != nil {
			startErr := fmt.Errorf("feed switcher: start feed %d: %w", next, err)
			// Fall back to the feed that was delivering.
			if rerr := f.feeds[prev].Start(); rerr != nil {
				f.running = false
				return errors.Join(startErr, fmt.Errorf("feed switcher: restart feed %d: %w", prev, rerr))
			}
			log().WithFields(logrus.Fields{"from": prev, "to": next}).WithError(err).Warn("feed switch failed")
			return startErr
		}
	}
	f.active = next
	log().WithFields(logrus.Fields{"from": prev, "to": next}).Debug("feed switched")
	return nil
}
