package fitstream

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTexture(w, h int) *ImageTexture {
	return NewImageTexture(image.NewRGBA(image.Rect(0, 0, w, h)))
}

func TestStillSourceDeliversOnStartAndInvalidate(t *testing.T) {
	tex := newTestTexture(4, 3)
	s := NewStillSource(tex)

	assert.False(t, s.HasNewFrame(), "no frame before Start")
	require.NoError(t, s.Start())
	assert.True(t, s.HasNewFrame())
	assert.False(t, s.HasNewFrame())

	s.Invalidate()
	assert.True(t, s.HasNewFrame())

	got, err := s.CurrentTexture()
	require.NoError(t, err)
	assert.Same(t, tex, got)

	require.NoError(t, s.Stop())
	s.Invalidate()
	assert.False(t, s.HasNewFrame(), "no frame after Stop")
	require.NoError(t, s.Stop())
}

func TestStillSourceNilTexture(t *testing.T) {
	s := NewStillSource(nil)
	assert.ErrorIs(t, s.Start(), ErrNoSource)
	_, err := s.CurrentTexture()
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestSequenceSourceDeliversInOrder(t *testing.T) {
	a, b := newTestTexture(4, 3), newTestTexture(16, 9)
	s := NewSequenceSource(a, b)

	_, err := s.CurrentTexture()
	assert.ErrorIs(t, err, ErrNoSource)

	require.NoError(t, s.Start())
	for _, want := range []Texture{a, b} {
		require.True(t, s.HasNewFrame())
		got, err := s.CurrentTexture()
		require.NoError(t, err)
		assert.Same(t, want, got)
	}
	assert.False(t, s.HasNewFrame(), "exhausted")

	// Current frame is still readable once exhausted.
	got, err := s.CurrentTexture()
	require.NoError(t, err)
	assert.Same(t, b, got)
}

func TestSequenceSourceLoop(t *testing.T) {
	a, b := newTestTexture(4, 3), newTestTexture(16, 9)
	s := NewSequenceSource(a, b)
	s.Loop = true
	require.NoError(t, s.Start())

	var got []Texture
	for i := 0; i < 5; i++ {
		require.True(t, s.HasNewFrame())
		tex, err := s.CurrentTexture()
		require.NoError(t, err)
		got = append(got, tex)
	}
	assert.Equal(t, []Texture{a, b, a, b, a}, got)
}

func TestSequenceSourceEmpty(t *testing.T) {
	s := NewSequenceSource()
	assert.ErrorIs(t, s.Start(), ErrNoSource)
	assert.False(t, s.HasNewFrame())
}

// countingSource records Start/Stop calls.
type countingSource struct {
	*StillSource
	starts, stops int
	startErr      error
}

func newCountingSource(tex Texture) *countingSource {
	return &countingSource{StillSource: NewStillSource(tex)}
}

func (c *countingSource) Start() error {
	c.starts++
	if c.startErr != nil {
		return c.startErr
	}
	return c.StillSource.Start()
}

func (c *countingSource) Stop() error {
	c.stops++
	return c.StillSource.Stop()
}

func TestFeedSwitcherAdvance(t *testing.T) {
	a := newCountingSource(newTestTexture(4, 3))
	b := newCountingSource(newTestTexture(16, 9))
	f := NewFeedSwitcher(a, b)
	assert.Equal(t, 2, f.Len())

	require.NoError(t, f.Start())
	assert.Equal(t, 1, a.starts)
	assert.Equal(t, 0, b.starts)
	assert.True(t, f.HasNewFrame())

	require.NoError(t, f.AdvanceToNext())
	assert.Equal(t, 1, f.Active())
	assert.Equal(t, 1, a.stops)
	assert.Equal(t, 1, b.starts)
	assert.True(t, f.HasNewFrame())
	tex, err := f.CurrentTexture()
	require.NoError(t, err)
	assert.Equal(t, Size{16, 9}, tex.Descriptor().Size())

	require.NoError(t, f.AdvanceToNext())
	assert.Equal(t, 0, f.Active(), "wraps around")
	assert.Equal(t, 2, a.starts)
}

func TestFeedSwitcherAdvanceWhileStopped(t *testing.T) {
	a := newCountingSource(newTestTexture(4, 3))
	b := newCountingSource(newTestTexture(16, 9))
	f := NewFeedSwitcher(a, b)

	require.NoError(t, f.AdvanceToNext())
	assert.Equal(t, 1, f.Active())
	assert.Zero(t, a.starts+a.stops+b.starts+b.stops)
	assert.False(t, f.HasNewFrame())

	require.NoError(t, f.Start())
	assert.Equal(t, 1, b.starts)
}

func TestFeedSwitcherStartFailureKeepsPreviousFeed(t *testing.T) {
	boom := errors.New("device busy")
	a := newCountingSource(newTestTexture(4, 3))
	b := newCountingSource(newTestTexture(16, 9))
	b.startErr = boom
	f := NewFeedSwitcher(a, b)
	require.NoError(t, f.Start())
	require.True(t, f.HasNewFrame())

	err := f.AdvanceToNext()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, f.Active())
	assert.Equal(t, 2, a.starts, "previous feed restarted")
	assert.True(t, f.HasNewFrame(), "previous feed delivers again")

	// The next attempt succeeds once the device is free.
	b.startErr = nil
	require.NoError(t, f.AdvanceToNext())
	assert.Equal(t, 1, f.Active())
	assert.Equal(t, 2, b.starts)
	assert.True(t, f.HasNewFrame())
	tex, err := f.CurrentTexture()
	require.NoError(t, err)
	assert.Equal(t, Size{16, 9}, tex.Descriptor().Size())
}

func TestFeedSwitcherStartAndRestartFailure(t *testing.T) {
	busy := errors.New("device busy")
	gone := errors.New("device gone")
	a := newCountingSource(newTestTexture(4, 3))
	b := newCountingSource(newTestTexture(16, 9))
	b.startErr = busy
	f := NewFeedSwitcher(a, b)
	require.NoError(t, f.Start())

	a.startErr = gone
	err := f.AdvanceToNext()
	assert.ErrorIs(t, err, busy)
	assert.ErrorIs(t, err, gone)
	assert.False(t, f.HasNewFrame())
	require.NoError(t, f.Stop())

	// A stopped switcher starts again on Start.
	a.startErr = nil
	require.NoError(t, f.Start())
	assert.True(t, f.HasNewFrame())
}

func TestFeedSwitcherEmpty(t *testing.T) {
	f := NewFeedSwitcher()
	assert.ErrorIs(t, f.Start(), ErrNoSource)
	_, err := f.CurrentTexture()
	assert.ErrorIs(t, err, ErrNoSource)
	assert.NoError(t, f.AdvanceToNext())
}
