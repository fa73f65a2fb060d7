package stream

import (
	"image"
	"sync"
	"testing"

	"github.com/matt-g-everett/lottietx/raster"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepUntilStopped(c *Controller, limit int) {
	for i := 0; i < limit && c.Running() == Playing; i++ {
		c.Step()
	}
}

func TestLoadShowsFirstFrame(t *testing.T) {
	c, src, log := newTestController(t, Options{AutoPlay: true})

	assert.Equal(t, StatusReady, c.Status())
	assert.Equal(t, []Status{StatusLoading, StatusReady}, log.statuses())
	assert.Equal(t, 0, c.StartFrame())
	assert.Equal(t, 10, c.EndFrame())
	assert.Equal(t, 30.0, c.FrameRate())
	assert.Equal(t, Playing, c.Running())
	assert.Equal(t, []int{0}, src.frames())
	assert.Equal(t, 1, log.count(EventFrameRateChanged))
	assert.Equal(t, 1, log.count(EventEndFrameChanged))
}

func TestLoadWithoutAutoPlayStaysStopped(t *testing.T) {
	c, src, _ := newTestController(t, Options{})
	c.Step()

	assert.Equal(t, Stopped, c.Running())
	assert.Equal(t, []int{0}, src.frames())
}

func TestTwoLoopsTraverseTwiceThenFinish(t *testing.T) {
	c, src, log := newTestController(t, Options{Loops: 2, AutoPlay: true})
	stepUntilStopped(c, 1000)

	want := append(seq(0, 10), seq(0, 10)...)
	assert.Equal(t, want, src.frames())
	assert.Equal(t, 1, log.count(EventFinished))
	assert.Equal(t, Stopped, c.Running())
	assert.Equal(t, 10, c.CurrentFrame())

	for i := 0; i < 5; i++ {
		c.Step()
	}
	assert.Equal(t, 1, log.count(EventFinished))
	assert.Len(t, src.frames(), len(want))
}

func TestZeroLoopsIsOnePass(t *testing.T) {
	c, src, log := newTestController(t, Options{Loops: 0, AutoPlay: true})
	stepUntilStopped(c, 1000)

	assert.Equal(t, seq(0, 10), src.frames())
	assert.Equal(t, 1, log.count(EventFinished))
}

func TestNegativeLoopsNeverFinish(t *testing.T) {
	c, src, log := newTestController(t, Options{Loops: -1, AutoPlay: true})
	for i := 0; i < 100; i++ {
		c.Step()
	}

	frames := src.frames()
	require.Len(t, frames, 101)
	for i, f := range frames {
		assert.Equal(t, i%11, f)
	}
	assert.Zero(t, log.count(EventFinished))
	assert.Equal(t, Playing, c.Running())
}

func TestReverseLoopsFromEnd(t *testing.T) {
	c, src, _ := newTestController(t, Options{Loops: 1, Direction: Reverse, AutoPlay: true})
	stepUntilStopped(c, 1000)

	want := seq(0, 10)
	for i, j := 0, len(want)-1; i < j; i, j = i+1, j-1 {
		want[i], want[j] = want[j], want[i]
	}
	assert.Equal(t, want, src.frames())
}

func TestReversingResumesFromCurrentFrame(t *testing.T) {
	c, src, log := newTestController(t, Options{Loops: -1, AutoPlay: true})
	for i := 0; i < 5; i++ {
		c.Step()
	}
	require.Equal(t, 5, c.CurrentFrame())

	c.SetDirection(Reverse)
	c.Step()

	assert.Equal(t, 4, c.CurrentFrame())
	assert.Equal(t, 4, src.last().Frame)
	assert.Equal(t, 1, log.count(EventDirectionChanged))

	c.SetDirection(Forward)
	c.Step()
	assert.Equal(t, 5, c.CurrentFrame())
}

func TestMarkerSeeks(t *testing.T) {
	c, _, _ := newTestController(t, Options{})
	require.True(t, c.GotoAndStop(2))

	assert.False(t, c.GotoAndPlayMarker("missing-marker"))
	assert.Equal(t, 2, c.CurrentFrame())
	assert.Equal(t, Stopped, c.Running())

	assert.True(t, c.GotoAndPlayMarker("intro"))
	assert.Equal(t, 3, c.CurrentFrame())
	assert.Equal(t, Playing, c.Running())

	assert.True(t, c.GotoAndStopMarker("intro"))
	assert.Equal(t, Stopped, c.Running())
}

func TestSeekOutsideRangeIsRejected(t *testing.T) {
	c, src, _ := newTestController(t, Options{})
	before := src.last()

	assert.False(t, c.GotoAndPlay(11))
	assert.False(t, c.GotoAndStop(-1))
	assert.Equal(t, 0, c.CurrentFrame())
	assert.Equal(t, Stopped, c.Running())
	assert.Equal(t, before, src.last())
}

func TestControlsAreNoOpsBeforeReady(t *testing.T) {
	src := newFakeSource()
	c := NewController(src, Options{AutoPlay: true}, nil)

	c.Play()
	c.Pause()
	c.TogglePause()
	c.Stop()
	c.Step()
	assert.False(t, c.GotoAndPlay(0))
	assert.False(t, c.GotoAndPlayMarker("intro"))

	assert.Equal(t, StatusNull, c.Status())
	assert.Equal(t, Stopped, c.Running())
	assert.Empty(t, src.frames())
}

func TestPauseAndToggle(t *testing.T) {
	c, _, _ := newTestController(t, Options{AutoPlay: true})
	c.Step()
	c.Pause()
	c.Step()
	assert.Equal(t, Paused, c.Running())
	assert.Equal(t, 1, c.CurrentFrame())

	c.TogglePause()
	assert.Equal(t, Playing, c.Running())
	c.Step()
	assert.Equal(t, 2, c.CurrentFrame())

	c.TogglePause()
	assert.Equal(t, Paused, c.Running())
}

func TestToggleAfterFinishRestarts(t *testing.T) {
	c, _, log := newTestController(t, Options{AutoPlay: true})
	stepUntilStopped(c, 1000)
	require.Equal(t, 1, log.count(EventFinished))

	c.TogglePause()
	assert.Equal(t, Playing, c.Running())
	assert.Equal(t, 0, c.CurrentFrame())
}

func TestConcurrentTogglesKeepStateConsistent(t *testing.T) {
	c, _, _ := newTestController(t, Options{AutoPlay: true, Loops: -1})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.TogglePause()
				c.Step()
			}
		}()
	}
	wg.Wait()

	// Every toggle flips the flag, so an even count lands back on Playing.
	assert.Equal(t, Playing, c.Running())
	c.TogglePause()
	assert.Equal(t, Paused, c.Running())
}

func TestStopRewindsUnderNewGeneration(t *testing.T) {
	c, src, _ := newTestController(t, Options{AutoPlay: true})
	c.Step()
	c.Step()
	gen := src.last().Gen

	c.Stop()
	assert.Equal(t, Stopped, c.Running())
	assert.Equal(t, 0, c.CurrentFrame())
	assert.Equal(t, 0, src.last().Frame)
	assert.Greater(t, src.last().Gen, gen)
}

func TestPlayAfterFinishRestarts(t *testing.T) {
	c, src, log := newTestController(t, Options{AutoPlay: true})
	stepUntilStopped(c, 1000)
	require.Equal(t, 1, log.count(EventFinished))

	c.Play()
	assert.Equal(t, Playing, c.Running())
	assert.Equal(t, 0, c.CurrentFrame())
	assert.Equal(t, 0, src.last().Frame)

	stepUntilStopped(c, 1000)
	assert.Equal(t, 2, log.count(EventFinished))
}

func TestFrameRateOverrideAndReset(t *testing.T) {
	c, _, log := newTestController(t, Options{FrameRate: 60})
	assert.Equal(t, 60.0, c.FrameRate())
	assert.Zero(t, log.count(EventFrameRateChanged))

	c.SetFrameRate(-1)
	assert.Equal(t, 60.0, c.FrameRate())

	c.ResetFrameRate()
	assert.Equal(t, 30.0, c.FrameRate())
	assert.Equal(t, 1, log.count(EventFrameRateChanged))

	assert.Equal(t, 10.0, c.Duration(true))
	assert.InDelta(t, 10.0/30, c.Duration(false), 1e-9)
}

func TestSetLoopsNotifies(t *testing.T) {
	c, _, log := newTestController(t, Options{})
	c.SetLoops(3)
	c.SetLoops(3)

	assert.Equal(t, 3, c.Loops())
	assert.Equal(t, 1, log.count(EventLoopsChanged))
}

func TestCollectDropsStaleGenerations(t *testing.T) {
	c, src, log := newTestController(t, Options{})
	old := src.last().Gen
	c.Stop()

	surface := NewFrame(0, old, image.NewRGBA(image.Rect(0, 0, 1, 1)))
	src.results.Put(Result{Frame: 0, Gen: old, Surface: surface})
	c.collect()
	assert.Nil(t, c.Latest())
	assert.Zero(t, log.count(EventFrameReady))

	current := src.last().Gen
	surface = NewFrame(0, current, image.NewRGBA(image.Rect(0, 0, 1, 1)))
	src.results.Put(Result{Frame: 0, Gen: current, Surface: surface})
	c.collect()
	assert.Same(t, surface, c.Latest())
	assert.Equal(t, 1, log.count(EventFrameReady))
}

func TestTransientFailureIsReported(t *testing.T) {
	c, src, log := newTestController(t, Options{})
	src.results.Put(Result{Frame: 0, Gen: src.last().Gen, Err: &EvaluationError{Frame: 0, Err: errors.New("boom")}})
	c.collect()

	assert.Equal(t, StatusReady, c.Status())
	assert.Equal(t, 1, log.count(EventEvaluationFailed))
}

func TestStructuralFailureIsTerminal(t *testing.T) {
	c, src, log := newTestController(t, Options{AutoPlay: true})
	src.results.Put(Result{Frame: 0, Gen: src.last().Gen, Err: &EvaluationError{Frame: 0, Structural: true, Err: errors.New("gone")}})
	c.collect()

	assert.Equal(t, StatusError, c.Status())
	assert.Equal(t, Stopped, c.Running())
	assert.Equal(t, []Status{StatusLoading, StatusReady, StatusError}, log.statuses())

	assert.ErrorIs(t, c.Load(testTree()), ErrTerminal)
	assert.ErrorIs(t, c.Start(), ErrTerminal)
	c.Play()
	assert.Equal(t, Stopped, c.Running())
}

func TestLoadFailureMovesToError(t *testing.T) {
	src := newFakeSource()
	c := NewController(src, Options{}, nil)
	log := new(eventLog)
	c.OnEvent(log.record)

	assert.Error(t, c.Load(obj{"fr": 30}))
	assert.Equal(t, StatusError, c.Status())
	assert.Equal(t, []Status{StatusLoading, StatusError}, log.statuses())
	assert.Empty(t, src.docs)
}

func TestStartWithoutSourceFails(t *testing.T) {
	c := NewController(newFakeSource(), Options{}, nil)
	assert.Error(t, c.Start())
	assert.Equal(t, StatusError, c.Status())
}

func TestStartReloadsSource(t *testing.T) {
	c, src, log := newTestController(t, Options{})
	require.NoError(t, c.Start())

	assert.Len(t, src.docs, 2)
	assert.NotSame(t, src.docs[0], src.docs[1])
	assert.Equal(t, []Status{StatusLoading, StatusReady, StatusLoading, StatusReady}, log.statuses())
}

func TestLoadDocumentUsesClone(t *testing.T) {
	doc := testDocument(t)
	src := newFakeSource()
	c := NewController(src, Options{}, nil)

	require.NoError(t, c.LoadDocument(doc.Clone()))
	assert.Equal(t, StatusReady, c.Status())
	assert.Equal(t, 10, c.EndFrame())
	assert.True(t, c.GotoAndStopMarker("intro"))
}

func TestListenersMayCallBack(t *testing.T) {
	src := newFakeSource()
	c := NewController(src, Options{AutoPlay: true}, nil)

	var order []EventType
	c.OnEvent(func(ev Event) {
		order = append(order, ev.Type)
		if ev.Type == EventFinished {
			// Re-entrant calls must neither deadlock nor reorder delivery.
			c.SetLoops(-1)
			_ = c.Status()
		}
	})
	require.NoError(t, c.Load(testTree()))
	stepUntilStopped(c, 1000)

	require.NotEmpty(t, order)
	assert.Equal(t, EventFinished, order[len(order)-2])
	assert.Equal(t, EventLoopsChanged, order[len(order)-1])
	assert.Equal(t, -1, c.Loops())
}

func TestSetQualityReconfiguresAndRerenders(t *testing.T) {
	c, src, log := newTestController(t, Options{Width: 16, Height: 8})
	before := src.last()

	c.SetQuality(raster.QualityHigh)
	assert.Equal(t, raster.QualityHigh, c.Quality())
	assert.Equal(t, 1, log.count(EventQualityChanged))
	assert.Equal(t, Settings{Width: 16, Height: 8, Quality: raster.QualityHigh}, src.settings[len(src.settings)-1])
	assert.Equal(t, before.Frame, src.last().Frame)
	assert.Greater(t, src.last().Gen, before.Gen)

	// Unchanged quality is a no-op.
	n := len(src.settings)
	c.SetQuality(raster.QualityHigh)
	assert.Equal(t, 1, log.count(EventQualityChanged))
	assert.Len(t, src.settings, n)
}

func TestQualityOptionReachesSource(t *testing.T) {
	_, src, _ := newTestController(t, Options{Quality: raster.QualityLow})

	require.NotEmpty(t, src.settings)
	assert.Equal(t, raster.QualityLow, src.settings[0].Quality)
}

func TestSnapshot(t *testing.T) {
	c, _, _ := newTestController(t, Options{Loops: 2, AutoPlay: true})
	c.Step()

	assert.Equal(t, State{
		Status:       StatusReady,
		Running:      Playing,
		CurrentFrame: 1,
		StartFrame:   0,
		EndFrame:     10,
		FrameRate:    30,
		Direction:    Forward,
		Loops:        2,
	}, c.Snapshot())
}
