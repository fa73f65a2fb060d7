package stream

import (
	"context"

	"github.com/google/uuid"
	"github.com/matt-g-everett/lottietx/raster"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Controls is the host-facing control surface of a player.
type Controls interface {
	Play()
	Pause()
	Stop()
	TogglePause()
	GotoAndPlay(frame int) bool
	GotoAndStop(frame int) bool
	GotoAndPlayMarker(name string) bool
	GotoAndStopMarker(name string) bool
	SetFrameRate(fps float64)
	ResetFrameRate()
	SetDirection(d Direction)
	SetLoops(n int)
	SetQuality(q raster.Quality)
	Snapshot() State
	Latest() *Frame
}

// Player is one playback instance: a Controller and the Evaluator it
// schedules frames on.
type Player struct {
	*Controller
	Evaluator *Evaluator
	ID        uuid.UUID
}

// NewPlayer wires a Controller to a new Evaluator.
func NewPlayer(opts Options, log *zap.Logger, evalOpts ...EvaluatorOption) *Player {
	if log == nil {
		log = zap.NewNop()
	}
	p := new(Player)
	p.ID = uuid.New()
	log = log.With(zap.String("player", p.ID.String()))
	p.Evaluator = NewEvaluator(log.Named("evaluator"), evalOpts...)
	p.Controller = NewController(p.Evaluator, opts, log.Named("controller"))
	return p
}

// Run runs the evaluator and the controller until ctx is done or either
// fails.
func (p *Player) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.Evaluator.Run(ctx) })
	g.Go(func() error { return p.Controller.Run(ctx) })
	return g.Wait()
}
