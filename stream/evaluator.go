package stream

import (
	"context"
	"fmt"
	"image"
	"math"
	"sync"
	"sync/atomic"

	"github.com/matt-g-everett/lottietx/raster"
	"github.com/matt-g-everett/lottietx/scene"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Settings configure the surface an evaluator renders onto. A zero width
// or height takes the document's own size.
type Settings struct {
	Width   int
	Height  int
	Quality raster.Quality
}

// MaxSurface bounds each side of a surface taken from a document's own size.
const MaxSurface = 2048

// Request asks for frame to be evaluated under generation Gen.
type Request struct {
	Frame int
	Gen   uint64
}

// Result is the outcome of one pass. Exactly one of Surface and Err is set.
type Result struct {
	Frame   int
	Gen     uint64
	Surface *Frame
	Err     error
}

// EvaluationError reports a failed pass. A structural failure means the
// document can no longer be evaluated at all.
type EvaluationError struct {
	Frame      int
	Structural bool
	Err        error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluate frame %d: %v", e.Frame, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// Canvas is a Renderer that owns a reusable surface.
type Canvas interface {
	scene.Renderer
	Clear()
	Image() *image.RGBA
}

// CanvasFactory creates the canvas for a newly loaded or resized document.
type CanvasFactory func(doc *scene.Document, s Settings) Canvas

// RasterCanvas is the default CanvasFactory.
func RasterCanvas(doc *scene.Document, s Settings) Canvas {
	w, h := surfaceSize(doc.Width(), doc.Height(), s)
	return raster.New(w, h, raster.Fit(doc.Width(), doc.Height(), w, h), s.Quality)
}

// surfaceSize picks the output size for a document of docW by docH. Sizes
// from the document are scaled down to fit MaxSurface on both sides.
func surfaceSize(docW, docH float64, s Settings) (int, int) {
	if s.Width > 0 && s.Height > 0 {
		return min(s.Width, MaxSurface), min(s.Height, MaxSurface)
	}
	if docW < 1 || docH < 1 {
		return 1, 1
	}
	if k := MaxSurface / math.Max(docW, docH); k < 1 {
		docW, docH = docW*k, docH*k
	}
	return max(int(docW), 1), max(int(docH), 1)
}

// Stats counts what an Evaluator has done since it was created.
type Stats struct {
	Passes       uint64 `json:"passes"`
	Discarded    uint64 `json:"discarded"`
	Failures     uint64 `json:"failures"`
	RequestDrops uint64 `json:"requestDrops"`
	ResultDrops  uint64 `json:"resultDrops"`
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithCanvas replaces the raster canvas.
func WithCanvas(f CanvasFactory) EvaluatorOption {
	return func(e *Evaluator) { e.newCanvas = f }
}

// WithPool makes every pass hold a slot of p.
func WithPool(p *Pool) EvaluatorOption {
	return func(e *Evaluator) { e.pool = p }
}

type command struct {
	doc      *scene.Document
	settings *Settings
}

// Evaluator is the worker that owns a document while it is evaluated. The
// control side talks to it only through queued commands, the request
// mailbox and the generation token; results come back on a mailbox.
type Evaluator struct {
	log       *zap.Logger
	newCanvas CanvasFactory
	pool      *Pool

	mu   sync.Mutex
	cmds []command
	wake chan struct{}

	requests *Mailbox[Request]
	results  *Mailbox[Result]
	gen      atomic.Uint64

	passes    atomic.Uint64
	discarded atomic.Uint64
	failures  atomic.Uint64

	// Owned by the Run goroutine.
	doc      *scene.Document
	canvas   Canvas
	settings Settings
	lastGood int
	hasGood  bool
}

// NewEvaluator creates an idle Evaluator. Nothing is evaluated until Run
// is called.
func NewEvaluator(log *zap.Logger, opts ...EvaluatorOption) *Evaluator {
	e := new(Evaluator)
	e.log = log
	if e.log == nil {
		e.log = zap.NewNop()
	}
	e.newCanvas = RasterCanvas
	e.wake = make(chan struct{}, 1)
	e.requests = NewMailbox[Request]()
	e.results = NewMailbox[Result]()
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load queues doc to replace the current document between passes. The
// evaluator takes ownership of doc and releases the one it replaces.
func (e *Evaluator) Load(doc *scene.Document) {
	e.enqueue(command{doc: doc})
}

// Configure queues new surface settings.
func (e *Evaluator) Configure(s Settings) {
	e.enqueue(command{settings: &s})
}

func (e *Evaluator) enqueue(c command) {
	e.mu.Lock()
	e.cmds = append(e.cmds, c)
	e.mu.Unlock()
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Request asks for a frame under generation gen, replacing any request the
// worker has not started yet.
func (e *Evaluator) Request(frame int, gen uint64) {
	e.requests.Put(Request{Frame: frame, Gen: gen})
}

// Cancel advances the generation token and returns the new value. Any
// pass that started under an older generation is discarded on completion.
func (e *Evaluator) Cancel() uint64 {
	return e.gen.Add(1)
}

// Generation returns the current generation token.
func (e *Evaluator) Generation() uint64 {
	return e.gen.Load()
}

// Results is the mailbox completed passes are published to.
func (e *Evaluator) Results() *Mailbox[Result] {
	return e.results
}

// Stats returns a snapshot of the evaluator's counters.
func (e *Evaluator) Stats() Stats {
	return Stats{
		Passes:       e.passes.Load(),
		Discarded:    e.discarded.Load(),
		Failures:     e.failures.Load(),
		RequestDrops: e.requests.Drops(),
		ResultDrops:  e.results.Drops(),
	}
}

// Run evaluates requests until ctx is done. The document is released when
// Run returns.
func (e *Evaluator) Run(ctx context.Context) error {
	defer e.release()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.wake:
		case <-e.requests.Ready():
		}

		e.drain()
		req, ok := e.requests.Take()
		if !ok {
			continue
		}
		if err := e.acquire(ctx); err != nil {
			return err
		}
		e.pass(req)
		e.releaseSlot()
	}
}

func (e *Evaluator) acquire(ctx context.Context) error {
	if e.pool == nil {
		return nil
	}
	return e.pool.Acquire(ctx)
}

func (e *Evaluator) releaseSlot() {
	if e.pool != nil {
		e.pool.Release()
	}
}

// drain applies queued commands in order.
func (e *Evaluator) drain() {
	e.mu.Lock()
	cmds := e.cmds
	e.cmds = nil
	e.mu.Unlock()

	for _, c := range cmds {
		switch {
		case c.doc != nil:
			e.release()
			e.doc = c.doc
			e.hasGood = false
			e.canvas = e.newCanvas(e.doc, e.settings)
			e.log.Info("document loaded",
				zap.Int("nodes", e.doc.Len()),
				zap.Int("startFrame", e.doc.StartFrame()),
				zap.Int("endFrame", e.doc.EndFrame()))
		case c.settings != nil:
			e.settings = *c.settings
			if e.doc != nil {
				e.canvas = e.newCanvas(e.doc, e.settings)
			}
		}
	}
}

func (e *Evaluator) release() {
	if e.doc != nil {
		e.doc.Release()
		e.doc = nil
		e.canvas = nil
	}
}

// pass walks the tree once for req.Frame and publishes the surface. The
// generation is checked once, after the pass, so a partly evaluated tree
// is never published.
func (e *Evaluator) pass(req Request) {
	if e.doc == nil {
		return
	}
	if req.Gen != e.gen.Load() {
		e.discarded.Add(1)
		return
	}

	e.passes.Add(1)
	surface, err := e.evaluate(req)
	if err != nil {
		e.failures.Add(1)
		e.restore()
		e.log.Warn("evaluation failed", zap.Int("frame", req.Frame), zap.Error(err))
		e.results.Put(Result{Frame: req.Frame, Gen: req.Gen, Err: err})
		return
	}

	if req.Gen != e.gen.Load() {
		e.discarded.Add(1)
		e.log.Debug("stale pass discarded",
			zap.Int("frame", req.Frame),
			zap.Uint64("generation", req.Gen))
		return
	}
	e.lastGood, e.hasGood = req.Frame, true
	e.results.Put(Result{Frame: req.Frame, Gen: req.Gen, Surface: surface})
}

func (e *Evaluator) evaluate(req Request) (f *Frame, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &EvaluationError{Frame: req.Frame, Err: errors.Errorf("panic: %v", r)}
		}
	}()

	if err := e.doc.Update(req.Frame); err != nil {
		return nil, &EvaluationError{Frame: req.Frame, Structural: errors.Is(err, scene.ErrReleased), Err: err}
	}
	e.canvas.Clear()
	if err := e.doc.Render(e.canvas); err != nil {
		return nil, &EvaluationError{Frame: req.Frame, Structural: errors.Is(err, scene.ErrReleased), Err: err}
	}
	return NewFrame(req.Frame, req.Gen, e.canvas.Image()), nil
}

// restore re-evaluates the last published frame, so the cached tree state
// matches the surface the consumer already has.
func (e *Evaluator) restore() {
	if !e.hasGood {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.hasGood = false
		}
	}()
	if err := e.doc.Update(e.lastGood); err != nil {
		e.hasGood = false
	}
}
