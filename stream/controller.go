package stream

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/matt-g-everett/lottietx/raster"
	"github.com/matt-g-everett/lottietx/scene"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrTerminal is returned by Load and Start once the controller has
// reached StatusError.
var ErrTerminal = errors.New("controller is in the error state")

// Status is the load state of a Controller.
type Status int

const (
	StatusNull Status = iota
	StatusLoading
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusNull:
		return "null"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Running governs whether the frame timer advances playback.
type Running int

const (
	Stopped Running = iota
	Playing
	Paused
)

func (r Running) String() string {
	switch r {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	}
	return "stopped"
}

// MarshalText implements encoding.TextMarshaler.
func (r Running) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// Direction is the frame step applied on each tick.
type Direction int

const (
	Forward Direction = 1
	Reverse Direction = -1
)

func (d Direction) String() string {
	if d == Reverse {
		return "reverse"
	}
	return "forward"
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// ParseDirection reads "forward" or "reverse". An empty string is Forward.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "", "forward":
		return Forward, nil
	case "reverse":
		return Reverse, nil
	}
	return Forward, errors.Errorf("unknown direction %q", s)
}

// Options are the initial playback settings of a Controller.
type Options struct {
	// FrameRate overrides the document rate when positive.
	FrameRate float64
	// Loops is the number of passes; negative loops forever, zero is one.
	Loops     int
	Direction Direction
	AutoPlay  bool
	Width     int
	Height    int
	Quality   raster.Quality
}

// Source is the evaluation side a Controller schedules frames on.
// *Evaluator implements it.
type Source interface {
	Load(doc *scene.Document)
	Configure(s Settings)
	Request(frame int, gen uint64)
	Cancel() uint64
	Results() *Mailbox[Result]
}

// State is a snapshot of the controller's published state.
type State struct {
	Status       Status         `json:"status"`
	Running      Running        `json:"running"`
	CurrentFrame int            `json:"currentFrame"`
	StartFrame   int            `json:"startFrame"`
	EndFrame     int            `json:"endFrame"`
	FrameRate    float64        `json:"frameRate"`
	Direction    Direction      `json:"direction"`
	Loops        int            `json:"loops"`
	Quality      raster.Quality `json:"quality"`
}

// Controller is the playback state machine and frame scheduler. Every
// method is safe to call from any goroutine, including from a listener.
type Controller struct {
	log *zap.Logger
	src Source

	mu        sync.Mutex
	status    Status
	running   Running
	tree      map[string]interface{}
	markers   map[string]int
	start     int
	end       int
	current   int
	next      int
	docRate   float64
	frameRate float64
	direction Direction
	loops     int
	passes    int
	finished  bool
	autoPlay  bool
	settings  Settings
	gen       uint64
	latest    *Frame

	events      []Event
	listeners   []func(Event)
	dispatching bool
	rate        chan struct{}
}

// NewController creates a Controller in StatusNull driving src.
func NewController(src Source, opts Options, log *zap.Logger) *Controller {
	c := new(Controller)
	c.log = log
	if c.log == nil {
		c.log = zap.NewNop()
	}
	c.src = src
	c.frameRate = opts.FrameRate
	c.loops = opts.Loops
	c.direction = opts.Direction
	if c.direction != Reverse {
		c.direction = Forward
	}
	c.autoPlay = opts.AutoPlay
	c.settings = Settings{Width: opts.Width, Height: opts.Height, Quality: opts.Quality}
	c.markers = map[string]int{}
	c.rate = make(chan struct{}, 1)
	return c
}

// OnEvent registers fn for every notification. Listeners run on the
// goroutine that caused the event, after the controller lock is released.
func (c *Controller) OnEvent(fn func(Event)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Load builds a document from tree and hands it to the evaluator. The
// tree is kept so Start can reload it.
func (c *Controller) Load(tree map[string]interface{}) error {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == StatusError {
		return ErrTerminal
	}
	c.tree = tree
	return c.load()
}

// LoadDocument hands an already built document to the evaluator. Start
// cannot reload it, so cloned documents should be passed here.
func (c *Controller) LoadDocument(doc *scene.Document) error {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == StatusError {
		return ErrTerminal
	}
	c.setStatus(StatusLoading)
	c.install(doc)
	return nil
}

// Start reloads the last source passed to Load.
func (c *Controller) Start() error {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == StatusError {
		return ErrTerminal
	}
	return c.load()
}

func (c *Controller) load() error {
	c.setStatus(StatusLoading)
	if c.tree == nil {
		c.fail()
		return errors.Wrap(scene.ErrParseStructure, "no source loaded")
	}
	doc, err := scene.Load(c.tree, scene.WithLogger(c.log))
	if err != nil {
		c.fail()
		return err
	}
	for _, d := range doc.Diagnostics() {
		c.emit(Event{Type: EventDiagnostic, Diagnostic: d})
	}
	c.install(doc)
	return nil
}

func (c *Controller) install(doc *scene.Document) {
	c.gen = c.src.Cancel()
	c.src.Configure(c.settings)
	c.src.Load(doc)

	c.markers = doc.Markers()
	if start := doc.StartFrame(); start != c.start {
		c.start = start
		c.emit(Event{Type: EventStartFrameChanged, Frame: start})
	}
	if end := doc.EndFrame(); end != c.end {
		c.end = end
		c.emit(Event{Type: EventEndFrameChanged, Frame: end})
	}
	c.docRate = doc.FrameRate()
	if c.frameRate <= 0 {
		c.changeFrameRate(c.docRate)
	}

	c.passes, c.finished = 0, false
	c.setStatus(StatusReady)
	c.show(c.first())
	if c.autoPlay {
		c.running = Playing
	} else {
		c.running = Stopped
	}
}

func (c *Controller) fail() {
	c.running = Stopped
	c.gen = c.src.Cancel()
	c.setStatus(StatusError)
}

func (c *Controller) setStatus(s Status) {
	if c.status == s {
		return
	}
	c.log.Info("status changed", zap.Stringer("from", c.status), zap.Stringer("to", s))
	c.status = s
	c.emit(Event{Type: EventStatusChanged, Status: s})
}

func (c *Controller) emit(ev Event) {
	c.events = append(c.events, ev)
}

// flush delivers queued events outside the lock. A listener that causes
// further events has them delivered by the outermost flush, in order.
func (c *Controller) flush() {
	c.mu.Lock()
	if c.dispatching {
		c.mu.Unlock()
		return
	}
	c.dispatching = true
	for len(c.events) > 0 {
		events := c.events
		c.events = nil
		listeners := c.listeners
		c.mu.Unlock()
		for _, ev := range events {
			for _, fn := range listeners {
				fn(ev)
			}
		}
		c.mu.Lock()
	}
	c.dispatching = false
	c.mu.Unlock()
}

func (c *Controller) first() int {
	if c.direction == Reverse {
		return c.end
	}
	return c.start
}

// show makes n the current frame and requests it.
func (c *Controller) show(n int) {
	c.current = n
	c.next = n + int(c.direction)
	c.src.Request(n, c.gen)
}

// seek restarts the loop budget under a new generation.
func (c *Controller) seek(n int) {
	c.gen = c.src.Cancel()
	c.passes, c.finished = 0, false
	c.show(n)
}

func (c *Controller) ready() bool {
	return c.status == StatusReady
}

// Step advances playback by one tick. Run calls it on the frame timer.
func (c *Controller) Step() {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ready() || c.running != Playing {
		return
	}

	n := c.next
	if n < c.start || n > c.end {
		if c.loops >= 0 {
			c.passes++
			budget := c.loops
			if budget < 1 {
				budget = 1
			}
			if c.passes >= budget {
				c.running = Stopped
				c.finished = true
				c.emit(Event{Type: EventFinished, Frame: c.current})
				return
			}
		}
		n = c.first()
	}
	c.show(n)
}

// Play starts or resumes playback. After the loop budget finished it
// restarts from the first frame.
func (c *Controller) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.play()
}

// Pause holds the current frame.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pause()
}

// play and pause expect c.mu to be held.
func (c *Controller) play() {
	if !c.ready() {
		return
	}
	if c.finished {
		c.seek(c.first())
	}
	c.running = Playing
}

func (c *Controller) pause() {
	if c.ready() && c.running == Playing {
		c.running = Paused
	}
}

// Stop halts playback and rewinds to the first frame.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ready() {
		return
	}
	c.running = Stopped
	c.seek(c.first())
}

// TogglePause pauses while playing and plays otherwise.
func (c *Controller) TogglePause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running == Playing {
		c.pause()
	} else {
		c.play()
	}
}

// GotoAndPlay seeks to frame and plays. A frame outside the document
// range is rejected and leaves the state unchanged.
func (c *Controller) GotoAndPlay(frame int) bool {
	return c.gotoFrame(frame, Playing)
}

// GotoAndStop seeks to frame and stops there.
func (c *Controller) GotoAndStop(frame int) bool {
	return c.gotoFrame(frame, Stopped)
}

// GotoAndPlayMarker seeks to the frame of the named marker and plays.
func (c *Controller) GotoAndPlayMarker(name string) bool {
	return c.gotoMarker(name, Playing)
}

// GotoAndStopMarker seeks to the frame of the named marker and stops.
func (c *Controller) GotoAndStopMarker(name string) bool {
	return c.gotoMarker(name, Stopped)
}

func (c *Controller) gotoMarker(name string, r Running) bool {
	c.mu.Lock()
	frame, ok := c.markers[name]
	c.mu.Unlock()
	if !ok {
		c.log.Debug("seek rejected", zap.String("marker", name))
		return false
	}
	return c.gotoFrame(frame, r)
}

func (c *Controller) gotoFrame(frame int, r Running) bool {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ready() || frame < c.start || frame > c.end {
		c.log.Debug("seek rejected", zap.Int("frame", frame))
		return false
	}
	c.seek(frame)
	c.running = r
	return true
}

// SetFrameRate overrides the document frame rate. Non-positive rates are
// ignored.
func (c *Controller) SetFrameRate(fps float64) {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	if fps > 0 {
		c.changeFrameRate(fps)
	}
}

// ResetFrameRate returns to the rate declared by the document.
func (c *Controller) ResetFrameRate() {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.docRate > 0 {
		c.changeFrameRate(c.docRate)
	}
}

func (c *Controller) changeFrameRate(fps float64) {
	if fps == c.frameRate {
		return
	}
	c.frameRate = fps
	c.emit(Event{Type: EventFrameRateChanged, FrameRate: fps})
	select {
	case c.rate <- struct{}{}:
	default:
	}
}

// SetDirection changes the step direction. Stepping resumes from the
// current frame.
func (c *Controller) SetDirection(d Direction) {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	if d != Reverse {
		d = Forward
	}
	if d == c.direction {
		return
	}
	c.direction = d
	c.next = c.current + int(d)
	c.emit(Event{Type: EventDirectionChanged, Direction: d})
}

// SetLoops changes the loop budget. Passes already completed still count.
func (c *Controller) SetLoops(n int) {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	if n == c.loops {
		return
	}
	c.loops = n
	c.emit(Event{Type: EventLoopsChanged, Loops: n})
}

// SetQuality changes the render quality. A loaded document re-renders the
// current frame at the new quality.
func (c *Controller) SetQuality(q raster.Quality) {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	if q == c.settings.Quality {
		return
	}
	c.settings.Quality = q
	c.log.Info("quality changed", zap.Stringer("quality", q))
	c.emit(Event{Type: EventQualityChanged, Quality: q})
	c.src.Configure(c.settings)
	if c.ready() {
		c.gen = c.src.Cancel()
		c.src.Request(c.current, c.gen)
	}
}

// Status returns the load state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Running returns the running flag.
func (c *Controller) Running() Running {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Controller) CurrentFrame() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Controller) StartFrame() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start
}

func (c *Controller) EndFrame() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.end
}

func (c *Controller) FrameRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frameRate
}

func (c *Controller) Direction() Direction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.direction
}

func (c *Controller) Loops() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loops
}

func (c *Controller) Quality() raster.Quality {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings.Quality
}

// Latest returns the most recently collected surface, or nil.
func (c *Controller) Latest() *Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

// Duration returns the length of the document in seconds, or in frames
// when inFrames is set.
func (c *Controller) Duration(inFrames bool) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	frames := float64(c.end - c.start)
	if inFrames {
		return frames
	}
	if c.frameRate <= 0 {
		return 0
	}
	return frames / c.frameRate
}

// Snapshot returns the published state in one consistent read.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Status:       c.status,
		Running:      c.running,
		CurrentFrame: c.current,
		StartFrame:   c.start,
		EndFrame:     c.end,
		FrameRate:    c.frameRate,
		Direction:    c.direction,
		Loops:        c.loops,
		Quality:      c.settings.Quality,
	}
}

// Run drives the frame timer and collects results until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval())
	defer ticker.Stop()

	results := c.src.Results()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.Step()
		case <-c.rate:
			ticker.Reset(c.interval())
		case <-results.Ready():
			c.collect()
		}
	}
}

func (c *Controller) interval() time.Duration {
	fps := c.FrameRate()
	if fps <= 0 {
		fps = 30
	}
	return time.Duration(float64(time.Second) / fps)
}

// collect takes the latest result. Results from an older generation are
// dropped; a structural failure is terminal.
func (c *Controller) collect() {
	res, ok := c.src.Results().Take()
	if !ok {
		return
	}

	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	if res.Gen != c.gen || c.status != StatusReady {
		c.log.Debug("stale result dropped", zap.Int("frame", res.Frame), zap.Uint64("generation", res.Gen))
		return
	}
	if res.Err != nil {
		var ee *EvaluationError
		if errors.As(res.Err, &ee) && ee.Structural {
			c.log.Error("structural evaluation failure", zap.Int("frame", res.Frame), zap.Error(res.Err))
			c.fail()
			return
		}
		c.emit(Event{Type: EventEvaluationFailed, Frame: res.Frame, Err: res.Err})
		return
	}
	c.latest = res.Surface
	c.emit(Event{Type: EventFrameReady, Frame: res.Frame, Surface: res.Surface})
}
