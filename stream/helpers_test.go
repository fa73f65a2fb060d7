package stream

import (
	"image"
	"sync"
	"testing"

	"github.com/matt-g-everett/lottietx/scene"
	"github.com/stretchr/testify/require"
)

type obj = map[string]interface{}
type arr = []interface{}

// fakeSource records what a Controller schedules without evaluating.
type fakeSource struct {
	mu       sync.Mutex
	gen      uint64
	requests []Request
	docs     []*scene.Document
	settings []Settings
	results  *Mailbox[Result]
}

func newFakeSource() *fakeSource {
	return &fakeSource{results: NewMailbox[Result]()}
}

func (f *fakeSource) Load(doc *scene.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append(f.docs, doc)
}

func (f *fakeSource) Configure(s Settings) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings = append(f.settings, s)
}

func (f *fakeSource) Request(frame int, gen uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, Request{Frame: frame, Gen: gen})
}

func (f *fakeSource) Cancel() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	return f.gen
}

func (f *fakeSource) Results() *Mailbox[Result] { return f.results }

func (f *fakeSource) frames() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.requests))
	for i, r := range f.requests {
		out[i] = r.Frame
	}
	return out
}

func (f *fakeSource) last() Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

// testTree is a document with frames 0..10 and an "intro" marker at 3.
func testTree() obj {
	return obj{
		"fr": 30, "ip": 0, "op": 10, "w": 8, "h": 8,
		"markers": arr{obj{"cm": "intro", "tm": 3}},
		"layers": arr{
			obj{
				"ty": 4, "nm": "box", "ind": 1, "ip": 0, "op": 10, "ks": obj{},
				"shapes": arr{
					obj{"ty": "rc", "nm": "r", "p": obj{"a": 0, "k": arr{4, 4}}, "s": obj{"a": 0, "k": arr{4, 4}}},
					obj{"ty": "fl", "nm": "f", "c": obj{"a": 0, "k": arr{0, 0, 1, 1}}, "o": obj{"a": 0, "k": 100}},
				},
			},
		},
	}
}

func testDocument(t *testing.T) *scene.Document {
	t.Helper()
	doc, err := scene.Load(testTree())
	require.NoError(t, err)
	return doc
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) record(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) count(typ EventType) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, ev := range l.events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func (l *eventLog) statuses() []Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Status
	for _, ev := range l.events {
		if ev.Type == EventStatusChanged {
			out = append(out, ev.Status)
		}
	}
	return out
}

func newTestController(t *testing.T, opts Options) (*Controller, *fakeSource, *eventLog) {
	t.Helper()
	src := newFakeSource()
	c := NewController(src, opts, nil)
	log := new(eventLog)
	c.OnEvent(log.record)
	require.NoError(t, c.Load(testTree()))
	return c, src, log
}

func seq(from, to int) []int {
	var out []int
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

// stubCanvas is a Canvas whose hooks tests can control.
type stubCanvas struct {
	img     *image.RGBA
	onClear func()
	err     error
	renders int
}

func newStubCanvas() *stubCanvas {
	return &stubCanvas{img: image.NewRGBA(image.Rect(0, 0, 2, 2))}
}

func (s *stubCanvas) SaveState()    {}
func (s *stubCanvas) RestoreState() {}

func (s *stubCanvas) Render(scene.Ref) error {
	s.renders++
	return s.err
}

func (s *stubCanvas) Clear() {
	if s.onClear != nil {
		s.onClear()
	}
}

func (s *stubCanvas) Image() *image.RGBA { return s.img }
