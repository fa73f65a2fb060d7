package stream

import (
	"context"

	"github.com/eclipse/paho.mqtt.golang"
	"github.com/matt-g-everett/lottietx/util"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Publisher sends one payload to topic.
type Publisher func(topic string, payload []byte) error

// Streamer streams rendered frames as binary over MQTT. Frames are
// offered from the control side and published from Run; a frame that is
// not sent before the next one arrives is skipped.
type Streamer struct {
	log     *zap.Logger
	topic   string
	publish Publisher
	frames  *Mailbox[*Frame]
	levels  *[256]byte
}

// NewStreamer creates a Streamer publishing on client.
func NewStreamer(client mqtt.Client, topic string, log *zap.Logger) *Streamer {
	return newStreamer(func(topic string, payload []byte) error {
		token := client.Publish(topic, 0, false, payload)
		token.Wait()
		return token.Error()
	}, topic, log)
}

func newStreamer(publish Publisher, topic string, log *zap.Logger) *Streamer {
	s := new(Streamer)
	s.log = log
	if s.log == nil {
		s.log = zap.NewNop()
	}
	s.topic = topic
	s.publish = publish
	s.frames = NewMailbox[*Frame]()
	return s
}

// SetCurve applies fn to every colour channel before sending. It must be
// called before Run.
func (s *Streamer) SetCurve(fn util.Easing) {
	s.levels = util.Levels(fn)
}

// Offer queues f for sending.
func (s *Streamer) Offer(f *Frame) {
	if f != nil {
		s.frames.Put(f)
	}
}

// Listen is an event listener that offers every completed surface.
func (s *Streamer) Listen(ev Event) {
	if ev.Type == EventFrameReady {
		s.Offer(ev.Surface)
	}
}

// SendFrame sends a frame as binary.
func (s *Streamer) SendFrame(f *Frame) error {
	b, err := f.MarshalBinary()
	if err != nil {
		return err
	}
	if s.levels != nil {
		for i := frameHeader; i < len(b); i++ {
			b[i] = s.levels[b[i]]
		}
	}
	return errors.Wrapf(s.publish(s.topic, b), "publish frame %d", f.Index)
}

// Run causes the Streamer to send offered frames until ctx is done.
func (s *Streamer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.frames.Ready():
		}

		f, ok := s.frames.Take()
		if !ok {
			continue
		}
		if err := s.SendFrame(f); err != nil {
			s.log.Warn("frame not sent", zap.Int("frame", f.Index), zap.Error(err))
		}
	}
}

// Skipped returns how many offered frames were replaced before sending.
func (s *Streamer) Skipped() uint64 {
	return s.frames.Drops()
}
