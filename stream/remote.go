package stream

import (
	"github.com/eclipse/paho.mqtt.golang"
	"github.com/matt-g-everett/lottietx/raster"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"
)

// ControlMessage is a playback command received over MQTT.
type ControlMessage struct {
	Type      string   `json:"type"`
	Frame     *int     `json:"frame,omitempty"`
	Marker    string   `json:"marker,omitempty"`
	Play      bool     `json:"play,omitempty"`
	Direction string   `json:"direction,omitempty"`
	Loops     *int     `json:"loops,omitempty"`
	FrameRate *float64 `json:"frameRate,omitempty"`
	Quality   string   `json:"quality,omitempty"`
}

// ErrRejected is returned for a well-formed command that had no effect,
// such as a seek outside the document.
var ErrRejected = errors.New("command rejected")

// Remote applies control messages to a player.
type Remote struct {
	log      *zap.Logger
	client   mqtt.Client
	topic    string
	controls Controls
}

// NewRemote creates a Remote listening on topic.
func NewRemote(client mqtt.Client, topic string, controls Controls, log *zap.Logger) *Remote {
	r := new(Remote)
	r.log = log
	if r.log == nil {
		r.log = zap.NewNop()
	}
	r.client = client
	r.topic = topic
	r.controls = controls
	return r
}

// Handle decodes and applies one message.
func (r *Remote) Handle(payload []byte) error {
	var msg ControlMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return errors.Wrap(err, "decode control message")
	}
	return r.Apply(msg)
}

// Apply applies msg.
func (r *Remote) Apply(msg ControlMessage) error {
	c := r.controls
	switch msg.Type {
	case "play":
		c.Play()
	case "pause":
		c.Pause()
	case "stop":
		c.Stop()
	case "toggle":
		c.TogglePause()
	case "goto":
		var ok bool
		switch {
		case msg.Marker != "" && msg.Play:
			ok = c.GotoAndPlayMarker(msg.Marker)
		case msg.Marker != "":
			ok = c.GotoAndStopMarker(msg.Marker)
		case msg.Frame != nil && msg.Play:
			ok = c.GotoAndPlay(*msg.Frame)
		case msg.Frame != nil:
			ok = c.GotoAndStop(*msg.Frame)
		default:
			return errors.New("goto needs a frame or a marker")
		}
		if !ok {
			return ErrRejected
		}
	case "direction":
		d, err := ParseDirection(msg.Direction)
		if err != nil {
			return err
		}
		c.SetDirection(d)
	case "loops":
		if msg.Loops == nil {
			return errors.New("loops needs a count")
		}
		c.SetLoops(*msg.Loops)
	case "frameRate":
		if msg.FrameRate == nil || *msg.FrameRate <= 0 {
			c.ResetFrameRate()
		} else {
			c.SetFrameRate(*msg.FrameRate)
		}
	case "quality":
		q, err := raster.ParseQuality(msg.Quality)
		if err != nil {
			return err
		}
		c.SetQuality(q)
	default:
		return errors.Errorf("unknown control message type %q", msg.Type)
	}
	return nil
}

func (r *Remote) handleMessage(client mqtt.Client, msg mqtt.Message) {
	r.log.Debug("control message", zap.String("topic", msg.Topic()), zap.ByteString("payload", msg.Payload()))
	if err := r.Handle(msg.Payload()); err != nil {
		r.log.Warn("control message ignored", zap.Error(err))
	}
}

// Subscribe registers for control messages. It is called again on every
// reconnect.
func (r *Remote) Subscribe() error {
	token := r.client.Subscribe(r.topic, 0, r.handleMessage)
	token.Wait()
	return errors.Wrapf(token.Error(), "subscribe %s", r.topic)
}
