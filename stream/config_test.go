package stream

import (
	"strings"
	"testing"

	"github.com/matt-g-everett/lottietx/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
source: anim/spinner.json
width: 20
height: 25
loops: -1
direction: reverse
quality: high
workers: 2
mqtt:
  url: tcp://broker:1883
  username: tree
  password: secret
  curve: cubic
  topics:
    stream: home/xmastree/stream
    control: home/xmastree/control
http:
  listen: ":3000"
`

func TestReadConfig(t *testing.T) {
	c, err := ReadConfig(strings.NewReader(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "anim/spinner.json", c.Source)
	assert.Equal(t, 2, c.Workers)
	assert.Equal(t, "tcp://broker:1883", c.Mqtt.URL)
	assert.Equal(t, "home/xmastree/control", c.Mqtt.Topics.Control)
	assert.Equal(t, ":3000", c.HTTP.Listen)
	assert.Equal(t, "cubic", c.Mqtt.Curve)

	opts, err := c.Options()
	require.NoError(t, err)
	assert.Equal(t, Options{Loops: -1, Direction: Reverse, AutoPlay: true, Width: 20, Height: 25, Quality: raster.QualityHigh}, opts)
}

func TestConfigAutoPlayCanBeDisabled(t *testing.T) {
	c, err := ReadConfig(strings.NewReader("source: a.json\nautoPlay: false\n"))
	require.NoError(t, err)

	opts, err := c.Options()
	require.NoError(t, err)
	assert.False(t, opts.AutoPlay)
	assert.Equal(t, Forward, opts.Direction)
}

func TestConfigRejectsBadInput(t *testing.T) {
	_, err := ReadConfig(strings.NewReader("width: 10\n"))
	assert.Error(t, err)

	_, err = ReadConfig(strings.NewReader("source: [unterminated"))
	assert.Error(t, err)

	c := Config{Source: "a.json", Direction: "sideways"}
	_, err = c.Options()
	assert.Error(t, err)

	c = Config{Source: "a.json", Quality: "ultra"}
	_, err = c.Options()
	assert.Error(t, err)
}
