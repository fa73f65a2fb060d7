package stream

import (
	"io"

	"github.com/matt-g-everett/lottietx/raster"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config is the YAML configuration of the streamer binary.
type Config struct {
	Source    string  `yaml:"source"`
	Width     int     `yaml:"width"`
	Height    int     `yaml:"height"`
	FrameRate float64 `yaml:"frameRate"`
	Loops     int     `yaml:"loops"`
	Direction string  `yaml:"direction"`
	Quality   string  `yaml:"quality"`
	AutoPlay  *bool   `yaml:"autoPlay"`
	Workers   int     `yaml:"workers"`
	Mqtt      struct {
		URL      string `yaml:"url"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		// Curve is the brightness response applied to streamed pixels.
		Curve  string `yaml:"curve"`
		Topics struct {
			Stream  string `yaml:"stream"`
			Control string `yaml:"control"`
		} `yaml:"topics"`
	} `yaml:"mqtt"`
	HTTP struct {
		Listen string `yaml:"listen"`
	} `yaml:"http"`
}

// ReadConfig decodes a Config from r.
func ReadConfig(r io.Reader) (Config, error) {
	var c Config
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}
	if c.Source == "" {
		return Config{}, errors.New("config: source is required")
	}
	return c, nil
}

// Options converts the playback part of the config.
func (c Config) Options() (Options, error) {
	dir, err := ParseDirection(c.Direction)
	if err != nil {
		return Options{}, errors.Wrap(err, "config")
	}
	quality, err := raster.ParseQuality(c.Quality)
	if err != nil {
		return Options{}, errors.Wrap(err, "config")
	}
	autoPlay := true
	if c.AutoPlay != nil {
		autoPlay = *c.AutoPlay
	}
	return Options{
		FrameRate: c.FrameRate,
		Loops:     c.Loops,
		Direction: dir,
		AutoPlay:  autoPlay,
		Width:     c.Width,
		Height:    c.Height,
		Quality:   quality,
	}, nil
}
