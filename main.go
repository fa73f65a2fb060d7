package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eclipse/paho.mqtt.golang"
	"github.com/matt-g-everett/lottietx/api"
	"github.com/matt-g-everett/lottietx/scene"
	"github.com/matt-g-everett/lottietx/stream"
	"github.com/matt-g-everett/lottietx/util"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type app struct {
	log      *zap.Logger
	config   stream.Config
	client   mqtt.Client
	player   *stream.Player
	streamer *stream.Streamer
	remote   *stream.Remote
	api      *api.Api
}

func newApp(configPath string, log *zap.Logger) (*app, error) {
	a := new(app)
	a.log = log
	if err := a.readConfig(configPath); err != nil {
		return nil, err
	}
	log.Info("config loaded",
		zap.String("source", a.config.Source),
		zap.String("broker", a.config.Mqtt.URL),
		zap.Int("workers", a.config.Workers))

	opts, err := a.config.Options()
	if err != nil {
		return nil, err
	}
	var evalOpts []stream.EvaluatorOption
	if a.config.Workers > 0 {
		evalOpts = append(evalOpts, stream.WithPool(stream.NewPool(a.config.Workers)))
	}
	a.player = stream.NewPlayer(opts, log, evalOpts...)
	a.player.OnEvent(a.handleEvent)

	if a.config.Mqtt.URL != "" {
		options := mqtt.NewClientOptions().
			AddBroker(a.config.Mqtt.URL).
			SetClientID("lottietx-" + a.player.ID.String()[:8]).
			SetUsername(a.config.Mqtt.Username).
			SetPassword(a.config.Mqtt.Password).
			SetKeepAlive(30 * time.Second).
			SetPingTimeout(5 * time.Second).
			SetOnConnectHandler(a.handleOnConnect)
		a.client = mqtt.NewClient(options)
		a.streamer = stream.NewStreamer(a.client, a.config.Mqtt.Topics.Stream, log.Named("streamer"))
		curve, err := util.Curve(a.config.Mqtt.Curve)
		if err != nil {
			return nil, errors.Wrap(err, "config")
		}
		a.streamer.SetCurve(curve)
		a.player.OnEvent(a.streamer.Listen)
		if a.config.Mqtt.Topics.Control != "" {
			a.remote = stream.NewRemote(a.client, a.config.Mqtt.Topics.Control, a.player, log.Named("remote"))
		}
	}
	if a.config.HTTP.Listen != "" {
		a.api = api.NewApi(a.config.HTTP.Listen, a.player, log.Named("api"))
	}
	return a, nil
}

func (a *app) readConfig(configPath string) error {
	f, err := os.Open(configPath)
	if err != nil {
		return errors.Wrap(err, "open config")
	}
	defer f.Close()

	a.config, err = stream.ReadConfig(f)
	return err
}

func (a *app) handleOnConnect(client mqtt.Client) {
	a.log.Info("connected", zap.String("broker", a.config.Mqtt.URL))
	if a.remote == nil {
		return
	}
	if err := a.remote.Subscribe(); err != nil {
		a.log.Error("control subscription failed", zap.Error(err))
	}
}

func (a *app) handleEvent(ev stream.Event) {
	switch ev.Type {
	case stream.EventDiagnostic:
		a.log.Warn("document diagnostic", zap.Stringer("diagnostic", ev.Diagnostic))
	case stream.EventEvaluationFailed:
		a.log.Warn("frame failed", zap.Int("frame", ev.Frame), zap.Error(ev.Err))
	case stream.EventFinished:
		a.log.Info("playback finished", zap.Int("frame", ev.Frame))
	}
}

func (a *app) load() error {
	data, err := os.ReadFile(a.config.Source)
	if err != nil {
		return errors.Wrap(err, "read source")
	}
	tree, err := scene.Decode(data)
	if err != nil {
		return errors.Wrapf(err, "decode %s", a.config.Source)
	}
	return a.player.Load(tree)
}

func (a *app) run(ctx context.Context) error {
	if a.client != nil {
		if token := a.client.Connect(); token.Wait() && token.Error() != nil {
			return errors.Wrap(token.Error(), "connect")
		}
		defer a.client.Disconnect(250)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.player.Run(ctx) })
	if a.streamer != nil {
		g.Go(func() error { return a.streamer.Run(ctx) })
	}
	if a.api != nil {
		g.Go(func() error { return a.api.Serve(ctx) })
	}
	if err := a.load(); err != nil {
		cancel()
		g.Wait()
		return err
	}
	return g.Wait()
}

func newLogger(verbose bool) *zap.Logger {
	var log *zap.Logger
	var err error
	if verbose {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return log
}

func main() {
	// Parse command line parameters
	configPath := flag.String("config", "config.yaml", "YAML config file.")
	verbose := flag.Bool("v", false, "Verbose logging.")
	flag.Parse()

	log := newLogger(*verbose)
	defer log.Sync()
	mqtt.ERROR = zap.NewStdLog(log.Named("mqtt"))

	a, err := newApp(*configPath, log)
	if err != nil {
		log.Fatal("startup failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := a.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("stopped", zap.Error(err))
	}
}
