// Package api serves the player's control surface and latest frame over
// HTTP.
package api

import (
	"context"
	"image/png"
	"net/http"
	"strconv"
	"time"

	"github.com/matt-g-everett/lottietx/raster"
	"github.com/matt-g-everett/lottietx/stream"
	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"
)

type Api struct {
	log      *zap.Logger
	addr     string
	controls stream.Controls
}

func NewApi(addr string, controls stream.Controls, log *zap.Logger) *Api {
	a := new(Api)
	a.log = log
	if a.log == nil {
		a.log = zap.NewNop()
	}
	a.addr = addr
	a.controls = controls
	return a
}

// Handler returns the routes of the API.
func (a *Api) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /frame.png", a.frame)
	mux.HandleFunc("GET /status", a.status)
	mux.HandleFunc("POST /play", a.command(a.controls.Play))
	mux.HandleFunc("POST /pause", a.command(a.controls.Pause))
	mux.HandleFunc("POST /stop", a.command(a.controls.Stop))
	mux.HandleFunc("POST /toggle", a.command(a.controls.TogglePause))
	mux.HandleFunc("POST /goto", a.gotoFrame)
	mux.HandleFunc("POST /quality", a.quality)
	return mux
}

// Serve listens until ctx is done.
func (a *Api) Serve(ctx context.Context) error {
	srv := &http.Server{Addr: a.addr, Handler: a.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	a.log.Info("listening", zap.String("addr", a.addr))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return ctx.Err()
}

func (a *Api) frame(w http.ResponseWriter, r *http.Request) {
	f := a.controls.Latest()
	if f == nil {
		http.Error(w, "no frame rendered yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Frame-Index", strconv.Itoa(f.Index))
	if err := png.Encode(w, f.Image); err != nil {
		a.log.Warn("frame not encoded", zap.Error(err))
	}
}

func (a *Api) status(w http.ResponseWriter, r *http.Request) {
	a.writeState(w, http.StatusOK)
}

func (a *Api) writeState(w http.ResponseWriter, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(a.controls.Snapshot()); err != nil {
		a.log.Warn("status not encoded", zap.Error(err))
	}
}

func (a *Api) command(fn func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn()
		a.writeState(w, http.StatusOK)
	}
}

// gotoFrame seeks by frame or marker; play=true keeps playing after the
// seek.
func (a *Api) gotoFrame(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	play, _ := strconv.ParseBool(q.Get("play"))

	var ok bool
	switch {
	case q.Get("marker") != "" && play:
		ok = a.controls.GotoAndPlayMarker(q.Get("marker"))
	case q.Get("marker") != "":
		ok = a.controls.GotoAndStopMarker(q.Get("marker"))
	case q.Get("frame") != "":
		frame, err := strconv.Atoi(q.Get("frame"))
		if err != nil {
			http.Error(w, "frame must be an integer", http.StatusBadRequest)
			return
		}
		if play {
			ok = a.controls.GotoAndPlay(frame)
		} else {
			ok = a.controls.GotoAndStop(frame)
		}
	default:
		http.Error(w, "frame or marker required", http.StatusBadRequest)
		return
	}

	if !ok {
		a.writeState(w, http.StatusUnprocessableEntity)
		return
	}
	a.writeState(w, http.StatusOK)
}

func (a *Api) quality(w http.ResponseWriter, r *http.Request) {
	q, err := raster.ParseQuality(r.URL.Query().Get("level"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a.controls.SetQuality(q)
	a.writeState(w, http.StatusOK)
}
