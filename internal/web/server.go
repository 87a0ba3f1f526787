// Package web provides the HTTP timer page, command API and live websocket
// updates for the emom-timer daemon.
package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/sweeney/emom-timer/internal/controller"
	"github.com/sweeney/emom-timer/internal/logic"
	"github.com/sweeney/emom-timer/internal/status"
)

const commandTimeout = 2 * time.Second

// Commander applies commands to the running timer.
type Commander interface {
	Do(ctx context.Context, cmd logic.Command) (logic.View, error)
}

// Options configures optional parts of the server.
type Options struct {
	// CORSOrigins lists origins allowed to call the API and open websockets.
	// Empty allows any origin for the API and same-origin websockets.
	CORSOrigins []string

	// Metrics, if set, is served at /metrics.
	Metrics http.Handler
}

// Server serves the timer page, JSON status and command API over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	commander  Commander
	hub        *hub
}

// New creates a Server that reads state from tracker and sends commands to commander.
func New(addr string, tracker *status.Tracker, commander Commander, opts Options) *Server {
	s := &Server{
		tracker:   tracker,
		commander: commander,
	}
	s.hub = newHub(s, opts.CORSOrigins)

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("POST /api/command/{name}", s.handleCommand)
	mux.HandleFunc("/ws", s.hub.serveWS)
	if opts.Metrics != nil {
		mux.Handle("/metrics", opts.Metrics)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodHead, http.MethodGet, http.MethodPost},
	})

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           c.Handler(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Observe pushes the new state to every websocket client.
// Called by the controller after every change.
func (s *Server) Observe(view logic.View, evs []logic.Event) {
	s.hub.broadcast(compactJSON(s.snapshot(view, evs)))
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	return s.hub.count()
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server and disconnects websocket clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.closeAll()
	return s.httpServer.Shutdown(ctx)
}

// snapshot returns the tracker state with view applied, so the result does
// not depend on the order observers are called in.
func (s *Server) snapshot(view logic.View, evs []logic.Event) status.Snapshot {
	snap := s.tracker.Snapshot()
	snap.View = view
	for _, e := range evs {
		if e.Session != "" {
			snap.Session = e.Session
		}
	}
	return snap
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderHTML(w, snap); err != nil {
		log.Error().Err(err).Msg("render index")
	}
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	view, err := s.apply(r.Context(), r.PathValue("name"))
	if err != nil {
		http.Error(w, err.Error(), commandStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(s.snapshot(view, nil)))
}

// apply parses and runs a command from an external client.
func (s *Server) apply(ctx context.Context, name string) (logic.View, error) {
	cmd, err := logic.ParseCommand(name)
	if err != nil {
		return logic.View{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	view, err := s.commander.Do(ctx, cmd)
	if err != nil {
		return logic.View{}, err
	}
	log.Debug().Str("cmd", string(cmd)).Msg("web command applied")
	return view, nil
}

// compactJSON is the single-line status pushed to websocket clients.
func compactJSON(snap status.Snapshot) []byte {
	return status.FormatStatusEvent(snap, "", "")
}

func commandStatus(err error) int {
	switch {
	case errors.Is(err, logic.ErrUnknownCommand), errors.Is(err, logic.ErrInternalCommand):
		return http.StatusBadRequest
	case errors.Is(err, controller.ErrStopped), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
