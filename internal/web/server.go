// Package web serves the browser client, the realtime WebSocket channel and
// the status endpoints.
package web

import (
	"context"
	"net"
	"net/http"
	"path"

	"github.com/sweeney/lift-controller/internal/config"
	"github.com/sweeney/lift-controller/internal/controller"
	"github.com/sweeney/lift-controller/internal/status"
)

// Server is the HTTP front end of the daemon.
type Server struct {
	httpServer *http.Server
	cfg        config.Config
	ctl        *controller.Controller
	hub        *Hub
	tracker    *status.Tracker
	static     http.FileSystem
}

// New creates a Server. hub must be the Fanout that ctl was built with.
func New(cfg config.Config, ctl *controller.Controller, hub *Hub, tracker *status.Tracker) *Server {
	s := &Server{
		cfg:     cfg,
		ctl:     ctl,
		hub:     hub,
		tracker: tracker,
		static:  http.Dir(cfg.HTTP.StaticDir),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleStatic)
	mux.HandleFunc(cfg.WebSocket.Path, s.handleWebSocket)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/status", s.handleStatusPage)

	s.httpServer = &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: mux,
	}
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown stops accepting requests and closes every WebSocket client.
// Hijacked connections are not tracked by http.Server, so the hub closes them.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.hub.Close()
	return err
}

// handleStatic serves files from the static directory verbatim; "/" maps to
// index.html. Directories are not listed.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	name := path.Clean("/" + r.URL.Path)
	if name == "/" {
		name = "/index.html"
	}

	f, err := s.static.Open(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil || fi.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handleStatusPage(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}
