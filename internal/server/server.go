// internal/server/server.go
package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/roastcraft/roastcraft-daq/internal/config"
	"github.com/roastcraft/roastcraft-daq/internal/device"
	"github.com/roastcraft/roastcraft-daq/internal/status"
)

// Controller is the acquisition supervisor as seen by the UI.
type Controller interface {
	Start() error
	Stop()
	Status() status.Snapshot
	Config() *config.Config
}

type server struct {
	ctl    Controller
	events http.Handler
	logger *zap.Logger
}

// New returns the control surface. events serves /ws and may be nil.
func New(ctl Controller, events http.Handler, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.L()
	}
	s := &server{ctl: ctl, events: events, logger: logger.With(zap.String("component", "server"))}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/start", s.start)
	mux.HandleFunc("POST /api/stop", s.stop)
	mux.HandleFunc("GET /api/status", s.status)
	mux.HandleFunc("GET /api/config", s.config)
	if events != nil {
		mux.Handle("GET /ws", events)
	}

	return LoggingMiddleware(s.logger)(mux)
}

type errorResponse struct {
	Error  string          `json:"error"`
	Status status.Snapshot `json:"status"`
}

func (s *server) start(w http.ResponseWriter, _ *http.Request) {
	if err := s.ctl.Start(); err != nil {
		code := http.StatusInternalServerError
		if device.IsFatal(err) {
			code = http.StatusUnprocessableEntity
		}
		writeJSON(w, code, errorResponse{Error: err.Error(), Status: s.ctl.Status()})
		return
	}
	writeJSON(w, http.StatusOK, s.ctl.Status())
}

func (s *server) stop(w http.ResponseWriter, _ *http.Request) {
	s.ctl.Stop()
	writeJSON(w, http.StatusOK, s.ctl.Status())
}

func (s *server) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ctl.Status())
}

func (s *server) config(w http.ResponseWriter, _ *http.Request) {
	cfg := s.ctl.Config()
	if cfg == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no configuration loaded"})
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
