// Package webtui serves the terminal board in a browser: each websocket session runs the
// roomboard TUI in a server-side pty and streams it to xterm.js.
package webtui

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"roomboard/internal/board"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var assetsFS embed.FS

type ServerConfig struct {
	Addr string
	// Args are passed to every TUI subprocess before its own flags (e.g. --server URL).
	Args []string
	// Exe is the binary to run; empty means the current executable.
	Exe    string
	Logger *zap.Logger
}

type Server struct {
	cfg    ServerConfig
	tmpl   *template.Template
	logger *zap.Logger
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("webtui: missing addr")
	}
	tmpl, err := template.ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{cfg: cfg, tmpl: tmpl, logger: logger}, nil
}

func (s *Server) Addr() string {
	return strings.TrimSpace(s.cfg.Addr)
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		target := "/terminal"
		if q := r.URL.RawQuery; q != "" {
			target += "?" + q
		}
		http.Redirect(w, r, target, http.StatusFound)
	}).Methods(http.MethodGet)
	r.HandleFunc("/terminal", s.handleTerminal).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)

	stdlog := zap.NewStdLog(s.logger)
	return handlers.RecoveryHandler(handlers.RecoveryLogger(stdlog))(r)
}

type terminalVM struct {
	// WSPath carries the page's roomId through to the session.
	WSPath  string
	RoomID  int
	HasRoom bool
}

func (s *Server) handleTerminal(w http.ResponseWriter, r *http.Request) {
	vm := terminalVM{WSPath: "/ws"}
	if id, ok := board.ParseRoomID(r.URL.Query()); ok {
		vm.RoomID, vm.HasRoom = id, true
		vm.WSPath = "/ws?" + board.QueryFor(id).Encode()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "terminal.html", vm); err != nil {
		s.logger.Warn("render terminal page", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
