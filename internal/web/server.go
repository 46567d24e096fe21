package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"

	"roomboard/internal/api"
	"roomboard/internal/board"
	"roomboard/internal/logging"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/starfederation/datastar-go/datastar"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var assetsFS embed.FS

type ServerConfig struct {
	Addr string
	API  board.RoomsAPI
	// Server labels journal entries and the page header.
	Server  string
	Journal board.Journal
	Logger  *zap.Logger
}

// Server renders the board page. It keeps no page state: every request builds its own
// controller from the request's query.
type Server struct {
	cfg    ServerConfig
	tmpl   *template.Template
	logger *zap.Logger
}

func NewServer(cfg ServerConfig) (*Server, error) {
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	if cfg.Addr == "" {
		return nil, errors.New("web: addr is empty")
	}
	if cfg.API == nil {
		return nil, errors.New("web: api is nil")
	}

	tmpl, err := template.New("base").Funcs(template.FuncMap{
		"trim": strings.TrimSpace,
	}).ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, tmpl: tmpl, logger: logging.OrNop(cfg.Logger)}, nil
}

func (s *Server) Addr() string { return s.cfg.Addr }

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/", s.handleHome).Methods(http.MethodGet)
	r.HandleFunc("/cards", s.handleAddCard).Methods(http.MethodPost)
	r.HandleFunc("/cards/{cardId:[0-9]+}/text", s.handleCardText).Methods(http.MethodPost)
	r.HandleFunc("/cards/{cardId:[0-9]+}/position", s.handleCardPosition).Methods(http.MethodPost)
	r.HandleFunc("/cards/{cardId:[0-9]+}/delete", s.handleCardDelete).Methods(http.MethodPost)
	r.HandleFunc("/order", s.handleOrder).Methods(http.MethodPost)

	stdlog := zap.NewStdLog(s.logger)
	return handlers.RecoveryHandler(handlers.RecoveryLogger(stdlog))(
		handlers.CombinedLoggingHandler(stdlog.Writer(), r),
	)
}

func (s *Server) controller(r *http.Request) *board.Controller {
	return board.New(s.cfg.API,
		board.WithQuery(r.URL.Query()),
		board.WithJournal(s.cfg.Journal),
		board.WithServer(s.cfg.Server),
		board.WithLogger(s.logger),
	)
}

func redirectBack(w http.ResponseWriter, r *http.Request, fallback string) {
	ref := strings.TrimSpace(r.Header.Get("Referer"))
	if ref != "" {
		http.Redirect(w, r, ref, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, fallback, http.StatusSeeOther)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	ctrl := s.controller(r)
	status := http.StatusOK
	if err := ctrl.Load(r.Context()); err != nil {
		status = http.StatusBadGateway
	}
	s.writeHTMLTemplate(w, status, "layout", newPageVM(ctrl.Page(), s.cfg.Server))
}

func (s *Server) renderTemplate(name string, data any) (string, error) {
	var b strings.Builder
	if err := s.tmpl.ExecuteTemplate(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (s *Server) writeHTMLTemplate(w http.ResponseWriter, status int, name string, data any) {
	html, err := s.renderTemplate(name, data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, html)
}

func isDatastarRequest(r *http.Request) bool {
	return strings.EqualFold(strings.TrimSpace(r.Header.Get("Datastar-Request")), "true")
}

// respond finishes a mutation request. Datastar requests get SSE patches of the sidebar
// and board (or of the flash slot on error); plain form posts are redirected back.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, ctrl *board.Controller, mutErr error) {
	if !isDatastarRequest(r) {
		if mutErr != nil {
			http.Error(w, mutErr.Error(), statusFor(mutErr))
			return
		}
		fallback := "/"
		if id, ok := ctrl.RoomID(); ok {
			fallback = "/?" + board.QueryFor(id).Encode()
		}
		redirectBack(w, r, fallback)
		return
	}

	sse := datastar.NewSSE(w, r)
	if mutErr != nil {
		html, err := s.renderTemplate("flash", mutErr.Error())
		if err == nil {
			_ = sse.PatchElements(html, datastar.WithSelector("#flash"), datastar.WithMode(datastar.ElementPatchModeOuter))
		}
		return
	}

	// A no-op (no room selected) skips the refetch, so there is nothing loaded to render yet.
	if _, loaded := ctrl.Rooms(); !loaded {
		if err := ctrl.Load(r.Context()); err != nil {
			s.logger.Warn("load rooms for patch", zap.Error(err))
		}
	}
	vm := newPageVM(ctrl.Page(), s.cfg.Server)
	for _, part := range []struct{ name, selector string }{
		{"sidebar", "#sidebar"},
		{"board", "#board"},
		{"flash", "#flash"},
	} {
		var data any = vm
		if part.name == "flash" {
			data = vm.Err
		}
		html, err := s.renderTemplate(part.name, data)
		if err != nil {
			_ = sse.ExecuteScript(fmt.Sprintf(`console.error(%q)`, err.Error()))
			continue
		}
		_ = sse.PatchElements(html, datastar.WithSelector(part.selector), datastar.WithMode(datastar.ElementPatchModeOuter))
	}
}

func statusFor(err error) int {
	switch {
	case api.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, errBadInput):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
