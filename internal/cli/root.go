package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"roomboard/internal/api"
	"roomboard/internal/board"
	"roomboard/internal/format"
	"roomboard/internal/logging"
	"roomboard/internal/store"
	"roomboard/internal/tui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type App struct {
	Server     string
	Timeout    string
	LogLevel   string
	ConfigDir  string
	PrettyJSON bool
	Format     string

	// Room is the TUI's initial selection (-1: none / restore last).
	Room int
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "roomboard",
		Short:        "Rooms and cards board (TUI, web page, scriptable CLI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  roomboard

  # Open room 2 directly (shortcut for: roomboard --room 2)
  roomboard 2

  # Scriptable commands
  roomboard rooms list
  roomboard cards add --room 0

  # Local API to try things against
  roomboard sandbox --addr 127.0.0.1:8080
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if dir := strings.TrimSpace(app.ConfigDir); dir != "" {
			// store.ConfigDir reads the same variable.
			return os.Setenv("ROOMBOARD_CONFIG_DIR", dir)
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.Server, "server", envOr("ROOMBOARD_SERVER", ""), "Rooms API base URL (default: config.json server, then "+api.DefaultBaseURL+")")
	cmd.PersistentFlags().StringVar(&app.Timeout, "timeout", envOr("ROOMBOARD_TIMEOUT", ""), "Per-request timeout, e.g. 5s (default: config.json timeout, then 10s)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("ROOMBOARD_LOG_LEVEL", ""), "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&app.ConfigDir, "config-dir", envOr("ROOMBOARD_CONFIG_DIR", ""), "Config/state directory (default: ~/.roomboard)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("ROOMBOARD_FORMAT", "json"), "Output format (json|edn)")
	cmd.Flags().IntVar(&app.Room, "room", -1, "Open this room in the TUI")

	cmd.AddCommand(newRoomsCmd(app))
	cmd.AddCommand(newCardsCmd(app))
	cmd.AddCommand(newOrderCmd(app))
	cmd.AddCommand(newWebCmd(app))
	cmd.AddCommand(newWebTUICmd(app))
	cmd.AddCommand(newSandboxCmd(app))
	cmd.AddCommand(newJournalCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// settings are the effective connection settings: flags/env, then config.json, then defaults.
type settings struct {
	Server   string        `json:"server"`
	Timeout  time.Duration `json:"-"`
	LogLevel string        `json:"logLevel"`
	Theme    string        `json:"theme,omitempty"`
}

func (app *App) settings() (settings, error) {
	cfg, err := store.LoadConfig()
	if err != nil {
		return settings{}, fmt.Errorf("load config: %w", err)
	}

	s := settings{
		Server:   firstNonEmpty(app.Server, cfg.Server, api.DefaultBaseURL),
		Timeout:  cfg.TimeoutOr(api.DefaultTimeout),
		LogLevel: firstNonEmpty(app.LogLevel, cfg.LogLevel, "warn"),
	}
	if cfg.TUI != nil {
		s.Theme = strings.TrimSpace(cfg.TUI.Theme)
	}
	if raw := strings.TrimSpace(app.Timeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return settings{}, fmt.Errorf("invalid --timeout %q (expected a positive duration like 5s)", raw)
		}
		s.Timeout = d
	}
	s.Server = strings.TrimRight(strings.TrimSpace(s.Server), "/")
	return s, nil
}

// session bundles what a command needs to talk to the API.
type session struct {
	settings settings
	logger   *zap.Logger
	client   *api.Client
	journal  *store.Journal
}

func (s *session) Close() {
	if s.journal != nil {
		_ = s.journal.Close()
	}
	_ = s.logger.Sync()
}

// newSession builds the API client and logger. logPath empty means stderr. The journal is
// opened best effort: without it mutations still run.
func (app *App) newSession(ctx context.Context, logPath string, withJournal bool) (*session, error) {
	st, err := app.settings()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(st.LogLevel, "console", logPath)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	s := &session{
		settings: st,
		logger:   logger,
		client:   api.New(api.Options{BaseURL: st.Server, Timeout: st.Timeout, RetryCount: 2, Logger: logger}),
	}
	if withJournal {
		if ds, err := store.Open(); err == nil {
			if j, err := ds.OpenJournal(ctx); err == nil {
				s.journal = j
			} else {
				logger.Warn("journal unavailable", zap.Error(err))
			}
		}
	}
	return s, nil
}

func (s *session) controller(opts ...board.Option) *board.Controller {
	base := []board.Option{board.WithLogger(s.logger), board.WithServer(s.settings.Server)}
	if s.journal != nil {
		base = append(base, board.WithJournal(s.journal))
	}
	return board.New(s.client, append(base, opts...)...)
}

func runTUI(cmd *cobra.Command, app *App) error {
	ds, err := store.Open()
	if err != nil {
		return writeErr(cmd, err)
	}
	// stdout belongs to the terminal UI; logs go to a file.
	sess, err := app.newSession(commandContext(cmd), ds.LogPath(), true)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer sess.Close()

	ctrl := sess.controller()
	if app.Room >= 0 {
		ctrl.Select(app.Room)
	}
	return tui.Run(commandContext(cmd), tui.Options{
		Controller: ctrl,
		Store:      &ds,
		Server:     sess.settings.Server,
		Theme:      sess.settings.Theme,
		Logger:     sess.logger,
	})
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}

var errMissingRoom = errors.New("missing --room (a room index from `roomboard rooms list`)")
