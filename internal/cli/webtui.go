package cli

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"roomboard/internal/webtui"

	"github.com/spf13/cobra"
)

func newWebTUICmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "webtui",
		Short: "Run the terminal board in your browser (PTY + WebSocket, experimental)",
		Long: strings.TrimSpace(`
Run the terminal board over the web via a server-side PTY and a browser terminal emulator.

Notes:
- Experimental; there is no auth, so bind to localhost.
- Each browser tab starts a TUI subprocess on the server.
- /?roomId=N opens that room directly.
`),
		Example: strings.TrimSpace(`
roomboard webtui --addr 127.0.0.1:3334
roomboard --server http://rooms.internal:8080 webtui --addr :3334
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				return writeErr(cmd, errors.New("webtui: missing --addr"))
			}
			st, err := app.settings()
			if err != nil {
				return writeErr(cmd, err)
			}
			sess, err := app.newSession(commandContext(cmd), "", false)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer sess.Close()

			srv, err := webtui.NewServer(webtui.ServerConfig{
				Addr:   listenAddr,
				Args:   app.childArgs(st),
				Logger: sess.logger,
			})
			if err != nil {
				return writeErr(cmd, err)
			}

			ln, err := net.Listen("tcp", srv.Addr())
			if err != nil {
				return writeErr(cmd, err)
			}
			url := "http://" + ln.Addr().String() + "/"

			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      ln.Addr().String(),
					"url":       url,
					"server":    st.Server,
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
				"_hints": []string{"open " + url, "open " + url + "?roomId=0"},
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "roomboard webtui running at %s (api=%s)\n", url, st.Server)

			return http.Serve(ln, srv.Handler())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:3334", "Bind address (host:port or :port)")
	return cmd
}

// childArgs are the flags a TUI subprocess needs to see the same API and config dir.
func (app *App) childArgs(st settings) []string {
	args := []string{"--server", st.Server, "--timeout", st.Timeout.String(), "--log-level", st.LogLevel}
	if dir := strings.TrimSpace(app.ConfigDir); dir != "" {
		args = append(args, "--config-dir", dir)
	}
	return args
}
