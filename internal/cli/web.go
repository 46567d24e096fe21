package cli

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"roomboard/internal/web"

	"github.com/spf13/cobra"
)

func newWebCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the board as a web page",
		Long: strings.TrimSpace(`
Serve the board page from a local HTTP server.

The page is rendered server-side for every request (GET /?roomId=N). Card actions post back to
the server, which calls the rooms API and answers with Datastar patches of the board and sidebar.
`),
		Example: strings.TrimSpace(`
roomboard web --addr 127.0.0.1:3335
roomboard --server http://rooms.internal:8080 web --addr :3335
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				return writeErr(cmd, errors.New("web: missing --addr"))
			}

			sess, err := app.newSession(commandContext(cmd), "", true)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer sess.Close()

			cfg := web.ServerConfig{
				Addr:   listenAddr,
				API:    sess.client,
				Server: sess.settings.Server,
				Logger: sess.logger,
			}
			if sess.journal != nil {
				cfg.Journal = sess.journal
			}
			srv, err := web.NewServer(cfg)
			if err != nil {
				return writeErr(cmd, err)
			}

			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return writeErr(cmd, err)
			}

			actualAddr := ln.Addr().String()
			url := "http://" + actualAddr + "/"

			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      actualAddr,
					"url":       url,
					"server":    sess.settings.Server,
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
				"_hints": []string{"open " + url},
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "roomboard web running at %s (api=%s)\n", url, sess.settings.Server)

			return http.Serve(ln, srv.Handler())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:3335", "Bind address (host:port or :port)")
	return cmd
}
