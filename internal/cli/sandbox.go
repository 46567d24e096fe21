package cli

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"roomboard/internal/sandbox"

	"github.com/spf13/cobra"
)

func newSandboxCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Run an in-memory rooms API seeded with demo rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				return writeErr(cmd, errors.New("sandbox: missing --addr"))
			}
			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return writeErr(cmd, err)
			}

			base := "http://" + ln.Addr().String()
			sb := sandbox.New(sandbox.DemoRooms())
			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":  ln.Addr().String(),
					"url":   base,
					"rooms": len(sb.Rooms()),
				},
				"_hints": []string{"roomboard --server " + base},
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "sandbox API listening on %s\n", base)

			return http.Serve(ln, sb.Handler())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "Bind address (host:port or :port)")
	return cmd
}
