package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/issue-slots/internal/httpserver"
	"github.com/naka-gawa/issue-slots/internal/tools"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the MCP server over stdio or streamable HTTP",
	Long: `Runs the issue-slots MCP server. With --transport stdio (the default) the
server speaks MCP on stdin/stdout; with --transport http it listens on --addr
and serves the streamable HTTP endpoint at /mcp.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		server := tools.NewServer(version, a.cfg.Server.BaseURL, a.service)

		transport, _ := cmd.Flags().GetString("transport")
		switch transport {
		case "stdio":
			a.logger.Info("MCP server running on stdio")
			if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				return fmt.Errorf("stdio server failed: %w", err)
			}
			return nil
		case "http":
			addr := a.cfg.Server.Addr
			if cmd.Flags().Changed("addr") {
				addr, _ = cmd.Flags().GetString("addr")
			}
			return httpserver.ListenAndServe(ctx, server, httpserver.Options{
				Addr:      addr,
				AuthToken: a.cfg.Server.AuthToken,
			}, a.logger)
		default:
			return fmt.Errorf("unknown transport %q, use stdio or http", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("transport", "t", "stdio", "Transport to serve on: stdio or http")
	serveCmd.Flags().String("addr", ":3000", "Listen address for the http transport (overrides ADDR)")
}
