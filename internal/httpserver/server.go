// Package httpserver serves the MCP server over streamable HTTP.
package httpserver

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
)

// MCPPath is where the streamable HTTP endpoint is mounted.
const MCPPath = "/mcp"

// Options configures the HTTP front end.
type Options struct {
	Addr string
	// AuthToken, when set, is required as a bearer token on every request.
	AuthToken string
}

// NewHandler returns the routes: /health and the MCP endpoint, behind
// panic recovery and optional bearer authentication.
func NewHandler(server *mcp.Server, opts Options, logger logrus.FieldLogger) http.Handler {
	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"status":"ok"}`)
	})
	mux.Handle(MCPPath, mcpHandler)

	return Recovery(logger, BearerAuth(opts.AuthToken, mux))
}

// ListenAndServe runs the HTTP server until ctx is cancelled, then shuts it down.
func ListenAndServe(ctx context.Context, server *mcp.Server, opts Options, logger logrus.FieldLogger) error {
	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           NewHandler(server, opts, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{"addr": opts.Addr, "path": MCPPath, "auth": opts.AuthToken != ""}).Info("MCP HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("Shutting down MCP HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}

// BearerAuth rejects requests without the expected bearer token. An empty
// token disables the check. /health stays open for probes.
func BearerAuth(token string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token == "" || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		var key string
		if authz := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			key = strings.TrimSpace(authz[7:])
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(token)) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="issue-slots"`)
			writeJSON(w, http.StatusUnauthorized, `{"error":"unauthorized"}`)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Recovery is HTTP middleware that recovers from panics.
// It logs the stack trace and returns a 500 Internal Server Error.
func Recovery(logger logrus.FieldLogger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				logger.WithFields(logrus.Fields{
					"panic":  fmt.Sprintf("%v", err),
					"path":   r.URL.Path,
					"method": r.Method,
					"stack":  string(debug.Stack()),
				}).Error("PANIC recovered")
				writeJSON(w, http.StatusInternalServerError, `{"error":"internal_server_error","message":"An unexpected error occurred"}`)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
