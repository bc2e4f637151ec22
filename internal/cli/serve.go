package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	httpadapter "github.com/aretw0/quoteflow/pkg/adapters/http"
	"github.com/aretw0/quoteflow/pkg/adapters/mcp"
)

// ShutdownTimeout bounds graceful shutdown of the servers.
const ShutdownTimeout = 5 * time.Second

// NewHTTPServer builds the HTTP surface of the app. Catalog changes are
// streamed to subscribers while ctx is alive.
func NewHTTPServer(ctx context.Context, app *App) *httpadapter.Server {
	srv := httpadapter.NewServer(app.Definition, app.Sessions,
		httpadapter.WithWizardOptions(app.Options()...),
		httpadapter.WithMetricsGatherer(app.Registry),
		httpadapter.WithLogger(app.Logger),
	)
	if app.Source != nil {
		if err := srv.Streams().WatchCatalog(ctx, app.Source); err != nil {
			app.Logger.Warn("catalog changes will not be streamed", "err", err)
		}
	}
	return srv
}

// Serve runs the HTTP API on port until ctx is done.
func Serve(ctx context.Context, app *App, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           NewHTTPServer(ctx, app).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		app.Logger.Info("starting quoteflow server", "address", srv.Addr, "definition", app.Config.Definition)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		app.Logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown did not complete in %v: %w", ShutdownTimeout, err)
		}
		return nil
	}
}

// Transports of the MCP server.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// ServeMCP runs the MCP surface over the given transport.
func ServeMCP(ctx context.Context, app *App, transport string, port int) error {
	srv := mcp.NewServer(app.Service(), mcp.WithLogger(app.Logger))

	switch transport {
	case TransportStdio:
		app.Logger.Info("starting quoteflow MCP server (stdio)")
		return srv.ServeStdio()
	case TransportSSE:
		app.Logger.Info("starting quoteflow MCP server (SSE)", "port", port)
		if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unknown transport %q (supported: stdio, sse)", transport)
	}
}
