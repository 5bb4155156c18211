// CLAUDE:SUMMARY Entry point for the larder service — flags, slog setup, HTTP server with graceful shutdown, optional MCP over stdio.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/larder"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	mcpMode := flag.String("mcp", "", "MCP transport: stdio, or http to serve /mcp")
	trace := flag.Bool("trace", false, "write every mutation batch to stderr as JSON lines")
	flag.Parse()

	logger := newLogger(*logLevel)
	slog.SetDefault(logger)

	if err := run(logger, *configPath, *addr, *dbPath, *mcpMode, *trace); err != nil {
		logger.Error("larder", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, configPath, addr, dbPath, mcpMode string, trace bool) error {
	cfg := &larder.Config{}
	if configPath != "" {
		var err error
		if cfg, err = larder.LoadConfigFile(configPath); err != nil {
			return err
		}
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	switch mcpMode {
	case "", "stdio":
	case "http":
		cfg.MCPHTTP = true
	default:
		return fmt.Errorf("unknown -mcp transport %q", mcpMode)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var opts []larder.Option
	if trace {
		opts = append(opts, larder.WithTrace(os.Stderr))
	}
	app, err := larder.New(cfg, logger, opts...)
	if err != nil {
		return err
	}
	defer app.Close()

	if mcpMode == "stdio" {
		logger.Info("larder: MCP on stdio")
		return app.MCPServer().Run(ctx, &mcp.StdioTransport{})
	}

	go app.Run(ctx)

	srv := &http.Server{
		Addr:              app.Config().Addr,
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("larder: listening", "addr", srv.Addr, "mcp_http", cfg.MCPHTTP)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("larder: shutting down")
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

// newLogger writes to stderr, as text on a terminal and JSON otherwise.
// stdout stays free for the MCP stdio transport.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
