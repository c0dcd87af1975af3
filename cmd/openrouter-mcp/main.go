// openrouter-mcp - MCP server for the OpenRouter API.
// Entry point: stdio transport by default, HTTP transport with -http.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/modelrelay/openrouter-mcp/internal/api"
	"github.com/modelrelay/openrouter-mcp/internal/domain/image"
	"github.com/modelrelay/openrouter-mcp/internal/domain/usage"
	"github.com/modelrelay/openrouter-mcp/internal/infra/config"
	"github.com/modelrelay/openrouter-mcp/internal/infra/openrouter"
	"github.com/modelrelay/openrouter-mcp/internal/infra/sqlite"
	"github.com/modelrelay/openrouter-mcp/internal/server"
	"github.com/modelrelay/openrouter-mcp/internal/version"
	"github.com/modelrelay/openrouter-mcp/pkg/auth"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("openrouter-mcp", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	showVersion := fs.Bool("version", false, "Show version information")
	showHelp := fs.Bool("help", false, "Show help")
	configPath := fs.String("config", "", "Path to a YAML config file")
	httpAddr := fs.String("http", "", "Serve the streamable HTTP transport on this address instead of stdio")
	hashToken := fs.String("hash-token", "", "Print the bcrypt hash of the given access token and exit")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}

	if *showHelp {
		printHelp(out)
		return 0
	}

	if *hashToken != "" {
		hash, err := auth.HashToken(*hashToken)
		if err != nil {
			fmt.Fprintf(errOut, "hash-token: %v\n", err) //nolint:errcheck
			return 1
		}
		fmt.Fprintln(out, hash) //nolint:errcheck
		return 0
	}

	return serve(*configPath, *httpAddr, errOut)
}

// serve wires the components and blocks until the transport finishes.
// All logging goes to stderr: in stdio mode stdout belongs to the protocol.
func serve(configPath, httpAddr string, errOut io.Writer) int {
	logger := slog.New(slog.NewTextHandler(errOut, nil))

	var cfg config.Config
	if configPath != "" {
		var err error
		cfg, err = config.LoadFile(configPath)
		if err != nil {
			logger.Error("configuration failed", "error", err)
			return 1
		}
	} else {
		cfg = config.Load()
	}
	if httpAddr != "" {
		cfg.HTTPAddr = httpAddr
	}

	if cfg.APIKey == "" {
		logger.Warn("OPENROUTER_API_KEY is not set; upstream calls will fail until it is configured")
	}

	db, err := sqlite.NewDB(cfg.UsageDBPath)
	if err != nil {
		logger.Error("usage ledger unavailable", "error", err)
		return 1
	}
	defer db.Close() //nolint:errcheck
	if err := sqlite.MigrateUp(db); err != nil {
		logger.Error("usage ledger migration failed", "error", err)
		return 1
	}

	client := openrouter.NewClient(cfg.BaseURL, cfg.APIKey, cfg.SiteURL, cfg.AppName)

	mcpServer := api.New(api.Deps{
		Upstream: client,
		Usage:    usage.NewRecorder(db),
		ImageLog: image.NewRequestLog(cfg.LogDir),
		ImageDir: cfg.ImageDir,
		Logger:   logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.HTTPAddr != "" {
		return serveHTTP(ctx, mcpServer, cfg, logger)
	}

	logger.Info("serving on stdio", "version", version.Version)
	if err := mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		logger.Error("stdio transport failed", "error", err)
		return 1
	}
	return 0
}

func serveHTTP(ctx context.Context, mcpServer *mcp.Server, cfg config.Config, logger *slog.Logger) int {
	httpCfg := server.DefaultConfig(cfg.HTTPAddr)
	httpCfg.AuthTokenHash = cfg.AuthTokenHash
	httpCfg.JWTSecret = cfg.JWTSecret
	srv := server.New(mcpServer, httpCfg, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
			return 1
		}
		return 0
	case err := <-errCh:
		if err != nil {
			logger.Error("http transport failed", "error", err)
			return 1
		}
		return 0
	}
}

func printHelp(out io.Writer) {
	helpText := `openrouter-mcp - MCP server for the OpenRouter API

Usage:
  openrouter-mcp [options]

Options:
  --version            Show version information
  --help               Show this help message
  --config <path>      Load defaults from a YAML config file
  --http <addr>        Serve the streamable HTTP transport (default: stdio)
  --hash-token <tok>   Print the bcrypt hash of an access token and exit

Environment:
  OPENROUTER_API_KEY   API key (required for real calls)
  OPENROUTER_BASE_URL  Upstream base URL override
  OPENROUTER_SITE_URL  Sent as HTTP-Referer for attribution
  OPENROUTER_APP_NAME  Sent as X-Title for attribution

Examples:
  openrouter-mcp
  openrouter-mcp --http :8080
  openrouter-mcp --hash-token my-secret-token`
	fmt.Fprintln(out, helpText) //nolint:errcheck
}
