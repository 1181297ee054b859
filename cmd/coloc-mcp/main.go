package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ironsheep/coloc-tools-mcp/internal/config"
	"github.com/ironsheep/coloc-tools-mcp/internal/logging"
	"github.com/ironsheep/coloc-tools-mcp/internal/pipeline"
	"github.com/ironsheep/coloc-tools-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("coloc-tools-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("coloc-tools-mcp - MCP server for colocalization analysis")
			fmt.Println()
			fmt.Println("Usage: coloc-tools-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  COLOC_MCP_LOG_LEVEL=debug    Log level (debug, info, warn, error)")
			fmt.Println("  COLOC_MCP_LOG_FORMAT=json    Log format (console, json)")
			fmt.Println("  COLOC_MCP_CONFIG=path        Config file supplying the analysis defaults")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	// stdout carries the protocol, so logs go to stderr.
	logger, err := logging.New(logging.Options{
		Level:  os.Getenv("COLOC_MCP_LOG_LEVEL"),
		Format: os.Getenv("COLOC_MCP_LOG_FORMAT"),
		Output: os.Stderr,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid logging settings: %v\n", err)
		os.Exit(1)
	}

	params, err := loadParams(logger)
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}

	logger.Debug("coloc MCP server starting", "version", Version, "built", BuildTime, "commit", GitCommit)
	if Version != "dev" {
		server.Version = Version
	}

	srv := server.New(logger, params)
	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// loadParams reads the analysis defaults from COLOC_MCP_CONFIG when it is
// set. Without it the built-in defaults apply.
func loadParams(logger *slog.Logger) (pipeline.Params, error) {
	path := strings.TrimSpace(os.Getenv("COLOC_MCP_CONFIG"))
	if path == "" {
		return pipeline.DefaultParams(), nil
	}
	cfg, resolved, _, err := config.Load(path)
	if err != nil {
		return pipeline.Params{}, err
	}
	logger.Debug("loaded config", "path", resolved)
	return cfg.Params(), nil
}
