package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sorenblake/memcap/internal/capsule"
	"github.com/sorenblake/memcap/internal/config"
	"github.com/sorenblake/memcap/internal/engine"
	"github.com/sorenblake/memcap/internal/logger"
	"github.com/sorenblake/memcap/internal/mcp"
	"github.com/sorenblake/memcap/internal/provider"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"store": true, "search": true, "recent": true, "list": true,
	"create": true, "info": true, "delete": true, "provider": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
  memcap — capsule memory store

  Usage: memcap <command> [options]
         memcap --help

  MCP server mode requires piped input.`)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before any setup
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	log := logger.Setup()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}
	baseDir := filepath.Join(homeDir, ".memcap")

	cfg, err := config.Load(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	resolver := capsule.NewResolver(cfg.StorageRoot)
	// A storage root that cannot be created is the one fatal setup failure.
	if err := resolver.EnsureRoot(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	prov := provider.NewResolver(cfg)
	embedder := prov.Embedder()
	cache := capsule.NewCache(resolver, func(path string, create bool) (engine.Handle, error) {
		return engine.Open(path, create, engine.Options{Embedder: embedder})
	})
	handlers := mcp.NewHandlers(cache, resolver, prov, log)

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		log.Warn().Strs("tools", unknown).Msg("ignoring unknown disabled tools")
	}

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(handlers)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'memcap --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	log.Info().Str("storage_root", resolver.Root()).Msg("starting MCP server")
	if err := mcp.Run(handlers, cfg, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
