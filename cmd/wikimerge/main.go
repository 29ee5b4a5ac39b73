// Wikimerge: Knowledge Wiki Merge MCP Server
//
// An MCP server that lets AI assistants safely merge new information
// into a tenant-scoped knowledge wiki. Edits go through a deterministic
// merge engine (unique-match replace, line insert) and every committed
// change snapshots the previous version to history first.
//
// Usage:
//
//	wikimerge serve    # Start MCP server (stdio transport)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	wikiserver "github.com/wikimerge/wikimerge/internal/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("wikimerge v%s\n", wikiserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	s, cleanup, err := wikiserver.New()
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Graceful shutdown on interrupt.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	_ = ctx // stdio server manages its own lifecycle

	return server.ServeStdio(s)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Wikimerge v%s — Knowledge Wiki Merge MCP Server

Usage:
  wikimerge serve    Start the MCP server (stdio transport)

Environment:
  WIKIMERGE_DATA_DIR   Where the SQLite database lives (default: ~/.wikimerge)

Configuration:
  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "wikimerge": {
        "command": "wikimerge",
        "args": ["serve"]
      }
    }
  }
`, wikiserver.Version)
}
