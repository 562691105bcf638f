// Package main runs the Rigbook MCP server over stdio.
//
// Usage:
//
//	rigbook-mcp -mcp-user=alice -db-path=~/Rigbook/rigbook.db
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/rigbook/rigbook-server/internal/di"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	injector := di.NewMCPContainer()
	defer injector.Shutdown()

	s, err := di.BootstrapMCP(injector)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	// ServeStdio returns on SIGINT/SIGTERM or when the client closes stdin.
	return server.ServeStdio(s)
}
