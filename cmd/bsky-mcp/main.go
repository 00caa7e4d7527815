// Command bsky-mcp serves Bluesky tools over MCP stdio or HTTP.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// stdout carries the stdio protocol; diagnostics go to stderr.
	log.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Printf("ERROR: %v", err)
		stop()
		os.Exit(1)
	}
}
