package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"bsky-mcp/internal/bsky"
	"bsky-mcp/internal/config"
	"bsky-mcp/internal/server"
)

const version = "0.1.0"

type options struct {
	envFile    string
	host       string
	identifier string
	port       string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "bsky-mcp",
		Short: "Bluesky tools for MCP clients",
		Long: `bsky-mcp authenticates once against a Bluesky PDS and exposes profile
lookup, author feeds, record creation, timeline and post search as MCP tools.

Without a subcommand it speaks MCP over stdio. Configuration is read from
the environment (BSKY_HOST, BSKY_IDENTIFIER, BSKY_APP_PASSWORD) and an
optional .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStdio(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file to load if present")
	root.PersistentFlags().StringVar(&opts.host, "host", "", "XRPC service base URL (overrides BSKY_HOST)")
	root.PersistentFlags().StringVar(&opts.identifier, "identifier", "", "account handle or DID (overrides BSKY_IDENTIFIER)")

	httpCmd := &cobra.Command{
		Use:   "http",
		Short: "Serve the tools over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHTTP(cmd.Context(), opts)
		},
	}
	httpCmd.Flags().StringVar(&opts.port, "port", "", "listen port (overrides PORT)")
	root.AddCommand(httpCmd)

	return root
}

// startup loads configuration and authenticates. Any error here is fatal.
func startup(ctx context.Context, opts *options) (*server.Dispatcher, config.Config, error) {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return nil, cfg, fmt.Errorf("load config: %w", err)
	}
	if opts.host != "" {
		cfg.Host = opts.host
	}
	if opts.identifier != "" {
		cfg.Identifier = opts.identifier
	}
	if opts.port != "" {
		cfg.Port = opts.port
	}
	if err := cfg.Validate(); err != nil {
		return nil, cfg, err
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	sess, err := bsky.Authenticate(ctx, httpClient, cfg.Host, cfg.Identifier, cfg.Secret)
	if err != nil {
		return nil, cfg, err
	}
	log.Printf("INFO: authenticated as %s (%s) on %s", sess.Handle, sess.DID, cfg.Host)

	client := bsky.New(cfg.Host, sess.AccessJwt, httpClient)
	return server.NewDispatcher(client, nil), cfg, nil
}

func runStdio(ctx context.Context, opts *options, in io.Reader, out io.Writer) error {
	d, _, err := startup(ctx, opts)
	if err != nil {
		return err
	}
	s, err := server.NewMCPServer("bsky-mcp", version, d)
	if err != nil {
		return err
	}
	log.Println("INFO: serving MCP on stdio")
	if err := server.ServeStdio(ctx, s, d, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runHTTP(ctx context.Context, opts *options) error {
	d, cfg, err := startup(ctx, opts)
	if err != nil {
		return err
	}
	if cfg.Token == "" {
		log.Println("WARN: MCP_TOKEN not set; endpoints will be open. Set MCP_TOKEN to secure.")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.New(cfg.Token, d).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if cfg.TLS() {
			log.Printf("INFO: starting MCP HTTPS server on :%s", cfg.Port)
			err = srv.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
		} else {
			log.Printf("INFO: starting MCP HTTP server on :%s (no TLS; run behind a TLS-terminating proxy)", cfg.Port)
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
