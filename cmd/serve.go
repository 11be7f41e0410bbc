package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/coderag/internal/indexer"
	"github.com/ziadkadry99/coderag/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP query API",
	Long: `Serves the collection over HTTP: POST /api/query answers a question,
POST /api/search returns the nearest chunks, GET /api/stats reports index size,
GET /ws/ask answers questions over a WebSocket and GET /metrics exposes
Prometheus counters. A chromem store is reloaded when an indexing run
rewrites the collection manifest.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (default from config: 8080)")
	serveCmd.Flags().Bool("allow-all-origins", false, "allow CORS requests from any origin")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	a.live = true

	answerer, store, err := a.createAnswerer(true)
	if err != nil {
		return err
	}
	defer store.Close()

	port := a.cfg.Server.Port
	if servePort > 0 {
		port = servePort
	}
	allowAll := a.cfg.Server.AllowAll
	if cmd.Flags().Changed("allow-all-origins") {
		allowAll, _ = cmd.Flags().GetBool("allow-all-origins")
	}

	srv := server.New(server.Config{
		Port:         port,
		AllowAll:     allowAll,
		TopK:         a.cfg.TopK,
		ManifestPath: indexer.ManifestPath(a.cfg.DB, a.collection),
		Collection:   a.collection,
	}, answerer, store, a.metrics, a.logger)

	// Graceful shutdown.
	ctx, stop := signalContext()
	defer stop()

	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "\nShutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	n, _ := store.Count(context.Background())
	fmt.Fprintf(os.Stderr, "coderag server %s starting on port %d\n", Version, port)
	fmt.Fprintf(os.Stderr, "  Database: %s (%s)\n", a.cfg.DB, a.cfg.Store)
	fmt.Fprintf(os.Stderr, "  Collection: %s (%d chunks)\n", a.collection, n)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
