package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/coderag/internal/indexer"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show manifest and vector store sizes for the collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}

		m, err := indexer.LoadManifest(indexer.ManifestPath(a.cfg.DB, a.collection))
		if err != nil {
			return err
		}

		store, err := a.openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.Count(context.Background())
		if err != nil {
			return fmt.Errorf("counting vectors: %w", err)
		}

		fmt.Printf("Collection: %s\n", a.collection)
		fmt.Printf("  Database:        %s (%s)\n", a.cfg.DB, a.cfg.Store)
		fmt.Printf("  Manifest:        %s\n", m.Path())
		fmt.Printf("  Files indexed:   %d\n", len(m.Files))
		fmt.Printf("  Chunks recorded: %d\n", m.TotalChunks())
		fmt.Printf("  Chunks stored:   %d\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
