package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/coderag/internal/progress"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Reindex files whose size or modification time changed",
	Long: `Rescans --dir and reindexes only files whose size or modification time
differs from the manifest. The previous version's vectors are retired.`,
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) (err error) {
	start := time.Now()
	ctx, stop := signalContext()
	defer stop()

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	s, err := a.openSession()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); err == nil {
			err = cerr
		}
	}()

	if len(s.ix.Manifest().Files) == 0 {
		fmt.Println("No existing index found; indexing everything. Use `coderag ingest` for the first run.")
	}

	w, err := a.createWalker()
	if err != nil {
		return err
	}

	rep := progress.NewReporter("Reindexing")
	s.ix.SetProgressFunc(rep.Update)
	stats, err := s.ix.Sync(ctx, w.Files())
	rep.Finish()

	if err == nil && stats.Changed == 0 {
		fmt.Printf("Scanned %d files. No changes detected.\n", stats.Scanned)
		return nil
	}
	fmt.Printf("Scanned %d files, %d changed\n", stats.Scanned, stats.Changed)
	printStats("Update", stats, time.Since(start))
	return err
}
