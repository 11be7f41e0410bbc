package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/coderag/internal/indexer"
)

var reindexFileCmd = &cobra.Command{
	Use:   "reindex-file",
	Short: "Force reindex of one file",
	Long: `Reindexes a single file regardless of its manifest record. The file does not
have to pass the ignore rules; files of unknown type are read as plain text.`,
	RunE: runReindexFile,
}

func init() {
	reindexFileCmd.Flags().String("path", "", "path to the file (required)")
	reindexFileCmd.MarkFlagRequired("path")
	rootCmd.AddCommand(reindexFileCmd)
}

func runReindexFile(cmd *cobra.Command, args []string) (err error) {
	ctx, stop := signalContext()
	defer stop()

	path, _ := cmd.Flags().GetString("path")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	w, err := a.createWalker()
	if err != nil {
		return err
	}
	f, err := w.Describe(path)
	if err != nil {
		return fmt.Errorf("file not found: %w", err)
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

	res, err := s.ix.ReindexFile(ctx, f)
	if errors.Is(err, indexer.ErrNothingEmbedded) {
		return fmt.Errorf("%s: %w; the previous version was kept", f.RelPath, err)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Reindexed %s: %d chunks", f.RelPath, res.Chunks)
	if res.Dropped > 0 {
		fmt.Printf(" (%d dropped after retries)", res.Dropped)
	}
	if res.Retired {
		fmt.Print(", previous version retired")
	}
	fmt.Println()
	return nil
}
