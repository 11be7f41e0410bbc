package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

var vacuumCmd = &cobra.Command{
	Use:   "vacuum",
	Short: "Remove vectors and manifest entries for files that no longer exist",
	RunE:  runVacuum,
}

func init() {
	rootCmd.AddCommand(vacuumCmd)
}

func runVacuum(cmd *cobra.Command, args []string) (err error) {
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

	stats, err := s.ix.Vacuum(ctx)
	printStats("Vacuum", stats, time.Since(start))
	return err
}
