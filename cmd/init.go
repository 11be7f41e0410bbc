package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/coderag/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize coderag configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure coderag for your project and writes the config file (default .coderag.yml).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
