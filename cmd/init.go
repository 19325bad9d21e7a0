package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/foresight/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize foresight configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure foresight for your workspace and writes a .foresight.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
