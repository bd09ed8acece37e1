package cmd

import (
	"github.com/spf13/cobra"

	"notehero/config"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "notehero",
	Short: "Turn songs into note charts and play them",
	Long: `notehero extracts a note timeline from an audio file and runs a
terminal rhythm game against it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
