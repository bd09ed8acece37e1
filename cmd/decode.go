package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"notehero/fileformat"
)

var decodeOutput string

func init() {
	decodeCmd.Flags().StringVarP(&decodeOutput, "output", "o", "decoded.wav", "WAV file to write")
	rootCmd.AddCommand(decodeCmd)
}

var decodeCmd = &cobra.Command{
	Use:   "decode <audio>",
	Short: "Decode an audio file to 16-bit WAV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pcm, err := fileformat.LoadFile(args[0], fileformat.DecodeOptions{MaxSamples: cfg.Analysis.MaxSamples})
		if err != nil {
			return err
		}
		if err := fileformat.WriteWavFile(decodeOutput, pcm); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "💾 %s: %d Hz, %d channels, %.2fs\n",
			decodeOutput, pcm.SampleRate, pcm.Channels, pcm.Duration())
		return nil
	},
}
