package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mdobak/go-xerrors"
	"github.com/spf13/cobra"

	"notehero/config"
	"notehero/core"
	"notehero/fileformat"
	"notehero/models"
	"notehero/utils"
)

var analyzeFlags struct {
	output      string
	spectrogram string
	frameSize   int
	threshold   float64
	window      string
	tolerance   float64
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVarP(&analyzeFlags.output, "output", "o", "", "timeline file to write (default stdout)")
	f.StringVar(&analyzeFlags.spectrogram, "spectrogram", "", "also render the spectrum as a PNG")
	f.IntVar(&analyzeFlags.frameSize, "frame-size", 0, "samples per analysis frame, a power of two")
	f.Float64Var(&analyzeFlags.threshold, "threshold", 0, "peak magnitude a frame must exceed")
	f.StringVar(&analyzeFlags.window, "window", "", "window function: none, hann or hamming")
	f.Float64Var(&analyzeFlags.tolerance, "tolerance", 0, "largest relative pitch error, e.g. 0.03")
	rootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <audio>",
	Short: "Extract a note timeline from an audio file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := cfg.Analysis
		flags := cmd.Flags()
		if flags.Changed("frame-size") {
			a.FrameSize = analyzeFlags.frameSize
		}
		if flags.Changed("threshold") {
			a.Threshold = analyzeFlags.threshold
		}
		if flags.Changed("window") {
			a.Window = analyzeFlags.window
		}
		if flags.Changed("tolerance") {
			a.PitchTolerance = analyzeFlags.tolerance
		}
		return analyze(args[0], a, analyzeFlags.output, analyzeFlags.spectrogram, cmd.OutOrStdout())
	},
}

func analyze(path string, a config.Analysis, output, spectrogram string, stdout io.Writer) error {
	logger := utils.GetLogger()

	pcm, err := fileformat.LoadFile(path, fileformat.DecodeOptions{MaxSamples: a.MaxSamples})
	if err != nil {
		return err
	}

	analyzer, events, err := extractNotes(pcm, a)
	if err != nil {
		return err
	}
	logger.Info("extracted notes",
		slog.Int("frames", analyzer.Frames()),
		slog.Float64("bin_width", analyzer.BinWidth()),
		slog.Int("notes", len(events)),
	)

	if spectrogram != "" {
		if err := writeSpectrogram(spectrogram, analyzer); err != nil {
			logger.Error("failed to write spectrogram", slog.Any("error", xerrors.New(err)))
		}
	}

	out := stdout
	if output != "" {
		if err := utils.CreateFolder(filepath.Dir(output)); err != nil {
			return fmt.Errorf("%w: %w", fileformat.ErrIO, err)
		}
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("%w: %w", fileformat.ErrIO, err)
		}
		defer f.Close()
		out = f
	}
	if err := core.WriteTimeline(out, events); err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintf(os.Stderr, "🎵 %d notes saved to %s\n", len(events), output)
	}
	return nil
}

// extractNotes runs the analysis half of the pipeline on decoded audio.
func extractNotes(pcm *models.PCMBuffer, a config.Analysis) (*core.Analyzer, []models.NoteEvent, error) {
	analyzer, err := core.NewAnalyzer(pcm, core.AnalyzerConfig{
		FrameSize: a.FrameSize,
		Threshold: a.Threshold,
		Window:    a.Window,
	})
	if err != nil {
		return nil, nil, err
	}
	quantizer, err := core.NewQuantizer(core.QuantizerConfig{
		LowestOctave: a.LowestOctave,
		Octaves:      a.Octaves,
		Tolerance:    a.PitchTolerance,
		GuardRatio:   core.DefaultGuardRatio,
	})
	if err != nil {
		return nil, nil, err
	}
	table := quantizer.Notes()
	utils.GetLogger().Debug("pitch table",
		slog.String("lowest", table[0].String()),
		slog.String("highest", table[len(table)-1].String()),
		slog.Int("notes", len(table)),
	)
	return analyzer, core.BuildTimeline(analyzer.Candidates(), quantizer), nil
}

func writeSpectrogram(path string, analyzer *core.Analyzer) error {
	if err := utils.CreateFolder(filepath.Dir(path)); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	// 1024 bins is about 11 kHz at 44.1 kHz / 4096
	return core.WriteSpectrogramPNG(f, analyzer, 1024)
}
