package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"notehero/core"
	"notehero/fileformat"
	"notehero/models"
)

var midiOutput string

func init() {
	midiCmd.Flags().StringVarP(&midiOutput, "output", "o", "notes.mid", "MIDI file to write")
	rootCmd.AddCommand(midiCmd)
}

var midiCmd = &cobra.Command{
	Use:   "midi <timeline>",
	Short: "Export a note timeline as a Standard MIDI File",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("%w: %w", fileformat.ErrIO, err)
		}
		defer in.Close()

		events, err := core.ReadTimeline(in)
		if err != nil {
			return err
		}
		notes, err := midiNotes(events)
		if err != nil {
			return err
		}

		out, err := os.Create(midiOutput)
		if err != nil {
			return fmt.Errorf("%w: %w", fileformat.ErrIO, err)
		}
		defer out.Close()

		if err := fileformat.WriteMIDI(out, filepath.Base(args[0]), notes); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🎹 %d notes written to %s\n", len(notes), midiOutput)
		return nil
	},
}

func midiNotes(events []models.NoteEvent) ([]fileformat.MIDINote, error) {
	starts := make([]float64, len(events))
	for i, e := range events {
		starts[i] = e.Timestamp
	}
	durations := fileformat.LegatoDurations(starts)

	notes := make([]fileformat.MIDINote, len(events))
	for i, e := range events {
		n, err := core.ParseNote(e.Note)
		if err != nil {
			return nil, err
		}
		key := n.MIDI()
		if key < 0 || key > 127 {
			return nil, fmt.Errorf("note %s is outside the MIDI range", e.Note)
		}
		notes[i] = fileformat.MIDINote{Start: e.Timestamp, Duration: durations[i], Key: uint8(key)}
	}
	return notes, nil
}
