package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"notehero/config"
	"notehero/db"
)

const storeHelp = `Runs are stored with the DB_DRIVER backend. The default "memory" driver
keeps them only while the process runs; set DB_DRIVER=postgres (and DB_*)
to keep scores between games.`

var scoresFlags struct {
	song   string
	player string
	limit  int
}

func init() {
	f := scoresCmd.Flags()
	f.StringVar(&scoresFlags.song, "song", "", "only show runs of this song")
	f.StringVar(&scoresFlags.player, "player", "", "only show runs of this player")
	f.IntVar(&scoresFlags.limit, "limit", 10, "number of runs to show")
	rootCmd.AddCommand(scoresCmd)
}

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "List the best stored runs",
	Long:  "List the best stored runs.\n\n" + storeHelp,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := db.NewDBClient(cfg.Database)
		if err != nil {
			return err
		}
		defer store.Close()

		return listScores(context.Background(), store, cfg.Database, db.RunFilter{
			Song:   scoresFlags.song,
			Player: scoresFlags.player,
			Limit:  scoresFlags.limit,
		}, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func listScores(ctx context.Context, store db.DBClient, d config.Database, f db.RunFilter, out, errOut io.Writer) error {
	if !d.Persistent() {
		fmt.Fprintf(errOut, "warning: database driver %q does not keep runs between processes, set DB_DRIVER=postgres\n", d.Driver)
	}

	runs, err := store.ListRuns(ctx, f)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tPLAYER\tSONG\tHITS\tNOTES\tOUTCOME\tFINISHED")
	for _, r := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\t%s\n",
			r.Score, r.Player, r.Song, r.Hits, r.Notes, r.Outcome, r.FinishedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}
