package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mdobak/go-xerrors"
	"github.com/spf13/cobra"

	"notehero/config"
	"notehero/db"
	"notehero/fileformat"
	"notehero/game"
	"notehero/input"
	"notehero/playback"
	"notehero/render"
	"notehero/utils"
)

var playFlags struct {
	audio      string
	player     string
	hitWindow  float64
	maxMisses  int
	lanes      int
	laneBase   int
	noJoystick bool
	countdown  int
}

func init() {
	f := playCmd.Flags()
	f.StringVar(&playFlags.audio, "audio", "", "song to play along with")
	f.StringVar(&playFlags.player, "player", utils.GetEnv("USER", "player"), "name stored with the score")
	f.Float64Var(&playFlags.hitWindow, "hit-window", 0, "seconds either side of a note that still count as a hit")
	f.IntVar(&playFlags.maxMisses, "max-misses", 0, "consecutive misses that end the game")
	f.IntVar(&playFlags.lanes, "lanes", 0, "number of lanes")
	f.IntVar(&playFlags.laneBase, "lane-base", 0, "id of the first lane key, 0 or 1")
	f.BoolVar(&playFlags.noJoystick, "no-joystick", false, "do not look for a joystick")
	f.IntVar(&playFlags.countdown, "countdown", 0, "seconds to count down before the song")
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play <timeline>",
	Short: "Play the rhythm game against a note timeline",
	Long:  "Play the rhythm game against a note timeline.\n\n" + storeHelp,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g := cfg.Game
		flags := cmd.Flags()
		if flags.Changed("hit-window") {
			g.HitWindow = playFlags.hitWindow
		}
		if flags.Changed("max-misses") {
			g.MaxMisses = playFlags.maxMisses
		}
		if flags.Changed("lanes") {
			g.LaneCount = playFlags.lanes
		}
		if flags.Changed("lane-base") {
			g.LaneBase = playFlags.laneBase
		}
		if flags.Changed("countdown") {
			g.Countdown = playFlags.countdown
		}
		return play(cmd.Context(), args[0], g)
	},
}

func gameConfig(g config.Game) game.Config {
	c := game.DefaultConfig()
	c.HitWindow = g.HitWindow
	c.MaxMisses = g.MaxMisses
	c.Lanes = game.LaneMap{Count: g.LaneCount, Base: g.LaneBase}
	c.PreviewHorizon = g.PreviewHorizon
	return c
}

func play(ctx context.Context, timelinePath string, g config.Game) error {
	logger := utils.GetLogger()

	f, err := os.Open(timelinePath)
	if err != nil {
		return fmt.Errorf("%w: %w", fileformat.ErrIO, err)
	}
	matcher, err := game.Load(f, gameConfig(g))
	f.Close()
	if err != nil {
		return err
	}

	player := openPlayer(logger)
	defer player.Close()
	matcher.SetStopper(player)

	store, err := db.NewDBClient(cfg.Database)
	if err != nil {
		logger.Warn("score store unavailable, scores are kept in memory", slog.Any("error", err))
		store = db.NewMemoryClient()
	}
	defer store.Close()

	sources := input.NewMulti()
	kb, err := input.OpenKeyboard()
	sources.Add("keyboard", kb, err)
	if !playFlags.noJoystick {
		js, err := input.OpenJoystick(g.Joystick, g.LaneCount, g.LaneBase)
		sources.Add("joystick", js, err)
	}
	// restores the terminal on every exit path
	defer sources.Close()
	if sources.Len() == 0 {
		logger.Warn("no input sources, the game will run without presses")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	screen := render.NewTerminal(os.Stdout, game.LaneMap{Count: g.LaneCount, Base: g.LaneBase}, g.PreviewHorizon)
	if err := screen.Countdown(g.Countdown, time.Sleep); err != nil {
		logger.Debug("countdown not shown", slog.Any("error", err))
	}

	player.Start()
	runner := &game.Runner{
		Matcher: matcher,
		Clock:   player,
		Input:   sources,
		Sink:    screen,
		FPS:     g.TargetFPS,
		LeadIn:  g.LeadIn,
		Logger:  logger,
	}
	state, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	sources.Close()

	song := filepath.Base(timelinePath)
	if playFlags.audio != "" {
		song = filepath.Base(playFlags.audio)
	}
	record := matcher.Record(song, playFlags.player)
	if err := store.SaveRuns(context.Background(), record); err != nil {
		logger.Error("failed to save score", slog.Any("error", xerrors.New(err)))
	} else if !cfg.Database.Persistent() {
		logger.Warn("score is kept in memory only, set DB_DRIVER=postgres to keep it", slog.String("driver", cfg.Database.Driver))
	}

	fmt.Printf("\r\n🏁 %s - score %d, hits %d, misses %d, best combo x%d\r\n",
		record.Outcome, state.Score, state.Hits, state.Misses, state.MaxCombo)
	return nil
}

// openPlayer falls back to a silent clock when the song cannot be played.
func openPlayer(logger *slog.Logger) playback.Player {
	if playFlags.audio == "" {
		return playback.NewSilent()
	}
	pcm, err := fileformat.LoadFile(playFlags.audio, fileformat.DecodeOptions{MaxSamples: cfg.Analysis.MaxSamples})
	if err != nil {
		logger.Warn("cannot load audio, playing silently", slog.Any("error", err))
		return playback.NewSilent()
	}
	p, err := playback.NewPlayer(pcm)
	if err != nil {
		logger.Warn("audio output unavailable, playing silently", slog.Any("error", err))
		return playback.NewSilent()
	}
	return p
}
