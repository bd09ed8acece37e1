// Package config collects the tunables of the extraction pipeline and the
// game from the environment. A .env file in the working directory is loaded
// first when present.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"

	"notehero/utils"
)

type Analysis struct {
	FrameSize      int
	Threshold      float64
	Window         string
	LowestOctave   int
	Octaves        int
	PitchTolerance float64
	MaxSamples     int
}

type Game struct {
	HitWindow      float64
	MaxMisses      int
	LaneCount      int
	LaneBase       int
	PreviewHorizon float64
	LeadIn         float64
	Countdown      int
	TargetFPS      int
	Joystick       string
}

type Database struct {
	// Driver is "postgres" or "memory".
	Driver string
	User   string
	Pass   string
	Host   string
	Port   string
	Name   string
	SSL    string
}

// Persistent reports whether stored runs outlive the process. The memory
// driver keeps them only until exit.
func (d Database) Persistent() bool {
	return d.Driver == "postgres"
}

func (d Database) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Pass, d.Host, d.Port, d.Name, d.SSL)
}

type HTTP struct {
	Addr        string
	CORSOrigins []string
}

type Config struct {
	Analysis Analysis
	Game     Game
	Database Database
	HTTP     HTTP
}

func Default() Config {
	return Config{
		Analysis: Analysis{
			FrameSize:      4096,
			Threshold:      10.0,
			Window:         "none",
			LowestOctave:   2,
			Octaves:        4,
			PitchTolerance: 0.05,
			MaxSamples:     1 << 28,
		},
		Game: Game{
			HitWindow:      0.15,
			MaxMisses:      3,
			LaneCount:      4,
			LaneBase:       1,
			PreviewHorizon: 2.0,
			LeadIn:         0.5,
			Countdown:      3,
			TargetFPS:      60,
			Joystick:       "/dev/input/js0",
		},
		Database: Database{
			Driver: "memory",
			User:   "postgres",
			Host:   "localhost",
			Port:   "5432",
			Name:   "notehero",
			SSL:    "disable",
		},
		HTTP: HTTP{
			Addr:        ":8080",
			CORSOrigins: []string{"*"},
		},
	}
}

// Load returns Default overridden by environment variables.
func Load() (Config, error) {
	// missing .env is fine
	_ = godotenv.Load()

	cfg := Default()
	var errs []error
	intVar := func(dst *int, key string) {
		v, err := utils.GetEnvInt(key, *dst)
		errs = append(errs, err)
		*dst = v
	}
	floatVar := func(dst *float64, key string) {
		v, err := utils.GetEnvFloat(key, *dst)
		errs = append(errs, err)
		*dst = v
	}

	a := &cfg.Analysis
	intVar(&a.FrameSize, "FRAME_SIZE")
	floatVar(&a.Threshold, "MAGNITUDE_THRESHOLD")
	a.Window = utils.GetEnv("WINDOW", a.Window)
	intVar(&a.LowestOctave, "LOWEST_OCTAVE")
	intVar(&a.Octaves, "OCTAVES")
	floatVar(&a.PitchTolerance, "PITCH_TOLERANCE")
	intVar(&a.MaxSamples, "MAX_SAMPLES")

	g := &cfg.Game
	floatVar(&g.HitWindow, "HIT_WINDOW")
	intVar(&g.MaxMisses, "MAX_MISSES")
	intVar(&g.LaneCount, "LANE_COUNT")
	intVar(&g.LaneBase, "LANE_BASE")
	floatVar(&g.PreviewHorizon, "PREVIEW_HORIZON")
	floatVar(&g.LeadIn, "LEAD_IN")
	intVar(&g.Countdown, "COUNTDOWN")
	intVar(&g.TargetFPS, "TARGET_FPS")
	g.Joystick = utils.GetEnv("JOYSTICK_DEVICE", g.Joystick)

	d := &cfg.Database
	d.Driver = utils.GetEnv("DB_DRIVER", d.Driver)
	d.User = utils.GetEnv("DB_USER", d.User)
	d.Pass = utils.GetEnv("DB_PASS", d.Pass)
	d.Host = utils.GetEnv("DB_HOST", d.Host)
	d.Port = utils.GetEnv("DB_PORT", d.Port)
	d.Name = utils.GetEnv("DB_NAME", d.Name)
	d.SSL = utils.GetEnv("DB_SSLMODE", d.SSL)

	cfg.HTTP.Addr = utils.GetEnv("HTTP_ADDR", cfg.HTTP.Addr)
	if origins := utils.GetEnv("CORS_ORIGINS"); origins != "" {
		cfg.HTTP.CORSOrigins = strings.Split(origins, ",")
	}

	if err := errors.Join(errs...); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	a, g := c.Analysis, c.Game
	if a.FrameSize < 2 || a.FrameSize&(a.FrameSize-1) != 0 {
		errs = append(errs, fmt.Errorf("frame size %d is not a power of two", a.FrameSize))
	}
	switch a.Window {
	case "none", "hann", "hamming":
	default:
		errs = append(errs, fmt.Errorf("unknown window %q", a.Window))
	}
	if a.Octaves < 1 {
		errs = append(errs, fmt.Errorf("octaves must be positive, got %d", a.Octaves))
	}
	if a.PitchTolerance <= 0 {
		errs = append(errs, fmt.Errorf("pitch tolerance must be positive"))
	}
	if g.HitWindow < 0 {
		errs = append(errs, fmt.Errorf("hit window must not be negative"))
	}
	if g.MaxMisses < 1 {
		errs = append(errs, fmt.Errorf("max misses must be at least 1"))
	}
	if g.LaneCount < 1 || g.LaneCount > 7 {
		errs = append(errs, fmt.Errorf("lane count must be within 1..7, got %d", g.LaneCount))
	}
	if g.LaneBase != 0 && g.LaneBase != 1 {
		errs = append(errs, fmt.Errorf("lane base must be 0 or 1, got %d", g.LaneBase))
	}
	if g.TargetFPS < 1 {
		errs = append(errs, fmt.Errorf("target fps must be positive"))
	}
	switch c.Database.Driver {
	case "memory", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}
	return errors.Join(errs...)
}
