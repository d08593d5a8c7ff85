// config loads the replay and server settings from a yaml file, then applies
// environment overrides.
package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"cellgrid/maze"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const Kind = "cellgrid"

var ErrInvalidConfig = errors.New("invalid config")

// OuterConfig is the file envelope: a kind tag and the definition it describes.
type OuterConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

type CanvasConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// GridConfig places the maze grid on the canvas. A zero width or height covers the
// canvas, inset by the origin.
type GridConfig struct {
	X         float64 `yaml:"x"`
	Y         float64 `yaml:"y"`
	Width     float64 `yaml:"width"`
	Height    float64 `yaml:"height"`
	LineWidth float64 `yaml:"linewidth"`
	Color     string  `yaml:"color"`
}

type PaletteConfig struct {
	Floor      string `yaml:"floor"`
	Visited    string `yaml:"visited"`
	Wall       string `yaml:"wall"`
	WallImage  string `yaml:"wallimage"`
	AgentImage string `yaml:"agentimage"`
}

type ImagesConfig struct {
	// Root is the directory image paths are resolved against.
	Root string `yaml:"root"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr is the server's listen address.
func (sc ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", sc.Host, sc.Port)
}

// ReplayConfig is everything a run needs besides the puzzle itself. Viper lowercases
// every key it reads, so the yaml tags are lowercase; files may use any case.
type ReplayConfig struct {
	// StepDelay paces the replay for a live view; zero replays at full speed.
	StepDelay time.Duration `yaml:"stepdelay"`
	// ReplayDeadline optionally bounds a replay, e.g. {duration: 30s}.
	ReplayDeadline map[string]string `yaml:"replaydeadline"`
	Canvas         CanvasConfig      `yaml:"canvas"`
	Grid           GridConfig        `yaml:"grid"`
	Palette        PaletteConfig     `yaml:"palette"`
	Images         ImagesConfig      `yaml:"images"`
	Server         ServerConfig      `yaml:"server"`
}

// Default returns the settings of the shipped sample.
func Default() *ReplayConfig {
	return &ReplayConfig{
		StepDelay: 200 * time.Millisecond,
		Canvas:    CanvasConfig{Width: 500, Height: 500},
		Grid:      GridConfig{LineWidth: 1, Color: "black"},
		Palette: PaletteConfig{
			Floor:      maze.DefaultPalette.Floor,
			Visited:    maze.DefaultPalette.Visited,
			Wall:       maze.DefaultPalette.Wall,
			WallImage:  maze.DefaultPalette.WallImage,
			AgentImage: maze.DefaultPalette.AgentImage,
		},
		Images: ImagesConfig{Root: "./assets"},
		Server: ServerConfig{Host: "localhost", Port: 8080},
	}
}

// MazePalette converts the palette settings for a maze board.
func (cfg *ReplayConfig) MazePalette() maze.Palette {
	return maze.Palette{
		Floor:      cfg.Palette.Floor,
		Visited:    cfg.Palette.Visited,
		Wall:       cfg.Palette.Wall,
		WallImage:  cfg.Palette.WallImage,
		AgentImage: cfg.Palette.AgentImage,
	}
}

// WithReplayDeadline returns a context bounded by the replay deadline, if one is specified.
func (cfg *ReplayConfig) WithReplayDeadline(
	ctx context.Context,
) (context.Context, context.CancelFunc, error) {
	if val, ok := cfg.ReplayDeadline["duration"]; ok {
		duration, err := time.ParseDuration(val)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: replay deadline: %v", ErrInvalidConfig, err)
		}
		innerCtx, cancel := context.WithTimeout(ctx, duration)
		return innerCtx, cancel, nil
	}
	innerCtx, cancel := context.WithCancel(ctx)
	return innerCtx, cancel, nil
}

// Validate rejects settings no run could use.
func (cfg *ReplayConfig) Validate() error {
	switch {
	case cfg.StepDelay < 0:
		return fmt.Errorf("%w: negative step delay %s", ErrInvalidConfig, cfg.StepDelay)
	case cfg.Canvas.Width <= 0 || cfg.Canvas.Height <= 0:
		return fmt.Errorf("%w: canvas must have a positive size", ErrInvalidConfig)
	case cfg.Grid.LineWidth < 0:
		return fmt.Errorf("%w: negative line width", ErrInvalidConfig)
	case cfg.Server.Port < 0 || cfg.Server.Port > 65535:
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, cfg.Server.Port)
	}
	return nil
}

// FromYaml reads the config at path on fs. Settings the file omits keep their defaults.
func FromYaml(fs afero.Fs, path string) (*ReplayConfig, error) {
	vp := viper.New()
	vp.SetFs(fs)
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	var err error
	if err = vp.ReadInConfig(); err != nil {
		return nil, err
	}

	outerConfig := &OuterConfig{}
	if err = vp.Unmarshal(outerConfig); err != nil {
		return nil, err
	}
	if outerConfig.Kind != Kind {
		return nil, fmt.Errorf("%w: kind %q, expected %q", ErrInvalidConfig, outerConfig.Kind, Kind)
	}

	var def []byte
	if def, err = yaml.Marshal(outerConfig.Def); err != nil {
		return nil, err
	}

	innerConfig := Default()
	if err = yaml.Unmarshal(def, innerConfig); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err = innerConfig.Validate(); err != nil {
		return nil, err
	}
	return innerConfig, nil
}
