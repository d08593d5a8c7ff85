package config

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
)

const sampleYaml = `kind: cellgrid
def:
  stepDelay: 50ms
  replayDeadline:
    duration: 2s
  canvas:
    width: 300
    height: 200
  grid:
    x: 10
    lineWidth: 2
    color: gray
  palette:
    visited: lime
  server:
    port: 9090
`

func TestFromYaml(t *testing.T) {
	Convey("When loading yaml config", t, func() {
		fs := afero.NewMemMapFs()

		Convey("Given settings override defaults, omitted ones keep them", func() {
			So(afero.WriteFile(fs, "/etc/cellgrid/config.yaml", []byte(sampleYaml), 0o644), ShouldBeNil)
			cfg, err := FromYaml(fs, "/etc/cellgrid/config.yaml")
			So(err, ShouldBeNil)
			So(cfg.StepDelay, ShouldEqual, 50*time.Millisecond)
			So(cfg.Canvas, ShouldResemble, CanvasConfig{Width: 300, Height: 200})
			So(cfg.Grid.X, ShouldEqual, 10)
			So(cfg.Grid.LineWidth, ShouldEqual, 2)
			So(cfg.Grid.Color, ShouldEqual, "gray")
			So(cfg.Palette.Visited, ShouldEqual, "lime")
			So(cfg.Palette.Floor, ShouldEqual, "white")
			So(cfg.MazePalette().AgentImage, ShouldEqual, "robot.png")
			So(cfg.Server.Addr(), ShouldEqual, "localhost:9090")
			So(cfg.Images.Root, ShouldEqual, "./assets")
		})

		Convey("The envelope kind must match", func() {
			So(afero.WriteFile(fs, "other.yaml", []byte("kind: racetrack\ndef: {}\n"), 0o644), ShouldBeNil)
			_, err := FromYaml(fs, "other.yaml")
			So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("Unusable settings are rejected", func() {
			So(afero.WriteFile(fs, "bad.yaml", []byte("kind: cellgrid\ndef:\n  canvas:\n    width: 0\n"), 0o644), ShouldBeNil)
			_, err := FromYaml(fs, "bad.yaml")
			So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("A missing file fails", func() {
			_, err := FromYaml(fs, "missing.yaml")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestReplayDeadline(t *testing.T) {
	Convey("When bounding a replay", t, func() {
		ctx := context.Background()

		Convey("A duration sets a deadline", func() {
			cfg := Default()
			cfg.ReplayDeadline = map[string]string{"duration": "1m"}
			inner, cancel, err := cfg.WithReplayDeadline(ctx)
			So(err, ShouldBeNil)
			defer cancel()
			_, ok := inner.Deadline()
			So(ok, ShouldBeTrue)
		})

		Convey("No duration means only cancellation", func() {
			inner, cancel, err := Default().WithReplayDeadline(ctx)
			So(err, ShouldBeNil)
			_, ok := inner.Deadline()
			So(ok, ShouldBeFalse)
			cancel()
			So(inner.Err(), ShouldEqual, context.Canceled)
		})

		Convey("A malformed duration is an error", func() {
			cfg := Default()
			cfg.ReplayDeadline = map[string]string{"duration": "soon"}
			_, _, err := cfg.WithReplayDeadline(ctx)
			So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
		})
	})
}

func TestEnv(t *testing.T) {
	Convey("When applying environment overrides", t, func() {
		cfg := Default()

		Convey("Set variables win", func() {
			t.Setenv(EnvHost, "0.0.0.0")
			t.Setenv(EnvPort, "8181")
			t.Setenv(EnvImageRoot, "/srv/images")
			t.Setenv(EnvStepDelay, "1s")
			So(cfg.ApplyEnv(), ShouldBeNil)
			So(cfg.Server.Addr(), ShouldEqual, "0.0.0.0:8181")
			So(cfg.Images.Root, ShouldEqual, "/srv/images")
			So(cfg.StepDelay, ShouldEqual, time.Second)
		})

		Convey("Malformed values are rejected", func() {
			t.Setenv(EnvPort, "http")
			So(errors.Is(cfg.ApplyEnv(), ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("A .env file fills in unset variables only", func() {
			fs := afero.NewMemMapFs()
			So(afero.WriteFile(fs, ".env", []byte("CELLGRID_HOST=example.test\nCELLGRID_PORT=7070\n"), 0o644), ShouldBeNil)
			t.Setenv(EnvPort, "6060")
			t.Setenv(EnvHost, "")
			So(os.Unsetenv(EnvHost), ShouldBeNil)

			So(LoadDotEnv(fs, ".env"), ShouldBeNil)
			So(os.Getenv(EnvHost), ShouldEqual, "example.test")
			So(os.Getenv(EnvPort), ShouldEqual, "6060")
		})

		Convey("A missing .env file is fine", func() {
			So(LoadDotEnv(afero.NewMemMapFs(), ".env"), ShouldBeNil)
		})
	})
}
