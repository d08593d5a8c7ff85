/*
Cellgrid replays a maze puzzle: an agent starting at 'O' slides through the grid for
each command until a wall stops it, and the program reports how many distinct cells it
visited. The replay is painted onto a cell grid which can be written out as svg,
printed to the terminal, or watched live in a browser while it runs.
*/

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cellgrid/config"
	"cellgrid/grid"
	"cellgrid/input"
	"cellgrid/maze"
	"cellgrid/render"
	"cellgrid/server"

	channerics "github.com/niceyeti/channerics/channels"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

const (
	// Frames buffered between the replay and the live views.
	frameBuffer = 64
	// Input events buffered between the page and the pointer loop.
	inputBuffer = 64
	// How often the pointer loop checks for clicks on the grid.
	pointerRate = 50 * time.Millisecond
)

// options are the command line settings. Zero values defer to the config file.
type options struct {
	configPath  string
	mazePath    string
	interactive bool
	serve       bool
	host        string
	port        int
	svgPath     string
	tui         bool
	delay       time.Duration
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("cellgrid", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "path to a cellgrid yaml config")
	fs.StringVar(&opts.mazePath, "maze", "", "puzzle file; the built-in sample when empty")
	fs.BoolVar(&opts.interactive, "interactive", false, "read the puzzle from stdin, line by line")
	fs.BoolVar(&opts.serve, "serve", false, "serve a live view of the replay")
	fs.StringVar(&opts.host, "host", "", "the host ip")
	fs.IntVar(&opts.port, "port", 0, "the host port")
	fs.StringVar(&opts.svgPath, "svg", "", "write the final grid as svg to this path")
	fs.BoolVar(&opts.tui, "tui", false, "print the final board in the terminal")
	fs.DurationVar(&opts.delay, "delay", -1, "pause before each move; defaults to the config's step delay when serving")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.interactive && opts.mazePath != "" {
		return nil, errors.New("-interactive and -maze are mutually exclusive")
	}
	return opts, nil
}

// loadConfig layers the settings: defaults, then the config file, then the
// environment (and .env), then flags.
func loadConfig(afs afero.Fs, opts *options) (cfg *config.ReplayConfig, err error) {
	if err = config.LoadDotEnv(afs, ".env"); err != nil {
		return
	}

	cfg = config.Default()
	if opts.configPath != "" {
		if cfg, err = config.FromYaml(afs, opts.configPath); err != nil {
			return
		}
	}
	if err = cfg.ApplyEnv(); err != nil {
		return
	}

	if opts.host != "" {
		cfg.Server.Host = opts.host
	}
	if opts.port != 0 {
		cfg.Server.Port = opts.port
	}
	if opts.delay >= 0 {
		cfg.StepDelay = opts.delay
	} else if !opts.serve {
		// Nobody is watching.
		cfg.StepDelay = 0
	}
	err = cfg.Validate()
	return
}

// puzzleSource queues the puzzle lines: from the maze file, from stdin when
// interactive, or the sample.
func puzzleSource(afs afero.Fs, opts *options, stdin io.Reader, echo io.Writer) (*input.Source, error) {
	if opts.interactive {
		return input.NewSource(stdin, echo), nil
	}

	src := input.NewSource(nil, nil)
	if opts.mazePath == "" {
		src.Provide(maze.Sample)
		return src, nil
	}
	text, err := afero.ReadFile(afs, opts.mazePath)
	if err != nil {
		return nil, fmt.Errorf("read maze: %w", err)
	}
	src.Provide(string(text))
	return src, nil
}

// gridOptions places the grid per cfg. A zero size covers the canvas inside the origin.
func gridOptions(cfg *config.ReplayConfig, canvas *render.Canvas) []grid.Option {
	gc := cfg.Grid
	width, height := gc.Width, gc.Height
	if width <= 0 || height <= 0 {
		width, height = cfg.Canvas.Width-2*gc.X, cfg.Canvas.Height-2*gc.Y
	}
	opts := []grid.Option{
		grid.WithCanvas(canvas),
		grid.WithBounds(gc.X, gc.Y, width, height),
		grid.WithLineWidth(gc.LineWidth),
	}
	if gc.Color != "" {
		opts = append(opts, grid.WithColor(gc.Color))
	}
	return opts
}

func runApp(ctx context.Context, afs afero.Fs, opts *options, stdin io.Reader, stdout io.Writer) (err error) {
	var cfg *config.ReplayConfig
	if cfg, err = loadConfig(afs, opts); err != nil {
		return
	}

	var src *input.Source
	if src, err = puzzleSource(afs, opts, stdin, stdout); err != nil {
		return
	}
	var puzzle *maze.Puzzle
	if puzzle, err = maze.Parse(ctx, src); err != nil {
		return
	}

	images := afero.NewBasePathFs(afs, cfg.Images.Root)
	surface := render.NewSVGSurface(cfg.Canvas.Width, cfg.Canvas.Height)
	canvas := render.NewCanvas(surface, render.NewImageLoader(images))

	var g *grid.Grid
	if g, err = grid.NewGrid(puzzle.Rows, puzzle.Columns, gridOptions(cfg, canvas)...); err != nil {
		return
	}
	var board *maze.Board
	if board, err = maze.NewBoard(ctx, puzzle, g, cfg.MazePalette()); err != nil {
		return
	}

	replayer := maze.NewReplayer(puzzle, maze.WithStepDelay(cfg.StepDelay), board.Follow())
	log.Printf("[replay] %s: %dx%d maze, %d commands", replayer.ID(), puzzle.Rows, puzzle.Columns, len(puzzle.Commands))

	var count int
	if opts.serve {
		count, err = replayLive(ctx, cfg, images, board, replayer, stdout)
	} else {
		count, err = replay(ctx, cfg, replayer)
		fmt.Fprintln(stdout, count)
	}
	if err != nil {
		return
	}
	log.Printf("[replay] %s: visited %d cells in %d steps", replayer.ID(), count, replayer.Steps())

	if opts.svgPath != "" {
		if err = writeSVG(afs, opts.svgPath, surface); err != nil {
			return
		}
	}
	if opts.tui {
		fmt.Fprint(stdout, board.Terminal())
	}
	return
}

// replay runs the replay under the configured deadline. Hitting the deadline is not
// an error; the count so far is reported.
func replay(ctx context.Context, cfg *config.ReplayConfig, replayer *maze.Replayer) (int, error) {
	replayCtx, cancel, err := cfg.WithReplayDeadline(ctx)
	if err != nil {
		return 0, err
	}
	defer cancel()

	count, err := replayer.Run(replayCtx)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		log.Printf("[replay] %s: deadline reached after %d steps", replayer.ID(), replayer.Steps())
		return count, nil
	}
	return count, err
}

// replayLive serves the board while the replay runs, then keeps serving until ctx is
// cancelled. Clicks on the page are reported by cell.
func replayLive(
	ctx context.Context,
	cfg *config.ReplayConfig,
	images afero.Fs,
	board *maze.Board,
	replayer *maze.Replayer,
	stdout io.Writer,
) (count int, err error) {
	// Never closed: the views end with ctx, and closing would drop the open pages.
	frames := make(chan maze.Frame, frameBuffer)
	board.OnFrame(func(frame maze.Frame) {
		select {
		case frames <- frame:
		case <-ctx.Done():
		}
	})

	tracker := input.NewTracker(inputBuffer)
	var srv *server.Server
	if srv, err = server.NewServer(ctx, cfg.Server.Addr(), images, board.Frame(), frames, tracker); err != nil {
		return
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return srv.Serve(groupCtx)
	})
	group.Go(func() error {
		watchPointer(groupCtx, board, tracker)
		return nil
	})
	group.Go(func() error {
		var replayErr error
		if count, replayErr = replay(groupCtx, cfg, replayer); replayErr != nil && groupCtx.Err() == nil {
			return replayErr
		}
		fmt.Fprintln(stdout, count)
		return nil
	})

	err = group.Wait()
	return
}

// watchPointer logs the cell under each new press on the page.
func watchPointer(ctx context.Context, board *maze.Board, tracker *input.Tracker) {
	g := board.Grid()
	for range channerics.NewTicker(ctx.Done(), pointerRate) {
		if g.Activate(tracker.Tick()) {
			cell := g.ActiveCell()
			log.Printf("[input] cell (%d, %d) selected", cell.Row, cell.Column)
		}
	}
}

func writeSVG(afs afero.Fs, path string, surface *render.SVGSurface) error {
	f, err := afs.Create(path)
	if err != nil {
		return err
	}
	if _, err = surface.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = runApp(ctx, afero.NewOsFs(), opts, os.Stdin, os.Stdout); err != nil {
		fmt.Println(err)
		stop()
		os.Exit(1)
	}
}
