package server

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cellgrid/grid"
	"cellgrid/input"
	"cellgrid/maze"
	"cellgrid/render"
	"cellgrid/server/fastview"

	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
)

func imageFs() afero.Fs {
	mem := afero.NewMemMapFs()
	for _, name := range []string{"/robot.png", "/lada.png"} {
		var buf bytes.Buffer
		if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))); err != nil {
			panic(err)
		}
		if err := afero.WriteFile(mem, name, buf.Bytes(), 0o644); err != nil {
			panic(err)
		}
	}
	return afero.NewBasePathFs(mem, "/")
}

func get(t *testing.T, url string) (int, string) {
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, string(body)
}

// eventually polls cond for up to five seconds.
func eventually(cond func() bool) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestServer(t *testing.T) {
	Convey("Given a server following a replay", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		images := imageFs()
		puzzle, err := maze.Parse(ctx, func() *input.Source {
			src := input.NewSource(nil, nil)
			src.Provide(maze.Sample)
			return src
		}())
		So(err, ShouldBeNil)
		canvas := render.NewCanvas(render.NewSVGSurface(106, 106), render.NewImageLoader(images))
		g, err := grid.NewGrid(puzzle.Rows, puzzle.Columns, grid.WithCanvas(canvas))
		So(err, ShouldBeNil)
		board, err := maze.NewBoard(ctx, puzzle, g, maze.DefaultPalette)
		So(err, ShouldBeNil)
		So(board.Err(), ShouldBeNil)

		frames := make(chan maze.Frame, 64)
		board.OnFrame(func(f maze.Frame) { frames <- f })
		tracker := input.NewTracker(16)

		srv, err := NewServer(ctx, "127.0.0.1:0", images, board.Frame(), frames, tracker)
		So(err, ShouldBeNil)
		ts := httptest.NewServer(srv.Handler())
		defer ts.Close()

		count, err := maze.NewReplayer(puzzle, board.Follow()).Run(ctx)
		So(err, ShouldBeNil)
		So(count, ShouldEqual, 6)
		So(eventually(func() bool { return srv.Board().Visited == 6 }), ShouldBeTrue)

		Convey("The page renders the latest board", func() {
			status, body := get(t, ts.URL+"/")
			So(status, ShouldEqual, http.StatusOK)
			So(body, ShouldContainSubstring, `<span id="status-visited">6</span>`)
			So(body, ShouldContainSubstring, `id="cell-3-3-image" href="/images/robot.png"`)
		})

		Convey("Images are served from the image filesystem", func() {
			status, body := get(t, ts.URL+"/images/robot.png")
			So(status, ShouldEqual, http.StatusOK)
			So(strings.HasPrefix(body, "\x89PNG"), ShouldBeTrue)
			status, _ = get(t, ts.URL+"/images/missing.png")
			So(status, ShouldEqual, http.StatusNotFound)
		})

		Convey("Metrics count the frames", func() {
			status, body := get(t, ts.URL+"/metrics")
			So(status, ShouldEqual, http.StatusOK)
			So(body, ShouldContainSubstring, "cellgrid_frames_total 12")
			So(body, ShouldContainSubstring, "cellgrid_visited_cells 6")
		})

		Convey("A websocket page is synced and its input reaches the tracker", func() {
			url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
			conn, _, err := websocket.DefaultDialer.Dial(url, nil)
			So(err, ShouldBeNil)
			defer conn.Close()

			So(conn.SetReadDeadline(time.Now().Add(5*time.Second)), ShouldBeNil)
			visited := ""
			for visited != "6" {
				var updates []fastview.EleUpdate
				if err := conn.ReadJSON(&updates); err != nil {
					So(err, ShouldBeNil)
					break
				}
				for _, update := range updates {
					if update.EleId == "status-visited" {
						visited = update.Ops[0].Value
					}
				}
			}
			So(visited, ShouldEqual, "6")

			x, y := g.Center(2, 2)
			So(conn.WriteMessage(websocket.TextMessage,
				[]byte(fmt.Sprintf(`{"type":"pointerdown","button":0,"x":%g,"y":%g}`, x, y))), ShouldBeNil)
			So(conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"keydown","code":"Nope"}`)), ShouldBeNil)

			var snap input.Snapshot
			So(eventually(func() bool {
				snap = tracker.Tick()
				return snap.Mouse.Left
			}), ShouldBeTrue)
			So(g.Activate(snap), ShouldBeTrue)
			So(g.ActiveCell(), ShouldEqual, g.At(2, 2))

			So(eventually(func() bool {
				_, body := get(t, ts.URL+"/metrics")
				return strings.Contains(body, `cellgrid_input_events_total{result="rejected"} 1`)
			}), ShouldBeTrue)
		})
	})
}

func TestServe(t *testing.T) {
	Convey("Serve stops when its context is cancelled", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		frames := make(chan maze.Frame)
		srv, err := NewServer(ctx, "127.0.0.1:0", afero.NewMemMapFs(), maze.Frame{}, frames, nil)
		So(err, ShouldBeNil)

		served := make(chan error, 1)
		go func() { served <- srv.Serve(ctx) }()
		time.Sleep(50 * time.Millisecond)
		cancel()

		select {
		case err := <-served:
			So(err, ShouldBeNil)
		case <-time.After(10 * time.Second):
			So(fmt.Errorf("serve did not return"), ShouldBeNil)
		}
	})
}
