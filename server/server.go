package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"cellgrid/input"
	"cellgrid/maze"
	"cellgrid/server/cell_views"
	"cellgrid/server/fastview"
	"cellgrid/server/root_view"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

const (
	// ImageRoute is where cell images are served from the image filesystem.
	ImageRoute = "/images/"
	// Time allowed for in-flight requests on shutdown.
	shutdownGracePeriod = 5 * time.Second
)

// Server serves the live maze page: the page itself, the websocket syncing it with the
// replay, the cell images and the metrics. Any number of pages may be open; each gets
// its own websocket client fed from a shared hub.
type Server struct {
	addr     string
	rootView *root_view.RootView
	hub      *fastview.Hub
	tracker  *input.Tracker
	metrics  *metrics
	router   *mux.Router

	// The latest board, for rendering newly opened pages.
	mu   sync.Mutex
	last cell_views.Board
}

// NewServer builds the views over frames and the routes serving them. initial is the
// board before the first frame arrives. Input events sent by pages are pushed to
// tracker, which may be nil. Views stop when ctx is cancelled or frames closes.
func NewServer(
	ctx context.Context,
	addr string,
	images afero.Fs,
	initial maze.Frame,
	frames <-chan maze.Frame,
	tracker *input.Tracker,
) (*Server, error) {
	server := &Server{
		addr:    addr,
		hub:     fastview.NewHub(),
		tracker: tracker,
		metrics: newMetrics(),
		last:    cell_views.Convert(initial, ImageRoute),
	}

	rootView, err := root_view.NewRootView(ctx, server.tee(ctx, frames), ImageRoute)
	if err != nil {
		return nil, err
	}
	server.rootView = rootView
	go server.hub.Run(ctx, rootView.Updates())

	router := mux.NewRouter()
	router.HandleFunc("/", server.serveIndex).Methods(http.MethodGet)
	router.HandleFunc("/ws", server.serveWebsocket)
	router.Handle("/metrics", promhttp.HandlerFor(server.metrics.registry, promhttp.HandlerOpts{}))
	router.PathPrefix(ImageRoute).Handler(
		http.StripPrefix(ImageRoute, http.FileServer(afero.NewHttpFs(images).Dir("/"))))
	server.router = router

	return server, nil
}

// Handler returns the server's routes.
func (server *Server) Handler() http.Handler {
	return server.router
}

// Board returns the latest board.
func (server *Server) Board() cell_views.Board {
	server.mu.Lock()
	defer server.mu.Unlock()
	return server.last
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
func (server *Server) Serve(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              server.addr,
		Handler:           server.router,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Println("[server] listening on", server.addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

// tee records each frame as the latest board and forwards it to the views.
func (server *Server) tee(ctx context.Context, frames <-chan maze.Frame) <-chan maze.Frame {
	out := make(chan maze.Frame)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case frame, ok := <-frames:
				if !ok {
					return
				}
				server.metrics.frames.Inc()
				server.metrics.visited.Set(float64(frame.Visited))
				board := cell_views.Convert(frame, ImageRoute)
				server.mu.Lock()
				server.last = board
				server.mu.Unlock()

				select {
				case out <- frame:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// serveWebsocket syncs one page until it disconnects.
func (server *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	cli, err := fastview.NewClient(server.hub, server.receive, w, r)
	if err != nil {
		log.Println("[server] upgrade:", err)
		return
	}

	start := time.Now()
	server.metrics.activeClients.Inc()
	defer func() {
		server.metrics.activeClients.Dec()
		server.metrics.sessionDuration.Observe(time.Since(start).Seconds())
	}()

	if err := cli.Sync(); err != nil {
		log.Printf("[server] client %s: %v", cli.ID(), err)
	}
}

// receive decodes an input event sent by a page and pushes it to the tracker. Bad
// events are logged and dropped; they never end the session.
func (server *Server) receive(clientID string, msg []byte) error {
	var ev input.Event
	if err := json.Unmarshal(msg, &ev); err != nil {
		server.metrics.inputEvents.WithLabelValues("rejected").Inc()
		log.Printf("[server] client %s: bad event: %v", clientID, err)
		return nil
	}
	if server.tracker == nil {
		server.metrics.inputEvents.WithLabelValues("ignored").Inc()
		return nil
	}
	if err := server.tracker.Push(ev); err != nil {
		server.metrics.inputEvents.WithLabelValues("rejected").Inc()
		log.Printf("[server] client %s: %v", clientID, err)
		return nil
	}
	server.metrics.inputEvents.WithLabelValues("accepted").Inc()
	return nil
}

// Serve the index.html main page.
func (server *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	var page bytes.Buffer
	if err := renderTemplate(&page, server.rootView, server.Board()); err != nil {
		log.Println("[server] render:", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	_, _ = page.WriteTo(w)
}

func renderTemplate(
	w io.Writer,
	vc fastview.ViewComponent,
	data interface{},
) (err error) {
	t := template.New("index.html")
	var tname string
	if tname, err = vc.Parse(t); err != nil {
		return
	}
	if _, err = t.Parse(`{{ template "` + tname + `" . }}`); err != nil {
		return
	}

	err = t.Execute(w, data)
	return
}
