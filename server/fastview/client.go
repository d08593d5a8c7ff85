package fastview

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 1 * time.Second
	// Maximum message size allowed from peer.
	maxMessageSize = 8192

	// The rate at which ele-updates are sent to the client, so as not to overburden it.
	pubResolution  = time.Millisecond * 100
	pingResolution = time.Millisecond * 200
	// The number of pings that may go unanswered before the peer is considered gone.
	pongWait = pingResolution * 4
)

var upgrader = websocket.Upgrader{}

// Receiver handles one message sent by the page.
type Receiver func(clientID string, msg []byte) error

// Client syncs one page over one websocket: it publishes the hub's updates, at most
// once per pubResolution, and hands every message the page sends to a Receiver.
type Client struct {
	id      string
	hub     *Hub
	sub     *Subscription
	receive Receiver
	ws      *websock
	rootCtx context.Context
}

// NewClient upgrades the request to a websocket and subscribes it to hub. A nil
// receive discards page messages.
func NewClient(
	hub *Hub,
	receive Receiver,
	w http.ResponseWriter,
	r *http.Request,
) (*Client, error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		return nil, err
	}
	ws.SetReadLimit(maxMessageSize)

	return &Client{
		id:      uuid.NewString(),
		hub:     hub,
		sub:     hub.Subscribe(),
		receive: receive,
		ws:      NewWebSocket(ws),
		rootCtx: r.Context(),
	}, nil
}

func (cli *Client) ID() string { return cli.id }

// errClientDone ends a sync without error: the page left or the hub stopped.
var errClientDone = errors.New("client done")

// Sync runs the client until the page disconnects, the hub stops or the request
// context ends. It returns nil on any of these, or the unexpected error that ended it.
func (cli *Client) Sync() error {
	defer cli.hub.Unsubscribe(cli.sub)

	// Pong handlers run inside reads, so the handler is set before reading starts.
	pong := make(chan struct{}, 1)
	cli.ws.Conn().SetPongHandler(func(_ string) error {
		select {
		case pong <- struct{}{}:
		default:
		}
		return nil
	})

	group, groupCtx := errgroup.WithContext(cli.rootCtx)

	group.Go(func() error {
		return cli.readMessages(groupCtx)
	})
	group.Go(func() error {
		return cli.pingPong(groupCtx, pong)
	})
	group.Go(func() error {
		return cli.publish(groupCtx)
	})
	// Reads block on the connection, so closing it is what stops readMessages.
	group.Go(func() error {
		<-groupCtx.Done()
		cli.ws.Close()
		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, errClientDone) {
		return err
	}
	return nil
}

var ErrPongDeadlineExceeded error = errors.New("client disconnect, pong deadline exceeded")

// pingPong is the liveness check; pong receives a value per pong read by readMessages.
func (cli *Client) pingPong(ctx context.Context, pong <-chan struct{}) error {
	pinger := channerics.NewTicker(ctx.Done(), pingResolution)
	lastPong := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pinger:
			if time.Since(lastPong) > pongWait {
				return ErrPongDeadlineExceeded
			}

			if err := cli.ping(ctx); err != nil {
				return err
			}
		case <-pong:
			lastPong = time.Now()
		}
	}
}

func (cli *Client) ping(ctx context.Context) error {
	return cli.ws.Write(
		ctx,
		func(ws *websocket.Conn) (err error) {
			if err = ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				err = fmt.Errorf("ping failed: %w", err)
			}
			return
		})
}

// readMessages hands page messages to the receiver. Errors returned by websocket Read
// methods are permanent, hence any error tears the client down.
func (cli *Client) readMessages(ctx context.Context) error {
	for {
		var msg []byte
		err := cli.ws.Read(
			ctx,
			func(ws *websocket.Conn) (readErr error) {
				_, msg, readErr = ws.ReadMessage()
				return
			})
		switch {
		case isClosure(err):
			return errClientDone
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read failed: %w", err)
		case ctx.Err() != nil:
			return nil
		}

		if cli.receive != nil && msg != nil {
			if err = cli.receive(cli.id, msg); err != nil {
				return err
			}
		}
	}
}

// publish sends the subscription's pending updates once per pubResolution. Updates that
// arrive in between are coalesced per element, never dropped.
func (cli *Client) publish(ctx context.Context) error {
	ticker := channerics.NewTicker(ctx.Done(), pubResolution)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-cli.sub.Done():
			if err := cli.send(ctx, cli.sub.Take()); err != nil {
				return err
			}
			return errClientDone
		case <-ticker:
			if err := cli.send(ctx, cli.sub.Take()); err != nil {
				return err
			}
		}
	}
}

func (cli *Client) send(ctx context.Context, updates []EleUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	return cli.ws.Write(
		ctx,
		func(ws *websocket.Conn) (writeErr error) {
			if writeErr = ws.SetWriteDeadline(time.Now().Add(writeWait)); writeErr != nil {
				return fmt.Errorf("failed to set deadline: %w", writeErr)
			}
			if writeErr = ws.WriteJSON(updates); writeErr != nil {
				writeErr = fmt.Errorf("publish failed: %w", writeErr)
			}
			return
		})
}

func isClosure(err error) bool {
	return err != nil && websocket.IsCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}

// ErrSockCongestion indicates there are too many waiters on the socket for a given op.
var ErrSockCongestion = errors.New("sock op failed due to congestion")

const (
	sockWait = time.Second
)

// websock serializes reads and writes to the websocket, which allows at most one
// concurrent reader and one concurrent writer.
type websock struct {
	// Mutexes, as channels so waits can select on a context.
	readSem  chan struct{}
	writeSem chan struct{}
	ws       *websocket.Conn
	closed   chan struct{}
}

func NewWebSocket(ws *websocket.Conn) *websock {
	return &websock{
		readSem:  make(chan struct{}, 1),
		writeSem: make(chan struct{}, 1),
		ws:       ws,
		closed:   make(chan struct{}),
	}
}

// Conn returns the underlying websocket, for non-concurrent setup such as adding handlers.
func (sock *websock) Conn() *websocket.Conn {
	return sock.ws
}

// Close sends a close frame, once no writer holds the socket, and closes the connection.
func (sock *websock) Close() {
	select {
	case <-sock.closed:
		return
	default:
		close(sock.closed)
	}

	select {
	case sock.writeSem <- struct{}{}:
		_ = sock.ws.SetWriteDeadline(time.Now().Add(writeWait))
		_ = sock.ws.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		<-sock.writeSem
	case <-time.After(sockWait):
	}
	sock.ws.Close()
}

// Read serializes read operations on the internal web socket.
func (sock *websock) Read(
	ctx context.Context,
	readFn func(*websocket.Conn) error,
) error {
	select {
	case <-ctx.Done():
		return nil
	case sock.readSem <- struct{}{}:
		defer func() { <-sock.readSem }()
		return readFn(sock.ws)
	case <-time.After(sockWait):
		return ErrSockCongestion
	}
}

// Write serializes write operations to the websocket.
func (sock *websock) Write(
	ctx context.Context,
	writeFn func(*websocket.Conn) error,
) error {
	select {
	case <-ctx.Done():
		return nil
	case <-sock.closed:
		return nil
	case sock.writeSem <- struct{}{}:
		defer func() { <-sock.writeSem }()
		return writeFn(sock.ws)
	case <-time.After(sockWait):
		return ErrSockCongestion
	}
}
