package fastview

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	. "github.com/smartystreets/goconvey/convey"
)

type countView struct {
	updates <-chan []EleUpdate
}

func (cv *countView) Updates() <-chan []EleUpdate { return cv.updates }

func (cv *countView) Parse(t *template.Template) (string, error) {
	_, err := t.Parse(`{{ define "count" }}<span id="count">{{ . }}</span>{{ end }}`)
	return "count", err
}

func newCountView(done <-chan struct{}, values <-chan string) ViewComponent {
	return &countView{
		updates: channerics.Convert(done, values, func(s string) []EleUpdate {
			return []EleUpdate{{EleId: "count", Ops: []Op{{Key: "textContent", Value: s}}}}
		}),
	}
}

func TestViewBuilder(t *testing.T) {
	Convey("When building views", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		Convey("Every view receives every converted item", func() {
			input := make(chan int)
			views, err := NewViewBuilder[int, string]().
				WithContext(ctx).
				WithModel(input, strconv.Itoa).
				WithView(newCountView).
				WithView(newCountView).
				Build()
			So(err, ShouldBeNil)
			So(len(views), ShouldEqual, 2)

			go func() { input <- 42 }()
			for _, view := range views {
				select {
				case updates := <-view.Updates():
					So(updates[0].Ops[0].Value, ShouldEqual, "42")
				case <-time.After(time.Second):
					So(fmt.Errorf("no update received"), ShouldBeNil)
				}
			}
		})

		Convey("Missing views or model are errors", func() {
			_, err := NewViewBuilder[int, string]().WithModel(make(chan int), strconv.Itoa).Build()
			So(err, ShouldEqual, ErrNoViews)
			_, err = NewViewBuilder[int, string]().WithView(newCountView).Build()
			So(err, ShouldEqual, ErrNoModel)
		})
	})
}

func update(id, value string) EleUpdate {
	return EleUpdate{EleId: id, Ops: []Op{{Key: "fill", Value: value}}}
}

func TestBatchify(t *testing.T) {
	Convey("When batching updates", t, func() {
		done := make(chan struct{})
		defer close(done)
		source := make(chan []EleUpdate)
		batches := Batchify(done, source, time.Hour)

		Convey("Later values for an element replace earlier ones and order is kept", func() {
			source <- []EleUpdate{update("a", "red"), update("b", "red")}
			source <- []EleUpdate{update("a", "green")}
			close(source)

			batch := <-batches
			So(batch, ShouldResemble, []EleUpdate{update("a", "green"), update("b", "red")})
			_, open := <-batches
			So(open, ShouldBeFalse)
		})
	})
}

func TestHub(t *testing.T) {
	Convey("When fanning out updates", t, func() {
		hub := NewHub()

		Convey("Subscribers accumulate pending updates until taken", func() {
			sub := hub.Subscribe()
			So(hub.Subscribers(), ShouldEqual, 1)
			hub.Publish([]EleUpdate{update("a", "red")})
			hub.Publish([]EleUpdate{update("a", "green"), update("b", "red")})

			<-sub.Ready()
			So(sub.Take(), ShouldResemble, []EleUpdate{update("a", "green"), update("b", "red")})
			So(sub.Take(), ShouldBeNil)

			hub.Unsubscribe(sub)
			So(hub.Subscribers(), ShouldEqual, 0)
		})

		Convey("Late subscribers start from the latest state", func() {
			hub.Publish([]EleUpdate{update("a", "red")})
			hub.Publish([]EleUpdate{update("a", "blue")})
			sub := hub.Subscribe()
			So(sub.Take(), ShouldResemble, []EleUpdate{update("a", "blue")})
		})

		Convey("Stopping the hub closes subscriptions", func() {
			sub := hub.Subscribe()
			source := make(chan []EleUpdate)
			stopped := make(chan struct{})
			go func() {
				hub.Run(context.Background(), source)
				close(stopped)
			}()
			source <- []EleUpdate{update("x", "red")}
			close(source)
			<-stopped

			<-sub.Done()
			So(sub.Take(), ShouldResemble, []EleUpdate{update("x", "red")})
			_, open := <-hub.Subscribe().Done()
			So(open, ShouldBeFalse)
		})
	})
}

func TestClient(t *testing.T) {
	Convey("When a page connects", t, func() {
		hub := NewHub()
		received := make(chan string, 4)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cli, err := NewClient(hub, func(id string, msg []byte) error {
				received <- string(msg)
				return nil
			}, w, r)
			if err != nil {
				return
			}
			_ = cli.Sync()
		}))
		defer srv.Close()

		url := "ws" + strings.TrimPrefix(srv.URL, "http")
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		So(err, ShouldBeNil)
		defer conn.Close()

		Convey("Published updates arrive and page messages are received", func() {
			for hub.Subscribers() == 0 {
				time.Sleep(time.Millisecond)
			}
			hub.Publish([]EleUpdate{update("cell", "green")})

			So(conn.SetReadDeadline(time.Now().Add(5*time.Second)), ShouldBeNil)
			var updates []EleUpdate
			So(conn.ReadJSON(&updates), ShouldBeNil)
			So(updates, ShouldResemble, []EleUpdate{update("cell", "green")})

			So(conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"blur"}`)), ShouldBeNil)
			select {
			case msg := <-received:
				So(msg, ShouldEqual, `{"type":"blur"}`)
			case <-time.After(5 * time.Second):
				So(fmt.Errorf("no message received"), ShouldBeNil)
			}
		})
	})
}
