package root_view

import (
	"context"
	"html/template"
	"time"

	"cellgrid/maze"
	"cellgrid/server/cell_views"
	"cellgrid/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// batchRate bounds how often the merged view updates are emitted.
const batchRate = time.Millisecond * 20

// RootView is the main page: the container for the view components, the wiring of
// their channels, and the bootstrap script connecting the page to the server.
type RootView struct {
	views   []fastview.ViewComponent
	updates <-chan []fastview.EleUpdate
}

// NewRootView builds the page's views over the frame stream. Cell images are linked
// under imageRoute.
func NewRootView(
	ctx context.Context,
	frames <-chan maze.Frame,
	imageRoute string,
) (*RootView, error) {
	views, err := fastview.NewViewBuilder[maze.Frame, cell_views.Board]().
		WithContext(ctx).
		WithModel(frames, cell_views.NewConverter(imageRoute)).
		WithView(func(
			done <-chan struct{},
			boards <-chan cell_views.Board) fastview.ViewComponent {
			return cell_views.NewGridView(done, boards)
		}).
		WithView(func(
			done <-chan struct{},
			boards <-chan cell_views.Board) fastview.ViewComponent {
			return cell_views.NewStatusView(done, boards)
		}).
		Build()
	if err != nil {
		return nil, err
	}

	return &RootView{
		views:   views,
		updates: fanIn(ctx.Done(), views),
	}, nil
}

// Updates returns the page's ele-update channel, merged across every view.
func (rv *RootView) Updates() <-chan []fastview.EleUpdate {
	return rv.updates
}

// Parse builds the page template, with its websocket bootstrap code, and returns its name.
// The func-map set here is inherited by the child components.
func (rv *RootView) Parse(
	parent *template.Template,
) (name string, err error) {
	rt := parent.Funcs(
		template.FuncMap{
			"add": func(i, j int) int { return i + j },
			"sub": func(i, j int) int { return i - j },
		})

	var bodySpec string
	for _, vc := range rv.views {
		tname, parseErr := vc.Parse(rt)
		if parseErr != nil {
			return "", parseErr
		}
		bodySpec += `{{ template "` + tname + `" . }}`
	}

	name = "mainpage"
	indexTemplate := `
	{{ define "` + name + `" }}
	<!DOCTYPE html>
	<html>
		<head>
			<link rel="icon" href="data:,">
			<!--Client bootstrap: the server pushes view updates and receives input events over the websocket.-->
			<script>
				const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
				ws.onopen = function (event) {
					console.log("Web socket opened")
				};

				ws.onerror = function (event) {
					console.log('WebSocket error: ', event);
				};

				// When the server pushes view updates, find these eles and update them.
				ws.onmessage = function (event) {
					const items = JSON.parse(event.data)
					for (const update of items) {
						const ele = document.getElementById(update.EleId)
						if (!ele) {
							continue
						}
						for (const op of update.Ops) {
							if (op.Key === "textContent") {
								ele.textContent = op.Value;
							} else {
								ele.setAttribute(op.Key, op.Value)
							}
						}
					}
				}

				function send(ev) {
					if (ws.readyState === WebSocket.OPEN) {
						ws.send(JSON.stringify(ev))
					}
				}

				// Pointer coordinates are sent in grid pixels, relative to the svg.
				function local(svg, clientX, clientY) {
					const r = svg.getBoundingClientRect()
					return { x: clientX - r.left, y: clientY - r.top }
				}

				window.addEventListener("load", function () {
					const svg = document.querySelector("svg")
					if (!svg) {
						return
					}
					for (const kind of ["pointermove", "pointerdown", "pointerup"]) {
						svg.addEventListener(kind, function (e) {
							if (e.pointerType === "touch") {
								return
							}
							const p = local(svg, e.clientX, e.clientY)
							send({ type: kind, button: e.button, x: p.x, y: p.y })
						})
					}
					svg.addEventListener("pointerleave", function (e) {
						send({ type: "pointerleave" })
					})
					for (const kind of ["touchstart", "touchmove", "touchend", "touchcancel"]) {
						svg.addEventListener(kind, function (e) {
							e.preventDefault()
							const touches = []
							for (const t of e.touches) {
								const p = local(svg, t.clientX, t.clientY)
								touches.push({ x: p.x, y: p.y, id: t.identifier })
							}
							send({ type: "touch", touches: touches })
						}, { passive: false })
					}
				})

				window.addEventListener("keydown", function (e) {
					send({ type: "keydown", code: e.code, key: e.key })
				})
				window.addEventListener("keyup", function (e) {
					send({ type: "keyup", code: e.code })
				})
				window.addEventListener("blur", function () {
					send({ type: "blur" })
				})
			</script>
		</head>
		<body>
		` + bodySpec + `
		</body></html>
	{{ end }}
	`

	_, err = rt.Parse(indexTemplate)
	return
}

// fanIn merges the views' ele-update channels into one batched channel.
func fanIn(
	done <-chan struct{},
	views []fastview.ViewComponent,
) <-chan []fastview.EleUpdate {
	inputs := make([]<-chan []fastview.EleUpdate, len(views))
	for i, view := range views {
		inputs[i] = view.Updates()
	}
	return fastview.Batchify(
		done,
		channerics.Merge(done, inputs...),
		batchRate)
}
