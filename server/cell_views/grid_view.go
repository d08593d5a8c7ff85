package cell_views

import (
	"html/template"

	"cellgrid/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// GridView draws the maze grid as svg: per cell a rect for its color and an image
// element for its picture.
type GridView struct {
	id      string
	last    [][]Cell
	updates <-chan []fastview.EleUpdate
}

func NewGridView(
	done <-chan struct{},
	boards <-chan Board,
) (gv *GridView) {
	// No hyphens: they interfere with html/template's `template` directive.
	gv = &GridView{id: "mazegrid"}
	gv.updates = channerics.Convert(done, boards, gv.onUpdate)
	return
}

func (gv *GridView) Updates() <-chan []fastview.EleUpdate {
	return gv.updates
}

// onUpdate returns the updates for cells that changed since the previous board, or for
// every cell on the first board.
func (gv *GridView) onUpdate(board Board) (ops []fastview.EleUpdate) {
	for i, row := range board.Cells {
		for j, cell := range row {
			var prev *Cell
			if i < len(gv.last) && j < len(gv.last[i]) {
				prev = &gv.last[i][j]
			}
			if prev == nil || prev.Fill != cell.Fill {
				ops = append(ops, fastview.EleUpdate{
					EleId: cell.Id + "-rect",
					Ops: []fastview.Op{
						{Key: "fill", Value: cell.Fill},
					},
				})
			}
			if prev == nil || prev.Href != cell.Href {
				ops = append(ops, fastview.EleUpdate{
					EleId: cell.Id + "-image",
					Ops: []fastview.Op{
						{Key: "href", Value: cell.Href},
						{Key: "visibility", Value: cell.Visibility()},
					},
				})
			}
		}
	}
	gv.last = board.Cells
	return
}

// Parse defines the grid's svg template, which renders the Board it is executed with.
func (gv *GridView) Parse(
	t *template.Template,
) (name string, err error) {
	name = gv.id
	_, err = t.Parse(
		`{{ define "` + name + `" }}
		<div style="padding:20px;">
			<svg id="` + gv.id + `" xmlns="http://www.w3.org/2000/svg"
				width="{{ .Width }}" height="{{ .Height }}"
				style="shape-rendering: crispEdges;">
				<rect x="0" y="0" width="{{ .Width }}" height="{{ .Height }}" fill="{{ .Background }}" />
				{{ range $row := .Cells }}
					{{ range $cell := $row }}
						<rect id="{{ $cell.Id }}-rect" data-row="{{ $cell.Row }}" data-column="{{ $cell.Column }}"
							x="{{ $cell.X }}" y="{{ $cell.Y }}" width="{{ $cell.Width }}" height="{{ $cell.Height }}"
							fill="{{ $cell.Fill }}" />
						<image id="{{ $cell.Id }}-image" href="{{ $cell.Href }}" pointer-events="none"
							x="{{ $cell.X }}" y="{{ $cell.Y }}" width="{{ $cell.Width }}" height="{{ $cell.Height }}"
							preserveAspectRatio="none" visibility="{{ $cell.Visibility }}" />
					{{ end }}
				{{ end }}
			</svg>
		</div>
		{{ end }}`)
	return
}
