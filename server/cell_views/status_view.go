package cell_views

import (
	"html/template"
	"strconv"

	"cellgrid/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// StatusView shows the replay's progress: visited count, step and agent position.
type StatusView struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

func NewStatusView(
	done <-chan struct{},
	boards <-chan Board,
) (sv *StatusView) {
	sv = &StatusView{id: "status"}
	sv.updates = channerics.Convert(done, boards, sv.onUpdate)
	return
}

func (sv *StatusView) Updates() <-chan []fastview.EleUpdate {
	return sv.updates
}

func (sv *StatusView) onUpdate(board Board) []fastview.EleUpdate {
	text := func(suffix, value string) fastview.EleUpdate {
		return fastview.EleUpdate{
			EleId: sv.id + "-" + suffix,
			Ops:   []fastview.Op{{Key: "textContent", Value: value}},
		}
	}
	return []fastview.EleUpdate{
		text("visited", strconv.Itoa(board.Visited)),
		text("step", strconv.Itoa(board.Step)),
		text("agent", board.Agent),
	}
}

func (sv *StatusView) Parse(
	t *template.Template,
) (name string, err error) {
	name = sv.id
	_, err = t.Parse(
		`{{ define "` + name + `" }}
		<div id="` + sv.id + `" style="padding:0 20px; font: 20px monospace;">
			Visited <span id="` + sv.id + `-visited">{{ .Visited }}</span>
			Step <span id="` + sv.id + `-step">{{ .Step }}</span>
			Agent <span id="` + sv.id + `-agent">{{ .Agent }}</span>
		</div>
		{{ end }}`)
	return
}
