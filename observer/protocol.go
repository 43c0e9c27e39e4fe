package observer

import "github.com/pthm-cable/worms/events"

// ProtocolVersion is sent in every hello message.
const ProtocolVersion = 1

// Message types.
const (
	TypeHello = "HELLO"
	TypePaint = "PAINT"
)

// Cell is a paint event on the wire: [x, y, r, g, b].
type Cell [5]int

// HelloMsg is the first message on a session. Cells holds every non-clear
// pixel at join time.
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion int    `json:"protocol_version"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	Cells           []Cell `json:"cells"`
}

// PaintMsg carries one drained batch in channel order.
type PaintMsg struct {
	Type  string `json:"type"`
	Seq   uint64 `json:"seq"`
	Cells []Cell `json:"cells"`
}

func toCells(evs []events.Event) []Cell {
	out := make([]Cell, len(evs))
	for i, e := range evs {
		out[i] = Cell{e.Pos.X, e.Pos.Y, int(e.Color.R), int(e.Color.G), int(e.Color.B)}
	}
	return out
}

// Event converts a wire cell back into a paint event.
func (c Cell) Event() events.Event {
	return events.Event{
		Pos:   events.Position{X: c[0], Y: c[1]},
		Color: events.Color{R: uint8(c[2]), G: uint8(c[3]), B: uint8(c[4])},
	}
}
