package session

import (
	"github.com/playperu/minesweeper/internal/minesweeper"
)

// Inbound message types.
const (
	TypeStart           = "start"
	TypeClick           = "click"
	TypeFlag            = "flag"
	TypeRemoveFlag      = "remove_flag"
	TypeCheckNeighbours = "check_neighbours"
)

// Outbound statuses.
const (
	StatusOkay     = "okay"
	StatusGameOver = "game_over"
	StatusWin      = "win"
	StatusRefused  = "refused"
)

// Request is any inbound message. Which fields are set depends on Type.
type Request struct {
	Type   string            `json:"type"`
	Start  *minesweeper.Cell `json:"start,omitempty"`
	Mines  *int              `json:"mines,omitempty"`
	Height *int              `json:"height,omitempty"`
	Width  *int              `json:"width,omitempty"`
	Cell   *minesweeper.Cell `json:"cell,omitempty"`
}

// Message is an outbound game update.
type Message struct {
	Status string              `json:"status"`
	Cells  *minesweeper.Groups `json:"cells,omitempty"`
}

// ErrorMessage is sent before the connection is closed on a protocol error.
type ErrorMessage struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
}

// encode translates a board outcome into its wire form. It reports false
// for a nil outcome, which produces no message.
func encode(o minesweeper.Outcome) (Message, bool) {
	switch o := o.(type) {
	case nil:
		return Message{}, false
	case minesweeper.Ok:
		return Message{Status: StatusOkay, Cells: &o.Groups}, true
	case minesweeper.GameOver:
		cells := minesweeper.Groups{
			"oops": {o.Oops},
			"mine": o.Mines,
		}
		return Message{Status: StatusGameOver, Cells: &cells}, true
	case minesweeper.Win:
		return Message{Status: StatusWin}, true
	case minesweeper.Refused:
		return Message{Status: StatusRefused, Cells: &minesweeper.Groups{}}, true
	default:
		panic("session: unhandled outcome type")
	}
}
