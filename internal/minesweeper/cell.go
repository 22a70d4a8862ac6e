// Package minesweeper implements the board model: mine placement with a safe
// first click, flood-fill reveal, chorded reveal, flags and win detection.
// It has zero external dependencies and performs no I/O.
package minesweeper

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedCell is returned when a cell is not a [row, col] pair.
var ErrMalformedCell = errors.New("cell must be a [row, col] pair")

// Cell is a board position. It is comparable and used as a map key.
type Cell struct {
	Row int
	Col int
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// MarshalJSON encodes the cell as [row, col].
func (c Cell) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{c.Row, c.Col})
}

// UnmarshalJSON accepts exactly a two-element integer array.
func (c *Cell) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedCell, err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("%w: got %d elements", ErrMalformedCell, len(pair))
	}
	c.Row, c.Col = pair[0], pair[1]
	return nil
}

// directions are the 8 compass offsets in enumeration order. Chord results
// and flood-fill traversal follow this order.
var directions = [8]Cell{
	{-1, 0}, {1, 0}, {0, -1}, {0, 1},
	{-1, -1}, {-1, 1}, {1, -1}, {1, 1},
}
