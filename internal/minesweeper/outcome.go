package minesweeper

import "strconv"

// Group keys used in Ok outcomes.
const (
	GroupEmpty = "empty"
	groupOpen  = "open"
)

// OpenGroup returns the group key for a cell with n neighboring mines.
func OpenGroup(n int) string {
	return groupOpen + strconv.Itoa(n)
}

// Groups maps a group key to the cells revealed under it, in visit order.
type Groups map[string][]Cell

func (g Groups) add(key string, c Cell) {
	g[key] = append(g[key], c)
}

// merge appends other's cells to g, key by key, skipping cells already in
// seen. seen is updated.
func (g Groups) merge(other Groups, seen map[Cell]struct{}) {
	for k, cells := range other {
		for _, c := range cells {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			g.add(k, c)
		}
	}
}

// Len returns the total number of cells across all groups.
func (g Groups) Len() int {
	n := 0
	for _, cells := range g {
		n += len(cells)
	}
	return n
}

// Outcome is the result of a board operation. A nil Outcome means there is
// nothing new to report.
type Outcome interface {
	outcome()
}

// Ok carries the cells revealed by an operation.
type Ok struct {
	Groups Groups
}

// GameOver reports the mine that was opened and every mine on the board.
type GameOver struct {
	Oops  Cell
	Mines []Cell
}

// Win reports that every safe cell has been opened.
type Win struct{}

// Refused reports a chord that was not performed because fewer neighbors are
// flagged than the cell's value.
type Refused struct{}

func (Ok) outcome()       {}
func (GameOver) outcome() {}
func (Win) outcome()      {}
func (Refused) outcome()  {}
