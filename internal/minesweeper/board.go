package minesweeper

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
)

// mine is the grid value that marks a mined cell.
const mine = 9

// Board is the authoritative state of one game. It is not safe for
// concurrent use; a board belongs to exactly one session.
type Board struct {
	height, width int
	grid          [][]int
	mines         map[Cell]struct{}
	mineList      []Cell
	opened        map[Cell]struct{}
	flagged       map[Cell]struct{}
}

type options struct {
	rng *rand.Rand
}

// Option configures NewBoard.
type Option func(*options)

// WithRand makes mine placement use r instead of the global source.
func WithRand(r *rand.Rand) Option {
	return func(o *options) { o.rng = r }
}

// NewBoard lays out mines for a game whose first click is start. Neither
// start nor any of its neighbors is ever mined. The start cell is opened.
func NewBoard(start Cell, mines, height, width int, opts ...Option) (*Board, error) {
	b, err := newBoard(start, mines, height, width)
	if err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cells := height * width
	forbidden := map[int]struct{}{b.index(start): {}}
	for _, n := range b.Neighbors(start) {
		forbidden[b.index(n)] = struct{}{}
	}
	candidates := make([]int, 0, cells-len(forbidden))
	for i := range cells {
		if _, ok := forbidden[i]; !ok {
			candidates = append(candidates, i)
		}
	}
	if mines > len(candidates) {
		return nil, &ConfigurationError{Mines: mines, Height: height, Width: width, Err: ErrNoRoomForMines}
	}

	intN := rand.IntN
	if o.rng != nil {
		intN = o.rng.IntN
	}
	// Partial Fisher-Yates: the first `mines` slots end up a uniform sample.
	for i := range mines {
		j := i + intN(len(candidates)-i)
		candidates[i], candidates[j] = candidates[j], candidates[i]
	}
	picked := make([]Cell, mines)
	for i, idx := range candidates[:mines] {
		picked[i] = Cell{Row: idx / width, Col: idx % width}
	}

	b.start(start, picked)
	return b, nil
}

// NewBoardWithMines builds a board with a fixed layout, for puzzles and
// replays. The layout obeys the same rules as a random one: the density
// bounds hold and no mine touches start.
func NewBoardWithMines(start Cell, mines []Cell, height, width int) (*Board, error) {
	b, err := newBoard(start, len(mines), height, width)
	if err != nil {
		return nil, err
	}

	seen := make(map[Cell]struct{}, len(mines))
	for _, m := range mines {
		switch {
		case !b.inBounds(m):
			return nil, fmt.Errorf("mine %v: %w", m, ErrCellOutOfRange)
		case abs(m.Row-start.Row) <= 1 && abs(m.Col-start.Col) <= 1:
			return nil, fmt.Errorf("mine %v: %w", m, ErrMineNearStart)
		}
		if _, dup := seen[m]; dup {
			return nil, fmt.Errorf("mine %v: %w", m, ErrDuplicateMine)
		}
		seen[m] = struct{}{}
	}

	b.start(start, mines)
	return b, nil
}

// newBoard validates the parameters shared by both constructors.
func newBoard(start Cell, mines, height, width int) (*Board, error) {
	if height <= 0 || width <= 0 || height > math.MaxInt/width {
		return nil, fmt.Errorf("%dx%d: %w", height, width, ErrInvalidDimensions)
	}
	if !densityOK(mines, height*width) {
		return nil, &ConfigurationError{Mines: mines, Height: height, Width: width, Err: ErrMineDensity}
	}
	b := &Board{height: height, width: width}
	if !b.inBounds(start) {
		return nil, fmt.Errorf("start %v: %w", start, ErrCellOutOfRange)
	}
	return b, nil
}

func (b *Board) start(start Cell, mines []Cell) {
	b.layout(mines)
	b.opened = map[Cell]struct{}{start: {}}
	b.flagged = make(map[Cell]struct{})
}

// layout places the given mines and fills in neighbor counts.
func (b *Board) layout(mines []Cell) {
	b.mines = make(map[Cell]struct{}, len(mines))
	b.grid = make([][]int, b.height)
	for r := range b.grid {
		b.grid[r] = make([]int, b.width)
	}
	for _, m := range mines {
		b.mines[m] = struct{}{}
		b.grid[m.Row][m.Col] = mine
	}
	b.mineList = b.mineList[:0]
	for r := range b.height {
		for c := range b.width {
			cell := Cell{Row: r, Col: c}
			if b.grid[r][c] == mine {
				b.mineList = append(b.mineList, cell)
				continue
			}
			for _, n := range b.Neighbors(cell) {
				if b.grid[n.Row][n.Col] == mine {
					b.grid[r][c]++
				}
			}
		}
	}
}

func (b *Board) Height() int    { return b.height }
func (b *Board) Width() int     { return b.width }
func (b *Board) MineCount() int { return len(b.mines) }

// Mines returns every mined cell in row-major order.
func (b *Board) Mines() []Cell {
	out := make([]Cell, len(b.mineList))
	copy(out, b.mineList)
	return out
}

// Value returns the grid value of c: 9 for a mine, otherwise the number of
// neighboring mines.
func (b *Board) Value(c Cell) (int, error) {
	if !b.inBounds(c) {
		return 0, fmt.Errorf("value %v: %w", c, ErrCellOutOfRange)
	}
	return b.grid[c.Row][c.Col], nil
}

func (b *Board) IsMine(c Cell) bool {
	_, ok := b.mines[c]
	return ok
}

func (b *Board) IsOpened(c Cell) bool {
	_, ok := b.opened[c]
	return ok
}

func (b *Board) IsFlagged(c Cell) bool {
	_, ok := b.flagged[c]
	return ok
}

// OpenedCount returns the number of opened cells.
func (b *Board) OpenedCount() int { return len(b.opened) }

// Neighbors returns the in-bounds neighbors of c in direction order.
func (b *Board) Neighbors(c Cell) []Cell {
	out := make([]Cell, 0, len(directions))
	for _, d := range directions {
		n := Cell{Row: c.Row + d.Row, Col: c.Col + d.Col}
		if b.inBounds(n) {
			out = append(out, n)
		}
	}
	return out
}

// Reveal opens a single cell. Opening a mine reports GameOver without
// touching the opened set. Opening a zero cell flood-fills its region; if
// the region was already fully open, Reveal returns a nil Outcome.
func (b *Board) Reveal(c Cell) (Outcome, error) {
	if !b.inBounds(c) {
		return nil, fmt.Errorf("reveal %v: %w", c, ErrCellOutOfRange)
	}

	switch v := b.grid[c.Row][c.Col]; {
	case v == mine:
		return GameOver{Oops: c, Mines: b.Mines()}, nil
	case v > 0:
		b.opened[c] = struct{}{}
		return Ok{Groups: Groups{OpenGroup(v): {c}}}, nil
	}

	groups := b.flood(c)
	fresh := false
	for _, cells := range groups {
		for _, x := range cells {
			if _, ok := b.opened[x]; !ok {
				b.opened[x] = struct{}{}
				fresh = true
			}
		}
	}
	if !fresh {
		return nil, nil
	}
	return Ok{Groups: groups}, nil
}

// flood collects the zero-valued region around start together with its
// numbered border. Each cell is collected once.
func (b *Board) flood(start Cell) Groups {
	groups := Groups{}
	visited := map[Cell]struct{}{}
	stack := []Cell{start}

	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[c]; seen {
			continue
		}
		visited[c] = struct{}{}

		if v := b.grid[c.Row][c.Col]; v > 0 {
			groups.add(OpenGroup(v), c)
			continue
		}
		groups.add(GroupEmpty, c)

		// Push in reverse so neighbors are visited in direction order.
		ns := b.Neighbors(c)
		for i := len(ns) - 1; i >= 0; i-- {
			if _, seen := visited[ns[i]]; !seen {
				stack = append(stack, ns[i])
			}
		}
	}
	return groups
}

// Chord reveals every unopened, unflagged neighbor of c, provided at least
// as many neighbors are flagged as c's value. Otherwise it returns Refused
// and changes nothing. If a neighbor is a mine, the first one in direction
// order is reported as GameOver. Revealed groups are merged in neighbor
// order and each cell is reported once.
func (b *Board) Chord(c Cell) (Outcome, error) {
	if !b.inBounds(c) {
		return nil, fmt.Errorf("chord %v: %w", c, ErrCellOutOfRange)
	}

	neighbors := b.Neighbors(c)
	flags := 0
	for _, n := range neighbors {
		if b.IsOpened(n) {
			continue
		}
		if b.IsFlagged(n) {
			flags++
		}
	}
	if flags < b.grid[c.Row][c.Col] {
		return Refused{}, nil
	}

	merged := Groups{}
	seen := map[Cell]struct{}{}
	var over Outcome
	for _, n := range neighbors {
		// Checked here rather than up front: an earlier flood may already
		// have opened this neighbor.
		if b.IsOpened(n) || b.IsFlagged(n) {
			continue
		}
		out, err := b.Reveal(n)
		if err != nil {
			return nil, err
		}
		switch out := out.(type) {
		case GameOver:
			if over == nil {
				over = out
			}
		case Ok:
			merged.merge(out.Groups, seen)
		}
	}

	if over != nil {
		return over, nil
	}
	if merged.Len() == 0 {
		return nil, nil
	}
	return Ok{Groups: merged}, nil
}

// Flag marks c as a suspected mine, or clears the mark when remove is set.
func (b *Board) Flag(c Cell, remove bool) error {
	if !b.inBounds(c) {
		return fmt.Errorf("flag %v: %w", c, ErrCellOutOfRange)
	}
	if remove {
		delete(b.flagged, c)
	} else {
		b.flagged[c] = struct{}{}
	}
	return nil
}

// FlagCount returns the number of flagged cells.
func (b *Board) FlagCount() int { return len(b.flagged) }

// CheckWin reports whether every cell is either a mine or opened, with no
// mine opened.
func (b *Board) CheckWin() bool {
	if len(b.mines)+len(b.opened) != b.height*b.width {
		return false
	}
	for m := range b.mines {
		if _, ok := b.opened[m]; ok {
			return false
		}
	}
	return true
}

// String renders the full layout, for debugging.
func (b *Board) String() string {
	var sb strings.Builder
	for r, row := range b.grid {
		for c, v := range row {
			if c > 0 {
				sb.WriteByte(' ')
			}
			switch v {
			case mine:
				sb.WriteString("¤")
			case 0:
				sb.WriteString("·")
			default:
				sb.WriteByte(byte('0' + v))
			}
		}
		if r < len(b.grid)-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func (b *Board) inBounds(c Cell) bool {
	return c.Row >= 0 && c.Row < b.height && c.Col >= 0 && c.Col < b.width
}

func (b *Board) index(c Cell) int {
	return c.Row*b.width + c.Col
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
