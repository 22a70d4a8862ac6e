package minesweeper

// Preset is a named board configuration offered to players.
type Preset struct {
	Name   string
	Label  string
	Height int
	Width  int
	Mines  int
}

var presets = []Preset{
	{Name: "small", Label: "Small: 9×9, 10 mines", Height: 9, Width: 9, Mines: 10},
	{Name: "medium", Label: "Medium: 16×16, 40 mines", Height: 16, Width: 16, Mines: 40},
	{Name: "hard", Label: "Hard: 30×16, 99 mines", Height: 30, Width: 16, Mines: 99},
	{Name: "extreme", Label: "Extreme: 24×30, 160 mines", Height: 24, Width: 30, Mines: 160},
}

// Presets returns the built-in presets, smallest first.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// PresetByName looks up a preset by its name or its label.
func PresetByName(name string) (Preset, error) {
	for _, p := range presets {
		if p.Name == name || p.Label == name {
			return p, nil
		}
	}
	return Preset{}, ErrUnknownPreset
}

// MineBounds returns the inclusive range of mine counts accepted for a board
// of the given size: at least 10% and at most 35% of its cells.
func MineBounds(height, width int) (lo, hi int) {
	cells := height * width
	lo = (cells + 9) / 10
	hi = cells * 35 / 100
	return lo, hi
}

func densityOK(mines, cells int) bool {
	return 10*mines >= cells && 100*mines <= 35*cells
}
