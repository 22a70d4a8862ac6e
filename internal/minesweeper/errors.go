package minesweeper

import (
	"errors"
	"fmt"
)

var (
	ErrCellOutOfRange    = errors.New("cell out of range")
	ErrInvalidDimensions = errors.New("height and width must be positive")
	ErrMineDensity       = errors.New("mine count outside allowed density")
	ErrNoRoomForMines    = errors.New("not enough cells outside the start area")
	ErrUnknownPreset     = errors.New("unknown preset")
	ErrMineNearStart     = errors.New("mine on or next to the start cell")
	ErrDuplicateMine     = errors.New("mine listed twice")
)

// ConfigurationError reports board parameters that cannot produce a valid
// layout. It wraps ErrMineDensity or ErrNoRoomForMines.
type ConfigurationError struct {
	Mines  int
	Height int
	Width  int
	Err    error
}

func (e *ConfigurationError) Error() string {
	lo, hi := MineBounds(e.Height, e.Width)
	if errors.Is(e.Err, ErrMineDensity) {
		return fmt.Sprintf("%d mines on a %dx%d board: must be between %d and %d",
			e.Mines, e.Height, e.Width, lo, hi)
	}
	return fmt.Sprintf("%d mines on a %dx%d board: %v", e.Mines, e.Height, e.Width, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }
