package entity

import (
	"encoding/json"
	"errors"
)

// The grid is fixed; the browser client renders a 30x20 board.
const (
	GridWidth  = 30
	GridHeight = 20
)

var ErrInvalidCellPair = errors.New("cell must be an [x, y] pair")

const (
	DirectionUp    = "up"
	DirectionDown  = "down"
	DirectionLeft  = "left"
	DirectionRight = "right"
)

// Direction is one of the four cardinal movement directions.
type Direction string

// IsValid reports whether the direction is one of the four known values.
func (that Direction) IsValid() bool {
	switch that {
	case DirectionUp, DirectionDown, DirectionLeft, DirectionRight:
		return true
	default:
		return false
	}
}

// Opposite returns the reverse direction.
func (that Direction) Opposite() Direction {
	switch that {
	case DirectionUp:
		return DirectionDown
	case DirectionDown:
		return DirectionUp
	case DirectionLeft:
		return DirectionRight
	case DirectionRight:
		return DirectionLeft
	default:
		return ""
	}
}

// Delta returns the per-tick cell offset for the direction.
func (that Direction) Delta() (int, int) {
	switch that {
	case DirectionUp:
		return 0, -1
	case DirectionDown:
		return 0, 1
	case DirectionLeft:
		return -1, 0
	case DirectionRight:
		return 1, 0
	default:
		return 0, 0
	}
}

// Cell is a single grid position. It marshals as an [x, y] pair, which is the
// wire format the client expects.
type Cell struct {
	X int
	Y int
}

func (that Cell) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{that.X, that.Y})
}

func (that *Cell) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return ErrInvalidCellPair
	}

	that.X, that.Y = pair[0], pair[1]

	return nil
}

// InGrid reports whether the cell lies inside the fixed grid.
func (that Cell) InGrid() bool {
	return that.X >= 0 && that.X < GridWidth && that.Y >= 0 && that.Y < GridHeight
}

// Translate returns the cell shifted one step in the given direction.
func (that Cell) Translate(direction Direction) Cell {
	dx, dy := direction.Delta()
	return Cell{X: that.X + dx, Y: that.Y + dy}
}
