package entity

import "math/rand"

const (
	ModeTwoPlayer = "two_player"
	ModeVersusAI  = "vs_ai"

	PlayerOne = 1
	PlayerTwo = 2
)

// Grid carries the board dimensions in every state snapshot so clients never
// hardcode them.
type Grid struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Game is one match: two snakes on the fixed grid, an optional food cell and
// an optional winner once the match is over. It is a pure state machine with
// no I/O; the room above it drives ticks and broadcasts.
type Game struct {
	Mode    string         `json:"mode"`
	Grid    Grid           `json:"grid"`
	Snakes  map[int]*Snake `json:"snakes"`
	Food    *Cell          `json:"food"`
	Running bool           `json:"running"`
	Winner  *int           `json:"winner"`
}

// NewGame returns a fresh idle match with both snakes at their starting
// positions and food already on the board.
func NewGame(mode string) *Game {
	game := &Game{
		Mode: mode,
		Grid: Grid{Width: GridWidth, Height: GridHeight},
		Snakes: map[int]*Snake{
			PlayerOne: NewSnake(PlayerOne, Cell{X: 5, Y: GridHeight / 2}, DirectionRight),
			PlayerTwo: NewSnake(PlayerTwo, Cell{X: GridWidth - 6, Y: GridHeight / 2}, DirectionLeft),
		},
	}

	game.SpawnFood()

	return game
}

// QueueDirection buffers a direction change for the given player's snake.
// Unknown players are ignored.
func (that *Game) QueueDirection(playerID int, direction Direction) {
	if snake, ok := that.Snakes[playerID]; ok {
		snake.QueueDirection(direction)
	}
}

// SpawnFood places food on a uniformly random free cell. Food stays absent
// when the snakes cover the entire grid.
func (that *Game) SpawnFood() {
	occupied := make(map[Cell]struct{})
	for _, snake := range that.Snakes {
		for _, cell := range snake.Body {
			occupied[cell] = struct{}{}
		}
	}

	free := make([]Cell, 0, GridWidth*GridHeight-len(occupied))
	for x := 0; x < GridWidth; x++ {
		for y := 0; y < GridHeight; y++ {
			cell := Cell{X: x, Y: y}
			if _, ok := occupied[cell]; !ok {
				free = append(free, cell)
			}
		}
	}

	that.Food = nil
	if len(free) == 0 {
		return
	}

	cell := free[rand.Intn(len(free))] //nolint: gosec // it's ok
	that.Food = &cell
}

// Update advances the match by exactly one tick: every living snake resolves
// its prospective move and growth against the current food cell, all snakes
// move, food respawns if eaten, and only then are collisions and the win
// condition evaluated.
func (that *Game) Update() {
	if !that.Running {
		return
	}

	grew := false
	for _, snake := range that.Snakes {
		if !snake.Alive {
			continue
		}

		grow := that.Food != nil && snake.NextHead() == *that.Food
		snake.Move(grow)

		if grow {
			grew = true
		}
	}

	if grew {
		that.SpawnFood()
	}

	for _, snake := range that.Snakes {
		if snake.Alive && that.collided(snake) {
			snake.Alive = false
		}
	}

	alive := make([]*Snake, 0, len(that.Snakes))
	for _, snake := range that.Snakes {
		if snake.Alive {
			alive = append(alive, snake)
		}
	}

	if len(alive) > 1 {
		return
	}

	that.Running = false
	that.Winner = nil
	if len(alive) == 1 {
		winner := alive[0].PlayerID
		that.Winner = &winner
	}
}

// collided reports whether the snake's head ended the tick outside the grid,
// inside its own body, or on any cell of the opposing snake. Opposing heads
// count, so simultaneous head-on moves kill both snakes.
func (that *Game) collided(snake *Snake) bool {
	head := snake.Head()
	if !head.InGrid() {
		return true
	}

	for _, cell := range snake.Body[1:] {
		if head == cell {
			return true
		}
	}

	for id, other := range that.Snakes {
		if id == snake.PlayerID {
			continue
		}

		for _, cell := range other.Body {
			if head == cell {
				return true
			}
		}
	}

	return false
}
