package entity

// A snake buffers at most three direction changes; older input is dropped so
// a flooding client cannot queue moves arbitrarily far ahead.
const maxQueuedDirections = 3

// Snake is one competitor on the grid. The head is the first body cell.
type Snake struct {
	PlayerID  int       `json:"player_id"`
	Body      []Cell    `json:"body"`
	Direction Direction `json:"direction"`
	Alive     bool      `json:"alive"`

	nextDirection Direction
	inputQueue    []Direction
}

func NewSnake(playerID int, start Cell, direction Direction) *Snake {
	return &Snake{
		PlayerID:      playerID,
		Body:          []Cell{start},
		Direction:     direction,
		nextDirection: direction,
		Alive:         true,
	}
}

// Head returns the snake's current head cell.
func (that *Snake) Head() Cell {
	return that.Body[0]
}

// QueueDirection buffers a direction change. A direction that reverses or
// repeats the last queued entry (or the committed next direction when the
// queue is empty) is silently dropped.
func (that *Snake) QueueDirection(direction Direction) {
	if !direction.IsValid() {
		return
	}

	last := that.nextDirection
	if len(that.inputQueue) > 0 {
		last = that.inputQueue[len(that.inputQueue)-1]
	}

	if direction == last || direction == last.Opposite() {
		return
	}

	that.inputQueue = append(that.inputQueue, direction)
	if len(that.inputQueue) > maxQueuedDirections {
		that.inputQueue = that.inputQueue[1:]
	}
}

// resolveDirection returns the direction a snake facing current will take
// next, given its input queue and the already-committed next direction. The
// reversal guard runs again here because the committed direction can differ
// from what it was when the entry passed QueueDirection.
func resolveDirection(queue []Direction, current, committed Direction) Direction {
	if len(queue) == 0 {
		return committed
	}

	if candidate := queue[0]; candidate != current.Opposite() {
		return candidate
	}

	return committed
}

// NextHead returns where the head will be after the next move, peeking the
// input queue without consuming it.
func (that *Snake) NextHead() Cell {
	next := resolveDirection(that.inputQueue, that.Direction, that.nextDirection)
	return that.Head().Translate(next)
}

// Move consumes one queued direction, commits it, and advances the snake one
// cell. The tail is kept when growing.
func (that *Snake) Move(grow bool) {
	that.nextDirection = resolveDirection(that.inputQueue, that.Direction, that.nextDirection)
	if len(that.inputQueue) > 0 {
		that.inputQueue = that.inputQueue[1:]
	}

	that.Direction = that.nextDirection

	newHead := that.Head().Translate(that.Direction)
	that.Body = append([]Cell{newHead}, that.Body...)
	if !grow {
		that.Body = that.Body[:len(that.Body)-1]
	}
}
