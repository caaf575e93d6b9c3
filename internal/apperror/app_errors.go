package apperror

import "errors"

var (
	ErrServerFull       = errors.New("server full - no room available")
	ErrRoomNotAvailable = errors.New("room is not available")
	ErrInvalidPlayerID  = errors.New("invalid player id")
)
