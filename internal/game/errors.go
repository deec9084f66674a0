package game

import "errors"

var (
	ErrPieceLocked       = errors.New("piece has too many connections to move")
	ErrNotDragging       = errors.New("no drag in progress")
	ErrAlreadyDragging   = errors.New("a drag is already in progress")
	ErrNotAllowed        = errors.New("operation not allowed for this task type")
	ErrNoPieceAt         = errors.New("no piece at point")
	ErrUnknownConnection = errors.New("unknown connection")
)
