package puzzle

import "errors"

var (
	ErrInvalidPiece    = errors.New("invalid piece configuration")
	ErrUnknownPiece    = errors.New("unknown piece")
	ErrPieceConnected  = errors.New("piece is connected")
	ErrInvalidExercise = errors.New("invalid exercise")
)
