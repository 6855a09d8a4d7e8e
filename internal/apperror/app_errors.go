package apperror

import "errors"

var (
	ErrGameFinished       = errors.New("game is already finished")
	ErrNotYourTurn        = errors.New("it's not your turn")
	ErrWrongPhase         = errors.New("action is not allowed in the current phase")
	ErrInvalidMove        = errors.New("move is not legal")
	ErrNoLegalMoves       = errors.New("no legal moves")
	ErrInvariantViolation = errors.New("board invariant violated")
	ErrGameNotFound       = errors.New("game not found")
	ErrResultsDisabled    = errors.New("result log is disabled")
)
