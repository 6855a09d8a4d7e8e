package entity

import (
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/rocketscienceinc/backgammon-backend/internal/apperror"
)

type Phase string

const (
	PhaseAwaitingRoll Phase = "awaiting_roll"
	PhaseMove         Phase = "move"
	PhaseGameOver     Phase = "game_over"
)

type Reason string

const (
	ReasonBearOff Reason = "bear_off"
	ReasonTimeout Reason = "timeout"
)

// Observer is notified synchronously at turn and game boundaries.
type Observer interface {
	OnTurnComplete(color Color)
	OnGameOver(winner Color)
}

type nopObserver struct{}

func (nopObserver) OnTurnComplete(Color) {}
func (nopObserver) OnGameOver(Color)     {}

// Game is one session: board, turn state and the rules that move between them.
// It is not safe for concurrent use.
type Game struct {
	ID      string    `json:"id"`
	Board   *Board    `json:"board"`
	Turn    TurnState `json:"turn"`
	Phase   Phase     `json:"phase"`
	Winner  *Color    `json:"winner,omitempty"`
	Reason  Reason    `json:"reason,omitempty"`
	Players [2]Player `json:"players"`
	Clock   *Clock    `json:"clock,omitempty"`
	History History   `json:"history"`

	roller   Roller
	observer Observer
	now      func() time.Time
}

type Option func(game *Game)

func WithRoller(roller Roller) Option {
	return func(game *Game) {
		game.roller = roller
	}
}

func WithObserver(observer Observer) Option {
	return func(game *Game) {
		game.observer = observer
	}
}

// WithBoard starts the game from a custom position instead of the opening layout.
func WithBoard(board *Board) Option {
	return func(game *Game) {
		game.Board = board
	}
}

func WithPlayers(white, red Policy) Option {
	return func(game *Game) {
		game.Players = [2]Player{{Color: White, Policy: white}, {Color: Red, Policy: red}}
	}
}

func WithClock(limit time.Duration) Option {
	return func(game *Game) {
		if limit > 0 {
			game.Clock = NewClock(limit)
		}
	}
}

func WithNow(now func() time.Time) Option {
	return func(game *Game) {
		game.now = now
	}
}

// NewGame returns a game awaiting White's roll.
func NewGame(id string, opts ...Option) *Game {
	game := &Game{
		ID:      id,
		Board:   NewBoard(),
		Phase:   PhaseAwaitingRoll,
		Players: [2]Player{{Color: White, Policy: PolicyHuman}, {Color: Red, Policy: PolicyHuman}},
	}
	for _, opt := range opts {
		opt(game)
	}
	game.Attach()

	game.Turn.Active = White
	game.refreshShelter()
	if game.Clock != nil {
		game.Clock.Switch(White, game.now())
	}
	return game
}

// Attach restores the collaborators that are not serialized. Missing ones get defaults.
func (that *Game) Attach(opts ...Option) {
	for _, opt := range opts {
		opt(that)
	}
	if that.roller == nil {
		that.roller = NewRandomRoller(0)
	}
	if that.observer == nil {
		that.observer = nopObserver{}
	}
	if that.now == nil {
		that.now = time.Now
	}
}

func (that *Game) IsFinished() bool {
	return that.Phase == PhaseGameOver
}

func (that *Game) ActivePlayer() Player {
	return that.Players[that.Turn.Active]
}

// Reset puts the opening layout back. Not allowed halfway through a turn.
func (that *Game) Reset() error {
	if that.Phase == PhaseMove {
		return fmt.Errorf("%w: cannot reset during a move phase", apperror.ErrWrongPhase)
	}

	that.Board = NewBoard()
	that.Turn = TurnState{Active: White}
	that.Phase = PhaseAwaitingRoll
	that.Winner = nil
	that.Reason = ""
	that.History = History{}
	that.refreshShelter()
	if that.Clock != nil {
		that.Clock.reset()
		that.Clock.Switch(White, that.now())
	}
	return nil
}

// LegalMoves returns the moves available to the active color with the current dice.
// Outside a move phase the dice are meaningless and the set is empty.
func (that *Game) LegalMoves() ([]Move, error) {
	if that.IsFinished() {
		return nil, apperror.ErrGameFinished
	}
	if that.Phase != PhaseMove {
		return nil, nil
	}
	if err := that.Board.Validate(); err != nil {
		return nil, err
	}

	return LegalMoves(that.Board, that.Turn.Active, that.Turn.Dice), nil
}

// RollDice starts the active color's move phase. When no move is possible
// the turn is forfeited at once.
func (that *Game) RollDice() (int, int, error) {
	if that.IsFinished() {
		return 0, 0, apperror.ErrGameFinished
	}
	if that.Phase != PhaseAwaitingRoll {
		return 0, 0, fmt.Errorf("%w: dice already rolled", apperror.ErrWrongPhase)
	}
	if err := that.Board.Validate(); err != nil {
		return 0, 0, err
	}

	d0, d1 := that.roller.Roll(), that.roller.Roll()
	that.Turn.setRoll(d0, d1)
	that.History.addRoll(that.Turn.Active, d0, d1)
	that.Phase = PhaseMove

	that.refreshShelter()
	if !HasAnyMove(that.Board, that.Turn.Active, that.Turn.Dice) {
		that.completeTurn()
	}
	return d0, d1, nil
}

// ApplyMove performs a move from the current legal set. Anything else is
// rejected with ErrInvalidMove and leaves the game untouched.
func (that *Game) ApplyMove(move Move) error {
	if that.IsFinished() {
		return apperror.ErrGameFinished
	}
	if that.Phase != PhaseMove {
		return fmt.Errorf("%w: roll the dice first", apperror.ErrWrongPhase)
	}

	moves, err := that.LegalMoves()
	if err != nil {
		return err
	}

	legal, ok := lo.Find(moves, func(candidate Move) bool {
		return candidate.Matches(move)
	})
	if !ok {
		return fmt.Errorf("%w: %s with die %d", apperror.ErrInvalidMove, move, move.DieIndex)
	}

	hit := execute(that.Board, legal)
	that.Turn.consume(legal.DieIndex)
	that.History.addMove(legal, hit)
	that.refreshShelter()

	if err = that.Board.Validate(); err != nil {
		return err
	}

	if that.Turn.MovesRemaining == 0 || !HasAnyMove(that.Board, that.Turn.Active, that.Turn.Dice) {
		that.completeTurn()
	}
	return nil
}

// Timeout ends the game in favor of color's opponent, whatever the phase.
func (that *Game) Timeout(color Color) error {
	if that.IsFinished() {
		return apperror.ErrGameFinished
	}

	that.Turn.clearDice()
	that.gameOver(color.Opponent(), ReasonTimeout)
	return nil
}

// CheckClock ends the game if the running color has used up its time bank.
func (that *Game) CheckClock() bool {
	if that.Clock == nil || that.IsFinished() {
		return false
	}

	color, expired := that.Clock.Expired(that.now())
	if !expired {
		return false
	}
	return that.Timeout(color) == nil
}

func (that *Game) completeTurn() {
	finished := that.Turn.Active
	that.Turn.clearDice()
	that.observer.OnTurnComplete(finished)

	if that.Board.RemainingCheckers(finished) == 0 {
		that.gameOver(finished, ReasonBearOff)
		return
	}

	that.Turn.Active = finished.Opponent()
	that.Phase = PhaseAwaitingRoll
	if that.Clock != nil {
		that.Clock.Switch(that.Turn.Active, that.now())
	}
}

func (that *Game) gameOver(winner Color, reason Reason) {
	that.Phase = PhaseGameOver
	that.Winner = &winner
	that.Reason = reason
	if that.Clock != nil {
		that.Clock.Stop(that.now())
	}
	that.observer.OnGameOver(winner)
}

func (that *Game) refreshShelter() {
	for _, color := range Colors {
		that.Board.RefreshShelter(color)
	}
}
