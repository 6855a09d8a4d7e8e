package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/backgammon-backend/internal/apperror"
)

type recordingObserver struct {
	turns []Color
	overs []Color
}

func (that *recordingObserver) OnTurnComplete(color Color) {
	that.turns = append(that.turns, color)
}

func (that *recordingObserver) OnGameOver(winner Color) {
	that.overs = append(that.overs, winner)
}

func TestNewGame(t *testing.T) {
	// Given: a game with default options
	game := NewGame("game-1")

	// Then: white is up, nothing rolled, both seats human
	assert.Equal(t, "game-1", game.ID)
	assert.Equal(t, PhaseAwaitingRoll, game.Phase)
	assert.Equal(t, White, game.Turn.Active)
	assert.Equal(t, [2]int{}, game.Turn.Dice)
	assert.Nil(t, game.Winner)
	assert.False(t, game.ActivePlayer().IsBot())
	assert.Nil(t, game.Clock)

	moves, err := game.LegalMoves()
	require.NoError(t, err)
	assert.Empty(t, moves)
}

func TestGame_RollDice(t *testing.T) {
	t.Run("Loads the roll and opens the move phase", func(t *testing.T) {
		game := NewGame("roll", WithRoller(NewSequenceRoller(3, 5)))

		d0, d1, err := game.RollDice()

		require.NoError(t, err)
		assert.Equal(t, 3, d0)
		assert.Equal(t, 5, d1)
		assert.Equal(t, PhaseMove, game.Phase)
		assert.Equal(t, [2]int{3, 5}, game.Turn.Dice)
		assert.False(t, game.Turn.IsDoublet)
		assert.Equal(t, 2, game.Turn.MovesRemaining)
		assert.Equal(t, "3-5", game.History.DiceLog())
	})

	t.Run("Doublet grants four moves", func(t *testing.T) {
		game := NewGame("doublet", WithRoller(NewSequenceRoller(4, 4)))

		_, _, err := game.RollDice()

		require.NoError(t, err)
		assert.True(t, game.Turn.IsDoublet)
		assert.Equal(t, 4, game.Turn.MovesBudget)
		assert.Equal(t, 4, game.Turn.MovesRemaining)
	})

	t.Run("Rolling twice is a phase error", func(t *testing.T) {
		game := NewGame("twice", WithRoller(NewSequenceRoller(3, 5)))
		_, _, err := game.RollDice()
		require.NoError(t, err)

		_, _, err = game.RollDice()

		require.ErrorIs(t, err, apperror.ErrWrongPhase)
	})

	t.Run("A roll with no legal move forfeits the turn", func(t *testing.T) {
		// Given: a jailed white checker facing blocked points 2 and 6
		board := buildBoard(t,
			map[int]int{12: 5, 17: 4, 19: 5},
			map[int]int{2: 2, 6: 2, 13: 5, 8: 6},
			[2]int{1, 0},
		)
		observer := &recordingObserver{}
		game := NewGame("forfeit", WithBoard(board), WithRoller(NewSequenceRoller(6, 2)), WithObserver(observer))

		// When: white rolls 6-2
		_, _, err := game.RollDice()

		// Then: the turn passes straight to red
		require.NoError(t, err)
		assert.Equal(t, []Color{White}, observer.turns)
		assert.Equal(t, Red, game.Turn.Active)
		assert.Equal(t, PhaseAwaitingRoll, game.Phase)
		assert.Equal(t, [2]int{}, game.Turn.Dice)
		assert.Equal(t, "6-2", game.History.DiceLog())
		assert.Zero(t, game.History.MoveCounts[White])
	})

	t.Run("Refuses to roll on a corrupted board", func(t *testing.T) {
		game := NewGame("corrupt")
		game.Board.Slots[12].Checkers = append(game.Board.Slots[12].Checkers, Checker{Color: Red, Position: 12})

		_, _, err := game.RollDice()

		require.ErrorIs(t, err, apperror.ErrInvariantViolation)
		assert.Equal(t, PhaseAwaitingRoll, game.Phase)
	})
}

func TestGame_ApplyMove(t *testing.T) {
	t.Run("Rejects a move before the roll", func(t *testing.T) {
		game := NewGame("early")

		err := game.ApplyMove(Move{From: 1, DieIndex: 0, To: 4})

		require.ErrorIs(t, err, apperror.ErrWrongPhase)
	})

	t.Run("Rejects a move outside the legal set and changes nothing", func(t *testing.T) {
		// Given: white rolled 3-5 on the opening layout
		game := NewGame("invalid", WithRoller(NewSequenceRoller(3, 5)))
		_, _, err := game.RollDice()
		require.NoError(t, err)
		before := game.Board.Clone()
		turn := game.Turn

		// When: trying 1/6 onto red's stack
		err = game.ApplyMove(Move{From: 1, DieIndex: 1, To: 6})

		// Then: the move is refused and the game is untouched
		require.ErrorIs(t, err, apperror.ErrInvalidMove)
		assert.Equal(t, before, game.Board)
		assert.Equal(t, turn, game.Turn)
		assert.Empty(t, game.History.Moves)
	})

	t.Run("Spends the die of a regular roll", func(t *testing.T) {
		game := NewGame("spend", WithRoller(NewSequenceRoller(3, 5)))
		_, _, err := game.RollDice()
		require.NoError(t, err)

		err = game.ApplyMove(Move{From: 1, DieIndex: 0, To: 4})

		require.NoError(t, err)
		assert.Equal(t, [2]int{0, 5}, game.Turn.Dice)
		assert.Equal(t, 1, game.Turn.MovesRemaining)
		assert.Equal(t, PhaseMove, game.Phase)

		moves, err := game.LegalMoves()
		require.NoError(t, err)
		for _, move := range moves {
			assert.Equal(t, 1, move.DieIndex)
		}
	})

	t.Run("A doublet turn ends after exactly four moves", func(t *testing.T) {
		// Given: white rolled 2-2
		observer := &recordingObserver{}
		game := NewGame("budget", WithRoller(NewSequenceRoller(2, 2)), WithObserver(observer))
		_, _, err := game.RollDice()
		require.NoError(t, err)

		// When: playing the first legal move four times
		for i := 0; i < 4; i++ {
			require.Equal(t, White, game.Turn.Active)
			assert.Equal(t, 4-i, game.Turn.MovesRemaining)
			assert.Equal(t, [2]int{2, 2}, game.Turn.Dice)

			moves, err := game.LegalMoves()
			require.NoError(t, err)
			require.NotEmpty(t, moves)
			require.NoError(t, game.ApplyMove(moves[0]))
		}

		// Then: red is up and white is credited with four moves
		assert.Equal(t, []Color{White}, observer.turns)
		assert.Equal(t, Red, game.Turn.Active)
		assert.Equal(t, PhaseAwaitingRoll, game.Phase)
		assert.Equal(t, 4, game.History.MoveCounts[White])
	})

	t.Run("Bearing off the last checker wins", func(t *testing.T) {
		// Given: red's last checker on point 1 and red to move
		board := buildBoard(t, map[int]int{12: 15}, map[int]int{1: 1}, [2]int{})
		observer := &recordingObserver{}
		game := NewGame("win", WithBoard(board), WithRoller(NewSequenceRoller(1, 2)), WithObserver(observer))
		game.Turn.Active = Red
		_, _, err := game.RollDice()
		require.NoError(t, err)

		// When: red bears off with the 1
		err = game.ApplyMove(Move{From: 1, DieIndex: 0, To: OffBoard})

		// Then: the turn completes and red wins
		require.NoError(t, err)
		assert.Equal(t, PhaseGameOver, game.Phase)
		require.NotNil(t, game.Winner)
		assert.Equal(t, Red, *game.Winner)
		assert.Equal(t, ReasonBearOff, game.Reason)
		assert.Equal(t, []Color{Red}, observer.turns)
		assert.Equal(t, []Color{Red}, observer.overs)
		assert.Equal(t, 15, game.Board.BorneOff[Red])
		assert.Equal(t, "1/off", game.History.MoveLog())

		// And: nothing else is accepted
		_, _, err = game.RollDice()
		require.ErrorIs(t, err, apperror.ErrGameFinished)
		require.ErrorIs(t, game.ApplyMove(Move{From: 1, DieIndex: 1, To: OffBoard}), apperror.ErrGameFinished)
		_, err = game.LegalMoves()
		require.ErrorIs(t, err, apperror.ErrGameFinished)
		assert.Len(t, observer.overs, 1)
	})

	t.Run("Hits are recorded in the move log", func(t *testing.T) {
		board := buildBoard(t,
			map[int]int{1: 2, 12: 5, 17: 3, 19: 5},
			map[int]int{4: 1, 6: 14},
			[2]int{},
		)
		game := NewGame("hit", WithBoard(board), WithRoller(NewSequenceRoller(3, 5)))
		_, _, err := game.RollDice()
		require.NoError(t, err)

		require.NoError(t, game.ApplyMove(Move{From: 1, DieIndex: 0, To: 4}))

		assert.Equal(t, "1/4*", game.History.MoveLog())
		assert.Equal(t, 1, game.Board.Imprisoned[Red])
		assert.False(t, game.Board.Shelter[Red])
	})
}

func TestGame_LegalMoves(t *testing.T) {
	t.Run("Listing moves leaves the board untouched", func(t *testing.T) {
		// Given: white has rolled 3-5 and red carries a stale shelter flag
		game := NewGame("query", WithRoller(NewSequenceRoller(3, 5)))
		_, _, err := game.RollDice()
		require.NoError(t, err)
		game.Board.Shelter[Red] = true
		before := game.Board.Clone()

		// When: asking for the legal moves
		moves, err := game.LegalMoves()

		// Then: the moves come back and no flag was recomputed
		require.NoError(t, err)
		assert.Len(t, moves, 6)
		assert.Equal(t, before, game.Board)
		assert.True(t, game.Board.Shelter[Red])
	})

	t.Run("Nothing to list before the roll", func(t *testing.T) {
		game := NewGame("idle")

		moves, err := game.LegalMoves()

		require.NoError(t, err)
		assert.Empty(t, moves)
	})
}

func TestGame_Timeout(t *testing.T) {
	t.Run("Opponent wins on timeout", func(t *testing.T) {
		observer := &recordingObserver{}
		game := NewGame("timeout", WithObserver(observer))

		require.NoError(t, game.Timeout(White))

		require.NotNil(t, game.Winner)
		assert.Equal(t, Red, *game.Winner)
		assert.Equal(t, ReasonTimeout, game.Reason)
		assert.Equal(t, []Color{Red}, observer.overs)
		assert.Empty(t, observer.turns)
		require.ErrorIs(t, game.Timeout(Red), apperror.ErrGameFinished)
	})

	t.Run("CheckClock expires the running color", func(t *testing.T) {
		// Given: a ten second bank and a controllable clock
		now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		game := NewGame("clock",
			WithClock(10*time.Second),
			WithNow(func() time.Time { return now }),
			WithRoller(NewSequenceRoller(3, 5)),
		)

		// When: white thinks for nine seconds
		now = now.Add(9 * time.Second)

		// Then: still in time
		assert.False(t, game.CheckClock())
		assert.Equal(t, time.Second, game.Clock.Remaining(White, now))

		// When: two more seconds pass
		now = now.Add(2 * time.Second)

		// Then: white loses on time
		assert.True(t, game.CheckClock())
		require.NotNil(t, game.Winner)
		assert.Equal(t, Red, *game.Winner)
		assert.Equal(t, ReasonTimeout, game.Reason)
		assert.False(t, game.CheckClock())
	})

	t.Run("Only the active color is charged", func(t *testing.T) {
		now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		game := NewGame("charge",
			WithClock(time.Minute),
			WithNow(func() time.Time { return now }),
			WithRoller(NewSequenceRoller(3, 5)),
		)
		_, _, err := game.RollDice()
		require.NoError(t, err)

		now = now.Add(5 * time.Second)
		require.NoError(t, game.ApplyMove(Move{From: 1, DieIndex: 0, To: 4}))
		require.NoError(t, game.ApplyMove(Move{From: 12, DieIndex: 1, To: 17}))
		now = now.Add(7 * time.Second)

		assert.Equal(t, 55*time.Second, game.Clock.Remaining(White, now))
		assert.Equal(t, 53*time.Second, game.Clock.Remaining(Red, now))
	})
}

func TestGame_Reset(t *testing.T) {
	t.Run("Not allowed during a move phase", func(t *testing.T) {
		game := NewGame("reset", WithRoller(NewSequenceRoller(3, 5)))
		_, _, err := game.RollDice()
		require.NoError(t, err)

		require.ErrorIs(t, game.Reset(), apperror.ErrWrongPhase)
	})

	t.Run("Restores the opening after a finished game", func(t *testing.T) {
		game := NewGame("reset", WithRoller(NewSequenceRoller(3, 5)))
		require.NoError(t, game.Timeout(Red))

		require.NoError(t, game.Reset())

		assert.Equal(t, PhaseAwaitingRoll, game.Phase)
		assert.Equal(t, White, game.Turn.Active)
		assert.Nil(t, game.Winner)
		assert.Empty(t, game.Reason)
		assert.Equal(t, NewBoard(), game.Board)
		assert.Empty(t, game.History.Rolls)
	})
}

func TestGame_CurrentState(t *testing.T) {
	game := NewGame("state", WithRoller(NewSequenceRoller(3, 5)), WithPlayers(PolicyHuman, PolicyGreedy))
	_, _, err := game.RollDice()
	require.NoError(t, err)

	state := game.CurrentState()

	assert.Equal(t, "state", state.ID)
	assert.Equal(t, [2]int{3, 5}, state.Dice)
	assert.Equal(t, PhaseMove, state.Phase)
	assert.Equal(t, 2, state.Points[1].Height)
	require.NotNil(t, state.Points[1].Color)
	assert.Equal(t, White, *state.Points[1].Color)
	assert.Nil(t, state.Points[2].Color)
	assert.Equal(t, PolicyGreedy, state.Players[Red].Policy)

	t.Run("Observation has a fixed layout", func(t *testing.T) {
		observation := game.Observation(White)

		require.Len(t, observation, 52)
		assert.Equal(t, []float64{2, 0}, observation[0:2])
		assert.Equal(t, []float64{0, -1}, observation[2:4])
		assert.Equal(t, []float64{3, 5, 1, 0}, observation[48:])
		assert.Equal(t, 0.0, game.Observation(Red)[50])
	})
}

func TestGame_JSONRestore(t *testing.T) {
	// Given: a game halfway through white's turn
	game := NewGame("restore", WithRoller(NewSequenceRoller(3, 5)), WithPlayers(PolicyRandom, PolicyGreedy))
	_, _, err := game.RollDice()
	require.NoError(t, err)
	require.NoError(t, game.ApplyMove(Move{From: 1, DieIndex: 0, To: 4}))

	// When: it goes through JSON and gets its collaborators back
	data, err := json.Marshal(game)
	require.NoError(t, err)
	var restored Game
	require.NoError(t, json.Unmarshal(data, &restored))
	restored.Attach(WithRoller(NewSequenceRoller(6, 6)))

	// Then: play continues from the same position
	want, err := game.LegalMoves()
	require.NoError(t, err)
	got, err := restored.LegalMoves()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, PolicyRandom, restored.Players[White].Policy)
	require.NoError(t, restored.ApplyMove(Move{From: 12, DieIndex: 1, To: 17}))
	assert.Equal(t, Red, restored.Turn.Active)
}

func TestGame_RandomPlayKeepsInvariants(t *testing.T) {
	source := NewRandSource(42)

	for round := 0; round < 20; round++ {
		game := NewGame("random", WithRoller(NewRandomRoller(uint64(round+1))))

		for steps := 0; !game.IsFinished(); steps++ {
			require.Less(t, steps, 20000, "game did not finish")

			if game.Phase == PhaseAwaitingRoll {
				_, _, err := game.RollDice()
				require.NoError(t, err)
				continue
			}

			moves, err := game.LegalMoves()
			require.NoError(t, err)
			require.NotEmpty(t, moves)
			assertMoveSetShape(t, game, moves)

			budget := game.Turn.MovesRemaining
			require.NoError(t, game.ApplyMove(moves[source.Intn(len(moves))]))
			require.NoError(t, game.Board.Validate())
			if game.Phase == PhaseMove {
				assert.Equal(t, budget-1, game.Turn.MovesRemaining)
			}
		}

		require.NotNil(t, game.Winner)
		assert.Zero(t, game.Board.RemainingCheckers(*game.Winner))
		assert.Equal(t, CheckersPerColor, game.Board.BorneOff[*game.Winner])
	}
}

// assertMoveSetShape checks that jailed checkers come first and bear-off needs shelter.
func assertMoveSetShape(t *testing.T, game *Game, moves []Move) {
	t.Helper()

	active := game.Turn.Active
	for _, move := range moves {
		assert.Equal(t, active, move.Color)
		if game.Board.Imprisoned[active] > 0 {
			assert.Equal(t, KindEnter, move.Kind)
			assert.Equal(t, active.Jail(), move.From)
		}
		if move.IsBearOff() {
			assert.True(t, game.Board.Shelter[active])
		}
	}
}
