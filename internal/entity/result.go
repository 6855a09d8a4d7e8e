package entity

import "time"

// Result is the summary written to the result log when a game ends.
type Result struct {
	GameID      string    `json:"game_id"`
	Winner      Color     `json:"winner"`
	Reason      Reason    `json:"reason"`
	WhiteMoves  int       `json:"white_moves"`
	RedMoves    int       `json:"red_moves"`
	WhitePolicy Policy    `json:"white_policy"`
	RedPolicy   Policy    `json:"red_policy"`
	EndedAt     time.Time `json:"ended_at"`
	DiceRolls   string    `json:"dice_rolls"`
	MoveLog     string    `json:"move_log"`
}

// Result summarizes a finished game. It reports false while the game is still running.
func (that *Game) Result(endedAt time.Time) (Result, bool) {
	if !that.IsFinished() || that.Winner == nil {
		return Result{}, false
	}

	return Result{
		GameID:      that.ID,
		Winner:      *that.Winner,
		Reason:      that.Reason,
		WhiteMoves:  that.History.MoveCounts[White],
		RedMoves:    that.History.MoveCounts[Red],
		WhitePolicy: that.Players[White].Policy,
		RedPolicy:   that.Players[Red].Policy,
		EndedAt:     endedAt,
		DiceRolls:   that.History.DiceLog(),
		MoveLog:     that.History.MoveLog(),
	}, true
}
