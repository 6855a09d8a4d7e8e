package entity

// execute applies a move that LegalMoves produced and reports whether it hit a blot.
// Calling it with any other move is a caller bug.
func execute(board *Board, move Move) bool {
	if move.IsBearOff() {
		board.PopTop(move.From)
		board.BorneOff[move.Color]++
		return false
	}

	opponent := move.Color.Opponent()
	hit := board.Count(move.To, opponent) == 1
	if hit {
		captured, _ := board.PopTop(move.To)
		captured.Imprisoned = true
		board.Place(captured, opponent.Jail())
		board.Imprisoned[opponent]++
		board.Shelter[opponent] = false
	}

	checker, _ := board.PopTop(move.From)
	if checker.Imprisoned {
		checker.Imprisoned = false
		board.Imprisoned[move.Color]--
	}
	board.Place(checker, move.To)

	return hit
}
