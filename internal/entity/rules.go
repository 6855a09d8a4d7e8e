package entity

// blocked reports whether color may not land on pos.
func blocked(board *Board, pos int, color Color) bool {
	top, ok := board.TopColor(pos)
	return ok && top != color && board.Height(pos) >= 2
}

// HasAnyMove reports whether color can use at least one of the dice.
func HasAnyMove(board *Board, color Color, dice [2]int) bool {
	return len(LegalMoves(board, color, dice)) > 0
}

// LegalMoves enumerates every single-die move available to color.
//
// Blocks are exclusive and tried in order: jail re-entry while any checker is
// jailed, then bear-off when the shelter flag is set and some die bears off,
// then normal moves. Each block is ordered by ascending point, then die index.
func LegalMoves(board *Board, color Color, dice [2]int) []Move {
	if board.Imprisoned[color] > 0 {
		return jailMoves(board, color, dice)
	}

	if board.Shelter[color] {
		if moves := bearOffMoves(board, color, dice); len(moves) > 0 {
			return moves
		}
	}
	return normalMoves(board, color, dice)
}

func jailMoves(board *Board, color Color, dice [2]int) []Move {
	var moves []Move
	for i, die := range dice {
		if die == 0 {
			continue
		}

		entry := color.EntryPoint(die)
		if blocked(board, entry, color) {
			continue
		}

		moves = append(moves, Move{
			Color:    color,
			From:     color.Jail(),
			DieIndex: i,
			To:       entry,
			Kind:     KindEnter,
		})
	}
	return moves
}

func bearOffMoves(board *Board, color Color, dice [2]int) []Move {
	var moves []Move
	from, to := color.HomeRange()
	for pos := from; pos <= to; pos++ {
		if board.Count(pos, color) == 0 {
			continue
		}

		distance := color.DistanceFromExit(pos)
		for i, die := range dice {
			if die == 0 || die < distance {
				continue
			}
			if die > distance && hasCheckerFarther(board, color, distance) {
				continue
			}

			moves = append(moves, Move{
				Color:    color,
				From:     pos,
				DieIndex: i,
				To:       OffBoard,
				Kind:     KindBearOff,
			})
		}
	}
	return moves
}

// hasCheckerFarther reports whether color has a checker farther than distance from the exit.
func hasCheckerFarther(board *Board, color Color, distance int) bool {
	for pos := FirstPoint; pos <= LastPoint; pos++ {
		if board.Count(pos, color) > 0 && color.DistanceFromExit(pos) > distance {
			return true
		}
	}
	return false
}

func normalMoves(board *Board, color Color, dice [2]int) []Move {
	var moves []Move
	for pos := FirstPoint; pos <= LastPoint; pos++ {
		if board.Count(pos, color) == 0 {
			continue
		}

		for i, die := range dice {
			if die == 0 {
				continue
			}

			target := pos + color.Direction()*die
			if target < FirstPoint || target > LastPoint || blocked(board, target, color) {
				continue
			}

			moves = append(moves, Move{
				Color:    color,
				From:     pos,
				DieIndex: i,
				To:       target,
				Kind:     KindNormal,
			})
		}
	}
	return moves
}
