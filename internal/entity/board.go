package entity

import (
	"fmt"

	"github.com/rocketscienceinc/backgammon-backend/internal/apperror"
)

const (
	WhiteJail = 0
	RedJail   = 25

	FirstPoint = 1
	LastPoint  = 24

	NumSlots         = 26
	CheckersPerColor = 15
)

// Checker is a single piece. Only the top checker of a slot may move.
type Checker struct {
	Color      Color `json:"color"`
	Position   int   `json:"position"`
	Imprisoned bool  `json:"imprisoned,omitempty"`
}

// Slot is an ordered stack of checkers; the last element is the top.
type Slot struct {
	Checkers []Checker `json:"checkers"`
}

// Board is a pure container: it never checks legality.
type Board struct {
	Slots      [NumSlots]Slot `json:"slots"`
	Imprisoned [2]int         `json:"imprisoned"`
	BorneOff   [2]int         `json:"borne_off"`
	Shelter    [2]bool        `json:"shelter"`
}

// openingLayout lists White's starting stacks; Red mirrors them.
var openingLayout = []struct {
	point int
	count int
}{
	{1, 2},
	{12, 5},
	{17, 3},
	{19, 5},
}

// NewBoard returns a board with the standard opening layout.
func NewBoard() *Board {
	board := &Board{}
	for _, stack := range openingLayout {
		for i := 0; i < stack.count; i++ {
			board.Place(Checker{Color: White}, stack.point)
			board.Place(Checker{Color: Red}, RedJail-stack.point)
		}
	}
	return board
}

// NewEmptyBoard returns a board without checkers. Callers are expected to
// populate it with SetPoint/SetJail/SetBorneOff before use.
func NewEmptyBoard() *Board {
	return &Board{}
}

func (that *Board) Height(pos int) int {
	return len(that.Slots[pos].Checkers)
}

// TopColor returns the color of the top checker, or false when the slot is empty.
func (that *Board) TopColor(pos int) (Color, bool) {
	checkers := that.Slots[pos].Checkers
	if len(checkers) == 0 {
		return White, false
	}
	return checkers[len(checkers)-1].Color, true
}

// Place appends a checker to the slot and updates its position.
func (that *Board) Place(checker Checker, pos int) {
	checker.Position = pos
	that.Slots[pos].Checkers = append(that.Slots[pos].Checkers, checker)
}

// PopTop removes and returns the top checker.
func (that *Board) PopTop(pos int) (Checker, bool) {
	checkers := that.Slots[pos].Checkers
	if len(checkers) == 0 {
		return Checker{}, false
	}
	top := checkers[len(checkers)-1]
	that.Slots[pos].Checkers = checkers[:len(checkers)-1]
	return top, true
}

// Count returns how many checkers of color sit on pos.
func (that *Board) Count(pos int, color Color) int {
	if top, ok := that.TopColor(pos); ok && top == color {
		return that.Height(pos)
	}
	return 0
}

// OnBoard counts the color's checkers on points 1-24.
func (that *Board) OnBoard(color Color) int {
	count := 0
	for pos := FirstPoint; pos <= LastPoint; pos++ {
		count += that.Count(pos, color)
	}
	return count
}

// RemainingCheckers is on-board plus jailed; zero once all 15 are borne off.
func (that *Board) RemainingCheckers(color Color) int {
	return that.OnBoard(color) + that.Imprisoned[color]
}

// RefreshShelter recomputes whether color may bear off.
func (that *Board) RefreshShelter(color Color) bool {
	inHome := 0
	from, to := color.HomeRange()
	for pos := from; pos <= to; pos++ {
		inHome += that.Count(pos, color)
	}

	that.Shelter[color] = that.Imprisoned[color] == 0 && inHome+that.BorneOff[color] == CheckersPerColor
	return that.Shelter[color]
}

// SetPoint replaces the contents of a playable point with count checkers of color.
func (that *Board) SetPoint(pos int, color Color, count int) {
	that.Slots[pos].Checkers = nil
	for i := 0; i < count; i++ {
		that.Place(Checker{Color: color}, pos)
	}
}

// SetJail puts count imprisoned checkers of color into its jail.
func (that *Board) SetJail(color Color, count int) {
	jail := color.Jail()
	that.Slots[jail].Checkers = nil
	for i := 0; i < count; i++ {
		that.Place(Checker{Color: color, Imprisoned: true}, jail)
	}
	that.Imprisoned[color] = count
}

// SetBorneOff records count checkers of color as already removed.
func (that *Board) SetBorneOff(color Color, count int) {
	that.BorneOff[color] = count
}

// Validate checks the structural invariants every legality decision relies on.
func (that *Board) Validate() error {
	for pos := range that.Slots {
		checkers := that.Slots[pos].Checkers
		for i := 1; i < len(checkers); i++ {
			if checkers[i].Color != checkers[0].Color {
				return fmt.Errorf("%w: slot %d holds both colors", apperror.ErrInvariantViolation, pos)
			}
		}
	}

	for _, color := range Colors {
		jail := color.Jail()
		if that.Height(jail) != that.Imprisoned[color] {
			return fmt.Errorf("%w: %s jail holds %d checkers, counter says %d",
				apperror.ErrInvariantViolation, color, that.Height(jail), that.Imprisoned[color])
		}
		if that.Imprisoned[color] > 0 {
			if top, _ := that.TopColor(jail); top != color {
				return fmt.Errorf("%w: %s jail holds foreign checkers", apperror.ErrInvariantViolation, color)
			}
		}

		total := that.OnBoard(color) + that.Imprisoned[color] + that.BorneOff[color]
		if total != CheckersPerColor {
			return fmt.Errorf("%w: %s accounts for %d checkers", apperror.ErrInvariantViolation, color, total)
		}
	}

	return nil
}

// Clone returns a deep copy.
func (that *Board) Clone() *Board {
	clone := *that
	for pos := range that.Slots {
		clone.Slots[pos].Checkers = append([]Checker(nil), that.Slots[pos].Checkers...)
	}
	return &clone
}
