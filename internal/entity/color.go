package entity

import (
	"errors"
	"fmt"
)

// Color identifies a side. It doubles as an index into per-color arrays.
type Color int

const (
	White Color = iota
	Red
)

const (
	colorWhite = "white"
	colorRed   = "red"
)

var ErrUnknownColor = errors.New("unknown color")

// Colors lists both sides in turn order.
var Colors = [2]Color{White, Red}

func (that Color) String() string {
	switch that {
	case White:
		return colorWhite
	case Red:
		return colorRed
	default:
		return fmt.Sprintf("color(%d)", int(that))
	}
}

func (that Color) MarshalText() ([]byte, error) {
	if that != White && that != Red {
		return nil, fmt.Errorf("%w: %d", ErrUnknownColor, int(that))
	}
	return []byte(that.String()), nil
}

func (that *Color) UnmarshalText(text []byte) error {
	switch string(text) {
	case colorWhite:
		*that = White
	case colorRed:
		*that = Red
	default:
		return fmt.Errorf("%w: %q", ErrUnknownColor, text)
	}
	return nil
}

// Opponent returns the other side.
func (that Color) Opponent() Color {
	if that == White {
		return Red
	}
	return White
}

// Direction is +1 for White and -1 for Red.
func (that Color) Direction() int {
	if that == White {
		return 1
	}
	return -1
}

// Jail returns the slot holding this color's captured checkers.
func (that Color) Jail() int {
	if that == White {
		return WhiteJail
	}
	return RedJail
}

// EntryPoint returns the point a jailed checker enters on with the given die.
func (that Color) EntryPoint(die int) int {
	if that == White {
		return die
	}
	return RedJail - die
}

// HomeRange returns the lowest and highest point of this color's home quadrant.
func (that Color) HomeRange() (int, int) {
	if that == White {
		return 19, 24
	}
	return 1, 6
}

// InHome reports whether a point lies inside this color's home quadrant.
func (that Color) InHome(pos int) bool {
	from, to := that.HomeRange()
	return pos >= from && pos <= to
}

// DistanceFromExit is the number of pips a checker on pos still needs to bear off.
func (that Color) DistanceFromExit(pos int) int {
	if that == White {
		return RedJail - pos
	}
	return pos
}
