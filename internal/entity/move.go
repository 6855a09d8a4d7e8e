package entity

import (
	"errors"
	"fmt"
	"strconv"
)

// OffBoard is the destination of a bear-off move.
const OffBoard = -1

// MoveKind tags how a move leaves its source and reaches its destination.
type MoveKind int

const (
	KindNormal MoveKind = iota
	KindEnter
	KindBearOff
)

var ErrUnknownMoveKind = errors.New("unknown move kind")

var moveKindNames = map[MoveKind]string{
	KindNormal:  "normal",
	KindEnter:   "enter",
	KindBearOff: "bear_off",
}

func (that MoveKind) String() string {
	if name, ok := moveKindNames[that]; ok {
		return name
	}
	return "kind(" + strconv.Itoa(int(that)) + ")"
}

func (that MoveKind) MarshalText() ([]byte, error) {
	name, ok := moveKindNames[that]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMoveKind, int(that))
	}
	return []byte(name), nil
}

func (that *MoveKind) UnmarshalText(text []byte) error {
	for kind, name := range moveKindNames {
		if name == string(text) {
			*that = kind
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownMoveKind, text)
}

// Move consumes exactly one die. To is OffBoard for bear-off moves.
type Move struct {
	Color    Color    `json:"color"`
	From     int      `json:"from"`
	DieIndex int      `json:"die_index"`
	To       int      `json:"to"`
	Kind     MoveKind `json:"kind"`
}

func (that Move) IsBearOff() bool {
	return that.Kind == KindBearOff
}

// Distance is the number of pips the checker advances.
func (that Move) Distance() int {
	if that.IsBearOff() {
		return that.Color.DistanceFromExit(that.From)
	}

	distance := that.To - that.From
	if distance < 0 {
		return -distance
	}
	return distance
}

// Matches compares the fields an external actor supplies.
func (that Move) Matches(other Move) bool {
	return that.From == other.From && that.DieIndex == other.DieIndex && that.To == other.To
}

func (that Move) String() string {
	from := strconv.Itoa(that.From)
	if that.Kind == KindEnter {
		from = "bar"
	}
	to := strconv.Itoa(that.To)
	if that.IsBearOff() {
		to = "off"
	}
	return from + "/" + to
}
