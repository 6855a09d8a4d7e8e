package entity

import (
	"strconv"
	"strings"
)

type Roll struct {
	Color Color  `json:"color"`
	Dice  [2]int `json:"dice"`
}

type PlayedMove struct {
	Move
	Hit bool `json:"hit,omitempty"`
}

func (that PlayedMove) String() string {
	if that.Hit {
		return that.Move.String() + "*"
	}
	return that.Move.String()
}

// History is the record a result log is written from.
type History struct {
	Rolls      []Roll       `json:"rolls"`
	Moves      []PlayedMove `json:"moves"`
	MoveCounts [2]int       `json:"move_counts"`
}

func (that *History) addRoll(color Color, d0, d1 int) {
	that.Rolls = append(that.Rolls, Roll{Color: color, Dice: [2]int{d0, d1}})
}

func (that *History) addMove(move Move, hit bool) {
	that.Moves = append(that.Moves, PlayedMove{Move: move, Hit: hit})
	that.MoveCounts[move.Color]++
}

// DiceLog formats rolls as "3-5 6-6 ...".
func (that *History) DiceLog() string {
	parts := make([]string, 0, len(that.Rolls))
	for _, roll := range that.Rolls {
		parts = append(parts, strconv.Itoa(roll.Dice[0])+"-"+strconv.Itoa(roll.Dice[1]))
	}
	return strings.Join(parts, " ")
}

// MoveLog formats moves as "1/4 12/17* bar/5 22/off ...".
func (that *History) MoveLog() string {
	parts := make([]string, 0, len(that.Moves))
	for _, move := range that.Moves {
		parts = append(parts, move.String())
	}
	return strings.Join(parts, " ")
}
