package entity

import (
	"encoding/binary"

	"lukechampine.com/frand"
)

const (
	DieFaces = 6

	budgetRegular = 2
	budgetDoublet = 4

	rngBufferSize = 1024
	rngRounds     = 12
)

// Roller produces one die value in [1, 6] per call.
type Roller interface {
	Roll() int
}

// Intner is the random source shared by the dice and the random bot policy.
type Intner interface {
	Intn(n int) int
}

// NewRandSource returns a ChaCha-based source. A zero seed draws entropy from the OS.
func NewRandSource(seed uint64) Intner {
	if seed == 0 {
		return frand.New()
	}

	key := make([]byte, 32)
	binary.LittleEndian.PutUint64(key, seed)
	return frand.NewCustom(key, rngBufferSize, rngRounds)
}

type randomRoller struct {
	source Intner
}

// NewRandomRoller returns a uniform roller; equal seeds yield equal sequences.
func NewRandomRoller(seed uint64) Roller {
	return &randomRoller{source: NewRandSource(seed)}
}

func (that *randomRoller) Roll() int {
	return that.source.Intn(DieFaces) + 1
}

// SequenceRoller replays fixed values in order and wraps around.
type SequenceRoller struct {
	Values []int
	next   int
}

func NewSequenceRoller(values ...int) *SequenceRoller {
	return &SequenceRoller{Values: values}
}

func (that *SequenceRoller) Roll() int {
	if len(that.Values) == 0 {
		return 1
	}
	value := that.Values[that.next%len(that.Values)]
	that.next++
	return value
}

// TurnState is the per-turn dice bookkeeping. A zero die has been spent.
type TurnState struct {
	Active         Color  `json:"active"`
	Dice           [2]int `json:"dice"`
	IsDoublet      bool   `json:"is_doublet"`
	MovesRemaining int    `json:"moves_remaining"`
	MovesBudget    int    `json:"moves_budget"`
}

// setRoll loads a fresh roll and its move budget.
func (that *TurnState) setRoll(d0, d1 int) {
	that.Dice = [2]int{d0, d1}
	that.IsDoublet = d0 == d1
	that.MovesBudget = budgetRegular
	if that.IsDoublet {
		that.MovesBudget = budgetDoublet
	}
	that.MovesRemaining = that.MovesBudget
}

// consume spends one move. Doublet faces stay readable until the budget runs out.
func (that *TurnState) consume(dieIndex int) {
	that.MovesRemaining--
	if !that.IsDoublet {
		that.Dice[dieIndex] = 0
	}
}

func (that *TurnState) clearDice() {
	that.Dice = [2]int{}
	that.IsDoublet = false
	that.MovesRemaining = 0
	that.MovesBudget = 0
}
