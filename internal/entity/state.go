package entity

// PointView is one slot as seen by an observer. Color is nil for an empty slot.
type PointView struct {
	Color  *Color `json:"color,omitempty"`
	Height int    `json:"height"`
}

// State is the read-only observation surface handed to UIs and policies.
type State struct {
	ID             string              `json:"id"`
	Points         [NumSlots]PointView `json:"points"`
	Dice           [2]int              `json:"dice"`
	Active         Color               `json:"active"`
	Phase          Phase               `json:"phase"`
	MovesRemaining int                 `json:"moves_remaining"`
	MovesBudget    int                 `json:"moves_budget"`
	IsDoublet      bool                `json:"is_doublet"`
	Shelter        [2]bool             `json:"shelter"`
	Imprisoned     [2]int              `json:"imprisoned"`
	BorneOff       [2]int              `json:"borne_off"`
	Winner         *Color              `json:"winner,omitempty"`
	Reason         Reason              `json:"reason,omitempty"`
	Players        [2]Player           `json:"players"`
}

func (that *Game) CurrentState() State {
	state := State{
		ID:             that.ID,
		Dice:           that.Turn.Dice,
		Active:         that.Turn.Active,
		Phase:          that.Phase,
		MovesRemaining: that.Turn.MovesRemaining,
		MovesBudget:    that.Turn.MovesBudget,
		IsDoublet:      that.Turn.IsDoublet,
		Shelter:        that.Board.Shelter,
		Imprisoned:     that.Board.Imprisoned,
		BorneOff:       that.Board.BorneOff,
		Reason:         that.Reason,
		Players:        that.Players,
	}
	if that.Winner != nil {
		winner := *that.Winner
		state.Winner = &winner
	}

	for pos := range that.Board.Slots {
		state.Points[pos].Height = that.Board.Height(pos)
		if color, ok := that.Board.TopColor(pos); ok {
			state.Points[pos].Color = &color
		}
	}
	return state
}

// Observation flattens the state into the vector a learned policy consumes:
// height and owner (-1 when empty) for points 1-24, both dice, whether color
// is on turn, and whether color may bear off.
func (that *Game) Observation(color Color) []float64 {
	observation := make([]float64, 0, 2*LastPoint+4)
	for pos := FirstPoint; pos <= LastPoint; pos++ {
		owner := -1.0
		if top, ok := that.Board.TopColor(pos); ok {
			owner = float64(top)
		}
		observation = append(observation, float64(that.Board.Height(pos)), owner)
	}

	onTurn := 0.0
	if that.Turn.Active == color && !that.IsFinished() {
		onTurn = 1
	}
	shelter := 0.0
	if that.Board.Shelter[color] {
		shelter = 1
	}

	return append(observation, float64(that.Turn.Dice[0]), float64(that.Turn.Dice[1]), onTurn, shelter)
}
