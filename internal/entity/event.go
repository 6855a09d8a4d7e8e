package entity

type EventKind string

const (
	EventTurnComplete EventKind = "turn_complete"
	EventGameOver     EventKind = "game_over"
)

// Event is an outward notification about one session.
type Event struct {
	GameID string    `json:"game_id"`
	Kind   EventKind `json:"event"`
	Color  Color     `json:"color"`
	Reason Reason    `json:"reason,omitempty"`
}
