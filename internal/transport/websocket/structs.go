package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/backgammon-backend/internal/entity"
)

const (
	actionNewGame = "game:new"
	actionState   = "game:state"
	actionMoves   = "game:moves"
	actionRoll    = "game:roll"
	actionMove    = "game:move"
	actionReset   = "game:reset"
	actionDelete  = "game:delete"
	actionUpdate  = "game:update"
	actionUnknown = "error"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Request is the payload a client sends. Which fields matter depends on the action.
type Request struct {
	GameID string        `json:"game_id,omitempty"`
	Color  *entity.Color `json:"color,omitempty"`
	Move   *MoveRequest  `json:"move,omitempty"`
	White  string        `json:"white,omitempty"`
	Red    string        `json:"red,omitempty"`
}

type MoveRequest struct {
	From     int `json:"from"`
	DieIndex int `json:"die_index"`
	To       int `json:"to"`
}

type Response struct {
	Game  *entity.State `json:"game,omitempty"`
	Moves []entity.Move `json:"moves,omitempty"`
	Error *ErrorPayload `json:"error,omitempty"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
