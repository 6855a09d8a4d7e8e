package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/backgammon-backend/internal/apperror"
	"github.com/rocketscienceinc/backgammon-backend/internal/entity"
)

var errBadRequest = errors.New("bad request")

// errorCodes maps domain errors to the codes clients switch on. Order matters:
// the first match wins.
var errorCodes = []struct {
	err  error
	code string
}{
	{errBadRequest, "bad_request"},
	{entity.ErrUnknownPolicy, "bad_request"},
	{entity.ErrUnknownColor, "bad_request"},
	{apperror.ErrGameNotFound, "not_found"},
	{apperror.ErrGameFinished, "game_finished"},
	{apperror.ErrNotYourTurn, "not_your_turn"},
	{apperror.ErrWrongPhase, "wrong_phase"},
	{apperror.ErrInvalidMove, "invalid_move"},
	{apperror.ErrInvariantViolation, "invariant_violation"},
}

func (that *Server) handleNewGame(ctx context.Context, c *client, msg *Message) error {
	log := that.logger.With("method", "handleNewGame")

	req, err := decodeRequest(msg)
	if err != nil {
		return that.sendError(c, msg.Action, err)
	}

	white, err := policyOrDefault(req.White, that.defaultWhite)
	if err != nil {
		return that.sendError(c, msg.Action, err)
	}

	red, err := policyOrDefault(req.Red, that.defaultRed)
	if err != nil {
		return that.sendError(c, msg.Action, err)
	}

	game, err := that.gameUseCase.CreateGame(ctx, white, red)
	if err != nil {
		log.Error("failed to create game", "error", err)
		return that.sendError(c, msg.Action, err)
	}

	that.watch(game.ID, c)
	log.Info("game created", "gameID", game.ID)

	return that.sendGame(ctx, c, msg.Action, game)
}

func (that *Server) handleState(ctx context.Context, c *client, msg *Message) error {
	req, err := decodeGameRequest(msg)
	if err != nil {
		return that.sendError(c, msg.Action, err)
	}

	game, err := that.gameUseCase.GetGame(ctx, req.GameID)
	if err != nil {
		return that.sendError(c, msg.Action, err)
	}

	that.watch(game.ID, c)

	return that.sendGame(ctx, c, msg.Action, game)
}

func (that *Server) handleMoves(ctx context.Context, c *client, msg *Message) error {
	req, err := decodeGameRequest(msg)
	if err != nil {
		return that.sendError(c, msg.Action, err)
	}

	moves, err := that.gameUseCase.LegalMoves(ctx, req.GameID)
	if err != nil {
		return that.sendError(c, msg.Action, err)
	}

	return c.send(msg.Action, Response{Moves: moves})
}

func (that *Server) handleRoll(ctx context.Context, c *client, msg *Message) error {
	req, err := decodeSeatRequest(msg)
	if err != nil {
		return that.sendError(c, msg.Action, err)
	}

	game, err := that.gameUseCase.Roll(ctx, req.GameID, *req.Color)
	return that.respondToAction(ctx, c, msg.Action, game, err)
}

func (that *Server) handleMove(ctx context.Context, c *client, msg *Message) error {
	req, err := decodeSeatRequest(msg)
	if err != nil {
		return that.sendError(c, msg.Action, err)
	}

	if req.Move == nil {
		return that.sendError(c, msg.Action, fmt.Errorf("%w: move is required", errBadRequest))
	}

	move := entity.Move{
		From:     req.Move.From,
		DieIndex: req.Move.DieIndex,
		To:       req.Move.To,
	}

	game, err := that.gameUseCase.MakeMove(ctx, req.GameID, *req.Color, move)
	return that.respondToAction(ctx, c, msg.Action, game, err)
}

func (that *Server) handleReset(ctx context.Context, c *client, msg *Message) error {
	req, err := decodeGameRequest(msg)
	if err != nil {
		return that.sendError(c, msg.Action, err)
	}

	game, err := that.gameUseCase.Reset(ctx, req.GameID)
	return that.respondToAction(ctx, c, msg.Action, game, err)
}

func (that *Server) handleDelete(ctx context.Context, c *client, msg *Message) error {
	req, err := decodeGameRequest(msg)
	if err != nil {
		return that.sendError(c, msg.Action, err)
	}

	if err = that.gameUseCase.DeleteGame(ctx, req.GameID); err != nil {
		return that.sendError(c, msg.Action, err)
	}

	that.forget(req.GameID)

	return c.send(msg.Action, Response{})
}

// respondToAction answers a state-changing action. When the action failed but
// the game still moved on (its clock ran out), watchers get the new state too.
func (that *Server) respondToAction(ctx context.Context, c *client, action string, game *entity.Game, err error) error {
	if game != nil {
		that.watch(game.ID, c)
		that.broadcast(game, c)
	}

	if err != nil {
		return that.sendError(c, action, err)
	}

	return that.sendGame(ctx, c, action, game)
}

// sendGame replies with the state and, during a move phase, the legal moves.
func (that *Server) sendGame(ctx context.Context, c *client, action string, game *entity.Game) error {
	state := game.CurrentState()
	response := Response{Game: &state}

	if game.Phase == entity.PhaseMove {
		moves, err := that.gameUseCase.LegalMoves(ctx, game.ID)
		if err != nil {
			return that.sendError(c, action, err)
		}
		response.Moves = moves
	}

	return c.send(action, response)
}

func (that *Server) sendError(c *client, action string, cause error) error {
	payload := &ErrorPayload{Code: "internal", Message: cause.Error()}
	for _, candidate := range errorCodes {
		if errors.Is(cause, candidate.err) {
			payload.Code = candidate.code
			break
		}
	}

	if err := c.send(action, Response{Error: payload}); err != nil {
		return fmt.Errorf("failed to send error response: %w", err)
	}

	return nil
}

func policyOrDefault(value string, fallback entity.Policy) (entity.Policy, error) {
	if value == "" {
		return fallback, nil
	}

	return entity.ParsePolicy(value)
}

func decodeRequest(msg *Message) (*Request, error) {
	var req Request
	if len(msg.Payload) == 0 {
		return &req, nil
	}

	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal payload: %v", errBadRequest, err)
	}

	return &req, nil
}

func decodeGameRequest(msg *Message) (*Request, error) {
	req, err := decodeRequest(msg)
	if err != nil {
		return nil, err
	}

	if req.GameID == "" {
		return nil, fmt.Errorf("%w: game_id is required", errBadRequest)
	}

	return req, nil
}

func decodeSeatRequest(msg *Message) (*Request, error) {
	req, err := decodeGameRequest(msg)
	if err != nil {
		return nil, err
	}

	if req.Color == nil {
		return nil, fmt.Errorf("%w: color is required", errBadRequest)
	}

	return req, nil
}
