package service

import (
	"fmt"
	"sync"

	"github.com/samber/lo"

	"github.com/rocketscienceinc/backgammon-backend/internal/apperror"
	"github.com/rocketscienceinc/backgammon-backend/internal/entity"
)

// maxBotSteps bounds a single PlayTurn; a doublet turn needs at most a roll and four moves.
const maxBotSteps = 8

type BotService interface {
	Select(moves []entity.Move, policy entity.Policy) (entity.Move, error)
	PlayTurn(game *entity.Game) error
}

type botService struct {
	mu     sync.Mutex
	source entity.Intner
}

// NewBotService returns a move selector drawing its random choices from source.
func NewBotService(source entity.Intner) BotService {
	return &botService{source: source}
}

// Select picks one move from the legal set. Greedy takes the longest move and
// keeps the earliest on ties; random picks uniformly.
func (that *botService) Select(moves []entity.Move, policy entity.Policy) (entity.Move, error) {
	if len(moves) == 0 {
		return entity.Move{}, apperror.ErrNoLegalMoves
	}

	switch policy {
	case entity.PolicyGreedy:
		return lo.MaxBy(moves, func(candidate, best entity.Move) bool {
			return candidate.Distance() > best.Distance()
		}), nil
	case entity.PolicyRandom:
		that.mu.Lock()
		defer that.mu.Unlock()

		return moves[that.source.Intn(len(moves))], nil
	default:
		return entity.Move{}, fmt.Errorf("%w: %q cannot pick moves", entity.ErrUnknownPolicy, policy)
	}
}

// PlayTurn rolls for the active bot seat and plays until its turn ends.
func (that *botService) PlayTurn(game *entity.Game) error {
	seat := game.ActivePlayer()
	if !seat.IsBot() {
		return fmt.Errorf("%w: %s is not a bot seat", apperror.ErrNotYourTurn, seat.Color)
	}

	for step := 0; step < maxBotSteps; step++ {
		if game.IsFinished() || game.Turn.Active != seat.Color {
			return nil
		}

		if game.Phase == entity.PhaseAwaitingRoll {
			if _, _, err := game.RollDice(); err != nil {
				return fmt.Errorf("bot failed to roll: %w", err)
			}
			continue
		}

		moves, err := game.LegalMoves()
		if err != nil {
			return fmt.Errorf("bot failed to list moves: %w", err)
		}

		move, err := that.Select(moves, seat.Policy)
		if err != nil {
			return fmt.Errorf("bot failed to select move: %w", err)
		}

		if err = game.ApplyMove(move); err != nil {
			return fmt.Errorf("bot failed to make move: %w", err)
		}
	}

	return fmt.Errorf("%w: bot turn did not end", apperror.ErrInvariantViolation)
}
