package usecase

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"lukechampine.com/frand"

	"github.com/rocketscienceinc/backgammon-backend/internal/apperror"
	"github.com/rocketscienceinc/backgammon-backend/internal/entity"
)

// maxAutoTurns bounds how many bot turns a single action may trigger.
const maxAutoTurns = 5000

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
	ListIDs(ctx context.Context) ([]string, error)
}

type resultRepo interface {
	Record(ctx context.Context, result entity.Result) error
}

type eventPublisher interface {
	Publish(ctx context.Context, event entity.Event) error
}

type botPlayer interface {
	PlayTurn(game *entity.Game) error
}

type GameManager struct {
	logger *slog.Logger

	gameRepo   gameRepo
	resultRepo resultRepo
	publisher  eventPublisher
	bot        botPlayer

	timeLimit time.Duration
	roller    entity.Roller
	now       func() time.Time
	newID     func() string

	locks gameLocks
}

type ManagerOption func(manager *GameManager)

func WithTimeLimit(limit time.Duration) ManagerOption {
	return func(manager *GameManager) {
		manager.timeLimit = limit
	}
}

// WithRoller shares one roller across every managed game.
func WithRoller(roller entity.Roller) ManagerOption {
	return func(manager *GameManager) {
		manager.roller = &lockedRoller{roller: roller}
	}
}

func WithNow(now func() time.Time) ManagerOption {
	return func(manager *GameManager) {
		manager.now = now
	}
}

func WithIDGenerator(newID func() string) ManagerOption {
	return func(manager *GameManager) {
		manager.newID = newID
	}
}

func NewGameManager(
	logger *slog.Logger,
	gameRepo gameRepo,
	resultRepo resultRepo,
	publisher eventPublisher,
	bot botPlayer,
	opts ...ManagerOption,
) *GameManager {
	manager := &GameManager{
		logger: logger,

		gameRepo:   gameRepo,
		resultRepo: resultRepo,
		publisher:  publisher,
		bot:        bot,

		roller: &lockedRoller{roller: entity.NewRandomRoller(0)},
		now:    time.Now,
		newID:  generateGameID,
		locks:  gameLocks{locks: make(map[string]*gameLock)},
	}
	for _, opt := range opts {
		opt(manager)
	}

	return manager
}

// CreateGame opens a session and plays White's first turn if White is a bot.
func (that *GameManager) CreateGame(ctx context.Context, white, red entity.Policy) (*entity.Game, error) {
	log := that.logger.With("method", "CreateGame")

	recorder := &eventRecorder{}
	game := entity.NewGame(that.newID(),
		entity.WithPlayers(white, red),
		entity.WithClock(that.timeLimit),
		entity.WithNow(that.now),
		entity.WithRoller(that.roller),
		entity.WithObserver(recorder),
	)
	recorder.gameID = game.ID

	unlock := that.locks.lock(game.ID)
	defer unlock()

	if err := that.autoPlay(game); err != nil {
		return nil, fmt.Errorf("failed to play bot turn: %w", err)
	}

	if err := that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	that.flush(ctx, game, recorder)
	log.Info("game created", "gameID", game.ID, "white", white, "red", red)

	return game, nil
}

// GetGame returns the session after checking its clock.
func (that *GameManager) GetGame(ctx context.Context, id string) (*entity.Game, error) {
	return that.withGame(ctx, id, func(*entity.Game) error {
		return nil
	})
}

func (that *GameManager) GetState(ctx context.Context, id string) (entity.State, error) {
	game, err := that.GetGame(ctx, id)
	if err != nil {
		return entity.State{}, err
	}

	return game.CurrentState(), nil
}

func (that *GameManager) LegalMoves(ctx context.Context, id string) ([]entity.Move, error) {
	var moves []entity.Move

	_, err := that.withGame(ctx, id, func(game *entity.Game) error {
		var err error
		moves, err = game.LegalMoves()
		return err
	})
	if err != nil {
		return nil, err
	}

	return moves, nil
}

// Roll rolls for color's seat; a bot opponent answers before it returns.
func (that *GameManager) Roll(ctx context.Context, id string, color entity.Color) (*entity.Game, error) {
	return that.withGame(ctx, id, func(game *entity.Game) error {
		if err := checkSeat(game, color); err != nil {
			return err
		}

		if _, _, err := game.RollDice(); err != nil {
			return err
		}

		return that.autoPlay(game)
	})
}

func (that *GameManager) MakeMove(ctx context.Context, id string, color entity.Color, move entity.Move) (*entity.Game, error) {
	return that.withGame(ctx, id, func(game *entity.Game) error {
		if err := checkSeat(game, color); err != nil {
			return err
		}

		move.Color = color
		if err := game.ApplyMove(move); err != nil {
			return err
		}

		return that.autoPlay(game)
	})
}

func (that *GameManager) Reset(ctx context.Context, id string) (*entity.Game, error) {
	return that.withGame(ctx, id, func(game *entity.Game) error {
		if err := game.Reset(); err != nil {
			return err
		}

		return that.autoPlay(game)
	})
}

// DeleteGame drops a session. Deleting a missing game is not an error.
func (that *GameManager) DeleteGame(ctx context.Context, id string) error {
	unlock := that.locks.lock(id)
	defer unlock()

	if err := that.gameRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}

	that.logger.Info("game deleted", "gameID", id)
	return nil
}

// ExpireTimedOut ends every stored game whose running clock has run out.
func (that *GameManager) ExpireTimedOut(ctx context.Context) (int, error) {
	log := that.logger.With("method", "ExpireTimedOut")

	ids, err := that.gameRepo.ListIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list games: %w", err)
	}

	expired := 0
	for _, id := range ids {
		_, timedOut, err := that.update(ctx, id, func(*entity.Game) error {
			return nil
		})
		if err != nil {
			if !errors.Is(err, apperror.ErrGameNotFound) {
				log.Error("failed to check game clock", "gameID", id, "error", err)
			}
			continue
		}

		if timedOut {
			expired++
		}
	}

	return expired, nil
}

func (that *GameManager) withGame(ctx context.Context, id string, fn func(game *entity.Game) error) (*entity.Game, error) {
	game, _, err := that.update(ctx, id, fn)
	return game, err
}

// update loads a session, lets its clock run out if due, applies fn and stores
// the result. A failed fn that changed nothing leaves storage untouched.
func (that *GameManager) update(ctx context.Context, id string, fn func(game *entity.Game) error) (*entity.Game, bool, error) {
	unlock := that.locks.lock(id)
	defer unlock()

	game, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get game: %w", err)
	}

	recorder := &eventRecorder{gameID: game.ID}
	game.Attach(
		entity.WithRoller(that.roller),
		entity.WithObserver(recorder),
		entity.WithNow(that.now),
	)

	timedOut := game.CheckClock()
	if timedOut {
		that.logger.Info("game clock expired", "gameID", game.ID, "winner", game.Winner.String())
	}

	steps := len(game.History.Rolls) + len(game.History.Moves)
	phase := game.Phase

	fnErr := fn(game)

	changed := timedOut || phase != game.Phase || steps != len(game.History.Rolls)+len(game.History.Moves)
	if fnErr != nil && !changed {
		return nil, false, fnErr
	}

	if changed {
		if err = that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
			return nil, timedOut, fmt.Errorf("failed to update game: %w", err)
		}
		that.flush(ctx, game, recorder)
	}

	return game, timedOut, fnErr
}

// autoPlay lets bot seats take their turns until a human is up or the game ends.
func (that *GameManager) autoPlay(game *entity.Game) error {
	for turn := 0; !game.IsFinished() && game.ActivePlayer().IsBot(); turn++ {
		if turn >= maxAutoTurns {
			return fmt.Errorf("%w: bots did not finish in %d turns", apperror.ErrInvariantViolation, maxAutoTurns)
		}

		if err := that.bot.PlayTurn(game); err != nil {
			return fmt.Errorf("failed to play bot turn: %w", err)
		}
	}

	return nil
}

// flush publishes the recorded events and writes the result once the game is over.
func (that *GameManager) flush(ctx context.Context, game *entity.Game, recorder *eventRecorder) {
	log := that.logger.With("method", "flush", "gameID", game.ID)

	for _, event := range recorder.events {
		if event.Kind == entity.EventGameOver {
			event.Reason = game.Reason
		}

		if err := that.publisher.Publish(ctx, event); err != nil {
			log.Error("failed to publish event", "event", event.Kind, "error", err)
		}

		if event.Kind != entity.EventGameOver {
			continue
		}

		result, ok := game.Result(that.now())
		if !ok {
			continue
		}

		if err := that.resultRepo.Record(ctx, result); err != nil {
			log.Error("failed to record result", "error", err)
			continue
		}

		log.Info("game over", "winner", result.Winner, "reason", result.Reason)
	}
}

func checkSeat(game *entity.Game, color entity.Color) error {
	if game.IsFinished() {
		return apperror.ErrGameFinished
	}

	if game.Turn.Active != color {
		return fmt.Errorf("%w: %s is to play", apperror.ErrNotYourTurn, game.Turn.Active)
	}

	if game.ActivePlayer().IsBot() {
		return fmt.Errorf("%w: %s is played by a bot", apperror.ErrNotYourTurn, color)
	}

	return nil
}

func generateGameID() string {
	return hex.EncodeToString(frand.Bytes(8))
}

type eventRecorder struct {
	gameID string
	events []entity.Event
}

func (that *eventRecorder) OnTurnComplete(color entity.Color) {
	that.events = append(that.events, entity.Event{GameID: that.gameID, Kind: entity.EventTurnComplete, Color: color})
}

func (that *eventRecorder) OnGameOver(winner entity.Color) {
	that.events = append(that.events, entity.Event{GameID: that.gameID, Kind: entity.EventGameOver, Color: winner})
}

type lockedRoller struct {
	mu     sync.Mutex
	roller entity.Roller
}

func (that *lockedRoller) Roll() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.roller.Roll()
}

type gameLock struct {
	sync.Mutex
	refs int
}

// gameLocks serializes actions per game id. Entries live only while in use.
type gameLocks struct {
	mu    sync.Mutex
	locks map[string]*gameLock
}

func (that *gameLocks) lock(id string) func() {
	that.mu.Lock()
	entry, ok := that.locks[id]
	if !ok {
		entry = &gameLock{}
		that.locks[id] = entry
	}
	entry.refs++
	that.mu.Unlock()

	entry.Lock()

	return func() {
		entry.Unlock()

		that.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(that.locks, id)
		}
		that.mu.Unlock()
	}
}
