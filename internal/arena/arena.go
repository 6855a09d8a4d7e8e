// Package arena plays bot-vs-bot games in bulk and summarises how the policies fared.
package arena

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/backgammon-backend/internal/entity"
	"github.com/rocketscienceinc/backgammon-backend/internal/service"
)

const (
	defaultMaxTurns = 2000
	seedSpreading   = uint64(0x9E3779B97F4A7C15)
)

var (
	ErrHumanSeat = errors.New("arena seats must be bots")
	ErrTurnLimit = errors.New("game did not finish within the turn limit")
	ErrNoGames   = errors.New("arena needs at least one game")
)

type Config struct {
	Games       int
	Concurrency int
	White       entity.Policy
	Red         entity.Policy
	Seed        uint64
	MaxTurns    int
}

// Outcome is one finished arena game.
type Outcome struct {
	Index  int
	Turns  int
	Result entity.Result
}

type resultRecorder interface {
	Record(ctx context.Context, result entity.Result) error
}

type Arena struct {
	logger  *slog.Logger
	results resultRecorder
	conf    Config
	now     func() time.Time
}

func New(logger *slog.Logger, results resultRecorder, conf Config) *Arena {
	if conf.Concurrency <= 0 {
		conf.Concurrency = 1
	}
	if conf.MaxTurns <= 0 {
		conf.MaxTurns = defaultMaxTurns
	}

	return &Arena{
		logger:  logger,
		results: results,
		conf:    conf,
		now:     time.Now,
	}
}

// Run plays every game and returns the outcomes in game order.
func (that *Arena) Run(ctx context.Context) ([]Outcome, error) {
	log := that.logger.With("method", "Run")

	if that.conf.Games <= 0 {
		return nil, ErrNoGames
	}

	for _, policy := range []entity.Policy{that.conf.White, that.conf.Red} {
		if seat := (entity.Player{Policy: policy}); !seat.IsBot() {
			return nil, fmt.Errorf("%w: got %q", ErrHumanSeat, policy)
		}
	}

	outcomes := make([]Outcome, that.conf.Games)

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(that.conf.Concurrency)

	for i := range that.conf.Games {
		group.Go(func() error {
			outcome, err := that.play(ctx, i)
			if err != nil {
				return fmt.Errorf("game %d: %w", i, err)
			}

			if err = that.results.Record(ctx, outcome.Result); err != nil {
				log.Error("failed to record result", "gameID", outcome.Result.GameID, "error", err)
			}

			outcomes[i] = outcome
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	log.Info("arena finished", "games", that.conf.Games, "white", that.conf.White, "red", that.conf.Red)
	return outcomes, nil
}

func (that *Arena) play(ctx context.Context, index int) (Outcome, error) {
	diceSeed, botSeed := gameSeeds(that.conf.Seed, index)

	counter := &turnCounter{}
	game := entity.NewGame(fmt.Sprintf("arena-%d", index),
		entity.WithPlayers(that.conf.White, that.conf.Red),
		entity.WithRoller(entity.NewRandomRoller(diceSeed)),
		entity.WithObserver(counter),
	)
	bot := service.NewBotService(entity.NewRandSource(botSeed))

	for !game.IsFinished() {
		if counter.turns >= that.conf.MaxTurns {
			return Outcome{}, fmt.Errorf("%w: %d turns", ErrTurnLimit, that.conf.MaxTurns)
		}

		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}

		if err := bot.PlayTurn(game); err != nil {
			return Outcome{}, fmt.Errorf("failed to play turn: %w", err)
		}
	}

	result, _ := game.Result(that.now())

	return Outcome{Index: index, Turns: counter.turns, Result: result}, nil
}

// gameSeeds derives independent dice and bot seeds per game. A zero base keeps
// both at zero so every game draws from OS entropy.
func gameSeeds(base uint64, index int) (uint64, uint64) {
	if base == 0 {
		return 0, 0
	}

	dice := base + uint64(index)*seedSpreading
	return dice, dice ^ seedSpreading
}

type turnCounter struct {
	turns int
}

func (that *turnCounter) OnTurnComplete(entity.Color) {
	that.turns++
}

func (that *turnCounter) OnGameOver(entity.Color) {}
