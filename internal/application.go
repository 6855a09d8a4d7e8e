package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rocketscienceinc/backgammon-backend/internal/config"
	"github.com/rocketscienceinc/backgammon-backend/internal/entity"
	"github.com/rocketscienceinc/backgammon-backend/internal/repository"
	"github.com/rocketscienceinc/backgammon-backend/internal/repository/storage"
	"github.com/rocketscienceinc/backgammon-backend/internal/service"
	"github.com/rocketscienceinc/backgammon-backend/internal/transport/events"
	"github.com/rocketscienceinc/backgammon-backend/internal/transport/websocket"
	"github.com/rocketscienceinc/backgammon-backend/internal/usecase"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	whitePolicy, err := entity.ParsePolicy(conf.Game.WhitePolicy)
	if err != nil {
		return fmt.Errorf("invalid white policy: %w", err)
	}

	redPolicy, err := entity.ParsePolicy(conf.Game.RedPolicy)
	if err != nil {
		return fmt.Errorf("invalid red policy: %w", err)
	}

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString, conf.Storage.ConnectAttempts)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	resultRepo, closeResults, err := initResultRepo(ctx, log, conf)
	if err != nil {
		return err
	}
	defer closeResults()

	publisher, err := events.NewPublisher(ctx, logger, conf.Nats.URL, conf.Storage.ConnectAttempts)
	if err != nil {
		return fmt.Errorf("could not connect to nats: %w", err)
	}
	defer publisher.Close()

	gameRepo := repository.NewGameRepository(redisStorage.Connection)
	bot := service.NewBotService(entity.NewRandSource(conf.Game.Seed))
	gameUseCase := usecase.NewGameManager(logger, gameRepo, resultRepo, publisher, bot,
		usecase.WithTimeLimit(conf.Game.TimeLimit),
		usecase.WithRoller(entity.NewRandomRoller(conf.Game.Seed)),
	)

	go runClockSweep(ctx, logger, gameUseCase, conf.Game.ClockCheckInterval)

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, gameUseCase, websocket.WithDefaultPolicies(whitePolicy, redPolicy))
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// initResultRepo connects the result log when a DSN is configured.
func initResultRepo(ctx context.Context, log *slog.Logger, conf *config.Config) (repository.ResultRepository, func(), error) {
	if conf.Postgres.DSN == "" {
		log.Info("Result log disabled, no postgres dsn configured")
		return repository.NewResultRepository(nil), func() {}, nil
	}

	pgStorage, err := storage.NewPostgresStorage(ctx, conf.Postgres.DSN, conf.Storage.ConnectAttempts)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to postgres storage: %w", err)
	}

	resultRepo := repository.NewResultRepository(pgStorage.Pool)
	if err = resultRepo.Init(ctx); err != nil {
		pgStorage.Close()
		return nil, nil, fmt.Errorf("could not prepare result log: %w", err)
	}

	return resultRepo, pgStorage.Close, nil
}

type clockSweeper interface {
	ExpireTimedOut(ctx context.Context) (int, error)
}

// runClockSweep ends games whose clock ran out even when nobody touches them.
func runClockSweep(ctx context.Context, logger *slog.Logger, sweeper clockSweeper, interval time.Duration) {
	log := logger.With("method", "runClockSweep")

	if interval <= 0 {
		log.Info("Clock sweep disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, err := sweeper.ExpireTimedOut(ctx)
			if err != nil {
				log.Error("failed to expire games", "error", err)
				continue
			}
			if expired > 0 {
				log.Info("expired games", "count", expired)
			}
		}
	}
}
