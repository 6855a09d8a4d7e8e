// Command arena pits two bot policies against each other and prints how they fared.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rocketscienceinc/backgammon-backend/internal/arena"
	"github.com/rocketscienceinc/backgammon-backend/internal/config"
	"github.com/rocketscienceinc/backgammon-backend/internal/entity"
	"github.com/rocketscienceinc/backgammon-backend/internal/repository"
	"github.com/rocketscienceinc/backgammon-backend/internal/repository/storage"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the config file")
	games := flag.Int("games", 0, "number of games, overrides the config")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	if *games > 0 {
		conf.Arena.Games = *games
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: config.ParseLevel(conf.LogLevel)}))

	if err := run(logger, conf); err != nil {
		fmt.Fprintf(os.Stderr, "arena failed: %v\n", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, conf *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	white, err := entity.ParsePolicy(conf.Arena.WhitePolicy)
	if err != nil {
		return fmt.Errorf("invalid white policy: %w", err)
	}

	red, err := entity.ParsePolicy(conf.Arena.RedPolicy)
	if err != nil {
		return fmt.Errorf("invalid red policy: %w", err)
	}

	results := repository.NewResultRepository(nil)
	if conf.Postgres.DSN != "" {
		pgStorage, err := storage.NewPostgresStorage(ctx, conf.Postgres.DSN, conf.Storage.ConnectAttempts)
		if err != nil {
			return fmt.Errorf("could not connect to postgres storage: %w", err)
		}
		defer pgStorage.Close()

		results = repository.NewResultRepository(pgStorage.Pool)
		if err = results.Init(ctx); err != nil {
			return fmt.Errorf("could not prepare result log: %w", err)
		}
	}

	outcomes, err := arena.New(logger, results, arena.Config{
		Games:       conf.Arena.Games,
		Concurrency: conf.Arena.Concurrency,
		White:       white,
		Red:         red,
		Seed:        conf.Arena.Seed,
		MaxTurns:    conf.Arena.MaxTurns,
	}).Run(ctx)
	if err != nil {
		return err
	}

	printReport(arena.Summarize(outcomes), white, red)
	return nil
}

func printReport(report arena.Report, white, red entity.Policy) {
	printer := message.NewPrinter(language.English)

	printer.Printf("games played:   %d\n", report.Games)
	printer.Printf("white (%s):  %d wins, %.1f%%, rating %.0f ± %.0f\n",
		white, report.Wins[entity.White], report.WhiteWinRate*100,
		report.Ratings[entity.White].R, report.Ratings[entity.White].RD)
	printer.Printf("red (%s):    %d wins, %.1f%%, rating %.0f ± %.0f\n",
		red, report.Wins[entity.Red], (1-report.WhiteWinRate)*100,
		report.Ratings[entity.Red].R, report.Ratings[entity.Red].RD)
	printer.Printf("timeouts:       %d\n", report.Timeouts)
	printer.Printf("turns per game: %.1f ± %.1f\n", report.MeanTurns, report.StdDevTurns)
	printer.Printf("moves played:   %d\n", report.TotalMoves)
}
