package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rocketscienceinc/backgammon-backend/internal/apperror"
	"github.com/rocketscienceinc/backgammon-backend/internal/entity"
)

const resultSchema = `
CREATE TABLE IF NOT EXISTS game_result (
	id           serial PRIMARY KEY,
	game_id      text NOT NULL,
	winner       text NOT NULL,
	reason       text NOT NULL,
	white_moves  integer NOT NULL,
	red_moves    integer NOT NULL,
	white_policy text NOT NULL,
	red_policy   text NOT NULL,
	ended_at     timestamptz NOT NULL,
	dice_rolls   text NOT NULL DEFAULT '',
	move_log     text NOT NULL DEFAULT ''
);
`

type ResultRepository interface {
	Init(ctx context.Context) error
	Record(ctx context.Context, result entity.Result) error
	ListRecent(ctx context.Context, limit int) ([]entity.Result, error)
}

type dbResult struct {
	pool *pgxpool.Pool
}

// NewResultRepository writes results to postgres. A nil pool yields a repository
// that silently drops results.
func NewResultRepository(pool *pgxpool.Pool) ResultRepository {
	if pool == nil {
		return nopResult{}
	}

	return &dbResult{
		pool: pool,
	}
}

func (that *dbResult) Init(ctx context.Context) error {
	if _, err := that.pool.Exec(ctx, resultSchema); err != nil {
		return fmt.Errorf("can't create table: %w", err)
	}

	return nil
}

func (that *dbResult) Record(ctx context.Context, result entity.Result) error {
	query := `INSERT INTO game_result
		(game_id, winner, reason, white_moves, red_moves, white_policy, red_policy, ended_at, dice_rolls, move_log)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := that.pool.Exec(ctx, query,
		result.GameID,
		result.Winner.String(),
		string(result.Reason),
		result.WhiteMoves,
		result.RedMoves,
		string(result.WhitePolicy),
		string(result.RedPolicy),
		result.EndedAt,
		result.DiceRolls,
		result.MoveLog,
	)
	if err != nil {
		return fmt.Errorf("failed to insert result: %w", err)
	}

	return nil
}

func (that *dbResult) ListRecent(ctx context.Context, limit int) ([]entity.Result, error) {
	query := `SELECT game_id, winner, reason, white_moves, red_moves, white_policy, red_policy, ended_at, dice_rolls, move_log
		FROM game_result ORDER BY ended_at DESC, id DESC LIMIT $1`

	rows, err := that.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}

	results, err := pgx.CollectRows(rows, scanResult)
	if err != nil {
		return nil, fmt.Errorf("failed to scan results: %w", err)
	}

	return results, nil
}

func scanResult(row pgx.CollectableRow) (entity.Result, error) {
	var (
		result      entity.Result
		winner      string
		reason      string
		whitePolicy string
		redPolicy   string
	)

	err := row.Scan(
		&result.GameID,
		&winner,
		&reason,
		&result.WhiteMoves,
		&result.RedMoves,
		&whitePolicy,
		&redPolicy,
		&result.EndedAt,
		&result.DiceRolls,
		&result.MoveLog,
	)
	if err != nil {
		return entity.Result{}, err
	}

	if err = result.Winner.UnmarshalText([]byte(winner)); err != nil {
		return entity.Result{}, err
	}
	result.Reason = entity.Reason(reason)
	result.WhitePolicy = entity.Policy(whitePolicy)
	result.RedPolicy = entity.Policy(redPolicy)

	return result, nil
}

type nopResult struct{}

func (nopResult) Init(context.Context) error { return nil }

func (nopResult) Record(context.Context, entity.Result) error { return nil }

func (nopResult) ListRecent(context.Context, int) ([]entity.Result, error) {
	return nil, apperror.ErrResultsDisabled
}
