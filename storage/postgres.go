package storage

import (
	"context"
	"errors"
	"fmt"

	"imagine/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepo(ctx context.Context, connString string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}
	return &PostgresRepo{pool: pool}, nil
}

// RandomSubjects draws up to n subjects whose text is not in exclude.
func (pgr *PostgresRepo) RandomSubjects(ctx context.Context, n int, exclude []string) ([]domain.Subject, error) {
	// A NULL array makes "= ANY" unknown for every row.
	if exclude == nil {
		exclude = []string{}
	}

	rows, err := pgr.pool.Query(ctx,
		"SELECT text, topic FROM subjects WHERE NOT (text = ANY($1)) ORDER BY RANDOM() LIMIT $2",
		exclude, n)
	if err != nil {
		return nil, wrapErr(err)
	}

	subjects, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Subject, error) {
		var s domain.Subject
		err := row.Scan(&s.Text, &s.Topic)
		return s, err
	})
	if err != nil {
		return nil, wrapErr(err)
	}
	return subjects, nil
}

// CountSubjects returns the catalog size.
func (pgr *PostgresRepo) CountSubjects(ctx context.Context) (int, error) {
	var n int
	if err := pgr.pool.QueryRow(ctx, "SELECT COUNT(*) FROM subjects").Scan(&n); err != nil {
		return 0, wrapErr(err)
	}
	return n, nil
}

func (pgr *PostgresRepo) Close() {
	pgr.pool.Close()
}

func wrapErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
}
