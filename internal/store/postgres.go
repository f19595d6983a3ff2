package store

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"cendeu-features-go/internal/logger"
	"cendeu-features-go/internal/normalizer"
	"cendeu-features-go/internal/types"
)

const connectAttempts = 5

const selectDebts = `
SELECT information_date, situation
FROM cendeu_debts
WHERE cuit = $1
ORDER BY information_date`

// Source reads bureau debt lines previously loaded into Postgres.
type Source struct {
	pool *pgxpool.Pool
}

// Open connects to databaseURL, retrying the initial ping.
func Open(ctx context.Context, databaseURL string) (*Source, error) {
	log := logger.New().WithField("module", "store")
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), connectAttempts-1)
	err = backoff.Retry(func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			log.WithError(err).Warn("postgres ping failed")
			return err
		}
		return nil
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect: %w", err)
	}
	return &Source{pool: pool}, nil
}

func (s *Source) Close() {
	s.pool.Close()
}

// FetchDebts returns the stored lines for cuit. NULL columns are passed on as
// missing fields so the normalizer reports them instead of this layer.
func (s *Source) FetchDebts(ctx context.Context, cuit string) ([]types.RawDebt, error) {
	rows, err := s.pool.Query(ctx, selectDebts, cuit)
	if err != nil {
		return nil, fmt.Errorf("query debts: %w", err)
	}
	var (
		date      *time.Time
		situation *int64
	)
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.RawDebt, error) {
		if err := row.Scan(&date, &situation); err != nil {
			return nil, err
		}
		return rowToRaw(date, situation), nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan debts: %w", err)
	}
	return out, nil
}

func rowToRaw(date *time.Time, situation *int64) types.RawDebt {
	raw := types.RawDebt{}
	if date != nil {
		raw[normalizer.FieldInformationDate] = *date
	}
	if situation != nil {
		raw[normalizer.FieldSituation] = *situation
	}
	return raw
}
