package connections

import (
	"context"
	"fmt"

	log "github.com/Ptt-Alertor/logrus"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RxRoster/rxroster/config"
)

// NewPostgres opens the accounts database pool and checks it is reachable
func NewPostgres(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.PostgresURL())
	if err != nil {
		return nil, fmt.Errorf("unable to connect to PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}

	log.WithFields(log.Fields{
		"host":     cfg.PGHost,
		"database": cfg.PGDatabase,
		"poolMax":  cfg.PGPoolMax,
	}).Info("PostgreSQL Connected")
	return pool, nil
}
