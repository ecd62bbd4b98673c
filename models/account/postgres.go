package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is the PostgreSQL repository for accounts.
// Rows are read through row_to_json so deployments without the optional
// user_id column keep working.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates an account repository on pool
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// FindOne returns the first account whose column equals value
func (p *Postgres) FindOne(ctx context.Context, column, value string) (*Account, error) {
	if !Filterable(column) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}

	row := p.pool.QueryRow(ctx, `
		SELECT row_to_json(a)
		FROM accounts a
		WHERE a.`+column+`::text = $1
		LIMIT 1
	`, value)

	return scanAccount(row)
}

// Update applies changes to the account whose column equals value and
// returns the stored row
func (p *Postgres) Update(ctx context.Context, column, value string, changes Changes) (*Account, error) {
	if !Filterable(column) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}

	query, args, err := buildUpdate(column, value, changes)
	if err != nil {
		return nil, err
	}

	return scanAccount(p.pool.QueryRow(ctx, query, args...))
}

func buildUpdate(column, value string, changes Changes) (string, []any, error) {
	assignments := changes.Columns()
	if len(assignments) == 0 {
		return "", nil, ErrNoChanges
	}

	sets := make([]string, 0, len(assignments)+1)
	args := make([]any, 0, len(assignments)+1)
	for i, a := range assignments {
		sets = append(sets, fmt.Sprintf("%s = $%d", a.Column, i+1))
		args = append(args, a.Value)
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, value)

	query := fmt.Sprintf(`
		WITH updated AS (
			UPDATE accounts
			SET %s
			WHERE %s::text = $%d
			RETURNING *
		)
		SELECT row_to_json(updated) FROM updated LIMIT 1`,
		strings.Join(sets, ", "), column, len(args))

	return query, args, nil
}

func scanAccount(r pgx.Row) (*Account, error) {
	var raw []byte
	if err := r.Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	var rec row
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode account row: %w", err)
	}

	return rec.account(), nil
}
