package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned when a requested row does not exist within the
// caller's organization.
var ErrNotFound = errors.New("not found")

// Querier is the subset of pgxpool.Pool the store needs. Tests substitute a
// pgxmock pool.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store implements persistence for employees and the reference tables, and
// the search engine's Directory collaborator.
type Store struct {
	q      Querier
	logger zerolog.Logger
}

// NewStore creates a Store over a pool or mock.
func NewStore(q Querier, logger zerolog.Logger) *Store {
	return &Store{
		q:      q,
		logger: logger.With().Str("component", "store").Logger(),
	}
}

// queryArgs accumulates WHERE conditions with numbered placeholders. Each
// expr contains one %d verb per argument; placeholders are numbered in
// insertion order.
type queryArgs struct {
	conds []string
	args  []any
}

func (q *queryArgs) add(expr string, args ...any) {
	nums := make([]any, len(args))
	for i := range args {
		nums[i] = len(q.args) + i + 1
	}
	q.conds = append(q.conds, fmt.Sprintf(expr, nums...))
	q.args = append(q.args, args...)
}

// next reserves the placeholder number for an argument appended outside add.
func (q *queryArgs) next(arg any) int {
	q.args = append(q.args, arg)
	return len(q.args)
}

func (q *queryArgs) where() string {
	if len(q.conds) == 0 {
		return ""
	}
	out := " WHERE " + q.conds[0]
	for _, c := range q.conds[1:] {
		out += " AND " + c
	}
	return out
}
