/*
Package pgexec executes queries built by "sqlbind" over the Postgres extended
query protocol. Parameters are sent exactly as encoded by `sqlbind.PgArgs`, in
the binary format, without any re-encoding by the driver.
*/
package pgexec

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mitranim/sqlbind"
)

// Returned for queries that don't hold an argument buffer, such as the zero
// value of `sqlbind.PgQuery`.
var ErrNoArgs = errors.New(`pgexec: query has no argument buffer`)

// Statement with pre-encoded parameters, as sent in a single Parse/Bind/Execute
// round trip.
type Stmt struct {
	SQL     string
	Values  [][]byte
	OIDs    []uint32
	Formats []int16
}

// Converts a built query into a statement ready to be sent.
func StmtOf(query sqlbind.PgQuery) (Stmt, error) {
	args := query.Args
	if args == nil {
		return Stmt{}, ErrNoArgs
	}
	return Stmt{
		SQL:     query.Statement,
		Values:  args.Values(),
		OIDs:    args.OIDs(),
		Formats: args.Formats(),
	}, nil
}

// Called once per result row with the raw text-format column values. The
// slices are only valid until the function returns.
type RowFunc func([][]byte) error

/*
Runs one statement, invoking `row` for each result row when non-nil. This is
the only capability the rest of the app depends on, see `Conn` and `Pool`.
*/
type Runner interface {
	Run(ctx context.Context, stmt Stmt, row RowFunc) (pgconn.CommandTag, error)
}

// Executes a built query, discarding result rows.
func Exec(ctx context.Context, run Runner, query sqlbind.PgQuery) (pgconn.CommandTag, error) {
	stmt, err := StmtOf(query)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	return run.Run(ctx, stmt, nil)
}

// Executes a built query, invoking `row` for each result row. Returns the
// count of rows.
func Query(ctx context.Context, run Runner, query sqlbind.PgQuery, row RowFunc) (int, error) {
	stmt, err := StmtOf(query)
	if err != nil {
		return 0, err
	}

	var count int
	_, err = run.Run(ctx, stmt, func(vals [][]byte) error {
		count++
		if row != nil {
			return row(vals)
		}
		return nil
	})
	return count, err
}

// Adapts a single connection. Not safe for concurrent use, like the
// underlying connection.
type Conn struct{ PgConn *pgconn.PgConn }

// Implement `Runner`.
func (self Conn) Run(ctx context.Context, stmt Stmt, row RowFunc) (pgconn.CommandTag, error) {
	return runOn(ctx, self.PgConn, stmt, row)
}

// Adapts a connection pool. Each call acquires a connection for the duration
// of the statement. Safe for concurrent use.
type Pool struct{ Pool *pgxpool.Pool }

// Implement `Runner`.
func (self Pool) Run(ctx context.Context, stmt Stmt, row RowFunc) (pgconn.CommandTag, error) {
	conn, err := self.Pool.Acquire(ctx)
	if err != nil {
		return pgconn.CommandTag{}, fmt.Errorf(`acquire connection: %w`, err)
	}
	defer conn.Release()
	return runOn(ctx, conn.Conn().PgConn(), stmt, row)
}

func runOn(ctx context.Context, conn *pgconn.PgConn, stmt Stmt, row RowFunc) (pgconn.CommandTag, error) {
	reader := conn.ExecParams(ctx, stmt.SQL, stmt.Values, stmt.OIDs, stmt.Formats, nil)

	if row != nil {
		for reader.NextRow() {
			err := row(reader.Values())
			if err != nil {
				_, _ = reader.Close()
				return pgconn.CommandTag{}, err
			}
		}
	}

	tag, err := reader.Close()
	if err != nil {
		return tag, fmt.Errorf(`execute %q: %w`, stmt.SQL, err)
	}
	return tag, nil
}
