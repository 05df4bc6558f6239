// Package contacts is a benchmark program for "sqlbind": it fills a contacts
// table with fake rows and reads them back, timing both.
package contacts

import (
	"context"
	"fmt"
	"time"

	"github.com/mitranim/sqlbind/internal/pgexec"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// App runs the benchmark steps against a database.
type App struct {
	Runner pgexec.Runner
	Log    zerolog.Logger
	Config Config
	Faker  *Faker
}

// InsertStats describes a finished insert step.
type InsertStats struct {
	Rows       int
	Statements int
	Elapsed    time.Duration
}

func (s InsertStats) String() string {
	return fmt.Sprintf("insert %d rows in %v", s.Rows, s.Elapsed)
}

// SelectStats describes a finished select step.
type SelectStats struct {
	Rows       int
	Iterations int
	Elapsed    time.Duration
}

// PerIteration returns the average duration of one select.
func (s SelectStats) PerIteration() time.Duration {
	if s.Iterations == 0 {
		return 0
	}
	return s.Elapsed / time.Duration(s.Iterations)
}

func (s SelectStats) String() string {
	return fmt.Sprintf("select %d rows in ~%v [ x%d in %v ]", s.Rows, s.PerIteration(), s.Iterations, s.Elapsed)
}

// EnsureSchema creates the contacts table if missing, then empties it.
func (a *App) EnsureSchema(ctx context.Context) error {
	for _, query := range SchemaQueries() {
		if _, err := pgexec.Exec(ctx, a.Runner, query); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	a.Log.Debug().Msg("schema ready")
	return nil
}

// Insert inserts count fake contacts, one statement per contact, running up
// to `Config.MaxConns` statements at once.
func (a *App) Insert(ctx context.Context, count int) (InsertStats, error) {
	rows := a.Faker.Contacts(count)
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.Config.MaxConns)

	for _, row := range rows {
		g.Go(func() error {
			query, err := InsertQuery(row)
			if err != nil {
				return fmt.Errorf("build insert: %w", err)
			}
			if _, err := pgexec.Exec(ctx, a.Runner, query); err != nil {
				return fmt.Errorf("insert contact %q: %w", row.Username, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return InsertStats{}, err
	}

	stats := InsertStats{Rows: count, Statements: count, Elapsed: time.Since(start)}
	a.Log.Info().Int("rows", stats.Rows).Dur("elapsed", stats.Elapsed).Msg("insert done")
	return stats, nil
}

// Bulk inserts count fake contacts using multi-row statements of at most
// batch rows each, running up to `Config.MaxConns` statements at once.
func (a *App) Bulk(ctx context.Context, count, batch int) (InsertStats, error) {
	if batch < 1 || batch > MaxBatchSize {
		return InsertStats{}, fmt.Errorf("bulk insert: batch size must be between 1 and %d, got %d", MaxBatchSize, batch)
	}

	rows := a.Faker.Contacts(count)
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.Config.MaxConns)

	var statements int
	for len(rows) > 0 {
		chunk := rows[:min(batch, len(rows))]
		rows = rows[len(chunk):]
		statements++

		g.Go(func() error {
			query, err := BulkInsertQuery(chunk)
			if err != nil {
				return fmt.Errorf("build bulk insert: %w", err)
			}
			if _, err := pgexec.Exec(ctx, a.Runner, query); err != nil {
				return fmt.Errorf("bulk insert %d contacts: %w", len(chunk), err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return InsertStats{}, err
	}

	stats := InsertStats{Rows: count, Statements: statements, Elapsed: time.Since(start)}
	a.Log.Info().
		Int("rows", stats.Rows).
		Int("statements", stats.Statements).
		Dur("elapsed", stats.Elapsed).
		Msg("bulk insert done")
	return stats, nil
}

// Select reads all contacts, iterations times in a row.
func (a *App) Select(ctx context.Context, iterations int) (SelectStats, error) {
	start := time.Now()
	var rows int

	for i := 0; i < iterations; i++ {
		var contacts []Contact
		_, err := pgexec.Query(ctx, a.Runner, SelectQuery(), func(vals [][]byte) error {
			if len(vals) != 5 {
				return fmt.Errorf("expected 5 columns, got %d", len(vals))
			}
			contacts = append(contacts, Contact{
				Name:     string(vals[0]),
				Username: string(vals[1]),
				Password: string(vals[2]),
				Email:    string(vals[3]),
				Phone:    string(vals[4]),
			})
			return nil
		})
		if err != nil {
			return SelectStats{}, fmt.Errorf("select contacts: %w", err)
		}
		rows = len(contacts)
	}

	stats := SelectStats{Rows: rows, Iterations: iterations, Elapsed: time.Since(start)}
	a.Log.Info().
		Int("rows", stats.Rows).
		Int("iterations", stats.Iterations).
		Dur("per_iteration", stats.PerIteration()).
		Msg("select done")
	return stats, nil
}
