package contacts

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/mitranim/sqlbind/internal/pgexec"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner records statements, safe for concurrent use.
type fakeRunner struct {
	mu       sync.Mutex
	stmts    []pgexec.Stmt
	rows     [][][]byte
	failOn   string
	delay    time.Duration
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (f *fakeRunner) Run(ctx context.Context, stmt pgexec.Stmt, row pgexec.RowFunc) (pgconn.CommandTag, error) {
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if cur <= seen || f.maxSeen.CompareAndSwap(seen, cur) {
			break
		}
	}

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.stmts = append(f.stmts, stmt)
	f.mu.Unlock()

	if f.failOn != "" && strings.Contains(stmt.SQL, f.failOn) {
		return pgconn.CommandTag{}, errors.New("fake failure")
	}
	if err := ctx.Err(); err != nil {
		return pgconn.CommandTag{}, err
	}

	if row != nil {
		for _, vals := range f.rows {
			if err := row(vals); err != nil {
				return pgconn.CommandTag{}, err
			}
		}
	}
	return pgconn.NewCommandTag("OK"), nil
}

func (f *fakeRunner) statements() []pgexec.Stmt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pgexec.Stmt(nil), f.stmts...)
}

func newTestApp(run pgexec.Runner) *App {
	return &App{
		Runner: run,
		Log:    zerolog.Nop(),
		Config: Config{MaxConns: 4, Count: 10, Iterations: 3, BatchSize: 4},
		Faker:  NewFaker([32]byte{1}),
	}
}

func TestFaker(t *testing.T) {
	a := NewFaker([32]byte{7}).Contacts(20)
	b := NewFaker([32]byte{7}).Contacts(20)
	assert.Equal(t, a, b)

	for _, c := range a {
		assert.NotEmpty(t, c.Name)
		assert.Contains(t, c.Name, " ")
		assert.Equal(t, c.Username+"@example.com", c.Email)
		assert.GreaterOrEqual(t, len(c.Password), 5)
		assert.Less(t, len(c.Password), 25)
		assert.Regexp(t, `^\+1-\d{3}-\d{3}-\d{4}$`, c.Phone)
	}

	assert.NotEqual(t, a, NewFaker([32]byte{8}).Contacts(20))
}

func TestInsertQuery(t *testing.T) {
	query, err := InsertQuery(Contact{"Ada Lovelace", "ada", "secret", "ada@example.com", "+1"})
	require.NoError(t, err)

	assert.Equal(t,
		`INSERT INTO contacts (name, username, password, email, phone) VALUES ( $1, $2, $3, $4, $5 )`,
		query.Statement,
	)
	assert.Equal(t,
		[][]byte{[]byte("Ada Lovelace"), []byte("ada"), []byte("secret"), []byte("ada@example.com"), []byte("+1")},
		query.Args.Values(),
	)
	assert.Equal(t, []uint32{pgtype.TextOID, pgtype.TextOID, pgtype.TextOID, pgtype.TextOID, pgtype.TextOID}, query.Args.OIDs())
}

func TestBulkInsertQuery(t *testing.T) {
	query, err := BulkInsertQuery([]Contact{
		{"a", "b", "c", "d", "e"},
		{"f", "g", "h", "i", "j"},
	})
	require.NoError(t, err)

	assert.Equal(t,
		`INSERT INTO contacts (name, username, password, email, phone) values ($1, $2, $3, $4, $5), ($6, $7, $8, $9, $10)`,
		query.Statement,
	)
	assert.Equal(t, 10, query.Args.Len())
	assert.Equal(t, []byte("abcdefghij"), query.Args.Bytes())
}

func TestSelectQuery(t *testing.T) {
	query := SelectQuery()
	assert.Equal(t, `SELECT name, username, password, email, phone FROM contacts`, query.Statement)
	assert.Equal(t, 0, query.Args.Len())
}

func TestApp_EnsureSchema(t *testing.T) {
	run := &fakeRunner{}
	require.NoError(t, newTestApp(run).EnsureSchema(context.Background()))

	stmts := run.statements()
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0].SQL, `CREATE TABLE IF NOT EXISTS contacts`)
	assert.Equal(t, `TRUNCATE contacts`, stmts[1].SQL)
}

func TestApp_EnsureSchema_failure(t *testing.T) {
	run := &fakeRunner{failOn: "TRUNCATE"}
	err := newTestApp(run).EnsureSchema(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ensure schema")
}

func TestApp_Insert(t *testing.T) {
	run := &fakeRunner{delay: time.Millisecond}
	app := newTestApp(run)

	stats, err := app.Insert(context.Background(), 25)
	require.NoError(t, err)
	assert.Equal(t, 25, stats.Rows)
	assert.Equal(t, 25, stats.Statements)
	assert.Contains(t, stats.String(), "insert 25 rows in ")

	stmts := run.statements()
	require.Len(t, stmts, 25)
	for _, stmt := range stmts {
		assert.Len(t, stmt.Values, 5)
		assert.Contains(t, stmt.SQL, `$5 )`)
	}
	assert.LessOrEqual(t, run.maxSeen.Load(), int32(app.Config.MaxConns))
}

func TestApp_Insert_failure(t *testing.T) {
	run := &fakeRunner{failOn: "INSERT"}
	_, err := newTestApp(run).Insert(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fake failure")
}

func TestApp_Bulk(t *testing.T) {
	run := &fakeRunner{}
	stats, err := newTestApp(run).Bulk(context.Background(), 10, 4)
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Rows)
	assert.Equal(t, 3, stats.Statements)

	var sizes []int
	for _, stmt := range run.statements() {
		sizes = append(sizes, len(stmt.Values)/5)
	}
	assert.ElementsMatch(t, []int{4, 4, 2}, sizes)
}

func TestApp_Bulk_invalid_batch(t *testing.T) {
	_, err := newTestApp(&fakeRunner{}).Bulk(context.Background(), 10, 0)
	require.Error(t, err)

	_, err = newTestApp(&fakeRunner{}).Bulk(context.Background(), 10, MaxBatchSize+1)
	require.Error(t, err)
}

func TestApp_Select(t *testing.T) {
	row := [][]byte{[]byte("n"), []byte("u"), []byte("p"), []byte("e"), []byte("ph")}
	run := &fakeRunner{rows: [][][]byte{row, row}}

	stats, err := newTestApp(run).Select(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Rows)
	assert.Equal(t, 3, stats.Iterations)
	assert.Len(t, run.statements(), 3)
	assert.Contains(t, stats.String(), "select 2 rows in ~")
	assert.Contains(t, stats.String(), "[ x3 in ")
}

func TestApp_Select_bad_row(t *testing.T) {
	run := &fakeRunner{rows: [][][]byte{{[]byte("only one")}}}
	_, err := newTestApp(run).Select(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 5 columns, got 1")
}

func TestSelectStats_PerIteration(t *testing.T) {
	assert.Equal(t, time.Duration(0), SelectStats{}.PerIteration())
	assert.Equal(t, time.Second, SelectStats{Iterations: 4, Elapsed: 4 * time.Second}.PerIteration())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(&buf, "warn", false)
	require.NoError(t, err)

	log.Info().Msg("hidden")
	log.Warn().Str("key", "value").Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"key":"value"`)
	assert.Contains(t, buf.String(), `"message":"shown"`)

	_, err = NewLogger(&buf, "loud", false)
	require.Error(t, err)
}

func TestNewLogger_pretty(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(&buf, "info", true)
	require.NoError(t, err)

	log.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), `"message"`)
}

func TestRootCmd(t *testing.T) {
	row := [][]byte{[]byte("n"), []byte("u"), []byte("p"), []byte("e"), []byte("ph")}
	run := &fakeRunner{rows: [][][]byte{row}}

	var released bool
	connect := func(context.Context, Config) (pgexec.Runner, func(), error) {
		return run, func() { released = true }, nil
	}

	var out bytes.Buffer
	cmd := newRootCmd(connect)
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"-n", "3", "--iterations", "2", "--max-conns", "2"})

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.True(t, released)
	assert.Contains(t, out.String(), "insert 3 rows in ")
	assert.Contains(t, out.String(), "select 1 rows in ~")

	// Schema, 3 inserts, 2 selects.
	assert.Len(t, run.statements(), 7)
}

func TestRootCmd_bulk(t *testing.T) {
	run := &fakeRunner{}
	connect := func(context.Context, Config) (pgexec.Runner, func(), error) {
		return run, func() {}, nil
	}

	var out bytes.Buffer
	cmd := newRootCmd(connect)
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"bulk", "-n", "5", "--batch-size", "2"})

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "insert 5 rows in ")
	assert.Contains(t, out.String(), "(3 statements)")
}

func TestRootCmd_connect_failure(t *testing.T) {
	connect := func(context.Context, Config) (pgexec.Runner, func(), error) {
		return nil, nil, errors.New("no database")
	}

	cmd := newRootCmd(connect)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"select"})

	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no database")
}
