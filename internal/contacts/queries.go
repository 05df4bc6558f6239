package contacts

import (
	"github.com/mitranim/sqlbind"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS contacts (
    id BIGSERIAL PRIMARY KEY,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    name TEXT NOT NULL,
    username TEXT NOT NULL,
    password TEXT NOT NULL,
    email TEXT NOT NULL,
    phone TEXT NOT NULL
)`

const insertPrefix = `INSERT INTO contacts (name, username, password, email, phone)`

// SchemaQueries returns the statements that create the contacts table and
// empty it.
func SchemaQueries() []sqlbind.PgQuery {
	return []sqlbind.PgQuery{
		sqlbind.Pg(schemaSQL).MustBuild(),
		sqlbind.Pg(`TRUNCATE contacts`).MustBuild(),
	}
}

// InsertQuery builds an INSERT of a single contact.
func InsertQuery(c Contact) (sqlbind.PgQuery, error) {
	builder := sqlbind.Pg(insertPrefix)
	builder.Push(`VALUES (`)
	builder.Separated(`, `).
		PushBind(c.Name).
		PushBind(c.Username).
		PushBind(c.Password).
		PushBind(c.Email).
		PushBind(c.Phone)
	builder.Push(`)`)
	return builder.Build()
}

// BulkInsertQuery builds one multi-row INSERT of all given contacts.
func BulkInsertQuery(rows []Contact) (sqlbind.PgQuery, error) {
	builder := sqlbind.MakeBuilder[sqlbind.Postgres, *sqlbind.PgArgs](insertPrefix, len(rows)*32)
	sqlbind.PushValues(builder, rows, func(sep *sqlbind.PgSeparated, c Contact) {
		sep.PushBind(c.Name).
			PushBind(c.Username).
			PushBind(c.Password).
			PushBind(c.Email).
			PushBind(c.Phone)
	})
	return builder.Build()
}

// SelectQuery builds the SELECT of all contacts.
func SelectQuery() sqlbind.PgQuery {
	return sqlbind.Pg(`SELECT name, username, password, email, phone`).
		Push(`FROM contacts`).
		MustBuild()
}
