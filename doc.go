/*
SQL Bind: incremental builder of parametrized SQL statements with arguments
pre-encoded for a specific database backend. You write plain SQL, interleaved
with bound values; the builder numbers the placeholders and encodes the values
into a binary buffer owned by the backend.

Key Features

• You write plain SQL. There's no DSL in Go, and the SQL is not parsed.

• Placeholders are numbered automatically, always starting at 1 and
incrementing by 1 per bound value: "$1", "$2" and so on for Postgres, "?" for
MySQL.

• Arguments are encoded on the spot into the wire format of the backend:
binary Postgres parameters via "pgtype", or binary MySQL `COM_STMT_EXECUTE`
parameters.

• The argument buffer has exactly one owner. `Builder.Build` transfers it to
the resulting `Query`; binding more values afterwards is a programming error
and panics with `ErrArgsTaken`.

• Backends are type parameters. A query built for one backend can't be passed
to code expecting another.

• Supports delimited lists and multi-row "values" clauses via `Separated` and
`PushValues`.

Examples

See `Builder`, `Pg`, `PushValues` for examples.
*/
package sqlbind
