package sqlbind

/*
Backend-specific buffer of encoded arguments. Implementations are pointer
types, owned by exactly one `Builder` until `(*Builder).Build`, and by exactly
one `Query` afterwards.

`Add` encodes one value, appending its bytes to the buffer. It must add exactly
one argument on success, and must leave the buffer unchanged on failure. Values
that implement `Encoder` for the same buffer type should be allowed to encode
themselves.

`Bytes` returns the concatenation of the encodings of all added values in the
order of addition, without delimiters or length prefixes beyond what each
encoding itself contains.
*/
type Args interface {
	Add(any) error
	Len() int
	Bytes() []byte
}

/*
Defines a database backend: the type of its argument buffer, and its syntax for
positional parameters. Implementations must be usable as their zero value; the
builder never stores a backend value, only uses it as a type-level discriminator
and method set. See `Postgres` and `Mysql`.
*/
type Backend[A Args] interface {
	// Returns an empty argument buffer.
	MakeArgs() A

	// Appends a placeholder for the given 1-based ordinal.
	AppendParam([]byte, int) []byte
}

/*
The "value encoder" capability. Values passed to `(*Builder).PushBind` or
`(*Builder).Bind` may implement this to control their own encoding into the
buffer of a specific backend. Other values use the buffer's default encoding.
*/
type Encoder[A Args] interface {
	EncodeArg(A) error
}
