package sqlbind

/*
Short for "argument slot". Either live, holding the buffer, or taken. The
transition from live to taken happens once, in `(*Builder).Build`, and is
final: a taken slot holds only the zero value of `A` and nothing can make it
live again.
*/
type argSlot[A Args] struct {
	args A
	live bool
}

func (self *argSlot[A]) get(while string) A {
	if !self.live {
		panic(errArgsTaken(while))
	}
	return self.args
}

func (self *argSlot[A]) take() (out A, ok bool) {
	if !self.live {
		return out, false
	}
	out = self.args
	*self = argSlot[A]{}
	return out, true
}

/*
Tool for incrementally building a parametrized SQL statement. Accumulates SQL
text and encoded arguments for a specific backend, appending positional
placeholders such as "$1", "$2" and so on as arguments are bound. The count
always starts at 1 and increments by 1 per bound argument. Raw text appended
via `.Push` never affects the count.

The argument buffer is owned by the builder until `.Build`, which transfers it
to the resulting `Query`. After that, binding more arguments is a programming
error and panics with `ErrArgsTaken`. Appending raw text is still allowed,
since it doesn't touch the buffer.

Zero value is not usable; use `New` or a backend shortcut such as `Pg`.
Not safe for concurrent use. Each concurrent task should use its own builder.

Example:

	query, err := sqlbind.Pg(`select * from users where id =`).
		PushBind(int32(42)).
		Push(`or membership_level =`).
		PushBind(int32(3)).
		Build()

	// query.Statement == `select * from users where id = $1 or membership_level = $2`
*/
type Builder[D Backend[A], A Args] struct {
	text  []byte
	slot  argSlot[A]
	count int
	err   error
}

// Makes a builder whose text starts with the given SQL fragment, with an empty
// argument buffer provided by the backend.
func New[D Backend[A], A Args](init string) *Builder[D, A] {
	return MakeBuilder[D, A](init, 0)
}

/*
Prealloc tool. Same as `New`, but the text buffer has at least the specified
additional capacity. Useful when the approximate size of the final statement is
known in advance.
*/
func MakeBuilder[D Backend[A], A Args](init string, textCap int) *Builder[D, A] {
	var backend D
	text := growBytes(nil, len(init)+textCap)
	return &Builder[D, A]{
		text: append(text, init...),
		slot: argSlot[A]{args: backend.MakeArgs(), live: true},
	}
}

/*
Appends a single space, followed by the text representation of the given
fragment. Supports strings, byte slices, `Appender`, `encoding.TextMarshaler`,
`fmt.Stringer` and primitives; other values are formatted via "fmt". Nil
appends only the space. The text is not validated in any way.

Always succeeds, including after `.Build`. Returns the same builder for
chaining.
*/
func (self *Builder[D, A]) Push(frag any) *Builder[D, A] {
	self.text = append(self.text, ' ')
	self.text = appendText(self.text, frag)
	return self
}

/*
Encodes the given value into the argument buffer and appends the placeholder
for the next ordinal. Does not add a space before the placeholder: the
placeholder immediately follows the preceding text, such as "id = ". Returns
the same builder for chaining.

Panics with `ErrArgsTaken` if called after `.Build`. If encoding fails, the
builder remains unchanged, and the error is recorded: it's available via `.Err`
and is returned by `.Build`. Only the first error is recorded. Use `.Bind` to
handle encoding errors immediately.
*/
func (self *Builder[D, A]) PushBind(val any) *Builder[D, A] {
	err := self.Bind(val)
	if err != nil && self.err == nil {
		self.err = err
	}
	return self
}

/*
Non-chaining variant of `.PushBind` which returns encoding errors instead of
recording them. On error, the text and the placeholder count remain unchanged.
Panics with `ErrArgsTaken` if called after `.Build`.

An encoder that leaves the buffer with a different number of arguments than
the placeholder count desynchronizes the builder. This is always recorded as
`ErrArgCount`, and every later bind fails with it without touching the buffer.
*/
func (self *Builder[D, A]) Bind(val any) error {
	const while = `binding argument`
	args := self.slot.get(while)

	if args.Len() != self.count {
		return self.desync(while, self.count, args.Len())
	}

	err := self.encode(args, val)
	if err != nil {
		if args.Len() != self.count {
			_ = self.desync(while, self.count, args.Len())
		}
		return err
	}

	if args.Len() != self.count+1 {
		return self.desync(while, self.count+1, args.Len())
	}

	var backend D
	self.count++
	self.text = backend.AppendParam(self.text, self.count)
	return nil
}

func (self *Builder[D, A]) desync(while string, exp, act int) error {
	err := errArgCount(while, exp, act)
	if self.err == nil {
		self.err = err
	}
	return err
}

func (self *Builder[D, A]) encode(args A, val any) error {
	const while = `encoding argument`
	var err error

	impl, _ := val.(Encoder[A])
	if impl != nil {
		err = impl.EncodeArg(args)
	} else {
		err = args.Add(val)
	}

	if err == nil {
		return nil
	}
	if _, ok := err.(Err); ok {
		return err
	}
	return errEncode(while, err)
}

/*
Terminal operation. Transfers ownership of the argument buffer to the resulting
query, leaving the builder without one. The statement is a copy of the current
text; further calls to `.Push` don't affect it.

Without any bound arguments, the resulting query has an empty buffer, which is
distinct from not having one. Returns `ErrArgsTaken` when called repeatedly,
and the first recorded binding error, if any; in the latter case the builder
keeps its buffer. Also returns `ErrArgCount`, keeping the buffer, when the
count of arguments in the buffer differs from the count of placeholders.
*/
func (self *Builder[D, A]) Build() (Query[D, A], error) {
	const while = `building query`

	if self.err != nil {
		return Query[D, A]{}, self.err
	}

	if self.slot.live && self.slot.args.Len() != self.count {
		return Query[D, A]{}, errArgCount(while, self.count, self.slot.args.Len())
	}

	args, ok := self.slot.take()
	if !ok {
		return Query[D, A]{}, errArgsTaken(while)
	}

	return Query[D, A]{
		Statement:  string(self.text),
		Args:       args,
		Persistent: true,
	}, nil
}

// Variant of `.Build` that panics on error.
func (self *Builder[D, A]) MustBuild() Query[D, A] { return try1(self.Build()) }

// Returns a copy of the current text.
func (self *Builder[D, A]) SQL() string { return string(self.text) }

// Implement `fmt.Stringer` for debug purposes. Same as `.SQL`.
func (self *Builder[D, A]) String() string { return self.SQL() }

// Returns the count of bound arguments, which is also the ordinal of the last
// placeholder.
func (self *Builder[D, A]) Count() int { return self.count }

// True if the argument buffer has been taken by `.Build`.
func (self *Builder[D, A]) Taken() bool { return !self.slot.live }

// Returns the first error recorded by `.PushBind` or by a desynchronizing
// encoder, if any.
func (self *Builder[D, A]) Err() error { return self.err }
