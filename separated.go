package sqlbind

/*
Appends a list of elements to a `Builder`, delimiting them with a separator.
Obtained via `(*Builder).Separated` or provided by `PushValues`. Each element
is either raw text or a bound argument. The separator is appended before every
element except the first. Shares all state with the builder: placeholders are
numbered continuously with the rest of the statement.
*/
type Separated[D Backend[A], A Args] struct {
	builder *Builder[D, A]
	prefix  string
	sep     string
	count   int
}

/*
Starts a list of elements delimited by `sep`, such as ", ". The first element
is preceded by a single space, like text appended via `.Push`.

	builder := sqlbind.Pg(`select`)
	sep := builder.Separated(`, `)
	sep.Push(`one`)
	sep.Push(`two`)
	sep.PushBind(`three`)

	// builder.SQL() == `select one, two, $1`
*/
func (self *Builder[D, A]) Separated(sep string) *Separated[D, A] {
	return &Separated[D, A]{builder: self, prefix: ` `, sep: sep}
}

// Returns the underlying builder.
func (self *Separated[D, A]) Builder() *Builder[D, A] { return self.builder }

// Returns the count of elements appended so far, not counting unseparated
// ones.
func (self *Separated[D, A]) Len() int { return self.count }

// Appends the separator, if necessary, followed by the given text fragment.
func (self *Separated[D, A]) Push(frag any) *Separated[D, A] {
	self.delim()
	self.builder.text = appendText(self.builder.text, frag)
	return self
}

/*
Appends the separator, if necessary, followed by a bound argument. Like
`(*Builder).PushBind`, panics after `(*Builder).Build` and records encoding
errors in the builder. On encoding error, the separator is not appended either.
*/
func (self *Separated[D, A]) PushBind(val any) *Separated[D, A] {
	builder := self.builder
	builder.slot.get(`binding argument`)

	text, count := builder.text, self.count
	self.delim()

	err := builder.Bind(val)
	if err != nil {
		builder.text, self.count = text, count
		if builder.err == nil {
			builder.err = err
		}
	}
	return self
}

// Appends a text fragment without a separator, like `(*Builder).Push`.
func (self *Separated[D, A]) PushUnseparated(frag any) *Separated[D, A] {
	self.builder.Push(frag)
	return self
}

// Appends a bound argument without a separator, like `(*Builder).PushBind`.
func (self *Separated[D, A]) PushBindUnseparated(val any) *Separated[D, A] {
	self.builder.PushBind(val)
	return self
}

func (self *Separated[D, A]) delim() {
	if self.count == 0 {
		self.builder.text = append(self.builder.text, self.prefix...)
	} else {
		self.builder.text = append(self.builder.text, self.sep...)
	}
	self.count++
}

/*
Appends a "values" clause with one parenthesized tuple per row, for
multi-row inserts. The callback is invoked once per row, and should append the
row's elements, usually via `(*Separated).PushBind`. Elements of a row are
delimited by ", ", and so are the tuples. Empty input appends nothing.

	type Person struct{ Name string; Age int32 }
	people := []Person{{`Alice`, 30}, {`Bob`, 40}}

	builder := sqlbind.Pg(`insert into persons (name, age)`)
	sqlbind.PushValues(builder, people, func(sep *sqlbind.PgSeparated, val Person) {
		sep.PushBind(val.Name).PushBind(val.Age)
	})

	// builder.SQL() == `insert into persons (name, age) values ($1, $2), ($3, $4)`
*/
func PushValues[D Backend[A], A Args, Row any](
	builder *Builder[D, A],
	rows []Row,
	fun func(*Separated[D, A], Row),
) *Builder[D, A] {
	if len(rows) == 0 {
		return builder
	}

	builder.Push(`values`)

	for ind, row := range rows {
		if ind > 0 {
			builder.text = append(builder.text, ',')
		}
		builder.text = append(builder.text, ` (`...)
		fun(&Separated[D, A]{builder: builder, sep: `, `}, row)
		builder.text = append(builder.text, ')')
	}
	return builder
}
