package sqlbind

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/mitranim/sqlp"
)

/*
Postgres backend. Placeholders are "$1", "$2" and so on. Arguments are encoded
in the binary format of the Postgres wire protocol by `PgArgs`, ready to be
sent via the extended query protocol.
*/
type Postgres struct{}

// Implement `Backend`.
func (Postgres) MakeArgs() *PgArgs { return new(PgArgs) }

// Implement `Backend`. Appends "$N".
func (Postgres) AppendParam(text []byte, ord int) []byte {
	sqlp.NodeOrdinalParam(ord).Append(&text)
	return text
}

// Shortcuts for the Postgres instantiations of generic types.
type (
	PgBuilder   = Builder[Postgres, *PgArgs]
	PgQuery     = Query[Postgres, *PgArgs]
	PgSeparated = Separated[Postgres, *PgArgs]
)

// Shortcut for `New[Postgres, *PgArgs]`.
func Pg(init string) *PgBuilder { return New[Postgres, *PgArgs](init) }

type pgArg struct {
	oid   uint32
	start int
	end   int
	null  bool
}

/*
Argument buffer for Postgres. Each argument is encoded in the binary format via
`pgtype.Map.Encode`, using a type OID inferred from the Go type:

	int16              -> int2
	int32              -> int4
	int, int64         -> int8
	float32            -> float4
	float64            -> float8
	bool               -> bool
	string             -> text
	[]byte             -> bytea
	time.Time          -> timestamptz
	[16]byte           -> uuid
	other              -> `pgtype.Map.TypeForValue`

Untyped integer constants such as `42` are Go `int`, which becomes an 8-byte
int8. Convert to `int32` to get int4, for example when the parameter is
compared to an int4 column in a context where Postgres doesn't cast it.

Pointers are dereferenced before inferring the type. Nil and typed nils, such
as nil pointers, are encoded as NULL: they occupy no bytes and are reported as
nil by `.Values`. Values implementing `Encoder` encode themselves. Use `PgTyped`
to specify the type OID explicitly.

`.Map` may be set before adding arguments, to use a type map with custom
registered types. If nil, a default map is created on first use.
*/
type PgArgs struct {
	Map  *pgtype.Map
	buf  []byte
	args []pgArg
}

// Implement `Args`. Encodes the value with an inferred type OID.
func (self *PgArgs) Add(val any) error {
	impl, _ := val.(Encoder[*PgArgs])
	if impl != nil {
		return impl.EncodeArg(self)
	}

	val = deref(val)
	if isNil(val) {
		self.addNull(0)
		return nil
	}

	oid, ok := self.oidFor(val)
	if !ok {
		return errUnsupportedType(`encoding Postgres argument`, typeOf(val))
	}
	return self.AddTyped(oid, val)
}

/*
Encodes the value with the given type OID, appending its binary
representation. On failure, the buffer remains unchanged.
*/
func (self *PgArgs) AddTyped(oid uint32, val any) error {
	if isNil(val) {
		self.addNull(oid)
		return nil
	}

	if self.buf == nil {
		self.buf = make([]byte, 0, 64)
	}
	start := len(self.buf)

	buf, err := self.typeMap().Encode(oid, pgtype.BinaryFormatCode, val, self.buf)
	if err != nil {
		return errEncode(`encoding Postgres argument`, fmt.Errorf(`%T as OID %v: %w`, val, oid, err))
	}

	// Values such as `pgtype.Int4{}` encode as NULL.
	if buf == nil {
		self.addNull(oid)
		return nil
	}

	self.buf = buf
	self.args = append(self.args, pgArg{oid: oid, start: start, end: len(buf)})
	return nil
}

func (self *PgArgs) addNull(oid uint32) {
	pos := len(self.buf)
	self.args = append(self.args, pgArg{oid: oid, start: pos, end: pos, null: true})
}

// Implement `Args`.
func (self *PgArgs) Len() int {
	if self == nil {
		return 0
	}
	return len(self.args)
}

// Implement `Args`. Returns the concatenated binary encodings of all
// arguments.
func (self *PgArgs) Bytes() []byte {
	if self == nil {
		return nil
	}
	return self.buf
}

/*
Returns the encoded value of each argument, in order, as sub-slices of
`.Bytes`. NULL arguments are nil. The output is suitable as the parameter values
of the extended query protocol, see `pgconn.PgConn.ExecParams`.
*/
func (self *PgArgs) Values() [][]byte {
	if self.Len() == 0 {
		return nil
	}

	out := make([][]byte, len(self.args))
	for ind, arg := range self.args {
		if !arg.null {
			out[ind] = self.buf[arg.start:arg.end:arg.end]
		}
	}
	return out
}

// Returns the type OID of each argument, in order.
func (self *PgArgs) OIDs() []uint32 {
	if self.Len() == 0 {
		return nil
	}

	out := make([]uint32, len(self.args))
	for ind, arg := range self.args {
		out[ind] = arg.oid
	}
	return out
}

// Returns the format code of each argument, in order. All arguments use the
// binary format.
func (self *PgArgs) Formats() []int16 {
	if self.Len() == 0 {
		return nil
	}

	out := make([]int16, len(self.args))
	for ind := range out {
		out[ind] = pgtype.BinaryFormatCode
	}
	return out
}

func (self *PgArgs) typeMap() *pgtype.Map {
	if self.Map == nil {
		self.Map = pgtype.NewMap()
	}
	return self.Map
}

func (self *PgArgs) oidFor(val any) (uint32, bool) {
	switch val.(type) {
	case int16:
		return pgtype.Int2OID, true
	case int32:
		return pgtype.Int4OID, true
	case int, int64:
		return pgtype.Int8OID, true
	case float32:
		return pgtype.Float4OID, true
	case float64:
		return pgtype.Float8OID, true
	case bool:
		return pgtype.BoolOID, true
	case string:
		return pgtype.TextOID, true
	case []byte:
		return pgtype.ByteaOID, true
	case time.Time:
		return pgtype.TimestamptzOID, true
	case [16]byte:
		return pgtype.UUIDOID, true
	}

	typ, ok := self.typeMap().TypeForValue(val)
	if !ok || typ == nil {
		return 0, false
	}
	return typ.OID, true
}

/*
Implements `Encoder` for `PgArgs`, encoding the inner value with the given type
OID instead of an inferred one:

	builder.PushBind(sqlbind.PgTyped{pgtype.JSONBOID, someMap})
*/
type PgTyped struct {
	OID uint32
	Val any
}

// Implement `Encoder`.
func (self PgTyped) EncodeArg(args *PgArgs) error {
	return args.AddTyped(self.OID, self.Val)
}
