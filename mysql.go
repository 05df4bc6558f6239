package sqlbind

import (
	"database/sql/driver"
	"encoding/binary"
	"fmt"
	"math"
	r "reflect"
	"time"
)

/*
MySQL backend. Placeholders are always "?": MySQL parameters are positional
but not numbered. Arguments are encoded in the binary format of the
`COM_STMT_EXECUTE` command by `MyArgs`.
*/
type Mysql struct{}

// Implement `Backend`.
func (Mysql) MakeArgs() *MyArgs { return new(MyArgs) }

// Implement `Backend`. Appends "?", ignoring the ordinal.
func (Mysql) AppendParam(text []byte, _ int) []byte { return append(text, '?') }

// Shortcuts for the MySQL instantiations of generic types.
type (
	MyBuilder   = Builder[Mysql, *MyArgs]
	MyQuery     = Query[Mysql, *MyArgs]
	MySeparated = Separated[Mysql, *MyArgs]
)

// Shortcut for `New[Mysql, *MyArgs]`.
func My(init string) *MyBuilder { return New[Mysql, *MyArgs](init) }

// Column type codes used in `COM_STMT_EXECUTE`.
const (
	MyTypeNull     byte = 0x06
	MyTypeTiny     byte = 0x01
	MyTypeShort    byte = 0x02
	MyTypeLong     byte = 0x03
	MyTypeFloat    byte = 0x04
	MyTypeDouble   byte = 0x05
	MyTypeLongLong byte = 0x08
	MyTypeDatetime byte = 0x0c
	MyTypeString   byte = 0xfe
)

// Flag in the second byte of a parameter type, see `(*MyArgs).Types`.
const myFlagUnsigned byte = 0x80

type myArg struct {
	typ      byte
	unsigned bool
	start    int
	end      int
}

/*
Argument buffer for MySQL. Encodes values in the binary protocol:

	intN, bool         -> little-endian fixed-width integer
	uintN              -> same, with the unsigned flag
	float32, float64   -> little-endian IEEE 754
	string, []byte     -> length-encoded string
	time.Time          -> binary DATETIME in UTC
	driver.Valuer      -> encoding of the output of `.Value`

Named types are supported by their kind, and pointers are dereferenced. Values
implementing `Encoder` encode themselves. Nil and typed nils are encoded as
NULL: they occupy no bytes and are marked in `.NullBitmap`. Other types fail
with `ErrUnsupportedType`.
*/
type MyArgs struct {
	buf  []byte
	args []myArg
}

// Implement `Args`.
func (self *MyArgs) Add(val any) error {
	impl, _ := val.(Encoder[*MyArgs])
	if impl != nil {
		return impl.EncodeArg(self)
	}

	if isNil(val) {
		self.addNull()
		return nil
	}

	valuer, _ := val.(driver.Valuer)
	if valuer != nil {
		inner, err := valuer.Value()
		if err != nil {
			return errEncode(`encoding MySQL argument`, fmt.Errorf(`%T: %w`, val, err))
		}
		val = inner
	}

	val = deref(val)
	if isNil(val) {
		self.addNull()
		return nil
	}

	start := len(self.buf)
	buf, arg, err := myAppend(self.buf, val)
	if err != nil {
		return err
	}

	arg.start, arg.end = start, len(buf)
	self.buf = buf
	self.args = append(self.args, arg)
	return nil
}

func (self *MyArgs) addNull() {
	pos := len(self.buf)
	self.args = append(self.args, myArg{typ: MyTypeNull, start: pos, end: pos})
}

// Implement `Args`.
func (self *MyArgs) Len() int {
	if self == nil {
		return 0
	}
	return len(self.args)
}

// Implement `Args`. Returns the concatenated encodings of all non-NULL
// arguments, which is the "parameter values" section of `COM_STMT_EXECUTE`.
func (self *MyArgs) Bytes() []byte {
	if self == nil {
		return nil
	}
	return self.buf
}

// Returns the NULL bitmap of `COM_STMT_EXECUTE`: one bit per argument, set for
// NULL arguments.
func (self *MyArgs) NullBitmap() []byte {
	out := make([]byte, (self.Len()+7)/8)
	for ind, arg := range self.args {
		if arg.typ == MyTypeNull {
			out[ind/8] |= 1 << (ind % 8)
		}
	}
	return out
}

// Returns the parameter types of `COM_STMT_EXECUTE`: two bytes per argument,
// the type code and the flags.
func (self *MyArgs) Types() []byte {
	out := make([]byte, 0, self.Len()*2)
	for _, arg := range self.args {
		var flag byte
		if arg.unsigned {
			flag = myFlagUnsigned
		}
		out = append(out, arg.typ, flag)
	}
	return out
}

// Returns the encoded value of each argument, in order, as sub-slices of
// `.Bytes`. NULL arguments are nil.
func (self *MyArgs) Values() [][]byte {
	if self.Len() == 0 {
		return nil
	}

	out := make([][]byte, len(self.args))
	for ind, arg := range self.args {
		if arg.typ != MyTypeNull {
			out[ind] = self.buf[arg.start:arg.end:arg.end]
		}
	}
	return out
}

func myAppend(buf []byte, src any) ([]byte, myArg, error) {
	switch val := src.(type) {
	case time.Time:
		return myAppendTime(buf, val), myArg{typ: MyTypeDatetime}, nil
	case []byte:
		return myAppendLenStr(buf, val), myArg{typ: MyTypeString}, nil
	case string:
		return myAppendLenStr(buf, val), myArg{typ: MyTypeString}, nil
	}

	typ := typeOf(src)
	val := valueOf(src)

	switch typ.Kind() {
	case r.Bool:
		var num byte
		if val.Bool() {
			num = 1
		}
		return append(buf, num), myArg{typ: MyTypeTiny}, nil

	case r.Int8:
		return append(buf, byte(val.Int())), myArg{typ: MyTypeTiny}, nil

	case r.Int16:
		return binary.LittleEndian.AppendUint16(buf, uint16(val.Int())), myArg{typ: MyTypeShort}, nil

	case r.Int32:
		return binary.LittleEndian.AppendUint32(buf, uint32(val.Int())), myArg{typ: MyTypeLong}, nil

	case r.Int, r.Int64:
		return binary.LittleEndian.AppendUint64(buf, uint64(val.Int())), myArg{typ: MyTypeLongLong}, nil

	case r.Uint8:
		return append(buf, byte(val.Uint())), myArg{typ: MyTypeTiny, unsigned: true}, nil

	case r.Uint16:
		return binary.LittleEndian.AppendUint16(buf, uint16(val.Uint())), myArg{typ: MyTypeShort, unsigned: true}, nil

	case r.Uint32:
		return binary.LittleEndian.AppendUint32(buf, uint32(val.Uint())), myArg{typ: MyTypeLong, unsigned: true}, nil

	case r.Uint, r.Uint64:
		return binary.LittleEndian.AppendUint64(buf, val.Uint()), myArg{typ: MyTypeLongLong, unsigned: true}, nil

	case r.Float32:
		return binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(val.Float()))), myArg{typ: MyTypeFloat}, nil

	case r.Float64:
		return binary.LittleEndian.AppendUint64(buf, math.Float64bits(val.Float())), myArg{typ: MyTypeDouble}, nil

	case r.String:
		return myAppendLenStr(buf, val.String()), myArg{typ: MyTypeString}, nil

	default:
		if typ.ConvertibleTo(typeBytes) {
			return myAppendLenStr(buf, val.Bytes()), myArg{typ: MyTypeString}, nil
		}
		return buf, myArg{}, errUnsupportedType(`encoding MySQL argument`, typ)
	}
}

// Appends a length-encoded integer.
func myAppendLenInt(buf []byte, val uint64) []byte {
	switch {
	case val < 251:
		return append(buf, byte(val))
	case val < 1<<16:
		return append(buf, 0xfc, byte(val), byte(val>>8))
	case val < 1<<24:
		return append(buf, 0xfd, byte(val), byte(val>>8), byte(val>>16))
	default:
		buf = append(buf, 0xfe)
		return binary.LittleEndian.AppendUint64(buf, val)
	}
}

// Appends a length-encoded string.
func myAppendLenStr[A string | []byte](buf []byte, val A) []byte {
	buf = myAppendLenInt(buf, uint64(len(val)))
	return append(buf, val...)
}

/*
Appends a binary DATETIME: a length byte followed by 0, 4, 7 or 11 bytes of
date, time and microseconds. The zero `time.Time` is encoded with length 0,
which MySQL treats as '0000-00-00 00:00:00'.
*/
func myAppendTime(buf []byte, val time.Time) []byte {
	if val.IsZero() {
		return append(buf, 0)
	}

	val = val.UTC()
	micro := val.Nanosecond() / 1000
	hasTime := val.Hour() != 0 || val.Minute() != 0 || val.Second() != 0 || micro != 0

	size := byte(4)
	if micro != 0 {
		size = 11
	} else if hasTime {
		size = 7
	}

	buf = append(buf, size)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(val.Year()))
	buf = append(buf, byte(val.Month()), byte(val.Day()))

	if size >= 7 {
		buf = append(buf, byte(val.Hour()), byte(val.Minute()), byte(val.Second()))
	}
	if size == 11 {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(micro))
	}
	return buf
}
