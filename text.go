package sqlbind

import (
	"encoding"
	"fmt"
	r "reflect"
	"strconv"
)

/*
Appends a text representation. Sometimes allows better efficiency than
`fmt.Stringer`. When passed to `(*Builder).Push`, takes priority over other
representations.
*/
type Appender interface {
	Append([]byte) []byte
}

var typeBytes = r.TypeOf((*[]byte)(nil)).Elem()

/*
Appends the text representation of an arbitrary SQL fragment. Used by
`(*Builder).Push`. Unlike `appendTextStrict`, never fails: for unsupported
types, falls back on `fmt.Append`. Nil appends nothing.
*/
func appendText(buf []byte, src any) []byte {
	out, err := appendTextStrict(buf, src)
	if err != nil {
		return fmt.Append(buf, src)
	}
	return out
}

/*
Appends the text representation of an arbitrary value, prioritizing
"append"-style encoding over "string"-style encoding, and using only
"intentional" representations. Supports ONLY the following types, in this order
of priority. For other types, returns an error.

	* `Appender`
	* `encoding.TextMarshaler`
	* `fmt.Stringer`
	* Built-in primitive types.
	* Aliases of `[]byte`.

Floats are encoded without the scientific notation.
*/
func appendTextStrict(buf []byte, src any) ([]byte, error) {
	if src == nil {
		return buf, nil
	}

	// Fast path for the overwhelmingly common case.
	str, ok := src.(string)
	if ok {
		return append(buf, str...), nil
	}

	appender, _ := src.(Appender)
	if appender != nil {
		return appender.Append(buf), nil
	}

	marshaler, _ := src.(encoding.TextMarshaler)
	if marshaler != nil {
		chunk, err := marshaler.MarshalText()
		if err != nil {
			return buf, errEncode(`appending text representation`, err)
		}
		return append(buf, chunk...), nil
	}

	stringer, _ := src.(fmt.Stringer)
	if stringer != nil {
		return append(buf, stringer.String()...), nil
	}

	typ := typeOf(src)
	val := valueOf(src)

	switch typ.Kind() {
	case r.Int8, r.Int16, r.Int32, r.Int64, r.Int:
		return strconv.AppendInt(buf, val.Int(), 10), nil

	case r.Uint8, r.Uint16, r.Uint32, r.Uint64, r.Uint:
		return strconv.AppendUint(buf, val.Uint(), 10), nil

	case r.Float32, r.Float64:
		return strconv.AppendFloat(buf, val.Float(), 'f', -1, 64), nil

	case r.Bool:
		return strconv.AppendBool(buf, val.Bool()), nil

	case r.String:
		return append(buf, val.String()...), nil

	default:
		if typ.ConvertibleTo(typeBytes) {
			return append(buf, val.Bytes()...), nil
		}
		return buf, errUnsupportedType(`appending text representation`, typ)
	}
}
