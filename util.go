package sqlbind

import (
	r "reflect"

	"github.com/mitranim/refut"
)

func try(err error) {
	if err != nil {
		panic(err)
	}
}

func try1[A any](val A, err error) A {
	try(err)
	return val
}

// Must be deferred.
func rec(ptr *error) {
	val := recover()
	if val == nil {
		return
	}

	err, _ := val.(error)
	if err != nil {
		*ptr = err
		return
	}

	panic(val)
}

/*
Runs the function, converting panics with `error` values into returned errors.
Since binding after `Build` panics, this should be used by apps that insist on
errors-as-values:

	err := sqlbind.Catch(func() { builder.PushBind(10) })
*/
func Catch(fun func()) (err error) {
	defer rec(&err)
	if fun != nil {
		fun()
	}
	return
}

// True for untyped nil and for nil pointers, maps, slices, and so on, hidden
// in a non-nil interface.
func isNil(val any) bool { return val == nil || refut.IsNil(val) }

// Dereferences non-nil pointers, returning the innermost value. Returns nil
// when the chain ends with a nil pointer.
func deref(val any) any {
	rval := valueOf(val)
	if rval.Kind() != r.Pointer {
		return val
	}
	for rval.Kind() == r.Pointer {
		if rval.IsNil() {
			return nil
		}
		rval = rval.Elem()
	}
	return rval.Interface()
}

func typeOf(val any) r.Type { return r.TypeOf(val) }

func valueOf(val any) r.Value { return r.ValueOf(val) }

func typeName(typ r.Type) string {
	if typ == nil {
		return `nil`
	}
	return typ.String()
}

func typeKind(typ r.Type) r.Kind {
	if typ == nil {
		return r.Invalid
	}
	return typ.Kind()
}

func growBytes(prev []byte, size int) []byte {
	len, cap := len(prev), cap(prev)
	if cap-len >= size {
		return prev
	}

	next := make([]byte, len, 2*cap+size)
	copy(next, prev)
	return next
}
