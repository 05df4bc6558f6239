package sqlbind

import (
	"errors"
	"fmt"
	r "reflect"
)

/*
Error codes. You probably shouldn't use this directly; instead, use the `Err`
variables with `errors.Is`.
*/
type ErrCode string

const (
	ErrCodeArgsTaken       ErrCode = "ArgsTaken"
	ErrCodeEncode          ErrCode = "Encode"
	ErrCodeUnsupportedType ErrCode = "UnsupportedType"
	ErrCodeArgCount        ErrCode = "ArgCount"
)

/*
Use blank error variables to detect error types:

	if errors.Is(err, sqlbind.ErrArgsTaken) {
		// Handle specific error.
	}

Note that errors returned by this package can't be compared via `==` because
they may include additional details about the circumstances. When compared by
`errors.Is`, they compare `.Cause` and fall back on `.Code`.
*/
var (
	ErrArgsTaken       Err = Err{Code: ErrCodeArgsTaken, Cause: errors.New(`arguments already taken`)}
	ErrEncode          Err = Err{Code: ErrCodeEncode, Cause: errors.New(`failed to encode argument`)}
	ErrUnsupportedType Err = Err{Code: ErrCodeUnsupportedType, Cause: errors.New(`unsupported type`)}
	ErrArgCount        Err = Err{Code: ErrCodeArgCount, Cause: errors.New(`encoder added an unexpected number of arguments`)}
)

// Type of errors returned by this package.
type Err struct {
	Code  ErrCode
	While string
	Cause error
}

// Implement `error`.
func (self Err) Error() string {
	msg := `[sqlbind] ` + string(self.Code)
	if self.While != `` {
		msg += fmt.Sprintf(` while %v`, self.While)
	}
	if self.Cause != nil {
		msg += `: ` + self.Cause.Error()
	}
	return msg
}

// Implement a hidden interface in "errors".
func (self Err) Is(other error) bool {
	if self.Cause != nil && errors.Is(self.Cause, other) {
		return true
	}
	err, ok := other.(Err)
	return ok && err.Code == self.Code
}

// Implement a hidden interface in "errors".
func (self Err) Unwrap() error {
	return self.Cause
}

func (self Err) while(while string) Err {
	self.While = while
	return self
}

func (self Err) because(cause error) Err {
	self.Cause = cause
	return self
}

func errArgsTaken(while string) Err { return ErrArgsTaken.while(while) }

func errEncode(while string, cause error) Err {
	return ErrEncode.while(while).because(cause)
}

func errUnsupportedType(while string, typ r.Type) Err {
	return ErrUnsupportedType.while(while).because(
		fmt.Errorf(`unsupported type %v of kind %v`, typeName(typ), typeKind(typ)),
	)
}

func errArgCount(while string, exp, act int) Err {
	return ErrArgCount.while(while).because(
		fmt.Errorf(`expected %v arguments after encoding, found %v`, exp, act),
	)
}
