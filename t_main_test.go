package sqlbind

import (
	"errors"
	"fmt"
	r "reflect"
	"runtime"
	"strings"
	"testing"
)

type list = []any

func eq(t testing.TB, exp, act any) {
	t.Helper()
	if !r.DeepEqual(exp, act) {
		t.Fatalf(`
expected (detailed):
	%#[1]v
actual (detailed):
	%#[2]v
expected (simple):
	%[1]v
actual (simple):
	%[2]v
`, exp, act)
	}
}

func notEq(t testing.TB, exp, act any) {
	t.Helper()
	if r.DeepEqual(exp, act) {
		t.Fatalf(`
unexpected equality (detailed):
	%#[1]v
unexpected equality (simple):
	%[1]v
`, exp, act)
	}
}

func ok(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf(`unexpected error: %+v`, err)
	}
}

func fails(t testing.TB, exp error, act error) {
	t.Helper()
	if act == nil {
		t.Fatalf(`expected error %v, found nil`, exp)
	}
	if !errors.Is(act, exp) {
		t.Fatalf(`expected error %v, found %v`, exp, act)
	}
}

func panics(t testing.TB, msg string, fun func()) {
	t.Helper()
	val := catchAny(fun)

	if val == nil {
		t.Fatalf(`expected %v to panic, found no panic`, funcName(fun))
	}

	str := fmt.Sprint(val)
	if !strings.Contains(str, msg) {
		t.Fatalf(
			`expected %v to panic with a message containing %q, found %q`,
			funcName(fun), msg, str,
		)
	}
}

func funcName(val any) string {
	return runtime.FuncForPC(r.ValueOf(val).Pointer()).Name()
}

func catchAny(fun func()) (val any) {
	defer recAny(&val)
	fun()
	return
}

func recAny(ptr *any) { *ptr = recover() }

// Test-only backend with a trivial textual encoding, which makes buffer
// contents easy to verify. Placeholders are ":1", ":2" and so on.
type testBackend struct{}

func (testBackend) MakeArgs() *testArgs { return new(testArgs) }

func (testBackend) AppendParam(text []byte, ord int) []byte {
	return fmt.Appendf(text, `:%d`, ord)
}

type testArgs struct {
	buf  []byte
	vals list
}

func (self *testArgs) Add(val any) error {
	if val == nil {
		return fmt.Errorf(`nil is not allowed in test args`)
	}
	self.buf = fmt.Append(self.buf, val, `;`)
	self.vals = append(self.vals, val)
	return nil
}

func (self *testArgs) Len() int      { return len(self.vals) }
func (self *testArgs) Bytes() []byte { return self.buf }

type testBuilder = Builder[testBackend, *testArgs]

func newTest(init string) *testBuilder { return New[testBackend, *testArgs](init) }

// Encodes itself as two arguments, violating the one-bind-one-argument rule.
type twoArgs struct{}

func (twoArgs) EncodeArg(args *testArgs) error {
	try(args.Add(`one`))
	return args.Add(`two`)
}

// Encodes itself by delegating to the default encoding with a prefix.
type prefixed string

func (self prefixed) EncodeArg(args *testArgs) error {
	return args.Add(`prefixed_` + string(self))
}

// Adds an argument before failing, leaving the buffer out of sync.
type halfFailing struct{}

func (halfFailing) EncodeArg(args *testArgs) error {
	try(args.Add(`half`))
	return fmt.Errorf(`failed after adding`)
}

type failing struct{ msg string }

func (self failing) EncodeArg(*testArgs) error { return fmt.Errorf(`%v`, self.msg) }
