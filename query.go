package sqlbind

/*
Executable query produced by `(*Builder).Build`. Contains the final statement
with backend-specific positional placeholders, and the encoded arguments taken
from the builder.

The type parameter `D` is used only at the type level. It carries the backend
that produced the arguments, preventing a query built for one backend from
being passed to an execution layer of another backend.

`Persistent` is a hint for the execution layer: the statement may be prepared
once and reused. Always true for queries produced by `Builder`.
*/
type Query[D Backend[A], A Args] struct {
	Statement  string
	Args       A
	Persistent bool
}

// Implement `fmt.Stringer` for debug purposes.
func (self Query[_, _]) String() string { return self.Statement }
