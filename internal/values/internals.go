package values

import "github.com/cwbudde/codecity/internal/ast"

// FunctionData is the internal slot of a ClassFunction object (spec §3):
// either a native-table entry (NativeID non-empty) or a source-defined
// function closing over a captured scope.
type FunctionData struct {
	// NativeID, when non-empty, names the internal/natives table entry
	// this function delegates to. Snapshots reference native functions
	// exclusively by this ID (spec §4.3, §4.7).
	NativeID string

	Params []*ast.Identifier
	Body   *ast.BlockStatement

	// Name is the function's declared or inferred name, used only for
	// uncaught-exception stack traces — it isn't part of the snapshot
	// format, so a restored function's trace shows "<anonymous>" instead.
	Name string

	// Captured is the lexical scope the function closed over. Typed `any`
	// to avoid an import cycle with internal/scope; internal/engine is the
	// only code that type-asserts it back to *scope.Scope.
	Captured any

	IsArrow bool // arrow functions don't rebind `this`
}

// DateData is the internal slot of a ClassDate object: milliseconds since
// the Unix epoch, NaN for an Invalid Date.
type DateData struct {
	Millis float64
}

// RegExpData is the internal slot of a ClassRegExp object.
type RegExpData struct {
	Source string
	Flags  string
}

// BoxData is the internal slot of a ClassBox object: a single mutable
// value cell, used by the engine for `with`-free indirect variable capture
// and by built-ins that need a heap-allocated reference cell.
type BoxData struct {
	Value Value
}

// HostResource is the internal slot of a ClassServer object (and of plain
// objects holding a socket back-slot): an opaque, host-owned resource the
// encoder never follows and the decoder always restores as nil (spec §5,
// §4.7's exclude set).
type HostResource struct {
	Conn any // e.g. net.Conn / net.Listener; nil once decoded until the host reconnects
}
