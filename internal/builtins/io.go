package builtins

import (
	"strings"

	"github.com/cwbudde/codecity/internal/engine"
	"github.com/cwbudde/codecity/internal/values"
)

// registerIO installs the global print function and a console namespace
// with a log alias, both writing through the engine's host Sink (spec
// §4.9's host boundary) rather than directly to stdout, so the hosting
// process controls where script output actually lands.
//
// Grounded in the teacher's Print/PrintLn built-ins (internal/interp/
// builtins: write arguments to the interpreter's configured io.Writer).
func registerIO(en *engine.Engine) {
	print := func(thisVal values.Value, args []values.Value) (values.Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = string(values.ToString(a))
		}
		en.Sink.Write(strings.Join(parts, " "))
		return values.Undefined{}, nil
	}

	fn := nativeFunc(en, "print", print)
	en.Global.Declare("print", fn)

	console := namespace(en)
	defineMethod(en, console, "log", "console.log", print)
	en.Global.Declare("console", console)
}
