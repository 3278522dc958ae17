package builtins

import (
	"math"
	"strconv"
	"strings"

	"github.com/cwbudde/codecity/internal/engine"
	"github.com/cwbudde/codecity/internal/values"
)

// registerSystem installs the small set of global namespaces that don't
// fit Math/Object/JSON/Array: Number's introspection/parsing statics and
// Array.isArray, both frequently reached for even by small scripts.
func registerSystem(en *engine.Engine) {
	arrayNS := namespace(en)
	defineMethod(en, arrayNS, "isArray", "Array.isArray", func(_ values.Value, args []values.Value) (values.Value, error) {
		obj, ok := argAt(args, 0).(*values.Object)
		return values.Boolean(ok && obj.Class == values.ClassArray), nil
	})
	en.Global.Declare("Array", arrayNS)

	numberNS := namespace(en)
	numberNS.DefineOwnProperty("MAX_SAFE_INTEGER", values.PropertySlot{Value: values.Number(9007199254740991)})
	numberNS.DefineOwnProperty("MIN_SAFE_INTEGER", values.PropertySlot{Value: values.Number(-9007199254740991)})
	numberNS.DefineOwnProperty("EPSILON", values.PropertySlot{Value: values.Number(2.220446049250313e-16)})
	numberNS.DefineOwnProperty("POSITIVE_INFINITY", values.PropertySlot{Value: values.Number(math.Inf(1))})
	numberNS.DefineOwnProperty("NEGATIVE_INFINITY", values.PropertySlot{Value: values.Number(math.Inf(-1))})
	numberNS.DefineOwnProperty("NaN", values.PropertySlot{Value: values.Number(math.NaN())})

	defineMethod(en, numberNS, "isInteger", "Number.isInteger", func(_ values.Value, args []values.Value) (values.Value, error) {
		n, ok := argAt(args, 0).(values.Number)
		return values.Boolean(ok && !math.IsNaN(float64(n)) && !math.IsInf(float64(n), 0) && math.Trunc(float64(n)) == float64(n)), nil
	})

	defineMethod(en, numberNS, "isFinite", "Number.isFinite", func(_ values.Value, args []values.Value) (values.Value, error) {
		n, ok := argAt(args, 0).(values.Number)
		return values.Boolean(ok && !math.IsNaN(float64(n)) && !math.IsInf(float64(n), 0)), nil
	})

	defineMethod(en, numberNS, "isNaN", "Number.isNaN", func(_ values.Value, args []values.Value) (values.Value, error) {
		n, ok := argAt(args, 0).(values.Number)
		return values.Boolean(ok && math.IsNaN(float64(n))), nil
	})

	defineMethod(en, numberNS, "parseFloat", "Number.parseFloat", func(_ values.Value, args []values.Value) (values.Value, error) {
		return values.Number(parseLeadingFloat(string(values.ToString(argAt(args, 0))))), nil
	})

	defineMethod(en, numberNS, "parseInt", "Number.parseInt", func(_ values.Value, args []values.Value) (values.Value, error) {
		f := parseLeadingFloat(string(values.ToString(argAt(args, 0))))
		if math.IsNaN(f) {
			return values.Number(math.NaN()), nil
		}
		return values.Number(math.Trunc(f)), nil
	})

	en.Global.Declare("Number", numberNS)

	// parseFloat/parseInt are also bare globals in JS, not just Number
	// statics; alias both.
	if fn, ok := numberNS.GetOwnProperty("parseFloat"); ok {
		en.Global.Declare("parseFloat", fn.Value)
	}
	if fn, ok := numberNS.GetOwnProperty("parseInt"); ok {
		en.Global.Declare("parseInt", fn.Value)
	}
}

// parseLeadingFloat parses as much of a numeric prefix as strconv can,
// trimming leading whitespace first, and returns NaN when nothing parses —
// JS's parseFloat semantics (stop at the first invalid character rather
// than rejecting the whole string).
func parseLeadingFloat(s string) float64 {
	s = strings.TrimLeft(s, " \t\n\r")
	end := len(s)
	seenDot, seenDigit, seenExp := false, false, false
	i := 0
	if i < end && (s[i] == '+' || s[i] == '-') {
		i++
	}
	for ; i < end; i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			seenDigit = true
		case c == '.' && !seenDot && !seenExp:
			seenDot = true
		case (c == 'e' || c == 'E') && seenDigit && !seenExp:
			seenExp = true
			if i+1 < end && (s[i+1] == '+' || s[i+1] == '-') {
				i++
			}
		default:
			end = i
			goto done
		}
	}
done:
	if !seenDigit {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
