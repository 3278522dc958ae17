package builtins

import (
	"math"
	"math/rand"

	"github.com/cwbudde/codecity/internal/engine"
	"github.com/cwbudde/codecity/internal/values"
)

// registerMath installs the global Math namespace object: the constants
// JS programs expect plus the single-argument and variadic functions
// native-table entries can implement without re-entering the step engine.
func registerMath(en *engine.Engine) {
	m := namespace(en)

	for name, v := range map[string]float64{
		"PI":      math.Pi,
		"E":       math.E,
		"LN2":     math.Ln2,
		"LN10":    math.Log(10),
		"LOG2E":   1 / math.Ln2,
		"LOG10E":  1 / math.Log(10),
		"SQRT2":   math.Sqrt2,
		"SQRT1_2": math.Sqrt(0.5),
	} {
		m.DefineOwnProperty(name, values.PropertySlot{Value: values.Number(v)})
	}

	unary := map[string]func(float64) float64{
		"abs":   math.Abs,
		"floor": math.Floor,
		"ceil":  math.Ceil,
		"round": math.Round,
		"trunc": math.Trunc,
		"sqrt":  math.Sqrt,
		"cbrt":  math.Cbrt,
		"log":   math.Log,
		"log2":  math.Log2,
		"log10": math.Log10,
		"exp":   math.Exp,
		"sin":   math.Sin,
		"cos":   math.Cos,
		"tan":   math.Tan,
		"asin":  math.Asin,
		"acos":  math.Acos,
		"atan":  math.Atan,
		"sinh":  math.Sinh,
		"cosh":  math.Cosh,
		"tanh":  math.Tanh,
	}
	for name, fn := range unary {
		fn := fn
		defineMethod(en, m, name, "Math."+name, func(_ values.Value, args []values.Value) (values.Value, error) {
			return values.Number(fn(numArg(args, 0))), nil
		})
	}

	defineMethod(en, m, "sign", "Math.sign", func(_ values.Value, args []values.Value) (values.Value, error) {
		x := numArg(args, 0)
		switch {
		case x > 0:
			return values.Number(1), nil
		case x < 0:
			return values.Number(-1), nil
		default:
			return values.Number(x), nil
		}
	})

	defineMethod(en, m, "pow", "Math.pow", func(_ values.Value, args []values.Value) (values.Value, error) {
		return values.Number(math.Pow(numArg(args, 0), numArg(args, 1))), nil
	})

	defineMethod(en, m, "atan2", "Math.atan2", func(_ values.Value, args []values.Value) (values.Value, error) {
		return values.Number(math.Atan2(numArg(args, 0), numArg(args, 1))), nil
	})

	defineMethod(en, m, "hypot", "Math.hypot", func(_ values.Value, args []values.Value) (values.Value, error) {
		sum := 0.0
		for i := range args {
			x := numArg(args, i)
			sum += x * x
		}
		return values.Number(math.Sqrt(sum)), nil
	})

	defineMethod(en, m, "min", "Math.min", func(_ values.Value, args []values.Value) (values.Value, error) {
		if len(args) == 0 {
			return values.Number(math.Inf(1)), nil
		}
		best := numArg(args, 0)
		for i := 1; i < len(args); i++ {
			v := numArg(args, i)
			if math.IsNaN(v) {
				return values.Number(math.NaN()), nil
			}
			if v < best {
				best = v
			}
		}
		return values.Number(best), nil
	})

	defineMethod(en, m, "max", "Math.max", func(_ values.Value, args []values.Value) (values.Value, error) {
		if len(args) == 0 {
			return values.Number(math.Inf(-1)), nil
		}
		best := numArg(args, 0)
		for i := 1; i < len(args); i++ {
			v := numArg(args, i)
			if math.IsNaN(v) {
				return values.Number(math.NaN()), nil
			}
			if v > best {
				best = v
			}
		}
		return values.Number(best), nil
	})

	// Random is a genuine side effect (spec §4.3 excludes nothing here —
	// it's synchronous and never suspends, just non-deterministic), so it
	// stays a plain math/rand call rather than something routed through
	// internal/host's Clock.
	defineMethod(en, m, "random", "Math.random", func(_ values.Value, _ []values.Value) (values.Value, error) {
		return values.Number(rand.Float64()), nil
	})

	en.Global.Declare("Math", m)
}
