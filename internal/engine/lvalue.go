package engine

import (
	"fmt"

	"github.com/cwbudde/codecity/internal/ast"
	"github.com/cwbudde/codecity/internal/values"
)

// lvalue is an assignment/update target: something with a get and a set.
// Only Identifier and MemberExpression targets are valid JS lvalues; the
// parser is responsible for rejecting anything else (spec §4.5).
type lvalue struct {
	kind string // "identifier" or "member"
	name string // identifier name, when kind == "identifier"
	obj  *values.Object
	key  string
	th   *Thread
}

func (lv lvalue) get() (values.Value, error) {
	if lv.kind == "identifier" {
		return lv.th.topFrame().Scope.Get(lv.name)
	}
	v, err := readProperty(lv.obj, lv.key)
	return v, err
}

func (lv lvalue) set(v values.Value) error {
	if lv.kind == "identifier" {
		return lv.th.topFrame().Scope.Set(lv.name, v)
	}
	return lv.obj.SetProperty(lv.key, v)
}

// resolveLValue identifies the target and, for member targets, evaluates
// the base object (and computed key) eagerly via evalSync. This is a
// narrower guarantee than the rest of the step engine: a base expression
// that itself performs a function call won't suspend mid-resolution. Plain
// identifier and member-chain targets (the overwhelming common case) are
// unaffected.
func resolveLValue(en *Engine, th *Thread, target ast.Expression) (lvalue, error) {
	switch t := target.(type) {
	case *ast.Identifier:
		return lvalue{kind: "identifier", name: t.Name, th: th}, nil
	case *ast.MemberExpression:
		baseVal, err := evalSync(en, th, t.Object)
		if err != nil {
			return lvalue{}, err
		}
		obj, ok := baseVal.(*values.Object)
		if !ok {
			return lvalue{}, fmt.Errorf("cannot assign to property of a non-object value")
		}
		var key string
		if t.Computed {
			keyVal, err := evalSync(en, th, t.Property)
			if err != nil {
				return lvalue{}, err
			}
			key = string(values.ToString(keyVal))
		} else {
			key = t.Property.(*ast.Identifier).Name
		}
		return lvalue{kind: "member", obj: obj, key: key, th: th}, nil
	default:
		return lvalue{}, fmt.Errorf("invalid assignment target")
	}
}

// evalSync drives a single expression's state-node subtree to completion
// immediately, without yielding back to the scheduler. It's used only for
// lvalue base/key resolution (see resolveLValue's caveat above) — every
// other expression in a program is evaluated through the normal step loop.
func evalSync(en *Engine, th *Thread, expr ast.Expression) (values.Value, error) {
	frame := th.topFrame()
	base := len(frame.stack)
	startFrames := len(th.frames)
	frame.push(newExprNode(expr))
	for len(frame.stack) > base {
		if len(th.frames) != startFrames {
			return nil, fmt.Errorf("unsupported: assignment target may not invoke a function")
		}
		top := frame.stack[len(frame.stack)-1]
		done := top.Step(en, th)
		if !done {
			continue
		}
		frame.stack = frame.stack[:len(frame.stack)-1]
		comp := top.Completion()
		if comp != nil && comp.Kind == Throw {
			frame.stack = frame.stack[:base]
			return nil, fmt.Errorf("%s", values.ToString(comp.Value))
		}
		if len(frame.stack) > base {
			frame.stack[len(frame.stack)-1].AcceptValue(comp.Value)
		} else {
			return comp.Value, nil
		}
	}
	return values.Undefined{}, nil
}
