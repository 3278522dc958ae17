// Package scope implements the lexical scope chain (spec §4.4): nested
// name->value environments, var/function hoisting, and strict resolution
// (no implicit globals — an unresolved get or set is a ReferenceError, per
// the Open Question decision recorded in SPEC_FULL.md).
//
// Grounded in the teacher's environment chain (internal/interp keeps a
// parent-linked frame per call, each frame a flat map); the shape here is
// the same parent-linked map, generalized to carry JS var/function hoisting
// instead of DWScript's static declaration blocks.
package scope

import (
	"fmt"

	"github.com/cwbudde/codecity/internal/ast"
	"github.com/cwbudde/codecity/internal/values"
)

// Scope is one link of the lexical chain: a flat binding table plus a
// pointer to its enclosing scope (nil for the global scope).
type Scope struct {
	Parent   *Scope
	bindings map[string]*values.PropertySlot
}

// New creates a fresh scope nested inside parent (nil for the global scope).
func New(parent *Scope) *Scope {
	return &Scope{Parent: parent, bindings: make(map[string]*values.PropertySlot)}
}

// Declare introduces name in this scope with an initial value. Redeclaring
// an existing name in the same scope overwrites its value, matching `var`'s
// idempotent redeclaration semantics.
func (s *Scope) Declare(name string, v values.Value) {
	s.bindings[name] = &values.PropertySlot{Value: v, Writable: true, Enumerable: true, Configurable: false}
}

// Get resolves name by walking outward from s. It returns a ReferenceError-
// shaped error if no scope in the chain declares name — this interpreter
// has no implicit global object, so an unresolved read always fails rather
// than silently returning undefined (SPEC_FULL.md Open-Question decision).
func (s *Scope) Get(name string) (values.Value, error) {
	for cur := s; cur != nil; cur = cur.Parent {
		if slot, ok := cur.bindings[name]; ok {
			return slot.Value, nil
		}
	}
	return nil, fmt.Errorf("ReferenceError: %s is not defined", name)
}

// Set assigns to the nearest scope that already declares name. It returns
// a ReferenceError-shaped error if no scope in the chain declares name,
// rather than implicitly creating a new global binding.
func (s *Scope) Set(name string, v values.Value) error {
	for cur := s; cur != nil; cur = cur.Parent {
		if slot, ok := cur.bindings[name]; ok {
			if !slot.Writable {
				return nil
			}
			slot.Value = v
			return nil
		}
	}
	return fmt.Errorf("ReferenceError: %s is not defined", name)
}

// Has reports whether name resolves anywhere in the chain, without
// returning its value — used by `typeof` on a bare identifier, which must
// report "undefined" rather than throwing when the name is unresolved.
func (s *Scope) Has(name string) bool {
	for cur := s; cur != nil; cur = cur.Parent {
		if _, ok := cur.bindings[name]; ok {
			return true
		}
	}
	return false
}

// DeclareConst introduces a non-writable binding, one that silently
// rejects reassignment. Catch-clause parameters are bound with Declare,
// not DeclareConst, and stay writable.
func (s *Scope) DeclareConst(name string, v values.Value) {
	s.bindings[name] = &values.PropertySlot{Value: v, Writable: false, Enumerable: true, Configurable: false}
}

// DeclareSlot installs a binding with an explicit writable bit, used by the
// snapshot decoder to restore bindings exactly as they were captured
// instead of always defaulting to writable.
func (s *Scope) DeclareSlot(name string, v values.Value, writable bool) {
	s.bindings[name] = &values.PropertySlot{Value: v, Writable: writable, Enumerable: true, Configurable: false}
}

// OwnNames returns the names bound directly in this scope (not its
// ancestors), in no particular order — used by the snapshot encoder to
// walk a closure's captured bindings.
func (s *Scope) OwnNames() []string {
	out := make([]string, 0, len(s.bindings))
	for name := range s.bindings {
		out = append(out, name)
	}
	return out
}

// OwnGet returns the value and writable bit of a binding declared directly
// in this scope.
func (s *Scope) OwnGet(name string) (values.Value, bool, bool) {
	slot, ok := s.bindings[name]
	if !ok {
		return nil, false, false
	}
	return slot.Value, slot.Writable, true
}

// Hoist walks a function or program body and pre-declares every `var` and
// function-declaration name it finds, initializing both vars and functions
// to undefined (a function's binding is populated by the engine once it
// builds the closure object). Hoist does not evaluate initializers and does not descend into
// nested function bodies — their own hoisting pass happens when they're
// invoked, not when the outer scope is entered (spec §4.4's hoisting rule).
func Hoist(s *Scope, body []ast.Statement) {
	for _, stmt := range body {
		hoistStatement(s, stmt)
	}
}

func hoistStatement(s *Scope, stmt ast.Statement) {
	switch n := stmt.(type) {
	case *ast.VariableDeclaration:
		for _, decl := range n.Declarations {
			if _, _, ok := s.OwnGet(decl.ID.Name); !ok {
				s.Declare(decl.ID.Name, values.Undefined{})
			}
		}
	case *ast.FunctionDeclaration:
		// Declared here so the name exists before the engine evaluates the
		// declaration statement (which actually installs the closure);
		// left as undefined until then so a forward reference inside a
		// sibling statement resolves to a name, even if not yet callable.
		// Checked against this scope only (OwnGet), not the chain (Has):
		// an enclosing scope already declaring the same name must not
		// suppress this scope's own binding, or the "local" name would
		// silently alias the outer one instead of shadowing it.
		if _, _, ok := s.OwnGet(n.Name.Name); !ok {
			s.Declare(n.Name.Name, values.Undefined{})
		}
	case *ast.BlockStatement:
		Hoist(s, n.Body)
	case *ast.IfStatement:
		hoistStatement(s, n.Consequent)
		if n.Alternate != nil {
			hoistStatement(s, n.Alternate)
		}
	case *ast.WhileStatement:
		hoistStatement(s, n.Body)
	case *ast.DoWhileStatement:
		hoistStatement(s, n.Body)
	case *ast.ForStatement:
		if decl, ok := n.Init.(*ast.VariableDeclaration); ok {
			hoistStatement(s, decl)
		}
		hoistStatement(s, n.Body)
	case *ast.ForInStatement:
		if decl, ok := n.Left.(*ast.VariableDeclaration); ok {
			hoistStatement(s, decl)
		}
		hoistStatement(s, n.Body)
	case *ast.TryStatement:
		Hoist(s, n.Block.Body)
		if n.Handler != nil {
			Hoist(s, n.Handler.Body.Body)
		}
		if n.Finalizer != nil {
			Hoist(s, n.Finalizer.Body)
		}
	case *ast.SwitchStatement:
		for _, c := range n.Cases {
			Hoist(s, c.Consequent)
		}
	case *ast.LabeledStatement:
		hoistStatement(s, n.Body)
	}
}
