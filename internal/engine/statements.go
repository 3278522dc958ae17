package engine

import (
	"github.com/cwbudde/codecity/internal/ast"
	"github.com/cwbudde/codecity/internal/scope"
	"github.com/cwbudde/codecity/internal/values"
)

// labelable is implemented by loop state nodes so an enclosing
// LabeledStatement can tag them with its label (spec §4.5: labeled
// continue targets the loop, labeled break targets the label itself).
type labelable interface {
	setLabel(string)
}

// ---- sequence helper shared by Program/Block ----

type stmtSeqNode struct {
	baseNode
	body  []ast.Statement
	index int
	last  values.Value
}

func (n *stmtSeqNode) Step(en *Engine, th *Thread) bool {
	if n.index >= len(n.body) {
		n.finishValue(n.last)
		return true
	}
	stmt := n.body[n.index]
	n.index++
	th.topFrame().push(newStatementNode(stmt))
	return false
}

func (n *stmtSeqNode) AcceptValue(v values.Value) { n.last = v }

func newStatementNode(stmt ast.Statement) StateNode {
	switch s := stmt.(type) {
	case *ast.BlockStatement:
		return &blockNode{seq: stmtSeqNode{body: s.Body}}
	case *ast.EmptyStatement:
		return &emptyNode{}
	case *ast.ExpressionStatement:
		return &exprStmtNode{expr: s.Expression}
	case *ast.VariableDeclaration:
		return &varDeclNode{decl: s}
	case *ast.FunctionDeclaration:
		return &funcDeclNode{decl: s}
	case *ast.IfStatement:
		return &ifNode{node: s}
	case *ast.WhileStatement:
		return &whileNode{node: s}
	case *ast.DoWhileStatement:
		return &doWhileNode{node: s}
	case *ast.ForStatement:
		return &forNode{node: s}
	case *ast.ForInStatement:
		return &forInNode{node: s}
	case *ast.BreakStatement:
		return &breakNode{label: s.Label}
	case *ast.ContinueStatement:
		return &continueNode{label: s.Label}
	case *ast.ReturnStatement:
		return &returnNode{node: s}
	case *ast.ThrowStatement:
		return &throwNode{node: s}
	case *ast.TryStatement:
		return &tryNode{node: s}
	case *ast.SwitchStatement:
		return &switchNode{node: s}
	case *ast.LabeledStatement:
		return &labeledNode{node: s}
	default:
		return &emptyNode{}
	}
}

// ---- Program / Block ----

type programNode struct {
	baseNode
	seq stmtSeqNode
}

func newProgramNode(p *ast.Program) *programNode {
	return &programNode{seq: stmtSeqNode{body: p.Body}}
}

func (n *programNode) Step(en *Engine, th *Thread) bool {
	done := n.seq.Step(en, th)
	if done {
		n.completion = n.seq.Completion()
	}
	return done
}
func (n *programNode) AcceptValue(v values.Value) { n.seq.AcceptValue(v) }

type blockNode struct {
	baseNode
	seq stmtSeqNode
}

func (n *blockNode) Step(en *Engine, th *Thread) bool {
	done := n.seq.Step(en, th)
	if done {
		n.completion = n.seq.Completion()
	}
	return done
}
func (n *blockNode) AcceptValue(v values.Value) { n.seq.AcceptValue(v) }
func (n *blockNode) AcceptCompletion(c *Completion) bool {
	return false
}

// ---- Empty / ExpressionStatement ----

type emptyNode struct{ baseNode }

func (n *emptyNode) Step(en *Engine, th *Thread) bool {
	n.finishValue(values.Undefined{})
	return true
}
func (n *emptyNode) AcceptValue(values.Value) {}

type exprStmtNode struct {
	baseNode
	expr   ast.Expression
	pushed bool
}

func (n *exprStmtNode) Step(en *Engine, th *Thread) bool {
	if !n.pushed {
		n.pushed = true
		th.topFrame().push(newExprNode(n.expr))
		return false
	}
	return true
}
func (n *exprStmtNode) AcceptValue(v values.Value) { n.finishValue(v) }

// ---- VariableDeclaration ----

type varDeclNode struct {
	baseNode
	decl    *ast.VariableDeclaration
	index   int
	pending bool
	initVal values.Value
}

func (n *varDeclNode) Step(en *Engine, th *Thread) bool {
	frame := th.topFrame()
	for n.index < len(n.decl.Declarations) {
		d := n.decl.Declarations[n.index]
		if n.pending {
			frame.Scope.Declare(d.ID.Name, n.initVal)
			n.pending = false
			n.index++
			continue
		}
		if d.Init == nil {
			if !frame.Scope.Has(d.ID.Name) {
				frame.Scope.Declare(d.ID.Name, values.Undefined{})
			}
			n.index++
			continue
		}
		n.pending = true
		frame.push(newExprNode(d.Init))
		return false
	}
	n.finishValue(values.Undefined{})
	return true
}
func (n *varDeclNode) AcceptValue(v values.Value) { n.initVal = v }

// ---- FunctionDeclaration ----

// funcDeclNode installs the closure into the already-hoisted name slot.
// Evaluation, not hoisting, is what actually makes the name callable (spec
// §4.4/§4.5): until this statement runs, the hoisted binding is undefined.
type funcDeclNode struct {
	baseNode
	decl *ast.FunctionDeclaration
}

func (n *funcDeclNode) Step(en *Engine, th *Thread) bool {
	frame := th.topFrame()
	fn := values.NewObject(en.FunctionProto, values.ClassFunction)
	fn.Internal = &values.FunctionData{Params: n.decl.Params, Body: n.decl.Body, Captured: frame.Scope, Name: n.decl.Name.Name}
	en.Heap.Track(fn)
	_ = frame.Scope.Set(n.decl.Name.Name, fn)
	n.finishValue(values.Undefined{})
	return true
}
func (n *funcDeclNode) AcceptValue(values.Value) {}

// ---- IfStatement ----

type ifNode struct {
	baseNode
	node    *ast.IfStatement
	phase   int
	test    values.Value
}

func (n *ifNode) Step(en *Engine, th *Thread) bool {
	switch n.phase {
	case 0:
		n.phase = 1
		th.topFrame().push(newExprNode(n.node.Test))
		return false
	case 1:
		n.phase = 2
		if values.ToBoolean(n.test) {
			th.topFrame().push(newStatementNode(n.node.Consequent))
		} else if n.node.Alternate != nil {
			th.topFrame().push(newStatementNode(n.node.Alternate))
		} else {
			n.finishValue(values.Undefined{})
			return true
		}
		return false
	default:
		n.finishValue(values.Undefined{})
		return true
	}
}
func (n *ifNode) AcceptValue(v values.Value) {
	if n.phase == 1 {
		n.test = v
	}
}

// ---- WhileStatement ----

type whileNode struct {
	baseNode
	node       *ast.WhileStatement
	label      string
	awaitTest  bool
	testResult values.Value
	started    bool
}

func (n *whileNode) setLabel(l string) { n.label = l }

func (n *whileNode) Step(en *Engine, th *Thread) bool {
	if !n.started || !n.awaitTest {
		n.started = true
		n.awaitTest = true
		th.topFrame().push(newExprNode(n.node.Test))
		return false
	}
	n.awaitTest = false
	if !values.ToBoolean(n.testResult) {
		n.finishValue(values.Undefined{})
		return true
	}
	th.topFrame().push(newStatementNode(n.node.Body))
	return false
}
func (n *whileNode) AcceptValue(v values.Value) {
	if n.awaitTest {
		n.testResult = v
	}
	// Body's value is discarded; loop continues via the next Step call,
	// which re-enters the test branch because awaitTest is now false.
}
func (n *whileNode) AcceptCompletion(c *Completion) bool {
	if c.Label != "" && c.Label != n.label {
		return false
	}
	if c.Kind == Break {
		n.finishValue(values.Undefined{})
		return true
	}
	// Continue: fall through to re-test on the next Step call.
	return true
}

// ---- DoWhileStatement ----

type doWhileNode struct {
	baseNode
	node       *ast.DoWhileStatement
	label      string
	phase      int // 0=run body, 1=evaluate test, 2=check test result
	testResult values.Value
}

func (n *doWhileNode) setLabel(l string) { n.label = l }

func (n *doWhileNode) Step(en *Engine, th *Thread) bool {
	switch n.phase {
	case 0:
		n.phase = 1
		th.topFrame().push(newStatementNode(n.node.Body))
		return false
	case 1:
		n.phase = 2
		th.topFrame().push(newExprNode(n.node.Test))
		return false
	default:
		n.phase = 0
		if values.ToBoolean(n.testResult) {
			return false
		}
		n.finishValue(values.Undefined{})
		return true
	}
}
func (n *doWhileNode) AcceptValue(v values.Value) {
	if n.phase == 2 {
		n.testResult = v
	}
}
func (n *doWhileNode) AcceptCompletion(c *Completion) bool {
	if c.Label != "" && c.Label != n.label {
		return false
	}
	if c.Kind == Break {
		n.finishValue(values.Undefined{})
		return true
	}
	n.phase = 1 // continue jumps straight to the test
	return true
}

// ---- ForStatement ----

type forNode struct {
	baseNode
	node        *ast.ForStatement
	label       string
	phase       int // 0=init,1=test,2=body,3=update
	initPushed  bool
	testResult  values.Value
}

func (n *forNode) setLabel(l string) { n.label = l }

func (n *forNode) Step(en *Engine, th *Thread) bool {
	frame := th.topFrame()
	switch n.phase {
	case 0:
		n.phase = 1
		if n.node.Init == nil {
			return false
		}
		switch init := n.node.Init.(type) {
		case *ast.VariableDeclaration:
			frame.push(&varDeclNode{decl: init})
		case ast.Expression:
			frame.push(newExprNode(init))
		}
		return false
	case 1:
		n.phase = 2
		if n.node.Test == nil {
			return false
		}
		frame.push(newExprNode(n.node.Test))
		return false
	case 2:
		if n.node.Test != nil && !values.ToBoolean(n.testResult) {
			n.finishValue(values.Undefined{})
			return true
		}
		n.phase = 3
		frame.push(newStatementNode(n.node.Body))
		return false
	case 3:
		n.phase = 4
		if n.node.Update == nil {
			return false
		}
		frame.push(newExprNode(n.node.Update))
		return false
	default:
		n.phase = 1
		return false
	}
}
func (n *forNode) AcceptValue(v values.Value) {
	if n.phase == 2 {
		n.testResult = v
	}
}
func (n *forNode) AcceptCompletion(c *Completion) bool {
	if c.Label != "" && c.Label != n.label {
		return false
	}
	if c.Kind == Break {
		n.finishValue(values.Undefined{})
		return true
	}
	n.phase = 3 // continue runs the update, then re-tests
	return true
}

// ---- ForInStatement ----

type forInNode struct {
	baseNode
	node    *ast.ForInStatement
	label   string
	keys    []string
	index   int
	started bool
	objVal  values.Value
}

func (n *forInNode) setLabel(l string) { n.label = l }

func (n *forInNode) Step(en *Engine, th *Thread) bool {
	frame := th.topFrame()
	if !n.started {
		if n.objVal == nil {
			frame.push(newExprNode(n.node.Right))
			return false
		}
		n.started = true
		if obj, ok := n.objVal.(*values.Object); ok {
			n.keys = obj.OwnKeys()
		}
	}
	if n.index >= len(n.keys) {
		n.finishValue(values.Undefined{})
		return true
	}
	key := n.keys[n.index]
	n.index++
	switch left := n.node.Left.(type) {
	case *ast.VariableDeclaration:
		frame.Scope.Declare(left.Declarations[0].ID.Name, values.String(key))
	case *ast.Identifier:
		_ = frame.Scope.Set(left.Name, values.String(key))
	}
	frame.push(newStatementNode(n.node.Body))
	return false
}
func (n *forInNode) AcceptValue(v values.Value) {
	if n.objVal == nil {
		n.objVal = v
	}
}
func (n *forInNode) AcceptCompletion(c *Completion) bool {
	if c.Label != "" && c.Label != n.label {
		return false
	}
	if c.Kind == Break {
		n.finishValue(values.Undefined{})
		return true
	}
	return true // continue: next Step call advances to the next key
}

// ---- Break / Continue ----

type breakNode struct {
	baseNode
	label string
}

func (n *breakNode) Step(en *Engine, th *Thread) bool {
	n.finishAbrupt(&Completion{Kind: Break, Label: n.label})
	return true
}
func (n *breakNode) AcceptValue(values.Value) {}

type continueNode struct {
	baseNode
	label string
}

func (n *continueNode) Step(en *Engine, th *Thread) bool {
	n.finishAbrupt(&Completion{Kind: Continue, Label: n.label})
	return true
}
func (n *continueNode) AcceptValue(values.Value) {}

// ---- Return ----

type returnNode struct {
	baseNode
	node   *ast.ReturnStatement
	pushed bool
}

func (n *returnNode) Step(en *Engine, th *Thread) bool {
	if n.node.Argument == nil {
		n.finishAbrupt(&Completion{Kind: Return, Value: values.Undefined{}})
		return true
	}
	if !n.pushed {
		n.pushed = true
		th.topFrame().push(newExprNode(n.node.Argument))
		return false
	}
	return true
}
func (n *returnNode) AcceptValue(v values.Value) {
	n.finishAbrupt(&Completion{Kind: Return, Value: v})
}

// ---- Throw ----

type throwNode struct {
	baseNode
	node   *ast.ThrowStatement
	pushed bool
}

func (n *throwNode) Step(en *Engine, th *Thread) bool {
	if !n.pushed {
		n.pushed = true
		th.topFrame().push(newExprNode(n.node.Argument))
		return false
	}
	return true
}
func (n *throwNode) AcceptValue(v values.Value) {
	n.finishAbrupt(&Completion{Kind: Throw, Value: v})
}

// ---- Try/Catch/Finally ----

// tryNode guarantees the finally block runs after the try block completes
// normally or after a caught exception is handled. It does not intercept
// break/continue/return unwinding past it (those propagate straight
// through, consistent with this interpreter's documented choice not to run
// finally under abrupt thread-level unwinding either — see the scheduler's
// kill semantics).
type tryNode struct {
	baseNode
	node         *ast.TryStatement
	stage        int // 0=block,1=catch,2=finally,3=done
	started      bool
	restoreScope *scope.Scope
	rethrow      *Completion
}

func (n *tryNode) Step(en *Engine, th *Thread) bool {
	frame := th.topFrame()
	switch n.stage {
	case 0:
		if !n.started {
			n.started = true
			frame.push(&blockNode{seq: stmtSeqNode{body: n.node.Block.Body}})
			return false
		}
		n.stage = 2
		n.started = false
		return false
	case 1:
		if !n.started {
			n.started = true
			frame.push(&blockNode{seq: stmtSeqNode{body: n.node.Handler.Body.Body}})
			return false
		}
		if n.restoreScope != nil {
			frame.Scope = n.restoreScope
			n.restoreScope = nil
		}
		n.stage = 2
		n.started = false
		return false
	case 2:
		if n.node.Finalizer == nil {
			n.stage = 3
			return false
		}
		if !n.started {
			n.started = true
			frame.push(&blockNode{seq: stmtSeqNode{body: n.node.Finalizer.Body}})
			return false
		}
		n.stage = 3
		return false
	default:
		if n.rethrow != nil {
			n.finishAbrupt(n.rethrow)
		} else {
			n.finishValue(values.Undefined{})
		}
		return true
	}
}
func (n *tryNode) AcceptValue(values.Value) {}

// offerThrow is called by the engine's unwind search when a throw reaches
// this node on top of the frame stack. It returns true if this try has an
// unused handler to run, or a throw from its try block reaches an unrun
// finally block (which then runs and rethrows); false means the throw keeps
// propagating.
func (n *tryNode) offerThrow(en *Engine, th *Thread, comp *Completion) bool {
	if n.stage != 0 || n.node.Handler == nil {
		n.rethrow = comp
		if n.node.Finalizer != nil && n.stage == 0 {
			n.stage = 2
			n.started = false
			return true
		}
		return false
	}
	frame := th.topFrame()
	catchScope := scope.New(frame.Scope)
	if n.node.Handler.Param != nil {
		catchScope.Declare(n.node.Handler.Param.Name, comp.Value)
	}
	n.restoreScope = frame.Scope
	frame.Scope = catchScope
	n.stage = 1
	n.started = false
	return true
}

// ---- Switch ----

type switchNode struct {
	baseNode
	node        *ast.SwitchStatement
	label       string
	disc        values.Value
	discReady   bool
	matched     bool
	matchIndex  int
	testIndex   int
	bodyIndex   int
	awaitTest   bool
	lastTest    values.Value
}

func (n *switchNode) setLabel(l string) { n.label = l }

func (n *switchNode) Step(en *Engine, th *Thread) bool {
	frame := th.topFrame()
	if !n.discReady {
		if n.disc == nil {
			frame.push(newExprNode(n.node.Discriminant))
			return false
		}
		n.discReady = true
	}
	if !n.matched {
		for n.testIndex < len(n.node.Cases) {
			c := n.node.Cases[n.testIndex]
			if c.Test == nil {
				n.testIndex++
				continue // default handled in the fallback pass below
			}
			if !n.awaitTest {
				n.awaitTest = true
				frame.push(newExprNode(c.Test))
				return false
			}
			n.awaitTest = false
			if values.StrictEquals(n.disc, n.lastTest) {
				n.matched = true
				n.matchIndex = n.testIndex
				break
			}
			n.testIndex++
		}
		if !n.matched {
			for i, c := range n.node.Cases {
				if c.Test == nil {
					n.matched = true
					n.matchIndex = i
					break
				}
			}
		}
		if !n.matched {
			n.finishValue(values.Undefined{})
			return true
		}
	}
	// Run statements from matchIndex onward (fallthrough), flattened.
	flat := flattenCases(n.node.Cases, n.matchIndex)
	if n.bodyIndex >= len(flat) {
		n.finishValue(values.Undefined{})
		return true
	}
	stmt := flat[n.bodyIndex]
	n.bodyIndex++
	frame.push(newStatementNode(stmt))
	return false
}
func (n *switchNode) AcceptValue(v values.Value) {
	if n.disc == nil {
		n.disc = v
		return
	}
	if n.awaitTest {
		n.lastTest = v
	}
}
func (n *switchNode) AcceptCompletion(c *Completion) bool {
	if c.Label != "" && c.Label != n.label {
		return false
	}
	if c.Kind == Break {
		n.finishValue(values.Undefined{})
		return true
	}
	return false // continue isn't meaningful directly inside a switch
}

func flattenCases(cases []*ast.SwitchCase, from int) []ast.Statement {
	var out []ast.Statement
	for _, c := range cases[from:] {
		out = append(out, c.Consequent...)
	}
	return out
}

// ---- Labeled ----

type labeledNode struct {
	baseNode
	node   *ast.LabeledStatement
	pushed bool
}

func (n *labeledNode) Step(en *Engine, th *Thread) bool {
	if !n.pushed {
		n.pushed = true
		child := newStatementNode(n.node.Body)
		if l, ok := child.(labelable); ok {
			l.setLabel(n.node.Label)
		}
		th.topFrame().push(child)
		return false
	}
	return true
}
func (n *labeledNode) AcceptValue(v values.Value) { n.finishValue(v) }
func (n *labeledNode) AcceptCompletion(c *Completion) bool {
	if c.Kind == Break && (c.Label == "" || c.Label == n.node.Label) {
		n.finishValue(values.Undefined{})
		return true
	}
	return false
}

