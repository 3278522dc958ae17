package engine

import (
	"math"

	"github.com/cwbudde/codecity/internal/ast"
	"github.com/cwbudde/codecity/internal/scope"
	"github.com/cwbudde/codecity/internal/values"
)

func newExprNode(expr ast.Expression) StateNode {
	switch e := expr.(type) {
	case *ast.Literal:
		return &literalNode{node: e}
	case *ast.Identifier:
		return &identifierNode{node: e}
	case *ast.ThisExpression:
		return &thisNode{}
	case *ast.ArrayExpression:
		return &arrayNode{node: e}
	case *ast.ObjectExpression:
		return &objectNode{node: e}
	case *ast.FunctionExpression:
		return &functionExprNode{node: e}
	case *ast.MemberExpression:
		return &memberNode{node: e}
	case *ast.CallExpression:
		return &callNode{node: e}
	case *ast.NewExpression:
		return &newExprStateNode{node: e}
	case *ast.AssignmentExpression:
		return &assignmentNode{node: e}
	case *ast.BinaryExpression:
		return &binaryNode{node: e}
	case *ast.LogicalExpression:
		return &logicalNode{node: e}
	case *ast.UnaryExpression:
		return &unaryNode{node: e}
	case *ast.UpdateExpression:
		return &updateNode{node: e}
	case *ast.ConditionalExpression:
		return &conditionalNode{node: e}
	case *ast.SequenceExpression:
		return &sequenceNode{node: e}
	default:
		return &literalNode{node: &ast.Literal{Kind: ast.LiteralUndefined}}
	}
}

// ---- Literal ----

type literalNode struct {
	baseNode
	node *ast.Literal
}

func (n *literalNode) Step(en *Engine, th *Thread) bool {
	var v values.Value
	switch n.node.Kind {
	case ast.LiteralUndefined:
		v = values.Undefined{}
	case ast.LiteralNull:
		v = values.Null{}
	case ast.LiteralBoolean:
		v = values.Boolean(n.node.Bool)
	case ast.LiteralNumber:
		v = values.Number(n.node.Num)
	case ast.LiteralString:
		v = values.String(n.node.Str)
	default:
		v = values.Undefined{}
	}
	n.finishValue(v)
	return true
}
func (n *literalNode) AcceptValue(values.Value) {}

// ---- Identifier ----

type identifierNode struct {
	baseNode
	node *ast.Identifier
}

func (n *identifierNode) Step(en *Engine, th *Thread) bool {
	v, err := th.topFrame().Scope.Get(n.node.Name)
	if err != nil {
		n.finishAbrupt(&Completion{Kind: Throw, Value: referenceError(err.Error())})
		return true
	}
	n.finishValue(v)
	return true
}
func (n *identifierNode) AcceptValue(values.Value) {}

// ---- this ----

type thisNode struct{ baseNode }

func (n *thisNode) Step(en *Engine, th *Thread) bool {
	n.finishValue(th.topFrame().This)
	return true
}
func (n *thisNode) AcceptValue(values.Value) {}

// ---- Array literal ----

type arrayNode struct {
	baseNode
	node    *ast.ArrayExpression
	index   int
	pending bool
	out     *values.Object
}

func (n *arrayNode) Step(en *Engine, th *Thread) bool {
	if n.out == nil {
		n.out = values.NewObject(en.ArrayProto, values.ClassArray)
		n.out.DefineOwnProperty("length", values.PropertySlot{Value: values.Number(0), Writable: true})
		en.Heap.Track(n.out)
	}
	for n.index < len(n.node.Elements) {
		el := n.node.Elements[n.index]
		if n.pending {
			n.index++
			n.pending = false
			continue
		}
		if el == nil {
			n.index++
			continue
		}
		n.pending = true
		th.topFrame().push(newExprNode(el))
		return false
	}
	n.finishValue(n.out)
	return true
}
func (n *arrayNode) AcceptValue(v values.Value) {
	n.out.SetProperty(indexKey(n.index), v)
}

// ---- Object literal ----

type objectNode struct {
	baseNode
	node    *ast.ObjectExpression
	index   int
	pending bool
	key     string
	out     *values.Object
}

func (n *objectNode) Step(en *Engine, th *Thread) bool {
	if n.out == nil {
		n.out = values.NewObject(en.ObjectProto, values.ClassObject)
		en.Heap.Track(n.out)
	}
	for n.index < len(n.node.Properties) {
		p := n.node.Properties[n.index]
		if n.pending {
			n.index++
			n.pending = false
			continue
		}
		n.key = propertyKeyLiteral(p.Key)
		n.pending = true
		th.topFrame().push(newExprNode(p.Value))
		return false
	}
	n.finishValue(n.out)
	return true
}
func (n *objectNode) AcceptValue(v values.Value) {
	n.out.SetProperty(n.key, v)
}

func propertyKeyLiteral(key ast.Expression) string {
	switch k := key.(type) {
	case *ast.Identifier:
		return k.Name
	case *ast.Literal:
		if k.Kind == ast.LiteralNumber {
			return values.Number(k.Num).String()
		}
		return k.Str
	default:
		return ""
	}
}

// ---- Function expression ----

type functionExprNode struct {
	baseNode
	node *ast.FunctionExpression
}

func (n *functionExprNode) Step(en *Engine, th *Thread) bool {
	fn := values.NewObject(en.FunctionProto, values.ClassFunction)
	fd := &values.FunctionData{Params: n.node.Params, Body: n.node.Body, Captured: th.topFrame().Scope}
	if n.node.Name != nil {
		// The name is recorded for stack traces only; it is not declared in
		// the enclosing scope or in the function's own call scope, so the
		// body cannot refer to the function by this name.
		fd.Name = n.node.Name.Name
	}
	fn.Internal = fd
	en.Heap.Track(fn)
	n.finishValue(fn)
	return true
}
func (n *functionExprNode) AcceptValue(values.Value) {}

// ---- Member access ----

type memberNode struct {
	baseNode
	node      *ast.MemberExpression
	objVal    values.Value
	keyVal    values.Value
	gotObject bool
	gotKey    bool
}

func (n *memberNode) Step(en *Engine, th *Thread) bool {
	if !n.gotObject {
		n.gotObject = true
		th.topFrame().push(newExprNode(n.node.Object))
		return false
	}
	if n.node.Computed && !n.gotKey {
		n.gotKey = true
		th.topFrame().push(newExprNode(n.node.Property))
		return false
	}
	var key string
	if n.node.Computed {
		key = string(values.ToString(n.keyVal))
	} else {
		key = n.node.Property.(*ast.Identifier).Name
	}
	v, err := readProperty(n.objVal, key)
	if err != nil {
		n.finishAbrupt(&Completion{Kind: Throw, Value: typeError(err.Error())})
		return true
	}
	n.finishValue(v)
	return true
}
func (n *memberNode) AcceptValue(v values.Value) {
	if n.objVal == nil {
		n.objVal = v
		return
	}
	n.keyVal = v
}

func readProperty(base values.Value, key string) (values.Value, error) {
	switch b := base.(type) {
	case values.Undefined, values.Null:
		return nil, propertyOfNilError(key)
	case *values.Object:
		if slot, ok := b.GetProperty(key); ok {
			return slot.Value, nil
		}
		return values.Undefined{}, nil
	case values.String:
		if key == "length" {
			return values.Number(len([]rune(string(b)))), nil
		}
		return values.Undefined{}, nil
	default:
		return values.Undefined{}, nil
	}
}

// ---- Call ----

// callPhase sequences callNode through receiver/callee resolution,
// argument evaluation, and invocation. Member calls (`obj.method(...)`)
// resolve the receiver and the function separately so `this` is bound
// correctly; plain calls (`f(...)`) skip straight to phaseCallee.
type callPhase int

const (
	phaseReceiver callPhase = iota // member callee: evaluating m.Object
	phaseKey                       // member callee: evaluating a computed m.Property
	phaseCallee                    // non-member callee: evaluating it directly
	phaseArgs
	phaseAwaitResult // invoked; awaiting a native's immediate result or a pushed frame's return
)

type callNode struct {
	baseNode
	node      *ast.CallExpression
	phase     callPhase
	member    *ast.MemberExpression // non-nil if node.Callee is a MemberExpression
	recvVal   values.Value
	calleeVal values.Value
	args      []values.Value
	argIndex  int
}

func (n *callNode) Step(en *Engine, th *Thread) bool {
	frame := th.topFrame()
	if n.member == nil && n.phase == phaseReceiver {
		if m, ok := n.node.Callee.(*ast.MemberExpression); ok {
			n.member = m
		} else {
			n.phase = phaseCallee
		}
	}
	switch n.phase {
	case phaseReceiver:
		n.phase = phaseKey
		frame.push(newExprNode(n.member.Object))
		return false
	case phaseKey:
		if n.member.Computed {
			n.phase = phaseArgs
			frame.push(newExprNode(n.member.Property))
			return false
		}
		key := n.member.Property.(*ast.Identifier).Name
		return n.resolveMemberCallee(key)
	case phaseCallee:
		n.phase = phaseArgs
		frame.push(newExprNode(n.node.Callee))
		return false
	case phaseArgs:
		if n.argIndex < len(n.node.Arguments) {
			frame.push(newExprNode(n.node.Arguments[n.argIndex]))
			n.argIndex++
			return false
		}
		n.phase = phaseAwaitResult
		return n.invoke(en, th)
	default:
		return true
	}
}

func (n *callNode) resolveMemberCallee(key string) bool {
	v, err := readProperty(n.recvVal, key)
	if err != nil {
		n.finishAbrupt(&Completion{Kind: Throw, Value: typeError(err.Error())})
		return true
	}
	n.calleeVal = v
	n.phase = phaseArgs
	return false
}

func (n *callNode) AcceptValue(v values.Value) {
	switch n.phase {
	case phaseKey:
		n.recvVal = v
	case phaseArgs:
		if n.member != nil && n.calleeVal == nil {
			// This is the computed-key value (member, receiver already set).
			key := string(values.ToString(v))
			cv, err := readProperty(n.recvVal, key)
			if err != nil {
				n.finishAbrupt(&Completion{Kind: Throw, Value: typeError(err.Error())})
				return
			}
			n.calleeVal = cv
			return
		}
		if n.member == nil && n.calleeVal == nil {
			n.calleeVal = v
			return
		}
		n.args = append(n.args, v)
	case phaseAwaitResult:
		n.finishValue(v)
	}
}

func (n *callNode) invoke(en *Engine, th *Thread) bool {
	fnObj, ok := n.calleeVal.(*values.Object)
	if !ok || fnObj.Class != values.ClassFunction {
		n.finishAbrupt(&Completion{Kind: Throw, Value: typeError("value is not a function")})
		return true
	}
	fd, _ := fnObj.Internal.(*values.FunctionData)
	if fd == nil {
		n.finishAbrupt(&Completion{Kind: Throw, Value: typeError("value is not a function")})
		return true
	}
	var thisVal values.Value = values.Undefined{}
	if n.member != nil {
		thisVal = n.recvVal
	}
	if fd.NativeID != "" {
		result, err := en.Natives.Call(fd.NativeID, thisVal, n.args)
		if err != nil {
			n.finishAbrupt(&Completion{Kind: Throw, Value: nativeError(err.Error())})
			return true
		}
		n.finishValue(result)
		return true
	}
	captured, _ := fd.Captured.(*scope.Scope)
	callScope := scope.New(captured)
	bindParams(callScope, fd.Params, n.args)
	newFrame := newCallFrame(callScope, thisVal)
	newFrame.FuncName = fd.Name
	scope.Hoist(callScope, fd.Body.Body)
	newFrame.push(&blockNode{seq: stmtSeqNode{body: fd.Body.Body}})
	th.pushFrame(newFrame)
	return false
}

func bindParams(sc *scope.Scope, params []*ast.Identifier, args []values.Value) {
	for i, p := range params {
		if i < len(args) {
			sc.Declare(p.Name, args[i])
		} else {
			sc.Declare(p.Name, values.Undefined{})
		}
	}
}

// ---- new ----

type newExprStateNode struct {
	baseNode
	node      *ast.NewExpression
	phase     int // 0=callee,1=args,2=constructed instance awaiting source-fn return
	calleeVal values.Value
	args      []values.Value
	argIndex  int
	instance  *values.Object
}

func (n *newExprStateNode) Step(en *Engine, th *Thread) bool {
	frame := th.topFrame()
	switch n.phase {
	case 0:
		n.phase = 1
		frame.push(newExprNode(n.node.Callee))
		return false
	case 1:
		if n.argIndex < len(n.node.Arguments) {
			frame.push(newExprNode(n.node.Arguments[n.argIndex]))
			n.argIndex++
			return false
		}
		n.phase = 2
		return n.construct(en, th)
	default:
		return true
	}
}
func (n *newExprStateNode) AcceptValue(v values.Value) {
	if n.phase == 2 {
		// The constructed call returned: an object result overrides the
		// fresh instance, per JS's constructor-return rule; anything else
		// keeps the instance.
		if resultObj, ok := v.(*values.Object); ok {
			n.finishValue(resultObj)
		} else {
			n.finishValue(n.instance)
		}
		return
	}
	if n.calleeVal == nil {
		n.calleeVal = v
		return
	}
	n.args = append(n.args, v)
}

func (n *newExprStateNode) construct(en *Engine, th *Thread) bool {
	fnObj, ok := n.calleeVal.(*values.Object)
	if !ok || fnObj.Class != values.ClassFunction {
		n.finishAbrupt(&Completion{Kind: Throw, Value: typeError("value is not a constructor")})
		return true
	}
	var proto *values.Object
	if slot, ok := fnObj.GetProperty("prototype"); ok {
		proto, _ = slot.Value.(*values.Object)
	}
	instance := values.NewObject(proto, values.ClassObject)
	en.Heap.Track(instance)

	fd, _ := fnObj.Internal.(*values.FunctionData)
	if fd == nil {
		n.finishValue(instance)
		return true
	}
	if fd.NativeID != "" {
		result, err := en.Natives.Call(fd.NativeID, instance, n.args)
		if err != nil {
			n.finishAbrupt(&Completion{Kind: Throw, Value: nativeError(err.Error())})
			return true
		}
		if resultObj, ok := result.(*values.Object); ok {
			n.finishValue(resultObj)
		} else {
			n.finishValue(instance)
		}
		return true
	}
	captured, _ := fd.Captured.(*scope.Scope)
	callScope := scope.New(captured)
	bindParams(callScope, fd.Params, n.args)
	newFrame := newCallFrame(callScope, instance)
	newFrame.FuncName = fd.Name
	scope.Hoist(callScope, fd.Body.Body)
	newFrame.push(&blockNode{seq: stmtSeqNode{body: fd.Body.Body}})
	n.instance = instance
	th.pushFrame(newFrame)
	return false
}

// ---- Assignment ----

type assignmentNode struct {
	baseNode
	node     *ast.AssignmentExpression
	phase    int
	lv       lvalue
	curVal   values.Value
	newVal   values.Value
}

func (n *assignmentNode) Step(en *Engine, th *Thread) bool {
	frame := th.topFrame()
	switch n.phase {
	case 0:
		var err error
		n.lv, err = resolveLValue(en, th, n.node.Target)
		if err != nil {
			n.finishAbrupt(&Completion{Kind: Throw, Value: referenceError(err.Error())})
			return true
		}
		n.phase = 1
		if n.node.Operator != "=" {
			v, err := n.lv.get()
			if err != nil {
				n.finishAbrupt(&Completion{Kind: Throw, Value: referenceError(err.Error())})
				return true
			}
			n.curVal = v
		}
		frame.push(newExprNode(n.node.Value))
		return false
	default:
		result := n.newVal
		if n.node.Operator != "=" {
			result = applyBinaryOp(compoundOp(n.node.Operator), n.curVal, n.newVal)
		}
		if err := n.lv.set(result); err != nil {
			n.finishAbrupt(&Completion{Kind: Throw, Value: referenceError(err.Error())})
			return true
		}
		n.finishValue(result)
		return true
	}
}
func (n *assignmentNode) AcceptValue(v values.Value) { n.newVal = v }

func compoundOp(op string) string {
	return op[:len(op)-1] // "+=" -> "+"
}

// ---- Binary ----

type binaryNode struct {
	baseNode
	node     *ast.BinaryExpression
	leftVal  values.Value
	rightVal values.Value
	gotLeft  bool
}

func (n *binaryNode) Step(en *Engine, th *Thread) bool {
	if !n.gotLeft {
		n.gotLeft = true
		th.topFrame().push(newExprNode(n.node.Left))
		return false
	}
	if n.rightVal == nil {
		th.topFrame().push(newExprNode(n.node.Right))
		return false
	}
	n.finishValue(applyBinaryOp(n.node.Operator, n.leftVal, n.rightVal))
	return true
}
func (n *binaryNode) AcceptValue(v values.Value) {
	if n.leftVal == nil {
		n.leftVal = v
		return
	}
	n.rightVal = v
}

func applyBinaryOp(op string, left, right values.Value) values.Value {
	switch op {
	case "+":
		lp, rp := values.ToPrimitive(left, "default"), values.ToPrimitive(right, "default")
		if _, ok := lp.(values.String); ok {
			return values.String(string(values.ToString(lp)) + string(values.ToString(rp)))
		}
		if _, ok := rp.(values.String); ok {
			return values.String(string(values.ToString(lp)) + string(values.ToString(rp)))
		}
		return values.Number(float64(values.ToNumber(lp)) + float64(values.ToNumber(rp)))
	case "-":
		return values.Number(float64(values.ToNumber(left)) - float64(values.ToNumber(right)))
	case "*":
		return values.Number(float64(values.ToNumber(left)) * float64(values.ToNumber(right)))
	case "/":
		return values.Number(float64(values.ToNumber(left)) / float64(values.ToNumber(right)))
	case "%":
		return values.Number(math.Mod(float64(values.ToNumber(left)), float64(values.ToNumber(right))))
	case "==":
		return values.Boolean(values.LooseEquals(left, right))
	case "!=":
		return values.Boolean(!values.LooseEquals(left, right))
	case "===":
		return values.Boolean(values.StrictEquals(left, right))
	case "!==":
		return values.Boolean(!values.StrictEquals(left, right))
	case "<":
		return values.Boolean(float64(values.ToNumber(left)) < float64(values.ToNumber(right)))
	case "<=":
		return values.Boolean(float64(values.ToNumber(left)) <= float64(values.ToNumber(right)))
	case ">":
		return values.Boolean(float64(values.ToNumber(left)) > float64(values.ToNumber(right)))
	case ">=":
		return values.Boolean(float64(values.ToNumber(left)) >= float64(values.ToNumber(right)))
	default:
		return values.Undefined{}
	}
}

// ---- Logical (&&, ||, short-circuit) ----

type logicalNode struct {
	baseNode
	node        *ast.LogicalExpression
	leftVal     values.Value
	rightPushed bool
}

func (n *logicalNode) Step(en *Engine, th *Thread) bool {
	if n.leftVal == nil {
		th.topFrame().push(newExprNode(n.node.Left))
		return false
	}
	short := (n.node.Operator == "&&" && !values.ToBoolean(n.leftVal)) ||
		(n.node.Operator == "||" && values.ToBoolean(n.leftVal))
	if short {
		n.finishValue(n.leftVal)
		return true
	}
	if !n.rightPushed {
		n.rightPushed = true
		th.topFrame().push(newExprNode(n.node.Right))
		return false
	}
	return true
}

func (n *logicalNode) AcceptValue(v values.Value) {
	if n.leftVal == nil {
		n.leftVal = v
		return
	}
	n.finishValue(v)
}

// ---- Unary ----

type unaryNode struct {
	baseNode
	node   *ast.UnaryExpression
	argVal values.Value
	pushed bool
}

func (n *unaryNode) Step(en *Engine, th *Thread) bool {
	if n.node.Operator == "typeof" {
		if ident, ok := n.node.Argument.(*ast.Identifier); ok && !th.topFrame().Scope.Has(ident.Name) {
			n.finishValue(values.String("undefined"))
			return true
		}
	}
	if !n.pushed {
		n.pushed = true
		th.topFrame().push(newExprNode(n.node.Argument))
		return false
	}
	switch n.node.Operator {
	case "-":
		n.finishValue(values.Number(-float64(values.ToNumber(n.argVal))))
	case "+":
		n.finishValue(values.Number(float64(values.ToNumber(n.argVal))))
	case "!":
		n.finishValue(values.Boolean(!values.ToBoolean(n.argVal)))
	case "typeof":
		n.finishValue(values.String(values.TypeOf(n.argVal)))
	default:
		n.finishValue(values.Undefined{})
	}
	return true
}
func (n *unaryNode) AcceptValue(v values.Value) { n.argVal = v }

// ---- Update (++/--) ----

type updateNode struct {
	baseNode
	node  *ast.UpdateExpression
	lv    lvalue
	old   values.Value
	ready bool
}

func (n *updateNode) Step(en *Engine, th *Thread) bool {
	if !n.ready {
		lv, err := resolveLValue(en, th, n.node.Argument)
		if err != nil {
			n.finishAbrupt(&Completion{Kind: Throw, Value: referenceError(err.Error())})
			return true
		}
		n.lv = lv
		old, err := lv.get()
		if err != nil {
			n.finishAbrupt(&Completion{Kind: Throw, Value: referenceError(err.Error())})
			return true
		}
		n.old = old
		n.ready = true
	}
	delta := 1.0
	if n.node.Operator == "--" {
		delta = -1.0
	}
	newVal := values.Number(float64(values.ToNumber(n.old)) + delta)
	if err := n.lv.set(newVal); err != nil {
		n.finishAbrupt(&Completion{Kind: Throw, Value: referenceError(err.Error())})
		return true
	}
	if n.node.Prefix {
		n.finishValue(newVal)
	} else {
		n.finishValue(values.Number(float64(values.ToNumber(n.old))))
	}
	return true
}
func (n *updateNode) AcceptValue(values.Value) {}

// ---- Conditional (?:) ----

type conditionalNode struct {
	baseNode
	node    *ast.ConditionalExpression
	test    values.Value
	tested  bool
}

func (n *conditionalNode) Step(en *Engine, th *Thread) bool {
	if !n.tested {
		if n.test == nil {
			th.topFrame().push(newExprNode(n.node.Test))
			return false
		}
		n.tested = true
		if values.ToBoolean(n.test) {
			th.topFrame().push(newExprNode(n.node.Consequent))
		} else {
			th.topFrame().push(newExprNode(n.node.Alternate))
		}
		return false
	}
	return true
}
func (n *conditionalNode) AcceptValue(v values.Value) {
	if n.test == nil {
		n.test = v
		return
	}
	n.finishValue(v)
}

// ---- Sequence (comma operator) ----

type sequenceNode struct {
	baseNode
	node  *ast.SequenceExpression
	index int
	last  values.Value
}

func (n *sequenceNode) Step(en *Engine, th *Thread) bool {
	if n.index >= len(n.node.Expressions) {
		n.finishValue(n.last)
		return true
	}
	e := n.node.Expressions[n.index]
	n.index++
	th.topFrame().push(newExprNode(e))
	return false
}
func (n *sequenceNode) AcceptValue(v values.Value) { n.last = v }

// ---- helpers ----

func indexKey(i int) string {
	return values.Number(i).String()
}

func referenceError(msg string) *values.Object {
	e := values.NewObject(nil, values.ClassError)
	e.SetProperty("name", values.String("ReferenceError"))
	e.SetProperty("message", values.String(msg))
	return e
}

func typeError(msg string) *values.Object {
	e := values.NewObject(nil, values.ClassError)
	e.SetProperty("name", values.String("TypeError"))
	e.SetProperty("message", values.String(msg))
	return e
}

func nativeError(msg string) *values.Object {
	e := values.NewObject(nil, values.ClassError)
	e.SetProperty("name", values.String("Error"))
	e.SetProperty("message", values.String(msg))
	return e
}

func propertyOfNilError(key string) error {
	return &nilPropertyError{key: key}
}

type nilPropertyError struct{ key string }

func (e *nilPropertyError) Error() string {
	return "cannot read properties of undefined (reading '" + e.key + "')"
}
