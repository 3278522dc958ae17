// Package engine implements the step engine (spec §4.5): execution as a
// tree of state nodes, one per in-progress AST node, advanced one node-step
// at a time via a step()/acceptValue() protocol. No Go call stack frame
// ever represents interpreted control flow, so a thread can be suspended
// between any two node-steps and its state tree snapshotted whole (spec §6).
//
// Grounded in the teacher's bytecode VM loop shape (internal/bytecode:
// `for len(vm.frames) > 0 { frame := vm.frames[len(vm.frames)-1]; ... }`)
// generalized from a flat instruction-pointer frame stack to an explicit
// tree of typed state nodes, since spec §4.5 requires the paused state to
// be walkable and serializable node-by-node, not just an instruction offset.
package engine

import (
	"fmt"

	"github.com/cwbudde/codecity/internal/ast"
	cerrors "github.com/cwbudde/codecity/internal/errors"
	"github.com/cwbudde/codecity/internal/heap"
	"github.com/cwbudde/codecity/internal/host"
	"github.com/cwbudde/codecity/internal/natives"
	"github.com/cwbudde/codecity/internal/scope"
	"github.com/cwbudde/codecity/internal/values"
)

// CompletionKind classifies an abrupt (non-normal) completion (spec §4.5).
type CompletionKind int

const (
	Normal CompletionKind = iota
	Break
	Continue
	Return
	Throw
)

// Completion is the result a state node hands to its parent: either a plain
// value (Kind == Normal, carried via AcceptValue instead) or an abrupt
// signal that must propagate past intervening nodes until something
// catches it (a loop for break/continue, a call frame for return, a try
// for throw).
type Completion struct {
	Kind  CompletionKind
	Value values.Value // Return's value, or Throw's exception
	Label string       // target label for labeled break/continue, else ""
}

// StateNode is one frame of the step-engine's execution tree. Every AST
// kind the engine supports has a corresponding StateNode implementation in
// statements.go / expressions.go.
type StateNode interface {
	// Step performs one unit of work: either finishes the node (returning
	// done=true with a value or an abrupt completion already recorded) or
	// returns done=false after pushing at most one child node onto the
	// thread's stack (a node may return false without pushing to move to
	// its next phase on the following Step). Budget accounting is the
	// caller's job (one Step call is one step, whether or not it finished).
	Step(en *Engine, th *Thread) (done bool)

	// AcceptValue delivers a child's normal-completion value back to this
	// node, called once after the child that produced it is popped.
	AcceptValue(v values.Value)

	// AcceptCompletion offers a child's abrupt Break/Continue completion to
	// this node (Return and Throw are handled by the engine directly, since
	// they unwind whole call frames / search for a try). It returns true if
	// this node consumes the completion (a matching loop absorbing its own
	// break/continue); false means "not mine", and the engine keeps
	// propagating to the next node up this frame's stack.
	AcceptCompletion(c *Completion) bool

	// Completion returns this node's recorded completion once Step has
	// returned done=true. A Normal-kind completion's Value is also what
	// AcceptValue delivers to the parent.
	Completion() *Completion
}

// Engine bundles the collaborators a running program needs: the heap
// (C2), the native-function table (C3), and the global scope (C4's root).
// It holds no per-thread state itself — that lives on each Thread.
type Engine struct {
	Heap    *heap.Heap
	Natives *natives.Table
	Global  *scope.Scope

	// ObjectProto, ArrayProto, and FunctionProto are the shared prototypes
	// every object/array/function literal links to, so `arr.push` and
	// similar method calls resolve through the prototype chain (spec §3)
	// instead of requiring every instance to carry its own copy. A host
	// builtins package populates their properties; the engine only
	// allocates and links them.
	ObjectProto   *values.Object
	ArrayProto    *values.Object
	FunctionProto *values.Object

	// Sink is where the print/console built-ins write (spec §4.9's host
	// boundary); it defaults to a discarding sink so an engine is usable
	// standalone, and a host swaps it in via SetSink.
	Sink host.Sink
}

// New creates an engine over the given heap, native table, and a fresh
// global scope, along with the three shared prototypes literals link to.
func New(h *heap.Heap, nt *natives.Table) *Engine {
	objectProto := values.NewObject(nil, values.ClassObject)
	en := &Engine{
		Heap:          h,
		Natives:       nt,
		Global:        scope.New(nil),
		ObjectProto:   objectProto,
		ArrayProto:    values.NewObject(objectProto, values.ClassObject),
		FunctionProto: values.NewObject(objectProto, values.ClassObject),
		Sink:          host.FuncSink(func(string) {}),
	}
	values.Invoker = en.callSync
	return en
}

// maxSyncCallSteps bounds callSync's run loop, so a valueOf/toString that
// never returns can't hang the coercion it was called from.
const maxSyncCallSteps = 100000

// callSync invokes fn as an ordinary, non-suspending call and drives it to
// completion on a standalone thread before returning — the same call
// mechanics callNode.invoke uses (native dispatch, or a fresh call frame
// over fd's captured scope), just run synchronously instead of yielding
// control back to the scheduler. This is what values.Invoker is wired to,
// so ToPrimitive's valueOf/toString lookups actually call through.
func (en *Engine) callSync(fn *values.Object, thisVal values.Value, args []values.Value) (values.Value, error) {
	fd, _ := fn.Internal.(*values.FunctionData)
	if fd == nil {
		return nil, fmt.Errorf("value is not callable")
	}
	if fd.NativeID != "" {
		return en.Natives.Call(fd.NativeID, thisVal, args)
	}
	captured, _ := fd.Captured.(*scope.Scope)
	callScope := scope.New(captured)
	bindParams(callScope, fd.Params, args)
	frame := newCallFrame(callScope, thisVal)
	frame.FuncName = fd.Name
	scope.Hoist(callScope, fd.Body.Body)
	frame.push(&blockNode{seq: stmtSeqNode{body: fd.Body.Body}})

	th := &Thread{ID: 0, frames: []*CallFrame{frame}}
	for i := 0; i < maxSyncCallSteps && !th.Done; i++ {
		en.Step(th)
	}
	if !th.Done {
		return nil, fmt.Errorf("valueOf/toString did not terminate within %d steps", maxSyncCallSteps)
	}
	return th.Result, th.Err
}

// SetSink rebinds where print/console output goes.
func (en *Engine) SetSink(sink host.Sink) { en.Sink = sink }

// CallFrame is one JS-level call activation: its own scope chain link and
// `this` binding, plus the stack of state nodes currently executing within
// it. A Thread's call stack is a slice of these; the topmost frame's
// topmost state node is what Step advances.
type CallFrame struct {
	Scope *scope.Scope
	This  values.Value
	stack []StateNode

	// FuncName names the function this frame is activating, for uncaught-
	// exception stack traces (errors.StackTrace). Empty for the outermost
	// (top-level program) frame.
	FuncName string
}

func newCallFrame(sc *scope.Scope, this values.Value) *CallFrame {
	return &CallFrame{Scope: sc, This: this}
}

func (f *CallFrame) push(n StateNode) { f.stack = append(f.stack, n) }

func (f *CallFrame) top() StateNode {
	if len(f.stack) == 0 {
		return nil
	}
	return f.stack[len(f.stack)-1]
}

func (f *CallFrame) pop() StateNode {
	n := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return n
}

// Thread is one cooperative fiber (spec §4.6's unit of scheduling): a stack
// of call frames, each with its own state-node tree. Thread itself knows
// nothing about scheduling policy; internal/scheduler drives it by calling
// Step in a loop.
type Thread struct {
	ID     uint64
	frames []*CallFrame
	// Result and Err are set once the thread's outermost frame finishes.
	Result values.Value
	Err    error
	Done   bool
}

// NewThread creates a thread ready to evaluate program in the given scope
// (normally the engine's global scope, or a fresh child of it).
func NewThread(id uint64, program *ast.Program, sc *scope.Scope) *Thread {
	scope.Hoist(sc, program.Body)
	frame := newCallFrame(sc, values.Undefined{})
	frame.push(newProgramNode(program))
	return &Thread{ID: id, frames: []*CallFrame{frame}}
}

// TopLevelIndex reports the index of the next top-level statement this
// thread would run, and whether the thread is currently sitting at such a
// boundary at all (a single frame whose only node is the program's
// top-level sequence, with no nested expression in progress). The snapshot
// encoder only captures threads at this boundary (see internal/snapshot's
// ThreadRecord doc comment).
func (th *Thread) TopLevelIndex() (index int, atBoundary bool) {
	if len(th.frames) != 1 {
		return 0, false
	}
	frame := th.frames[0]
	if len(frame.stack) != 1 {
		return 0, false
	}
	pn, ok := frame.stack[0].(*programNode)
	if !ok {
		return 0, false
	}
	return pn.seq.index, true
}

// Scope returns the thread's current (topmost frame) scope, for the
// snapshot encoder to walk.
func (th *Thread) Scope() *scope.Scope {
	if f := th.topFrame(); f != nil {
		return f.Scope
	}
	return nil
}

// This returns the thread's current `this` binding.
func (th *Thread) This() values.Value {
	if f := th.topFrame(); f != nil {
		return f.This
	}
	return values.Undefined{}
}

// StackTrace captures the thread's current call frames, oldest first, for
// reporting alongside an uncaught exception. The outermost (top-level
// program) frame is named "<program>"; a called function with no recorded
// name (e.g. restored from a snapshot) is named "<anonymous>".
func (th *Thread) StackTrace() cerrors.StackTrace {
	trace := make(cerrors.StackTrace, 0, len(th.frames))
	for i, f := range th.frames {
		name := f.FuncName
		switch {
		case name != "":
		case i == 0:
			name = "<program>"
		default:
			name = "<anonymous>"
		}
		trace = append(trace, cerrors.NewStackFrame(name, "", nil))
	}
	return trace
}

// NewThreadAt reconstructs a thread positioned at top-level statement index
// idx of program, running in sc — used by the snapshot decoder to restore a
// thread captured at a top-level boundary (spec §4.8).
func NewThreadAt(id uint64, program *ast.Program, sc *scope.Scope, this values.Value, idx int) *Thread {
	frame := newCallFrame(sc, this)
	pn := newProgramNode(program)
	pn.seq.index = idx
	frame.push(pn)
	return &Thread{ID: id, frames: []*CallFrame{frame}}
}

func (th *Thread) topFrame() *CallFrame {
	if len(th.frames) == 0 {
		return nil
	}
	return th.frames[len(th.frames)-1]
}

// pushFrame enters a new call activation, used when a CallExpression state
// node invokes a source-defined function.
func (th *Thread) pushFrame(f *CallFrame) { th.frames = append(th.frames, f) }

// popFrame leaves the current call activation, returning it.
func (th *Thread) popFrame() *CallFrame {
	f := th.frames[len(th.frames)-1]
	th.frames = th.frames[:len(th.frames)-1]
	return f
}

// Step advances the thread by exactly one state-node step. It returns
// false once the thread has nothing left to do (Done is then true).
func (en *Engine) Step(th *Thread) bool {
	if th.Done {
		return false
	}
	frame := th.topFrame()
	if frame == nil {
		th.Done = true
		return false
	}
	node := frame.top()
	if node == nil {
		// Frame's node tree is exhausted with no completion recorded: treat
		// as an implicit `undefined` return and unwind the call frame.
		th.popFrame()
		if len(th.frames) == 0 {
			th.Done = true
			return false
		}
		parent := th.topFrame().top()
		if parent != nil {
			parent.AcceptValue(values.Undefined{})
		}
		return true
	}

	// A node whose completion is already recorded (a loop or switch that
	// absorbed its own break) is finished without being stepped again.
	done := node.Completion() != nil || node.Step(en, th)
	if !done {
		return true
	}

	frame.pop()
	comp := node.Completion()

	if comp != nil && comp.Kind == Return {
		th.popFrame()
		if len(th.frames) == 0 {
			th.Done = true
			th.Result = comp.Value
			return false
		}
		if caller := th.topFrame().top(); caller != nil {
			caller.AcceptValue(comp.Value)
		}
		return true
	}

	if comp != nil && comp.Kind == Throw {
		return en.unwindThrow(th, comp)
	}

	if comp != nil && (comp.Kind == Break || comp.Kind == Continue) {
		return en.propagateBreakContinue(th, frame, comp)
	}

	// Normal completion: deliver the value to whichever node is now on top
	// (the parent that spawned this child), or finish the frame/thread if
	// this was the frame's last node.
	if parent := frame.top(); parent != nil {
		parent.AcceptValue(node.Completion().Value)
		return true
	}
	th.popFrame()
	if len(th.frames) == 0 {
		th.Done = true
		th.Result = values.Undefined{}
		if _, ok := node.(*programNode); ok {
			th.Result = node.Completion().Value
		}
		return false
	}
	if caller := th.topFrame().top(); caller != nil {
		caller.AcceptValue(values.Undefined{})
	}
	return true
}

// propagateBreakContinue hands comp to each node up the frame's stack until
// one consumes it (a matching loop). A break/continue that empties the
// whole frame without being consumed indicates a malformed program (the
// parser should reject break/continue outside a loop) and is dropped.
func (en *Engine) propagateBreakContinue(th *Thread, frame *CallFrame, comp *Completion) bool {
	for {
		parent := frame.top()
		if parent == nil {
			return true
		}
		if parent.AcceptCompletion(comp) {
			return true
		}
		frame.pop()
	}
}

// unwindThrow pops frames/nodes until a TryStatement node (or frame bottom)
// catches comp. If it escapes the thread entirely, the thread finishes with
// Err set (spec §4.6: an uncaught throw terminates the thread, not the
// whole scheduler).
func (en *Engine) unwindThrow(th *Thread, comp *Completion) bool {
	trace := th.StackTrace()
	for {
		frame := th.topFrame()
		if frame == nil {
			th.Done = true
			if s := trace.String(); s != "" {
				th.Err = fmt.Errorf("uncaught: %s\n%s", values.ToString(comp.Value), s)
			} else {
				th.Err = fmt.Errorf("uncaught: %s", values.ToString(comp.Value))
			}
			return false
		}
		if catcher := frame.top(); catcher != nil {
			if tn, ok := catcher.(*tryNode); ok && tn.offerThrow(en, th, comp) {
				return true
			}
		}
		if len(frame.stack) == 0 {
			th.popFrame()
			continue
		}
		frame.pop()
		if len(frame.stack) == 0 {
			th.popFrame()
			continue
		}
	}
}

// baseNode is embedded by every concrete state node to supply the
// AcceptValue/Completion bookkeeping shared across node kinds.
type baseNode struct {
	completion *Completion
}

func (b *baseNode) Completion() *Completion { return b.completion }

// AcceptCompletion's default is "not mine" — pass through. Loop nodes and
// labeled-statement nodes override this to absorb matching break/continue.
func (b *baseNode) AcceptCompletion(c *Completion) bool { return false }

func (b *baseNode) finishValue(v values.Value) {
	b.completion = &Completion{Kind: Normal, Value: v}
}

func (b *baseNode) finishAbrupt(c *Completion) {
	b.completion = c
}
