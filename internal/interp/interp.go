// Package interp is the wiring façade spec §4.9 describes as "the world
// process": it owns one heap, one native table, one engine, one scheduler,
// and the host collaborators, and exposes the operations a hosting process
// (the CLI, or eventually a MUD/MOO driver loop) needs — load a program,
// spawn a thread, advance the scheduler, and snapshot/restore the whole
// thing.
//
// Grounded in the teacher's Interpreter façade (internal/interp.New(output
// io.Writer) *Interpreter bundling env/classes/functions/output into one
// constructible unit); here the façade bundles C1-C9's collaborators
// instead of DWScript's environment/class-table pair.
package interp

import (
	"fmt"

	"github.com/cwbudde/codecity/internal/ast"
	"github.com/cwbudde/codecity/internal/builtins"
	"github.com/cwbudde/codecity/internal/engine"
	"github.com/cwbudde/codecity/internal/errors"
	"github.com/cwbudde/codecity/internal/heap"
	"github.com/cwbudde/codecity/internal/host"
	"github.com/cwbudde/codecity/internal/natives"
	"github.com/cwbudde/codecity/internal/parser"
	"github.com/cwbudde/codecity/internal/scheduler"
	"github.com/cwbudde/codecity/internal/scope"
	"github.com/cwbudde/codecity/internal/snapshot"
)

// World bundles every collaborator a running program needs: the pseudo-heap
// and name registry (C2), the native-function table (C3), the step engine
// over the global scope (C1/C4/C5), the cooperative scheduler (C6), and the
// host boundary (C9).
type World struct {
	Heap      *heap.Heap
	Natives   *natives.Table
	Engine    *engine.Engine
	Scheduler *scheduler.Scheduler
	Clock     host.Clock
	IO        *host.IOSource

	program      *ast.Program
	source       string
	nextThreadID uint64
}

// Option configures a World at construction time.
type Option func(*World)

// WithSink overrides the default discard sink with one that writes
// `print`-style native output somewhere the host can observe it.
func WithSink(sink host.Sink) Option {
	return func(w *World) { w.Engine.SetSink(sink) }
}

// WithClock overrides the default SystemClock, e.g. with a fake clock in
// tests.
func WithClock(c host.Clock) Option {
	return func(w *World) { w.Clock = c }
}

// WithStepBudget overrides the scheduler's default per-thread step budget.
func WithStepBudget(budget int) Option {
	return func(w *World) { w.Scheduler = scheduler.New(w.Engine, budget) }
}

// New creates a world with the standard built-in surface (Math, Object,
// JSON, Array.prototype, print/console) already installed, and a
// scheduler with the default step budget.
func New(opts ...Option) *World {
	h := heap.New()
	nt := natives.NewTable()
	en := engine.New(h, nt)
	builtins.Install(en)
	w := &World{
		Heap:      h,
		Natives:   nt,
		Engine:    en,
		Scheduler: scheduler.New(en, 0),
		Clock:     host.SystemClock{},
		IO:        host.NewIOSource(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// LoadProgram parses source into the world's current program, replacing
// whatever program (if any) was loaded before. Threads spawned after this
// call run against the new program; threads already running continue
// against whichever program they were spawned from (their *ast.Program
// pointer, captured at spawn time, is unaffected by a later LoadProgram).
func (w *World) LoadProgram(source string) (*ast.Program, error) {
	prog, perrs := parser.ParseProgram(source)
	if len(perrs) > 0 {
		return nil, formatParseErrors(perrs, source)
	}
	w.program = prog
	w.source = source
	return prog, nil
}

func formatParseErrors(perrs []*parser.ParseError, source string) error {
	if len(perrs) == 1 {
		return errors.NewCompilerError(perrs[0].Pos, perrs[0].Message, source, "")
	}
	msgs := make([]*errors.CompilerError, 0, len(perrs))
	for _, pe := range perrs {
		msgs = append(msgs, errors.NewCompilerError(pe.Pos, pe.Message, source, ""))
	}
	return fmt.Errorf("%s", errors.FormatErrors(msgs, false))
}

// Spawn starts a new thread executing the currently loaded program from its
// first statement, in a fresh scope chained off the engine's global scope.
func (w *World) Spawn() (*scheduler.ThreadEntry, error) {
	if w.program == nil {
		return nil, fmt.Errorf("interp: no program loaded")
	}
	w.nextThreadID++
	sc := scope.New(w.Engine.Global)
	th := engine.NewThread(w.nextThreadID, w.program, sc)
	return w.Scheduler.Spawn(th), nil
}

// Tick advances the scheduler by one round; see scheduler.Scheduler.Tick.
func (w *World) Tick() int { return w.Scheduler.Tick() }

// Kill terminates a thread without running its pending finally blocks
// (spec §9's kill-policy decision).
func (w *World) Kill(threadID uint64) { w.Scheduler.Kill(threadID) }

// Snapshot serializes the world's heap, registry, and scheduled threads to
// the record-array format (spec §4.7). Threads mid-expression are silently
// excluded from the thread list (see snapshot.ThreadRecord's doc comment);
// everything else is captured.
func (w *World) Snapshot() ([]byte, error) {
	return snapshot.Encode(w.Heap, w.Scheduler)
}

// Restore decodes data into the world's heap and re-enrolls its threads in
// the scheduler, against the program the caller has already loaded via
// LoadProgram (spec §4.8's decode precondition: same source, loaded
// first). Restore is all-or-nothing: on error, the world's existing heap
// and scheduler are left completely untouched.
func (w *World) Restore(data []byte) error {
	if w.program == nil {
		return fmt.Errorf("interp: Restore requires a program to already be loaded")
	}
	resolver := buildFuncResolver(w.program)
	fresh := heap.New()
	result, err := snapshot.Decode(data, fresh, w.Natives, resolver)
	if err != nil {
		return err
	}
	freshScheduler := scheduler.New(w.Engine, w.Scheduler.StepBudget)
	freshScheduler.SetNow(result.Now)
	var maxID uint64
	for _, rt := range result.Threads {
		th := engine.NewThreadAt(rt.ID, w.program, rt.Scope, rt.This, rt.Position)
		entry := &scheduler.ThreadEntry{Thread: th, WakeAt: rt.WakeAt}
		switch rt.Status {
		case "sleeping":
			entry.Status = scheduler.Sleeping
		case "blocked":
			entry.Status = scheduler.Blocked
		default:
			entry.Status = scheduler.Runnable
		}
		freshScheduler.Reinstall(entry)
		if rt.ID > maxID {
			maxID = rt.ID
		}
	}
	w.Heap = fresh
	w.Engine.Heap = fresh
	w.Scheduler = freshScheduler
	if maxID > w.nextThreadID {
		w.nextThreadID = maxID
	}
	return nil
}

// buildFuncResolver walks program once and indexes every function
// declaration/expression body by its source byte offset, so the snapshot
// decoder can relink a restored closure's Params/Body against the freshly
// parsed program (spec §4.8) instead of trying to serialize an AST.
func buildFuncResolver(program *ast.Program) snapshot.FuncResolver {
	sites := make(map[int]snapshot.FuncSite)
	var walkStmt func(ast.Statement)
	var walkExpr func(ast.Expression)

	record := func(body *ast.BlockStatement, params []*ast.Identifier) {
		if body == nil {
			return
		}
		sites[body.Pos().Offset] = snapshot.FuncSite{Params: params, Body: body}
	}

	walkExpr = func(e ast.Expression) {
		if e == nil {
			return
		}
		switch n := e.(type) {
		case *ast.FunctionExpression:
			record(n.Body, n.Params)
			walkStmtList(n.Body.Body, walkStmt)
		case *ast.ArrayExpression:
			for _, el := range n.Elements {
				walkExpr(el)
			}
		case *ast.ObjectExpression:
			for _, p := range n.Properties {
				walkExpr(p.Value)
			}
		case *ast.MemberExpression:
			walkExpr(n.Object)
			if n.Computed {
				walkExpr(n.Property)
			}
		case *ast.CallExpression:
			walkExpr(n.Callee)
			for _, a := range n.Arguments {
				walkExpr(a)
			}
		case *ast.NewExpression:
			walkExpr(n.Callee)
			for _, a := range n.Arguments {
				walkExpr(a)
			}
		case *ast.AssignmentExpression:
			walkExpr(n.Target)
			walkExpr(n.Value)
		case *ast.BinaryExpression:
			walkExpr(n.Left)
			walkExpr(n.Right)
		case *ast.LogicalExpression:
			walkExpr(n.Left)
			walkExpr(n.Right)
		case *ast.UnaryExpression:
			walkExpr(n.Argument)
		case *ast.UpdateExpression:
			walkExpr(n.Argument)
		case *ast.ConditionalExpression:
			walkExpr(n.Test)
			walkExpr(n.Consequent)
			walkExpr(n.Alternate)
		case *ast.SequenceExpression:
			for _, e2 := range n.Expressions {
				walkExpr(e2)
			}
		}
	}

	walkStmt = func(s ast.Statement) {
		if s == nil {
			return
		}
		switch n := s.(type) {
		case *ast.BlockStatement:
			walkStmtList(n.Body, walkStmt)
		case *ast.ExpressionStatement:
			walkExpr(n.Expression)
		case *ast.VariableDeclaration:
			for _, d := range n.Declarations {
				walkExpr(d.Init)
			}
		case *ast.FunctionDeclaration:
			record(n.Body, n.Params)
			walkStmtList(n.Body.Body, walkStmt)
		case *ast.IfStatement:
			walkExpr(n.Test)
			walkStmt(n.Consequent)
			walkStmt(n.Alternate)
		case *ast.WhileStatement:
			walkExpr(n.Test)
			walkStmt(n.Body)
		case *ast.DoWhileStatement:
			walkStmt(n.Body)
			walkExpr(n.Test)
		case *ast.ForStatement:
			if decl, ok := n.Init.(*ast.VariableDeclaration); ok {
				walkStmt(decl)
			} else if expr, ok := n.Init.(ast.Expression); ok {
				walkExpr(expr)
			}
			walkExpr(n.Test)
			walkExpr(n.Update)
			walkStmt(n.Body)
		case *ast.ForInStatement:
			walkExpr(n.Right)
			walkStmt(n.Body)
		case *ast.ReturnStatement:
			walkExpr(n.Argument)
		case *ast.ThrowStatement:
			walkExpr(n.Argument)
		case *ast.TryStatement:
			walkStmtList(n.Block.Body, walkStmt)
			if n.Handler != nil {
				walkStmtList(n.Handler.Body.Body, walkStmt)
			}
			if n.Finalizer != nil {
				walkStmtList(n.Finalizer.Body, walkStmt)
			}
		case *ast.SwitchStatement:
			walkExpr(n.Discriminant)
			for _, c := range n.Cases {
				walkExpr(c.Test)
				walkStmtList(c.Consequent, walkStmt)
			}
		case *ast.LabeledStatement:
			walkStmt(n.Body)
		}
	}

	walkStmtList(program.Body, walkStmt)
	return func(offset int) (snapshot.FuncSite, bool) {
		site, ok := sites[offset]
		return site, ok
	}
}

func walkStmtList(body []ast.Statement, walk func(ast.Statement)) {
	for _, s := range body {
		walk(s)
	}
}
