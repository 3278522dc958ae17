package parser

import (
	"testing"

	"github.com/cwbudde/codecity/internal/ast"
)

func parseSingleExpr(t *testing.T, source string) ast.Expression {
	t.Helper()
	prog, errs := ParseProgram(source)
	if len(errs) != 0 {
		t.Fatalf("ParseProgram(%q) failed: %v", source, errs)
	}
	if len(prog.Body) != 1 {
		t.Fatalf("ParseProgram(%q) produced %d statements, want 1", source, len(prog.Body))
	}
	stmt, ok := prog.Body[0].(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("ParseProgram(%q) top statement = %T, want *ast.ExpressionStatement", source, prog.Body[0])
	}
	return stmt.Expression
}

func TestLiteralExpressions(t *testing.T) {
	num := parseSingleExpr(t, `42;`).(*ast.Literal)
	if num.Kind != ast.LiteralNumber || num.Num != 42 {
		t.Errorf("42 -> %+v, want LiteralNumber 42", num)
	}

	str := parseSingleExpr(t, `"hi";`).(*ast.Literal)
	if str.Kind != ast.LiteralString || str.Str != "hi" {
		t.Errorf("\"hi\" -> %+v, want LiteralString \"hi\"", str)
	}

	b := parseSingleExpr(t, `true;`).(*ast.Literal)
	if b.Kind != ast.LiteralBoolean || !b.Bool {
		t.Errorf("true -> %+v, want LiteralBoolean true", b)
	}

	n := parseSingleExpr(t, `null;`).(*ast.Literal)
	if n.Kind != ast.LiteralNull {
		t.Errorf("null -> %+v, want LiteralNull", n)
	}

	u := parseSingleExpr(t, `undefined;`).(*ast.Literal)
	if u.Kind != ast.LiteralUndefined {
		t.Errorf("undefined -> %+v, want LiteralUndefined", u)
	}
}

func TestIdentifierAndThisExpressions(t *testing.T) {
	id := parseSingleExpr(t, `foo;`).(*ast.Identifier)
	if id.Name != "foo" {
		t.Errorf("Name = %q, want foo", id.Name)
	}
	if _, ok := parseSingleExpr(t, `this;`).(*ast.ThisExpression); !ok {
		t.Error("expected a ThisExpression")
	}
}

// TestBinaryOperatorPrecedence confirms the classic arithmetic precedence
// climb: `*`/`/` bind tighter than `+`/`-`.
func TestBinaryOperatorPrecedence(t *testing.T) {
	expr := parseSingleExpr(t, `1 + 2 * 3;`)
	add, ok := expr.(*ast.BinaryExpression)
	if !ok || add.Operator != "+" {
		t.Fatalf("top = %+v, want BinaryExpression(+)", expr)
	}
	left, ok := add.Left.(*ast.Literal)
	if !ok || left.Num != 1 {
		t.Errorf("left = %+v, want Literal 1", add.Left)
	}
	right, ok := add.Right.(*ast.BinaryExpression)
	if !ok || right.Operator != "*" {
		t.Fatalf("right = %+v, want BinaryExpression(*)", add.Right)
	}
}

func TestParenthesesOverridePrecedence(t *testing.T) {
	expr := parseSingleExpr(t, `(1 + 2) * 3;`)
	mul, ok := expr.(*ast.BinaryExpression)
	if !ok || mul.Operator != "*" {
		t.Fatalf("top = %+v, want BinaryExpression(*)", expr)
	}
	if _, ok := mul.Left.(*ast.BinaryExpression); !ok {
		t.Errorf("left = %+v, want a parenthesized BinaryExpression(+)", mul.Left)
	}
}

func TestComparisonAndEqualityOperators(t *testing.T) {
	for _, op := range []string{"==", "===", "!=", "!==", "<", ">", "<=", ">="} {
		expr := parseSingleExpr(t, "1 "+op+" 2;")
		bin, ok := expr.(*ast.BinaryExpression)
		if !ok || bin.Operator != op {
			t.Errorf("operator %q -> %+v, want BinaryExpression(%q)", op, expr, op)
		}
	}
}

func TestLogicalOperatorsAreDistinctFromBinary(t *testing.T) {
	and := parseSingleExpr(t, `a && b;`)
	if l, ok := and.(*ast.LogicalExpression); !ok || l.Operator != "&&" {
		t.Errorf("&& -> %+v, want LogicalExpression(&&)", and)
	}
	or := parseSingleExpr(t, `a || b;`)
	if l, ok := or.(*ast.LogicalExpression); !ok || l.Operator != "||" {
		t.Errorf("|| -> %+v, want LogicalExpression(||)", or)
	}
}

func TestLogicalBindsLooserThanEquality(t *testing.T) {
	expr := parseSingleExpr(t, `a == 1 && b == 2;`)
	and, ok := expr.(*ast.LogicalExpression)
	if !ok || and.Operator != "&&" {
		t.Fatalf("top = %+v, want LogicalExpression(&&)", expr)
	}
	if _, ok := and.Left.(*ast.BinaryExpression); !ok {
		t.Errorf("left = %+v, want BinaryExpression(==)", and.Left)
	}
}

func TestAssignmentIsRightAssociative(t *testing.T) {
	expr := parseSingleExpr(t, `a = b = 1;`)
	outer, ok := expr.(*ast.AssignmentExpression)
	if !ok {
		t.Fatalf("top = %+v, want AssignmentExpression", expr)
	}
	if id, ok := outer.Target.(*ast.Identifier); !ok || id.Name != "a" {
		t.Errorf("outer target = %+v, want identifier a", outer.Target)
	}
	inner, ok := outer.Value.(*ast.AssignmentExpression)
	if !ok {
		t.Fatalf("outer value = %+v, want nested AssignmentExpression", outer.Value)
	}
	if id, ok := inner.Target.(*ast.Identifier); !ok || id.Name != "b" {
		t.Errorf("inner target = %+v, want identifier b", inner.Target)
	}
}

func TestCompoundAssignmentOperators(t *testing.T) {
	for _, op := range []string{"+=", "-=", "*=", "/="} {
		expr := parseSingleExpr(t, "a "+op+" 1;")
		asn, ok := expr.(*ast.AssignmentExpression)
		if !ok || asn.Operator != op {
			t.Errorf("operator %q -> %+v, want AssignmentExpression(%q)", op, expr, op)
		}
	}
}

func TestUnaryExpressions(t *testing.T) {
	neg := parseSingleExpr(t, `-x;`).(*ast.UnaryExpression)
	if neg.Operator != "-" {
		t.Errorf("Operator = %q, want -", neg.Operator)
	}
	not := parseSingleExpr(t, `!x;`).(*ast.UnaryExpression)
	if not.Operator != "!" {
		t.Errorf("Operator = %q, want !", not.Operator)
	}
	typeOf := parseSingleExpr(t, `typeof x;`).(*ast.UnaryExpression)
	if typeOf.Operator != "typeof" {
		t.Errorf("Operator = %q, want typeof", typeOf.Operator)
	}
}

func TestUpdateExpressionsPrefixAndPostfix(t *testing.T) {
	pre := parseSingleExpr(t, `++x;`).(*ast.UpdateExpression)
	if !pre.Prefix || pre.Operator != "++" {
		t.Errorf("prefix ++x -> %+v, want Prefix=true Operator=++", pre)
	}
	post := parseSingleExpr(t, `x++;`).(*ast.UpdateExpression)
	if post.Prefix || post.Operator != "++" {
		t.Errorf("postfix x++ -> %+v, want Prefix=false Operator=++", post)
	}
}

func TestConditionalExpression(t *testing.T) {
	expr := parseSingleExpr(t, `a ? b : c;`).(*ast.ConditionalExpression)
	if _, ok := expr.Test.(*ast.Identifier); !ok {
		t.Errorf("Test = %+v, want Identifier", expr.Test)
	}
	if id, ok := expr.Consequent.(*ast.Identifier); !ok || id.Name != "b" {
		t.Errorf("Consequent = %+v, want identifier b", expr.Consequent)
	}
	if id, ok := expr.Alternate.(*ast.Identifier); !ok || id.Name != "c" {
		t.Errorf("Alternate = %+v, want identifier c", expr.Alternate)
	}
}

func TestSequenceExpressionInsideParens(t *testing.T) {
	expr := parseSingleExpr(t, `(a, b);`).(*ast.SequenceExpression)
	if len(expr.Expressions) != 2 {
		t.Fatalf("Expressions = %v, want 2 entries", expr.Expressions)
	}
	if id, ok := expr.Expressions[0].(*ast.Identifier); !ok || id.Name != "a" {
		t.Errorf("Expressions[0] = %+v, want identifier a", expr.Expressions[0])
	}
	if id, ok := expr.Expressions[1].(*ast.Identifier); !ok || id.Name != "b" {
		t.Errorf("Expressions[1] = %+v, want identifier b", expr.Expressions[1])
	}
}

// TestSequenceExpressionThreeTermsNestsLeftAssociatively documents that a
// third comma-separated term wraps the prior pair as its own nested
// SequenceExpression rather than flattening into one three-element list;
// the step engine's sequenceNode still evaluates the nested shape in the
// same left-to-right order.
func TestSequenceExpressionThreeTermsNestsLeftAssociatively(t *testing.T) {
	expr := parseSingleExpr(t, `(a, b, c);`).(*ast.SequenceExpression)
	if len(expr.Expressions) != 2 {
		t.Fatalf("Expressions = %v, want 2 entries (the nested pair, then c)", expr.Expressions)
	}
	inner, ok := expr.Expressions[0].(*ast.SequenceExpression)
	if !ok || len(inner.Expressions) != 2 {
		t.Fatalf("Expressions[0] = %+v, want a nested 2-element SequenceExpression", expr.Expressions[0])
	}
	if id, ok := expr.Expressions[1].(*ast.Identifier); !ok || id.Name != "c" {
		t.Errorf("Expressions[1] = %+v, want identifier c", expr.Expressions[1])
	}
}

func TestMemberExpressionDotAndComputed(t *testing.T) {
	dot := parseSingleExpr(t, `a.b;`).(*ast.MemberExpression)
	if dot.Computed {
		t.Error("a.b should not be Computed")
	}
	prop, ok := dot.Property.(*ast.Identifier)
	if !ok || prop.Name != "b" {
		t.Errorf("Property = %+v, want identifier b", dot.Property)
	}

	idx := parseSingleExpr(t, `a[0];`).(*ast.MemberExpression)
	if !idx.Computed {
		t.Error("a[0] should be Computed")
	}
}

func TestChainedMemberAndCallExpressions(t *testing.T) {
	expr := parseSingleExpr(t, `a.b.c();`)
	call, ok := expr.(*ast.CallExpression)
	if !ok {
		t.Fatalf("top = %+v, want CallExpression", expr)
	}
	member, ok := call.Callee.(*ast.MemberExpression)
	if !ok {
		t.Fatalf("Callee = %+v, want MemberExpression", call.Callee)
	}
	if prop, ok := member.Property.(*ast.Identifier); !ok || prop.Name != "c" {
		t.Errorf("Property = %+v, want identifier c", member.Property)
	}
}

func TestCallExpressionArguments(t *testing.T) {
	call := parseSingleExpr(t, `f(1, 2, 3);`).(*ast.CallExpression)
	if len(call.Arguments) != 3 {
		t.Fatalf("Arguments = %v, want 3 entries", call.Arguments)
	}
}

func TestNewExpressionStopsBeforeArgumentsUnlessCalleeAlreadyParsedThem(t *testing.T) {
	n := parseSingleExpr(t, `new Foo(1, 2);`).(*ast.NewExpression)
	callee, ok := n.Callee.(*ast.Identifier)
	if !ok || callee.Name != "Foo" {
		t.Errorf("Callee = %+v, want identifier Foo", n.Callee)
	}
	if len(n.Arguments) != 2 {
		t.Fatalf("Arguments = %v, want 2 entries", n.Arguments)
	}
}

func TestNewExpressionWithoutArgumentsHasEmptyArgList(t *testing.T) {
	n := parseSingleExpr(t, `new Foo;`).(*ast.NewExpression)
	if len(n.Arguments) != 0 {
		t.Errorf("Arguments = %v, want none", n.Arguments)
	}
}

func TestArrayLiteralElisionAndElements(t *testing.T) {
	arr := parseSingleExpr(t, `[1, , 3];`).(*ast.ArrayExpression)
	if len(arr.Elements) != 3 {
		t.Fatalf("Elements = %v, want 3 entries", arr.Elements)
	}
	if arr.Elements[1] != nil {
		t.Errorf("Elements[1] = %v, want nil (elision)", arr.Elements[1])
	}
}

func TestEmptyArrayLiteral(t *testing.T) {
	arr := parseSingleExpr(t, `[];`).(*ast.ArrayExpression)
	if len(arr.Elements) != 0 {
		t.Errorf("Elements = %v, want none", arr.Elements)
	}
}

func TestObjectLiteralKeysAndComputedKeys(t *testing.T) {
	obj := parseSingleExpr(t, `({a: 1, "b": 2, [c]: 3});`).(*ast.ObjectExpression)
	if len(obj.Properties) != 3 {
		t.Fatalf("Properties = %v, want 3 entries", obj.Properties)
	}
	if id, ok := obj.Properties[0].Key.(*ast.Identifier); !ok || id.Name != "a" {
		t.Errorf("Properties[0].Key = %+v, want identifier a", obj.Properties[0].Key)
	}
	if lit, ok := obj.Properties[1].Key.(*ast.Literal); !ok || lit.Str != "b" {
		t.Errorf("Properties[1].Key = %+v, want string literal b", obj.Properties[1].Key)
	}
	if !obj.Properties[2].Computed {
		t.Error("Properties[2] should be Computed")
	}
}

func TestEmptyObjectLiteral(t *testing.T) {
	obj := parseSingleExpr(t, `({});`).(*ast.ObjectExpression)
	if len(obj.Properties) != 0 {
		t.Errorf("Properties = %v, want none", obj.Properties)
	}
}

func TestFunctionExpressionNamedAndAnonymous(t *testing.T) {
	anon := parseSingleExpr(t, `(function(a, b) { return a; });`).(*ast.FunctionExpression)
	if anon.Name != nil {
		t.Errorf("Name = %+v, want nil", anon.Name)
	}
	if len(anon.Params) != 2 {
		t.Fatalf("Params = %v, want 2 entries", anon.Params)
	}

	named := parseSingleExpr(t, `(function fact(n) { return n; });`).(*ast.FunctionExpression)
	if named.Name == nil || named.Name.Name != "fact" {
		t.Errorf("Name = %+v, want identifier fact", named.Name)
	}
}
