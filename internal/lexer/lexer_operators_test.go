package lexer

import "testing"

func TestOperatorsPreferLongestMatch(t *testing.T) {
	input := `+ ++ += - -- -= * *= / /= % = == === ! != !== < <= > >= && ||  => ( ) [ ] { } ; , . : ?`

	tests := []struct {
		expectedLiteral string
		expectedType    TokenType
	}{
		{"+", PLUS},
		{"++", INC},
		{"+=", PLUS_ASSIGN},
		{"-", MINUS},
		{"--", DEC},
		{"-=", MINUS_ASSIGN},
		{"*", STAR},
		{"*=", TIMES_ASSIGN},
		{"/", SLASH},
		{"/=", DIVIDE_ASSIGN},
		{"%", PERCENT},
		{"=", ASSIGN},
		{"==", EQ_EQ},
		{"===", EQ_EQ_EQ},
		{"!", BANG},
		{"!=", NOT_EQ},
		{"!==", NOT_EQ_EQ},
		{"<", LESS},
		{"<=", LESS_EQ},
		{">", GREATER},
		{">=", GREATER_EQ},
		{"&&", AMP_AMP},
		{"||", PIPE_PIPE},
		{"=>", ARROW},
		{"(", LPAREN},
		{")", RPAREN},
		{"[", LBRACK},
		{"]", RBRACK},
		{"{", LBRACE},
		{"}", RBRACE},
		{";", SEMICOLON},
		{",", COMMA},
		{".", DOT},
		{":", COLON},
		{"?", QUESTION},
		{"", EOF},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q (literal=%q)",
				i, tt.expectedType, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestBareAmpersandAndPipeAreIllegal(t *testing.T) {
	// A single & or | has no meaning in this surface (no bitwise operators),
	// so the lexer reports ILLEGAL rather than silently accepting it.
	for _, tt := range []struct {
		input string
		want  TokenType
	}{
		{"&", ILLEGAL},
		{"|", ILLEGAL},
	} {
		l := New(tt.input)
		tok := l.NextToken()
		if tok.Type != tt.want {
			t.Errorf("NextToken(%q) = %v, want %v", tt.input, tok.Type, tt.want)
		}
	}
}

func TestMinusDoesNotGreedilyConsumeUnrelatedMinus(t *testing.T) {
	// "- -" (two separate tokens) must not be confused with "--".
	l := New("- -")
	first := l.NextToken()
	second := l.NextToken()
	if first.Type != MINUS || second.Type != MINUS {
		t.Fatalf("got %v %v, want MINUS MINUS", first.Type, second.Type)
	}
}
