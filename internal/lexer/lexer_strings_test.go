package lexer

import "testing"

func TestStringLiteralsBothQuoteStyles(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"hello"`, "hello"},
		{`'hello'`, "hello"},
		{`""`, ""},
		{`"it's fine"`, "it's fine"},
		{`'she said "hi"'`, `she said "hi"`},
	}
	for _, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken()
		if tok.Type != STRING {
			t.Fatalf("NextToken(%q).Type = %v, want STRING", tt.input, tok.Type)
		}
		if tok.Literal != tt.want {
			t.Errorf("NextToken(%q).Literal = %q, want %q", tt.input, tok.Literal, tt.want)
		}
	}
}

func TestStringEscapeSequences(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"a\nb"`, "a\nb"},
		{`"a\tb"`, "a\tb"},
		{`"a\rb"`, "a\rb"},
		{`"a\\b"`, `a\b`},
		{`"a\"b"`, `a"b`},
		{`'a\'b'`, "a'b"},
		{`"a\zb"`, "azb"}, // an unrecognized escape passes the char through
	}
	for _, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken()
		if tok.Type != STRING {
			t.Fatalf("NextToken(%q).Type = %v, want STRING", tt.input, tok.Type)
		}
		if tok.Literal != tt.want {
			t.Errorf("NextToken(%q).Literal = %q, want %q", tt.input, tok.Literal, tt.want)
		}
	}
}

func TestUnterminatedStringRecordsAnError(t *testing.T) {
	l := New(`"never closed`)
	tok := l.NextToken()
	if tok.Type != STRING {
		t.Fatalf("Type = %v, want STRING (best-effort literal)", tok.Type)
	}
	if len(l.Errors()) != 1 {
		t.Fatalf("Errors() = %v, want exactly one unterminated-string error", l.Errors())
	}
}

func TestUnterminatedStringStopsAtNewline(t *testing.T) {
	l := New("\"abc\ndef\"")
	tok := l.NextToken()
	if tok.Type != STRING || tok.Literal != "abc" {
		t.Fatalf("got %v %q, want STRING \"abc\"", tok.Type, tok.Literal)
	}
	if len(l.Errors()) != 1 {
		t.Errorf("Errors() = %v, want exactly one unterminated-string error", l.Errors())
	}
}
