package lexer

import "testing"

func tokenKinds(t *testing.T, src string) []Kind {
	t.Helper()
	toks, err := New(src).Tokenize()
	if err != nil {
		t.Fatalf("tokenize %q: %v", src, err)
	}
	kinds := make([]Kind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
	}
	return kinds
}

func TestTokenizeAssignment(t *testing.T) {
	toks, err := New("global x = 10").Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Kind{Keyword, Ident, Op, IntLit, EOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Kind, k)
		}
	}
	if toks[3].IntVal != 10 {
		t.Errorf("literal value: got %d, want 10", toks[3].IntVal)
	}
}

func TestTokenizeString(t *testing.T) {
	toks, err := New(`'hello\n\'world\''`).Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Kind != StringLit {
		t.Fatalf("got %s, want StringLit", toks[0].Kind)
	}
	want := "hello\n'world'"
	if toks[0].Lexeme != want {
		t.Errorf("got %q, want %q", toks[0].Lexeme, want)
	}
}

func TestTokenizeRejectsNewlineInString(t *testing.T) {
	_, err := New("'abc\ndef'").Tokenize()
	if err == nil {
		t.Fatal("expected syntax error for newline in string literal")
	}
}

func TestTokenizeComparisonOperators(t *testing.T) {
	toks, err := New("a <= b and c != d").Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var ops []string
	for _, tok := range toks {
		if tok.Kind == Op {
			ops = append(ops, tok.Lexeme)
		}
	}
	want := []string{"<=", "!="}
	if len(ops) != len(want) {
		t.Fatalf("got ops %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("op %d: got %s, want %s", i, ops[i], want[i])
		}
	}
}

func TestTokenizeFloat(t *testing.T) {
	toks, err := New("3.14").Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Kind != RealLit || toks[0].RealVal != 3.14 {
		t.Errorf("got %v, want RealLit(3.14)", toks[0])
	}
}

func TestTokenizeComment(t *testing.T) {
	kinds := tokenKinds(t, "x = 1 # comment here\ny = 2")
	// comments are discarded entirely (spec §4.1); only the real tokens
	// plus the newline between statements should remain.
	foundNewline := false
	for _, k := range kinds {
		if k == Newline {
			foundNewline = true
		}
	}
	if !foundNewline {
		t.Errorf("expected a Newline token, got %v", kinds)
	}
}
