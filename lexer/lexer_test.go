package lexer

import "testing"

func tokens(t *testing.T, src string) []Token {
	t.Helper()
	l := New("test.proto", src)
	var out []Token
	for {
		tok, err := l.Next()
		if err != nil {
			t.Fatalf("unexpected lex error: %v", err)
		}
		out = append(out, tok)
		if tok.Kind == EOF {
			return out
		}
	}
}

func TestLexer_Idents(t *testing.T) {
	toks := tokens(t, `message Foo { string bar = 1; }`)
	want := []string{"message", "Foo", "{", "string", "bar", "=", "1", ";", "}"}
	var got []string
	for _, tok := range toks {
		if tok.Kind == EOF {
			break
		}
		got = append(got, tok.Text)
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLexer_Comments(t *testing.T) {
	toks := tokens(t, "// line comment\nmessage /* inline */ Foo {}")
	var idents []string
	for _, tok := range toks {
		if tok.Kind == Ident {
			idents = append(idents, tok.Text)
		}
	}
	if len(idents) != 2 || idents[0] != "message" || idents[1] != "Foo" {
		t.Fatalf("idents = %v", idents)
	}
}

func TestLexer_StringLiteral(t *testing.T) {
	toks := tokens(t, `"proto3"`)
	if toks[0].Kind != String || toks[0].Text != "proto3" {
		t.Fatalf("got %+v", toks[0])
	}
}

func TestLexer_Numbers(t *testing.T) {
	toks := tokens(t, `1 -1 3.14 0x1F 010`)
	if toks[0].Kind != Int || toks[0].Int != 1 {
		t.Fatalf("got %+v", toks[0])
	}
	if toks[1].Text != "-" {
		t.Fatalf("expected separate minus symbol, got %+v", toks[1])
	}
	if toks[3].Kind != Float || toks[3].Flt != 3.14 {
		t.Fatalf("got %+v", toks[3])
	}
	if toks[4].Kind != Int || toks[4].Int != 0x1F {
		t.Fatalf("got %+v", toks[4])
	}
	if toks[5].Kind != Int || toks[5].Int != 8 { // octal 010 == 8
		t.Fatalf("got %+v", toks[5])
	}
}

func TestLexer_Bool(t *testing.T) {
	toks := tokens(t, `true false`)
	if !toks[0].Bool || toks[1].Bool {
		t.Fatalf("got %+v %+v", toks[0], toks[1])
	}
}

func TestLexer_UnterminatedString(t *testing.T) {
	l := New("test.proto", `"abc`)
	_, err := l.Next()
	if err == nil {
		t.Fatal("expected lex error")
	}
}
