package decode

import (
	"bytes"
	"testing"

	"github.com/axonops/protolens/compiler"
)

func TestDecode_Scenario1_SimpleString(t *testing.T) {
	ctx, err := compiler.Compile([]string{`
syntax = "proto3";
message R { string kind = 1; }
`}, compiler.Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	r, _ := ctx.Message(".R")
	b := []byte{0x0a, 0x05, 'P', 'e', 'r', 'c', 'h'}
	mv := DecodeMessage(r, ctx, b, Options{})

	if len(mv.Fields) != 1 {
		t.Fatalf("fields = %+v", mv.Fields)
	}
	s, ok := mv.Fields[0].Value.String()
	if !ok || s != "Perch" || mv.Fields[0].Number != 1 {
		t.Fatalf("field = %+v", mv.Fields[0])
	}
	if len(mv.Garbage) != 0 {
		t.Fatalf("garbage = %v", mv.Garbage)
	}
}

func TestDecode_Scenario2_Int32Distance(t *testing.T) {
	ctx, err := compiler.Compile([]string{`
syntax = "proto3";
message R { int32 distance = 1; }
`}, compiler.Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	r, _ := ctx.Message(".R")
	b := []byte{0x08, 0xa9, 0x46}
	mv := DecodeMessage(r, ctx, b, Options{})

	if len(mv.Fields) != 1 {
		t.Fatalf("fields = %+v", mv.Fields)
	}
	v, ok := mv.Fields[0].Value.Int32()
	if !ok || v != 9001 {
		t.Fatalf("value = %v, %v, want 9001", v, ok)
	}
}

func TestDecode_Scenario3_UnknownTrailingField(t *testing.T) {
	ctx, err := compiler.Compile([]string{`
syntax = "proto3";
message R { int32 d = 1; }
`}, compiler.Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	r, _ := ctx.Message(".R")
	b := []byte{0x08, 0xa9, 0x46, 0x10, 0x07}
	mv := DecodeMessage(r, ctx, b, Options{})

	if len(mv.Fields) != 2 {
		t.Fatalf("fields = %+v", mv.Fields)
	}
	v, ok := mv.Fields[0].Value.Int32()
	if !ok || v != 9001 {
		t.Fatalf("field 1 = %+v", mv.Fields[0])
	}
	u, ok := mv.Fields[1].Value.Unknown()
	if !ok || u.Number != 2 || len(u.RawBytes) != 1 || u.RawBytes[0] != 0x07 {
		t.Fatalf("field 2 = %+v", mv.Fields[1])
	}
}

func TestDecode_Scenario4_WireTypeMismatchIsIncomplete(t *testing.T) {
	ctx, err := compiler.Compile([]string{`
syntax = "proto3";
message R { string s = 1; }
`}, compiler.Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	r, _ := ctx.Message(".R")
	b := []byte{0x0d, 0x00, 0x00, 0x80, 0x3f} // wire-type I32 (fixed32), field declared string
	mv := DecodeMessage(r, ctx, b, Options{})

	if len(mv.Fields) != 1 {
		t.Fatalf("fields = %+v", mv.Fields)
	}
	expected, raw, ok := mv.Fields[0].Value.Incomplete()
	if !ok || expected != KindString || !bytes.Equal(raw, []byte{0x00, 0x00, 0x80, 0x3f}) {
		t.Fatalf("field = %+v", mv.Fields[0])
	}
}

func TestDecode_Scenario5_MapFieldIsRepeatedEntryMessage(t *testing.T) {
	ctx, err := compiler.Compile([]string{`
syntax = "proto3";
message R { map<string, int32> m = 1; }
`}, compiler.Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	r, _ := ctx.Message(".R")
	// field 1, LEN: key(1,"a") + value(2,7)
	entry := []byte{0x0a, 0x01, 'a', 0x10, 0x07}
	b := append([]byte{0x0a, byte(len(entry))}, entry...)
	mv := DecodeMessage(r, ctx, b, Options{})

	if len(mv.Fields) != 1 {
		t.Fatalf("fields = %+v", mv.Fields)
	}
	nested, ok := mv.Fields[0].Value.Message()
	if !ok || len(nested.Fields) != 2 {
		t.Fatalf("entry = %+v", nested)
	}
	key, _ := nested.Fields[0].Value.String()
	val, _ := nested.Fields[1].Value.Int32()
	if key != "a" || val != 7 {
		t.Fatalf("key=%q val=%d", key, val)
	}
}

func TestDecode_TrailingGarbage(t *testing.T) {
	ctx, err := compiler.Compile([]string{`
syntax = "proto3";
message R { string kind = 1; }
`}, compiler.Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	r, _ := ctx.Message(".R")
	valid := []byte{0x0a, 0x05, 'P', 'e', 'r', 'c', 'h'}
	trailing := []byte{0xff, 0xff, 0xff}
	mv := DecodeMessage(r, ctx, append(valid, trailing...), Options{})

	if len(mv.Fields) != 1 {
		t.Fatalf("fields = %+v", mv.Fields)
	}
	if !bytes.Equal(mv.Garbage, trailing) {
		t.Fatalf("garbage = %v, want %v", mv.Garbage, trailing)
	}
}

func TestDecode_CyclicMessageNesting(t *testing.T) {
	ctx, err := compiler.Compile([]string{`
syntax = "proto3";
message A { B b = 1; }
message B { A a = 1; }
`}, compiler.Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	a, _ := ctx.Message(".A")
	b, _ := ctx.Message(".B")

	// B{} with no fields, embedded in A.b, embedded in outer B.a.
	innerB := []byte{}
	innerA := append([]byte{0x0a, byte(len(innerB))}, innerB...)
	outer := append([]byte{0x0a, byte(len(innerA))}, innerA...)

	mv := DecodeMessage(b, ctx, outer, Options{})
	if mv.TypeID != b.ID {
		t.Fatalf("TypeID = %d, want %d", mv.TypeID, b.ID)
	}
	nestedA, ok := mv.Fields[0].Value.Message()
	if !ok || nestedA.TypeID != a.ID {
		t.Fatalf("nested A = %+v", nestedA)
	}
}

func TestDecode_NeverPanicsOnTruncatedInput(t *testing.T) {
	ctx, err := compiler.Compile([]string{`
syntax = "proto3";
message R { string s = 1; int32 n = 2; R nested = 3; }
`}, compiler.Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	r, _ := ctx.Message(".R")
	inputs := [][]byte{
		nil,
		{0x0a},
		{0x0a, 0xff},
		{0x1a, 0x05, 0x01},
		{0x08},
		{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
	}
	for i, in := range inputs {
		mv := DecodeMessage(r, ctx, in, Options{})
		if mv == nil {
			t.Fatalf("input %d: nil result", i)
		}
	}
}

func TestDecode_RecursionDepthGuard(t *testing.T) {
	ctx, err := compiler.Compile([]string{`
syntax = "proto3";
message R { R nested = 1; }
`}, compiler.Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	r, _ := ctx.Message(".R")

	// Build a deeply right-nested chain exceeding a tiny MaxDepth.
	b := []byte{}
	for i := 0; i < 5; i++ {
		b = append([]byte{0x0a, byte(len(b))}, b...)
	}
	mv := DecodeMessage(r, ctx, b, Options{MaxDepth: 2})
	// Must not panic and must terminate; somewhere down the chain a
	// message field becomes Unknown instead of recursing further.
	depth := 0
	cur := mv
	for {
		if len(cur.Fields) == 0 {
			break
		}
		if _, ok := cur.Fields[0].Value.Message(); ok {
			nested, _ := cur.Fields[0].Value.Message()
			cur = nested
			depth++
			continue
		}
		if _, ok := cur.Fields[0].Value.Unknown(); ok {
			break
		}
		break
	}
	if depth > 2 {
		t.Fatalf("recursed %d levels past MaxDepth", depth)
	}
}
