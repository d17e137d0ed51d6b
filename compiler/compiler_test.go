package compiler

import (
	"testing"

	"github.com/axonops/protolens/registry"
	"github.com/axonops/protolens/reporter"
	"google.golang.org/protobuf/reflect/protoreflect"
)

func TestCompile_SimpleMessage(t *testing.T) {
	ctx, err := Compile([]string{`
syntax = "proto3";
message R {
  string kind = 1;
}
`}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mi, ok := ctx.Message(".R")
	if !ok {
		t.Fatal("message .R not found")
	}
	f, ok := mi.FieldByNumber(1)
	if !ok || f.Name != "kind" || f.ValueKind != registry.ValueScalar || f.Scalar != protoreflect.StringKind {
		t.Fatalf("field = %+v", f)
	}
}

func TestCompile_DuplicateType(t *testing.T) {
	_, err := Compile([]string{`
syntax = "proto3";
message R {}
message R {}
`}, Options{})
	se, ok := err.(*SchemaError)
	if !ok || se.Kind != DuplicateType {
		t.Fatalf("err = %v, want DuplicateType SchemaError", err)
	}
}

func TestCompile_UnresolvedType(t *testing.T) {
	_, err := Compile([]string{`
syntax = "proto3";
message R {
  NoSuchType x = 1;
}
`}, Options{})
	se, ok := err.(*SchemaError)
	if !ok || se.Kind != UnresolvedType {
		t.Fatalf("err = %v, want UnresolvedType SchemaError", err)
	}
}

func TestCompile_CyclicMessageReference(t *testing.T) {
	ctx, err := Compile([]string{`
syntax = "proto3";
message A {
  B b = 1;
}
message B {
  A a = 1;
}
`}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, _ := ctx.Message(".A")
	b, _ := ctx.Message(".B")
	fb, _ := a.FieldByNumber(1)
	if fb.ValueKind != registry.ValueMessage || fb.MessageID != b.ID {
		t.Fatalf("A.b = %+v, want reference to B (id %d)", fb, b.ID)
	}
	fa, _ := b.FieldByNumber(1)
	if fa.ValueKind != registry.ValueMessage || fa.MessageID != a.ID {
		t.Fatalf("B.a = %+v, want reference to A (id %d)", fa, a.ID)
	}
}

func TestCompile_MapFieldExpandsToSyntheticEntry(t *testing.T) {
	ctx, err := Compile([]string{`
syntax = "proto3";
message R {
  map<string, int32> m = 1;
}
`}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, _ := ctx.Message(".R")
	f, _ := r.FieldByNumber(1)
	if !f.IsMapEntry() {
		t.Fatalf("field = %+v, want a map entry", f)
	}
	entry := ctx.MessageByID(f.MessageID)
	key, ok := entry.FieldByNumber(1)
	if !ok || key.Name != "key" || key.Scalar != protoreflect.StringKind {
		t.Fatalf("entry key = %+v", key)
	}
	val, ok := entry.FieldByNumber(2)
	if !ok || val.Name != "value" || val.Scalar != protoreflect.Int32Kind {
		t.Fatalf("entry value = %+v", val)
	}
}

func TestCompile_Oneof(t *testing.T) {
	ctx, err := Compile([]string{`
syntax = "proto3";
message R {
  oneof choice {
    string a = 1;
    int32 b = 2;
  }
}
`}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, _ := ctx.Message(".R")
	if len(r.Oneofs) != 1 || r.Oneofs[0].Name != "choice" {
		t.Fatalf("oneofs = %+v", r.Oneofs)
	}
	if len(r.Oneofs[0].MemberFieldIndexes) != 2 {
		t.Fatalf("members = %+v", r.Oneofs[0].MemberFieldIndexes)
	}
	fa, _ := r.FieldByNumber(1)
	if fa.OneofIndex != 0 {
		t.Fatalf("a.OneofIndex = %d", fa.OneofIndex)
	}
}

func TestCompile_PackedRepeatedScalarDefault(t *testing.T) {
	ctx, err := Compile([]string{`
syntax = "proto3";
message R {
  repeated int32 nums = 1;
  repeated string names = 2;
  repeated int32 unpacked = 3 [packed = false];
}
`}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, _ := ctx.Message(".R")
	nums, _ := r.FieldByNumber(1)
	if !nums.Packed {
		t.Fatal("repeated int32 should default to packed")
	}
	names, _ := r.FieldByNumber(2)
	if names.Packed {
		t.Fatal("repeated string is never packed")
	}
	unpacked, _ := r.FieldByNumber(3)
	if unpacked.Packed {
		t.Fatal("explicit packed=false should be honored")
	}
}

func TestCompile_ServiceRPCResolution(t *testing.T) {
	ctx, err := Compile([]string{`
syntax = "proto3";
message A {}
message B {}
service S {
  rpc Go(stream A) returns (stream B);
}
`}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, ok := ctx.Service(".S")
	if !ok {
		t.Fatal("service .S not found")
	}
	rpc, ok := s.RPC("Go")
	if !ok || !rpc.Input.Streaming || !rpc.Output.Streaming {
		t.Fatalf("rpc = %+v", rpc)
	}
	a, _ := ctx.Message(".A")
	b, _ := ctx.Message(".B")
	if rpc.Input.MessageID != a.ID || rpc.Output.MessageID != b.ID {
		t.Fatalf("rpc args = %+v", rpc)
	}
}

func TestCompile_NestedMessageScopedLookup(t *testing.T) {
	ctx, err := Compile([]string{`
syntax = "proto3";
package com.example;

message Outer {
  message Inner {
    int32 x = 1;
  }
  Inner inner = 1;
}
`}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outer, ok := ctx.Message(".com.example.Outer")
	if !ok {
		t.Fatal("message .com.example.Outer not found")
	}
	f, _ := outer.FieldByNumber(1)
	inner, ok := ctx.Message(".com.example.Outer.Inner")
	if !ok || f.MessageID != inner.ID {
		t.Fatalf("Outer.inner = %+v, want reference to Inner (id %d)", f, inner.ID)
	}
}

func TestCompile_ReporterCollectsDiscardedImportsAndOptions(t *testing.T) {
	h := reporter.NewHandler()
	_, err := Compile([]string{`
syntax = "proto3";
import "google/protobuf/timestamp.proto";
option java_package = "com.example";

message R {
  string kind = 1 [deprecated = true];
}
`}, Options{Reporter: h})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.Warnings()) == 0 {
		t.Fatal("expected at least one warning")
	}
	var sawImport, sawFileOption, sawFieldOption bool
	for _, w := range h.Warnings() {
		switch {
		case w.Message == `import "google/protobuf/timestamp.proto" tolerated but not chased`:
			sawImport = true
		case w.Message == `discarding file option "java_package"`:
			sawFileOption = true
		case w.Message == `discarding field option "deprecated" on .R.kind`:
			sawFieldOption = true
		}
	}
	if !sawImport || !sawFileOption || !sawFieldOption {
		t.Fatalf("warnings = %+v, missing expected entries (import=%v fileOpt=%v fieldOpt=%v)", h.Warnings(), sawImport, sawFileOption, sawFieldOption)
	}
	if h.HasErrors() {
		t.Fatalf("unexpected errors recorded: %+v", h.Errors())
	}
}

func TestCompile_ReporterRecordsSchemaErrorPosition(t *testing.T) {
	h := reporter.NewHandler()
	_, err := Compile([]string{`
syntax = "proto3";
message R {
  NoSuchType x = 1;
}
`}, Options{Reporter: h})
	if err == nil {
		t.Fatal("expected an error")
	}
	errs := h.Errors()
	if len(errs) != 1 {
		t.Fatalf("errors = %+v, want exactly one", errs)
	}
	if errs[0].Pos.Line == 0 {
		t.Fatalf("error position not recorded: %+v", errs[0])
	}
	if errs[0].Message != err.Error() {
		t.Fatalf("reporter message = %q, want %q", errs[0].Message, err.Error())
	}
}
