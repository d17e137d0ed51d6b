package parser

import (
	"testing"

	"github.com/axonops/protolens/ast"
)

func TestParse_SimpleMessage(t *testing.T) {
	src := `
syntax = "proto3";

message R {
  string kind = 1;
}
`
	f, err := Parse("test.proto", src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(f.Messages))
	}
	m := f.Messages[0]
	if m.Name != "R" {
		t.Fatalf("name = %q", m.Name)
	}
	if len(m.Fields) != 1 || m.Fields[0].Name != "kind" || m.Fields[0].Number != 1 || m.Fields[0].TypeName != "string" {
		t.Fatalf("fields = %+v", m.Fields)
	}
}

func TestParse_PackageAndNesting(t *testing.T) {
	src := `
syntax = "proto3";
package com.example;

message Outer {
  message Inner {
    int32 x = 1;
  }
  Inner inner = 1;
  repeated int32 nums = 2 [packed = true];
}
`
	f, err := Parse("test.proto", src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Package != "com.example" {
		t.Fatalf("package = %q", f.Package)
	}
	outer := f.Messages[0]
	if len(outer.Messages) != 1 || outer.Messages[0].Name != "Inner" {
		t.Fatalf("nested = %+v", outer.Messages)
	}
	if outer.Fields[1].Label != ast.LabelRepeated {
		t.Fatalf("label = %v", outer.Fields[1].Label)
	}
	if len(outer.Fields[1].Options) != 1 || outer.Fields[1].Options[0].Name != "packed" {
		t.Fatalf("options = %+v", outer.Fields[1].Options)
	}
}

func TestParse_MapField(t *testing.T) {
	src := `
syntax = "proto3";
message R {
  map<string, int32> m = 1;
}
`
	f, err := Parse("test.proto", src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	field := f.Messages[0].Fields[0]
	if field.Map == nil || field.Map.KeyType != "string" || field.Map.ValueType != "int32" {
		t.Fatalf("map = %+v", field.Map)
	}
}

func TestParse_Oneof(t *testing.T) {
	src := `
syntax = "proto3";
message R {
  oneof choice {
    string a = 1;
    int32 b = 2;
  }
}
`
	f, err := Parse("test.proto", src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := f.Messages[0]
	if len(m.Oneofs) != 1 || m.Oneofs[0].Name != "choice" {
		t.Fatalf("oneofs = %+v", m.Oneofs)
	}
	if len(m.Fields) != 2 || m.Fields[0].OneofName != "choice" || m.Fields[1].OneofName != "choice" {
		t.Fatalf("fields = %+v", m.Fields)
	}
}

func TestParse_EnumAndService(t *testing.T) {
	src := `
syntax = "proto3";

enum Status {
  UNKNOWN = 0;
  ACTIVE = 1;
}

message A {}
message B {}

service S {
  rpc Go(stream A) returns (stream B);
}
`
	f, err := Parse("test.proto", src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Enums) != 1 || len(f.Enums[0].Values) != 2 {
		t.Fatalf("enums = %+v", f.Enums)
	}
	if len(f.Services) != 1 || len(f.Services[0].RPCs) != 1 {
		t.Fatalf("services = %+v", f.Services)
	}
	rpc := f.Services[0].RPCs[0]
	if !rpc.InputStream || !rpc.OutputStream || rpc.InputType != "A" || rpc.OutputType != "B" {
		t.Fatalf("rpc = %+v", rpc)
	}
}

func TestParse_ReservedRangesAndNames(t *testing.T) {
	src := `
syntax = "proto3";
message R {
  reserved 2, 15, 9 to 11;
  reserved "foo", "bar";
  string kept = 1;
}
`
	f, err := Parse("test.proto", src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := f.Messages[0]
	if len(m.Reserved) != 3 {
		t.Fatalf("reserved ranges = %+v", m.Reserved)
	}
	if len(m.ReservedNames) != 2 {
		t.Fatalf("reserved names = %+v", m.ReservedNames)
	}
}

func TestParse_ExtendIsDiscarded(t *testing.T) {
	src := `
syntax = "proto3";
import "google/protobuf/descriptor.proto";

extend google.protobuf.FieldOptions {
  string my_option = 50000;
}

message R {
  string s = 1 [(my_option) = "x"];
}
`
	f, err := Parse("test.proto", src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Messages) != 1 || len(f.Messages[0].Fields) != 1 {
		t.Fatalf("messages = %+v", f.Messages)
	}
}

func TestParse_InvalidSyntaxValue(t *testing.T) {
	_, err := Parse("test.proto", `syntax = "proto2"; message R {}`)
	if err == nil {
		t.Fatal("expected error for proto2 syntax")
	}
}

func TestParse_GrammarFailureHasPosition(t *testing.T) {
	_, err := Parse("test.proto", "message R { string kind = ; }")
	if err == nil {
		t.Fatal("expected parse error")
	}
	perr, ok := err.(*Error)
	if !ok {
		t.Fatalf("got %T, want *parser.Error", err)
	}
	if perr.File != "test.proto" || perr.Line == 0 {
		t.Fatalf("error missing position: %+v", perr)
	}
}
