package decode

import "github.com/axonops/protolens/protowire"

// Kind tags what a Value holds. Go has no native sum type, so Value is
// realized as this discriminator plus one field per payload shape
// (spec.md §9: "encode each as a tag discriminator plus a payload
// union/record").
type Kind int

const (
	KindDouble Kind = iota
	KindFloat
	KindInt32
	KindInt64
	KindUint32
	KindUint64
	KindSint32
	KindSint64
	KindFixed32
	KindFixed64
	KindSfixed32
	KindSfixed64
	KindBool
	KindString
	KindBytes
	KindEnum
	KindMessage
	KindPacked
	KindIncomplete
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindDouble:
		return "double"
	case KindFloat:
		return "float"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindUint32:
		return "uint32"
	case KindUint64:
		return "uint64"
	case KindSint32:
		return "sint32"
	case KindSint64:
		return "sint64"
	case KindFixed32:
		return "fixed32"
	case KindFixed64:
		return "fixed64"
	case KindSfixed32:
		return "sfixed32"
	case KindSfixed64:
		return "sfixed64"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindEnum:
		return "enum"
	case KindMessage:
		return "message"
	case KindPacked:
		return "packed"
	case KindIncomplete:
		return "incomplete"
	case KindUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// UnknownValue is a wire field whose number is not declared on the
// target message, whose payload could not be read, or a message field
// past the recursion limit (spec.md §3/§7). Retained verbatim for
// fidelity.
type UnknownValue struct {
	Number   int32
	WireType protowire.Type
	RawBytes []byte
}

// Value is one decoded field payload. Exactly one group of fields is
// meaningful, selected by Kind; see the accessor methods below for the
// documented way to read a Value without inspecting Kind by hand.
type Value struct {
	Kind Kind

	double   float64
	float32v float32
	int32v   int32
	int64v   int64
	uint32v  uint32
	uint64v  uint64
	sint32v  int32
	sint64v  int64
	fixed32v uint32
	fixed64v uint64
	sfixed32 int32
	sfixed64 int64
	boolv    bool
	str      string
	bytes    []byte

	enumType int32
	enumNum  int32

	message *MessageValue
	packed  []Value

	// Meaningful only when Kind == KindIncomplete.
	expectedKind Kind
	incompleteRaw []byte

	// Meaningful only when Kind == KindUnknown.
	unknown UnknownValue
}

func doubleValue(v float64) Value   { return Value{Kind: KindDouble, double: v} }
func floatValue(v float32) Value    { return Value{Kind: KindFloat, float32v: v} }
func int32Value(v int32) Value      { return Value{Kind: KindInt32, int32v: v} }
func int64Value(v int64) Value      { return Value{Kind: KindInt64, int64v: v} }
func uint32Value(v uint32) Value    { return Value{Kind: KindUint32, uint32v: v} }
func uint64Value(v uint64) Value    { return Value{Kind: KindUint64, uint64v: v} }
func sint32Value(v int32) Value     { return Value{Kind: KindSint32, sint32v: v} }
func sint64Value(v int64) Value     { return Value{Kind: KindSint64, sint64v: v} }
func fixed32Value(v uint32) Value   { return Value{Kind: KindFixed32, fixed32v: v} }
func fixed64Value(v uint64) Value   { return Value{Kind: KindFixed64, fixed64v: v} }
func sfixed32Value(v int32) Value   { return Value{Kind: KindSfixed32, sfixed32: v} }
func sfixed64Value(v int64) Value   { return Value{Kind: KindSfixed64, sfixed64: v} }
func boolValue(v bool) Value        { return Value{Kind: KindBool, boolv: v} }
func stringValue(v string) Value    { return Value{Kind: KindString, str: v} }
func bytesValue(v []byte) Value     { return Value{Kind: KindBytes, bytes: v} }
func enumValue(typeID, n int32) Value {
	return Value{Kind: KindEnum, enumType: typeID, enumNum: n}
}
func messageValue(mv *MessageValue) Value { return Value{Kind: KindMessage, message: mv} }
func packedValue(vs []Value) Value        { return Value{Kind: KindPacked, packed: vs} }

// NewPacked builds a Packed value from a slice of same-kind numeric or
// bool scalars. Exported so callers assembling a MessageValue by hand
// (rather than via Decode) — for example encode.EncodeRepeatedScalar
// honoring a config.Options.PreferPackedEncoding choice — can produce
// the same shape Decode would for a packed repeated field.
func NewPacked(vs []Value) Value { return packedValue(vs) }

func incompleteValue(expected Kind, raw []byte) Value {
	return Value{Kind: KindIncomplete, expectedKind: expected, incompleteRaw: raw}
}

func unknownValue(u UnknownValue) Value {
	return Value{Kind: KindUnknown, unknown: u}
}

// Double, Float, ... each report the payload for their Kind and a bool
// that is false (zero payload) when Kind does not match — mirroring
// the "comma ok" idiom Go already uses for type assertions and map
// lookups, so callers never need a type switch.
func (v Value) Double() (float64, bool) { return v.double, v.Kind == KindDouble }
func (v Value) Float() (float32, bool)  { return v.float32v, v.Kind == KindFloat }
func (v Value) Int32() (int32, bool)    { return v.int32v, v.Kind == KindInt32 }
func (v Value) Int64() (int64, bool)    { return v.int64v, v.Kind == KindInt64 }
func (v Value) Uint32() (uint32, bool)  { return v.uint32v, v.Kind == KindUint32 }
func (v Value) Uint64() (uint64, bool)  { return v.uint64v, v.Kind == KindUint64 }
func (v Value) Sint32() (int32, bool)   { return v.sint32v, v.Kind == KindSint32 }
func (v Value) Sint64() (int64, bool)   { return v.sint64v, v.Kind == KindSint64 }
func (v Value) Fixed32() (uint32, bool) { return v.fixed32v, v.Kind == KindFixed32 }
func (v Value) Fixed64() (uint64, bool) { return v.fixed64v, v.Kind == KindFixed64 }
func (v Value) Sfixed32() (int32, bool) { return v.sfixed32, v.Kind == KindSfixed32 }
func (v Value) Sfixed64() (int64, bool) { return v.sfixed64, v.Kind == KindSfixed64 }
func (v Value) Bool() (bool, bool)      { return v.boolv, v.Kind == KindBool }
func (v Value) String() (string, bool)  { return v.str, v.Kind == KindString }
func (v Value) Bytes() ([]byte, bool)   { return v.bytes, v.Kind == KindBytes }

// Enum reports the referenced enum type id and the raw wire number —
// valid for any int32 whether or not it names a declared variant
// (proto3 enums are open, spec.md §4.4).
func (v Value) Enum() (typeID, number int32, ok bool) {
	return v.enumType, v.enumNum, v.Kind == KindEnum
}

func (v Value) Message() (*MessageValue, bool) { return v.message, v.Kind == KindMessage }
func (v Value) Packed() ([]Value, bool)        { return v.packed, v.Kind == KindPacked }

// Incomplete reports the kind that was expected and the raw bytes that
// could not be interpreted under it (spec.md §3, §7).
func (v Value) Incomplete() (expected Kind, raw []byte, ok bool) {
	return v.expectedKind, v.incompleteRaw, v.Kind == KindIncomplete
}

func (v Value) Unknown() (UnknownValue, bool) { return v.unknown, v.Kind == KindUnknown }

// FieldValue is one occurrence of a field on the wire: {number, value},
// in arrival order (spec.md §3 invariant 4).
type FieldValue struct {
	Number int32
	Value  Value
}

// MessageValue is a decoded message: its type id, every field
// occurrence in wire order, and any trailing bytes left where a tag
// could not be read, or after a tag whose payload was truncated
// (spec.md §3).
type MessageValue struct {
	TypeID int32
	Fields []FieldValue
	Garbage []byte
}
