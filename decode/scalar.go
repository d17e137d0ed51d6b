package decode

import (
	"math"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// scalarKind maps a registry.FieldInfo's protoreflect.Kind (the same
// enum the ecosystem uses, per SPEC_FULL.md §3a) to this package's
// value Kind.
func scalarKind(k protoreflect.Kind) Kind {
	switch k {
	case protoreflect.DoubleKind:
		return KindDouble
	case protoreflect.FloatKind:
		return KindFloat
	case protoreflect.Int32Kind:
		return KindInt32
	case protoreflect.Int64Kind:
		return KindInt64
	case protoreflect.Uint32Kind:
		return KindUint32
	case protoreflect.Uint64Kind:
		return KindUint64
	case protoreflect.Sint32Kind:
		return KindSint32
	case protoreflect.Sint64Kind:
		return KindSint64
	case protoreflect.Fixed32Kind:
		return KindFixed32
	case protoreflect.Fixed64Kind:
		return KindFixed64
	case protoreflect.Sfixed32Kind:
		return KindSfixed32
	case protoreflect.Sfixed64Kind:
		return KindSfixed64
	case protoreflect.BoolKind:
		return KindBool
	case protoreflect.StringKind:
		return KindString
	case protoreflect.BytesKind:
		return KindBytes
	default:
		return KindInt64
	}
}

func float64FromBits(b uint64) float64 { return math.Float64frombits(b) }
func float32FromBits(b uint32) float32 { return math.Float32frombits(b) }
