// Package encode provides the inverse of package decode: it turns a
// decode.MessageValue back into wire bytes. SPEC_FULL.md §4.5 promotes
// this from spec.md's optional encoder to a required component, built
// on the same protowire primitives as decode so the two packages can
// never drift on wire-type constants.
package encode

import (
	"math"

	"github.com/axonops/protolens/decode"
	"github.com/axonops/protolens/protowire"
)

// Encode serializes mv back to wire bytes in field-occurrence order.
// For a MessageValue produced by decode.Decode from bytes containing
// only recognized fields with matching wire types, Encode(mv) == the
// original bytes (spec.md §8's round-trip law); Unknown fields are
// re-emitted verbatim from their captured tag/raw-bytes, and Garbage is
// appended last, so the law also holds for a decode whose garbage
// starts where no tag could be read. A decode that stopped at a
// truncated payload does not re-encode to its input.
func Encode(mv *decode.MessageValue) []byte {
	var b []byte
	for _, fv := range mv.Fields {
		b = appendFieldValue(b, fv)
	}
	b = append(b, mv.Garbage...)
	return b
}

func appendFieldValue(b []byte, fv decode.FieldValue) []byte {
	num := protowire.Number(fv.Number)
	v := fv.Value

	if u, ok := v.Unknown(); ok {
		return appendUnknown(b, u)
	}

	switch v.Kind {
	case decode.KindDouble:
		x, _ := v.Double()
		return protowire.AppendFixed64(protowire.AppendTag(b, num, protowire.Fixed64Type), math.Float64bits(x))
	case decode.KindFloat:
		x, _ := v.Float()
		return protowire.AppendFixed32(protowire.AppendTag(b, num, protowire.Fixed32Type), math.Float32bits(x))
	case decode.KindInt32:
		x, _ := v.Int32()
		return protowire.AppendVarint(protowire.AppendTag(b, num, protowire.VarintType), uint64(x))
	case decode.KindInt64:
		x, _ := v.Int64()
		return protowire.AppendVarint(protowire.AppendTag(b, num, protowire.VarintType), uint64(x))
	case decode.KindUint32:
		x, _ := v.Uint32()
		return protowire.AppendVarint(protowire.AppendTag(b, num, protowire.VarintType), uint64(x))
	case decode.KindUint64:
		x, _ := v.Uint64()
		return protowire.AppendVarint(protowire.AppendTag(b, num, protowire.VarintType), x)
	case decode.KindSint32:
		x, _ := v.Sint32()
		return protowire.AppendVarint(protowire.AppendTag(b, num, protowire.VarintType), protowire.EncodeZigZag(int64(x)))
	case decode.KindSint64:
		x, _ := v.Sint64()
		return protowire.AppendVarint(protowire.AppendTag(b, num, protowire.VarintType), protowire.EncodeZigZag(x))
	case decode.KindFixed32:
		x, _ := v.Fixed32()
		return protowire.AppendFixed32(protowire.AppendTag(b, num, protowire.Fixed32Type), x)
	case decode.KindFixed64:
		x, _ := v.Fixed64()
		return protowire.AppendFixed64(protowire.AppendTag(b, num, protowire.Fixed64Type), x)
	case decode.KindSfixed32:
		x, _ := v.Sfixed32()
		return protowire.AppendFixed32(protowire.AppendTag(b, num, protowire.Fixed32Type), uint32(x))
	case decode.KindSfixed64:
		x, _ := v.Sfixed64()
		return protowire.AppendFixed64(protowire.AppendTag(b, num, protowire.Fixed64Type), uint64(x))
	case decode.KindBool:
		x, _ := v.Bool()
		u := uint64(0)
		if x {
			u = 1
		}
		return protowire.AppendVarint(protowire.AppendTag(b, num, protowire.VarintType), u)
	case decode.KindString:
		x, _ := v.String()
		return protowire.AppendBytes(protowire.AppendTag(b, num, protowire.BytesType), []byte(x))
	case decode.KindBytes:
		x, _ := v.Bytes()
		return protowire.AppendBytes(protowire.AppendTag(b, num, protowire.BytesType), x)
	case decode.KindEnum:
		_, n, _ := v.Enum()
		return protowire.AppendVarint(protowire.AppendTag(b, num, protowire.VarintType), uint64(n))
	case decode.KindMessage:
		nested, _ := v.Message()
		return protowire.AppendBytes(protowire.AppendTag(b, num, protowire.BytesType), Encode(nested))
	case decode.KindPacked:
		vs, _ := v.Packed()
		return protowire.AppendBytes(protowire.AppendTag(b, num, protowire.BytesType), encodePacked(vs))
	case decode.KindIncomplete:
		// An Incomplete value has no well-formed wire representation
		// under its expected kind; re-emit its captured raw bytes
		// without a synthesized tag, matching how the decoder is the
		// one that owns the original tag bytes on the read side.
		_, raw, _ := v.Incomplete()
		return append(b, raw...)
	default:
		return b
	}
}

func appendUnknown(b []byte, u decode.UnknownValue) []byte {
	b = protowire.AppendTag(b, protowire.Number(u.Number), u.WireType)
	switch u.WireType {
	case protowire.VarintType:
		return append(b, u.RawBytes...)
	case protowire.Fixed32Type, protowire.Fixed64Type:
		return append(b, u.RawBytes...)
	case protowire.BytesType:
		return protowire.AppendBytes(b, u.RawBytes)
	case protowire.StartGroupType:
		b = append(b, u.RawBytes...)
		return protowire.AppendTag(b, protowire.Number(u.Number), protowire.EndGroupType)
	default:
		return append(b, u.RawBytes...)
	}
}

// EncodeRepeatedScalar builds the FieldValue occurrences for a repeated
// numeric/bool scalar field from scratch, honoring the host's
// config.Options.PreferPackedEncoding choice (SPEC_FULL.md §9): when
// preferPacked is true and the kind is packable, the whole slice
// becomes one Packed occurrence; otherwise each element becomes its
// own FieldValue, matching how an unpacked repeated scalar arrives on
// the wire. Decode never needs this — it reports whatever the wire
// actually contained — so this only matters to callers assembling a
// MessageValue by hand before calling Encode.
func EncodeRepeatedScalar(number int32, vs []decode.Value, preferPacked bool) []decode.FieldValue {
	if len(vs) == 0 {
		return nil
	}
	if preferPacked && isPackableKind(vs[0].Kind) {
		return []decode.FieldValue{{Number: number, Value: decode.NewPacked(vs)}}
	}
	out := make([]decode.FieldValue, len(vs))
	for i, v := range vs {
		out[i] = decode.FieldValue{Number: number, Value: v}
	}
	return out
}

func isPackableKind(k decode.Kind) bool {
	switch k {
	case decode.KindString, decode.KindBytes, decode.KindMessage, decode.KindPacked, decode.KindIncomplete, decode.KindUnknown:
		return false
	default:
		return true
	}
}

// encodePacked serializes the elements of a Packed value into one LEN
// body, without the outer tag (the caller already appended it).
func encodePacked(vs []decode.Value) []byte {
	var b []byte
	for _, v := range vs {
		switch v.Kind {
		case decode.KindInt32:
			x, _ := v.Int32()
			b = protowire.AppendVarint(b, uint64(x))
		case decode.KindInt64:
			x, _ := v.Int64()
			b = protowire.AppendVarint(b, uint64(x))
		case decode.KindUint32:
			x, _ := v.Uint32()
			b = protowire.AppendVarint(b, uint64(x))
		case decode.KindUint64:
			x, _ := v.Uint64()
			b = protowire.AppendVarint(b, x)
		case decode.KindSint32:
			x, _ := v.Sint32()
			b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(x)))
		case decode.KindSint64:
			x, _ := v.Sint64()
			b = protowire.AppendVarint(b, protowire.EncodeZigZag(x))
		case decode.KindBool:
			x, _ := v.Bool()
			u := uint64(0)
			if x {
				u = 1
			}
			b = protowire.AppendVarint(b, u)
		case decode.KindEnum:
			_, n, _ := v.Enum()
			b = protowire.AppendVarint(b, uint64(n))
		case decode.KindFixed32:
			x, _ := v.Fixed32()
			b = protowire.AppendFixed32(b, x)
		case decode.KindSfixed32:
			x, _ := v.Sfixed32()
			b = protowire.AppendFixed32(b, uint32(x))
		case decode.KindFloat:
			x, _ := v.Float()
			b = protowire.AppendFixed32(b, math.Float32bits(x))
		case decode.KindFixed64:
			x, _ := v.Fixed64()
			b = protowire.AppendFixed64(b, x)
		case decode.KindSfixed64:
			x, _ := v.Sfixed64()
			b = protowire.AppendFixed64(b, uint64(x))
		case decode.KindDouble:
			x, _ := v.Double()
			b = protowire.AppendFixed64(b, math.Float64bits(x))
		}
	}
	return b
}
