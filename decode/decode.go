// Package decode implements the schema-driven wire decoder of spec.md
// §4.4: given a target message id, a byte buffer and a registry.Context,
// it produces a MessageValue and never fails. Every recoverable
// anomaly — an unrecognised field, a truncated payload, a wire-type
// mismatch — becomes an Incomplete or Unknown value in the tree instead
// of a returned error (spec.md §7).
package decode

import (
	"unicode/utf8"

	"github.com/axonops/protolens/protowire"
	"github.com/axonops/protolens/registry"
)

// DefaultMaxDepth is the recursion-depth guard spec.md §5 requires
// ("default depth limit >= 100").
const DefaultMaxDepth = 100

// Options configures a decode. The zero value is valid: MaxDepth
// defaults to DefaultMaxDepth.
type Options struct {
	// MaxDepth bounds nested-message recursion. At the limit, a nested
	// message field decodes to Unknown instead of recursing further —
	// never an error (spec.md §5).
	MaxDepth int
}

func (o Options) maxDepth() int {
	if o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

// Decode looks up message id in ctx and decodes b against it. This is
// the primary entry point named in spec.md §6 ("(bytes, message-id,
// Context) -> Decoder -> MessageValue").
func Decode(ctx *registry.Context, id int32, b []byte, opts Options) *MessageValue {
	return DecodeMessage(ctx.MessageByID(id), ctx, b, opts)
}

// DecodeMessage decodes b against an already-looked-up MessageInfo. It
// is the package-level equivalent of the `MessageInfo.decode` method
// spec.md §4.3 sketches — kept as a function, not a method on
// registry.MessageInfo, so registry never has to import decode's
// value-tree types (see DESIGN.md).
func DecodeMessage(mi *registry.MessageInfo, ctx *registry.Context, b []byte, opts Options) *MessageValue {
	return decodeMessage(mi, ctx, b, opts.maxDepth(), 0)
}

func decodeMessage(mi *registry.MessageInfo, ctx *registry.Context, b []byte, maxDepth, depth int) *MessageValue {
	mv := &MessageValue{TypeID: mi.ID}

	for len(b) > 0 {
		num, wireType, n := protowire.ConsumeTag(b)
		if n < 0 {
			mv.Garbage = append(mv.Garbage, b...)
			break
		}
		b = b[n:]

		payload, rest, consumed := consumePayload(num, wireType, b)
		if !consumed {
			mv.Fields = append(mv.Fields, FieldValue{
				Number: int32(num),
				Value:  unknownValue(UnknownValue{Number: int32(num), WireType: wireType, RawBytes: payload}),
			})
			mv.Garbage = append(mv.Garbage, b...)
			break
		}
		b = rest

		fi, ok := mi.FieldByNumber(int32(num))
		if !ok {
			mv.Fields = append(mv.Fields, FieldValue{
				Number: int32(num),
				Value:  unknownValue(UnknownValue{Number: int32(num), WireType: wireType, RawBytes: payload}),
			})
			continue
		}

		val := decodeField(fi, ctx, wireType, payload, maxDepth, depth)
		mv.Fields = append(mv.Fields, FieldValue{Number: int32(num), Value: val})
	}

	return mv
}

// consumePayload reads the payload bytes for wireType from the front
// of b, returning the payload, the remainder, and whether the read
// succeeded. SGROUP/EGROUP spans are captured opaquely (spec.md §4.4b):
// a top-level group with no schema representation is simply unknown.
func consumePayload(num protowire.Number, wireType protowire.Type, b []byte) (payload, rest []byte, ok bool) {
	switch wireType {
	case protowire.VarintType:
		_, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return nil, b, false
		}
		return b[:n], b[n:], true
	case protowire.Fixed32Type:
		if len(b) < 4 {
			return nil, b, false
		}
		return b[:4], b[4:], true
	case protowire.Fixed64Type:
		if len(b) < 8 {
			return nil, b, false
		}
		return b[:8], b[8:], true
	case protowire.BytesType:
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, b, false
		}
		return v, b[n:], true
	case protowire.StartGroupType:
		v, n := protowire.ConsumeGroup(num, b)
		if n < 0 {
			return nil, b, false
		}
		return v, b[n:], true
	default:
		// EGROUP with no opening SGROUP, or any other unrecognised
		// wire type: nothing to consume, treat as an immediate failure
		// so the caller records garbage and stops (spec.md §4.4b).
		return nil, b, false
	}
}

// decodeField interprets payload (already split from its tag) against
// fi's declared kind, per spec.md §4.4's "payload interpretation per
// declared kind" table.
func decodeField(fi *registry.FieldInfo, ctx *registry.Context, wireType protowire.Type, payload []byte, maxDepth, depth int) Value {
	switch fi.ValueKind {
	case registry.ValueMessage:
		return decodeMessageField(fi, ctx, wireType, payload, maxDepth, depth)
	case registry.ValueEnum:
		return decodeEnumField(fi, wireType, payload)
	default:
		return decodeScalarField(fi, wireType, payload)
	}
}

func decodeMessageField(fi *registry.FieldInfo, ctx *registry.Context, wireType protowire.Type, payload []byte, maxDepth, depth int) Value {
	if wireType != protowire.BytesType {
		return incompleteValue(KindMessage, payload)
	}
	if depth+1 > maxDepth {
		return unknownValue(UnknownValue{Number: fi.Number, WireType: wireType, RawBytes: payload})
	}
	nested := ctx.MessageByID(fi.MessageID)
	return messageValue(decodeMessage(nested, ctx, payload, maxDepth, depth+1))
}

func decodeEnumField(fi *registry.FieldInfo, wireType protowire.Type, payload []byte) Value {
	if wireType == protowire.BytesType && fi.Multiplicity == registry.Repeated {
		return decodePackedVarints(payload, func(u uint64) Value {
			return enumValue(fi.EnumID, int32(u))
		})
	}
	if wireType != protowire.VarintType {
		return incompleteValue(KindEnum, payload)
	}
	u, _ := protowire.ConsumeVarint(payload)
	return enumValue(fi.EnumID, int32(u))
}

// decodeScalarField handles every non-message, non-enum declared kind.
func decodeScalarField(fi *registry.FieldInfo, wireType protowire.Type, payload []byte) Value {
	kind := scalarKind(fi.Scalar)

	if wireType == protowire.BytesType && fi.Multiplicity == registry.Repeated && isPackable(kind) {
		return decodePackedVarintsOrFixed(kind, payload)
	}

	switch kind {
	case KindDouble:
		if wireType != protowire.Fixed64Type {
			return incompleteValue(KindDouble, payload)
		}
		bits, _ := protowire.ConsumeFixed64(payload)
		return doubleValue(float64FromBits(bits))
	case KindFloat:
		if wireType != protowire.Fixed32Type {
			return incompleteValue(KindFloat, payload)
		}
		bits, _ := protowire.ConsumeFixed32(payload)
		return floatValue(float32FromBits(bits))
	case KindFixed32:
		if wireType != protowire.Fixed32Type {
			return incompleteValue(KindFixed32, payload)
		}
		v, _ := protowire.ConsumeFixed32(payload)
		return fixed32Value(v)
	case KindFixed64:
		if wireType != protowire.Fixed64Type {
			return incompleteValue(KindFixed64, payload)
		}
		v, _ := protowire.ConsumeFixed64(payload)
		return fixed64Value(v)
	case KindSfixed32:
		if wireType != protowire.Fixed32Type {
			return incompleteValue(KindSfixed32, payload)
		}
		v, _ := protowire.ConsumeFixed32(payload)
		return sfixed32Value(int32(v))
	case KindSfixed64:
		if wireType != protowire.Fixed64Type {
			return incompleteValue(KindSfixed64, payload)
		}
		v, _ := protowire.ConsumeFixed64(payload)
		return sfixed64Value(int64(v))
	case KindString:
		if wireType != protowire.BytesType {
			return incompleteValue(KindString, payload)
		}
		if !utf8.Valid(payload) {
			return incompleteValue(KindString, payload)
		}
		return stringValue(string(payload))
	case KindBytes:
		if wireType != protowire.BytesType {
			return incompleteValue(KindBytes, payload)
		}
		return bytesValue(append([]byte(nil), payload...))
	default:
		// VARINT family: int32/int64/uint32/uint64/sint32/sint64/bool.
		if wireType != protowire.VarintType {
			return incompleteValue(kind, payload)
		}
		u, _ := protowire.ConsumeVarint(payload)
		return varintScalar(kind, u)
	}
}

func varintScalar(kind Kind, u uint64) Value {
	switch kind {
	case KindInt32:
		return int32Value(int32(u))
	case KindInt64:
		return int64Value(int64(u))
	case KindUint32:
		return uint32Value(uint32(u))
	case KindUint64:
		return uint64Value(u)
	case KindSint32:
		return sint32Value(int32(protowire.DecodeZigZag(u)))
	case KindSint64:
		return sint64Value(protowire.DecodeZigZag(u))
	case KindBool:
		return boolValue(u != 0)
	default:
		return int64Value(int64(u))
	}
}

// decodePackedVarintsOrFixed handles a LEN payload for a repeated
// numeric scalar encoded packed (spec.md §4.4: "emit Packed([...]) ...
// implementer choice"). Non-varint fixed-width kinds are unpacked by
// iterating fixed-size chunks instead of varints.
func decodePackedVarintsOrFixed(kind Kind, payload []byte) Value {
	switch kind {
	case KindFixed32, KindSfixed32, KindFloat:
		return decodePackedFixed32(kind, payload)
	case KindFixed64, KindSfixed64, KindDouble:
		return decodePackedFixed64(kind, payload)
	default:
		return decodePackedVarints(payload, func(u uint64) Value { return varintScalar(kind, u) })
	}
}

func decodePackedVarints(payload []byte, mk func(uint64) Value) Value {
	var out []Value
	for len(payload) > 0 {
		u, n := protowire.ConsumeVarint(payload)
		if n < 0 {
			return incompleteValue(KindPacked, payload)
		}
		out = append(out, mk(u))
		payload = payload[n:]
	}
	return packedValue(out)
}

func decodePackedFixed32(kind Kind, payload []byte) Value {
	var out []Value
	for len(payload) > 0 {
		v, n := protowire.ConsumeFixed32(payload)
		if n < 0 {
			return incompleteValue(KindPacked, payload)
		}
		switch kind {
		case KindFloat:
			out = append(out, floatValue(float32FromBits(v)))
		case KindSfixed32:
			out = append(out, sfixed32Value(int32(v)))
		default:
			out = append(out, fixed32Value(v))
		}
		payload = payload[n:]
	}
	return packedValue(out)
}

func decodePackedFixed64(kind Kind, payload []byte) Value {
	var out []Value
	for len(payload) > 0 {
		v, n := protowire.ConsumeFixed64(payload)
		if n < 0 {
			return incompleteValue(KindPacked, payload)
		}
		switch kind {
		case KindDouble:
			out = append(out, doubleValue(float64FromBits(v)))
		case KindSfixed64:
			out = append(out, sfixed64Value(int64(v)))
		default:
			out = append(out, fixed64Value(v))
		}
		payload = payload[n:]
	}
	return packedValue(out)
}

func isPackable(kind Kind) bool {
	switch kind {
	case KindString, KindBytes:
		return false
	default:
		return true
	}
}
