// Package protowire exposes the wire-format primitives the rest of
// protolens is built on: tags, varints, fixed-width integers and
// length-delimited spans. It is a thin layer over
// google.golang.org/protobuf/encoding/protowire rather than a
// reimplementation, so decoder and encoder never disagree with the
// upstream wire-type constants.
package protowire

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Number is a field number, 1..2^29-1 excluding 19000..19999.
type Number = protowire.Number

// Type is one of the six wire types a tag can carry.
type Type = protowire.Type

// The six wire types named in spec.md's glossary.
const (
	VarintType     = protowire.VarintType
	Fixed32Type    = protowire.Fixed32Type // I32
	Fixed64Type    = protowire.Fixed64Type // I64
	BytesType      = protowire.BytesType   // LEN
	StartGroupType = protowire.StartGroupType
	EndGroupType   = protowire.EndGroupType
)

// MinValidNumber and MaxValidNumber bound a legal field number.
const (
	MinValidNumber Number = 1
	MaxValidNumber Number = protowire.MaxValidNumber
)

// ReservedStart and ReservedEnd bound the reserved field-number range
// that schemas MAY reject (spec.md §7, SchemaError::InvalidFieldNumber).
const (
	ReservedStart Number = 19000
	ReservedEnd   Number = 19999
)

// ConsumeTag reads a tag varint, splitting it into field number and
// wire type. It returns n < 0 if b does not begin with a valid tag.
func ConsumeTag(b []byte) (Number, Type, int) {
	return protowire.ConsumeTag(b)
}

// AppendTag appends an encoded tag to b.
func AppendTag(b []byte, num Number, typ Type) []byte {
	return protowire.AppendTag(b, num, typ)
}

// ConsumeVarint reads a varint payload (used by VARINT, and internally
// by LEN's length prefix).
func ConsumeVarint(b []byte) (uint64, int) {
	return protowire.ConsumeVarint(b)
}

// AppendVarint appends an encoded varint to b.
func AppendVarint(b []byte, v uint64) []byte {
	return protowire.AppendVarint(b, v)
}

// ConsumeFixed32 reads an I32 payload.
func ConsumeFixed32(b []byte) (uint32, int) {
	return protowire.ConsumeFixed32(b)
}

// AppendFixed32 appends an encoded I32 payload to b.
func AppendFixed32(b []byte, v uint32) []byte {
	return protowire.AppendFixed32(b, v)
}

// ConsumeFixed64 reads an I64 payload.
func ConsumeFixed64(b []byte) (uint64, int) {
	return protowire.ConsumeFixed64(b)
}

// AppendFixed64 appends an encoded I64 payload to b.
func AppendFixed64(b []byte, v uint64) []byte {
	return protowire.AppendFixed64(b, v)
}

// ConsumeBytes reads a LEN payload (the length prefix plus that many
// raw bytes) and returns the span without the prefix.
func ConsumeBytes(b []byte) ([]byte, int) {
	return protowire.ConsumeBytes(b)
}

// AppendBytes appends a LEN-framed payload (length prefix + v) to b.
func AppendBytes(b []byte, v []byte) []byte {
	return protowire.AppendBytes(b, v)
}

// ConsumeGroup skips a SGROUP..EGROUP span for the given field number.
// b must start just after the SGROUP tag. It returns the opaque span
// (not including the EGROUP tag) and the number of bytes consumed,
// which includes the EGROUP tag.
func ConsumeGroup(num Number, b []byte) ([]byte, int) {
	return protowire.ConsumeGroup(num, b)
}

// DecodeZigZag undoes zig-zag encoding for sint32/sint64.
func DecodeZigZag(x uint64) int64 {
	return protowire.DecodeZigZag(x)
}

// EncodeZigZag zig-zag encodes a signed integer for sint32/sint64.
func EncodeZigZag(x int64) uint64 {
	return protowire.EncodeZigZag(x)
}

// SizeVarint reports the encoded size in bytes of a varint.
func SizeVarint(v uint64) int {
	return protowire.SizeVarint(v)
}

// SizeTag reports the encoded size in bytes of a tag for the given
// field number.
func SizeTag(num Number) int {
	return protowire.SizeTag(num)
}

// SizeBytes reports the encoded size in bytes of a LEN payload of n
// raw bytes, prefix included.
func SizeBytes(n int) int {
	return protowire.SizeBytes(n)
}
