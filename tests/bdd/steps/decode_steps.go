//go:build bdd

package steps

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/cucumber/godog"

	"github.com/axonops/protolens/decode"
	"github.com/axonops/protolens/protowire"
)

// wireTypeName names a wire type the way spec.md's glossary does
// ("VARINT", "I32", "I64", "LEN"), since protowire.Type has no Stringer.
func wireTypeName(t protowire.Type) string {
	switch t {
	case protowire.VarintType:
		return "VARINT"
	case protowire.Fixed32Type:
		return "I32"
	case protowire.Fixed64Type:
		return "I64"
	case protowire.BytesType:
		return "LEN"
	case protowire.StartGroupType:
		return "SGROUP"
	case protowire.EndGroupType:
		return "EGROUP"
	default:
		return "UNKNOWN"
	}
}

// parseHexBytes turns a whitespace-separated hex literal like
// "0a 05 50 65 72 63 68" into its raw bytes.
func parseHexBytes(s string) ([]byte, error) {
	return hex.DecodeString(strings.ReplaceAll(s, " ", ""))
}

func fieldByNumber(mv *decode.MessageValue, number int) (decode.FieldValue, bool) {
	for _, fv := range mv.Fields {
		if int(fv.Number) == number {
			return fv, true
		}
	}
	return decode.FieldValue{}, false
}

// RegisterDecodeSteps registers the decode-and-assert step vocabulary
// used by the spec.md §8 scenarios.
func RegisterDecodeSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	ctx.Step(`^I decode bytes "([^"]*)" against message "([^"]*)"$`, func(hexBytes, msgName string) error {
		mi, err := tc.Message(msgName)
		if err != nil {
			return err
		}
		b, err := parseHexBytes(hexBytes)
		if err != nil {
			return fmt.Errorf("invalid hex %q: %w", hexBytes, err)
		}
		tc.Decoded = decode.DecodeMessage(mi, tc.Ctx, b, decode.Options{})
		return nil
	})

	countFields := func(want int) error {
		if len(tc.Decoded.Fields) != want {
			return fmt.Errorf("decoded fields = %d, want %d", len(tc.Decoded.Fields), want)
		}
		return nil
	}
	ctx.Step(`^the decoded message should have (\d+) field$`, countFields)
	ctx.Step(`^the decoded message should have (\d+) fields$`, countFields)

	ctx.Step(`^the decoded message should have no garbage$`, func() error {
		if len(tc.Decoded.Garbage) != 0 {
			return fmt.Errorf("garbage = %x, want none", tc.Decoded.Garbage)
		}
		return nil
	})

	ctx.Step(`^the decoded message should have garbage bytes "([^"]*)"$`, func(rawHex string) error {
		want, err := parseHexBytes(rawHex)
		if err != nil {
			return err
		}
		if string(tc.Decoded.Garbage) != string(want) {
			return fmt.Errorf("garbage = %x, want %x", tc.Decoded.Garbage, want)
		}
		return nil
	})

	ctx.Step(`^field (\d+) should decode to string "([^"]*)"$`, func(number int, want string) error {
		fv, ok := fieldByNumber(tc.Decoded, number)
		if !ok {
			return fmt.Errorf("no field %d", number)
		}
		got, ok := fv.Value.String()
		if !ok || got != want {
			return fmt.Errorf("field %d = %+v, want string %q", number, fv.Value, want)
		}
		return nil
	})

	ctx.Step(`^field (\d+) should decode to int32 (-?\d+)$`, func(number, want int) error {
		fv, ok := fieldByNumber(tc.Decoded, number)
		if !ok {
			return fmt.Errorf("no field %d", number)
		}
		got, ok := fv.Value.Int32()
		if !ok || int(got) != want {
			return fmt.Errorf("field %d = %+v, want int32 %d", number, fv.Value, want)
		}
		return nil
	})

	ctx.Step(`^field (\d+) should be unknown with wire type "([^"]*)" and raw bytes "([^"]*)"$`, func(number int, wireType, rawHex string) error {
		fv, ok := fieldByNumber(tc.Decoded, number)
		if !ok {
			return fmt.Errorf("no field %d", number)
		}
		u, ok := fv.Value.Unknown()
		if !ok {
			return fmt.Errorf("field %d = %+v, want Unknown", number, fv.Value)
		}
		if got := wireTypeName(u.WireType); !strings.EqualFold(got, wireType) {
			return fmt.Errorf("wire type = %s, want %s", got, wireType)
		}
		want, err := parseHexBytes(rawHex)
		if err != nil {
			return err
		}
		if string(u.RawBytes) != string(want) {
			return fmt.Errorf("raw bytes = %x, want %x", u.RawBytes, want)
		}
		return nil
	})

	ctx.Step(`^field (\d+) should decode to incomplete expecting "([^"]*)" with raw bytes "([^"]*)"$`, func(number int, expectedKind, rawHex string) error {
		fv, ok := fieldByNumber(tc.Decoded, number)
		if !ok {
			return fmt.Errorf("no field %d", number)
		}
		expected, raw, ok := fv.Value.Incomplete()
		if !ok {
			return fmt.Errorf("field %d = %+v, want Incomplete", number, fv.Value)
		}
		if !strings.EqualFold(expected.String(), expectedKind) {
			return fmt.Errorf("expected kind = %s, want %s", expected, expectedKind)
		}
		want, err := parseHexBytes(rawHex)
		if err != nil {
			return err
		}
		if string(raw) != string(want) {
			return fmt.Errorf("raw bytes = %x, want %x", raw, want)
		}
		return nil
	})

	ctx.Step(`^field (\d+) should decode to a nested message with (\d+) fields?$`, func(number, wantFields int) error {
		fv, ok := fieldByNumber(tc.Decoded, number)
		if !ok {
			return fmt.Errorf("no field %d", number)
		}
		nested, ok := fv.Value.Message()
		if !ok {
			return fmt.Errorf("field %d = %+v, want Message", number, fv.Value)
		}
		if len(nested.Fields) != wantFields {
			return fmt.Errorf("nested fields = %d, want %d", len(nested.Fields), wantFields)
		}
		tc.StoredValues["nested"] = nested
		return nil
	})

	ctx.Step(`^nested field (\d+) should decode to string "([^"]*)"$`, func(number int, want string) error {
		nested, ok := tc.StoredValues["nested"].(*decode.MessageValue)
		if !ok {
			return fmt.Errorf("no nested message in scope")
		}
		fv, ok := fieldByNumber(nested, number)
		if !ok {
			return fmt.Errorf("no nested field %d", number)
		}
		got, ok := fv.Value.String()
		if !ok || got != want {
			return fmt.Errorf("nested field %d = %+v, want string %q", number, fv.Value, want)
		}
		return nil
	})

	ctx.Step(`^nested field (\d+) should decode to int32 (-?\d+)$`, func(number, want int) error {
		nested, ok := tc.StoredValues["nested"].(*decode.MessageValue)
		if !ok {
			return fmt.Errorf("no nested message in scope")
		}
		fv, ok := fieldByNumber(nested, number)
		if !ok {
			return fmt.Errorf("no nested field %d", number)
		}
		got, ok := fv.Value.Int32()
		if !ok || int(got) != want {
			return fmt.Errorf("nested field %d = %+v, want int32 %d", number, fv.Value, want)
		}
		return nil
	})
}
