package clvalue

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/caffeineduck/gorc/errors"
)

// Parse reads the text form of a value of the given tag. Bytes are hex,
// optionally prefixed with 0x; unit accepts "" and "()".
func Parse(tag Tag, text string) (Value, error) {
	switch tag {
	case TagBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return Value{}, parseError(tag, text, err)
		}
		return Bool(b), nil
	case TagI32:
		n, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return Value{}, parseError(tag, text, err)
		}
		return I32(int32(n)), nil
	case TagI64:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Value{}, parseError(tag, text, err)
		}
		return I64(n), nil
	case TagU8:
		n, err := strconv.ParseUint(text, 10, 8)
		if err != nil {
			return Value{}, parseError(tag, text, err)
		}
		return U8(uint8(n)), nil
	case TagU32:
		n, err := strconv.ParseUint(text, 10, 32)
		if err != nil {
			return Value{}, parseError(tag, text, err)
		}
		return U32(uint32(n)), nil
	case TagU64:
		n, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return Value{}, parseError(tag, text, err)
		}
		return U64(n), nil
	case TagUnit:
		if text != "" && text != "()" {
			return Value{}, parseError(tag, text, nil)
		}
		return Unit(), nil
	case TagString:
		return String(text), nil
	case TagBytes:
		b, err := hex.DecodeString(strings.TrimPrefix(text, "0x"))
		if err != nil {
			return Value{}, parseError(tag, text, err)
		}
		return Bytes(b), nil
	}
	return Value{}, unknownTag(tag)
}

// ParseTyped reads "tag:text", e.g. "string:World" or "u32:7".
func ParseTyped(s string) (Value, error) {
	name, text, ok := strings.Cut(s, ":")
	if !ok {
		return Value{}, errors.InvalidInput(errors.PhaseHost, "expected tag:value, got "+strconv.Quote(s))
	}
	tag, err := ParseTag(name)
	if err != nil {
		return Value{}, err
	}
	return Parse(tag, text)
}

// Format renders the text form read by Parse.
func Format(v Value) string {
	switch x := v.Interface().(type) {
	case bool:
		return strconv.FormatBool(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case struct{}:
		return "()"
	case string:
		return x
	case []byte:
		return hex.EncodeToString(x)
	}
	return ""
}

func parseError(tag Tag, text string, cause error) *errors.Error {
	return errors.New(errors.PhaseHost, errors.KindInvalidInput).
		Value(text).
		Cause(cause).
		Detail("cannot parse %q as %s", text, tag).
		Build()
}
