package clvalue

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/caffeineduck/gorc/errors"
)

// Decode decodes a payload that must hold exactly one value of the expected tag.
func Decode(b []byte, expected Tag) (Value, error) {
	v, n, err := decodePayload(b, expected)
	if err != nil {
		return Value{}, err
	}
	if n != len(b) {
		return Value{}, errors.InvalidEncoding("%d trailing bytes after %s", len(b)-n, expected)
	}
	return v, nil
}

// DecodeTagged decodes a tag byte followed by a payload, rejecting unknown
// tags and tags other than expected.
func DecodeTagged(b []byte, expected Tag) (Value, error) {
	if len(b) < 1 {
		return Value{}, errors.Truncated("tag", 1, 0)
	}
	stored := Tag(b[0])
	if !stored.Valid() {
		return Value{}, unknownTag(stored)
	}
	if stored != expected {
		return Value{}, tagMismatch(stored, expected)
	}
	return Decode(b[1:], expected)
}

// Validate checks that payload is a well-formed encoding for tag.
func Validate(payload []byte, tag Tag) error {
	_, err := Decode(payload, tag)
	return err
}

func decodePayload(b []byte, tag Tag) (Value, int, error) {
	if !tag.Valid() {
		return Value{}, 0, unknownTag(tag)
	}
	if need := tag.MinSize(); len(b) < need {
		return Value{}, 0, errors.Truncated(tag.String(), need, len(b))
	}

	switch tag {
	case TagBool:
		switch b[0] {
		case 0:
			return Bool(false), 1, nil
		case 1:
			return Bool(true), 1, nil
		}
		return Value{}, 0, errors.InvalidEncoding("bool byte %#x", b[0])
	case TagI32:
		return I32(int32(binary.LittleEndian.Uint32(b))), 4, nil
	case TagI64:
		return I64(int64(binary.LittleEndian.Uint64(b))), 8, nil
	case TagU8:
		return U8(b[0]), 1, nil
	case TagU32:
		return U32(binary.LittleEndian.Uint32(b)), 4, nil
	case TagU64:
		return U64(binary.LittleEndian.Uint64(b)), 8, nil
	case TagUnit:
		return Unit(), 0, nil
	case TagString:
		data, n, err := lengthPrefixed(b, tag)
		if err != nil {
			return Value{}, 0, err
		}
		if !utf8.Valid(data) {
			return Value{}, 0, errors.InvalidEncoding("string is not valid UTF-8")
		}
		return String(string(data)), n, nil
	case TagBytes:
		data, n, err := lengthPrefixed(b, tag)
		if err != nil {
			return Value{}, 0, err
		}
		return Bytes(data), n, nil
	}
	return Value{}, 0, unknownTag(tag)
}

func lengthPrefixed(b []byte, tag Tag) ([]byte, int, error) {
	size := binary.LittleEndian.Uint32(b)
	if uint64(size) > uint64(len(b)-4) {
		return nil, 0, errors.New(errors.PhaseDecode, errors.KindInvalidEncoding).
			Value(size).
			Detail("%s length prefix %d exceeds %d remaining bytes", tag, size, len(b)-4).
			Build()
	}
	end := 4 + int(size)
	return b[4:end], end, nil
}
