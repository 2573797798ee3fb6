package clvalue

import (
	"fmt"
	"strings"

	"github.com/caffeineduck/gorc/errors"
)

// Tag is the discriminant carried by every value on the wire.
type Tag uint8

// Tag numbering is part of the wire format and of function key derivation.
const (
	TagBool   Tag = 0
	TagI32    Tag = 1
	TagI64    Tag = 2
	TagU8     Tag = 3
	TagU32    Tag = 4
	TagU64    Tag = 5
	TagUnit   Tag = 9
	TagString Tag = 10
	TagBytes  Tag = 14
)

var tagNames = map[Tag]string{
	TagBool:   "bool",
	TagI32:    "i32",
	TagI64:    "i64",
	TagU8:     "u8",
	TagU32:    "u32",
	TagU64:    "u64",
	TagUnit:   "unit",
	TagString: "string",
	TagBytes:  "bytes",
}

// Tags lists every supported tag in wire order.
func Tags() []Tag {
	return []Tag{TagBool, TagI32, TagI64, TagU8, TagU32, TagU64, TagUnit, TagString, TagBytes}
}

// Valid reports whether t is a known tag.
func (t Tag) Valid() bool {
	_, ok := tagNames[t]
	return ok
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tag(%d)", uint8(t))
}

// MinSize is the smallest payload a value of this tag can have.
func (t Tag) MinSize() int {
	switch t {
	case TagBool, TagU8:
		return 1
	case TagI32, TagU32, TagString, TagBytes:
		return 4
	case TagI64, TagU64:
		return 8
	default:
		return 0
	}
}

// ParseTag resolves a tag from its text name. "text" and "str" are accepted
// for string, "blob" for bytes.
func ParseTag(name string) (Tag, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bool":
		return TagBool, nil
	case "i32":
		return TagI32, nil
	case "i64":
		return TagI64, nil
	case "u8":
		return TagU8, nil
	case "u32":
		return TagU32, nil
	case "u64":
		return TagU64, nil
	case "unit":
		return TagUnit, nil
	case "string", "str", "text":
		return TagString, nil
	case "bytes", "blob":
		return TagBytes, nil
	}
	return 0, errors.InvalidEncoding("unknown tag name %q", name)
}

func unknownTag(t Tag) *errors.Error {
	return errors.New(errors.PhaseDecode, errors.KindInvalidEncoding).
		Value(uint8(t)).
		Detail("unknown tag %d", uint8(t)).
		Build()
}

func tagMismatch(stored, expected Tag) *errors.Error {
	return errors.New(errors.PhaseDecode, errors.KindTagMismatch).
		Detail("stored %s, expected %s", stored, expected).
		Build()
}
