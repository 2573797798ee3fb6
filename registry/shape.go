package registry

import (
	"strings"

	"github.com/caffeineduck/gorc/clvalue"
	"github.com/caffeineduck/gorc/errors"
)

// Shape is the ordered list of parameter tags of a function.
type Shape []clvalue.Tag

// ParseShape decodes the one-byte-per-tag wire form, rejecting unknown tags.
func ParseShape(b []byte) (Shape, error) {
	s := make(Shape, len(b))
	for i, raw := range b {
		tag := clvalue.Tag(raw)
		if !tag.Valid() {
			return nil, errors.New(errors.PhaseDecode, errors.KindInvalidEncoding).
				Path("shape").
				Value(raw).
				Detail("unknown tag %d at position %d", raw, i).
				Build()
		}
		s[i] = tag
	}
	return s, nil
}

// ParseShapeText reads a comma or space separated list of tag names.
func ParseShapeText(text string) (Shape, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == ' ' })
	s := make(Shape, 0, len(fields))
	for _, f := range fields {
		tag, err := clvalue.ParseTag(f)
		if err != nil {
			return nil, err
		}
		s = append(s, tag)
	}
	return s, nil
}

// ShapeOf returns the shape matching a list of argument values.
func ShapeOf(values []clvalue.Value) Shape {
	s := make(Shape, len(values))
	for i, v := range values {
		s[i] = v.Tag()
	}
	return s
}

// Bytes returns the wire form.
func (s Shape) Bytes() []byte {
	b := make([]byte, len(s))
	for i, tag := range s {
		b[i] = byte(tag)
	}
	return b
}

// Equal reports positional equality.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

func (s Shape) String() string {
	names := make([]string, len(s))
	for i, tag := range s {
		names[i] = tag.String()
	}
	return "(" + strings.Join(names, ", ") + ")"
}
