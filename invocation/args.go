package invocation

import (
	"fmt"

	"github.com/caffeineduck/gorc/clvalue"
	"github.com/caffeineduck/gorc/errors"
	"github.com/caffeineduck/gorc/registry"
)

// Slot is one encoded argument.
type Slot struct {
	Tag     clvalue.Tag
	Payload []byte
}

// Args is the ordered argument list of one invocation. A nil *Args is an
// empty list.
type Args struct {
	slots []Slot
}

func NewArgs(values ...clvalue.Value) *Args {
	a := &Args{slots: make([]Slot, 0, len(values))}
	for _, v := range values {
		a.Append(v)
	}
	return a
}

// Append encodes v into a new trailing slot.
func (a *Args) Append(v clvalue.Value) {
	a.slots = append(a.slots, Slot{Tag: v.Tag(), Payload: clvalue.Encode(v)})
}

// Set replaces slot index, or appends when index == Len.
func (a *Args) Set(index int, v clvalue.Value) error {
	switch {
	case index < 0 || index > len(a.slots):
		return errors.OutOfRange(index, len(a.slots))
	case index == len(a.slots):
		a.Append(v)
	default:
		a.slots[index] = Slot{Tag: v.Tag(), Payload: clvalue.Encode(v)}
	}
	return nil
}

func (a *Args) Len() int {
	if a == nil {
		return 0
	}
	return len(a.slots)
}

// Slot returns a copy of slot index.
func (a *Args) Slot(index int) (Slot, error) {
	if index < 0 || index >= a.Len() {
		return Slot{}, errors.OutOfRange(index, a.Len())
	}
	s := a.slots[index]
	return Slot{Tag: s.Tag, Payload: append([]byte(nil), s.Payload...)}, nil
}

// Payload returns the encoded bytes of slot index after checking its tag.
func (a *Args) Payload(index int, tag clvalue.Tag) ([]byte, error) {
	s, err := a.typed(index, tag)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), s.Payload...), nil
}

// PayloadSize is Payload without the copy.
func (a *Args) PayloadSize(index int, tag clvalue.Tag) (int, error) {
	s, err := a.typed(index, tag)
	if err != nil {
		return 0, err
	}
	return len(s.Payload), nil
}

func (a *Args) typed(index int, tag clvalue.Tag) (Slot, error) {
	if index < 0 || index >= a.Len() {
		return Slot{}, errors.OutOfRange(index, a.Len())
	}
	s := a.slots[index]
	if s.Tag != tag {
		return Slot{}, errors.New(errors.PhaseArgument, errors.KindTypeMismatch).
			Path(fmt.Sprintf("arg[%d]", index)).
			Value(s.Tag).
			Detail("slot holds %s, requested %s", s.Tag, tag).
			Build()
	}
	return s, nil
}

// Get decodes slot index as tag.
func (a *Args) Get(index int, tag clvalue.Tag) (clvalue.Value, error) {
	payload, err := a.Payload(index, tag)
	if err != nil {
		return clvalue.Value{}, err
	}
	return clvalue.Decode(payload, tag)
}

// Shape returns the tags of all slots in order.
func (a *Args) Shape() registry.Shape {
	s := make(registry.Shape, a.Len())
	for i := range s {
		s[i] = a.slots[i].Tag
	}
	return s
}

// Values decodes every slot.
func (a *Args) Values() ([]clvalue.Value, error) {
	out := make([]clvalue.Value, a.Len())
	for i := range out {
		v, err := a.Get(i, a.slots[i].Tag)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// GetArg reads slot index as the Go type T.
func GetArg[T any](a *Args, index int) (T, error) {
	var zero T
	c, ok := clvalue.CodecFor[T]()
	if !ok {
		return zero, errors.InvalidInput(errors.PhaseArgument, fmt.Sprintf("no codec for %T", zero))
	}
	payload, err := a.Payload(index, c.Tag())
	if err != nil {
		return zero, err
	}
	return c.Decode(payload)
}
