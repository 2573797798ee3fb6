package clvalue

// Codec is the typed encode/decode capability for one primitive kind.
type Codec[T any] interface {
	Tag() Tag
	Value(x T) Value
	Encode(x T) []byte
	Decode(payload []byte) (T, error)
}

type codec[T any] struct {
	wrap func(T) Value
	tag  Tag
}

func (c codec[T]) Tag() Tag          { return c.tag }
func (c codec[T]) Value(x T) Value   { return c.wrap(x) }
func (c codec[T]) Encode(x T) []byte { return Encode(c.wrap(x)) }

func (c codec[T]) Decode(payload []byte) (T, error) {
	var zero T
	v, err := Decode(payload, c.tag)
	if err != nil {
		return zero, err
	}
	out, ok := v.Interface().(T)
	if !ok {
		return zero, tagMismatch(v.tag, c.tag)
	}
	return out, nil
}

var (
	BoolCodec   Codec[bool]     = codec[bool]{tag: TagBool, wrap: Bool}
	I32Codec    Codec[int32]    = codec[int32]{tag: TagI32, wrap: I32}
	I64Codec    Codec[int64]    = codec[int64]{tag: TagI64, wrap: I64}
	U8Codec     Codec[uint8]    = codec[uint8]{tag: TagU8, wrap: U8}
	U32Codec    Codec[uint32]   = codec[uint32]{tag: TagU32, wrap: U32}
	U64Codec    Codec[uint64]   = codec[uint64]{tag: TagU64, wrap: U64}
	UnitCodec   Codec[struct{}] = codec[struct{}]{tag: TagUnit, wrap: func(struct{}) Value { return Unit() }}
	StringCodec Codec[string]   = codec[string]{tag: TagString, wrap: String}
	BytesCodec  Codec[[]byte]   = codec[[]byte]{tag: TagBytes, wrap: Bytes}
)

// CodecFor resolves the codec for Go type T.
func CodecFor[T any]() (Codec[T], bool) {
	var zero T
	var c any
	switch any(zero).(type) {
	case bool:
		c = BoolCodec
	case int32:
		c = I32Codec
	case int64:
		c = I64Codec
	case uint8:
		c = U8Codec
	case uint32:
		c = U32Codec
	case uint64:
		c = U64Codec
	case struct{}:
		c = UnitCodec
	case string:
		c = StringCodec
	case []byte:
		c = BytesCodec
	default:
		return nil, false
	}
	typed, ok := c.(Codec[T])
	return typed, ok
}

// TagOf returns the tag used for Go type T.
func TagOf[T any]() (Tag, bool) {
	c, ok := CodecFor[T]()
	if !ok {
		return 0, false
	}
	return c.Tag(), true
}
