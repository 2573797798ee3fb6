package clvalue

import "encoding/binary"

// Encode returns the payload encoding of v, without its tag.
func Encode(v Value) []byte {
	return AppendEncode(make([]byte, 0, v.tag.MinSize()+payloadLen(v)), v)
}

// EncodeTagged returns the tag byte followed by the payload.
func EncodeTagged(v Value) []byte {
	dst := make([]byte, 0, 1+v.tag.MinSize()+payloadLen(v))
	return AppendEncode(append(dst, byte(v.tag)), v)
}

// AppendEncode appends the payload encoding of v to dst.
func AppendEncode(dst []byte, v Value) []byte {
	switch v.tag {
	case TagBool:
		if b, _ := v.v.(bool); b {
			return append(dst, 1)
		}
		return append(dst, 0)
	case TagI32:
		n, _ := v.v.(int32)
		return binary.LittleEndian.AppendUint32(dst, uint32(n))
	case TagI64:
		n, _ := v.v.(int64)
		return binary.LittleEndian.AppendUint64(dst, uint64(n))
	case TagU8:
		n, _ := v.v.(uint8)
		return append(dst, n)
	case TagU32:
		n, _ := v.v.(uint32)
		return binary.LittleEndian.AppendUint32(dst, n)
	case TagU64:
		n, _ := v.v.(uint64)
		return binary.LittleEndian.AppendUint64(dst, n)
	case TagUnit:
		return dst
	case TagString:
		s, _ := v.v.(string)
		dst = binary.LittleEndian.AppendUint32(dst, uint32(len(s)))
		return append(dst, s...)
	case TagBytes:
		b, _ := v.v.([]byte)
		dst = binary.LittleEndian.AppendUint32(dst, uint32(len(b)))
		return append(dst, b...)
	}
	return dst
}

func payloadLen(v Value) int {
	switch x := v.v.(type) {
	case string:
		return len(x)
	case []byte:
		return len(x)
	}
	return 0
}
