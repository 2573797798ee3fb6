// Package clvalue is the primitive codec for values crossing the guest/host
// boundary.
//
// Every value is a tagged union: a [Tag] discriminant plus a payload. The
// payload encoding is deterministic and little-endian:
//
//	bool    1 byte, 0 or 1
//	u8      1 byte
//	i32/u32 4 bytes
//	i64/u64 8 bytes
//	unit    0 bytes
//	string  u32 length + UTF-8 bytes
//	bytes   u32 length + raw bytes
//
// [Decode] never reinterprets bytes under a tag it does not recognize. It
// fails with a truncated-input error when the input is shorter than the tag's
// minimum, a tag-mismatch error when a stored tag disagrees with the expected
// one, and an invalid-encoding error for bad length prefixes, non-UTF-8 text,
// bool bytes other than 0 and 1, and trailing bytes.
//
// Typed access goes through the [Codec] capability:
//
//	c, _ := clvalue.CodecFor[string]()
//	name, err := c.Decode(payload)
package clvalue
