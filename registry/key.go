package registry

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/caffeineduck/gorc/clvalue"
	"github.com/caffeineduck/gorc/errors"
	"golang.org/x/crypto/blake2b"
)

// KeySize is the width of a function key in bytes.
const KeySize = blake2b.Size256

// Key is the content-derived identifier of a registered function.
type Key [KeySize]byte

// DeriveKey hashes the canonical encoding of (name, shape) with BLAKE2b-256:
// the string encoding of name, a u32 parameter count, then one byte per tag.
func DeriveKey(name string, shape Shape) Key {
	return blake2b.Sum256(canonical(name, shape))
}

func canonical(name string, shape Shape) []byte {
	buf := clvalue.AppendEncode(make([]byte, 0, 4+len(name)+4+len(shape)), clvalue.String(name))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(shape)))
	return append(buf, shape.Bytes()...)
}

// ParseKey reads the hex form of a key.
func ParseKey(s string) (Key, error) {
	var k Key
	if err := k.UnmarshalText([]byte(s)); err != nil {
		return Key{}, err
	}
	return k, nil
}

func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// Short returns the first 8 hex digits, for logs and tables.
func (k Key) Short() string {
	return hex.EncodeToString(k[:4])
}

func (k Key) IsZero() bool {
	return k == Key{}
}

func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Key) UnmarshalText(text []byte) error {
	if hex.DecodedLen(len(text)) != KeySize {
		return errors.InvalidInput(errors.PhaseRegistry, "key must be 64 hex digits")
	}
	if _, err := hex.Decode(k[:], text); err != nil {
		return errors.Wrap(errors.PhaseRegistry, errors.KindInvalidInput, err, "key is not hex")
	}
	return nil
}
