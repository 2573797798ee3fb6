package hostfunc

import (
	"github.com/caffeineduck/gorc/errors"
	"github.com/tetratelabs/wazero/api"
)

// read copies size bytes at ptr out of guest memory.
func read(f *Frame, mod api.Module, ptr, size uint32) ([]byte, bool) {
	if size == 0 {
		return []byte{}, true
	}
	mem := mod.Memory()
	if mem == nil {
		f.Fail(outOfBounds(ptr, size, 0))
		return nil, false
	}
	view, ok := mem.Read(ptr, size)
	if !ok {
		f.Fail(outOfBounds(ptr, size, mem.Size()))
		return nil, false
	}
	return append([]byte(nil), view...), true
}

func write(f *Frame, mod api.Module, ptr uint32, b []byte) bool {
	if len(b) == 0 {
		return true
	}
	mem := mod.Memory()
	if mem == nil {
		f.Fail(outOfBounds(ptr, uint32(len(b)), 0))
		return false
	}
	if !mem.Write(ptr, b) {
		f.Fail(outOfBounds(ptr, uint32(len(b)), mem.Size()))
		return false
	}
	return true
}

func outOfBounds(ptr, size, memSize uint32) *errors.Error {
	return errors.New(errors.PhaseInvoke, errors.KindOutOfBounds).
		Value(ptr).
		Detail("range [%d, %d) outside guest memory of %d bytes", ptr, uint64(ptr)+uint64(size), memSize).
		Build()
}
