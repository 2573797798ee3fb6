//go:build wasm

package contract

import (
	"unsafe"

	"github.com/caffeineduck/gorc/clvalue"
	"github.com/caffeineduck/gorc/registry"
)

//go:wasmimport env get_arg_size
func hostGetArgSize(index, tag uint32) uint32

//go:wasmimport env get_arg
func hostGetArg(index, tag uint32, ptr unsafe.Pointer, size uint32)

//go:wasmimport env ret
func hostRet(tag uint32, ptr unsafe.Pointer, size uint32)

//go:wasmimport env store_function
func hostStoreFunction(namePtr unsafe.Pointer, nameLen uint32, shapePtr unsafe.Pointer, shapeLen uint32, keyPtr unsafe.Pointer)

//go:wasmimport env store_function_returning
func hostStoreFunctionReturning(namePtr unsafe.Pointer, nameLen uint32, shapePtr unsafe.Pointer, shapeLen uint32, result uint32, keyPtr unsafe.Pointer)

//go:wasmimport env revert
func hostRevert(code uint32)

var current Host = wasmHost{}

type wasmHost struct{}

func (wasmHost) GetArgSize(index uint32, tag clvalue.Tag) uint32 {
	return hostGetArgSize(index, uint32(tag))
}

func (wasmHost) GetArg(index uint32, tag clvalue.Tag, buf []byte) {
	hostGetArg(index, uint32(tag), unsafe.Pointer(unsafe.SliceData(buf)), uint32(len(buf)))
}

func (wasmHost) Ret(tag clvalue.Tag, payload []byte) {
	hostRet(uint32(tag), unsafe.Pointer(unsafe.SliceData(payload)), uint32(len(payload)))
}

func (wasmHost) StoreFunction(name string, shape []byte) registry.Key {
	var key registry.Key
	hostStoreFunction(
		unsafe.Pointer(unsafe.StringData(name)), uint32(len(name)),
		unsafe.Pointer(unsafe.SliceData(shape)), uint32(len(shape)),
		unsafe.Pointer(&key),
	)
	return key
}

func (wasmHost) StoreFunctionReturning(name string, shape []byte, result clvalue.Tag) registry.Key {
	var key registry.Key
	hostStoreFunctionReturning(
		unsafe.Pointer(unsafe.StringData(name)), uint32(len(name)),
		unsafe.Pointer(unsafe.SliceData(shape)), uint32(len(shape)),
		uint32(result),
		unsafe.Pointer(&key),
	)
	return key
}

func (wasmHost) Revert(code uint32) {
	hostRevert(code)
}
