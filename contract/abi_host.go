//go:build !wasm

package contract

import (
	"github.com/caffeineduck/gorc/clvalue"
	"github.com/caffeineduck/gorc/errors"
	"github.com/caffeineduck/gorc/hostfunc"
	"github.com/caffeineduck/gorc/registry"
)

var current Host = detached{}

// SetHost installs h and returns a function restoring the previous host.
// Contracts run one call at a time, so SetHost is not safe for concurrent
// use.
func SetHost(h Host) (restore func()) {
	prev := current
	current = h
	return func() { current = prev }
}

type detached struct{}

func (detached) GetArgSize(uint32, clvalue.Tag) uint32 { panic("contract: no host installed") }
func (detached) GetArg(uint32, clvalue.Tag, []byte)    { panic("contract: no host installed") }
func (detached) Ret(clvalue.Tag, []byte)               { panic("contract: no host installed") }
func (detached) Revert(uint32)                         { panic("contract: no host installed") }

func (detached) StoreFunction(string, []byte) registry.Key {
	panic("contract: no host installed")
}

func (detached) StoreFunctionReturning(string, []byte, clvalue.Tag) registry.Key {
	panic("contract: no host installed")
}

// FrameHost adapts a host frame so SDK code can run as a native contract.
// Like the wasm host module, it aborts the call by panicking with the
// recorded error.
func FrameHost(f *hostfunc.Frame) Host {
	return frameHost{f: f}
}

type frameHost struct {
	f *hostfunc.Frame
}

func (h frameHost) GetArgSize(index uint32, tag clvalue.Tag) uint32 {
	n, err := h.f.GetArgSize(int(index), tag)
	check(err)
	return uint32(n)
}

func (h frameHost) GetArg(index uint32, tag clvalue.Tag, buf []byte) {
	payload, err := h.f.GetArg(int(index), tag)
	check(err)
	if len(payload) != len(buf) {
		panic(h.f.Fail(outOfBounds(len(buf), len(payload))))
	}
	copy(buf, payload)
}

func (h frameHost) Ret(tag clvalue.Tag, payload []byte) {
	check(h.f.Ret(tag, payload))
}

func (h frameHost) StoreFunction(name string, shape []byte) registry.Key {
	s, err := registry.ParseShape(shape)
	if err != nil {
		panic(h.f.Fail(err))
	}
	key, err := h.f.StoreFunction(name, s)
	check(err)
	return key
}

func (h frameHost) StoreFunctionReturning(name string, shape []byte, result clvalue.Tag) registry.Key {
	s, err := registry.ParseShape(shape)
	if err != nil {
		panic(h.f.Fail(err))
	}
	key, err := h.f.StoreFunctionReturning(name, s, result)
	check(err)
	return key
}

func (h frameHost) Revert(code uint32) {
	panic(h.f.Revert(code))
}

func outOfBounds(buf, payload int) error {
	return errors.New(errors.PhaseArgument, errors.KindOutOfBounds).
		Detail("buffer of %d bytes for a payload of %d", buf, payload).
		Build()
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}
