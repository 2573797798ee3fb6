// Package wasmtest assembles small WebAssembly binaries for tests. It covers
// the handful of sections and opcodes the contract fixtures need and nothing
// else.
package wasmtest

import (
	"encoding/binary"
	"fmt"
)

// ValType is a wasm value type.
type ValType byte

const (
	I32 ValType = 0x7f
	I64 ValType = 0x7e
)

type funcType struct {
	params, results []ValType
}

type imported struct {
	module, name string
	typ          uint32
}

type function struct {
	typ    uint32
	locals []ValType
	body   []byte
}

type export struct {
	name  string
	kind  byte
	index uint32
}

type segment struct {
	offset uint32
	data   []byte
}

// Module is a wasm module under construction. Imports must be declared
// before any function is defined so that function indices stay stable.
type Module struct {
	types   []funcType
	imports []imported
	funcs   []function
	exports []export
	data    []segment
	pages   uint32
	memory  bool
}

func New() *Module {
	return &Module{}
}

func (m *Module) typeIndex(params, results []ValType) uint32 {
	for i, t := range m.types {
		if string(valBytes(t.params)) == string(valBytes(params)) && string(valBytes(t.results)) == string(valBytes(results)) {
			return uint32(i)
		}
	}
	m.types = append(m.types, funcType{params: params, results: results})
	return uint32(len(m.types) - 1)
}

// Import declares an imported function and returns its index.
func (m *Module) Import(module, name string, params, results []ValType) uint32 {
	if len(m.funcs) > 0 {
		panic("wasmtest: Import after Func")
	}
	m.imports = append(m.imports, imported{module: module, name: name, typ: m.typeIndex(params, results)})
	return uint32(len(m.imports) - 1)
}

// Func defines a function and returns its index.
func (m *Module) Func(params, results, locals []ValType, body *Code) uint32 {
	m.funcs = append(m.funcs, function{typ: m.typeIndex(params, results), locals: locals, body: body.bytes()})
	return uint32(len(m.imports) + len(m.funcs) - 1)
}

func (m *Module) Export(name string, fn uint32) {
	m.exports = append(m.exports, export{name: name, kind: 0x00, index: fn})
}

// Memory declares memory 0 with the given minimum pages, exported as "memory".
func (m *Module) Memory(pages uint32) {
	m.memory = true
	m.pages = pages
	m.exports = append(m.exports, export{name: "memory", kind: 0x02, index: 0})
}

// Data places b at offset in memory 0.
func (m *Module) Data(offset uint32, b []byte) {
	m.data = append(m.data, segment{offset: offset, data: b})
}

// Bytes encodes the module.
func (m *Module) Bytes() []byte {
	out := []byte{0x00, 'a', 's', 'm', 0x01, 0x00, 0x00, 0x00}

	if len(m.types) > 0 {
		var s []byte
		s = uleb(s, uint32(len(m.types)))
		for _, t := range m.types {
			s = append(s, 0x60)
			s = vec(s, valBytes(t.params))
			s = vec(s, valBytes(t.results))
		}
		out = section(out, 1, s)
	}
	if len(m.imports) > 0 {
		var s []byte
		s = uleb(s, uint32(len(m.imports)))
		for _, im := range m.imports {
			s = vec(s, []byte(im.module))
			s = vec(s, []byte(im.name))
			s = append(s, 0x00)
			s = uleb(s, im.typ)
		}
		out = section(out, 2, s)
	}
	if len(m.funcs) > 0 {
		var s []byte
		s = uleb(s, uint32(len(m.funcs)))
		for _, f := range m.funcs {
			s = uleb(s, f.typ)
		}
		out = section(out, 3, s)
	}
	if m.memory {
		s := []byte{0x01, 0x00}
		s = uleb(s, m.pages)
		out = section(out, 5, s)
	}
	if len(m.exports) > 0 {
		var s []byte
		s = uleb(s, uint32(len(m.exports)))
		for _, e := range m.exports {
			s = vec(s, []byte(e.name))
			s = append(s, e.kind)
			s = uleb(s, e.index)
		}
		out = section(out, 7, s)
	}
	if len(m.funcs) > 0 {
		var s []byte
		s = uleb(s, uint32(len(m.funcs)))
		for _, f := range m.funcs {
			var body []byte
			body = uleb(body, uint32(len(f.locals)))
			for _, l := range f.locals {
				body = append(body, 0x01, byte(l))
			}
			body = append(body, f.body...)
			s = vec(s, body)
		}
		out = section(out, 10, s)
	}
	if len(m.data) > 0 {
		var s []byte
		s = uleb(s, uint32(len(m.data)))
		for _, d := range m.data {
			s = append(s, 0x00, 0x41)
			s = sleb(s, int32(d.offset))
			s = append(s, 0x0b)
			s = vec(s, d.data)
		}
		out = section(out, 11, s)
	}
	return out
}

// Code is a function body. Every method appends one instruction.
type Code struct {
	b []byte
}

func NewCode() *Code {
	return &Code{}
}

func (c *Code) I32Const(v int32) *Code {
	c.b = sleb(append(c.b, 0x41), v)
	return c
}

func (c *Code) LocalGet(i uint32) *Code {
	c.b = uleb(append(c.b, 0x20), i)
	return c
}

func (c *Code) LocalSet(i uint32) *Code {
	c.b = uleb(append(c.b, 0x21), i)
	return c
}

func (c *Code) Call(fn uint32) *Code {
	c.b = uleb(append(c.b, 0x10), fn)
	return c
}

func (c *Code) Drop() *Code {
	c.b = append(c.b, 0x1a)
	return c
}

func (c *Code) I32Add() *Code {
	c.b = append(c.b, 0x6a)
	return c
}

func (c *Code) I32Sub() *Code {
	c.b = append(c.b, 0x6b)
	return c
}

// I32Load and I32Store use natural alignment.
func (c *Code) I32Load(offset uint32) *Code {
	c.b = uleb(append(c.b, 0x28, 0x02), offset)
	return c
}

func (c *Code) I32Store(offset uint32) *Code {
	c.b = uleb(append(c.b, 0x36, 0x02), offset)
	return c
}

// MemoryCopy pops (dst, src, n).
func (c *Code) MemoryCopy() *Code {
	c.b = append(c.b, 0xfc, 0x0a, 0x00, 0x00)
	return c
}

func (c *Code) Unreachable() *Code {
	c.b = append(c.b, 0x00)
	return c
}

// Spin never returns.
func (c *Code) Spin() *Code {
	c.b = append(c.b, 0x03, 0x40, 0x0c, 0x00, 0x0b)
	return c
}

func (c *Code) bytes() []byte {
	if c == nil {
		return []byte{0x0b}
	}
	return append(append([]byte(nil), c.b...), 0x0b)
}

func (c *Code) String() string {
	return fmt.Sprintf("% x", c.b)
}

func valBytes(ts []ValType) []byte {
	b := make([]byte, len(ts))
	for i, t := range ts {
		b[i] = byte(t)
	}
	return b
}

func section(out []byte, id byte, payload []byte) []byte {
	return vec(append(out, id), payload)
}

func vec(out, b []byte) []byte {
	return append(uleb(out, uint32(len(b))), b...)
}

func uleb(out []byte, v uint32) []byte {
	return binary.AppendUvarint(out, uint64(v))
}

func sleb(out []byte, v int32) []byte {
	x := int64(v)
	for {
		b := byte(x & 0x7f)
		x >>= 7
		if (x == 0 && b&0x40 == 0) || (x == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}
