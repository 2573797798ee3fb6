package hostfunc

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/caffeineduck/gorc/clvalue"
	"github.com/caffeineduck/gorc/errors"
	"github.com/caffeineduck/gorc/registry"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// ModuleName is the import module contracts link against.
const ModuleName = "env"

// Func describes one primitive of the host module. Every parameter and
// result is an i32.
type Func struct {
	Name    string
	Params  []string
	Results []string
	fn      func(ctx context.Context, f *Frame, mod api.Module, stack []uint64)
}

func (fn Func) paramTypes() []api.ValueType  { return i32s(len(fn.Params)) }
func (fn Func) resultTypes() []api.ValueType { return i32s(len(fn.Results)) }

var funcs = []Func{
	{Name: "get_arg_size", Params: []string{"index", "tag"}, Results: []string{"size"}, fn: getArgSize},
	{Name: "get_arg", Params: []string{"index", "tag", "ptr", "len"}, fn: getArg},
	{Name: "ret", Params: []string{"tag", "ptr", "len"}, fn: ret},
	{Name: "store_function", Params: []string{"name_ptr", "name_len", "shape_ptr", "shape_len", "key_ptr"}, fn: storeFunction},
	{Name: "store_function_returning", Params: []string{"name_ptr", "name_len", "shape_ptr", "shape_len", "result_tag", "key_ptr"}, fn: storeFunctionReturning},
	{Name: "revert", Params: []string{"code"}, fn: revert},
}

// Funcs lists the primitives in export order.
func Funcs() []Func {
	return append([]Func(nil), funcs...)
}

// Lookup finds a primitive by import name.
func Lookup(name string) (Func, bool) {
	for _, fn := range funcs {
		if fn.Name == name {
			return fn, true
		}
	}
	return Func{}, false
}

// Instantiate registers the host module on rt.
func Instantiate(ctx context.Context, rt wazero.Runtime) (api.Module, error) {
	builder := rt.NewHostModuleBuilder(ModuleName)
	for _, fn := range funcs {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(bind(fn), fn.paramTypes(), fn.resultTypes()).
			WithParameterNames(fn.Params...).
			WithResultNames(fn.Results...).
			Export(fn.Name)
	}
	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, fmt.Errorf("instantiate %s: %w", ModuleName, err)
	}
	return mod, nil
}

// bind resolves the frame and traps when the primitive records an error.
func bind(fn Func) api.GoModuleFunc {
	return func(ctx context.Context, mod api.Module, stack []uint64) {
		f, ok := FrameFrom(ctx)
		if !ok {
			panic(errors.New(errors.PhaseInvoke, errors.KindFaulted).
				Detail("%s called outside a host call", fn.Name).
				Build())
		}
		fn.fn(ctx, f, mod, stack)
		if err := f.Err(); err != nil {
			panic(err)
		}
	}
}

func getArgSize(_ context.Context, f *Frame, _ api.Module, stack []uint64) {
	tag, ok := tagParam(f, stack[1])
	if !ok {
		return
	}
	n, err := f.GetArgSize(int(api.DecodeI32(stack[0])), tag)
	if err != nil {
		return
	}
	stack[0] = api.EncodeI32(int32(n))
}

func getArg(_ context.Context, f *Frame, mod api.Module, stack []uint64) {
	tag, ok := tagParam(f, stack[1])
	if !ok {
		return
	}
	ptr, size := api.DecodeU32(stack[2]), api.DecodeU32(stack[3])
	payload, err := f.GetArg(int(api.DecodeI32(stack[0])), tag)
	if err != nil {
		return
	}
	if uint32(len(payload)) != size {
		f.Fail(errors.New(errors.PhaseArgument, errors.KindOutOfBounds).
			Path(fmt.Sprintf("arg[%d]", api.DecodeI32(stack[0]))).
			Detail("buffer of %d bytes for a payload of %d", size, len(payload)).
			Build())
		return
	}
	write(f, mod, ptr, payload)
}

func ret(_ context.Context, f *Frame, mod api.Module, stack []uint64) {
	tag, ok := tagParam(f, stack[0])
	if !ok {
		return
	}
	payload, ok := read(f, mod, api.DecodeU32(stack[1]), api.DecodeU32(stack[2]))
	if !ok {
		return
	}
	_ = f.Ret(tag, payload)
}

func storeFunction(_ context.Context, f *Frame, mod api.Module, stack []uint64) {
	name, shape, ok := readSignature(f, mod, stack)
	if !ok {
		return
	}
	key, err := f.StoreFunction(name, shape)
	if err != nil {
		return
	}
	write(f, mod, api.DecodeU32(stack[4]), key[:])
}

func storeFunctionReturning(_ context.Context, f *Frame, mod api.Module, stack []uint64) {
	name, shape, ok := readSignature(f, mod, stack)
	if !ok {
		return
	}
	result, ok := tagParam(f, stack[4])
	if !ok {
		return
	}
	key, err := f.StoreFunctionReturning(name, shape, result)
	if err != nil {
		return
	}
	write(f, mod, api.DecodeU32(stack[5]), key[:])
}

func revert(_ context.Context, f *Frame, _ api.Module, stack []uint64) {
	_ = f.Revert(api.DecodeU32(stack[0]))
}

func readSignature(f *Frame, mod api.Module, stack []uint64) (string, registry.Shape, bool) {
	raw, ok := read(f, mod, api.DecodeU32(stack[0]), api.DecodeU32(stack[1]))
	if !ok {
		return "", nil, false
	}
	if !utf8.Valid(raw) {
		f.Fail(errors.New(errors.PhaseRegistry, errors.KindInvalidEntry).
			Detail("function name is not valid UTF-8").
			Build())
		return "", nil, false
	}
	shapeBytes, ok := read(f, mod, api.DecodeU32(stack[2]), api.DecodeU32(stack[3]))
	if !ok {
		return "", nil, false
	}
	shape, err := registry.ParseShape(shapeBytes)
	if err != nil {
		f.Fail(err)
		return "", nil, false
	}
	return string(raw), shape, true
}

func tagParam(f *Frame, raw uint64) (clvalue.Tag, bool) {
	v := api.DecodeU32(raw)
	if v > 0xff || !clvalue.Tag(v).Valid() {
		f.Fail(errors.New(errors.PhaseDecode, errors.KindInvalidEncoding).
			Value(v).
			Detail("unknown tag %d", v).
			Build())
		return 0, false
	}
	return clvalue.Tag(v), true
}

func i32s(n int) []api.ValueType {
	ts := make([]api.ValueType, n)
	for i := range ts {
		ts[i] = api.ValueTypeI32
	}
	return ts
}
