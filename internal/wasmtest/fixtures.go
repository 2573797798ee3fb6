package wasmtest

// Tags used by the fixtures.
const (
	tagU32    = 4
	tagUnit   = 9
	tagString = 10
)

// HelloName registers hello_name_ext(string) which returns
// "Hello, " + its argument.
func HelloName() []byte {
	c := NewContract()
	greeting := c.Data([]byte("Hello, "))
	env := c.Env()

	const in, out = Scratch, Scratch + 2048
	body := NewCode().
		// n = get_arg_size(0, string)
		I32Const(0).I32Const(tagString).Call(env.GetArgSize).LocalSet(0).
		I32Const(0).I32Const(tagString).I32Const(in).LocalGet(0).Call(env.GetArg).
		// length prefix of the reply: (n - 4) + 7
		I32Const(out).LocalGet(0).I32Const(3).I32Add().I32Store(0).
		I32Const(out+4).I32Const(int32(greeting)).I32Const(7).MemoryCopy().
		I32Const(out+11).I32Const(in+4).LocalGet(0).I32Const(4).I32Sub().MemoryCopy().
		I32Const(tagString).I32Const(out).LocalGet(0).I32Const(7).I32Add().Call(env.Ret)
	c.Register("hello_name_ext", []byte{tagString}, body)
	return c.Bytes()
}

// Adder registers add(u32, u32) -> u32.
func Adder() []byte {
	c := NewContract()
	env := c.Env()
	body := NewCode().
		I32Const(0).I32Const(tagU32).I32Const(Scratch).I32Const(4).Call(env.GetArg).
		I32Const(1).I32Const(tagU32).I32Const(Scratch+4).I32Const(4).Call(env.GetArg).
		I32Const(Scratch+8).
		I32Const(Scratch).I32Load(0).
		I32Const(Scratch+4).I32Load(0).
		I32Add().I32Store(0).
		I32Const(tagU32).I32Const(Scratch+8).I32Const(4).Call(env.Ret)
	c.RegisterReturning("add", []byte{tagU32, tagU32}, tagU32, body)
	return c.Bytes()
}

// Misbehaving registers one entry per guest failure mode:
//
//	noop()           returns nothing
//	twice()          calls ret twice
//	peek()           reads argument 0 that does not exist
//	boom()           executes unreachable
//	fail()           reverts with code 7
//	late()           calls store_function after the seal
//	spin()           never returns
//	wild()           rets from an address outside memory
//	short()          rets two bytes tagged u32
//	liar() -> u32    declares u32 and returns unit
//	confused(string) asks for argument 0 as u32
func Misbehaving() []byte {
	c := NewContract()
	env := c.Env()

	c.Register("noop", nil, NewCode())
	c.Register("twice", nil, NewCode().
		I32Const(tagUnit).I32Const(0).I32Const(0).Call(env.Ret).
		I32Const(tagUnit).I32Const(0).I32Const(0).Call(env.Ret))
	c.Register("peek", nil, NewCode().
		I32Const(0).I32Const(tagString).Call(env.GetArgSize).Drop())
	c.Register("boom", nil, NewCode().Unreachable())
	c.Register("fail", nil, NewCode().I32Const(7).Call(env.Revert))

	late := NewCode()
	c.StoreFunction(late, "late_entry", nil)
	c.Register("late", nil, late)

	c.Register("spin", nil, NewCode().Spin())
	c.Register("wild", nil, NewCode().
		I32Const(tagU32).I32Const(1<<20).I32Const(4).Call(env.Ret))
	c.Register("short", nil, NewCode().
		I32Const(tagU32).I32Const(Scratch).I32Const(2).Call(env.Ret))
	c.RegisterReturning("liar", nil, tagU32, NewCode().
		I32Const(tagUnit).I32Const(0).I32Const(0).Call(env.Ret))
	c.Register("confused", []byte{tagString}, NewCode().
		I32Const(0).I32Const(tagU32).Call(env.GetArgSize).Drop())
	return c.Bytes()
}

// DuplicateStore registers the same (name, shape) twice during call.
func DuplicateStore() []byte {
	c := NewContract()
	c.Register("dup", []byte{tagString}, NewCode())
	c.StoreFunction(c.call, "dup", []byte{tagString})
	return c.Bytes()
}

// WithoutCall exports an entry but no call.
func WithoutCall() []byte {
	c := NewContract()
	c.Export("orphan", nil, nil, nil, NewCode())
	c.OmitCall()
	return c.Bytes()
}

// UnknownImport imports a function the host does not provide.
func UnknownImport() []byte {
	c := NewContractWithImports([][2]string{{"env", "launch_missiles"}})
	return c.Bytes()
}

// BadShape registers a shape containing an unknown tag byte.
func BadShape() []byte {
	c := NewContract()
	c.Register("odd", []byte{200}, NewCode())
	return c.Bytes()
}

// BadSignature registers an export that takes a parameter.
func BadSignature() []byte {
	c := NewContract()
	c.Export("takes_arg", []ValType{I32}, nil, nil, NewCode())
	c.StoreFunction(c.call, "takes_arg", nil)
	return c.Bytes()
}

// MissingEntry registers a name that is not exported.
func MissingEntry() []byte {
	c := NewContract()
	c.StoreFunction(c.call, "ghost", nil)
	return c.Bytes()
}

// TrapInCall executes unreachable during initialization.
func TrapInCall() []byte {
	c := NewContract()
	c.OnCall(NewCode().Unreachable())
	return c.Bytes()
}
