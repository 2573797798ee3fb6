package wasmtest

// Env holds the function indices of the contract imports, in the order
// NewContract declares them.
type Env struct {
	GetArgSize             uint32
	GetArg                 uint32
	Ret                    uint32
	StoreFunction          uint32
	StoreFunctionReturning uint32
	Revert                 uint32
}

// Scratch is the first guest address not used for static data.
const Scratch = 1024

// Contract builds a module in the shape the loader expects: env imports, one
// page of exported memory, entry exports, and a call export that registers
// every entry.
type Contract struct {
	m        *Module
	env      Env
	call     *Code
	heap     uint32
	skipCall bool
}

func NewContract() *Contract {
	return NewContractWithImports(nil)
}

// NewContractWithImports declares extra imports after the contract ones.
// Each extra import takes and returns nothing.
func NewContractWithImports(extra [][2]string) *Contract {
	m := New()
	i32 := []ValType{I32}
	env := Env{
		GetArgSize:             m.Import("env", "get_arg_size", []ValType{I32, I32}, i32),
		GetArg:                 m.Import("env", "get_arg", []ValType{I32, I32, I32, I32}, nil),
		Ret:                    m.Import("env", "ret", []ValType{I32, I32, I32}, nil),
		StoreFunction:          m.Import("env", "store_function", []ValType{I32, I32, I32, I32, I32}, nil),
		StoreFunctionReturning: m.Import("env", "store_function_returning", []ValType{I32, I32, I32, I32, I32, I32}, nil),
		Revert:                 m.Import("env", "revert", i32, nil),
	}
	for _, im := range extra {
		m.Import(im[0], im[1], nil, nil)
	}
	m.Memory(1)
	return &Contract{m: m, env: env, call: NewCode(), heap: 16}
}

func (c *Contract) Env() Env { return c.env }

// Data stores b in the static area and returns its address.
func (c *Contract) Data(b []byte) uint32 {
	addr := c.heap
	c.m.Data(addr, b)
	c.heap += uint32(len(b)+7) &^ 7
	if c.heap > Scratch {
		panic("wasmtest: static data overflows scratch area")
	}
	return addr
}

// Register exports body as name and registers (name, shape) in call.
func (c *Contract) Register(name string, shape []byte, body *Code) {
	c.Export(name, nil, nil, []ValType{I32}, body)
	c.StoreFunction(c.call, name, shape)
}

// RegisterReturning is Register with a declared result tag.
func (c *Contract) RegisterReturning(name string, shape []byte, result byte, body *Code) {
	c.Export(name, nil, nil, []ValType{I32}, body)
	c.storeCall(c.call, name, shape, int32(result), true)
}

// StoreFunction appends a store_function call for (name, shape) to code.
func (c *Contract) StoreFunction(code *Code, name string, shape []byte) {
	c.storeCall(code, name, shape, 0, false)
}

func (c *Contract) storeCall(code *Code, name string, shape []byte, result int32, returning bool) {
	namePtr := c.Data([]byte(name))
	shapePtr := uint32(0)
	if len(shape) > 0 {
		shapePtr = c.Data(shape)
	}
	keyPtr := c.Data(make([]byte, 32))
	code.I32Const(int32(namePtr)).
		I32Const(int32(len(name))).
		I32Const(int32(shapePtr)).
		I32Const(int32(len(shape)))
	if returning {
		code.I32Const(result).I32Const(int32(keyPtr)).Call(c.env.StoreFunctionReturning)
		return
	}
	code.I32Const(int32(keyPtr)).Call(c.env.StoreFunction)
}

// Export defines and exports a function without registering it.
func (c *Contract) Export(name string, params, results, locals []ValType, body *Code) {
	c.m.Export(name, c.m.Func(params, results, locals, body))
}

// OnCall appends instructions to the end of call.
func (c *Contract) OnCall(code *Code) {
	c.call.b = append(c.call.b, code.b...)
}

// OmitCall leaves the call export out.
func (c *Contract) OmitCall() {
	c.skipCall = true
}

func (c *Contract) Bytes() []byte {
	if !c.skipCall {
		c.Export("call", nil, nil, nil, c.call)
		c.skipCall = true
	}
	return c.m.Bytes()
}
