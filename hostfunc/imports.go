package hostfunc

import (
	"github.com/caffeineduck/gorc/errors"
	"github.com/tetratelabs/wazero/api"
)

// WASIModuleName is the only other import module a contract may use. Go and
// TinyGo reactors link it for their runtime.
const WASIModuleName = "wasi_snapshot_preview1"

// ValidateImports checks a module's function imports against the host
// module. Unknown env names, mismatched signatures and imports from other
// modules fail with ErrInvalidImport.
func ValidateImports(defs []api.FunctionDefinition) error {
	for _, def := range defs {
		module, name, _ := def.Import()
		switch module {
		case WASIModuleName:
			continue
		case ModuleName:
		default:
			return invalidImport(module, name, "module is not provided by the host")
		}

		fn, ok := Lookup(name)
		if !ok {
			return invalidImport(module, name, "no such host function")
		}
		if !sameTypes(def.ParamTypes(), fn.paramTypes()) || !sameTypes(def.ResultTypes(), fn.resultTypes()) {
			return invalidImport(module, name, "signature does not match")
		}
	}
	return nil
}

func invalidImport(module, name, detail string) *errors.Error {
	return errors.New(errors.PhaseLoad, errors.KindInvalidImport).
		Path(module, name).
		Detail("%s.%s: %s", module, name, detail).
		Build()
}

func sameTypes(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
