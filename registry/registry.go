package registry

import (
	"sync"

	"github.com/caffeineduck/gorc/errors"
)

// State is the lifecycle position of a Registry.
type State int

const (
	Uninitialized State = iota
	Populating
	Sealed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Populating:
		return "populating"
	case Sealed:
		return "sealed"
	default:
		return "unknown"
	}
}

// Registry is the per-instance function registry. Writes are accepted only
// between Begin and Seal; reads only after Seal.
type Registry struct {
	mu      sync.RWMutex
	state   State
	builder *Builder
	table   *Table
}

func New() *Registry {
	return &Registry{}
}

// Begin opens the registry for writes. It may be called once; any later
// call reports SealedRegistry.
func (r *Registry) Begin() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state {
	case Uninitialized:
		r.state = Populating
		r.builder = NewBuilder()
		return nil
	case Populating:
		return errors.New(errors.PhaseRegistry, errors.KindSealedRegistry).
			Detail("initialization already in progress").
			Build()
	default:
		return sealedError("initialize")
	}
}

// Store registers an entry and returns its key.
func (r *Registry) Store(e Entry) (Key, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state {
	case Populating:
		return r.builder.Add(e)
	case Sealed:
		return Key{}, sealedError("store " + e.Name)
	default:
		return Key{}, errors.New(errors.PhaseRegistry, errors.KindSealedRegistry).
			Path(e.Name).
			Detail("store outside initialization").
			Build()
	}
}

// Seal freezes the registry. Sealing an uninitialized registry yields an
// empty table.
func (r *Registry) Seal() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state {
	case Sealed:
		return sealedError("seal")
	case Uninitialized:
		r.builder = NewBuilder()
	}
	r.table = r.builder.Freeze()
	r.builder = nil
	r.state = Sealed
	return nil
}

// Table returns the frozen table, or NotSealed before Seal.
func (r *Registry) Table() (*Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.state != Sealed {
		return nil, errors.New(errors.PhaseRegistry, errors.KindNotSealed).
			Detail("registry is %s", r.state).
			Build()
	}
	return r.table, nil
}

func (r *Registry) Resolve(key Key) (Entry, error) {
	t, err := r.Table()
	if err != nil {
		return Entry{}, err
	}
	return t.Resolve(key)
}

// Entries lists sealed entries; nil before Seal.
func (r *Registry) Entries() []Entry {
	t, err := r.Table()
	if err != nil {
		return nil
	}
	return t.Entries()
}

func (r *Registry) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

func sealedError(op string) *errors.Error {
	return errors.New(errors.PhaseRegistry, errors.KindSealedRegistry).
		Detail("cannot %s: registry is sealed", op).
		Build()
}
