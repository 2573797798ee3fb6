package registry

import (
	"sort"

	"github.com/caffeineduck/gorc/clvalue"
	"github.com/caffeineduck/gorc/errors"
)

// Builder accumulates entries while a module initializes.
type Builder struct {
	entries map[Key]Entry
	order   []Key
}

func NewBuilder() *Builder {
	return &Builder{entries: make(map[Key]Entry)}
}

// Add derives the entry's key and stores it. The same (name, shape) pair
// may be stored once; a differing shape under the same name is a distinct
// function.
func (b *Builder) Add(e Entry) (Key, error) {
	if e.Name == "" {
		return Key{}, errors.New(errors.PhaseRegistry, errors.KindInvalidEntry).
			Detail("function name is empty").
			Build()
	}
	if e.Callable == nil {
		return Key{}, errors.New(errors.PhaseRegistry, errors.KindInvalidEntry).
			Path(e.Name).
			Detail("no callable bound").
			Build()
	}
	for i, tag := range e.Shape {
		if !tag.Valid() {
			return Key{}, errors.New(errors.PhaseRegistry, errors.KindInvalidEntry).
				Path(e.Name).
				Value(tag).
				Detail("unknown tag %d at position %d", uint8(tag), i).
				Build()
		}
	}
	if e.HasResult && !e.Result.Valid() {
		return Key{}, errors.New(errors.PhaseRegistry, errors.KindInvalidEntry).
			Path(e.Name).
			Value(e.Result).
			Detail("unknown result tag %d", uint8(e.Result)).
			Build()
	}

	key := DeriveKey(e.Name, e.Shape)
	if _, exists := b.entries[key]; exists {
		return Key{}, errors.New(errors.PhaseRegistry, errors.KindDuplicateRegistration).
			Path(e.Name).
			Value(key).
			Detail("%s already registered", e.Name+e.Shape.String()).
			Build()
	}
	e.Key = key
	e.Shape = append(Shape(nil), e.Shape...)
	b.entries[key] = e
	b.order = append(b.order, key)
	return key, nil
}

func (b *Builder) Len() int { return len(b.entries) }

// Freeze returns an immutable table of everything added so far. The builder
// may keep being used; the table is unaffected.
func (b *Builder) Freeze() *Table {
	t := &Table{
		byKey:  make(map[Key]Entry, len(b.entries)),
		sorted: make([]Entry, 0, len(b.entries)),
	}
	for _, key := range b.order {
		e := b.entries[key]
		t.byKey[key] = e
		t.sorted = append(t.sorted, e)
	}
	sort.Slice(t.sorted, func(i, j int) bool {
		a, c := t.sorted[i], t.sorted[j]
		if a.Name != c.Name {
			return a.Name < c.Name
		}
		return string(a.Shape.Bytes()) < string(c.Shape.Bytes())
	})
	return t
}

// Table is a frozen key to entry map, safe for concurrent reads.
type Table struct {
	byKey  map[Key]Entry
	sorted []Entry
}

// Resolve returns the entry for key.
func (t *Table) Resolve(key Key) (Entry, error) {
	e, ok := t.byKey[key]
	if !ok {
		return Entry{}, errors.New(errors.PhaseRegistry, errors.KindNotFound).
			Value(key).
			Detail("no function with key %s", key).
			Build()
	}
	return e.clone(), nil
}

// Lookup derives the key for (name, shape) and resolves it.
func (t *Table) Lookup(name string, shape Shape) (Entry, error) {
	e, err := t.Resolve(DeriveKey(name, shape))
	if err != nil {
		return Entry{}, errors.New(errors.PhaseRegistry, errors.KindNotFound).
			Path(name).
			Detail("no function %s%s", name, shape).
			Build()
	}
	return e, nil
}

// LookupArgs resolves the function whose shape matches args.
func (t *Table) LookupArgs(name string, args []clvalue.Value) (Entry, error) {
	return t.Lookup(name, ShapeOf(args))
}

// Named returns every entry registered under name, in shape order.
func (t *Table) Named(name string) []Entry {
	var out []Entry
	for _, e := range t.sorted {
		if e.Name == name {
			out = append(out, e.clone())
		}
	}
	return out
}

// Entries returns all entries ordered by name then shape.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.sorted))
	for i, e := range t.sorted {
		out[i] = e.clone()
	}
	return out
}

func (t *Table) Len() int { return len(t.sorted) }
