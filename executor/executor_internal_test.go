package executor

import (
	"context"
	"testing"

	"github.com/caffeineduck/gorc/internal/wasmtest"
)

func TestCompileCacheByContent(t *testing.T) {
	exec, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer exec.Close()

	ctx := context.Background()
	for _, name := range []string{"a", "b"} {
		inst, err := exec.Load(ctx, WASM(name, wasmtest.HelloName()))
		if err != nil {
			t.Fatal(err)
		}
		inst.Close()
	}
	if _, err := exec.Load(ctx, WASM("adder", wasmtest.Adder())); err != nil {
		t.Fatal(err)
	}

	exec.mu.RLock()
	defer exec.mu.RUnlock()
	if len(exec.compiled) != 2 {
		t.Errorf("expected 2 cached modules, got %d", len(exec.compiled))
	}
}

func TestOutcomeLabel(t *testing.T) {
	if outcomeLabel(nil) != outcomeOK {
		t.Error("nil error must be ok")
	}
	if got := outcomeLabel(closedError("x")); got != "closed" {
		t.Errorf("expected closed, got %s", got)
	}
}

func TestDiskCache(t *testing.T) {
	dir := t.TempDir()
	exec, err := New(WithDiskCache(dir), WithMemoryLimit(MemoryLimit16MB))
	if err != nil {
		t.Fatal(err)
	}
	defer exec.Close()

	inst, err := exec.Load(context.Background(), WASM("hello", wasmtest.HelloName()))
	if err != nil {
		t.Fatal(err)
	}
	inst.Close()
}
