package executor_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/caffeineduck/gorc/clvalue"
	"github.com/caffeineduck/gorc/executor"
	"github.com/caffeineduck/gorc/invocation"
	"github.com/caffeineduck/gorc/registry"
)

// buildHelloName compiles examples/hello_name with the Go toolchain running
// the tests, exercising the contract package's wasmimport bindings.
func buildHelloName(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping wasip1 build in short mode")
	}
	goBin, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go toolchain not on PATH")
	}

	out := filepath.Join(t.TempDir(), "hello_name.wasm")
	cmd := exec.Command(goBin, "build", "-buildmode=c-shared", "-o", out, "./examples/hello_name")
	cmd.Dir = ".."
	cmd.Env = append(os.Environ(), "GOOS=wasip1", "GOARCH=wasm", "CGO_ENABLED=0")
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("building hello_name: %v\n%s", err, output)
	}
	return out
}

func TestGoGuestHelloName(t *testing.T) {
	src, err := executor.ReadFile(buildHelloName(t))
	if err != nil {
		t.Fatal(err)
	}
	inst, err := sharedExec.Load(context.Background(), src)
	if err != nil {
		t.Fatalf("failed to load Go contract: %v", err)
	}
	defer inst.Close()

	want := registry.DeriveKey("hello_name_ext", registry.Shape{clvalue.TagString})
	if entries := inst.Entries(); len(entries) != 1 || entries[0].Key != want {
		t.Fatalf("expected one entry with key %s, got %v", want, entries)
	}

	for _, name := range []string{"World", "", "世界"} {
		res, err := inst.Invoke(context.Background(), want, invocation.NewArgs(clvalue.String(name)))
		if err != nil {
			t.Fatalf("invoke(%q) failed: %v", name, err)
		}
		got, err := invocation.ResultAs[string](res)
		if err != nil {
			t.Fatal(err)
		}
		if got != "Hello, "+name {
			t.Errorf("expected %q, got %q", "Hello, "+name, got)
		}
	}

	// A call under the wrong shape fails and leaves the instance usable.
	if _, err := inst.Call(context.Background(), "hello_name_ext", clvalue.U32(1)); err == nil {
		t.Fatal("expected an error for a u32 argument")
	}
	if _, err := inst.Call(context.Background(), "hello_name_ext", clvalue.String("again")); err != nil {
		t.Fatalf("instance unusable after a failed call: %v", err)
	}
}
