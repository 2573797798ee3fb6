package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/caffeineduck/gorc/clvalue"
	gorcerrors "github.com/caffeineduck/gorc/errors"
	"github.com/caffeineduck/gorc/executor"
	"github.com/caffeineduck/gorc/internal/wasmtest"
	"github.com/caffeineduck/gorc/registry"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func executeCommand(root *cobra.Command, args ...string) (string, error) {
	resetFlags(root)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// resetFlags restores flag defaults between runs of the shared command tree.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func writeContract(t *testing.T, name string, bin []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name+".wasm")
	if err := os.WriteFile(path, bin, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCLIHelp(t *testing.T) {
	output, err := executeCommand(rootCmd, "--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectedPhrases := []string{
		"gorc",
		"WebAssembly",
		"key",
		"inspect",
		"invoke",
		"repl",
		"serve",
		"--config",
		"--memory",
		"--no-cache",
		"--log-level",
	}
	for _, phrase := range expectedPhrases {
		if !strings.Contains(output, phrase) {
			t.Errorf("help output should contain %q", phrase)
		}
	}
}

func TestCLIServeHelp(t *testing.T) {
	output, err := executeCommand(rootCmd, "serve", "--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, phrase := range []string{"--listen", "/contracts", "/invoke", "/keys", "/metrics"} {
		if !strings.Contains(output, phrase) {
			t.Errorf("serve help output should contain %q", phrase)
		}
	}
}

func TestCLIKey(t *testing.T) {
	output, err := executeCommand(rootCmd, "key", "hello_name_ext", "string")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := registry.DeriveKey("hello_name_ext", registry.Shape{clvalue.TagString}).String()
	if strings.TrimSpace(output) != want {
		t.Errorf("expected %s, got %q", want, output)
	}

	output, err = executeCommand(rootCmd, "key", "add", "u32,u32")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want = registry.DeriveKey("add", registry.Shape{clvalue.TagU32, clvalue.TagU32}).String()
	if strings.TrimSpace(output) != want {
		t.Errorf("expected %s, got %q", want, output)
	}
}

func TestCLIKeyErrors(t *testing.T) {
	if _, err := executeCommand(rootCmd, "key"); err == nil {
		t.Error("expected error without a name")
	}
	if _, err := executeCommand(rootCmd, "key", "x", "float"); err == nil {
		t.Error("expected error for an unknown tag")
	}
}

func TestCLIInspect(t *testing.T) {
	path := writeContract(t, "adder", wasmtest.Adder())
	output, err := executeCommand(rootCmd, "--no-cache", "inspect", path)
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, output)
	}

	key := registry.DeriveKey("add", registry.Shape{clvalue.TagU32, clvalue.TagU32})
	for _, phrase := range []string{"KEY", "NAME", "SHAPE", "RESULT", key.Short(), "add", "(u32, u32)", "u32"} {
		if !strings.Contains(output, phrase) {
			t.Errorf("inspect output should contain %q:\n%s", phrase, output)
		}
	}

	output, err = executeCommand(rootCmd, "--no-cache", "inspect", "--full", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(output, key.String()) {
		t.Errorf("inspect --full should print the full key:\n%s", output)
	}
}

func TestCLIInvoke(t *testing.T) {
	hello := writeContract(t, "hello", wasmtest.HelloName())
	adder := writeContract(t, "adder", wasmtest.Adder())
	addKey := registry.DeriveKey("add", registry.Shape{clvalue.TagU32, clvalue.TagU32})

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"by name", []string{hello, "hello_name_ext", "--arg", "string:World"}, "string:Hello, World"},
		{"expect", []string{adder, "add", "-a", "u32:3", "-a", "u32:4", "--expect", "u32"}, "u32:7"},
		{"by key", []string{adder, "--key", addKey.String(), "-a", "u32:40", "-a", "u32:2"}, "u32:42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := executeCommand(rootCmd, append([]string{"--no-cache", "invoke"}, tt.args...)...)
			if err != nil {
				t.Fatalf("unexpected error: %v\n%s", err, output)
			}
			if !strings.Contains(output, tt.want) {
				t.Errorf("expected output to contain %q, got %q", tt.want, output)
			}
		})
	}
}

func TestCLIInvokeErrors(t *testing.T) {
	misbehaving := writeContract(t, "misbehaving", wasmtest.Misbehaving())
	adder := writeContract(t, "adder", wasmtest.Adder())

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"revert", []string{misbehaving, "fail"}, gorcerrors.ErrReverted},
		{"unknown entry", []string{adder, "add", "-a", "u32:1"}, gorcerrors.ErrNotFound},
		{"bad argument", []string{adder, "add", "-a", "u32"}, nil},
		{"no name", []string{adder}, nil},
		{"bad key", []string{adder, "--key", "zz"}, nil},
		{"bad expect", []string{adder, "add", "--expect", "f32"}, nil},
		{"timeout", []string{misbehaving, "spin", "--timeout", "50ms"}, gorcerrors.ErrFaulted},
		{"missing file", []string{filepath.Join(t.TempDir(), "none.wasm"), "x"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(rootCmd, append([]string{"--no-cache", "invoke"}, tt.args...)...)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCLIConfigFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "gorc.toml")
	if err := os.WriteFile(cfgPath, []byte("[executor]\ntimeout = \"-1s\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	path := writeContract(t, "adder", wasmtest.Adder())
	if _, err := executeCommand(rootCmd, "--config", cfgPath, "inspect", path); err == nil {
		t.Error("expected error for an invalid config file")
	}
	if _, err := executeCommand(rootCmd, "--no-cache", "--log-level", "loud", "inspect", path); err == nil {
		t.Error("expected error for an unknown log level")
	}
}

func TestReplEval(t *testing.T) {
	exec, err := executor.New()
	if err != nil {
		t.Fatal(err)
	}
	defer exec.Close()

	var out, errOut bytes.Buffer
	s := &replSession{
		exec: exec,
		path: writeContract(t, "misbehaving", wasmtest.Misbehaving()),
		opts: []executor.Option{executor.WithTimeout(50 * time.Millisecond)},
		out:  &out,
	}
	ctx := context.Background()
	if err := s.reload(ctx); err != nil {
		t.Fatal(err)
	}
	defer s.close()

	steps := []struct {
		line    string
		out     string
		errOut  string
		done    bool
		noFault bool
	}{
		{line: "", noFault: true},
		{line: "noop", out: "<none>", noFault: true},
		{line: "fail", errOut: "reverted", noFault: true},
		{line: "list", out: "liar", noFault: true},
		{line: "key noop", out: registry.DeriveKey("noop", nil).String(), noFault: true},
		{line: "noop u32", errOut: "expected tag:value", noFault: true},
		{line: "spin", errOut: "instance faulted"},
		{line: "noop", errOut: "no instance loaded"},
		{line: "reload"},
		{line: "noop", out: "<none>", noFault: true},
		{line: "exit", done: true},
	}
	for _, step := range steps {
		out.Reset()
		errOut.Reset()
		done := s.eval(ctx, step.line, &errOut)
		if done != step.done {
			t.Fatalf("%q: expected done=%v", step.line, step.done)
		}
		if !strings.Contains(out.String(), step.out) {
			t.Errorf("%q: expected output %q, got %q", step.line, step.out, out.String())
		}
		if !strings.Contains(errOut.String(), step.errOut) {
			t.Errorf("%q: expected error output %q, got %q", step.line, step.errOut, errOut.String())
		}
		if step.noFault && s.inst == nil {
			t.Errorf("%q: instance should still be loaded", step.line)
		}
	}
}
