package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/caffeineduck/gorc/errors"
	"github.com/caffeineduck/gorc/executor"
	"github.com/caffeineduck/gorc/invocation"
	"github.com/caffeineduck/gorc/registry"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

var replCmd = &cobra.Command{
	Use:   "repl <file.wasm>",
	Short: "Interactive prompt against a loaded contract",
	Long: `Load a contract and invoke its entry points interactively.

Commands:
  <name> [tag:value ...]   invoke an entry point
  list                     list entry points
  key <name> [tag ...]     print an entry point key
  reload                   load the contract again
  exit                     leave (or Ctrl+D)

Command history (up/down arrows) and history search (Ctrl+R) are available.`,
	Args: cobra.ExactArgs(1),
	RunE: runRepl,
}

func init() {
	replCmd.Flags().String("history", "", "History file path (default: ~/.gorc_history)")
	rootCmd.AddCommand(replCmd)
}

type replSession struct {
	exec *executor.Executor
	path string
	inst *executor.Instance
	opts []executor.Option
	out  io.Writer
}

func runRepl(cmd *cobra.Command, args []string) error {
	historyFile, _ := cmd.Flags().GetString("history")
	if historyFile == "" {
		home, _ := os.UserHomeDir()
		historyFile = filepath.Join(home, ".gorc_history")
	}

	cfg, _, exec, err := setup(cmd)
	if err != nil {
		return err
	}
	defer exec.Close()

	s := &replSession{exec: exec, path: args[0], opts: cfg.Executor.InvokeOptions(), out: cmd.OutOrStdout()}
	if err := s.reload(cmd.Context()); err != nil {
		return err
	}
	defer s.close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "gorc> ",
		HistoryFile:       historyFile,
		HistoryLimit:      1000,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("initializing readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintf(cmd.ErrOrStderr(), "gorc %s (%d entry points, type 'exit' to quit)\n",
		filepath.Base(s.path), len(s.inst.Entries()))

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			fmt.Fprintln(s.out)
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		if done := s.eval(cmd.Context(), line, cmd.ErrOrStderr()); done {
			return nil
		}
	}
}

// eval runs one line and reports whether the session should end.
func (s *replSession) eval(ctx context.Context, line string, errOut io.Writer) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "exit", "quit":
		return true
	case "list":
		if s.inst == nil {
			fmt.Fprintln(errOut, "Error: no instance loaded, use 'reload'")
			return false
		}
		printEntries(s.out, s.inst.Entries(), false)
	case "key":
		if len(fields) < 2 {
			fmt.Fprintln(errOut, "usage: key <name> [tag ...]")
			return false
		}
		shape, err := registry.ParseShapeText(strings.Join(fields[2:], " "))
		if err != nil {
			fmt.Fprintf(errOut, "Error: %v\n", err)
			return false
		}
		fmt.Fprintln(s.out, registry.DeriveKey(fields[1], shape))
	case "reload":
		if err := s.reload(ctx); err != nil {
			fmt.Fprintf(errOut, "Error: %v\n", err)
		}
	default:
		s.invoke(ctx, fields[0], fields[1:], errOut)
	}
	return false
}

func (s *replSession) invoke(ctx context.Context, name string, specs []string, errOut io.Writer) {
	if s.inst == nil {
		fmt.Fprintln(errOut, "Error: no instance loaded, use 'reload'")
		return
	}
	values, err := parseArgs(specs)
	if err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return
	}
	key := registry.DeriveKey(name, registry.ShapeOf(values))
	res, err := s.inst.Invoke(ctx, key, invocation.NewArgs(values...), s.opts...)
	if err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		if errors.IsFatal(err) {
			s.close()
			fmt.Fprintln(errOut, "instance faulted, use 'reload'")
		}
		return
	}
	fmt.Fprintln(s.out, res)
}

func (s *replSession) reload(ctx context.Context) error {
	inst, err := loadFile(ctx, s.exec, s.path)
	if err != nil {
		return err
	}
	s.close()
	s.inst = inst
	return nil
}

func (s *replSession) close() {
	if s.inst != nil {
		s.inst.Close()
		s.inst = nil
	}
}
