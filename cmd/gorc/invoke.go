package main

import (
	"fmt"

	"github.com/caffeineduck/gorc/clvalue"
	"github.com/caffeineduck/gorc/executor"
	"github.com/caffeineduck/gorc/invocation"
	"github.com/caffeineduck/gorc/registry"
	"github.com/spf13/cobra"
)

var invokeCmd = &cobra.Command{
	Use:   "invoke <file.wasm> [name]",
	Short: "Load a contract and invoke one entry point",
	Long: `Load a contract and invoke one entry point.

The entry point is addressed by name plus the tags of the given arguments,
or directly by --key.

Examples:
  gorc invoke hello.wasm hello_name_ext --arg string:World
  gorc invoke adder.wasm add --arg u32:3 --arg u32:4 --expect u32`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runInvoke,
}

func init() {
	invokeCmd.Flags().StringArrayP("arg", "a", nil, "Argument as tag:value (repeatable)")
	invokeCmd.Flags().String("key", "", "Entry point key (hex) instead of a name")
	invokeCmd.Flags().String("expect", "", "Require a result with this tag")
	invokeCmd.Flags().Duration("timeout", 0, "Execution budget (default: config)")
	rootCmd.AddCommand(invokeCmd)
}

func runInvoke(cmd *cobra.Command, args []string) error {
	specs, _ := cmd.Flags().GetStringArray("arg")
	keyHex, _ := cmd.Flags().GetString("key")
	expect, _ := cmd.Flags().GetString("expect")

	values, err := parseArgs(specs)
	if err != nil {
		return err
	}

	var key registry.Key
	switch {
	case keyHex != "":
		if key, err = registry.ParseKey(keyHex); err != nil {
			return err
		}
	case len(args) == 2:
		key = registry.DeriveKey(args[1], registry.ShapeOf(values))
	default:
		return fmt.Errorf("entry point name or --key required")
	}

	cfg, _, exec, err := setup(cmd)
	if err != nil {
		return err
	}
	defer exec.Close()

	opts := cfg.Executor.InvokeOptions()
	if cmd.Flags().Changed("timeout") {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		opts = append(opts, executor.WithTimeout(timeout))
	}
	if expect != "" {
		tag, err := clvalue.ParseTag(expect)
		if err != nil {
			return err
		}
		opts = append(opts, executor.ExpectResult(tag))
	}

	inst, err := loadFile(cmd.Context(), exec, args[0])
	if err != nil {
		return err
	}
	defer inst.Close()

	res, err := inst.Invoke(cmd.Context(), key, invocation.NewArgs(values...), opts...)
	if err != nil {
		return err
	}
	printResult(cmd, res)
	return nil
}

func printResult(cmd *cobra.Command, res invocation.Result) {
	if !res.Present {
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Value)
}
