package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/caffeineduck/gorc/registry"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.wasm>",
	Short: "Load a contract and list its entry points",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().Bool("full", false, "Print full keys")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	full, _ := cmd.Flags().GetBool("full")

	_, _, exec, err := setup(cmd)
	if err != nil {
		return err
	}
	defer exec.Close()

	inst, err := loadFile(cmd.Context(), exec, args[0])
	if err != nil {
		return err
	}
	defer inst.Close()

	printEntries(cmd.OutOrStdout(), inst.Entries(), full)
	return nil
}

func printEntries(out io.Writer, entries []registry.Entry, full bool) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tNAME\tSHAPE\tRESULT")
	for _, e := range entries {
		key := e.Key.Short()
		if full {
			key = e.Key.String()
		}
		result := "-"
		if tag, ok := e.ResultTag(); ok {
			result = tag.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", key, e.Name, e.Shape, result)
	}
	tw.Flush()
}
