package main

import (
	"fmt"
	"strings"

	"github.com/caffeineduck/gorc/registry"
	"github.com/spf13/cobra"
)

var keyCmd = &cobra.Command{
	Use:   "key <name> [tag...]",
	Short: "Print the key of an entry point",
	Long: `Print the hex key derived from an entry point name and its argument tags.

Example:
  gorc key hello_name_ext string`,
	Args: cobra.MinimumNArgs(1),
	RunE: runKey,
}

func init() {
	rootCmd.AddCommand(keyCmd)
}

func runKey(cmd *cobra.Command, args []string) error {
	shape, err := registry.ParseShapeText(strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), registry.DeriveKey(args[0], shape))
	return nil
}
