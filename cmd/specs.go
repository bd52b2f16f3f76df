package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benn-herrera/loadergen/gen"
	"github.com/benn-herrera/loadergen/registry"
)

var specsCmd = &cobra.Command{
	Use:   "specs",
	Short: "List loaded specifications and generators",
	Args:  cobra.NoArgs,
	RunE:  runSpecs,
}

func init() {
	rootCmd.AddCommand(specsCmd)
}

func runSpecs(cmd *cobra.Command, args []string) error {
	reg, err := registry.LoadDir(specDir)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	for _, spec := range reg.Specifications() {
		fmt.Fprintf(out, "%s", spec.Name)
		if spec.Description != "" {
			fmt.Fprintf(out, " - %s", spec.Description)
		}
		fmt.Fprintln(out)
		for _, api := range spec.APIs {
			fmt.Fprintf(out, "  %s: %s", api.Name, strings.Join(api.Versions, ", "))
			if len(api.Profiles) > 0 {
				fmt.Fprintf(out, " (profiles: %s)", strings.Join(api.Profiles, ", "))
			}
			fmt.Fprintf(out, ", %d extension(s)\n", len(spec.ExtensionsFor(api.Name)))
			if verbose {
				for _, ext := range spec.ExtensionsFor(api.Name) {
					fmt.Fprintf(out, "    %s\n", ext)
				}
			}
		}
	}

	fmt.Fprintln(out, "generators:")
	for _, b := range gen.Builtin().Backends() {
		fmt.Fprintf(out, "  %s - %s\n", b.Name, b.Description)
		if verbose {
			for _, o := range b.Options {
				fmt.Fprintf(out, "    %s: %s\n", o.Name, o.Description)
			}
		}
	}
	return nil
}
