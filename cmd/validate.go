package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/benn-herrera/loadergen/loader"
	"github.com/benn-herrera/loadergen/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate [specification.yaml...]",
	Short: "Check specification files without generating",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	var failed int
	for _, path := range args {
		if !quiet {
			fmt.Fprintf(out, "Validating %s\n", path)
		}

		// Load and schema-validate the specification
		spec, err := loader.LoadSpecification(path)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", err)
			failed++
			continue
		}

		if verbose {
			fmt.Fprintf(out, "  Specification: %s\n", spec.Name)
			fmt.Fprintf(out, "  APIs: %d\n", len(spec.APIs))
			fmt.Fprintf(out, "  Features: %d\n", len(spec.Features))
			fmt.Fprintf(out, "  Extensions: %d\n", len(spec.Extensions))
			fmt.Fprintf(out, "  Commands: %d\n", len(spec.Commands))
		}

		if result := validate.Validate(spec); !result.IsValid() {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: semantic validation failed:\n%s\n", path, result.Error())
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d specification(s) failed validation", failed, len(args))
	}
	if !quiet {
		fmt.Fprintln(out, "Validation passed.")
	}
	return nil
}
