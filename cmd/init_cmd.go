package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benn-herrera/loadergen/loader"
	"github.com/benn-herrera/loadergen/validate"
)

var (
	initName   string
	initOutput string
	initForce  bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold a starter specification file",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func init() {
	initCmd.Flags().StringVarP(&initName, "name", "n", "my_api", "Specification and API name")
	initCmd.Flags().StringVarP(&initOutput, "output", "o", ".", "Output directory")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing file")
	rootCmd.AddCommand(initCmd)
}

// starterSpecification returns a minimal specification for name that passes
// schema and semantic validation.
func starterSpecification(name string) string {
	upper := strings.ToUpper(name)
	prefix := strings.ReplaceAll(name, "_", "")
	return fmt.Sprintf(`name: %[1]s
description: "TODO: describe your API"
apis:
  - name: %[1]s
    versions: ["1.0"]
types:
  - name: %[2]sint
    definition: typedef int %[2]sint;
enums:
  - name: %[3]s_SUCCESS
    value: "0"
commands:
  - name: %[2]sGetError
    returns: %[2]sint
features:
  - name: %[3]s_VERSION_1_0
    api: %[1]s
    version: "1.0"
    require:
      types: [%[2]sint]
      enums: [%[3]s_SUCCESS]
      commands: [%[2]sGetError]
`, name, prefix, upper)
}

func runInit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if !quiet {
		fmt.Fprintf(out, "Initializing specification %s in %s\n", initName, initOutput)
	}

	content := starterSpecification(initName)
	spec, err := loader.ParseSpecification([]byte(content))
	if err != nil {
		return fmt.Errorf("invalid specification name %q: %w", initName, err)
	}
	if result := validate.Validate(spec); !result.IsValid() {
		return fmt.Errorf("invalid specification name %q:\n%s", initName, result.Error())
	}

	if err := os.MkdirAll(initOutput, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(initOutput, initName+".yaml")
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing specification: %w", err)
	}

	if !quiet {
		fmt.Fprintf(out, "Created:\n  %s\n", path)
		fmt.Fprintf(out, "\nNext: loadergen validate %s\n", path)
	}
	return nil
}
