package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/benn-herrera/loadergen/gen"
	"github.com/benn-herrera/loadergen/model"
	"github.com/benn-herrera/loadergen/pipeline"
	"github.com/benn-herrera/loadergen/registry"
	"github.com/benn-herrera/loadergen/request"
	"github.com/benn-herrera/loadergen/workspace"
)

var (
	genOutput     string
	genGenerator  string
	genAPIs       []string
	genProfiles   []string
	genExtensions []string
	genOptions    []string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a loader once into the output directory",
	Long: `Generates a loader for the selected APIs into a new deliverable directory below --output.

Example:
  loadergen generate -g c --api gl=4.6 --profile gl=core --extensions GL_KHR_debug --options LOADER`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&genOutput, "output", "o", "./generated", "Output directory")
	generateCmd.Flags().StringVarP(&genGenerator, "generator", "g", "c", "Generator backend")
	generateCmd.Flags().StringSliceVarP(&genAPIs, "api", "a", nil, "API selections as name=version (repeatable)")
	generateCmd.Flags().StringSliceVarP(&genProfiles, "profile", "p", nil, "Profiles as api=profile (repeatable)")
	generateCmd.Flags().StringSliceVarP(&genExtensions, "extensions", "e", nil, "Extensions to include (comma-separated)")
	generateCmd.Flags().StringSliceVar(&genOptions, "options", nil, "Generator options, MERGE to merge feature sets (comma-separated)")
	rootCmd.AddCommand(generateCmd)
}

func submittedForm() url.Values {
	return request.Submission{
		API:        genAPIs,
		Profile:    genProfiles,
		Generator:  genGenerator,
		Extensions: genExtensions,
		Options:    genOptions,
	}.Values()
}

func runGenerate(cmd *cobra.Command, args []string) error {
	log := cliLogger()

	reg, err := registry.LoadDir(specDir)
	if err != nil {
		return err
	}
	work, err := workspace.New(genOutput)
	if err != nil {
		return err
	}

	p := pipeline.New(registry.NewHolder(reg), gen.Builtin(), work, pipeline.WithLogger(log))
	res, err := p.Run(cmd.Context(), submittedForm())
	if err != nil {
		var tagged *model.Error
		if errors.As(err, &tagged) && tagged.Kind == model.KindValidation {
			return fmt.Errorf("invalid request: %w", err)
		}
		return err
	}

	if verbose {
		for _, f := range res.Files {
			fmt.Fprintf(cmd.OutOrStdout(), "  Wrote: %s\n", filepath.Join(res.Dir, filepath.FromSlash(f)))
		}
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Generated %d files in %s\n", len(res.Files), res.Dir)
	}
	return nil
}
