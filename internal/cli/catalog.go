package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"coursesearch/internal/adapter/catalog"
)

var catalogOut string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Fetch the course catalog and save it",
	Long: `Fetch course records from the configured source and write them as JSON or
YAML (by file extension). The file can be served later with catalog.source: file.

Examples:
  coursesearch catalog                       # YAML on stdout
  coursesearch catalog --out courses.json`,
	RunE: runCatalog,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.Flags().StringVarP(&catalogOut, "out", "o", "", "output file (.json, .yaml or .yml); stdout when empty")
}

func runCatalog(cmd *cobra.Command, args []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	provider, err := a.provider()
	if err != nil {
		return err
	}

	records, err := provider.Courses(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	if catalogOut == "" {
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(records)
	}

	if err := catalog.SaveFile(a.resolve(catalogOut), records); err != nil {
		return fmt.Errorf("failed to save catalog: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Saved %d courses to %s\n", len(records), catalogOut)
	return nil
}
