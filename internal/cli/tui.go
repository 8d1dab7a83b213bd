package cli

import (
	"github.com/spf13/cobra"

	"coursesearch/internal/tui"
)

var tuiStrategy string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive course search",
	Long: `Build the catalog, then open a full-screen search box that renders each
result as a card. Logs go to .coursesearch/coursesearch.log unless logging.file
is set.`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
	tuiCmd.Flags().StringVar(&tuiStrategy, "strategy", "", "ranking strategy: vector, prompt or lexical (default from config)")
}

func runTUI(cmd *cobra.Command, args []string) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	search, err := a.searchUseCase(cmd.Context(), tuiStrategy, true)
	if err != nil {
		return err
	}

	return tui.Run(cmd.Context(), search, a.cfg.Ranking.TopK)
}
