package cmd

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"squish/internal/converter"
	"squish/internal/tui"
)

var (
	tuneQuality   int
	tuneOutputDir string
)

var tuneCmd = &cobra.Command{
	Use:   "tune [flags] <image>",
	Short: "Pick a WebP quality interactively",
	Long:  "tune opens a live session: move the quality slider and watch the WebP size and reduction update, then save the result.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if tuneQuality < 0 || tuneQuality > 100 {
			return fmt.Errorf("--quality must be between 0 and 100")
		}

		file, err := converter.Open(args[0])
		if err != nil {
			return err
		}

		if err := os.MkdirAll(tuneOutputDir, 0o755); err != nil {
			return err
		}

		engine := converter.New()
		defer func() { _ = engine.Reset() }()

		src, err := engine.LoadSource(context.Background(), file)
		if err != nil {
			return err
		}

		model := tui.NewModel(engine, src, tuneOutputDir, tuneQuality)
		program := tea.NewProgram(model)
		if _, err := program.Run(); err != nil {
			return err
		}

		return nil
	},
}

func init() {
	tuneCmd.Flags().IntVarP(&tuneQuality, "quality", "q", 90, "starting quality, 0-100")
	tuneCmd.Flags().StringVarP(&tuneOutputDir, "output", "o", ".", "destination folder for saved files")

	rootCmd.AddCommand(tuneCmd)
}
