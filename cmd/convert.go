package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"squish/internal/converter"
	"squish/internal/tui"
	"squish/pkg/imgutil"
)

var (
	convertQuality   int
	convertOutputDir string
	convertName      string
)

var convertCmd = &cobra.Command{
	Use:   "convert [flags] <image>",
	Short: "Convert an image to WebP",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if convertQuality < 0 || convertQuality > 100 {
			return fmt.Errorf("--quality must be between 0 and 100")
		}

		file, err := converter.Open(args[0])
		if err != nil {
			return err
		}

		if err := os.MkdirAll(convertOutputDir, 0o755); err != nil {
			return err
		}

		engine := converter.New()
		defer func() { _ = engine.Reset() }()

		ctx := context.Background()
		src, err := engine.LoadSource(ctx, file)
		if err != nil {
			return err
		}

		result, err := engine.SetQuality(ctx, convertQuality)
		if err != nil {
			return err
		}

		outPath, err := engine.Download(convertOutputDir, convertName)
		if err != nil {
			return err
		}

		rows := []tui.SummaryRow{
			{Label: "Original", Value: fmt.Sprintf("%s (%dx%d)", imgutil.FormatSize(src.Size), src.Width, src.Height)},
			{Label: "WebP", Value: imgutil.FormatSize(result.Size)},
			{Label: "Reduction", Value: result.Reduction},
			{Label: "Quality", Value: fmt.Sprintf("%d%%", convertQuality)},
		}
		fmt.Fprintln(os.Stdout, tui.RenderSummary(rows))

		if abs, absErr := filepath.Abs(outPath); absErr == nil {
			outPath = abs
		}
		fmt.Fprintf(os.Stdout, "Saved to: %s\n", outPath)

		return nil
	},
}

func init() {
	convertCmd.Flags().IntVarP(&convertQuality, "quality", "q", 90, "encoder quality, 0-100")
	convertCmd.Flags().StringVarP(&convertOutputDir, "output", "o", ".", "destination folder for the WebP file")
	convertCmd.Flags().StringVarP(&convertName, "name", "n", "", "output filename override")

	rootCmd.AddCommand(convertCmd)
}
