package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"squish/internal/converter"
	"squish/internal/tui"
	"squish/pkg/imgutil"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <image>",
	Short: "Report what a conversion would do without converting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := converter.Open(args[0])
		if err != nil {
			return err
		}

		report, err := converter.Inspect(file)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "%s\n", inspectFileStyle.Render(report.Name))

		if report.Validation != nil {
			fmt.Fprintf(os.Stdout, "  %s %s\n",
				inspectBadStyle.Render("✗"),
				inspectValueStyle.Render(report.Validation.Error()),
			)
		} else {
			fmt.Fprintf(os.Stdout, "  %s %s\n",
				inspectGoodStyle.Render("✓"),
				inspectValueStyle.Render("convertible to "+report.OutputName()),
			)
		}

		printDetail("Type", detailType(report))
		printDetail("Size", imgutil.FormatSize(report.Size))
		if report.Width > 0 && report.Height > 0 {
			printDetail("Dimensions", fmt.Sprintf("%dx%d", report.Width, report.Height))
		}

		fmt.Fprintf(os.Stdout, "  %s\n", inspectCategoryStyle.Render("Metadata dropped by conversion:"))
		if len(report.Metadata) == 0 {
			fmt.Fprintf(os.Stdout, "    %s %s\n",
				inspectBulletStyle.Render("-"), inspectDimStyle.Render("none"))
		}
		for _, category := range report.Metadata {
			fmt.Fprintf(os.Stdout, "    %s %s\n",
				inspectBulletStyle.Render("-"), inspectValueStyle.Render(category))
		}

		return nil
	},
}

func detailType(report *converter.Report) string {
	if report.Kind == imgutil.KindUnknown {
		if report.ContentType == "" {
			return "unknown"
		}
		return report.ContentType
	}
	return fmt.Sprintf("%s (%s)", report.Kind, report.Kind.MIME())
}

func printDetail(label, value string) {
	fmt.Fprintf(os.Stdout, "  %s %s\n",
		inspectCategoryStyle.Render(label+":"),
		inspectValueStyle.Render(value),
	)
}

var (
	inspectFileStyle     = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	inspectCategoryStyle = lipgloss.NewStyle().Foreground(tui.ColorAccentAlt)
	inspectValueStyle    = lipgloss.NewStyle().Foreground(tui.ColorInk)
	inspectDimStyle      = lipgloss.NewStyle().Foreground(tui.ColorDim)
	inspectBulletStyle   = lipgloss.NewStyle().Foreground(tui.ColorDim)
	inspectGoodStyle     = lipgloss.NewStyle().Foreground(tui.ColorSuccess)
	inspectBadStyle      = lipgloss.NewStyle().Foreground(tui.ColorError)
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}
