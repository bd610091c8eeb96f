package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "squish",
	Short: "squish 🗜 - convert images to WebP",
	Long:  "squish 🗜 converts PNG, JPEG, GIF, BMP, and SVG images to WebP, entirely in-process, with size-reduction statistics.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
}
