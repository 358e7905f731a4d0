package main

import (
	"github.com/spf13/cobra"

	"github.com/setanarut/lumamask/batch"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Report size, foreground coverage and palette of every input image",
	Long: `Inspect decodes every file in ./input and prints one tab-separated line
per image: name, size, the share of pixels that would be kept as foreground,
and a brightness-sorted palette. No images are written.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := batch.Inspect(cmd.Context(), batch.DefaultConfig(), cmd.OutOrStdout(), logger)
		return err
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
