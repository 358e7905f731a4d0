// Package main is the entry point for the lumamask CLI. Run without
// arguments it turns every image under input/ into a black-on-transparent
// PNG under output/.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/setanarut/lumamask/batch"
	"github.com/setanarut/lumamask/utils"
)

// version is set at build time via ldflags.
var version = "dev"

var logger *zap.SugaredLogger

var rootCmd = &cobra.Command{
	Use:   "lumamask",
	Short: "Remove light backgrounds from every image in input/",
	Long: `lumamask reads every file in ./input, keeps pixels whose BT.709 luminance
is below 128 as opaque black, turns all other pixels transparent, and writes
the result as <name minus last 4 characters>_no_background.png into ./output.

The first file that cannot be decoded or written stops the whole run.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), batch.Notice)
		_, err := batch.Run(cmd.Context(), batch.DefaultConfig(), logger)
		return err
	},
}

func init() {
	logger = utils.NewLogger("lumamask")
}

func main() {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		logger.Errorw("run failed", "error", err)
	}
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
