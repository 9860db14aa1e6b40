package commands

import (
	"github.com/spf13/cobra"
)

func configPrint(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	cfg, err := getConfig(cmd)
	assertNoError(ctx, err)
	_, err = cfg.WriteTo(cmd.OutOrStdout())
	assertNoError(ctx, err)
}
