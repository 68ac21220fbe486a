package cli

import (
	"fmt"

	"siteshell/pkg/domain"

	"github.com/spf13/cobra"
)

func newVersionCmd(info domain.VersionInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "siteshell %s\n", info.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "commit: %s\n", info.Commit)
		},
	}
}
