package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "List (and optionally delete) TTL-expired records",
		Long:  "Advisory TTL pass: lists records past their expires_after_days. Dry-run by default; --delete removes them. Expiry is never enforced automatically.",
		Run:   runSweep,
	}
	cmd.Flags().Bool("delete", false, "Delete expired records")
	RootCmd.AddCommand(cmd)
}

func runSweep(cmd *cobra.Command, args []string) {
	del, _ := cmd.Flags().GetBool("delete")

	s := openWrite()
	defer s.Close()

	report, err := s.Sweep(cmd.Context(), del)
	if err != nil {
		exitErr("sweep", err)
	}
	output(report)
}
