package cli

import (
	"github.com/spf13/cobra"

	"github.com/mnemo-sh/mnemo/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm <id...>",
		Short: "Delete records",
		Long:  "Delete one or more records by id. Reports per-id success or not-found; a missing id never aborts the batch.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runRm,
	}
	RootCmd.AddCommand(cmd)
}

type rmResult struct {
	ID     int64  `json:"id"`
	Status string `json:"status"` // "deleted" | "not_found"
}

func runRm(cmd *cobra.Command, args []string) {
	s := openWrite()
	defer s.Close()

	var results []rmResult
	for _, arg := range args {
		id := parseID(arg)
		err := s.Delete(cmd.Context(), id)
		switch {
		case err == nil:
			results = append(results, rmResult{ID: id, Status: "deleted"})
		case store.IsKind(err, store.KindNotFound):
			results = append(results, rmResult{ID: id, Status: "not_found"})
		default:
			exitErr("rm", err)
		}
	}
	output(results)
}
