package cli

import (
	"github.com/spf13/cobra"

	"github.com/mnemo-sh/mnemo/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records",
		Run:   runList,
	}

	cmd.Flags().String("type", "", "Filter by memory type")
	cmd.Flags().String("certainty", "", "Filter by certainty (legacy aliases accepted)")
	cmd.Flags().String("status", "", "Filter by status (default active; use 'all' for everything)")
	cmd.Flags().StringP("tag", "t", "", "Filter by exact tag")
	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	memType, _ := cmd.Flags().GetString("type")
	certainty, _ := cmd.Flags().GetString("certainty")
	status, _ := cmd.Flags().GetString("status")
	tag, _ := cmd.Flags().GetString("tag")
	limit, _ := cmd.Flags().GetInt("limit")

	s := openRead()
	defer s.Close()

	records, err := s.List(cmd.Context(), store.ListParams{
		MemoryType: memType,
		Certainty:  certainty,
		Status:     status,
		Tag:        tag,
		Limit:      limit,
	})
	if err != nil {
		exitErr("list", err)
	}
	output(records)
}
