package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mnemo-sh/mnemo/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Search records by free text",
		Long:  "Tokenize the text, run a full-text search, and rank results by recency, tag match, update frequency, certainty, and index rank. Empty results always explain themselves.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runQuery,
	}

	cmd.Flags().String("type", "", "Filter by memory type")
	cmd.Flags().String("certainty", "", "Filter by certainty (legacy aliases accepted)")
	cmd.Flags().String("status", "", "Filter by status (default active; 'all' for everything)")
	cmd.Flags().IntP("limit", "l", 10, "Max results")

	RootCmd.AddCommand(cmd)
}

func runQuery(cmd *cobra.Command, args []string) {
	memType, _ := cmd.Flags().GetString("type")
	certainty, _ := cmd.Flags().GetString("certainty")
	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")

	s := openRead()
	defer s.Close()

	report, err := s.Query(cmd.Context(), store.QueryParams{
		Text:       strings.Join(args, " "),
		MemoryType: memType,
		Certainty:  certainty,
		Status:     status,
		Limit:      limit,
	})
	if err != nil {
		exitErr("query", err)
	}
	output(report)
}
