package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "suggest <path...>",
		Short: "Suggest records relevant to a set of file paths",
		Long:  "Derive tag and path hints from file paths and find related records. Records matched both by hint and by the index rank above single-signal matches.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSuggest,
	}
	cmd.Flags().IntP("limit", "l", 10, "Max results")
	RootCmd.AddCommand(cmd)
}

func runSuggest(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	s := openRead()
	defer s.Close()

	report, err := s.Suggest(cmd.Context(), args, limit)
	if err != nil {
		exitErr("suggest", err)
	}
	output(report)
}
