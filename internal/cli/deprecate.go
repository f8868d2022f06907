package cli

import (
	"github.com/spf13/cobra"

	"github.com/mnemo-sh/mnemo/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "deprecate <id>",
		Short: "Deprecate a record, optionally naming its successor",
		Args:  cobra.ExactArgs(1),
		Run:   runDeprecate,
	}
	cmd.Flags().Int64("superseded-by", 0, "Id of the record that supersedes this one")
	RootCmd.AddCommand(cmd)
}

func runDeprecate(cmd *cobra.Command, args []string) {
	id := parseID(args[0])
	successor, _ := cmd.Flags().GetInt64("superseded-by")

	status := model.StatusDeprecated
	var supersededBy *int64
	if successor > 0 {
		status = model.StatusSupersededBy
		supersededBy = &successor
	}

	s := openWrite()
	defer s.Close()

	rec, err := s.SetStatus(cmd.Context(), id, status, supersededBy)
	if err != nil {
		exitErr("deprecate", err)
	}
	output(rec)
}
