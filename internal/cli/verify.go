package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mnemo-sh/mnemo/internal/compare"
)

func init() {
	verifyCmd := &cobra.Command{
		Use:   "verify <id> <text>",
		Short: "Check a statement against a stored record",
		Long:  "Compare candidate text against a record's content. Conflict means low token overlap or a negation mismatch; ok is the absence of conflict.",
		Args:  cobra.MinimumNArgs(2),
		Run:   runVerify,
	}
	diffCmd := &cobra.Command{
		Use:   "diff <id> <text>",
		Short: "Show how a statement differs from a stored record",
		Long:  "Same comparison as verify, reported neutrally for read-only inspection: similarity, negation mismatch, added and removed terms.",
		Args:  cobra.MinimumNArgs(2),
		Run:   runDiff,
	}
	RootCmd.AddCommand(verifyCmd, diffCmd)
}

type verifyResult struct {
	ID int64 `json:"id"`
	OK bool  `json:"ok"`
	compare.Result
}

type diffResult struct {
	ID int64 `json:"id"`
	compare.Result
}

func runVerify(cmd *cobra.Command, args []string) {
	id, res := compareAgainst(cmd, args)
	output(verifyResult{ID: id, OK: !res.Conflict, Result: res})
}

func runDiff(cmd *cobra.Command, args []string) {
	id, res := compareAgainst(cmd, args)
	output(diffResult{ID: id, Result: res})
}

func compareAgainst(cmd *cobra.Command, args []string) (int64, compare.Result) {
	id := parseID(args[0])
	candidate := strings.Join(args[1:], " ")

	s := openRead()
	defer s.Close()

	rec, err := s.Get(cmd.Context(), id)
	if err != nil {
		exitErr("compare", err)
	}
	return id, compare.FactsAt(rec.Content, candidate, s.Config().ConflictThreshold)
}
