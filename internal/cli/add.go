package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mnemo-sh/mnemo/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "add [content]",
		Short: "Store a memory",
		Long:  "Store a memory. Content can be a positional arg or piped via stdin. Reports potential conflicts with existing records; exact duplicates are skipped.",
		Run:   runAdd,
	}

	cmd.Flags().StringP("tags", "t", "", "Comma-separated tags")
	cmd.Flags().StringP("context", "c", "", "Free-text context (e.g. the file or area this applies to)")
	cmd.Flags().String("type", "reference", "Memory type: decision, convention, gotcha, preference, constraint, reference, status")
	cmd.Flags().String("certainty", "inferred", "Certainty: verified, inferred, speculative")
	cmd.Flags().StringSlice("refs", nil, "Reference strings (repeatable)")
	cmd.Flags().Int("ttl-days", -1, "Advisory TTL in days (never auto-enforced)")
	cmd.Flags().String("agent", "", "Source agent identifier")

	RootCmd.AddCommand(cmd)
}

type addResult struct {
	Record    interface{}               `json:"record,omitempty"`
	Duplicate int64                     `json:"duplicate_of,omitempty"`
	Conflicts *store.ConflictScanResult `json:"conflicts,omitempty"`
}

func runAdd(cmd *cobra.Command, args []string) {
	tags, _ := cmd.Flags().GetString("tags")
	context_, _ := cmd.Flags().GetString("context")
	memType, _ := cmd.Flags().GetString("type")
	certainty, _ := cmd.Flags().GetString("certainty")
	refs, _ := cmd.Flags().GetStringSlice("refs")
	ttlDays, _ := cmd.Flags().GetInt("ttl-days")
	agent, _ := cmd.Flags().GetString("agent")

	content := readContent(args)
	if strings.TrimSpace(content) == "" {
		exitErr("add", fmt.Errorf("content is required (positional arg or stdin)"))
	}

	s := openWrite()
	defer s.Close()

	scan, err := s.ConflictScan(cmd.Context(), content, tags, context_, 5)
	if err != nil {
		exitErr("conflict scan", err)
	}
	if scan.DuplicateOf != 0 {
		output(addResult{Duplicate: scan.DuplicateOf})
		return
	}

	var ttl *int
	if ttlDays >= 0 {
		ttl = &ttlDays
	}
	rec, err := s.Insert(cmd.Context(), store.InsertParams{
		Content:          strings.TrimSpace(content),
		Tags:             tags,
		Context:          context_,
		MemoryType:       memType,
		Certainty:        certainty,
		SourceAgent:      agent,
		Refs:             refs,
		ExpiresAfterDays: ttl,
	})
	if err != nil {
		exitErr("add", err)
	}

	res := addResult{Record: rec}
	if len(scan.Matches) > 0 {
		res.Conflicts = scan
	}
	output(res)
}

// readContent takes the positional args, falling back to stdin when
// piped.
func readContent(args []string) string {
	if len(args) > 0 {
		return strings.Join(args, " ")
	}
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			exitErr("read stdin", err)
		}
		return string(b)
	}
	return ""
}
