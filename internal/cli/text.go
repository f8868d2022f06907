package cli

import (
	"fmt"
	"strings"

	"github.com/mnemo-sh/mnemo/internal/dedup"
	"github.com/mnemo-sh/mnemo/internal/model"
	"github.com/mnemo-sh/mnemo/internal/score"
	"github.com/mnemo-sh/mnemo/internal/store"
)

// printText renders the common payload shapes for --format text.
// Anything without a dedicated renderer falls back to %+v.
func printText(v interface{}) {
	switch t := v.(type) {
	case *model.Record:
		printRecord(*t, -1)
	case model.Record:
		printRecord(t, -1)
	case []model.Record:
		for _, r := range t {
			printRecord(r, -1)
		}
	case *store.QueryReport:
		printReport(t)
	case *store.DoctorReport:
		printDoctor(t)
	default:
		fmt.Printf("%+v\n", v)
	}
}

func printRecord(r model.Record, scoreVal float64) {
	head := fmt.Sprintf("#%d [%s/%s/%s]", r.ID, r.MemoryType, r.Certainty, r.Status)
	if scoreVal >= 0 {
		head += fmt.Sprintf(" score=%.3f", scoreVal)
	}
	fmt.Println(head)
	fmt.Println("  " + r.Content)
	if r.Tags != "" {
		fmt.Println("  tags: " + r.Tags)
	}
	if r.Context != "" {
		fmt.Println("  context: " + r.Context)
	}
	if len(r.Refs) > 0 {
		fmt.Println("  refs: " + strings.Join(r.Refs, ", "))
	}
	if r.SupersededBy != nil {
		fmt.Printf("  superseded by: %d\n", *r.SupersededBy)
	}
}

func printReport(rep *store.QueryReport) {
	for _, hit := range rep.Results {
		printScored(hit)
	}
	if rep.Reason != "" {
		fmt.Printf("no results (%s); tokens: [%s]\n", rep.Reason, strings.Join(rep.Tokens, " "))
		for _, h := range rep.Hints {
			fmt.Println("  hint: " + h)
		}
	}
}

func printScored(hit score.Scored) {
	printRecord(hit.Record, hit.Score)
	if len(hit.FoundVia) > 0 {
		fmt.Println("  found via: " + strings.Join(hit.FoundVia, ", "))
	}
}

func printDoctor(rep *store.DoctorReport) {
	fmt.Printf("scanned %d records\n", rep.Scanned)
	groups := []struct {
		name     string
		findings []dedup.Finding
	}{
		{"exact duplicates", rep.Exact},
		{"near duplicates", rep.Near},
		{"integrity", rep.Integrity},
		{"expired", rep.Expired},
	}
	total := 0
	for _, g := range groups {
		for _, f := range g.findings {
			total++
			fmt.Printf("[%s] %s\n  fix: %s\n", g.name, f.Summary, f.Remediation)
		}
	}
	if total == 0 {
		fmt.Println("no findings")
	}
	if len(rep.Deleted) > 0 {
		fmt.Printf("deleted: %v\n", rep.Deleted)
	}
}
