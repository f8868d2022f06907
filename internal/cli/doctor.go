package cli

import (
	"github.com/spf13/cobra"

	"github.com/mnemo-sh/mnemo/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run the corpus hygiene sweep",
		Long:  "Find exact duplicates, near duplicates, malformed refs, broken supersession chains, and expired-TTL records. Report-only unless --apply, which deletes exact duplicates.",
		Run:   runDoctor,
	}
	cmd.Flags().Bool("apply", false, "Delete exact-duplicate records")
	cmd.Flags().Float64("threshold", 0, "Near-duplicate similarity threshold (default from config)")
	RootCmd.AddCommand(cmd)
}

func runDoctor(cmd *cobra.Command, args []string) {
	apply, _ := cmd.Flags().GetBool("apply")
	threshold, _ := cmd.Flags().GetFloat64("threshold")

	s := openWrite()
	defer s.Close()

	report, err := s.Doctor(cmd.Context(), store.DoctorOptions{
		Threshold: threshold,
		Apply:     apply,
	})
	if err != nil {
		exitErr("doctor", err)
	}
	output(report)
}
