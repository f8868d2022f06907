package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import records from a JSON-lines file",
		Long:  "Insert records from an export. Exact duplicates of active records are skipped; records without a source agent are stamped with the import batch id.",
		Args:  cobra.ExactArgs(1),
		Run:   runImport,
	}
	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	f, err := os.Open(args[0])
	if err != nil {
		exitErr("open import file", err)
	}
	defer f.Close()

	s := openWrite()
	defer s.Close()

	report, err := s.Import(cmd.Context(), f)
	if err != nil {
		exitErr("import", err)
	}
	output(report)
}
