package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export records as JSON lines",
		Long:  "Write records to a file (or stdout) as one JSON object per line, importable with `mnemo import`.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runExport,
	}
	cmd.Flags().String("status", "all", "Only export records with this status")
	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	status, _ := cmd.Flags().GetString("status")

	out := os.Stdout
	if len(args) == 1 {
		f, err := os.Create(args[0])
		if err != nil {
			exitErr("create export file", err)
		}
		defer f.Close()
		out = f
	}

	s := openRead()
	defer s.Close()

	n, err := s.Export(cmd.Context(), out, status)
	if err != nil {
		exitErr("export", err)
	}
	if len(args) == 1 {
		output(map[string]interface{}{"exported": n, "file": args[0]})
	}
}
