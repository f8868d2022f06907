package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Bring the store schema up to date",
		Long:  "Run the idempotent schema migration. Happens automatically on any write command; this is the explicit remediation for a stale-schema error from read commands.",
		Run:   runMigrate,
	}
	RootCmd.AddCommand(cmd)
}

func runMigrate(cmd *cobra.Command, args []string) {
	// Opening a write session migrates on open.
	s := openWrite()
	defer s.Close()

	st, err := s.Stats(cmd.Context())
	if err != nil {
		exitErr("migrate", err)
	}
	output(map[string]interface{}{"schema_version": st.SchemaVersion, "db_path": st.DBPath})
}
