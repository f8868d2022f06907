package cli

import (
	"github.com/spf13/cobra"

	"github.com/mnemo-sh/mnemo/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields of a record",
		Long:  "Update a record's content and metadata. Only flags that are set are changed; update_count increments and the search index resyncs.",
		Args:  cobra.ExactArgs(1),
		Run:   runUpdate,
	}

	cmd.Flags().String("content", "", "New content")
	cmd.Flags().StringP("tags", "t", "", "New comma-separated tags")
	cmd.Flags().StringP("context", "c", "", "New context")
	cmd.Flags().String("certainty", "", "New certainty")
	cmd.Flags().StringSlice("refs", nil, "Replacement reference strings")
	cmd.Flags().String("agent", "", "Agent recorded as last_updated_by")

	RootCmd.AddCommand(cmd)
}

func runUpdate(cmd *cobra.Command, args []string) {
	id := parseID(args[0])

	p := store.UpdateParams{}
	if cmd.Flags().Changed("content") {
		v, _ := cmd.Flags().GetString("content")
		p.Content = &v
	}
	if cmd.Flags().Changed("tags") {
		v, _ := cmd.Flags().GetString("tags")
		p.Tags = &v
	}
	if cmd.Flags().Changed("context") {
		v, _ := cmd.Flags().GetString("context")
		p.Context = &v
	}
	if cmd.Flags().Changed("certainty") {
		v, _ := cmd.Flags().GetString("certainty")
		p.Certainty = &v
	}
	if cmd.Flags().Changed("refs") {
		v, _ := cmd.Flags().GetStringSlice("refs")
		refs := []string{}
		for _, r := range v {
			if r != "" {
				refs = append(refs, r)
			}
		}
		p.Refs = refs
	}
	p.UpdatedBy, _ = cmd.Flags().GetString("agent")

	s := openWrite()
	defer s.Close()

	rec, err := s.UpdateFields(cmd.Context(), id, p)
	if err != nil {
		exitErr("update", err)
	}
	output(rec)
}
