package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Fetch one record by id",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}
	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	id := parseID(args[0])

	s := openRead()
	defer s.Close()

	rec, err := s.Get(cmd.Context(), id)
	if err != nil {
		exitErr("get", err)
	}
	output(rec)
}

func parseID(arg string) int64 {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		exitErr("parse id", fmt.Errorf("%q is not a positive record id", arg))
	}
	return id
}
