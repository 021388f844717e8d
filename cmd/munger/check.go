package main

import (
	"fmt"

	"github.com/Ramsey-B/munger/pkg/job"
	"github.com/spf13/cobra"
)

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <job.yaml>",
		Short: "Compile a job's schemas and conditions without processing any rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := job.Load(args[0])
			if err != nil {
				return err
			}
			if err := job.Check(def); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", args[0])
			return nil
		},
	}
}
