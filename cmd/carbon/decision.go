package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/carbon-audit/internal/cli"
)

func decisionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decision",
		Short: "Act on evaluation decisions",
	}
	cmd.AddCommand(applyDecisionCmd())
	return cmd
}

func applyDecisionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply <evaluation-id>",
		Short: "Move a project forward or cancel it from an evaluation's decision",
		Long: `Map the evaluation's decision text to a project status. Accepting decisions
(accept, approve, approuvé) move the project to IN_PROGRESS; refusing ones
(refuse, reject, rejeté) cancel it. Any other text is rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "evaluation")
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			eng, cleanup, err := initEngine(ctx, false)
			if err != nil {
				return err
			}
			defer cleanup()

			status, err := eng.ApplyDecision(ctx, id)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Project status set to ")+cli.FormatStatus(status))
			return nil
		},
	}
}
