package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Veraticus/carbon-audit/internal/advisor"
	"github.com/Veraticus/carbon-audit/internal/cli"
	"github.com/Veraticus/carbon-audit/internal/engine"
	"github.com/Veraticus/carbon-audit/internal/model"
)

func suggestCmd() *cobra.Command {
	var (
		evaluationID int64
		remote       bool
		showImpacts  bool
	)

	cmd := &cobra.Command{
		Use:   "suggest <project-id>",
		Short: "Explain whether a project should be approved",
		Long: `Build a recommendation from a project's latest evaluation: score, compliance,
ESG score, ranked key factors, warnings, and per-criterion recommendations.

With --remote the advisory service is consulted as well. The local
recommendation is shown first and updated once the service answers; if the
service is unreachable the local recommendation stands.`,
		Example: `  carbon suggest 3
  carbon suggest 3 --remote --impacts
  carbon suggest 3 --evaluation 12 --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			eng, cleanup, err := initEngine(ctx, remote)
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			switch {
			case evaluationID > 0:
				s, err := eng.Suggest(ctx, evaluationID)
				if err != nil {
					return err
				}
				if s.ProjectID != projectID {
					return fmt.Errorf("evaluation %d belongs to project %d, not %d", evaluationID, s.ProjectID, projectID)
				}
				return printSuggestion(out, format, s, showImpacts)
			case remote && format == outputTable:
				return suggestProgressively(ctx, out, eng, projectID, showImpacts)
			case remote:
				s, err := eng.SuggestRefined(ctx, projectID)
				if err != nil {
					return err
				}
				return printSuggestion(out, format, s, showImpacts)
			default:
				s, err := eng.SuggestForProject(ctx, projectID)
				if err != nil {
					return err
				}
				return printSuggestion(out, format, s, showImpacts)
			}
		},
	}

	cmd.Flags().Int64VarP(&evaluationID, "evaluation", "e", 0, "use this evaluation instead of the latest one")
	cmd.Flags().BoolVarP(&remote, "remote", "r", false, "refine the recommendation with the advisory service")
	cmd.Flags().BoolVar(&showImpacts, "impacts", false, "show the full impact table")
	cmd.MarkFlagsMutuallyExclusive("evaluation", "remote")
	addOutputFlag(cmd)

	return cmd
}

func printSuggestion(w io.Writer, format string, s *model.AiSuggestion, showImpacts bool) error {
	return writeOutput(w, format, s, func() error {
		return cli.RenderSuggestion(w, s, showImpacts)
	})
}

// suggestProgressively prints the local recommendation, then the refined one
// if the advisory service answers in time.
func suggestProgressively(ctx context.Context, w io.Writer, eng *engine.AuditEngine, projectID int64, showImpacts bool) error {
	s, pending, err := eng.RefineAsync(ctx, projectID)
	if err != nil {
		return err
	}

	if err := cli.RenderSuggestion(w, s, showImpacts); err != nil {
		return err
	}
	fmt.Fprintln(w, "\n"+cli.FormatInfo("Consulting the advisory service..."))

	result := pending.Wait(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}
	if !pending.Refined() {
		fmt.Fprintln(w, cli.FormatWarning("Advisory service unavailable; keeping the local recommendation"))
		return nil
	}

	advisor.ApplyRemote(s, result)
	fmt.Fprintln(w)
	return cli.RenderSuggestion(w, s, showImpacts)
}
