package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Veraticus/carbon-audit/internal/catalog"
	"github.com/Veraticus/carbon-audit/internal/cli"
	"github.com/Veraticus/carbon-audit/internal/common"
	"github.com/Veraticus/carbon-audit/internal/engine"
	"github.com/Veraticus/carbon-audit/internal/scoring"
)

const evaluationFileExample = `decision: approve
observations: Site visit confirmed the installed capacity
ratings:
  - criterion_id: 1
    note: 8
    respected: true
    comment: Verified by the external auditor
  - criterion_id: 2
    note: 4
    respected: false
    comment: Water permit still pending`

func evaluationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "evaluations",
		Aliases: []string{"evaluation", "eval"},
		Short:   "Record and review project evaluations",
		Long: `Create, update, delete, and list evaluations. An evaluation is a set of
criterion ratings with a decision and observations. Evaluation input is read
from a YAML or JSON file:

` + evaluationFileExample,
	}

	cmd.AddCommand(createEvaluationCmd())
	cmd.AddCommand(updateEvaluationCmd())
	cmd.AddCommand(deleteEvaluationCmd())
	cmd.AddCommand(listEvaluationsCmd())
	cmd.AddCommand(showEvaluationCmd())
	cmd.AddCommand(previewEvaluationCmd())

	return cmd
}

// readEvaluationInput decodes an evaluation file, or stdin when path is "-".
// yaml.v3 accepts JSON documents as well.
func readEvaluationInput(path string, stdin io.Reader) (engine.EvaluationInput, error) {
	var in engine.EvaluationInput

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return in, fmt.Errorf("failed to read evaluation file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&in); err != nil {
		return in, common.NewUserError("invalid evaluation file", fmt.Errorf("%w: %w", common.ErrValidation, err))
	}
	return in, nil
}

func createEvaluationCmd() *cobra.Command {
	var (
		file      string
		projectID int64
	)

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Record a new evaluation",
		Example: `  carbon evaluations create --project 1 --file evaluation.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := readEvaluationInput(file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("project") {
				in.ProjectID = projectID
			}

			ctx := cmd.Context()
			eng, cleanup, err := initEngine(ctx, false)
			if err != nil {
				return err
			}
			defer cleanup()

			evaluation, err := eng.CreateEvaluation(ctx, in)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Recorded evaluation #%d for project #%d: score %.1f/10",
				evaluation.ID, evaluation.ProjectID, evaluation.Score)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "evaluation file (YAML or JSON, - for stdin)")
	cmd.Flags().Int64VarP(&projectID, "project", "p", 0, "project id (overrides project_id in the file)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func updateEvaluationCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace an evaluation's decision, observations, and ratings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "evaluation")
			if err != nil {
				return err
			}
			in, err := readEvaluationInput(file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			eng, cleanup, err := initEngine(ctx, false)
			if err != nil {
				return err
			}
			defer cleanup()

			evaluation, err := eng.UpdateEvaluation(ctx, id, in)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Updated evaluation #%d: score %.1f/10",
				evaluation.ID, evaluation.Score)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "evaluation file (YAML or JSON, - for stdin)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func deleteEvaluationCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "evaluation")
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if !yes {
				ok, err := cli.Confirm(ctx, cli.NewLineReader(cmd.InOrStdin()), out,
					fmt.Sprintf("Delete evaluation #%d and its ratings?", id))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, cli.FormatInfo("Nothing deleted"))
					return nil
				}
			}

			eng, cleanup, err := initEngine(ctx, false)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := eng.DeleteEvaluation(ctx, id); err != nil {
				return err
			}
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Deleted evaluation #%d", id)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

func listEvaluationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <project-id>",
		Short: "List a project's evaluations",
		Args:  cobra.ExactArgs(1),
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
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			evaluations, err := store.GetEvaluationsByProject(ctx, projectID)
			if err != nil {
				return fmt.Errorf("failed to list evaluations: %w", err)
			}

			out := cmd.OutOrStdout()
			return writeOutput(out, format, evaluations, func() error {
				return cli.RenderEvaluations(out, evaluations)
			})
		},
	}
	addOutputFlag(cmd)
	return cmd
}

func showEvaluationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an evaluation with its ratings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "evaluation")
			if err != nil {
				return err
			}
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			evaluation, err := store.GetEvaluation(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to load evaluation %d: %w", id, err)
			}

			out := cmd.OutOrStdout()
			return writeOutput(out, format, evaluation, func() error {
				lookup, err := catalog.New(store).Snapshot(ctx)
				if err != nil {
					return err
				}
				return cli.RenderEvaluation(out, *evaluation, lookup)
			})
		},
	}
	addOutputFlag(cmd)
	return cmd
}

func previewEvaluationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview <criterion_id=note[:respected]>...",
		Short: "Preview the score of partially filled ratings",
		Long: `Score ratings without storing them. Ratings with a blank, non-numeric, or
out-of-range note are skipped. respected defaults to true.`,
		Example: `  carbon evaluations preview 1=8 2=3:false 3=`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			drafts := make([]scoring.Draft, 0, len(args))
			for _, arg := range args {
				draft, err := parseDraft(arg)
				if err != nil {
					return err
				}
				drafts = append(drafts, draft)
			}
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			eng, cleanup, err := initEngine(ctx, false)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := eng.Preview(ctx, drafts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			return writeOutput(out, format, result, func() error {
				msg := fmt.Sprintf("Preview score %.1f/10 from %d rating(s)", result.Score, result.Used)
				if result.Skipped > 0 {
					msg += fmt.Sprintf(", %d skipped", result.Skipped)
				}
				_, err := fmt.Fprintln(out, cli.FormatInfo(msg))
				return err
			})
		},
	}
	addOutputFlag(cmd)
	return cmd
}

// parseDraft parses "criterion_id=note[:respected]". Only the criterion id
// and the respected flag must be well formed; the note is kept raw.
func parseDraft(raw string) (scoring.Draft, error) {
	idPart, rest, ok := strings.Cut(raw, "=")
	if !ok {
		return scoring.Draft{}, common.NewUserError(fmt.Sprintf("invalid rating %q, want criterion_id=note[:respected]", raw), common.ErrValidation)
	}

	id, err := parseID(idPart, "criterion")
	if err != nil {
		return scoring.Draft{}, err
	}

	draft := scoring.Draft{CriterionID: id, Respected: true}
	note, respected, hasFlag := strings.Cut(rest, ":")
	draft.Note = note
	if hasFlag {
		draft.Respected, err = strconv.ParseBool(strings.TrimSpace(respected))
		if err != nil {
			return scoring.Draft{}, common.NewUserError(fmt.Sprintf("invalid respected flag in %q", raw), common.ErrValidation)
		}
	}
	return draft, nil
}
