package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/carbon-audit/internal/cli"
	"github.com/Veraticus/carbon-audit/internal/model"
)

func projectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "Manage audited projects",
	}

	cmd.AddCommand(addProjectCmd())
	cmd.AddCommand(listProjectsCmd())
	cmd.AddCommand(showProjectCmd())
	cmd.AddCommand(rescoreProjectCmd())

	return cmd
}

func addProjectCmd() *cobra.Command {
	var project model.Project

	cmd := &cobra.Command{
		Use:     "add <name>",
		Short:   "Register a project",
		Example: `  carbon projects add "Solar farm Nord" --sector Energy --budget 500000 --description "20 MW photovoltaic plant"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project.Name = strings.TrimSpace(args[0])
			project.Description = strings.TrimSpace(project.Description)
			project.Sector = strings.TrimSpace(project.Sector)
			project.Status = model.ProjectStatusPending

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.CreateProject(ctx, &project); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Registered project #%d %q", project.ID, project.Name)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&project.Description, "description", "d", "", "what the project does")
	cmd.Flags().StringVarP(&project.Sector, "sector", "s", "", "economic sector")
	cmd.Flags().Float64VarP(&project.Budget, "budget", "b", 0, "budget")

	return cmd
}

func listProjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects with their status and ESG score",
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			projects, err := store.GetProjects(ctx)
			if err != nil {
				return fmt.Errorf("failed to list projects: %w", err)
			}

			out := cmd.OutOrStdout()
			return writeOutput(out, format, projects, func() error {
				return cli.RenderProjects(out, projects)
			})
		},
	}
	addOutputFlag(cmd)
	return cmd
}

type projectDetail struct {
	Project     *model.Project     `json:"project" yaml:"project"`
	Evaluations []model.Evaluation `json:"evaluations" yaml:"evaluations"`
}

func showProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project and its evaluations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
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

			project, err := store.GetProject(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to load project %d: %w", id, err)
			}
			evaluations, err := store.GetEvaluationsByProject(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to load evaluations: %w", err)
			}

			out := cmd.OutOrStdout()
			detail := projectDetail{Project: project, Evaluations: evaluations}
			return writeOutput(out, format, detail, func() error {
				if err := cli.RenderProject(out, *project); err != nil {
					return err
				}
				fmt.Fprintln(out)
				return cli.RenderEvaluations(out, evaluations)
			})
		},
	}
	addOutputFlag(cmd)
	return cmd
}

func rescoreProjectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rescore <id>",
		Short: "Recompute a project's ESG score from its latest evaluation",
		Long: `Recompute the ESG score against the current criteria catalog. Use this after
editing criteria, since stored ESG scores are only refreshed when evaluations change.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			eng, cleanup, err := initEngine(ctx, false)
			if err != nil {
				return err
			}
			defer cleanup()

			score, err := eng.RecomputeProjectESG(ctx, id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if score == nil {
				fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Project #%d has no evaluation; ESG score cleared", id)))
				return nil
			}
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Project #%d ESG score: %d/100", id, *score)))
			return nil
		},
	}
}
