package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/carbon-audit/internal/catalog"
	"github.com/Veraticus/carbon-audit/internal/classification"
	"github.com/Veraticus/carbon-audit/internal/cli"
	"github.com/Veraticus/carbon-audit/internal/model"
)

func criteriaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "criteria",
		Aliases: []string{"criterion"},
		Short:   "Manage the rating criteria catalog",
		Long: `List, add, edit, and remove the weighted criteria that evaluations rate
projects against. Each criterion is classified into an ESG category from its
name and description.`,
	}

	cmd.AddCommand(listCriteriaCmd())
	cmd.AddCommand(addCriterionCmd())
	cmd.AddCommand(editCriterionCmd())
	cmd.AddCommand(removeCriterionCmd())

	return cmd
}

func listCriteriaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all criteria",
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

			criteria, err := catalog.New(store).List(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			return writeOutput(out, format, criteria, func() error {
				return cli.RenderCriteria(out, criteria)
			})
		},
	}
	addOutputFlag(cmd)
	return cmd
}

func addCriterionCmd() *cobra.Command {
	var (
		description string
		weight      int
	)

	cmd := &cobra.Command{
		Use:     "add <name>",
		Short:   "Add a new criterion",
		Example: `  carbon criteria add "Emissions CO2" --description "Tonnes of CO2 avoided per year" --weight 5`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			criterion, err := catalog.New(store).Add(ctx, args[0], description, weight)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added criterion #%d %q (%s, weight %d)",
				criterion.ID, criterion.Name, classification.Classify(criterion.Name, criterion.Description), criterion.Weight)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "what the criterion measures (8-250 characters)")
	cmd.Flags().IntVarP(&weight, "weight", "w", model.MinWeight, "weight from 1 to 10")
	_ = cmd.MarkFlagRequired("description")

	return cmd
}

func editCriterionCmd() *cobra.Command {
	var (
		name        string
		description string
		weight      int
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a criterion",
		Long:  `Change a criterion's name, description, or weight. Unset flags keep their current value.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "criterion")
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			existing, err := store.GetCriterionByID(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to load criterion %d: %w", id, err)
			}
			if !cmd.Flags().Changed("name") {
				name = existing.Name
			}
			if !cmd.Flags().Changed("description") {
				description = existing.Description
			}
			if !cmd.Flags().Changed("weight") {
				weight = existing.Weight
			}

			updated, err := catalog.New(store).Edit(ctx, id, name, description, weight)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Updated criterion #%d %q (weight %d)",
				updated.ID, updated.Name, updated.Weight)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "new name (8-30 characters)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description (8-250 characters)")
	cmd.Flags().IntVarP(&weight, "weight", "w", 0, "new weight from 1 to 10")

	return cmd
}

func removeCriterionCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a criterion",
		Long: `Remove a criterion from the catalog. Existing ratings keep referencing it
and are scored with weight 1 in category OTHER from then on.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "criterion")
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			existing, err := store.GetCriterionByID(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to load criterion %d: %w", id, err)
			}

			out := cmd.OutOrStdout()
			if !yes {
				ok, err := cli.Confirm(ctx, cli.NewLineReader(cmd.InOrStdin()), out,
					fmt.Sprintf("Remove criterion #%d %q?", existing.ID, existing.Name))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, cli.FormatInfo("Nothing removed"))
					return nil
				}
			}

			if err := catalog.New(store).Remove(ctx, id); err != nil {
				return err
			}
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Removed criterion #%d %q", existing.ID, existing.Name)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}
