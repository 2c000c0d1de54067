package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/carbon-audit/internal/cli"
	"github.com/Veraticus/carbon-audit/internal/engine"
)

func auditCmd() *cobra.Command {
	var (
		remote     bool
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Recommend a decision for every project",
		Long: `Build a recommendation from the latest evaluation of every project. Projects
are processed concurrently; projects without an evaluation are skipped.`,
		Example: `  carbon audit
  carbon audit --remote --concurrency 8
  carbon audit --output yaml > audit.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
			ctx := handler.HandleInterrupts(cmd.Context(), "Nothing was written; rerun carbon audit to start over.")
			defer handler.Stop()

			eng, cleanup, err := initEngine(ctx, remote)
			if err != nil {
				return err
			}
			defer cleanup()

			opts := engine.DefaultAuditOptions()
			opts.Concurrency = viper.GetInt("audit.concurrency")
			opts.Remote = remote

			var onDone func(engine.AuditResult)
			if format == outputTable && !noProgress {
				projects, err := eng.Projects(ctx)
				if err != nil {
					return err
				}
				bar := cli.NewProgressBar(cmd.ErrOrStderr(), len(projects), "Auditing projects...")
				onDone = func(engine.AuditResult) {
					if err := bar.Add(1); err != nil {
						slog.Debug("failed to update progress bar", "error", err)
					}
				}
			}

			summary, err := eng.Audit(ctx, opts, onDone)
			if err != nil {
				if handler.WasInterrupted() && errors.Is(err, ctx.Err()) {
					return nil
				}
				return fmt.Errorf("audit failed: %w", err)
			}

			out := cmd.OutOrStdout()
			return writeOutput(out, format, summary, func() error {
				return cli.RenderAuditSummary(out, summary)
			})
		},
	}

	cmd.Flags().BoolVarP(&remote, "remote", "r", false, "refine every recommendation with the advisory service")
	cmd.Flags().Int("concurrency", engine.DefaultAuditOptions().Concurrency, "projects processed at once")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "hide the progress bar")
	_ = viper.BindPFlag("audit.concurrency", cmd.Flags().Lookup("concurrency"))
	addOutputFlag(cmd)

	return cmd
}
