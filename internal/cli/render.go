package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Veraticus/carbon-audit/internal/catalog"
	"github.com/Veraticus/carbon-audit/internal/classification"
	"github.com/Veraticus/carbon-audit/internal/decision"
	"github.com/Veraticus/carbon-audit/internal/engine"
	"github.com/Veraticus/carbon-audit/internal/model"
)

const dateLayout = "2006-01-02"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// RenderCriteria prints the catalog as a table with each criterion's category.
func RenderCriteria(w io.Writer, criteria []model.CriterionReference) error {
	if len(criteria) == 0 {
		_, err := fmt.Fprintln(w, "No criteria found. Add one with 'carbon criteria add'.")
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tName\tWeight\tCategory\tDescription")
	fmt.Fprintln(tw, "--\t----\t------\t--------\t-----------")
	for _, c := range criteria {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n",
			c.ID, c.Name, c.Weight, classification.Classify(c.Name, c.Description), truncate(c.Description, 48))
	}
	return tw.Flush()
}

// RenderProjects prints projects with their status and ESG score.
func RenderProjects(w io.Writer, projects []model.Project) error {
	if len(projects) == 0 {
		_, err := fmt.Fprintln(w, "No projects found. Add one with 'carbon projects add'.")
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tName\tSector\tBudget\tStatus\tESG")
	fmt.Fprintln(tw, "--\t----\t------\t------\t------\t---")
	for _, p := range projects {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.0f\t%s\t%s\n",
			p.ID, p.Name, p.Sector, p.Budget, p.Status, formatESG(p.ESGScore))
	}
	return tw.Flush()
}

// RenderProject prints one project's details.
func RenderProject(w io.Writer, p model.Project) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Sector:      %s\n", p.Sector)
	fmt.Fprintf(&b, "Budget:      %.2f\n", p.Budget)
	fmt.Fprintf(&b, "Status:      %s\n", FormatStatus(p.Status))
	fmt.Fprintf(&b, "ESG score:   %s\n", formatESG(p.ESGScore))
	fmt.Fprintf(&b, "Created:     %s", p.CreatedAt.Format(dateLayout))
	if p.Description != "" {
		fmt.Fprintf(&b, "\n\n%s", p.Description)
	}
	_, err := fmt.Fprintln(w, RenderBox(fmt.Sprintf("#%d %s", p.ID, p.Name), b.String()))
	return err
}

// RenderEvaluations prints a project's evaluations, newest last.
func RenderEvaluations(w io.Writer, evaluations []model.Evaluation) error {
	if len(evaluations) == 0 {
		_, err := fmt.Fprintln(w, "No evaluations recorded for this project.")
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tDate\tDecision\tScore\tRatings\tCompliance")
	fmt.Fprintln(tw, "--\t----\t--------\t-----\t-------\t----------")
	for _, e := range evaluations {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.1f\t%d\t%.0f%%\n",
			e.ID, e.CreatedAt.Format(dateLayout), e.Decision, e.Score, len(e.Ratings), model.ComplianceRate(e.Ratings)*100)
	}
	return tw.Flush()
}

// RenderEvaluation prints one evaluation with its ratings resolved against lookup.
func RenderEvaluation(w io.Writer, e model.Evaluation, lookup *catalog.Lookup) error {
	fmt.Fprintln(w, FormatTitle(fmt.Sprintf("Evaluation #%d (project %d)", e.ID, e.ProjectID)))
	fmt.Fprintf(w, "Decision:     %s (%s)\n", e.Decision, decision.DisplayLabel(e.Decision))
	fmt.Fprintf(w, "Score:        %.1f/10\n", e.Score)
	fmt.Fprintf(w, "Observations: %s\n\n", e.Observations)

	tw := newTable(w)
	fmt.Fprintln(tw, "Criterion\tWeight\tNote\tRespected\tComment")
	fmt.Fprintln(tw, "---------\t------\t----\t---------\t-------")
	for _, r := range e.Ratings {
		entry := lookup.Resolve(r.CriterionID)
		respected := ErrorIcon
		if r.Respected {
			respected = SuccessIcon
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", entry.Name, entry.Weight, r.Note, respected, truncate(r.Comment, 40))
	}
	return tw.Flush()
}

// RenderImpacts prints impact points in ranked order.
func RenderImpacts(w io.Writer, points []model.ImpactPoint) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "#\tCriterion\tCategory\tNote\tWeight\tImpact\tPenalties")
	for i, p := range points {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%.2f\t%s\n",
			i+1, p.Name, p.Category, p.Note, p.Weight, p.Impact, p.PenaltyLabel())
	}
	return tw.Flush()
}

// RenderSuggestion prints a full recommendation.
func RenderSuggestion(w io.Writer, s *model.AiSuggestion, showImpacts bool) error {
	d := model.DecisionReject
	if s.Decision == decision.LabelApproved {
		d = model.DecisionApprove
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Decision:    %s\n", FormatDecision(s.Decision, d))
	fmt.Fprintf(&b, "Source:      %s (confidence %.2f)\n", s.Source, s.Confidence)
	fmt.Fprintf(&b, "Score:       %.1f/10\n", s.Score)
	fmt.Fprintf(&b, "Compliance:  %.0f%%\n", s.ComplianceRate*100)
	fmt.Fprintf(&b, "ESG score:   %s", formatESG(s.ESGScore))
	if s.PredictedESG != nil {
		fmt.Fprintf(&b, " (predicted %d/100)", *s.PredictedESG)
	}
	if s.CarbonRisk != "" {
		fmt.Fprintf(&b, "\nCarbon risk: %s", s.CarbonRisk)
	}
	title := fmt.Sprintf("%s Project %d, evaluation %d", ChartIcon, s.ProjectID, s.EvaluationID)
	fmt.Fprintln(w, RenderBox(title, b.String()))

	if len(s.TopFactors) > 0 {
		fmt.Fprintln(w, "\n"+BoldStyle.Render("Key factors"))
		for _, f := range s.TopFactors {
			fmt.Fprintf(w, "  • %s\n", f)
		}
	}
	if showImpacts && len(s.Impacts) > 0 {
		fmt.Fprintln(w)
		if err := RenderImpacts(w, s.Impacts); err != nil {
			return err
		}
	}
	if len(s.Warnings) > 0 {
		fmt.Fprintln(w)
		for _, warning := range s.Warnings {
			fmt.Fprintln(w, FormatWarning(warning))
		}
	}
	if len(s.Recommendations) > 0 {
		fmt.Fprintln(w, "\n"+BoldStyle.Render("Recommendations"))
		for i, r := range s.Recommendations {
			fmt.Fprintf(w, "  %d. %s\n", i+1, r)
		}
	}

	_, err := fmt.Fprintln(w, "\n"+s.Conclusion)
	return err
}

// RenderAuditSummary prints one line per project and the totals.
func RenderAuditSummary(w io.Writer, summary *engine.AuditSummary) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tProject\tDecision\tScore\tESG\tSource")
	fmt.Fprintln(tw, "--\t-------\t--------\t-----\t---\t------")
	for _, r := range summary.Results {
		switch {
		case r.Error != nil:
			fmt.Fprintf(tw, "%d\t%s\t%s\t-\t-\t-\n", r.Project.ID, r.Project.Name, "error: "+r.Error.Error())
		case r.Skipped:
			fmt.Fprintf(tw, "%d\t%s\t%s\t-\t-\t-\n", r.Project.ID, r.Project.Name, "no evaluation")
		default:
			s := r.Suggestion
			fmt.Fprintf(tw, "%d\t%s\t%s\t%.1f\t%s\t%s\n",
				r.Project.ID, r.Project.Name, s.Decision, s.Score, formatESG(s.ESGScore), s.Source)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%s\n",
		FormatSuccess(fmt.Sprintf("Audited %d projects in %s: %d approved, %d rejected, %d skipped, %d failed",
			len(summary.Results), summary.ProcessingTime.Round(time.Millisecond),
			summary.Approved, summary.Rejected, summary.Skipped, summary.Failed)))
	return err
}

func formatESG(score *int) string {
	if score == nil {
		return "-"
	}
	return fmt.Sprintf("%d/100", *score)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
