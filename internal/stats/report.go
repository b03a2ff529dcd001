package stats

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/verte-zerg/entrystudy/internal/model"
	"github.com/verte-zerg/entrystudy/internal/store"
)

// StudyReport contains precomputed data for one archived study.
type StudyReport struct {
	Study model.StudySummary
	Modes []ModeSummary
	Top   []WordCount
}

// BuildReport loads the most recent archived studies. last <= 0 loads all of them.
func BuildReport(ctx context.Context, st *store.Store, last, top int) ([]StudyReport, error) {
	studies, err := st.ListStudies(ctx)
	if err != nil {
		return nil, err
	}
	if last > 0 && len(studies) > last {
		studies = studies[len(studies)-last:]
	}
	reports := make([]StudyReport, 0, len(studies))
	for _, s := range studies {
		events, err := st.ListEvents(ctx, s.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load events of %s: %w", s.ID, err)
		}
		reports = append(reports, StudyReport{
			Study: s,
			Modes: Summarize(events),
			Top:   TopSelections(events, top),
		})
	}
	return reports, nil
}

// RenderReport prints one table per study.
func RenderReport(w io.Writer, reports []StudyReport, curveWindow int) error {
	if len(reports) == 0 {
		_, err := fmt.Fprintln(w, "No studies found.")
		return err
	}
	for _, r := range reports {
		status := "unfinished"
		if r.Study.FinishedAt != nil {
			status = "finished " + r.Study.FinishedAt.Local().Format("2006-01-02 15:04")
		}
		if _, err := fmt.Fprintf(w, "%s  %s  (%s first, %s)\n",
			r.Study.ID, r.Study.Participant, r.Study.FirstMode, status); err != nil {
			return err
		}

		for _, line := range modeTable(r.Modes, modeColumns(curveWindow)) {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		if len(r.Top) > 0 {
			parts := make([]string, len(r.Top))
			for i, wc := range r.Top {
				parts[i] = fmt.Sprintf("%s (%d)", wc.Word, wc.Count)
			}
			if _, err := fmt.Fprintf(w, "Most selected: %s\n", strings.Join(parts, ", ")); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, ""); err != nil {
			return err
		}
	}
	return nil
}
