package stats

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/entrystudy/internal/model"
	"github.com/verte-zerg/entrystudy/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "entrystudy.db")
	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		info := model.StudyInfo{
			ID:      fmt.Sprintf("study-%d", i),
			Consent: model.ConsentRecord{Participant: fmt.Sprintf("P%d", i), SignedAt: time.Unix(0, 0).Add(time.Duration(i) * time.Minute)},
			Order:   model.OrderStartingWith(model.ModeQwerty),
		}
		if err := st.ExportConsent(ctx, info); err != nil {
			t.Fatalf("consent: %v", err)
		}
		events := []model.Event{
			model.Submission{Method: model.ModeQwerty, Entered: "abcdef", Target: "abcdef", Trial: 1, TimeTaken: 3 * time.Second},
			model.Prediction{Method: model.ModePredictive, Selected: "dog", Trial: 1},
			model.Submission{Method: model.ModePredictive, Entered: "dog ", Target: "dog", Trial: 1, TimeTaken: time.Second},
		}
		if err := st.ExportLog(ctx, info, events); err != nil {
			t.Fatalf("log: %v", err)
		}
	}

	reports, err := BuildReport(ctx, st, 2, 3)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	if reports[0].Study.ID != "study-1" || reports[1].Study.ID != "study-2" {
		t.Fatalf("unexpected study ids: %s, %s", reports[0].Study.ID, reports[1].Study.ID)
	}
	if len(reports[0].Modes) != 2 || reports[0].Modes[0].Mode != model.ModeQwerty {
		t.Fatalf("unexpected modes: %+v", reports[0].Modes)
	}
	if len(reports[0].Top) != 1 || reports[0].Top[0].Word != "dog" {
		t.Fatalf("unexpected top selections: %+v", reports[0].Top)
	}

	var buf bytes.Buffer
	if err := RenderReport(&buf, reports, 1); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"study-1  P1  (qwerty first, finished", "Mode", "predictive", "Most selected: dog (1)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
}

func TestRenderReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderReport(&buf, nil, 1); err != nil {
		t.Fatalf("render: %v", err)
	}
	if buf.String() != "No studies found.\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
