package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/verte-zerg/entrystudy/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "entrystudy.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func testStudy(id string, signed time.Time) model.StudyInfo {
	return model.StudyInfo{
		ID:      id,
		Consent: model.ConsentRecord{Participant: "Ada Lovelace", SignedAt: signed},
		Order:   model.OrderStartingWith(model.ModePredictive),
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	st := openTestStore(t)
	finished := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	st.now = func() time.Time { return finished }
	ctx := context.Background()
	info := testStudy("study-a", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))

	if err := st.ExportConsent(ctx, info); err != nil {
		t.Fatalf("consent: %v", err)
	}
	events := []model.Event{
		model.Prediction{Method: model.ModePredictive, Input: "d", Selected: "dog", Phrase: "the dog", Trial: 1, Timestamp: time.UnixMilli(1714557600123)},
		model.Submission{Method: model.ModePredictive, Entered: "the dog ", Target: "the dog", Trial: 1, TimeTaken: 2500 * time.Millisecond},
		model.BlockComplete{Block: model.ModePredictive, Timestamp: time.UnixMilli(1714557609000)},
	}
	if err := st.ExportLog(ctx, info, events); err != nil {
		t.Fatalf("log: %v", err)
	}

	got, err := st.ListEvents(ctx, info.ID)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if diff := cmp.Diff(events, got); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}

	studies, err := st.ListStudies(ctx)
	if err != nil {
		t.Fatalf("list studies: %v", err)
	}
	if len(studies) != 1 {
		t.Fatalf("expected 1 study, got %d", len(studies))
	}
	s := studies[0]
	if s.ID != "study-a" || s.Participant != "Ada Lovelace" || s.FirstMode != model.ModePredictive || s.EventCount != 3 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.FinishedAt == nil || !s.FinishedAt.Equal(finished) {
		t.Fatalf("expected finished_at %v, got %v", finished, s.FinishedAt)
	}

	loaded, err := st.GetStudy(ctx, info.ID)
	if err != nil {
		t.Fatalf("get study: %v", err)
	}
	if loaded.Order != info.Order || !loaded.Consent.SignedAt.Equal(info.Consent.SignedAt) {
		t.Fatalf("unexpected study %+v", loaded)
	}
}

func TestListStudiesUnfinished(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"late", "early"} {
		info := testStudy(id, base.Add(-time.Duration(i)*time.Hour))
		if err := st.ExportConsent(ctx, info); err != nil {
			t.Fatalf("consent: %v", err)
		}
	}
	studies, err := st.ListStudies(ctx)
	if err != nil {
		t.Fatalf("list studies: %v", err)
	}
	if len(studies) != 2 || studies[0].ID != "early" || studies[1].ID != "late" {
		t.Fatalf("unexpected order: %+v", studies)
	}
	if studies[0].FinishedAt != nil || studies[0].EventCount != 0 {
		t.Fatalf("expected unfinished study without events")
	}
}

func TestExportLogWithoutConsent(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	info := testStudy("no-consent", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	if err := st.ExportLog(ctx, info, []model.Event{model.BlockComplete{Block: model.ModeQwerty, Timestamp: time.UnixMilli(1)}}); err != nil {
		t.Fatalf("log: %v", err)
	}
	if _, err := st.GetStudy(ctx, info.ID); err != nil {
		t.Fatalf("expected study row to be created: %v", err)
	}
}

func TestGetStudyNotFound(t *testing.T) {
	st := openTestStore(t)
	if _, err := st.GetStudy(context.Background(), "missing"); !errors.Is(err, ErrStudyNotFound) {
		t.Fatalf("expected ErrStudyNotFound, got %v", err)
	}
}
