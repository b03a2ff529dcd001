package stats

import (
	"math"
	"testing"
	"time"

	"github.com/verte-zerg/entrystudy/internal/model"
)

func TestEntryRate(t *testing.T) {
	if got := EntryRate(25, 60000); math.Abs(got-5) > 1e-9 {
		t.Fatalf("expected 5 WPM, got %f", got)
	}
	if EntryRate(10, 0) != 0 || EntryRate(0, 1000) != 0 {
		t.Fatalf("expected zero rate for empty input")
	}
}

func TestSummarize(t *testing.T) {
	events := []model.Event{
		model.Prediction{Method: model.ModePredictive, Selected: "my"},
		model.Submission{Method: model.ModePredictive, Entered: "my watch ", Trial: 1, TimeTaken: 2 * time.Second},
		model.Submission{Method: model.ModePredictive, Entered: "abcdefghijk", Trial: 6, TimeTaken: 4 * time.Second},
		model.BlockComplete{Block: model.ModePredictive},
		model.Submission{Method: model.ModeQwerty, Entered: "", Trial: 1, TimeTaken: time.Second},
	}
	got := Summarize(events)
	if len(got) != 2 {
		t.Fatalf("expected 2 modes, got %d", len(got))
	}
	p := got[0]
	if p.Mode != model.ModePredictive || p.Trials != 2 || p.Predictions != 1 {
		t.Fatalf("unexpected predictive summary %+v", p)
	}
	if p.MeanTime() != 3*time.Second {
		t.Fatalf("expected 3s mean, got %v", p.MeanTime())
	}
	// "my watch" contributes 7 chars and "abcdefghijk" 10 over 6 seconds.
	if math.Abs(p.WPM-(17.0/5.0)/(6.0/60.0)) > 1e-9 {
		t.Fatalf("unexpected WPM %f", p.WPM)
	}
	if math.Abs(p.TestWPM-(10.0/5.0)/(4.0/60.0)) > 1e-9 {
		t.Fatalf("unexpected test WPM %f", p.TestWPM)
	}
	q := got[1]
	if q.Mode != model.ModeQwerty || q.WPM != 0 || len(q.TrialTimes) != 1 {
		t.Fatalf("unexpected qwerty summary %+v", q)
	}
}

func TestSparklineFlat(t *testing.T) {
	if got := Sparkline([]float64{2, 2, 2}); got != "+++" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline([]float64{0, 9}); got != " @" {
		t.Fatalf("unexpected sparkline %q", got)
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{1, 3, 5, 7}, 2)
	want := []float64{1, 2, 4, 6}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("index %d: expected %f, got %f", i, want[i], got[i])
		}
	}
}
