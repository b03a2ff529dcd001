// Package stats contains statistics calculations and reporting.
package stats

import (
	"math"
	"strings"
	"time"

	"github.com/verte-zerg/entrystudy/internal/model"
)

const sparkChars = " .:-=+*#%@"

// practiceTrials mirrors the number of leading trials labeled practice.
const practiceTrials = 5

// ModeSummary aggregates one mode's trials within a study.
type ModeSummary struct {
	Mode        model.Mode
	Trials      int
	TotalTime   time.Duration
	WPM         float64
	TestWPM     float64
	Predictions int
	TrialTimes  []float64
}

// MeanTime is the average time per trial.
func (s ModeSummary) MeanTime() time.Duration {
	if s.Trials == 0 {
		return 0
	}
	return s.TotalTime / time.Duration(s.Trials)
}

// EntryRate computes words per minute from transcribed characters, counting
// five characters as a word. The first character of each transcription is
// excluded by the caller since timing starts before it is typed.
func EntryRate(chars int, durationMs int64) float64 {
	if durationMs <= 0 || chars <= 0 {
		return 0
	}
	minutes := float64(durationMs) / 60000.0
	return (float64(chars) / 5.0) / minutes
}

// Summarize groups a study log by mode, in the order modes first appear.
func Summarize(events []model.Event) []ModeSummary {
	type acc struct {
		summary   ModeSummary
		chars     int
		ms        int64
		testChars int
		testMs    int64
	}
	var order []model.Mode
	byMode := map[model.Mode]*acc{}
	get := func(m model.Mode) *acc {
		a, ok := byMode[m]
		if !ok {
			a = &acc{summary: ModeSummary{Mode: m}}
			byMode[m] = a
			order = append(order, m)
		}
		return a
	}
	for _, e := range events {
		switch ev := e.(type) {
		case model.Submission:
			a := get(ev.Method)
			a.summary.Trials++
			a.summary.TotalTime += ev.TimeTaken
			a.summary.TrialTimes = append(a.summary.TrialTimes, ev.TimeTaken.Seconds())
			chars := len([]rune(strings.TrimSpace(ev.Entered))) - 1
			if chars < 0 {
				chars = 0
			}
			ms := ev.TimeTaken.Milliseconds()
			a.chars += chars
			a.ms += ms
			if ev.Trial > practiceTrials {
				a.testChars += chars
				a.testMs += ms
			}
		case model.Prediction:
			get(ev.Method).summary.Predictions++
		}
	}
	out := make([]ModeSummary, 0, len(order))
	for _, m := range order {
		a := byMode[m]
		a.summary.WPM = EntryRate(a.chars, a.ms)
		a.summary.TestWPM = EntryRate(a.testChars, a.testMs)
		out = append(out, a.summary)
	}
	return out
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}
