package study

import (
	"context"
	"unicode"

	"github.com/verte-zerg/entrystudy/internal/model"
	"github.com/verte-zerg/entrystudy/internal/predict"
)

// Edit replaces the text buffer and cursor (in runes) after any change to the
// input, and recomputes the word being typed. The buffer is held as runes, so
// invalid UTF-8 in text is stored and later submitted as U+FFFD.
func (s *Study) Edit(text string, cursor int) {
	if s.phase != PhaseTrial {
		return
	}
	s.text = []rune(text)
	s.cursor = clamp(cursor, 0, len(s.text))
	s.word = wordBefore(s.text, s.cursor)
}

// Text is the current input buffer.
func (s *Study) Text() string { return string(s.text) }

// Cursor is the rune offset of the cursor in Text.
func (s *Study) Cursor() int { return s.cursor }

// Word is the in-progress word: the non-space run ending at the cursor.
func (s *Study) Word() string { return s.word }

// Suggestions returns the candidates for the in-progress word.
func (s *Study) Suggestions() []string {
	return s.SuggestionsFor(s.word)
}

// SuggestionsFor returns up to nine candidates for word from the active block's
// dictionary. Outside predictive trials there are none.
func (s *Study) SuggestionsFor(word string) []string {
	if s.phase != PhaseTrial || s.mode != model.ModePredictive {
		return nil
	}
	return s.dict.Suggest(word, predict.MaxSuggestions)
}

// Select applies suggestion number digit (1-9). The in-progress word is replaced
// by the candidate and a trailing space. It reports false, changing nothing,
// when no candidate has that number.
func (s *Study) Select(digit int) bool {
	if digit < 1 || digit > predict.MaxSuggestions {
		return false
	}
	candidates := s.Suggestions()
	if digit > len(candidates) {
		return false
	}
	chosen := candidates[digit-1]
	start := s.cursor - len([]rune(s.word))
	if start < 0 {
		start = 0
	}
	insert := []rune(chosen + " ")
	text := make([]rune, 0, len(s.text)-(s.cursor-start)+len(insert))
	text = append(text, s.text[:start]...)
	text = append(text, insert...)
	text = append(text, s.text[s.cursor:]...)

	s.log.Append(model.Prediction{
		Method:    s.mode,
		Input:     s.word,
		Selected:  chosen,
		Phrase:    s.Phrase(),
		Trial:     s.trial + 1,
		Timestamp: s.now(),
	})
	s.text = text
	s.cursor = start + len(insert)
	s.word = ""
	return true
}

// Submit commits the current buffer as the transcription of the trial's phrase
// and moves on. Finishing the last trial of the last block exports the log.
func (s *Study) Submit(ctx context.Context) error {
	if s.phase != PhaseTrial {
		return ErrInputDisabled
	}
	s.log.Append(model.Submission{
		Method:    s.mode,
		Entered:   string(s.text),
		Target:    s.Phrase(),
		Trial:     s.trial + 1,
		TimeTaken: s.now().Sub(s.trialStart),
	})
	s.trial++
	return s.finishTrial(ctx)
}

func (s *Study) clearInput() {
	s.text = nil
	s.cursor = 0
	s.word = ""
}

func wordBefore(text []rune, cursor int) string {
	start := cursor
	for start > 0 && !unicode.IsSpace(text[start-1]) {
		start--
	}
	return string(text[start:cursor])
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
