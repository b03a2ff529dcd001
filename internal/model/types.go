// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Mode is a text-entry method under study.
type Mode string

const (
	ModeQwerty     Mode = "qwerty"
	ModePredictive Mode = "predictive"
)

// ParseMode accepts a mode name case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeQwerty:
		return ModeQwerty, nil
	case ModePredictive:
		return ModePredictive, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want %s or %s)", s, ModeQwerty, ModePredictive)
	}
}

// Other returns the counterpart mode.
func (m Mode) Other() Mode {
	if m == ModeQwerty {
		return ModePredictive
	}
	return ModeQwerty
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	return m == ModeQwerty || m == ModePredictive
}

// Label is the uppercase form shown to participants.
func (m Mode) Label() string {
	return strings.ToUpper(string(m))
}

// BlockOrder is the counter-balanced order of the two blocks.
type BlockOrder [2]Mode

// OrderStartingWith fixes the block order from the chosen starting mode.
func OrderStartingWith(first Mode) BlockOrder {
	return BlockOrder{first, first.Other()}
}

// Config defines study settings.
type Config struct {
	PhrasesPath  string
	First        Mode
	ExportDir    string
	IntroDelay   time.Duration
	BetweenDelay time.Duration
	LegacyCSV    bool
	Archive      bool
	FoldAccents  bool
}

// ConsentRecord is created once when the participant signs.
type ConsentRecord struct {
	Participant string
	SignedAt    time.Time
}

// StudyInfo identifies a single run of the study.
type StudyInfo struct {
	ID      string
	Consent ConsentRecord
	Order   BlockOrder
}

// StudySummary is an archived study as listed from the store.
type StudySummary struct {
	ID          string
	Participant string
	SignedAt    time.Time
	FirstMode   Mode
	FinishedAt  *time.Time
	EventCount  int
}
