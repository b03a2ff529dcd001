// Package study sequences the two counter-balanced blocks of a text-entry study
// and tracks the participant's input within each trial.
//
// A Study is driven from a single goroutine: the host feeds it input events and
// calls Continue once the delay reported by PacingDelay has elapsed.
package study

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/entrystudy/internal/corpus"
	"github.com/verte-zerg/entrystudy/internal/eventlog"
	"github.com/verte-zerg/entrystudy/internal/model"
	"github.com/verte-zerg/entrystudy/internal/predict"
)

const (
	// PhrasesPerBlock is the number of trials in a block.
	PhrasesPerBlock = 20
	// PracticeTrials is how many leading trials of a block are labeled practice.
	PracticeTrials = 5

	DefaultIntroDelay   = time.Second
	DefaultBetweenDelay = 2 * time.Second
)

var (
	// ErrMissingParticipant rejects a start without a signed name.
	ErrMissingParticipant = errors.New("please sign the consent form with your name before continuing")
	// ErrAlreadyStarted rejects a second start of the same study.
	ErrAlreadyStarted = errors.New("study already started")
	// ErrInputDisabled is returned for a submission outside a trial.
	ErrInputDisabled = errors.New("input is disabled")
)

// Phase is a state of the study sequence.
type Phase int

const (
	PhaseAwaitingConsent Phase = iota
	PhaseBlockIntro
	PhaseTrial
	PhaseBlockComplete
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingConsent:
		return "awaiting_consent"
	case PhaseBlockIntro:
		return "block_intro"
	case PhaseTrial:
		return "trial"
	case PhaseBlockComplete:
		return "block_complete"
	case PhaseFinished:
		return "finished"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Exporter delivers the consent record at start and the event log at the end.
type Exporter interface {
	ExportConsent(ctx context.Context, info model.StudyInfo) error
	ExportLog(ctx context.Context, info model.StudyInfo, events []model.Event) error
}

type nopExporter struct{}

func (nopExporter) ExportConsent(context.Context, model.StudyInfo) error { return nil }
func (nopExporter) ExportLog(context.Context, model.StudyInfo, []model.Event) error {
	return nil
}

// Option customizes a Study.
type Option func(*Study)

// WithSampler sets the phrase sampler.
func WithSampler(s *corpus.Sampler) Option {
	return func(st *Study) { st.sampler = s }
}

// WithExporter sets where consent and log are delivered.
func WithExporter(e Exporter) Option {
	return func(st *Study) { st.exporter = e }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(st *Study) { st.now = now }
}

// WithDelays sets the pacing before a block starts and between blocks.
func WithDelays(intro, between time.Duration) Option {
	return func(st *Study) {
		st.introDelay = intro
		st.betweenDelay = between
	}
}

// WithFoldAccents indexes accented letters under their base letter in the
// suggestion dictionaries instead of dropping them.
func WithFoldAccents(fold bool) Option {
	return func(st *Study) { st.foldAccents = fold }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l zerolog.Logger) Option {
	return func(st *Study) { st.logger = l }
}

// Study holds all state of one participant's session.
type Study struct {
	corpus       []string
	sampler      *corpus.Sampler
	exporter     Exporter
	now          func() time.Time
	introDelay   time.Duration
	betweenDelay time.Duration
	foldAccents  bool
	logger       zerolog.Logger

	info     model.StudyInfo
	phase    Phase
	block    int
	mode     model.Mode
	phrases  []string
	dict     *predict.Dictionary
	trial    int
	message  string
	log      *eventlog.Log
	exported bool

	text       []rune
	cursor     int
	word       string
	trialStart time.Time
}

// New creates a study over the given phrase pool.
func New(phrases []string, opts ...Option) *Study {
	s := &Study{
		corpus:       append([]string(nil), phrases...),
		exporter:     nopExporter{},
		now:          time.Now,
		introDelay:   DefaultIntroDelay,
		betweenDelay: DefaultBetweenDelay,
		logger:       zerolog.Nop(),
		log:          eventlog.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sampler == nil {
		s.sampler = corpus.NewSampler()
	}
	return s
}

// TryStart records consent for participant and starts with the given mode first.
// A blank name or an undersized corpus leaves the study untouched.
func (s *Study) TryStart(ctx context.Context, participant string, first model.Mode) error {
	if s.phase != PhaseAwaitingConsent {
		return ErrAlreadyStarted
	}
	name := strings.TrimSpace(participant)
	if name == "" {
		return ErrMissingParticipant
	}
	if !first.Valid() {
		return fmt.Errorf("unknown starting mode %q", first)
	}
	if len(s.corpus) < PhrasesPerBlock {
		return fmt.Errorf("%w: need %d phrases, have %d", corpus.ErrInsufficientCorpus, PhrasesPerBlock, len(s.corpus))
	}

	info := model.StudyInfo{
		ID:      uuid.NewString(),
		Consent: model.ConsentRecord{Participant: name, SignedAt: s.now().UTC()},
		Order:   model.OrderStartingWith(first),
	}
	if err := s.exporter.ExportConsent(ctx, info); err != nil {
		s.logger.Error().Err(err).Str("study", info.ID).Msg("consent export failed")
		return fmt.Errorf("failed to save consent: %w", err)
	}
	s.info = info
	return s.Start(first)
}

// Start fixes the block order and begins the first block.
func (s *Study) Start(first model.Mode) error {
	if s.phase != PhaseAwaitingConsent {
		return ErrAlreadyStarted
	}
	if !first.Valid() {
		return fmt.Errorf("unknown starting mode %q", first)
	}
	phrases, dict, err := s.prepareBlock()
	if err != nil {
		return err
	}
	if s.info.ID == "" {
		s.info.ID = uuid.NewString()
	}
	s.info.Order = model.OrderStartingWith(first)
	s.block = 0
	s.enterBlock(phrases, dict)
	return nil
}

// Continue advances past a pacing pause. It is a no-op outside BlockIntro and
// BlockComplete.
func (s *Study) Continue() error {
	switch s.phase {
	case PhaseBlockIntro:
		s.phase = PhaseTrial
		s.presentTrial()
	case PhaseBlockComplete:
		phrases, dict, err := s.prepareBlock()
		if err != nil {
			return err
		}
		s.enterBlock(phrases, dict)
	}
	return nil
}

// PacingDelay is how long the host should wait before calling Continue.
func (s *Study) PacingDelay() time.Duration {
	switch s.phase {
	case PhaseBlockIntro:
		return s.introDelay
	case PhaseBlockComplete:
		return s.betweenDelay
	default:
		return 0
	}
}

func (s *Study) prepareBlock() ([]string, *predict.Dictionary, error) {
	phrases, err := s.sampler.Sample(s.corpus, PhrasesPerBlock)
	if err != nil {
		return nil, nil, err
	}
	var opts []predict.Option
	if s.foldAccents {
		opts = append(opts, predict.FoldAccents())
	}
	return phrases, predict.Build(phrases, opts...), nil
}

func (s *Study) enterBlock(phrases []string, dict *predict.Dictionary) {
	s.mode = s.info.Order[s.block]
	s.phrases = phrases
	s.dict = dict
	s.trial = 0
	s.phase = PhaseBlockIntro
	s.message = fmt.Sprintf("Starting %s block...", s.mode.Label())
	s.clearInput()
	s.logger.Debug().
		Str("study", s.info.ID).
		Int("block", s.block).
		Str("mode", string(s.mode)).
		Int("prefixes", dict.Len()).
		Msg("block ready")
}

func (s *Study) presentTrial() {
	s.clearInput()
	s.message = ""
	s.trialStart = s.now()
}

func (s *Study) finishTrial(ctx context.Context) error {
	if s.trial < len(s.phrases) {
		s.presentTrial()
		return nil
	}
	s.log.Append(model.BlockComplete{Block: s.mode, Timestamp: s.now()})
	s.logger.Info().Str("study", s.info.ID).Str("mode", string(s.mode)).Msg("block complete")
	s.block++
	s.clearInput()
	if s.block < len(s.info.Order) {
		s.phase = PhaseBlockComplete
		s.message = fmt.Sprintf("Now begin the second block: %s", s.info.Order[s.block].Label())
		return nil
	}
	s.phase = PhaseFinished
	s.message = "All blocks complete. Thank you!"
	return s.exportLog(ctx)
}

func (s *Study) exportLog(ctx context.Context) error {
	if s.exported {
		return nil
	}
	s.exported = true
	if err := s.exporter.ExportLog(ctx, s.info, s.log.Events()); err != nil {
		s.logger.Error().Err(err).Str("study", s.info.ID).Msg("log export failed")
		return fmt.Errorf("failed to export log: %w", err)
	}
	s.logger.Info().Str("study", s.info.ID).Int("events", s.log.Len()).Msg("log exported")
	return nil
}

// Info identifies the study run.
func (s *Study) Info() model.StudyInfo { return s.info }

// Phase is the current state.
func (s *Study) Phase() Phase { return s.phase }

// Mode is the active block's entry method.
func (s *Study) Mode() model.Mode { return s.mode }

// Block is the zero-based index of the active block.
func (s *Study) Block() int { return s.block }

// Trial is the zero-based index of the current trial within the block.
func (s *Study) Trial() int { return s.trial }

// Message is the transition text shown between trials, if any.
func (s *Study) Message() string { return s.message }

// Exported reports whether the log has been handed to the exporter.
func (s *Study) Exported() bool { return s.exported }

// InputEnabled reports whether edits and submissions are accepted.
func (s *Study) InputEnabled() bool { return s.phase == PhaseTrial }

// Dictionary is the active block's prefix dictionary.
func (s *Study) Dictionary() *predict.Dictionary { return s.dict }

// Phrases returns the active block's sampled phrases.
func (s *Study) Phrases() []string { return append([]string(nil), s.phrases...) }

// Events returns everything logged so far.
func (s *Study) Events() []model.Event { return s.log.Events() }

// Phrase is the target phrase of the current trial.
func (s *Study) Phrase() string {
	if s.trial < 0 || s.trial >= len(s.phrases) {
		return ""
	}
	return s.phrases[s.trial]
}

// TrialLabel is "Practice" for the leading trials of a block and "Test" afterwards.
func (s *Study) TrialLabel() string {
	if s.trial < PracticeTrials {
		return "Practice"
	}
	return "Test"
}

// Prompt renders the current trial header and phrase.
func (s *Study) Prompt() string {
	if s.phase != PhaseTrial {
		return s.message
	}
	return fmt.Sprintf("[%s %d/%d] → %s", s.TrialLabel(), s.trial+1, len(s.phrases), s.Phrase())
}
