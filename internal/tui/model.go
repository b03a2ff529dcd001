// Package tui hosts a study run in a Bubble Tea program.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/entrystudy/internal/export"
	"github.com/verte-zerg/entrystudy/internal/model"
	"github.com/verte-zerg/entrystudy/internal/study"
)

type screen int

const (
	screenConsent screen = iota
	screenMode
	screenStudy
)

// pacingMsg fires when a block pause is over. Only the latest one counts.
type pacingMsg struct {
	seq int
}

// Options configures the study host.
type Options struct {
	// First fixes the starting method. When empty the participant picks it.
	First model.Mode
	// Participant pre-fills the consent name field.
	Participant string
	// SavedTo describes where results go, shown on the final screen.
	SavedTo string
	Logger  zerolog.Logger
}

// Model implements the Bubble Tea study UI.
type Model struct {
	ctx    context.Context
	study  *study.Study
	opts   Options
	logger zerolog.Logger

	screen    screen
	nameInput textinput.Model
	entry     textinput.Model
	modeIdx   int
	errText   string
	exportErr error
	pacingSeq int

	width  int
	height int
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F0F0F0"))
	textStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#BFBFBF"))
	phraseStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	messageStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	choiceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	activeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Underline(true)
	chipKeyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	chipStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	chipMatchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

var modeChoices = []model.Mode{model.ModeQwerty, model.ModePredictive}

// NewModel constructs the study UI around an unstarted study.
func NewModel(ctx context.Context, s *study.Study, opts Options) *Model {
	name := textinput.New()
	name.Prompt = "Name: "
	name.Placeholder = "type your full name"
	name.CharLimit = 80
	name.SetValue(opts.Participant)
	name.Focus()

	entry := textinput.New()
	entry.Prompt = "> "
	entry.CharLimit = 0

	m := &Model{
		ctx:       ctx,
		study:     s,
		opts:      opts,
		logger:    opts.Logger,
		nameInput: name,
		entry:     entry,
	}
	if opts.First == model.ModePredictive {
		m.modeIdx = 1
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.nameInput.Width = maxInt(10, contentWidth(msg.Width)-lipgloss.Width(m.nameInput.Prompt)-1)
		m.entry.Width = maxInt(10, contentWidth(msg.Width)-lipgloss.Width(m.entry.Prompt)-1)
		return m, nil
	case pacingMsg:
		return m, m.handlePacing(msg)
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.abandon()
			return m, tea.Quit
		}
		switch m.screen {
		case screenConsent:
			return m.updateConsent(msg)
		case screenMode:
			return m.updateMode(msg)
		default:
			return m.updateStudy(msg)
		}
	}
	var cmd tea.Cmd
	switch m.screen {
	case screenConsent:
		m.nameInput, cmd = m.nameInput.Update(msg)
	case screenStudy:
		m.entry, cmd = m.entry.Update(msg)
	}
	return m, cmd
}

func (m *Model) updateConsent(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyEnter:
		if strings.TrimSpace(m.nameInput.Value()) == "" {
			m.errText = study.ErrMissingParticipant.Error()
			return m, nil
		}
		if m.opts.First.Valid() {
			return m, m.start(m.opts.First)
		}
		m.errText = ""
		m.screen = screenMode
		m.nameInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m *Model) updateMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.screen = screenConsent
		m.errText = ""
		return m, m.nameInput.Focus()
	case tea.KeyLeft, tea.KeyUp, tea.KeyShiftTab:
		m.modeIdx = (m.modeIdx + len(modeChoices) - 1) % len(modeChoices)
	case tea.KeyRight, tea.KeyDown, tea.KeyTab:
		m.modeIdx = (m.modeIdx + 1) % len(modeChoices)
	case tea.KeyEnter:
		return m, m.start(modeChoices[m.modeIdx])
	case tea.KeyRunes:
		switch strings.ToLower(string(msg.Runes)) {
		case "q":
			m.modeIdx = 0
		case "p":
			m.modeIdx = 1
		}
	}
	return m, nil
}

func (m *Model) updateStudy(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.study.Phase() == study.PhaseFinished {
		switch {
		case msg.Type == tea.KeyEsc, msg.Type == tea.KeyEnter:
			return m, tea.Quit
		case msg.Type == tea.KeyRunes && string(msg.Runes) == "q":
			return m, tea.Quit
		}
		return m, nil
	}
	if !m.study.InputEnabled() {
		return m, nil
	}
	switch msg.Type {
	case tea.KeyEnter:
		return m, m.submit()
	case tea.KeyRunes:
		if digit, ok := selectionDigit(msg); ok && m.study.Mode() == model.ModePredictive {
			// Digits pick suggestions in predictive blocks and are never typed.
			if m.study.Select(digit) {
				m.entry.SetValue(m.study.Text())
				m.entry.SetCursor(m.study.Cursor())
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.entry, cmd = m.entry.Update(msg)
	m.study.Edit(m.entry.Value(), m.entry.Position())
	return m, cmd
}

func (m *Model) start(first model.Mode) tea.Cmd {
	if err := m.study.TryStart(m.ctx, m.nameInput.Value(), first); err != nil {
		m.logger.Warn().Err(err).Msg("study start rejected")
		m.errText = err.Error()
		if errors.Is(err, study.ErrMissingParticipant) {
			m.screen = screenConsent
			return m.nameInput.Focus()
		}
		return nil
	}
	info := m.study.Info()
	m.logger.Info().
		Str("study", info.ID).
		Str("first", string(info.Order[0])).
		Msg("study started")
	m.errText = ""
	m.screen = screenStudy
	m.nameInput.Blur()
	return tea.Batch(m.entry.Focus(), m.schedulePacing())
}

func (m *Model) submit() tea.Cmd {
	err := m.study.Submit(m.ctx)
	m.entry.Reset()
	if err != nil {
		if errors.Is(err, study.ErrInputDisabled) {
			return nil
		}
		m.exportErr = err
		m.logger.Error().Err(err).Str("study", m.study.Info().ID).Msg("failed to save results")
	}
	if m.study.Phase() == study.PhaseFinished {
		m.entry.Blur()
		return nil
	}
	return m.schedulePacing()
}

// schedulePacing arms the timer for a block pause, if the study is in one.
func (m *Model) schedulePacing() tea.Cmd {
	phase := m.study.Phase()
	if phase != study.PhaseBlockIntro && phase != study.PhaseBlockComplete {
		return nil
	}
	m.pacingSeq++
	seq := m.pacingSeq
	return tea.Tick(m.study.PacingDelay(), func(time.Time) tea.Msg {
		return pacingMsg{seq: seq}
	})
}

func (m *Model) handlePacing(msg pacingMsg) tea.Cmd {
	if msg.seq != m.pacingSeq {
		return nil
	}
	if err := m.study.Continue(); err != nil {
		m.logger.Error().Err(err).Msg("failed to advance study")
		m.errText = err.Error()
		return nil
	}
	if m.study.Phase() == study.PhaseTrial {
		m.entry.Reset()
		return nil
	}
	return m.schedulePacing()
}

func (m *Model) abandon() {
	switch m.study.Phase() {
	case study.PhaseAwaitingConsent, study.PhaseFinished:
		return
	}
	m.logger.Warn().
		Str("study", m.study.Info().ID).
		Int("block", m.study.Block()).
		Int("trial", m.study.Trial()).
		Msg("study abandoned before completion")
}

// View implements tea.Model.
func (m *Model) View() string {
	var body string
	switch m.screen {
	case screenConsent:
		body = m.viewConsent()
	case screenMode:
		body = m.viewMode()
	default:
		body = m.viewStudy()
	}
	if m.width == 0 || m.height == 0 {
		return body
	}
	content := lipgloss.NewStyle().Width(contentWidth(m.width)).Render(body)
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	bodyHeight := m.height - 1
	centered := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return centered + "\n" + footerLine
}

func (m *Model) viewConsent() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Text entry study"))
	b.WriteString("\n\n")
	b.WriteString(textStyle.Render(export.ConsentNarrative))
	b.WriteString("\n\n")
	b.WriteString(m.nameInput.View())
	m.writeError(&b)
	return b.String()
}

func (m *Model) viewMode() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Signed as " + strings.TrimSpace(m.nameInput.Value())))
	b.WriteString("\n\n")
	b.WriteString(textStyle.Render("Which method comes first?"))
	b.WriteString("\n\n")
	parts := make([]string, 0, len(modeChoices))
	for i, mode := range modeChoices {
		if i == m.modeIdx {
			parts = append(parts, activeStyle.Render(mode.Label()))
		} else {
			parts = append(parts, choiceStyle.Render(mode.Label()))
		}
	}
	b.WriteString(strings.Join(parts, "   "))
	m.writeError(&b)
	return b.String()
}

func (m *Model) viewStudy() string {
	width := 0
	if m.width > 0 {
		width = contentWidth(m.width)
	}
	var b strings.Builder
	switch m.study.Phase() {
	case study.PhaseTrial:
		header := fmt.Sprintf("[%s %d/%d]", m.study.TrialLabel(), m.study.Trial()+1, study.PhrasesPerBlock)
		b.WriteString(titleStyle.Render(header))
		b.WriteString("\n\n")
		b.WriteString(wrapStyledRunes(styleText(m.study.Phrase(), phraseStyle), width))
		b.WriteString("\n\n")
		b.WriteString(m.entry.View())
		if m.study.Mode() == model.ModePredictive {
			b.WriteString("\n\n")
			if suggestions := m.study.Suggestions(); len(suggestions) > 0 {
				b.WriteString(wrapStyledRunes(buildChips(suggestions, m.study.Word()), width))
			}
		}
	case study.PhaseFinished:
		b.WriteString(messageStyle.Render(m.study.Message()))
		b.WriteString("\n\n")
		switch {
		case m.exportErr != nil:
			b.WriteString(errorStyle.Render("Saving results failed: " + m.exportErr.Error()))
		case m.opts.SavedTo != "":
			b.WriteString(textStyle.Render("Results saved to " + m.opts.SavedTo))
		}
	default:
		b.WriteString(messageStyle.Render(m.study.Message()))
	}
	m.writeError(&b)
	return b.String()
}

func (m *Model) writeError(b *strings.Builder) {
	if m.errText == "" {
		return
	}
	b.WriteString("\n\n")
	b.WriteString(errorStyle.Render(m.errText))
}

func (m *Model) renderFooter() string {
	var segments []string
	switch m.screen {
	case screenConsent:
		segments = []string{"Enter sign", "Esc quit"}
	case screenMode:
		segments = []string{"←/→ choose", "Enter start", "Esc back"}
	default:
		switch m.study.Phase() {
		case study.PhaseFinished:
			segments = []string{"Enter quit"}
		case study.PhaseTrial:
			segments = []string{m.blockLabel(), "Enter submit"}
			if m.study.Mode() == model.ModePredictive {
				segments = append(segments, "1-9 pick suggestion")
			}
		default:
			segments = []string{m.blockLabel()}
		}
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func (m *Model) blockLabel() string {
	order := m.study.Info().Order
	block := m.study.Block()
	if block >= len(order) {
		block = len(order) - 1
	}
	return fmt.Sprintf("Block %d/%d · %s", block+1, len(order), order[block].Label())
}

func selectionDigit(msg tea.KeyMsg) (int, bool) {
	if msg.Paste || len(msg.Runes) != 1 {
		return 0, false
	}
	r := msg.Runes[0]
	if r < '1' || r > '9' {
		return 0, false
	}
	return int(r - '0'), true
}

func contentWidth(width int) int {
	w := int(float64(width) * 0.70)
	if w < 1 {
		return 1
	}
	return w
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
