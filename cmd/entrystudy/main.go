// Package main provides the CLI entrypoint for entrystudy.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/entrystudy/internal/config"
	"github.com/verte-zerg/entrystudy/internal/corpus"
	"github.com/verte-zerg/entrystudy/internal/eventlog"
	"github.com/verte-zerg/entrystudy/internal/export"
	"github.com/verte-zerg/entrystudy/internal/logging"
	"github.com/verte-zerg/entrystudy/internal/model"
	"github.com/verte-zerg/entrystudy/internal/predict"
	"github.com/verte-zerg/entrystudy/internal/stats"
	"github.com/verte-zerg/entrystudy/internal/store"
	"github.com/verte-zerg/entrystudy/internal/study"
	"github.com/verte-zerg/entrystudy/internal/tui"
)

const (
	defaultCurveWindow = 5
	defaultTop         = 5
	defaultLogLevel    = "info"
)

var (
	dbPath string

	studyParticipant  string
	studyFirst        string
	studyPhrases      string
	studyExportDir    string
	studyIntroDelay   time.Duration
	studyBetweenDelay time.Duration
	studyLegacyCSV    bool
	studyArchive      bool
	studyFoldAccents  bool
	logLevel          string
	logFile           string

	phrasesPath string
	phrasesSeed int64

	reportLast        int
	reportCurveWindow int
	reportTop         int

	exportOut       string
	exportLegacyCSV bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "entrystudy",
		Short:         "Text entry study: QWERTY vs predictive typing",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runStudyCmd,
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath(), "path of the study archive")

	rootCmd.Flags().StringVar(&studyParticipant, "participant", "", "pre-fill the participant name")
	rootCmd.Flags().StringVar(&studyFirst, "first", "", "method of the first block: qwerty or predictive (default: ask)")
	rootCmd.Flags().StringVar(&studyPhrases, "phrases", "", "phrase list file, one phrase per line (default: built-in set)")
	rootCmd.Flags().StringVar(&studyExportDir, "export-dir", config.DefaultExportDir(), "directory for consent forms and logs")
	rootCmd.Flags().DurationVar(&studyIntroDelay, "intro-delay", study.DefaultIntroDelay, "pause before a block starts")
	rootCmd.Flags().DurationVar(&studyBetweenDelay, "between-delay", study.DefaultBetweenDelay, "pause between blocks")
	rootCmd.Flags().BoolVar(&studyLegacyCSV, "legacy-csv", false, "take CSV columns from the first event only")
	rootCmd.Flags().BoolVar(&studyArchive, "archive", true, "also archive the study in the local database")
	rootCmd.Flags().BoolVar(&studyFoldAccents, "fold-accents", false, "suggest accented words under their base letters (cafe for café)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", defaultLogLevel, "diagnostics level: trace, debug, info, warn, error, off")
	rootCmd.Flags().StringVar(&logFile, "log-file", config.DefaultLogPath(), "diagnostics log file")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newPhrasesCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newExportCmd())

	return rootCmd
}

func runStudyCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "phrases", &studyPhrases, fileCfg.Study.Phrases)
	applyStringConfig(cmd, "first", &studyFirst, fileCfg.Study.First)
	applyStringConfig(cmd, "export-dir", &studyExportDir, fileCfg.Study.ExportDir)
	applyDurationConfig(cmd, "intro-delay", &studyIntroDelay, fileCfg.Study.IntroDelay)
	applyDurationConfig(cmd, "between-delay", &studyBetweenDelay, fileCfg.Study.BetweenDelay)
	applyBoolConfig(cmd, "legacy-csv", &studyLegacyCSV, fileCfg.Study.LegacyCSV)
	applyBoolConfig(cmd, "archive", &studyArchive, fileCfg.Study.Archive)
	applyBoolConfig(cmd, "fold-accents", &studyFoldAccents, fileCfg.Study.FoldAccents)
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log-file", &logFile, fileCfg.Log.File)

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	logOut, err := logging.OpenFile(logFile)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() {
		if cerr := logOut.Close(); cerr != nil {
			// Best-effort log close.
			_ = cerr
		}
	}()
	logger := logging.New(logging.Options{Level: logLevel, Writer: logOut})

	phrases, err := corpus.Load(cfg.PhrasesPath)
	if err != nil {
		return fmt.Errorf("failed to load phrases: %w", err)
	}
	if phrases.Duplicates > 0 {
		logger.Warn().Int("duplicates", phrases.Duplicates).Msg("duplicate phrases skipped")
	}
	if len(phrases.Phrases) < study.PhrasesPerBlock {
		return fmt.Errorf("%w: need %d phrases, have %d", corpus.ErrInsufficientCorpus, study.PhrasesPerBlock, len(phrases.Phrases))
	}

	exporters := export.Multi{export.Files{Sink: export.DirSink{Dir: cfg.ExportDir}, Schema: csvSchema(cfg.LegacyCSV)}}
	if cfg.Archive {
		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open db: %w", err)
		}
		defer closeStore(st, logger)
		exporters = append(exporters, st)
	}

	s := study.New(phrases.Phrases,
		study.WithExporter(exporters),
		study.WithDelays(cfg.IntroDelay, cfg.BetweenDelay),
		study.WithFoldAccents(cfg.FoldAccents),
		study.WithLogger(logger),
	)
	ui := tui.NewModel(cmd.Context(), s, tui.Options{
		First:       cfg.First,
		Participant: studyParticipant,
		SavedTo:     cfg.ExportDir,
		Logger:      logger,
	})
	program := tea.NewProgram(ui, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	switch s.Phase() {
	case study.PhaseFinished:
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Study %s complete. Results in %s\n", s.Info().ID, cfg.ExportDir); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	case study.PhaseAwaitingConsent:
		// Quit before signing.
	default:
		if _, err := fmt.Fprintln(cmd.ErrOrStderr(), "Study ended before completion; no log was exported."); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func buildConfig() (model.Config, error) {
	cfg := model.Config{
		PhrasesPath:  strings.TrimSpace(studyPhrases),
		ExportDir:    strings.TrimSpace(studyExportDir),
		IntroDelay:   studyIntroDelay,
		BetweenDelay: studyBetweenDelay,
		LegacyCSV:    studyLegacyCSV,
		Archive:      studyArchive,
		FoldAccents:  studyFoldAccents,
	}
	if first := strings.TrimSpace(studyFirst); first != "" {
		mode, err := model.ParseMode(first)
		if err != nil {
			return model.Config{}, fmt.Errorf("--first: %w", err)
		}
		cfg.First = mode
	}
	return cfg, nil
}

func validateConfig(cfg model.Config) error {
	if cfg.ExportDir == "" {
		return fmt.Errorf("--export-dir must not be empty")
	}
	if cfg.IntroDelay < 0 {
		return fmt.Errorf("--intro-delay must be >= 0")
	}
	if cfg.BetweenDelay < 0 {
		return fmt.Errorf("--between-delay must be >= 0")
	}
	if cfg.First != "" && !cfg.First.Valid() {
		return fmt.Errorf("--first must be qwerty or predictive")
	}
	return nil
}

func csvSchema(legacy bool) eventlog.Schema {
	if legacy {
		return eventlog.SchemaFirstEvent
	}
	return eventlog.SchemaUnion
}

func closeStore(st *store.Store, logger zerolog.Logger) {
	if err := st.Close(); err != nil {
		logger.Error().Err(err).Msg("failed to close db")
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := writeConfigTemplate(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// writeConfigTemplate creates the commented template unless a config exists.
func writeConfigTemplate(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

func newPhrasesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phrases",
		Short: "Check a phrase list and preview a sampled block",
		Args:  cobra.NoArgs,
		RunE:  runPhrasesCmd,
	}
	cmd.Flags().StringVar(&phrasesPath, "phrases", "", "phrase list file (default: built-in set)")
	cmd.Flags().Int64Var(&phrasesSeed, "seed", 0, "sampling seed (default: random)")
	return cmd
}

func runPhrasesCmd(cmd *cobra.Command, _ []string) error {
	c, err := corpus.Load(strings.TrimSpace(phrasesPath))
	if err != nil {
		return fmt.Errorf("failed to load phrases: %w", err)
	}
	return describeCorpus(cmd.OutOrStdout(), c, samplerFor(phrasesSeed))
}

func samplerFor(seed int64) *corpus.Sampler {
	if seed == 0 {
		return corpus.NewSampler()
	}
	return corpus.NewSeededSampler(seed)
}

func describeCorpus(w io.Writer, c corpus.Corpus, sampler *corpus.Sampler) error {
	if _, err := fmt.Fprintf(w, "Phrases: %d (duplicates skipped: %d)\n", len(c.Phrases), c.Duplicates); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	block, err := sampler.Sample(c.Phrases, study.PhrasesPerBlock)
	if errors.Is(err, corpus.ErrInsufficientCorpus) {
		if _, werr := fmt.Fprintf(w, "Cannot fill a block of %d phrases.\n", study.PhrasesPerBlock); werr != nil {
			return fmt.Errorf("failed to write output: %w", werr)
		}
		return err
	}
	if err != nil {
		return err
	}
	dict := predict.Build(block)
	if _, err := fmt.Fprintf(w, "Sample block (%d words, %d prefixes):\n", dict.Words(), dict.Len()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	for i, phrase := range block {
		if _, err := fmt.Fprintf(w, "%3d. %s\n", i+1, phrase); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize archived studies",
		Args:  cobra.NoArgs,
		RunE:  runReportCmd,
	}
	cmd.Flags().IntVar(&reportLast, "last", 0, "limit to last N studies")
	cmd.Flags().IntVar(&reportCurveWindow, "curve-window", defaultCurveWindow, "moving average window for trial times")
	cmd.Flags().IntVar(&reportTop, "top", defaultTop, "number of most selected suggestions to list")
	return cmd
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	if reportLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	if reportCurveWindow <= 0 {
		return fmt.Errorf("--curve-window must be > 0")
	}
	if reportTop < 0 {
		return fmt.Errorf("--top must be >= 0")
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st, stderrLogger(cmd))

	reports, err := stats.BuildReport(cmd.Context(), st, reportLast, reportTop)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	return stats.RenderReport(cmd.OutOrStdout(), reports, reportCurveWindow)
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <study-id>",
		Short: "Write the CSV log of an archived study",
		Args:  cobra.ExactArgs(1),
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportOut, "out", "", "output directory (default: stdout)")
	cmd.Flags().BoolVar(&exportLegacyCSV, "legacy-csv", false, "take CSV columns from the first event only")
	return cmd
}

func runExportCmd(cmd *cobra.Command, args []string) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st, stderrLogger(cmd))

	ctx := cmd.Context()
	info, err := st.GetStudy(ctx, args[0])
	if err != nil {
		return err
	}
	events, err := st.ListEvents(ctx, info.ID)
	if err != nil {
		return fmt.Errorf("failed to load events: %w", err)
	}
	if len(events) == 0 {
		return fmt.Errorf("study %s has no logged events", info.ID)
	}

	var sink export.Sink = export.WriterSink{W: cmd.OutOrStdout()}
	if dir := strings.TrimSpace(exportOut); dir != "" {
		sink = export.DirSink{Dir: dir}
	}
	files := export.Files{Sink: sink, Schema: csvSchema(exportLegacyCSV)}
	if err := files.ExportLog(ctx, info, events); err != nil {
		return err
	}
	if exportOut != "" {
		if _, err := fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", filepath.Join(exportOut, export.LogFileName(info.Consent.Participant))); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func stderrLogger(cmd *cobra.Command) zerolog.Logger {
	return logging.New(logging.Options{Level: defaultLogLevel, Writer: cmd.ErrOrStderr()})
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyDurationConfig(cmd *cobra.Command, name string, target *time.Duration, value *config.Duration) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = value.Duration
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# entrystudy configuration
# Uncomment a value to enable it. CLI flags override config values.

[study]
# phrases = "/path/to/phrases.txt"  # Phrase list, one per line (default: built-in set)
# first = "qwerty"                 # Method of the first block; unset asks the participant
# export-dir = %q
# intro-delay = %q                 # Pause before a block starts
# between-delay = %q               # Pause between blocks
# legacy-csv = false               # Take CSV columns from the first event only
# archive = true                   # Also archive studies in the local database
# fold-accents = false             # Suggest accented words under their base letters

[log]
# level = %q                       # trace, debug, info, warn, error, off
# file = %q
`,
		config.DefaultExportDir(),
		study.DefaultIntroDelay.String(),
		study.DefaultBetweenDelay.String(),
		defaultLogLevel,
		config.DefaultLogPath(),
	)
}
