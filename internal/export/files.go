package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/verte-zerg/entrystudy/internal/eventlog"
	"github.com/verte-zerg/entrystudy/internal/model"
)

// ConsentNarrative is the form text shown before signing and stored with the signature.
const ConsentNarrative = `Consent Form:
You are invited to take part in a study on text entry techniques.
Your participation is voluntary, and you may withdraw at any time.
The study involves typing phrases using different methods and logging performance data.
No personally identifiable information will be shared.
This study will take around 15-20 minutes, and you will be required to type in total 40 short phrases using different methods.
You do not need to commute or spend any money for this study.
The study may not lead to any direct benefit.
By typing your name below, you consent to participate in the study.`

var whitespaceRun = regexp.MustCompile(`\s+`)

// Exporter delivers the artifacts of a study run.
type Exporter interface {
	ExportConsent(ctx context.Context, info model.StudyInfo) error
	ExportLog(ctx context.Context, info model.StudyInfo, events []model.Event) error
}

// Files renders consent text and the CSV log and hands them to a Sink.
type Files struct {
	Sink   Sink
	Schema eventlog.Schema
}

// ExportConsent delivers consent_form_<name>.txt.
func (f Files) ExportConsent(ctx context.Context, info model.StudyInfo) error {
	name := ConsentFileName(info.Consent.Participant)
	if err := f.Sink.Deliver(ctx, name, []byte(ConsentText(info.Consent))); err != nil {
		return fmt.Errorf("failed to deliver consent: %w", err)
	}
	return nil
}

// ExportLog delivers log_data_<name>.csv. An empty log delivers nothing.
func (f Files) ExportLog(ctx context.Context, info model.StudyInfo, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}
	var buf bytes.Buffer
	if err := eventlog.EncodeCSV(&buf, events, f.Schema); err != nil {
		return err
	}
	if err := f.Sink.Deliver(ctx, LogFileName(info.Consent.Participant), buf.Bytes()); err != nil {
		return fmt.Errorf("failed to deliver log: %w", err)
	}
	return nil
}

// ConsentText renders the signed consent form.
func ConsentText(rec model.ConsentRecord) string {
	return fmt.Sprintf("Participant Name: %s\nTimestamp: %s\n\n%s",
		rec.Participant,
		rec.SignedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		ConsentNarrative,
	)
}

// ConsentFileName is the suggested name of the consent artifact.
func ConsentFileName(participant string) string {
	return "consent_form_" + SafeName(participant) + ".txt"
}

// LogFileName is the suggested name of the log artifact.
func LogFileName(participant string) string {
	return "log_data_" + SafeName(participant) + ".csv"
}

// SafeName replaces whitespace runs with underscores and path separators with dashes.
func SafeName(participant string) string {
	name := whitespaceRun.ReplaceAllString(participant, "_")
	return strings.NewReplacer("/", "-", `\`, "-").Replace(name)
}

// Multi fans out to every exporter in order and joins their errors.
type Multi []Exporter

// ExportConsent calls every exporter even when an earlier one fails.
func (m Multi) ExportConsent(ctx context.Context, info model.StudyInfo) error {
	var errs []error
	for _, e := range m {
		if err := e.ExportConsent(ctx, info); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ExportLog calls every exporter even when an earlier one fails.
func (m Multi) ExportLog(ctx context.Context, info model.StudyInfo, events []model.Event) error {
	var errs []error
	for _, e := range m {
		if err := e.ExportLog(ctx, info, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
