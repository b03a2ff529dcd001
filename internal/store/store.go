// Package store handles SQLite persistence of finished studies.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/entrystudy/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// timeLayout has a fixed-width fraction so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrStudyNotFound is returned for an unknown study ID.
var ErrStudyNotFound = errors.New("study not found")

// Store wraps SQLite access for archived studies.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS studies (
			id TEXT PRIMARY KEY,
			participant TEXT NOT NULL,
			signed_at TEXT NOT NULL,
			first_mode TEXT NOT NULL,
			finished_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			study_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			type TEXT NOT NULL,
			method TEXT NOT NULL DEFAULT '',
			block TEXT NOT NULL DEFAULT '',
			input TEXT NOT NULL DEFAULT '',
			selected TEXT NOT NULL DEFAULT '',
			phrase TEXT NOT NULL DEFAULT '',
			entered TEXT NOT NULL DEFAULT '',
			target TEXT NOT NULL DEFAULT '',
			trial INTEGER NOT NULL DEFAULT 0,
			timestamp_ms INTEGER NOT NULL DEFAULT 0,
			time_taken_ms INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (study_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_studies_signed_at ON studies(signed_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ExportConsent registers the study when the participant signs.
func (s *Store) ExportConsent(ctx context.Context, info model.StudyInfo) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO studies (id, participant, signed_at, first_mode) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		info.ID,
		info.Consent.Participant,
		info.Consent.SignedAt.UTC().Format(timeLayout),
		string(info.Order[0]),
	)
	return err
}

// ExportLog archives the finished study's events in log order.
func (s *Store) ExportLog(ctx context.Context, info model.StudyInfo, events []model.Event) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO studies (id, participant, signed_at, first_mode) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET first_mode = excluded.first_mode`,
		info.ID,
		info.Consent.Participant,
		info.Consent.SignedAt.UTC().Format(timeLayout),
		string(info.Order[0]),
	); err != nil {
		return err
	}

	if len(events) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO events (study_id, seq, type, method, block, input, selected, phrase, entered, target, trial, timestamp_ms, time_taken_ms)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, e := range events {
			r := toRow(e)
			if _, err = stmt.ExecContext(ctx, info.ID, i, string(e.Type()), r.method, r.block, r.input, r.selected,
				r.phrase, r.entered, r.target, r.trial, r.timestampMs, r.timeTakenMs); err != nil {
				return err
			}
		}
	}

	if _, err = tx.ExecContext(ctx, `UPDATE studies SET finished_at = ? WHERE id = ?`,
		s.now().UTC().Format(timeLayout), info.ID); err != nil {
		return err
	}
	return tx.Commit()
}

// GetStudy loads the identity of an archived study.
func (s *Store) GetStudy(ctx context.Context, id string) (model.StudyInfo, error) {
	var info model.StudyInfo
	var signedAt, firstMode string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, participant, signed_at, first_mode FROM studies WHERE id = ?`, id,
	).Scan(&info.ID, &info.Consent.Participant, &signedAt, &firstMode)
	if errors.Is(err, sql.ErrNoRows) {
		return model.StudyInfo{}, fmt.Errorf("%w: %s", ErrStudyNotFound, id)
	}
	if err != nil {
		return model.StudyInfo{}, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, signedAt)
	if err != nil {
		return model.StudyInfo{}, err
	}
	info.Consent.SignedAt = parsed
	info.Order = model.OrderStartingWith(model.Mode(firstMode))
	return info, nil
}

// ListStudies returns archived studies, oldest first.
func (s *Store) ListStudies(ctx context.Context) ([]model.StudySummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.participant, s.signed_at, s.first_mode, s.finished_at, COUNT(e.seq)
		 FROM studies s
		 LEFT JOIN events e ON e.study_id = s.id
		 GROUP BY s.id
		 ORDER BY s.signed_at ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.StudySummary
	for rows.Next() {
		var sum model.StudySummary
		var signedAt, firstMode string
		var finishedAt sql.NullString
		if err := rows.Scan(&sum.ID, &sum.Participant, &signedAt, &firstMode, &finishedAt, &sum.EventCount); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, signedAt)
		if err != nil {
			return nil, err
		}
		sum.SignedAt = parsed
		sum.FirstMode = model.Mode(firstMode)
		if finishedAt.Valid {
			ft, err := time.Parse(time.RFC3339Nano, finishedAt.String)
			if err != nil {
				return nil, err
			}
			sum.FinishedAt = &ft
		}
		result = append(result, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListEvents returns the archived events of a study in their original order.
func (s *Store) ListEvents(ctx context.Context, studyID string) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT type, method, block, input, selected, phrase, entered, target, trial, timestamp_ms, time_taken_ms
		 FROM events WHERE study_id = ? ORDER BY seq ASC`, studyID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.Event
	for rows.Next() {
		var typ string
		var r row
		if err := rows.Scan(&typ, &r.method, &r.block, &r.input, &r.selected, &r.phrase, &r.entered, &r.target,
			&r.trial, &r.timestampMs, &r.timeTakenMs); err != nil {
			return nil, err
		}
		e, err := fromRow(model.EventType(typ), r)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type row struct {
	method, block, input, selected, phrase, entered, target string
	trial                                                   int
	timestampMs, timeTakenMs                                int64
}

func toRow(e model.Event) row {
	switch ev := e.(type) {
	case model.BlockComplete:
		return row{block: string(ev.Block), timestampMs: ev.Timestamp.UnixMilli()}
	case model.Prediction:
		return row{
			method:      string(ev.Method),
			input:       ev.Input,
			selected:    ev.Selected,
			phrase:      ev.Phrase,
			trial:       ev.Trial,
			timestampMs: ev.Timestamp.UnixMilli(),
		}
	case model.Submission:
		return row{
			method:      string(ev.Method),
			entered:     ev.Entered,
			target:      ev.Target,
			trial:       ev.Trial,
			timeTakenMs: ev.TimeTaken.Milliseconds(),
		}
	default:
		return row{}
	}
}

func fromRow(typ model.EventType, r row) (model.Event, error) {
	switch typ {
	case model.EventBlockComplete:
		return model.BlockComplete{Block: model.Mode(r.block), Timestamp: time.UnixMilli(r.timestampMs)}, nil
	case model.EventPrediction:
		return model.Prediction{
			Method:    model.Mode(r.method),
			Input:     r.input,
			Selected:  r.selected,
			Phrase:    r.phrase,
			Trial:     r.trial,
			Timestamp: time.UnixMilli(r.timestampMs),
		}, nil
	case model.EventSubmission:
		return model.Submission{
			Method:    model.Mode(r.method),
			Entered:   r.entered,
			Target:    r.target,
			Trial:     r.trial,
			TimeTaken: time.Duration(r.timeTakenMs) * time.Millisecond,
		}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", typ)
	}
}
