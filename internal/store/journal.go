package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"roomboard/internal/model"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const journalFileName = "journal.sqlite"

// Journal is a local SQLite log of mutations sent to the rooms API.
type Journal struct {
	mu sync.Mutex
	db *sql.DB
}

// OpenJournal opens (and migrates) the journal in the store dir.
func (s Store) OpenJournal(ctx context.Context) (*Journal, error) {
	if strings.TrimSpace(s.Dir) == "" {
		return nil, errors.New("journal: store dir is empty")
	}
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.path(journalFileName))
	if err != nil {
		return nil, err
	}
	// WAL: the TUI and one-off CLI commands may share the file.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateJournal(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Journal{db: db}, nil
}

func migrateJournal(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS mutations (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			server TEXT NOT NULL,
			room_id INTEGER NOT NULL,
			card_id INTEGER,
			payload_json TEXT,
			ok INTEGER NOT NULL,
			error TEXT,
			at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_mutations_at ON mutations(at_unixms);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Record appends m; an empty ID gets a new uuid.
func (j *Journal) Record(ctx context.Context, m model.Mutation) error {
	if strings.TrimSpace(m.ID) == "" {
		m.ID = uuid.NewString()
	}
	if m.At.IsZero() {
		m.At = time.Now().UTC()
	}
	var cardID any
	if m.CardID != nil {
		cardID = *m.CardID
	}
	var payload any
	if len(m.Payload) > 0 {
		payload = string(m.Payload)
	}
	var errText any
	if m.Error != "" {
		errText = m.Error
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO mutations(id, kind, server, room_id, card_id, payload_json, ok, error, at_unixms)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, string(m.Kind), m.Server, m.RoomID, cardID, payload, boolToInt(m.OK), errText, m.At.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("journal: record %s: %w", m.Kind, err)
	}
	return nil
}

// List returns up to limit entries, newest first. limit <= 0 means 50.
func (j *Journal) List(ctx context.Context, limit int) ([]model.Mutation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, kind, server, room_id, card_id, payload_json, ok, error, at_unixms
		 FROM mutations ORDER BY at_unixms DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Mutation{}
	for rows.Next() {
		var (
			m       model.Mutation
			kind    string
			cardID  sql.NullInt64
			payload sql.NullString
			ok      int
			errText sql.NullString
			atMS    int64
		)
		if err := rows.Scan(&m.ID, &kind, &m.Server, &m.RoomID, &cardID, &payload, &ok, &errText, &atMS); err != nil {
			return nil, err
		}
		m.Kind = model.MutationKind(kind)
		if cardID.Valid {
			id := model.CardID(cardID.Int64)
			m.CardID = &id
		}
		if payload.Valid {
			m.Payload = []byte(payload.String)
		}
		m.OK = ok != 0
		m.Error = errText.String
		m.At = time.UnixMilli(atMS).UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
