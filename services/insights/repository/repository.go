// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package repository provides durable storage for submitted questions
// and generated insights in the SQLite metadata store.
//
// Writes to distinct questions are independent; writes to the same
// question serialize on the store. The pipeline tolerates repository
// unavailability: callers log persistence failures and continue with
// in-memory questions.
package repository

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/datatypes"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

const opTimeout = 2 * time.Second

// Store wraps the SQLite database with methods for questions and
// insights.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the metadata database in dataDir and runs
// pending migrations. Pass ":memory:" as dataDir for an in-memory
// database (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "insights.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	db.SetMaxOpenConns(5)

	// Concurrent access waits briefly instead of failing immediately.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks store reachability for the health endpoint.
func (s *Store) Ping(ctx context.Context) bool {
	if s == nil || s.db == nil {
		return false
	}
	return s.db.PingContext(ctx) == nil
}

// migrate applies embedded SQL migration files that have not run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		var version int
		if _, err := fmt.Sscanf(entry.Name(), "%d_", &version); err != nil {
			return fmt.Errorf("parsing migration version from %q: %w", entry.Name(), err)
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

// --- Questions ---

// Create persists a new unprocessed question and assigns its id and
// timestamps.
func (s *Store) Create(ctx context.Context, text, userTag string) (datatypes.Question, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	now := time.Now().UTC()
	stamp := now.Format(time.RFC3339)

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO questions (text, user_id, processed, response, created_at, updated_at)
		VALUES (?, ?, 0, '', ?, ?)`,
		text, userTag, stamp, stamp,
	)
	if err != nil {
		return datatypes.Question{}, fmt.Errorf("inserting question: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return datatypes.Question{}, fmt.Errorf("reading question id: %w", err)
	}

	return datatypes.Question{
		ID:        id,
		Text:      text,
		UserID:    userTag,
		Processed: false,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// MarkProcessed sets processed=true with the given response summary and
// bumps the update timestamp.
func (s *Store) MarkProcessed(ctx context.Context, id int64, summary string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `
		UPDATE questions SET processed = 1, response = ?, updated_at = ? WHERE id = ?`,
		summary, time.Now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("marking question processed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns the question with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (datatypes.Question, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var q datatypes.Question
	var processed int
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, text, user_id, processed, response, created_at, updated_at
		FROM questions WHERE id = ?`, id,
	).Scan(&q.ID, &q.Text, &q.UserID, &processed, &q.Response, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return datatypes.Question{}, ErrNotFound
	}
	if err != nil {
		return datatypes.Question{}, err
	}

	q.Processed = processed != 0
	if q.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return datatypes.Question{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if q.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return datatypes.Question{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return q, nil
}

// List returns a page of questions, newest first.
func (s *Store) List(ctx context.Context, offset, limit int) ([]datatypes.Question, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, user_id, processed, response, created_at, updated_at
		FROM questions ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []datatypes.Question
	for rows.Next() {
		var q datatypes.Question
		var processed int
		var createdAt, updatedAt string
		if err := rows.Scan(&q.ID, &q.Text, &q.UserID, &processed, &q.Response, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		q.Processed = processed != 0
		if q.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		if q.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
			return nil, fmt.Errorf("parsing updated_at: %w", err)
		}
		results = append(results, q)
	}
	return results, rows.Err()
}

// --- Insights ---

// StoreInsights inserts the insights for a question in one transaction;
// either all rows land or none do. The stored insights get their ids
// assigned.
func (s *Store) StoreInsights(ctx context.Context, questionID int64, insights []datatypes.Insight) ([]datatypes.Insight, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning insight transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	stamp := now.Format(time.RFC3339)

	stored := make([]datatypes.Insight, 0, len(insights))
	for _, insight := range insights {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO insights (question_id, title, description, category, confidence_score,
			                      data_sources, action_items, data_evidence, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			questionID, insight.Title, insight.Description, string(insight.Category),
			insight.ConfidenceScore, marshalList(insight.DataSources),
			marshalList(insight.ActionItems), marshalList(insight.DataEvidence), stamp,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting insight: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("reading insight id: %w", err)
		}
		insight.ID = id
		insight.QuestionID = questionID
		insight.CreatedAt = now
		stored = append(stored, insight)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing insights: %w", err)
	}
	return stored, nil
}

// InsightsFor returns the stored insights for a question, insertion
// order preserved.
func (s *Store) InsightsFor(ctx context.Context, questionID int64) ([]datatypes.Insight, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, question_id, title, description, category, confidence_score,
		       data_sources, action_items, data_evidence, created_at
		FROM insights WHERE question_id = ? ORDER BY id ASC`, questionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []datatypes.Insight
	for rows.Next() {
		var i datatypes.Insight
		var category, dataSources, actionItems, dataEvidence, createdAt string
		if err := rows.Scan(&i.ID, &i.QuestionID, &i.Title, &i.Description, &category,
			&i.ConfidenceScore, &dataSources, &actionItems, &dataEvidence, &createdAt); err != nil {
			return nil, err
		}
		i.Category = datatypes.InsightCategory(category)
		i.DataSources = unmarshalList(dataSources)
		i.ActionItems = unmarshalList(actionItems)
		i.DataEvidence = unmarshalList(dataEvidence)
		if i.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		results = append(results, i)
	}
	return results, rows.Err()
}

func marshalList(items []string) string {
	if items == nil {
		items = []string{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func unmarshalList(raw string) []string {
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}
	return items
}
