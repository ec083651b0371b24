// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runstore persists completed research runs in a SQLite database
// so past results can be listed, reloaded, and exported without
// re-querying the providers.
//
// See docs/ARCHITECTURE § Run Store.
package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/aero-research/internal/pipeline"
	"github.com/pdiddy/aero-research/pkg/types"
)

const dbFile = "aero-research.db"

// Store manages the runs SQLite database.
type Store struct {
	db  *sql.DB
	dir string
}

// NewStore opens or creates the runs database at dir/aero-research.db,
// creating the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating runs directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dir: cfg.Dir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			plan TEXT NOT NULL,
			provider_status TEXT,
			reasons TEXT,
			dropped INTEGER,
			started_at TEXT,
			finished_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			run_id TEXT NOT NULL REFERENCES runs(id),
			id TEXT NOT NULL,
			title TEXT,
			abstract TEXT,
			identifiers TEXT,
			authors TEXT,
			assignees TEXT,
			classifications TEXT,
			publication_date TEXT,
			sources TEXT,
			specs TEXT,
			citation_refs TEXT,
			extensions TEXT,
			influence REAL,
			depth INTEGER,
			PRIMARY KEY (run_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS edges (
			run_id TEXT NOT NULL REFERENCES runs(id),
			from_id TEXT NOT NULL,
			to_id TEXT NOT NULL,
			weight REAL,
			confidence REAL,
			PRIMARY KEY (run_id, from_id, to_id)
		)`,
		`CREATE TABLE IF NOT EXISTS buckets (
			run_id TEXT NOT NULL REFERENCES runs(id),
			window TEXT NOT NULL,
			code TEXT NOT NULL,
			count INTEGER,
			score REAL,
			PRIMARY KEY (run_id, window, code)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_run ON documents(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_edges_run ON edges(run_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun stores a completed run in one transaction.
func (s *Store) SaveRun(ctx context.Context, run pipeline.RunResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	queryJSON, _ := json.Marshal(run.Query)
	planJSON, _ := json.Marshal(run.Plan)
	statusJSON, _ := json.Marshal(run.ProviderStatus)
	reasonsJSON, _ := json.Marshal(run.Reasons)

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, query, plan, provider_status, reasons, dropped, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(queryJSON), string(planJSON), string(statusJSON), string(reasonsJSON),
		run.Dropped,
		run.StartedAt.Format(time.RFC3339Nano), run.FinishedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	docStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (run_id, id, title, abstract, identifiers, authors, assignees,
			classifications, publication_date, sources, specs, citation_refs, extensions,
			influence, depth)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing document insert: %w", err)
	}
	defer docStmt.Close()

	for _, d := range run.Documents {
		dateStr := ""
		if !d.PublicationDate.IsZero() {
			dateStr = d.PublicationDate.Format("2006-01-02")
		}
		_, err := docStmt.ExecContext(ctx,
			run.ID, d.ID, d.Title, d.Abstract,
			marshalJSON(d.Identifiers), marshalJSON(d.Authors), marshalJSON(d.Assignees),
			marshalJSON(d.Classifications), dateStr, marshalJSON(d.Sources),
			marshalJSON(d.Specs), marshalJSON(d.CitationRefs), marshalJSON(d.Extensions),
			run.Graph.Influence[d.ID], run.Graph.Depth[d.ID],
		)
		if err != nil {
			return fmt.Errorf("inserting document %s: %w", d.ID, err)
		}
	}

	for _, e := range run.Graph.Edges {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO edges (run_id, from_id, to_id, weight, confidence) VALUES (?, ?, ?, ?, ?)`,
			run.ID, e.From, e.To, e.Weight, e.Confidence,
		)
		if err != nil {
			return fmt.Errorf("inserting edge %s->%s: %w", e.From, e.To, err)
		}
	}

	for _, b := range run.Trends {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO buckets (run_id, window, code, count, score) VALUES (?, ?, ?, ?, ?)`,
			run.ID, b.Window, b.Code, b.Count, b.Score,
		)
		if err != nil {
			return fmt.Errorf("inserting bucket %s/%s: %w", b.Window, b.Code, err)
		}
	}

	return tx.Commit()
}

// RunSummary is one row of the run listing.
type RunSummary struct {
	ID         string
	QueryText  string
	Documents  int
	Edges      int
	FinishedAt time.Time
}

// ListRuns returns summaries of stored runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.query, r.finished_at,
			(SELECT count(*) FROM documents d WHERE d.run_id = r.id),
			(SELECT count(*) FROM edges e WHERE e.run_id = r.id)
		 FROM runs r ORDER BY r.finished_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var sum RunSummary
		var queryJSON, finished string
		if err := rows.Scan(&sum.ID, &queryJSON, &finished, &sum.Documents, &sum.Edges); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		var q types.ResearchQuery
		if err := json.Unmarshal([]byte(queryJSON), &q); err == nil {
			sum.QueryText = q.Text
		}
		if t, err := time.Parse(time.RFC3339Nano, finished); err == nil {
			sum.FinishedAt = t
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// LoadRun reconstructs a stored run, including graph nodes, influence
// scores, and depth tiers.
func (s *Store) LoadRun(ctx context.Context, id string) (pipeline.RunResult, error) {
	var run pipeline.RunResult
	var queryJSON, planJSON, statusJSON, reasonsJSON, started, finished string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, query, plan, provider_status, reasons, dropped, started_at, finished_at
		 FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &queryJSON, &planJSON, &statusJSON, &reasonsJSON, &run.Dropped, &started, &finished)
	if err == sql.ErrNoRows {
		return run, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return run, fmt.Errorf("querying run: %w", err)
	}

	json.Unmarshal([]byte(queryJSON), &run.Query)
	json.Unmarshal([]byte(planJSON), &run.Plan)
	json.Unmarshal([]byte(statusJSON), &run.ProviderStatus)
	json.Unmarshal([]byte(reasonsJSON), &run.Reasons)
	if t, err := time.Parse(time.RFC3339Nano, started); err == nil {
		run.StartedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, finished); err == nil {
		run.FinishedAt = t
	}

	run.Graph = types.CitationGraph{
		Nodes:     make(map[string]types.Document),
		Influence: make(map[string]float64),
		Depth:     make(map[string]int),
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, abstract, identifiers, authors, assignees, classifications,
			publication_date, sources, specs, citation_refs, extensions, influence, depth
		 FROM documents WHERE run_id = ? ORDER BY rowid`, id)
	if err != nil {
		return run, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d types.Document
		var identifiers, authors, assignees, classifications, dateStr string
		var sources, specs, refs, extensions string
		var influence float64
		var depth int
		if err := rows.Scan(&d.ID, &d.Title, &d.Abstract, &identifiers, &authors, &assignees,
			&classifications, &dateStr, &sources, &specs, &refs, &extensions,
			&influence, &depth); err != nil {
			return run, fmt.Errorf("scanning document row: %w", err)
		}
		json.Unmarshal([]byte(identifiers), &d.Identifiers)
		json.Unmarshal([]byte(authors), &d.Authors)
		json.Unmarshal([]byte(assignees), &d.Assignees)
		json.Unmarshal([]byte(classifications), &d.Classifications)
		json.Unmarshal([]byte(sources), &d.Sources)
		json.Unmarshal([]byte(specs), &d.Specs)
		json.Unmarshal([]byte(refs), &d.CitationRefs)
		json.Unmarshal([]byte(extensions), &d.Extensions)
		if dateStr != "" {
			if t, err := time.Parse("2006-01-02", dateStr); err == nil {
				d.PublicationDate = t
			}
		}
		run.Documents = append(run.Documents, d)
		run.Graph.Nodes[d.ID] = d
		run.Graph.Influence[d.ID] = influence
		run.Graph.Depth[d.ID] = depth
	}
	if err := rows.Err(); err != nil {
		return run, err
	}

	edgeRows, err := s.db.QueryContext(ctx,
		`SELECT from_id, to_id, weight, confidence FROM edges
		 WHERE run_id = ? ORDER BY from_id, to_id`, id)
	if err != nil {
		return run, fmt.Errorf("querying edges: %w", err)
	}
	defer edgeRows.Close()
	for edgeRows.Next() {
		var e types.CitationEdge
		if err := edgeRows.Scan(&e.From, &e.To, &e.Weight, &e.Confidence); err != nil {
			return run, fmt.Errorf("scanning edge row: %w", err)
		}
		run.Graph.Edges = append(run.Graph.Edges, e)
	}
	if err := edgeRows.Err(); err != nil {
		return run, err
	}

	bucketRows, err := s.db.QueryContext(ctx,
		`SELECT window, code, count, score FROM buckets
		 WHERE run_id = ? ORDER BY code, window`, id)
	if err != nil {
		return run, fmt.Errorf("querying buckets: %w", err)
	}
	defer bucketRows.Close()
	for bucketRows.Next() {
		var b types.TrendBucket
		if err := bucketRows.Scan(&b.Window, &b.Code, &b.Count, &b.Score); err != nil {
			return run, fmt.Errorf("scanning bucket row: %w", err)
		}
		run.Trends = append(run.Trends, b)
	}
	return run, bucketRows.Err()
}

// marshalJSON serializes v for column storage; nil collections store as
// JSON null so loads round-trip to nil.
func marshalJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}
