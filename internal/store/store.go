// Package store persists evaluation snapshots to SQLite: one row per run
// with its program hash and counters, plus the full saturated fact set. The
// query-store tool reads the same file without cgo.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"strata/internal/ast"
	"strata/internal/engine"
	"strata/internal/logging"
)

// SnapshotStore owns one SQLite database of evaluation snapshots.
type SnapshotStore struct {
	db     *sql.DB
	mu     sync.Mutex
	dbPath string
}

// Open initializes the snapshot database at the given path.
func Open(path string) (*SnapshotStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "store.Open")
	defer timer.Stop()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Single writer; WAL keeps concurrent readers (query-store) cheap.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("failed to set busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("failed to set journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("failed to set synchronous=NORMAL: %v", err)
	}

	s := &SnapshotStore{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SnapshotStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		program_hash TEXT NOT NULL,
		rule_count INTEGER NOT NULL,
		group_count INTEGER NOT NULL,
		pass_count INTEGER NOT NULL,
		tuple_count INTEGER NOT NULL,
		new_tuples INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_hash ON snapshots(program_hash);

	CREATE TABLE IF NOT EXISTS snapshot_facts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
		predicate TEXT NOT NULL,
		args TEXT NOT NULL,
		UNIQUE(snapshot_id, predicate, args)
	);
	CREATE INDEX IF NOT EXISTS idx_snapshot_facts_pred ON snapshot_facts(snapshot_id, predicate);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// ProgramHash returns the SHA-256 of the program's source rendering, the key
// used to correlate snapshots of the same program across runs.
func ProgramHash(prog *ast.Program) string {
	sum := sha256.Sum256([]byte(prog.String()))
	return hex.EncodeToString(sum[:])
}

// Save writes one run as a snapshot and returns its row ID.
func (s *SnapshotStore) Save(prog *ast.Program, res *engine.Result) (int64, error) {
	timer := logging.StartTimer(logging.CategoryStore, "store.Save")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		INSERT INTO snapshots (run_id, program_hash, rule_count, group_count, pass_count, tuple_count, new_tuples, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID,
		ProgramHash(prog),
		len(prog.Rules),
		len(res.Groups),
		res.TotalPasses(),
		res.DB.TupleCount(),
		res.NewTuples,
		res.Duration.Milliseconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert snapshot: %w", err)
	}
	snapID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read snapshot id: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO snapshot_facts (snapshot_id, predicate, args) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare fact insert: %w", err)
	}
	defer stmt.Close()

	preds := make([]ast.PredicateSym, 0, len(res.DB))
	for pred := range res.DB {
		preds = append(preds, pred)
	}
	sort.Slice(preds, func(i, j int) bool { return preds[i].String() < preds[j].String() })

	for _, pred := range preds {
		for _, t := range res.DB[pred].Rows() {
			if _, err := stmt.Exec(snapID, pred.String(), renderArgs(t)); err != nil {
				return 0, fmt.Errorf("failed to insert fact for %s: %w", pred, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit snapshot: %w", err)
	}
	logging.StoreDebug("snapshot %d: run %s, %d tuples", snapID, res.RunID, res.DB.TupleCount())
	return snapID, nil
}

// renderArgs stores tuples in source syntax, so the inspector can print rows
// without knowing the dialect.
func renderArgs(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	return strings.Join(quoted, ",")
}

// SnapshotMeta is one snapshots row.
type SnapshotMeta struct {
	ID          int64
	RunID       string
	ProgramHash string
	RuleCount   int
	GroupCount  int
	PassCount   int
	TupleCount  int
	NewTuples   int
	DurationMS  int64
	CreatedAt   string
}

// Snapshots lists stored snapshots, newest first.
func (s *SnapshotStore) Snapshots() ([]SnapshotMeta, error) {
	rows, err := s.db.Query(`
		SELECT id, run_id, program_hash, rule_count, group_count, pass_count, tuple_count, new_tuples, duration_ms, created_at
		FROM snapshots ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var out []SnapshotMeta
	for rows.Next() {
		var m SnapshotMeta
		if err := rows.Scan(&m.ID, &m.RunID, &m.ProgramHash, &m.RuleCount, &m.GroupCount, &m.PassCount, &m.TupleCount, &m.NewTuples, &m.DurationMS, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Facts returns a snapshot's stored rows for one predicate, sorted.
func (s *SnapshotStore) Facts(snapshotID int64, predicate string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT args FROM snapshot_facts
		WHERE snapshot_id = ? AND predicate = ?
		ORDER BY args`, snapshotID, predicate)
	if err != nil {
		return nil, fmt.Errorf("failed to query facts: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var args string
		if err := rows.Scan(&args); err != nil {
			return nil, fmt.Errorf("failed to scan fact: %w", err)
		}
		out = append(out, args)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}
