package indexdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"emberhold/internal/sim/catalogs"
	"emberhold/internal/sim/colony"
)

// SQLiteIndex is a read-model index over the tick journal, audit entries and
// periodic snapshots. Writes go through a buffered channel to a single
// writer goroutine so the sim thread never blocks on the database.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	auditSeq map[uint64]int
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqAudit
	reqSnapshot
)

type req struct {
	kind reqKind

	tick     colony.TickLogEntry
	audit    colony.AuditEntry
	snapshot colony.StateSnapshot
}

func Open(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db:       db,
		ch:       make(chan req, 65536),
		auditSeq: map[uint64]int{},
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads; NORMAL durability is
	// fine for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER PRIMARY KEY,
			digest TEXT NOT NULL,
			events INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS audits (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			actor TEXT NOT NULL,
			action TEXT NOT NULL,
			resource TEXT,
			count INTEGER NOT NULL,
			ref TEXT,
			reason TEXT,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_actor_tick ON audits(actor, tick);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			tick INTEGER PRIMARY KEY,
			agents INTEGER NOT NULL,
			nodes INTEGER NOT NULL,
			tasks INTEGER NOT NULL,
			sites INTEGER NOT NULL,
			buildings INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) WriteTick(entry colony.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, tick: entry}:
	default:
		// Drop if the indexer falls behind; JSONL logs remain the source of truth.
	}
	return nil
}

func (s *SQLiteIndex) WriteAudit(entry colony.AuditEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqAudit, audit: entry}:
	default:
	}
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(snap colony.StateSnapshot) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: snap}:
	default:
	}
}

// UpsertCatalogs stores the raw catalog JSON keyed by digest so a journal
// can always be interpreted against the defs it ran with.
func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type row struct {
		name   string
		digest string
	}
	rows := []row{
		{name: "resources", digest: cats.Resources.Digest},
		{name: "buildings", digest: cats.Buildings.Digest},
	}
	for _, r := range rows {
		raw, err := os.ReadFile(filepath.Join(configDir, r.name+".json"))
		if err != nil {
			return err
		}
		_, err = s.db.Exec(
			`INSERT INTO catalogs(name, digest, json, updated_at) VALUES(?,?,?,?)
			 ON CONFLICT(name) DO UPDATE SET digest=excluded.digest, json=excluded.json, updated_at=excluded.updated_at`,
			r.name, r.digest, string(raw), now,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) loop() {
	for r := range s.ch {
		switch r.kind {
		case reqTick:
			s.insertTick(r.tick)
		case reqAudit:
			s.insertAudit(r.audit)
		case reqSnapshot:
			s.insertSnapshot(r.snapshot)
		}
	}
}

func (s *SQLiteIndex) insertTick(entry colony.TickLogEntry) {
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_, _ = s.db.Exec(
		`INSERT OR REPLACE INTO ticks(tick, digest, events, raw_json) VALUES(?,?,?,?)`,
		int64(entry.Tick), entry.Digest, len(entry.Events), string(raw),
	)
}

func (s *SQLiteIndex) insertAudit(entry colony.AuditEntry) {
	seq := s.auditSeq[entry.Tick]
	s.auditSeq[entry.Tick] = seq + 1
	_, _ = s.db.Exec(
		`INSERT OR REPLACE INTO audits(tick, seq, actor, action, resource, count, ref, reason) VALUES(?,?,?,?,?,?,?,?)`,
		int64(entry.Tick), seq, entry.Actor, entry.Action, entry.Resource, entry.Count, entry.Ref, entry.Reason,
	)
}

func (s *SQLiteIndex) insertSnapshot(snap colony.StateSnapshot) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return
	}
	_, _ = s.db.Exec(
		`INSERT OR REPLACE INTO snapshots(tick, agents, nodes, tasks, sites, buildings, raw_json) VALUES(?,?,?,?,?,?,?)`,
		int64(snap.Tick), len(snap.Agents), len(snap.Nodes), len(snap.Tasks), len(snap.Sites), len(snap.Buildings), string(raw),
	)
}

// LatestTick returns the highest indexed tick, or 0 when empty.
func (s *SQLiteIndex) LatestTick() (uint64, error) {
	var v sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(tick) FROM ticks`).Scan(&v); err != nil {
		return 0, err
	}
	if !v.Valid {
		return 0, nil
	}
	return uint64(v.Int64), nil
}
