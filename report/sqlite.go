package report

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	// Pure-Go sqlite driver registered as "sqlite".
	_ "modernc.org/sqlite"
)

// storeSchema holds archived clash queries and their records. Call Store.Init() or
// apply manually.
const storeSchema = `
CREATE TABLE IF NOT EXISTS clash_queries (
	query_id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	comment TEXT NOT NULL DEFAULT '',
	version INTEGER NOT NULL,
	generated_at INTEGER NOT NULL,
	config TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS clash_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	query_id TEXT NOT NULL REFERENCES clash_queries(query_id),
	object_a TEXT NOT NULL,
	object_b TEXT NOT NULL,
	classification TEXT NOT NULL,
	distance REAL NOT NULL,
	start_time REAL NOT NULL,
	end_time REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS clash_duplicates (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	query_id TEXT NOT NULL REFERENCES clash_queries(query_id),
	object_a TEXT NOT NULL,
	object_b TEXT NOT NULL,
	time REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS clash_warnings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	query_id TEXT NOT NULL REFERENCES clash_queries(query_id),
	path TEXT NOT NULL,
	reason TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_clash_records_query ON clash_records(query_id);
CREATE INDEX IF NOT EXISTS idx_clash_duplicates_query ON clash_duplicates(query_id);
CREATE INDEX IF NOT EXISTS idx_clash_warnings_query ON clash_warnings(query_id);
`

// Store archives clash documents in a SQLite database so results survive across
// sessions and can be compared between runs.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) an archive database at the given path and
// ensures the schema exists.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &IOError{Op: "export", Err: err}
	}
	s := &Store{db: db}
	if err := s.Init(); err != nil {
		return nil, multierr.Append(err, db.Close())
	}
	return s, nil
}

// NewStore wraps an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Init creates the archive tables if they don't exist.
func (s *Store) Init() error {
	if _, err := s.db.Exec(storeSchema); err != nil {
		return &IOError{Op: "export", Err: err}
	}
	return nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveDocument archives a document under its query id. Saving a document twice with
// the same query id is an error; remove the old one first.
func (s *Store) SaveDocument(doc *Document) (err error) {
	cfg, err := json.Marshal(doc.Config)
	if err != nil {
		return &IOError{Op: "export", Err: err}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return &IOError{Op: "export", Err: err}
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, tx.Rollback())
		}
	}()

	if _, err = tx.Exec(
		`INSERT INTO clash_queries (query_id, name, comment, version, generated_at, config) VALUES (?, ?, ?, ?, ?, ?)`,
		doc.QueryID, doc.Config.Name, doc.Config.Comment, doc.Version, doc.GeneratedAt.UnixMicro(), string(cfg),
	); err != nil {
		return &IOError{Op: "export", Err: err}
	}
	for _, r := range doc.Records {
		if _, err = tx.Exec(
			`INSERT INTO clash_records (query_id, object_a, object_b, classification, distance, start_time, end_time)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			doc.QueryID, r.ObjectA, r.ObjectB, string(r.Classification), r.Distance, r.StartTime, r.EndTime,
		); err != nil {
			return &IOError{Op: "export", Err: err}
		}
	}
	for _, d := range doc.Duplicates {
		if _, err = tx.Exec(
			`INSERT INTO clash_duplicates (query_id, object_a, object_b, time) VALUES (?, ?, ?, ?)`,
			doc.QueryID, d.ObjectA, d.ObjectB, d.Time,
		); err != nil {
			return &IOError{Op: "export", Err: err}
		}
	}
	for _, w := range doc.Warnings {
		if _, err = tx.Exec(
			`INSERT INTO clash_warnings (query_id, path, reason) VALUES (?, ?, ?)`,
			doc.QueryID, w.Path, w.Reason,
		); err != nil {
			return &IOError{Op: "export", Err: err}
		}
	}
	if err = tx.Commit(); err != nil {
		return &IOError{Op: "export", Err: err}
	}
	return nil
}

// LoadDocument fetches an archived document by query id.
func (s *Store) LoadDocument(queryID string) (*Document, error) {
	doc := &Document{QueryID: queryID}
	var cfgJSON string
	var generatedAt int64
	err := s.db.QueryRow(
		`SELECT version, generated_at, config FROM clash_queries WHERE query_id = ?`, queryID,
	).Scan(&doc.Version, &generatedAt, &cfgJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &IOError{Op: "import", Err: errors.Errorf("no archived query %q", queryID)}
	} else if err != nil {
		return nil, &IOError{Op: "import", Err: err}
	}
	doc.GeneratedAt = time.UnixMicro(generatedAt).UTC()
	if err := json.Unmarshal([]byte(cfgJSON), &doc.Config); err != nil {
		return nil, &IOError{Op: "import", Err: err}
	}

	rows, err := s.db.Query(
		`SELECT object_a, object_b, classification, distance, start_time, end_time
		 FROM clash_records WHERE query_id = ? ORDER BY id`, queryID)
	if err != nil {
		return nil, &IOError{Op: "import", Err: err}
	}
	defer rows.Close()
	for rows.Next() {
		var r Record
		var class string
		if err := rows.Scan(&r.ObjectA, &r.ObjectB, &class, &r.Distance, &r.StartTime, &r.EndTime); err != nil {
			return nil, &IOError{Op: "import", Err: err}
		}
		r.Classification = Classification(class)
		doc.Records = append(doc.Records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &IOError{Op: "import", Err: err}
	}

	dupRows, err := s.db.Query(
		`SELECT object_a, object_b, time FROM clash_duplicates WHERE query_id = ? ORDER BY id`, queryID)
	if err != nil {
		return nil, &IOError{Op: "import", Err: err}
	}
	defer dupRows.Close()
	for dupRows.Next() {
		var d DuplicateRecord
		if err := dupRows.Scan(&d.ObjectA, &d.ObjectB, &d.Time); err != nil {
			return nil, &IOError{Op: "import", Err: err}
		}
		doc.Duplicates = append(doc.Duplicates, d)
	}
	if err := dupRows.Err(); err != nil {
		return nil, &IOError{Op: "import", Err: err}
	}

	warnRows, err := s.db.Query(
		`SELECT path, reason FROM clash_warnings WHERE query_id = ? ORDER BY id`, queryID)
	if err != nil {
		return nil, &IOError{Op: "import", Err: err}
	}
	defer warnRows.Close()
	for warnRows.Next() {
		var w Warning
		if err := warnRows.Scan(&w.Path, &w.Reason); err != nil {
			return nil, &IOError{Op: "import", Err: err}
		}
		doc.Warnings = append(doc.Warnings, w)
	}
	if err := warnRows.Err(); err != nil {
		return nil, &IOError{Op: "import", Err: err}
	}
	return doc, nil
}

// ListQueryIDs returns the ids of all archived queries, oldest first.
func (s *Store) ListQueryIDs() ([]string, error) {
	rows, err := s.db.Query(`SELECT query_id FROM clash_queries ORDER BY generated_at`)
	if err != nil {
		return nil, &IOError{Op: "import", Err: err}
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, &IOError{Op: "import", Err: err}
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, &IOError{Op: "import", Err: err}
	}
	return ids, nil
}

// RemoveDocument deletes an archived query and all of its records, returning the
// number of records removed. The removal is transactional; a failure leaves the
// archive untouched.
func (s *Store) RemoveDocument(queryID string) (affected int64, err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, &IOError{Op: "export", Err: err}
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, tx.Rollback())
		}
	}()

	res, err := tx.Exec(`DELETE FROM clash_records WHERE query_id = ?`, queryID)
	if err != nil {
		return 0, &IOError{Op: "export", Err: err}
	}
	affected, _ = res.RowsAffected()
	for _, stmt := range []string{
		`DELETE FROM clash_duplicates WHERE query_id = ?`,
		`DELETE FROM clash_warnings WHERE query_id = ?`,
		`DELETE FROM clash_queries WHERE query_id = ?`,
	} {
		if _, err = tx.Exec(stmt, queryID); err != nil {
			return 0, &IOError{Op: "export", Err: err}
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, &IOError{Op: "export", Err: err}
	}
	return affected, nil
}
