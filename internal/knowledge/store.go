package knowledge

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS knowledge_entries (
	name          TEXT NOT NULL,
	kind          TEXT NOT NULL,
	is_vegetarian INTEGER NOT NULL,
	category      TEXT NOT NULL,
	description   TEXT,
	notes         TEXT,
	PRIMARY KEY (name, kind)
);

CREATE TABLE IF NOT EXISTS keyword_terms (
	term  TEXT NOT NULL,
	class TEXT NOT NULL,
	PRIMARY KEY (term, class)
);

CREATE TABLE IF NOT EXISTS classification_log (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id     TEXT NOT NULL,
	dish           TEXT NOT NULL,
	is_vegetarian  INTEGER NOT NULL,
	confidence     REAL NOT NULL,
	method         TEXT NOT NULL,
	chain_json     TEXT,
	reason         TEXT,
	human_reviewed INTEGER NOT NULL DEFAULT 0,
	created_at     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_classification_log_request
ON classification_log(request_id);
`
// #endregion schema

// #region store-struct
// Store manages the curated knowledge base and the classification log
// in SQLite. Entries and keywords are read-only during a request.
type Store struct {
	db *sql.DB
}
// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}
// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages (e.g. provenance).
func (s *Store) DB() *sql.DB {
	return s.db
}
// #endregion db-accessor

// #region seed
// Seed upserts the given base into the store. Idempotent.
func (s *Store) Seed(base Base) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, e := range base.Entries {
		veg := 0
		if e.IsVegetarian {
			veg = 1
		}
		_, err := tx.Exec(
			`INSERT INTO knowledge_entries (name, kind, is_vegetarian, category, description, notes)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(name, kind) DO UPDATE SET
			   is_vegetarian = excluded.is_vegetarian,
			   category      = excluded.category,
			   description   = excluded.description,
			   notes         = excluded.notes`,
			e.Name, string(e.Kind), veg, e.Category, e.Description, e.Notes,
		)
		if err != nil {
			return fmt.Errorf("upsert entry %s: %w", e.Name, err)
		}
	}

	seedTerms := func(terms []string, class string) error {
		for _, t := range terms {
			if _, err := tx.Exec(
				`INSERT OR IGNORE INTO keyword_terms (term, class) VALUES (?, ?)`,
				t, class,
			); err != nil {
				return fmt.Errorf("upsert term %s: %w", t, err)
			}
		}
		return nil
	}
	if err := seedTerms(base.Keywords.Positive, "positive"); err != nil {
		return err
	}
	if err := seedTerms(base.Keywords.Markers, "marker"); err != nil {
		return err
	}
	if err := seedTerms(base.Keywords.Negative, "negative"); err != nil {
		return err
	}

	return tx.Commit()
}
// #endregion seed

// #region load
// LoadBase reads the full knowledge base from the store.
func (s *Store) LoadBase() (Base, error) {
	var base Base

	rows, err := s.db.Query(
		`SELECT name, kind, is_vegetarian, category, description, notes
		 FROM knowledge_entries ORDER BY kind, name`,
	)
	if err != nil {
		return Base{}, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e Entry
		var kind string
		var veg int
		var desc, notes sql.NullString
		if err := rows.Scan(&e.Name, &kind, &veg, &e.Category, &desc, &notes); err != nil {
			return Base{}, fmt.Errorf("scan entry: %w", err)
		}
		e.Kind = Kind(kind)
		e.IsVegetarian = veg == 1
		e.Description = desc.String
		e.Notes = notes.String
		base.Entries = append(base.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return Base{}, err
	}

	termRows, err := s.db.Query(`SELECT term, class FROM keyword_terms ORDER BY class, term`)
	if err != nil {
		return Base{}, fmt.Errorf("query terms: %w", err)
	}
	defer termRows.Close()

	for termRows.Next() {
		var term, class string
		if err := termRows.Scan(&term, &class); err != nil {
			return Base{}, fmt.Errorf("scan term: %w", err)
		}
		switch class {
		case "positive":
			base.Keywords.Positive = append(base.Keywords.Positive, term)
		case "marker":
			base.Keywords.Markers = append(base.Keywords.Markers, term)
		case "negative":
			base.Keywords.Negative = append(base.Keywords.Negative, term)
		}
	}
	return base, termRows.Err()
}
// #endregion load

// #region count
// CountEntries returns the number of knowledge entries.
func (s *Store) CountEntries() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM knowledge_entries`).Scan(&n)
	return n, err
}
// #endregion count
