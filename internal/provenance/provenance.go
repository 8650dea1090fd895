// Package provenance persists every final classification to the
// classification_log table so decisions can be audited later.
package provenance

// #region imports
import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/menu"
)

// #endregion

// #region entry

// Entry is a single row in the classification_log table.
type Entry struct {
	RequestID     string
	Dish          string
	IsVegetarian  bool
	Confidence    float64
	Method        string
	ChainJSON     string
	Reason        string
	HumanReviewed bool
	CreatedAt     time.Time
}

// #endregion entry

// #region log

// LogClassification writes one provenance entry.
func LogClassification(db *sql.DB, entry Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	veg, reviewed := 0, 0
	if entry.IsVegetarian {
		veg = 1
	}
	if entry.HumanReviewed {
		reviewed = 1
	}

	_, err := db.Exec(
		`INSERT INTO classification_log (request_id, dish, is_vegetarian, confidence, method, chain_json, reason, human_reviewed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RequestID,
		entry.Dish,
		veg,
		entry.Confidence,
		entry.Method,
		nullIfEmpty(entry.ChainJSON),
		nullIfEmpty(entry.Reason),
		reviewed,
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log classification: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion log

// #region queries

// ListRecent returns the newest entries, most recent first.
func ListRecent(db *sql.DB, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(
		`SELECT request_id, dish, is_vegetarian, confidence, method, chain_json, reason, human_reviewed, created_at
		 FROM classification_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ListByRequest returns every entry for one request, in insertion order.
func ListByRequest(db *sql.DB, requestID string) ([]Entry, error) {
	rows, err := db.Query(
		`SELECT request_id, dish, is_vegetarian, confidence, method, chain_json, reason, human_reviewed, created_at
		 FROM classification_log WHERE request_id = ? ORDER BY id`, requestID)
	if err != nil {
		return nil, fmt.Errorf("query request %s: %w", requestID, err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		var e Entry
		var veg, reviewed int
		var chain, reason sql.NullString
		var created string
		if err := rows.Scan(&e.RequestID, &e.Dish, &veg, &e.Confidence, &e.Method, &chain, &reason, &reviewed, &created); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.IsVegetarian = veg == 1
		e.HumanReviewed = reviewed == 1
		e.ChainJSON = chain.String
		e.Reason = reason.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, e)
	}
	return out, rows.Err()
}

// #endregion queries

// #region recorder

// Recorder adapts the log to the reconciler's observer hook. Write
// failures are logged and swallowed; provenance never blocks a verdict.
type Recorder struct {
	db *sql.DB
}

// NewRecorder creates a Recorder over db.
func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{db: db}
}

// Record persists one final result.
func (r *Recorder) Record(requestID string, result menu.AggregateResult) {
	chain, err := json.Marshal(result.FallbackChain)
	if err != nil {
		chain = nil
	}
	err = LogClassification(r.db, Entry{
		RequestID:     requestID,
		Dish:          result.Candidate.Name,
		IsVegetarian:  result.IsVegetarian,
		Confidence:    result.Confidence,
		Method:        string(result.Method),
		ChainJSON:     string(chain),
		Reason:        result.Reason,
		HumanReviewed: result.HumanReviewed,
	})
	if err != nil {
		log.Printf("[PROVENANCE] record %q failed: %v", result.Candidate.Name, err)
	}
}

// #endregion recorder
