// Package review holds human-in-the-loop sessions for uncertain
// classifications and applies corrections to them.
package review

// #region imports
import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/menu"
	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/pricing"
)

// #endregion

// #region config

// Config holds the review manager's thresholds.
type Config struct {
	HITLThreshold float64       // items below this need human review
	SessionTTL    time.Duration // unresolved sessions expire after this
}

// DefaultConfig returns the standard review settings.
func DefaultConfig() Config {
	return Config{
		HITLThreshold: 0.5,
		SessionTTL:    30 * time.Minute,
	}
}

// #endregion config

// #region session

// Status of a review session.
type Status string

const (
	StatusPending  Status = "pending"
	StatusResolved Status = "resolved"
)

// Session is one pending review: the confident results with their
// partial sum, plus the uncertain items waiting for a human label.
type Session struct {
	RequestID  string                 `json:"request_id"`
	Status     Status                 `json:"status"`
	Confident  []menu.AggregateResult `json:"confident"`
	Uncertain  []menu.AggregateResult `json:"uncertain"`
	PartialSum float64                `json:"partial_sum"` // vegetarian total over confident items only
	CreatedAt  time.Time              `json:"created_at"`

	mu         sync.Mutex
	resolution *Resolution
}

// Resolution is the final answer for a request after review.
type Resolution struct {
	RequestID       string                 `json:"request_id"`
	VegetarianItems []menu.AggregateResult `json:"vegetarian_items"`
	TotalSum        float64                `json:"total_sum"`
	Applied         int                    `json:"applied"`
	Status          Status                 `json:"status"`
}

// #endregion session

// #region feedback

// FeedbackLogger records human corrections for later model improvement.
// May be nil; logging failures never affect resolution.
type FeedbackLogger interface {
	LogCorrection(requestID, dishName string, humanLabel bool) error
}

// #endregion feedback

// #region manager

// Manager owns the in-memory session store. Sessions do not survive a
// process restart.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	feedback FeedbackLogger
	config   Config
}

// NewManager creates an empty session store.
func NewManager(feedback FeedbackLogger, config Config) *Manager {
	if config.HITLThreshold <= 0 {
		config.HITLThreshold = 0.5
	}
	return &Manager{
		sessions: make(map[string]*Session),
		feedback: feedback,
		config:   config,
	}
}

// Create partitions results by the review threshold and opens a session.
// When nothing is uncertain the session is immediately resolved.
func (m *Manager) Create(results []menu.AggregateResult) *Session {
	s := &Session{
		RequestID: uuid.NewString(),
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
	for _, r := range results {
		if r.Confidence >= m.config.HITLThreshold {
			s.Confident = append(s.Confident, r)
		} else {
			s.Uncertain = append(s.Uncertain, r)
		}
	}
	s.PartialSum = pricing.VegetarianTotal(s.Confident)

	if len(s.Uncertain) == 0 {
		s.Status = StatusResolved
		s.resolution = &Resolution{
			RequestID:       s.RequestID,
			VegetarianItems: pricing.VegetarianItems(s.Confident),
			TotalSum:        s.PartialSum,
			Status:          StatusResolved,
		}
	}

	m.mu.Lock()
	m.sessions[s.RequestID] = s
	m.mu.Unlock()

	log.Printf("[REVIEW] session %s: %d confident, %d uncertain", s.RequestID, len(s.Confident), len(s.Uncertain))
	return s
}

// Get returns the session for a request ID.
func (m *Manager) Get(requestID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[requestID]
	return s, ok
}

// #endregion manager

// #region apply

// ApplyCorrections overrides uncertain items with human labels and
// resolves the session. Corrections match by lowercased name, last one
// wins, unknown names are ignored. Uncorrected uncertain items keep
// their machine verdict. Calling again on a resolved session returns
// the stored resolution unchanged.
func (m *Manager) ApplyCorrections(requestID string, corrections []menu.Correction) (Resolution, error) {
	m.mu.Lock()
	s, ok := m.sessions[requestID]
	m.mu.Unlock()
	if !ok {
		return Resolution{}, fmt.Errorf("unknown review session %q", requestID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.resolution != nil {
		return *s.resolution, nil
	}

	byName := make(map[string]bool, len(corrections))
	for _, c := range corrections {
		byName[strings.ToLower(strings.TrimSpace(c.Name))] = c.IsVegetarian
	}

	applied := 0
	final := make([]menu.AggregateResult, 0, len(s.Confident)+len(s.Uncertain))
	final = append(final, s.Confident...)
	for _, r := range s.Uncertain {
		key := strings.ToLower(r.Candidate.Name)
		if label, ok := byName[key]; ok {
			r.IsVegetarian = label
			r.Confidence = 1.0
			r.Reason = "Human verified"
			r.HumanReviewed = true
			applied++
			if m.feedback != nil {
				if err := m.feedback.LogCorrection(requestID, r.Candidate.Name, label); err != nil {
					log.Printf("[REVIEW] feedback log failed for %q: %v", r.Candidate.Name, err)
				}
			}
		}
		final = append(final, r)
	}

	res := Resolution{
		RequestID:       requestID,
		VegetarianItems: pricing.VegetarianItems(final),
		TotalSum:        pricing.VegetarianTotal(final),
		Applied:         applied,
		Status:          StatusResolved,
	}
	s.Status = StatusResolved
	s.resolution = &res

	log.Printf("[REVIEW] session %s resolved: %d corrections applied, total %.2f", requestID, applied, res.TotalSum)
	return res, nil
}

// #endregion apply

// #region expire

// Expire drops unresolved sessions older than the TTL and returns how
// many were removed. Resolved sessions are kept for idempotent reads.
func (m *Manager) Expire(now time.Time) int {
	if m.config.SessionTTL <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.Status == StatusPending && now.Sub(s.CreatedAt) > m.config.SessionTTL {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("[REVIEW] expired %d stale sessions", removed)
	}
	return removed
}

// #endregion expire
