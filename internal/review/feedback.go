package review

// #region imports
import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// #endregion

// #region jsonl-logger

// JSONLFeedback appends human corrections to a JSONL file, one record
// per line, for offline retraining pipelines.
type JSONLFeedback struct {
	mu   sync.Mutex
	path string
}

// NewJSONLFeedback creates a logger writing to path.
func NewJSONLFeedback(path string) *JSONLFeedback {
	return &JSONLFeedback{path: path}
}

type feedbackRecord struct {
	Timestamp    string `json:"timestamp"`
	RequestID    string `json:"request_id"`
	DishName     string `json:"dish_name"`
	HumanLabel   bool   `json:"human_label"`
	FeedbackType string `json:"feedback_type"`
}

// LogCorrection appends one correction record.
func (f *JSONLFeedback) LogCorrection(requestID, dishName string, humanLabel bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	line, err := json.Marshal(feedbackRecord{
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		RequestID:    requestID,
		DishName:     dishName,
		HumanLabel:   humanLabel,
		FeedbackType: "hitl_correction",
	})
	if err != nil {
		return fmt.Errorf("marshal feedback record: %w", err)
	}

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open feedback log: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write feedback record: %w", err)
	}
	return nil
}

// #endregion jsonl-logger
