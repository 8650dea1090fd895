package llm

// #region imports
import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/kaptinlin/jsonrepair"
	"golang.org/x/sync/errgroup"

	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/menu"
)

// #endregion

// #region config

// Config holds batching and concurrency limits for the model layer.
type Config struct {
	BatchSize     int           // dishes per prompt
	MaxConcurrent int           // parallel in-flight batches
	Timeout       time.Duration // per-batch completion timeout
}

// DefaultConfig returns the standard model layer settings.
func DefaultConfig() Config {
	return Config{
		BatchSize:     8,
		MaxConcurrent: 2,
		Timeout:       60 * time.Second,
	}
}

// #endregion config

// #region types

// BatchItem is one dish to classify, with optional retrieval evidence
// appended to the prompt as context.
type BatchItem struct {
	Name     string
	Evidence []string
}

// ItemVerdict mirrors the JSON shape the model is instructed to emit.
// IsVegetarian is a pointer so a missing field is distinguishable from
// an explicit false.
type ItemVerdict struct {
	Dish         string  `json:"dish"`
	IsVegetarian *bool   `json:"is_vegetarian"`
	Confidence   float64 `json:"confidence"`
	Reason       string  `json:"reasoning"`
}

// #endregion types

// #region classifier

// Classifier is the model layer: it classifies dishes in batches via a
// chat provider and parses the JSON the model returns.
type Classifier struct {
	provider Provider
	config   Config
}

// NewClassifier creates a Classifier over the given provider.
func NewClassifier(provider Provider, config Config) *Classifier {
	if config.BatchSize <= 0 {
		config.BatchSize = 8
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 1
	}
	return &Classifier{provider: provider, config: config}
}

// Classify fans batches out to the provider and collects verdicts keyed
// by lowercased dish name. Items the model failed on are simply absent
// from the result; the layer is never fatal to the pipeline.
func (c *Classifier) Classify(ctx context.Context, items []BatchItem) map[string]menu.SignalVerdict {
	out := make(map[string]menu.SignalVerdict, len(items))
	if len(items) == 0 || c.provider == nil {
		return out
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.MaxConcurrent)

	for start := 0; start < len(items); start += c.config.BatchSize {
		end := start + c.config.BatchSize
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]

		g.Go(func() error {
			bctx := gctx
			if c.config.Timeout > 0 {
				var cancel context.CancelFunc
				bctx, cancel = context.WithTimeout(gctx, c.config.Timeout)
				defer cancel()
			}

			verdicts := c.classifyBatch(bctx, batch)
			mu.Lock()
			for name, v := range verdicts {
				out[name] = v
			}
			mu.Unlock()
			return nil
		})
	}

	// Goroutines never return errors; failures degrade to missing verdicts.
	_ = g.Wait()
	return out
}

// #endregion classifier

// #region batch

func (c *Classifier) classifyBatch(ctx context.Context, batch []BatchItem) map[string]menu.SignalVerdict {
	raw, err := c.provider.Complete(ctx, batchSystemPrompt, buildBatchPrompt(batch))
	if err != nil {
		log.Printf("[LLM] batch of %d failed: %v", len(batch), err)
		return c.retryItems(ctx, batch)
	}

	parsed, err := parseBatchResponse(raw)
	if err != nil {
		log.Printf("[LLM] batch parse failed: %v", err)
		return c.retryItems(ctx, batch)
	}

	out := make(map[string]menu.SignalVerdict, len(batch))
	var missed []BatchItem
	for _, item := range batch {
		iv, ok := matchVerdict(parsed, item.Name)
		if !ok || iv.IsVegetarian == nil {
			missed = append(missed, item)
			continue
		}
		out[strings.ToLower(item.Name)] = c.toSignal(iv)
	}

	for name, v := range c.retryItems(ctx, missed) {
		out[name] = v
	}
	return out
}

func buildBatchPrompt(batch []BatchItem) string {
	var sb strings.Builder
	sb.WriteString("Classify these dishes:\n")
	for i, item := range batch {
		fmt.Fprintf(&sb, "%d. %s", i+1, item.Name)
		if len(item.Evidence) > 0 {
			fmt.Fprintf(&sb, " (similar known items: %s)", strings.Join(item.Evidence, "; "))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// matchVerdict pairs a model verdict with a dish by name, matching on
// case-insensitive containment either way. A dish the response never
// names gets no verdict here and falls through to the per-item retry;
// guessing by position could hand one dish another dish's verdict.
func matchVerdict(parsed []ItemVerdict, name string) (ItemVerdict, bool) {
	lname := strings.ToLower(name)
	for _, iv := range parsed {
		ldish := strings.ToLower(strings.TrimSpace(iv.Dish))
		if ldish == "" {
			continue
		}
		if strings.Contains(ldish, lname) || strings.Contains(lname, ldish) {
			return iv, true
		}
	}
	return ItemVerdict{}, false
}

func (c *Classifier) toSignal(iv ItemVerdict) menu.SignalVerdict {
	conf := iv.Confidence
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	return menu.SignalVerdict{
		Layer:        menu.LayerLLM,
		IsVegetarian: *iv.IsVegetarian,
		Confidence:   conf,
		Reason:       iv.Reason,
		Evidence:     []string{"backend: " + c.provider.Name()},
	}
}

// #endregion batch

// #region single-retry

// retryItems reclassifies dishes one at a time after a batch failure.
func (c *Classifier) retryItems(ctx context.Context, items []BatchItem) map[string]menu.SignalVerdict {
	out := make(map[string]menu.SignalVerdict, len(items))
	for _, item := range items {
		raw, err := c.provider.Complete(ctx, systemPrompt, "Classify this dish: "+item.Name)
		if err != nil {
			log.Printf("[LLM] retry %q failed: %v", item.Name, err)
			continue
		}
		iv, err := parseSingleResponse(raw)
		if err != nil || iv.IsVegetarian == nil {
			log.Printf("[LLM] retry %q parse failed: %v", item.Name, err)
			continue
		}
		out[strings.ToLower(item.Name)] = c.toSignal(iv)
	}
	return out
}

// #endregion single-retry

// #region parsing

var codeFenceRe = regexp.MustCompile("```(?:json)?")

// parseBatchResponse extracts the JSON array from a model reply,
// repairing malformed JSON when a straight unmarshal fails.
func parseBatchResponse(raw string) ([]ItemVerdict, error) {
	text := codeFenceRe.ReplaceAllString(raw, "")
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no json array in response")
	}
	text = text[start : end+1]

	var parsed []ItemVerdict
	if err := json.Unmarshal([]byte(text), &parsed); err == nil {
		return parsed, nil
	}

	repaired, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return nil, fmt.Errorf("repair batch json: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal repaired batch json: %w", err)
	}
	return parsed, nil
}

// parseSingleResponse extracts the single JSON object from a model reply.
func parseSingleResponse(raw string) (ItemVerdict, error) {
	text := codeFenceRe.ReplaceAllString(raw, "")
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ItemVerdict{}, fmt.Errorf("no json object in response")
	}
	text = text[start : end+1]

	var iv ItemVerdict
	if err := json.Unmarshal([]byte(text), &iv); err == nil {
		return iv, nil
	}

	repaired, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return ItemVerdict{}, fmt.Errorf("repair json: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &iv); err != nil {
		return ItemVerdict{}, fmt.Errorf("unmarshal repaired json: %w", err)
	}
	return iv, nil
}

// #endregion parsing
