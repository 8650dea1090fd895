package reconcile

// #region imports
import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/llm"
	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/menu"
)

// #endregion

// #region config

// LayerWeights are the relative weights of each signal when combining.
// Only the weights of layers that actually fired are renormalized.
type LayerWeights struct {
	Keyword float64
	RAG     float64
	LLM     float64
}

// Config holds the reconciler's thresholds and limits.
type Config struct {
	ConfidenceThreshold float64       // a single verdict at or above this short-circuits
	Weights             LayerWeights  // combine weights
	MaxConcurrent       int           // parallel candidates in the fan-out phase
	LayerTimeout        time.Duration // per-candidate budget for the first two layers
}

// DefaultConfig returns the standard reconciliation settings.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: 0.7,
		Weights:             LayerWeights{Keyword: 0.4, RAG: 0.3, LLM: 0.3},
		MaxConcurrent:       4,
		LayerTimeout:        30 * time.Second,
	}
}

// #endregion config

// #region interfaces

// KeywordLayer is the lexical signal.
type KeywordLayer interface {
	Match(name string) *menu.SignalVerdict
}

// EvidenceLayer is the similarity-index signal. A nil verdict with a
// non-nil error means the index failed; the layer is skipped either way.
type EvidenceLayer interface {
	Retrieve(ctx context.Context, dish string) (*menu.SignalVerdict, []string, error)
}

// ModelLayer is the batched LLM signal, keyed by lowercased dish name.
type ModelLayer interface {
	Classify(ctx context.Context, items []llm.BatchItem) map[string]menu.SignalVerdict
}

// Observer receives each final result as it is emitted. Implementations
// must not block; observer failures never affect classification.
type Observer interface {
	Record(requestID string, result menu.AggregateResult)
}

// #endregion interfaces

// #region reconciler

// Reconciler runs candidates through the layered pipeline and resolves
// each to a single verdict. Layers run cheapest first; a confident
// early verdict skips the rest.
type Reconciler struct {
	keyword  KeywordLayer
	evidence EvidenceLayer
	model    ModelLayer
	observer Observer
	config   Config
}

// NewReconciler wires the three layers. evidence, model and observer
// may each be nil; a nil layer is treated as never firing.
func NewReconciler(keyword KeywordLayer, evidence EvidenceLayer, model ModelLayer, observer Observer, config Config) *Reconciler {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 1
	}
	return &Reconciler{
		keyword:  keyword,
		evidence: evidence,
		model:    model,
		observer: observer,
		config:   config,
	}
}

// candidateState carries one candidate across the pipeline phases.
type candidateState struct {
	candidate menu.DishCandidate
	chain     []menu.LayerTrace
	verdicts  []menu.SignalVerdict
	evidence  []string
	resolved  *menu.AggregateResult
}

// #endregion reconciler

// #region reconcile

// Reconcile classifies candidates and returns results in input order.
// Only empty input is fatal; a layer failing on one candidate degrades
// that candidate's verdict instead. Cancellation mid-request finalizes
// every candidate through combine with whatever verdicts were obtained.
func (r *Reconciler) Reconcile(ctx context.Context, requestID string, candidates []menu.DishCandidate) ([]menu.AggregateResult, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no candidates to classify")
	}

	states := make([]*candidateState, len(candidates))
	for i, c := range candidates {
		states[i] = &candidateState{candidate: c}
	}

	// Phase 1: keyword then retrieval per candidate, concurrently.
	// Each state is owned by exactly one goroutine; no shared writes.
	var g errgroup.Group
	g.SetLimit(r.config.MaxConcurrent)
	for _, st := range states {
		g.Go(func() error {
			r.runEarlyLayers(ctx, st)
			return nil
		})
	}
	// Goroutines never return errors; a cancelled retrieval degrades to
	// an unfired trace on that candidate.
	_ = g.Wait()

	// Phase 2: one batched model call over everything still unresolved.
	// Skipped when the request is already cancelled.
	if ctx.Err() == nil {
		r.runModelLayer(ctx, states)
	} else {
		log.Printf("[RECONCILE] request %s cancelled, finalizing with partial verdicts", requestID)
	}

	// Phase 3: combine whatever fired.
	results := make([]menu.AggregateResult, len(states))
	for i, st := range states {
		if st.resolved == nil {
			res := r.combine(st)
			st.resolved = &res
		}
		results[i] = *st.resolved
		if r.observer != nil {
			r.observer.Record(requestID, results[i])
		}
	}

	log.Printf("[RECONCILE] request %s: %d candidates classified", requestID, len(results))
	return results, nil
}

// #endregion reconcile

// #region early-layers

func (r *Reconciler) runEarlyLayers(ctx context.Context, st *candidateState) {
	if r.config.LayerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.LayerTimeout)
		defer cancel()
	}

	if r.keyword != nil {
		v := r.keyword.Match(st.candidate.Name)
		st.chain = append(st.chain, traceOf(menu.LayerKeyword, v, ""))
		if v != nil {
			st.verdicts = append(st.verdicts, *v)
			if v.Confidence >= r.config.ConfidenceThreshold {
				res := r.resolveSingle(st, *v)
				st.resolved = &res
				return
			}
		}
	}

	if r.evidence != nil {
		v, ev, err := r.evidence.Retrieve(ctx, st.candidate.Name)
		note := ""
		if err != nil {
			note = err.Error()
			log.Printf("[RECONCILE] retrieval skipped for %q: %v", st.candidate.Name, err)
		}
		st.chain = append(st.chain, traceOf(menu.LayerRAG, v, note))
		st.evidence = append(st.evidence, ev...)
		if v != nil {
			st.verdicts = append(st.verdicts, *v)
			if v.Confidence >= r.config.ConfidenceThreshold {
				res := r.resolveSingle(st, *v)
				st.resolved = &res
			}
		}
	}
}

// #endregion early-layers

// #region model-layer

func (r *Reconciler) runModelLayer(ctx context.Context, states []*candidateState) {
	if r.model == nil {
		return
	}

	var pending []*candidateState
	var items []llm.BatchItem
	for _, st := range states {
		if st.resolved != nil {
			continue
		}
		pending = append(pending, st)
		items = append(items, llm.BatchItem{Name: st.candidate.Name, Evidence: st.evidence})
	}
	if len(pending) == 0 {
		return
	}

	// Model verdicts never short-circuit: the last layer always flows
	// into combine alongside whatever fired before it.
	verdicts := r.model.Classify(ctx, items)
	for _, st := range pending {
		v, ok := verdicts[strings.ToLower(st.candidate.Name)]
		if !ok {
			st.chain = append(st.chain, traceOf(menu.LayerLLM, nil, "no model verdict"))
			continue
		}
		st.chain = append(st.chain, traceOf(menu.LayerLLM, &v, ""))
		st.verdicts = append(st.verdicts, v)
	}
}

// #endregion model-layer

// #region combine

func methodFor(layer menu.Layer) menu.Method {
	switch layer {
	case menu.LayerKeyword:
		return menu.MethodKeyword
	case menu.LayerRAG:
		return menu.MethodRAG
	case menu.LayerLLM:
		return menu.MethodLLM
	}
	return menu.MethodUnresolved
}

func (r *Reconciler) weightOf(layer menu.Layer) float64 {
	switch layer {
	case menu.LayerKeyword:
		return r.config.Weights.Keyword
	case menu.LayerRAG:
		return r.config.Weights.RAG
	case menu.LayerLLM:
		return r.config.Weights.LLM
	}
	return 0
}

// resolveSingle finalizes a candidate on one confident verdict.
func (r *Reconciler) resolveSingle(st *candidateState, v menu.SignalVerdict) menu.AggregateResult {
	return menu.AggregateResult{
		Candidate:     st.candidate,
		IsVegetarian:  v.IsVegetarian,
		Confidence:    v.Confidence,
		Method:        methodFor(v.Layer),
		FallbackChain: st.chain,
		Reason:        v.Reason,
		Evidence:      mergeEvidence(st.evidence, v.Evidence),
	}
}

// combine folds every fired verdict into one result. Each verdict maps
// to a vegetarian probability 0.5 +/- confidence/2; the weighted mean
// decides the label and its distance from 0.5 scales back to confidence.
// With exactly one verdict this collapses to that verdict's own
// confidence. An exact 0.5 mean resolves to non-vegetarian.
func (r *Reconciler) combine(st *candidateState) menu.AggregateResult {
	if len(st.verdicts) == 0 {
		return menu.AggregateResult{
			Candidate:     st.candidate,
			IsVegetarian:  false,
			Confidence:    0,
			Method:        menu.MethodUnresolved,
			FallbackChain: st.chain,
			Reason:        "no layer produced a verdict",
			Evidence:      st.evidence,
		}
	}
	if len(st.verdicts) == 1 {
		return r.resolveSingle(st, st.verdicts[0])
	}

	var weighted, totalWeight float64
	var reasons []string
	var evidence []string
	for _, v := range st.verdicts {
		w := r.weightOf(v.Layer)
		if w <= 0 {
			continue
		}
		p := 0.5 - v.Confidence/2
		if v.IsVegetarian {
			p = 0.5 + v.Confidence/2
		}
		weighted += w * p
		totalWeight += w
		reasons = append(reasons, string(v.Layer)+": "+v.Reason)
		evidence = mergeEvidence(evidence, v.Evidence)
	}
	if totalWeight == 0 {
		return r.resolveSingle(st, st.verdicts[0])
	}

	prob := weighted / totalWeight
	isVeg := prob > 0.5
	confidence := (prob - 0.5) * 2
	if !isVeg {
		confidence = (0.5 - prob) * 2
	}

	return menu.AggregateResult{
		Candidate:     st.candidate,
		IsVegetarian:  isVeg,
		Confidence:    confidence,
		Method:        menu.MethodCombined,
		FallbackChain: st.chain,
		Reason:        strings.Join(reasons, "; "),
		Evidence:      mergeEvidence(st.evidence, evidence),
	}
}

// #endregion combine

// #region helpers

func traceOf(layer menu.Layer, v *menu.SignalVerdict, note string) menu.LayerTrace {
	t := menu.LayerTrace{Layer: layer, Note: note}
	if v != nil {
		t.Fired = true
		t.IsVegetarian = v.IsVegetarian
		t.Confidence = v.Confidence
	}
	return t
}

func mergeEvidence(base, extra []string) []string {
	seen := make(map[string]bool, len(base))
	out := make([]string, 0, len(base)+len(extra))
	for _, s := range base {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range extra {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// #endregion helpers
