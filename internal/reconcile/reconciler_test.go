package reconcile

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/llm"
	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/menu"
	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/review"
)

// #region fakes

type fakeKeyword struct {
	verdicts map[string]*menu.SignalVerdict
}

func (f *fakeKeyword) Match(name string) *menu.SignalVerdict {
	return f.verdicts[strings.ToLower(name)]
}

type fakeEvidence struct {
	verdicts map[string]*menu.SignalVerdict
	evidence map[string][]string
	err      error
}

func (f *fakeEvidence) Retrieve(ctx context.Context, dish string) (*menu.SignalVerdict, []string, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	key := strings.ToLower(dish)
	return f.verdicts[key], f.evidence[key], nil
}

type fakeModel struct {
	mu       sync.Mutex
	verdicts map[string]menu.SignalVerdict
	seen     []string
}

func (f *fakeModel) Classify(ctx context.Context, items []llm.BatchItem) map[string]menu.SignalVerdict {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]menu.SignalVerdict)
	for _, it := range items {
		key := strings.ToLower(it.Name)
		f.seen = append(f.seen, key)
		if v, ok := f.verdicts[key]; ok {
			out[key] = v
		}
	}
	return out
}

type captureObserver struct {
	mu      sync.Mutex
	records []menu.AggregateResult
}

func (c *captureObserver) Record(requestID string, result menu.AggregateResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, result)
}

func kwVerdict(veg bool, conf float64) *menu.SignalVerdict {
	return &menu.SignalVerdict{Layer: menu.LayerKeyword, IsVegetarian: veg, Confidence: conf, Reason: "kw"}
}

func ragVerdict(veg bool, conf float64) *menu.SignalVerdict {
	return &menu.SignalVerdict{Layer: menu.LayerRAG, IsVegetarian: veg, Confidence: conf, Reason: "rag"}
}

func llmVerdict(veg bool, conf float64) menu.SignalVerdict {
	return menu.SignalVerdict{Layer: menu.LayerLLM, IsVegetarian: veg, Confidence: conf, Reason: "llm"}
}

func candidates(names ...string) []menu.DishCandidate {
	out := make([]menu.DishCandidate, len(names))
	for i, n := range names {
		out[i] = menu.DishCandidate{Name: n, Price: 10}
	}
	return out
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// #endregion fakes

// #region short-circuit

func TestKeywordShortCircuitSkipsLaterLayers(t *testing.T) {
	model := &fakeModel{}
	r := NewReconciler(
		&fakeKeyword{verdicts: map[string]*menu.SignalVerdict{"tofu bowl": kwVerdict(true, 0.95)}},
		&fakeEvidence{err: errors.New("index must not be consulted")},
		model,
		nil,
		DefaultConfig(),
	)

	results, err := r.Reconcile(context.Background(), "req-1", candidates("Tofu Bowl"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res := results[0]
	if !res.IsVegetarian || res.Confidence != 0.95 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Method != menu.MethodKeyword {
		t.Fatalf("expected keyword method, got %s", res.Method)
	}
	if len(model.seen) != 0 {
		t.Fatal("model layer must not run after a confident keyword verdict")
	}
	if len(res.FallbackChain) != 1 {
		t.Fatalf("expected chain of 1, got %d", len(res.FallbackChain))
	}
}

func TestRAGShortCircuit(t *testing.T) {
	model := &fakeModel{}
	r := NewReconciler(
		&fakeKeyword{},
		&fakeEvidence{verdicts: map[string]*menu.SignalVerdict{"greek salad": ragVerdict(true, 0.8)}},
		model,
		nil,
		DefaultConfig(),
	)

	results, err := r.Reconcile(context.Background(), "req-2", candidates("Greek Salad"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res := results[0]
	if res.Method != menu.MethodRAG || res.Confidence != 0.8 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(model.seen) != 0 {
		t.Fatal("model layer must not run after a confident retrieval verdict")
	}
}

// #endregion short-circuit

// #region single-layer

func TestSingleLowConfidenceLayerKeepsItsConfidence(t *testing.T) {
	// Only retrieval fires, below threshold: the result carries that
	// layer's own confidence, not a reweighted one.
	r := NewReconciler(
		&fakeKeyword{},
		&fakeEvidence{verdicts: map[string]*menu.SignalVerdict{"mystery": ragVerdict(true, 0.4)}},
		&fakeModel{},
		nil,
		DefaultConfig(),
	)

	results, err := r.Reconcile(context.Background(), "req-3", candidates("Mystery"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res := results[0]
	if !almostEqual(res.Confidence, 0.4) {
		t.Fatalf("expected confidence 0.4, got %v", res.Confidence)
	}
	if res.Method != menu.MethodRAG {
		t.Fatalf("expected rag method, got %s", res.Method)
	}
}

func TestNoLayerFires(t *testing.T) {
	r := NewReconciler(&fakeKeyword{}, &fakeEvidence{}, &fakeModel{}, nil, DefaultConfig())

	results, err := r.Reconcile(context.Background(), "req-4", candidates("Unknowable"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res := results[0]
	if res.Method != menu.MethodUnresolved {
		t.Fatalf("expected unresolved, got %s", res.Method)
	}
	if res.IsVegetarian || res.Confidence != 0 {
		t.Fatalf("unresolved must be non-vegetarian at zero confidence: %+v", res)
	}
}

// #endregion single-layer

// #region combine

func TestCombineAgreeingLayers(t *testing.T) {
	r := NewReconciler(
		&fakeKeyword{verdicts: map[string]*menu.SignalVerdict{"dal": kwVerdict(true, 0.6)}},
		&fakeEvidence{verdicts: map[string]*menu.SignalVerdict{"dal": ragVerdict(true, 0.6)}},
		&fakeModel{verdicts: map[string]menu.SignalVerdict{"dal": llmVerdict(true, 0.6)}},
		nil,
		DefaultConfig(),
	)

	results, err := r.Reconcile(context.Background(), "req-5", candidates("Dal"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res := results[0]
	if res.Method != menu.MethodCombined {
		t.Fatalf("expected combined, got %s", res.Method)
	}
	if !res.IsVegetarian {
		t.Fatal("all layers agree vegetarian")
	}
	// identical confidences combine to the same confidence
	if !almostEqual(res.Confidence, 0.6) {
		t.Fatalf("expected combined confidence 0.6, got %v", res.Confidence)
	}
}

func TestCombineDisagreeingLayers(t *testing.T) {
	// keyword (w 0.4) says non-veg at 0.6; rag and llm (w 0.3 each) say
	// veg at 0.6. p = (0.4*0.2 + 0.3*0.8 + 0.3*0.8) = 0.56, veg at 0.12.
	r := NewReconciler(
		&fakeKeyword{verdicts: map[string]*menu.SignalVerdict{"pad thai": kwVerdict(false, 0.6)}},
		&fakeEvidence{verdicts: map[string]*menu.SignalVerdict{"pad thai": ragVerdict(true, 0.6)}},
		&fakeModel{verdicts: map[string]menu.SignalVerdict{"pad thai": llmVerdict(true, 0.6)}},
		nil,
		DefaultConfig(),
	)

	results, err := r.Reconcile(context.Background(), "req-6", candidates("Pad Thai"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res := results[0]
	if !res.IsVegetarian {
		t.Fatal("weighted majority is vegetarian")
	}
	if !almostEqual(res.Confidence, 0.12) {
		t.Fatalf("expected combined confidence 0.12, got %v", res.Confidence)
	}
}

func TestModelVerdictCombinesWithLowConfidenceRetrieval(t *testing.T) {
	// rag says non-veg at 0.6 (below threshold), the model says veg at
	// 0.9. The model never short-circuits: both flow into combine.
	// p = (0.3*0.2 + 0.3*0.95) / 0.6 = 0.575, veg at 0.15.
	r := NewReconciler(
		&fakeKeyword{},
		&fakeEvidence{verdicts: map[string]*menu.SignalVerdict{"tom yum soup": ragVerdict(false, 0.6)}},
		&fakeModel{verdicts: map[string]menu.SignalVerdict{"tom yum soup": llmVerdict(true, 0.9)}},
		nil,
		DefaultConfig(),
	)

	results, err := r.Reconcile(context.Background(), "req-12", candidates("Tom Yum Soup"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res := results[0]
	if res.Method != menu.MethodCombined {
		t.Fatalf("llm verdict must flow into combine with the rag verdict, got method %s", res.Method)
	}
	if !res.IsVegetarian {
		t.Fatal("weighted mean leans vegetarian")
	}
	if !almostEqual(res.Confidence, 0.15) {
		t.Fatalf("expected combined confidence 0.15, got %v", res.Confidence)
	}
}

func TestConfidentModelVerdictAloneKeepsItsConfidence(t *testing.T) {
	// only the model fires: combine collapses to that verdict exactly
	r := NewReconciler(
		&fakeKeyword{},
		&fakeEvidence{},
		&fakeModel{verdicts: map[string]menu.SignalVerdict{"soup": llmVerdict(false, 0.9)}},
		nil,
		DefaultConfig(),
	)

	results, err := r.Reconcile(context.Background(), "req-13", candidates("Soup"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Method != menu.MethodLLM || !almostEqual(results[0].Confidence, 0.9) {
		t.Fatalf("unexpected result: %+v", results[0])
	}
}

// #endregion combine

// #region resilience

func TestRetrievalFailureIsNonFatal(t *testing.T) {
	r := NewReconciler(
		&fakeKeyword{},
		&fakeEvidence{err: errors.New("index down")},
		&fakeModel{verdicts: map[string]menu.SignalVerdict{"soup": llmVerdict(false, 0.8)}},
		nil,
		DefaultConfig(),
	)

	results, err := r.Reconcile(context.Background(), "req-7", candidates("Soup"))
	if err != nil {
		t.Fatalf("layer failure must not be fatal: %v", err)
	}
	res := results[0]
	if res.Method != menu.MethodLLM {
		t.Fatalf("expected llm method, got %s", res.Method)
	}

	// the failed layer still appears in the chain, unfired with a note
	var ragTrace *menu.LayerTrace
	for i := range res.FallbackChain {
		if res.FallbackChain[i].Layer == menu.LayerRAG {
			ragTrace = &res.FallbackChain[i]
		}
	}
	if ragTrace == nil || ragTrace.Fired || ragTrace.Note == "" {
		t.Fatalf("expected unfired rag trace with note, got %+v", ragTrace)
	}
}

func TestEmptyInputIsAnError(t *testing.T) {
	r := NewReconciler(&fakeKeyword{}, nil, nil, nil, DefaultConfig())
	if _, err := r.Reconcile(context.Background(), "req-8", nil); err == nil {
		t.Fatal("expected an error for empty input")
	}
}

func TestCancelledContextFinalizesWithPartialVerdicts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	model := &fakeModel{verdicts: map[string]menu.SignalVerdict{
		"anything": llmVerdict(true, 0.9),
		"tofu":     llmVerdict(true, 0.9),
	}}
	r := NewReconciler(
		&fakeKeyword{verdicts: map[string]*menu.SignalVerdict{"tofu": kwVerdict(true, 0.95)}},
		&fakeEvidence{},
		model,
		nil,
		DefaultConfig(),
	)

	results, err := r.Reconcile(ctx, "req-9", candidates("Anything", "Tofu"))
	if err != nil {
		t.Fatalf("cancellation must not be a hard request failure: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected every candidate finalized, got %d results", len(results))
	}
	if len(model.seen) != 0 {
		t.Fatal("model phase must be skipped once the request is cancelled")
	}

	// nothing fired for the first candidate before cancellation
	if results[0].Method != menu.MethodUnresolved || results[0].Confidence != 0 {
		t.Fatalf("expected unresolved, got %+v", results[0])
	}
	// the keyword verdict obtained before cancellation still counts
	if results[1].Method != menu.MethodKeyword || results[1].Confidence != 0.95 {
		t.Fatalf("expected keyword verdict kept, got %+v", results[1])
	}
}

// #endregion resilience

// #region ordering

func TestOrderPreserved(t *testing.T) {
	names := []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon", "Zeta"}
	kw := map[string]*menu.SignalVerdict{
		"beta": kwVerdict(true, 0.95),
		"zeta": kwVerdict(false, 0.95),
	}
	model := map[string]menu.SignalVerdict{
		"alpha":   llmVerdict(true, 0.8),
		"gamma":   llmVerdict(false, 0.8),
		"delta":   llmVerdict(true, 0.8),
		"epsilon": llmVerdict(false, 0.8),
	}

	r := NewReconciler(&fakeKeyword{verdicts: kw}, &fakeEvidence{}, &fakeModel{verdicts: model}, nil, DefaultConfig())

	results, err := r.Reconcile(context.Background(), "req-10", candidates(names...))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != len(names) {
		t.Fatalf("expected %d results, got %d", len(names), len(results))
	}
	for i, name := range names {
		if results[i].Candidate.Name != name {
			t.Fatalf("result %d out of order: expected %s, got %s", i, name, results[i].Candidate.Name)
		}
	}
}

func TestObserverSeesEveryResult(t *testing.T) {
	obs := &captureObserver{}
	r := NewReconciler(
		&fakeKeyword{verdicts: map[string]*menu.SignalVerdict{
			"a": kwVerdict(true, 0.95),
			"b": kwVerdict(false, 0.95),
		}},
		nil, nil, obs, DefaultConfig(),
	)

	if _, err := r.Reconcile(context.Background(), "req-11", candidates("A", "B")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(obs.records) != 2 {
		t.Fatalf("expected 2 observed results, got %d", len(obs.records))
	}
}

// #endregion ordering

// #region review-handoff

func TestLowConfidenceVerdictThroughReviewCorrection(t *testing.T) {
	// retrieval alone at 0.4, model yields nothing: the result keeps
	// 0.4, lands below the review threshold, and a human correction
	// lifts it to 1.0 and into the vegetarian total.
	r := NewReconciler(
		&fakeKeyword{},
		&fakeEvidence{verdicts: map[string]*menu.SignalVerdict{"jackfruit curry": ragVerdict(true, 0.4)}},
		&fakeModel{},
		nil,
		DefaultConfig(),
	)

	results, err := r.Reconcile(context.Background(), "req-14", []menu.DishCandidate{
		{Name: "Jackfruit Curry", Price: 13.50},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(results[0].Confidence, 0.4) || results[0].Method != menu.MethodRAG {
		t.Fatalf("unexpected result: %+v", results[0])
	}

	mgr := review.NewManager(nil, review.DefaultConfig())
	session := mgr.Create(results)
	if session.Status != review.StatusPending || len(session.Uncertain) != 1 {
		t.Fatalf("0.4 confidence must need review: %+v", session)
	}
	if session.PartialSum != 0 {
		t.Fatalf("uncertain item must not count toward the partial sum, got %v", session.PartialSum)
	}

	res, err := mgr.ApplyCorrections(session.RequestID, []menu.Correction{
		{Name: "Jackfruit Curry", IsVegetarian: true},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TotalSum != 13.50 || res.Applied != 1 {
		t.Fatalf("correction must lift the item into the total: %+v", res)
	}
	item := res.VegetarianItems[0]
	if item.Confidence != 1.0 || !item.HumanReviewed {
		t.Fatalf("correction not stamped: %+v", item)
	}
}

// #endregion review-handoff
