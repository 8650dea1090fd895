package menu

// #region layer

// Layer identifies one independent classification signal.
type Layer string

const (
	LayerKeyword Layer = "keyword"
	LayerRAG     Layer = "rag"
	LayerLLM     Layer = "llm"
)

// #endregion

// #region method

// Method records which path produced the final verdict for a candidate.
type Method string

const (
	MethodKeyword    Method = "keyword"
	MethodRAG        Method = "rag"
	MethodLLM        Method = "llm"
	MethodCombined   Method = "combined"
	MethodUnresolved Method = "unresolved"
)

// #endregion

// #region dish-candidate

// DishCandidate is one parsed menu line awaiting classification.
// Produced by the upstream parser; immutable.
type DishCandidate struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	SourceImage int     `json:"source_image"`
	RawText     string  `json:"raw_text,omitempty"`
}

// #endregion

// #region signal-verdict

// SignalVerdict is the output of exactly one layer for one candidate.
// A nil *SignalVerdict means the layer produced no verdict (skipped,
// not a low-confidence guess).
type SignalVerdict struct {
	Layer        Layer
	IsVegetarian bool
	Confidence   float64 // always in [0, 1]
	Reason       string
	Evidence     []string
}

// #endregion

// #region layer-trace

// LayerTrace is one entry in a candidate's fallback chain: a layer that
// was actually invoked, in invocation order. Fired is false when the
// layer ran but yielded no verdict (Note carries the failure reason).
type LayerTrace struct {
	Layer        Layer   `json:"layer"`
	Fired        bool    `json:"fired"`
	IsVegetarian bool    `json:"is_vegetarian"`
	Confidence   float64 `json:"confidence"`
	Note         string  `json:"note,omitempty"`
}

// #endregion

// #region aggregate-result

// AggregateResult is the reconciler's final verdict for one candidate.
// Immutable once emitted; consumed by the review session.
type AggregateResult struct {
	Candidate     DishCandidate
	IsVegetarian  bool
	Confidence    float64 // always in [0, 1]
	Method        Method
	FallbackChain []LayerTrace
	Reason        string
	Evidence      []string
	HumanReviewed bool
}

// #endregion

// #region correction

// Correction is a single human override for an uncertain item,
// keyed by dish name.
type Correction struct {
	Name         string `json:"name"`
	IsVegetarian bool   `json:"is_vegetarian"`
}

// #endregion
