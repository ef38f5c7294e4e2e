package ir

// Outcome status values recorded for each visited pipeline node.
const (
	StatusCompleted = "completed"
	StatusFallback  = "fallback"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// Derivation records one parameter value written by a strategy.
type Derivation struct {
	ID        string  `json:"id"`
	Seq       int64   `json:"seq"`
	Process   string  `json:"process"`
	Parameter string  `json:"parameter"`
	Value     IRValue `json:"value"`
}

// Outcome records how completion of one pipeline node ended.
// Error and FallbackError are empty unless the node failed.
type Outcome struct {
	Seq           int64  `json:"seq"`
	Node          string `json:"node"`
	Status        string `json:"status"`
	Error         string `json:"error,omitempty"`
	FallbackError string `json:"fallback_error,omitempty"`
}

// Run is one persisted top-level completion.
type Run struct {
	ID            string       `json:"id"`
	StudyPath     string       `json:"study_path"`
	PipelinePath  string       `json:"pipeline_path"`
	Name          string       `json:"name,omitempty"`
	Attributes    IRObject     `json:"attributes"`
	Parameters    IRObject     `json:"parameters"`
	TraceHash     string       `json:"trace_hash"`
	EngineVersion string       `json:"engine_version"`
	CreatedAt     string       `json:"created_at"`
	Derivations   []Derivation `json:"derivations"`
	Outcomes      []Outcome    `json:"outcomes"`
}
