package accel

// Tier is the dispatcher's decision of which implementation family serves a
// call. It is computed fresh for every call.
type Tier int

const (
	// FallbackPreferred always uses the fallback path.
	FallbackPreferred Tier = iota
	// Conditional uses the native path only when the input size reaches
	// the learned threshold.
	Conditional
	// HighValue always uses the native path.
	HighValue
)

func (t Tier) String() string {
	switch t {
	case HighValue:
		return "HighValue"
	case Conditional:
		return "Conditional"
	default:
		return "FallbackPreferred"
	}
}

// Profile holds an operation's static, author-declared performance
// expectations. It is independent of the learned threshold and is used for
// documentation and benchmark reports only.
type Profile struct {
	// EstimatedSpeedup is the expected fallback/native time ratio.
	EstimatedSpeedup float64 `json:"estimated_speedup"`
	// EffectiveInputSize is the input size above which the speedup is
	// expected to materialize.
	EffectiveInputSize int `json:"effective_input_size"`
	// MemoryOverheadBytes estimates the extra memory the native path needs
	// per call, zero when unknown.
	MemoryOverheadBytes int `json:"memory_overhead_bytes"`
}
