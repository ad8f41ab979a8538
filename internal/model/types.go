package model

import "math"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Trace is one completed model execution: every variable, derived term and
// result mapped to its value. Traces are immutable once produced.
type Trace struct {
	VersionedRecord
	Values        map[string]float64 `json:"values"`
	Accepted      bool               `json:"accepted"`
	LogPrior      float64            `json:"log_prior,omitempty"`
	LogLikelihood float64            `json:"log_likelihood,omitempty"`
	RejectCause   string             `json:"reject_cause,omitempty"`
}

// LogPosterior is the unnormalized log posterior of the assignment. A trace
// rejected by a hard condition or an out-of-support value reports -Inf.
func (t Trace) LogPosterior() float64 {
	if !t.Accepted {
		return math.Inf(-1)
	}
	return t.LogPrior + t.LogLikelihood
}

// Stop reasons reported by inference strategies.
const (
	StopReasonNormal            = "normal"
	StopReasonCancelled         = "cancelled"
	StopReasonAttemptsExhausted = "attempts-exhausted"
)

// TraceCollection is the ordered output of one inference run. Only accepted
// traces are collected; insertion order is sample order.
type TraceCollection struct {
	VersionedRecord
	Strategy   string  `json:"strategy"`
	Traces     []Trace `json:"traces"`
	Proposed   int     `json:"proposed"`
	Accepted   int     `json:"accepted"`
	StopReason string  `json:"stop_reason"`
}

// AcceptanceRatio is accepted proposals over total proposals.
func (c TraceCollection) AcceptanceRatio() float64 {
	if c.Proposed == 0 {
		return 0
	}
	return float64(c.Accepted) / float64(c.Proposed)
}

// Series extracts the named value from every collected trace, in sample
// order. Names absent from a trace are skipped.
func (c TraceCollection) Series(name string) []float64 {
	out := make([]float64, 0, len(c.Traces))
	for _, t := range c.Traces {
		if v, ok := t.Values[name]; ok {
			out = append(out, v)
		}
	}
	return out
}

// RunRecord describes one persisted inference run.
type RunRecord struct {
	VersionedRecord
	RunID           string    `json:"run_id"`
	Model           string    `json:"model"`
	Strategy        string    `json:"strategy"`
	Seed            int64     `json:"seed"`
	Samples         int       `json:"samples"`
	MaxAttempts     int       `json:"max_attempts,omitempty"`
	BurnIn          int       `json:"burn_in,omitempty"`
	Thin            int       `json:"thin,omitempty"`
	Steps           []float64 `json:"steps,omitempty"`
	Collected       int       `json:"collected"`
	AcceptanceRatio float64   `json:"acceptance_ratio"`
	StopReason      string    `json:"stop_reason"`
	CreatedAtUTC    string    `json:"created_at_utc"`
}

// VariableSummary aggregates one traced variable across a run.
type VariableSummary struct {
	Name        string    `json:"name"`
	Count       int       `json:"count"`
	Mean        float64   `json:"mean"`
	StdDev      float64   `json:"std_dev"`
	Min         float64   `json:"min"`
	Max         float64   `json:"max"`
	Quantiles   []float64 `json:"quantiles,omitempty"`
	AutocorrLag float64   `json:"autocorr_lag1"`
}

// RunDiagnostics is the strategy-independent diagnostic block for a run.
type RunDiagnostics struct {
	VersionedRecord
	RunID           string            `json:"run_id"`
	Proposed        int               `json:"proposed"`
	Accepted        int               `json:"accepted"`
	AcceptanceRatio float64           `json:"acceptance_ratio"`
	StopReason      string            `json:"stop_reason"`
	Variables       []VariableSummary `json:"variables,omitempty"`
}

// ModelSummary describes a registered model.
type ModelSummary struct {
	VersionedRecord
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Latents     []string `json:"latents"`
	Results     []string `json:"results,omitempty"`
}
