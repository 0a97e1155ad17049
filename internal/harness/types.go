package harness

import (
	"github.com/roach88/latticeglyph/internal/ir"
)

// TraceEvent records the outcome of one step.
//
// Text is the normalized input (encode, render) or the text the decoded
// encoding was made from (decode). Decoded is what came back.
type TraceEvent struct {
	Seq      int64    `json:"seq"`
	Op       string   `json:"op"`
	Lattice  string   `json:"lattice,omitempty"`
	Version  int64    `json:"version,omitempty"`
	Text     string   `json:"text,omitempty"`
	Decoded  string   `json:"decoded,omitempty"`
	Kinds    []string `json:"kinds,omitempty"`
	Digest   string   `json:"digest,omitempty"`
	Match    *bool    `json:"match,omitempty"`
	CacheHit *bool    `json:"cache_hit,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// Value converts the event to an IR object for canonical serialization.
// Unset fields are omitted.
func (e TraceEvent) Value() ir.IRObject {
	obj := ir.IRObject{
		"seq": ir.IRInt(e.Seq),
		"op":  ir.IRString(e.Op),
	}
	putString(obj, "lattice", e.Lattice)
	putString(obj, "text", e.Text)
	putString(obj, "decoded", e.Decoded)
	putString(obj, "digest", e.Digest)
	putString(obj, "error", e.Error)
	if e.Version != 0 {
		obj["version"] = ir.IRInt(e.Version)
	}
	if e.Kinds != nil {
		kinds := make(ir.IRArray, len(e.Kinds))
		for i, k := range e.Kinds {
			kinds[i] = ir.IRString(k)
		}
		obj["kinds"] = kinds
	}
	if e.Match != nil {
		obj["match"] = ir.IRBool(*e.Match)
	}
	if e.CacheHit != nil {
		obj["cache_hit"] = ir.IRBool(*e.CacheHit)
	}
	return obj
}

func putString(obj ir.IRObject, key, value string) {
	if value != "" {
		obj[key] = ir.IRString(value)
	}
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace contains one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event and assigns its sequence number.
func (r *Result) AddTrace(ev TraceEvent) TraceEvent {
	ev.Seq = int64(len(r.Trace) + 1)
	r.Trace = append(r.Trace, ev)
	return ev
}

// Ops returns the operation of every trace event, in order.
func (r *Result) Ops() []string {
	ops := make([]string, len(r.Trace))
	for i, ev := range r.Trace {
		ops[i] = ev.Op
	}
	return ops
}
