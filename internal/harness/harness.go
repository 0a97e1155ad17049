package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/latticeglyph/internal/codec"
	"github.com/roach88/latticeglyph/internal/compiler"
	"github.com/roach88/latticeglyph/internal/glyph"
	"github.com/roach88/latticeglyph/internal/lattice"
	"github.com/roach88/latticeglyph/internal/store"
	"github.com/roach88/latticeglyph/internal/testutil"
)

// Error kinds recorded in the trace for failures that are not codec errors.
const (
	KindNotFound       = "NOT_FOUND"
	KindInvalidLattice = "INVALID_LATTICE"
	KindImmutable      = "IMMUTABLE"
	KindConflict       = "CONFLICT"
	KindDigestMismatch = "DIGEST_MISMATCH"
	KindLatticeChanged = "LATTICE_CHANGED"
	KindError          = "ERROR"
)

// Harness is the test execution engine.
// It runs scenario steps against a glyph service with deterministic ids.
type Harness struct {
	svc    *glyph.Service
	logger *slog.Logger

	// last is the most recent successful encoding.
	last *glyph.Encoding
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Lattice ids come from a sequence generator, so traces are reproducible.
//
// Execution flow:
// 1. Create fresh in-memory database and service
// 2. Create the scenario's lattices
// 3. Execute steps, checking expect clauses
// 4. Evaluate assertions and return the result
//
// An error is returned only when the scenario cannot run at all; failed
// expectations are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	h := &Harness{
		svc: glyph.New(st,
			glyph.WithLogger(logger),
			glyph.WithIDGenerator(testutil.NewSequenceGenerator("lattice")),
		),
		logger: logger,
	}

	ctx := context.Background()
	for _, path := range scenario.Lattices {
		l, err := compiler.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load lattice: %w", err)
		}
		if _, err := h.svc.CreateLattice(ctx, l); err != nil {
			return nil, fmt.Errorf("failed to create lattice %s: %w", path, err)
		}
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		ev, err := h.execute(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
		ev = result.AddTrace(ev)
		for _, msg := range checkExpect(ev, step.Expect) {
			result.AddError(fmt.Sprintf("step %d (%s): %s", i, step.Op, msg))
		}
		h.logger.Info("step completed", "step", i, "op", step.Op, "error", ev.Error)
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// execute runs one step. Operation failures are recorded in the event;
// the returned error means the step itself is unusable.
func (h *Harness) execute(ctx context.Context, step Step) (TraceEvent, error) {
	ev := TraceEvent{Op: step.Op}
	ref := step.Lattice
	if ref == "" {
		ref = lattice.DefaultID
	}

	switch step.Op {
	case OpEncode:
		ev.Lattice = ref
		enc, err := h.svc.Encode(ctx, ref, step.Text)
		if err != nil {
			ev.Error = errorKind(err)
			return ev, nil
		}
		h.last = enc
		ev.Lattice, ev.Version = enc.LatticeID, enc.LatticeVersion
		ev.Text = enc.Text
		ev.Digest = enc.Digest
		ev.Kinds = kinds(enc.Path)

	case OpDecode:
		if h.last == nil {
			return ev, errors.New("no encoding to decode")
		}
		ev.Text = h.last.Text
		var text string
		var err error
		if step.Lattice == "" {
			ev.Lattice, ev.Version = h.last.LatticeID, h.last.LatticeVersion
			text, err = h.svc.DecodeEncoding(ctx, h.last)
		} else {
			rev, rerr := h.svc.Lattice(ctx, ref)
			if rerr != nil {
				ev.Lattice, ev.Error = ref, errorKind(rerr)
				return ev, nil
			}
			ev.Lattice, ev.Version = rev.Lattice.ID, rev.Lattice.Version
			text, err = h.svc.DecodePath(ctx, ref, h.last.Path)
		}
		if err != nil {
			ev.Error = errorKind(err)
			return ev, nil
		}
		ev.Decoded = text

	case OpRender:
		ev.Lattice = ref
		rev, err := h.svc.Lattice(ctx, ref)
		if err != nil {
			ev.Error = errorKind(err)
			return ev, nil
		}
		ev.Lattice, ev.Version = rev.Lattice.ID, rev.Lattice.Version
		ev.Text = rev.Lattice.Rules.Normalize(step.Text)

		opts := glyph.DefaultRenderOptions()
		opts.Orientation = step.Orientation
		hits := h.svc.Cache().Stats().Hits
		markup, err := h.svc.GlyphMarkupWith(ctx, ref, step.Text, opts)
		if err != nil {
			ev.Error = errorKind(err)
			return ev, nil
		}
		hit := h.svc.Cache().Stats().Hits > hits
		ev.CacheHit = &hit

		text, err := h.svc.DecodeMarkup(ctx, ref, markup)
		if err != nil {
			ev.Error = errorKind(err)
			return ev, nil
		}
		ev.Decoded = text

	case OpVerify:
		if h.last == nil {
			return ev, errors.New("no encoding to verify")
		}
		ev.Lattice, ev.Version = h.last.LatticeID, h.last.LatticeVersion
		expected := h.last.Digest
		if step.Digest != "" {
			expected = step.Digest
		}
		ok, err := h.svc.VerifyEncoding(h.last.Path, expected)
		if err != nil {
			ev.Error = errorKind(err)
			return ev, nil
		}
		ev.Match = &ok

	case OpCreateLattice:
		l, err := compiler.Load(step.File)
		if err != nil {
			ev.Error = errorKind(err)
			return ev, nil
		}
		id, err := h.svc.CreateLattice(ctx, l)
		if err != nil {
			ev.Error = errorKind(err)
			return ev, nil
		}
		ev.Lattice, ev.Version = id, 1

	case OpUpdateLattice:
		ev.Lattice = step.Lattice
		l, err := compiler.Load(step.File)
		if err != nil {
			ev.Error = errorKind(err)
			return ev, nil
		}
		cur, err := h.svc.Lattice(ctx, step.Lattice)
		if err != nil {
			ev.Error = errorKind(err)
			return ev, nil
		}
		l.ID = cur.Lattice.ID
		rev, err := h.svc.UpdateLattice(ctx, l)
		if err != nil {
			ev.Lattice, ev.Error = cur.Lattice.ID, errorKind(err)
			return ev, nil
		}
		ev.Lattice, ev.Version = rev.Lattice.ID, rev.Lattice.Version

	default:
		return ev, fmt.Errorf("unknown op %q", step.Op)
	}
	return ev, nil
}

func kinds(path codec.Path) []string {
	out := make([]string, len(path))
	for i, k := range path.Kinds() {
		out[i] = string(k)
	}
	return out
}

// errorKind maps an error to the kind recorded in the trace.
func errorKind(err error) string {
	if k := codec.KindOf(err); k != "" {
		return string(k)
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return KindNotFound
	case errors.Is(err, store.ErrImmutable):
		return KindImmutable
	case errors.Is(err, store.ErrExists), errors.Is(err, store.ErrNameTaken):
		return KindConflict
	case errors.Is(err, glyph.ErrDigestMismatch):
		return KindDigestMismatch
	case errors.Is(err, glyph.ErrLatticeChanged):
		return KindLatticeChanged
	case lattice.IsInvalid(err), compiler.IsLoadError(err):
		return KindInvalidLattice
	}
	return KindError
}

// checkExpect compares an event with the step's expect clause and returns
// one message per mismatch.
func checkExpect(ev TraceEvent, exp *Expect) []string {
	if exp == nil {
		if ev.Error != "" {
			return []string{fmt.Sprintf("unexpected error %s", ev.Error)}
		}
		return nil
	}

	var msgs []string
	if exp.Error != ev.Error {
		if exp.Error == "" {
			msgs = append(msgs, fmt.Sprintf("unexpected error %s", ev.Error))
		} else {
			msgs = append(msgs, fmt.Sprintf("error: expected %s, got %q", exp.Error, ev.Error))
		}
	}
	if exp.Kinds != nil && !slices.Equal(exp.Kinds, ev.Kinds) {
		msgs = append(msgs, fmt.Sprintf("kinds: expected %v, got %v", exp.Kinds, ev.Kinds))
	}
	if exp.Text != nil {
		got := ev.Text
		if ev.Op == OpDecode || ev.Op == OpRender {
			got = ev.Decoded
		}
		if *exp.Text != got {
			msgs = append(msgs, fmt.Sprintf("text: expected %q, got %q", *exp.Text, got))
		}
	}
	if exp.Digest != "" && exp.Digest != ev.Digest {
		msgs = append(msgs, fmt.Sprintf("digest: expected %s, got %s", exp.Digest, ev.Digest))
	}
	if exp.Version != 0 && exp.Version != ev.Version {
		msgs = append(msgs, fmt.Sprintf("version: expected %d, got %d", exp.Version, ev.Version))
	}
	if exp.Match != nil && (ev.Match == nil || *ev.Match != *exp.Match) {
		msgs = append(msgs, fmt.Sprintf("match: expected %v, got %v", *exp.Match, deref(ev.Match)))
	}
	if exp.CacheHit != nil && (ev.CacheHit == nil || *ev.CacheHit != *exp.CacheHit) {
		msgs = append(msgs, fmt.Sprintf("cache_hit: expected %v, got %v", *exp.CacheHit, deref(ev.CacheHit)))
	}
	return msgs
}

func deref(b *bool) any {
	if b == nil {
		return "<unset>"
	}
	return *b
}
