package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trace(ops ...string) []TraceEvent {
	r := NewResult()
	for _, op := range ops {
		r.AddTrace(TraceEvent{Op: op})
	}
	return r.Trace
}

func TestAssertTraceOrder(t *testing.T) {
	tr := trace(OpEncode, OpRender, OpDecode, OpEncode, OpDecode)

	assert.NoError(t, assertTraceOrder(tr, Assertion{Ops: []string{OpEncode, OpDecode}}))
	assert.NoError(t, assertTraceOrder(tr, Assertion{Ops: []string{OpEncode, OpDecode, OpEncode, OpDecode}}))
	assert.NoError(t, assertTraceOrder(tr, Assertion{Ops: []string{OpRender, OpEncode}}))

	err := assertTraceOrder(tr, Assertion{Ops: []string{OpDecode, OpRender}})
	require.Error(t, err)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertTraceOrder, ae.Type)
	assert.Contains(t, ae.Actual, "missing render")

	err = assertTraceOrder(tr, Assertion{Ops: []string{OpEncode, OpVerify}})
	require.Error(t, err)
}

func TestAssertTraceCount(t *testing.T) {
	tr := trace(OpEncode, OpRender, OpEncode)

	assert.NoError(t, assertTraceCount(tr, Assertion{Op: OpEncode, Count: 2}))
	assert.NoError(t, assertTraceCount(tr, Assertion{Op: OpVerify, Count: 0}))

	err := assertTraceCount(tr, Assertion{Op: OpRender, Count: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 occurrences of render")
	assert.Contains(t, err.Error(), "Actual: 1 occurrences")
}

func TestAssertRoundTrip(t *testing.T) {
	ok := []TraceEvent{
		{Seq: 1, Op: OpEncode, Text: "AB"},
		{Seq: 2, Op: OpDecode, Text: "AB", Decoded: "AB"},
		{Seq: 3, Op: OpRender, Text: "AB", Error: "NO_MATCH"},
	}
	assert.NoError(t, assertRoundTrip(ok))

	bad := append(ok, TraceEvent{Seq: 4, Op: OpDecode, Text: "ab", Decoded: "ba"})
	err := assertRoundTrip(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `step 4 to decode "ab"`)
	assert.Contains(t, err.Error(), "[4] decode")
}

func TestEvaluateAssertions(t *testing.T) {
	r := NewResult()
	r.AddTrace(TraceEvent{Op: OpEncode})

	errs := EvaluateAssertions(r, []Assertion{
		{Type: AssertTraceCount, Op: OpEncode, Count: 1},
		{Type: AssertTraceCount, Op: OpEncode, Count: 3},
		{Type: "bogus"},
	})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "assertion 1")
	assert.Contains(t, errs[1], `unknown assertion type "bogus"`)
}
