package recovery

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pairValidator accepts objects with numeric fields "a" and "b".
type pairValidator struct{}

func (pairValidator) Validate(data []byte) (any, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	for _, k := range []string{"a", "b"} {
		v, ok := m[k]
		if !ok {
			return nil, fmt.Errorf("missing required field: %s", k)
		}
		if _, ok := v.(float64); !ok {
			return nil, fmt.Errorf("field %s must be a number", k)
		}
	}
	return m, nil
}

func newTestPipeline(r Repairer) *Pipeline {
	return NewPipeline(pairValidator{}, r, slog.Default())
}

func TestRecoverCleanJSON(t *testing.T) {
	obj, tried, err := newTestPipeline(nil).Recover(`{"a": 1, "b": 2}`)
	require.NoError(t, err)
	require.Len(t, tried, 1)
	assert.Equal(t, "original", tried[0].Reason)
	assert.Equal(t, float64(1), obj.(map[string]any)["a"])
}

func TestRecoverFencedJSON(t *testing.T) {
	raw := "Here is the report:\n```json\n{\"a\": 1, \"b\": 2}\n```\nDone."
	obj, _, err := newTestPipeline(nil).Recover(raw)
	require.NoError(t, err)
	assert.Equal(t, float64(2), obj.(map[string]any)["b"])
}

func TestRecoverTrailingComma(t *testing.T) {
	obj, tried, err := newTestPipeline(nil).Recover(`{"a": 1, "b": 2,}`)
	require.NoError(t, err)
	require.NotNil(t, obj)

	// The winning candidate must carry the trailing-comma provenance.
	last := tried[len(tried)-1]
	assert.Contains(t, last.Reason, "remove trailing comma")
}

func TestRecoverUnbalancedBraces(t *testing.T) {
	// Two unmatched opens; brace balancing appends "}}" but the object
	// is still schema-invalid, so the terminal error is the schema
	// error, not a syntax error.
	_, tried, err := newTestPipeline(nil).Recover(`{"a": 1, "c": {`)
	require.Error(t, err)
	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Contains(t, failure.Err.Error(), "missing required field")
	assert.NotEmpty(t, tried)
}

func TestRecoverNoBraces(t *testing.T) {
	repairer := &countingRepairer{}
	_, tried, err := newTestPipeline(repairer).Recover("there is no JSON here at all")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoCandidate)
	assert.Empty(t, tried)
	assert.Zero(t, repairer.calls, "repairer must not run when extraction fails")
}

func TestRecoverDeduplicates(t *testing.T) {
	_, tried, _ := newTestPipeline(nil).Recover(`{"a": oops,}`)
	seen := make(map[string]bool)
	for _, a := range tried {
		assert.False(t, seen[a.Text], "duplicate candidate text: %q", a.Text)
		seen[a.Text] = true
	}
}

func TestRecoverIdempotent(t *testing.T) {
	raw := `{"a": 1, "b": {`
	p := newTestPipeline(nil)

	_, tried1, err1 := p.Recover(raw)
	_, tried2, err2 := p.Recover(raw)
	assert.Equal(t, tried1, tried2)
	assert.Equal(t, err1.Error(), err2.Error())
}

// countingRepairer returns a slightly different broken text each call,
// simulating a repairer prone to non-termination.
type countingRepairer struct{ calls int }

func (c *countingRepairer) Repair(text string) (string, error) {
	c.calls++
	return text + fmt.Sprintf(" /*%d*/", c.calls), nil
}

func TestRecoverBoundedWithHostileRepairer(t *testing.T) {
	repairer := &countingRepairer{}
	_, tried, err := newTestPipeline(repairer).Recover(`{"a": broken`)
	require.Error(t, err)
	assert.LessOrEqual(t, len(tried), maxCandidates)
	assert.LessOrEqual(t, repairer.calls, maxCandidates)
}

type fixingRepairer struct{}

func (fixingRepairer) Repair(string) (string, error) {
	return `{"a": 5, "b": 6}`, nil
}

func TestRecoverViaExternalRepairer(t *testing.T) {
	obj, tried, err := newTestPipeline(fixingRepairer{}).Recover(`{"a": 5, "b": 6 oops`)
	require.NoError(t, err)
	assert.Equal(t, float64(5), obj.(map[string]any)["a"])
	last := tried[len(tried)-1]
	assert.Contains(t, last.Reason, "external repair")
}

func TestExtractCandidate(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{`prefix {"a": 1} suffix`, `{"a": 1}`, true},
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`, true},
		{`{"a": 1`, `{"a": 1`, true},
		{`no braces`, ``, false},
		{``, ``, false},
	}
	for _, tt := range tests {
		got, ok := ExtractCandidate(tt.raw)
		assert.Equal(t, tt.ok, ok, "raw=%q", tt.raw)
		assert.Equal(t, tt.want, got, "raw=%q", tt.raw)
	}
}
