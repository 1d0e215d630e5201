// Package recovery turns near-JSON model output into schema-valid
// objects via a bounded, deduplicated worklist of text repairs.
package recovery

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mimurillof/chat-agent-service/internal/metrics"
)

// Attempt is one candidate text plus its provenance tag. No two
// attempts in a run share the same text.
type Attempt struct {
	Text   string
	Reason string
}

// Repairer is the optional external best-effort JSON repairer. A nil
// Repairer is fully supported: the pipeline then relies on its own
// derived transforms only.
type Repairer interface {
	Repair(text string) (string, error)
}

// Validator checks a syntactically valid candidate against the target
// schema and returns the typed object.
type Validator interface {
	Validate(data []byte) (any, error)
}

// ErrNoCandidate means the raw text contained no JSON object at all.
var ErrNoCandidate = errors.New("no JSON object found in model output")

// Failure is the pipeline's terminal error: the most recently recorded
// candidate error, plus how many candidates were tried.
type Failure struct {
	Err      error
	Attempts int
}

func (f *Failure) Error() string {
	return fmt.Sprintf("structured output recovery failed after %d candidates: %v", f.Attempts, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// maxCandidates bounds the worklist so a pathological repairer cannot
// spin the search forever.
const maxCandidates = 32

const (
	reasonOriginal      = "original"
	reasonStripFence    = "strip code fence"
	reasonTrailingComma = "remove trailing comma"
	reasonExternal      = "external repair"
)

func reasonBalanceBraces(n int) string { return fmt.Sprintf("balance braces (+%d)", n) }
func reasonTrimBraces(n int) string    { return fmt.Sprintf("trim extra braces (%d)", n) }

// Pipeline is a reusable recovery configuration.
type Pipeline struct {
	validator Validator
	repairer  Repairer
	logger    *slog.Logger
}

// NewPipeline builds a pipeline. repairer may be nil.
func NewPipeline(validator Validator, repairer Repairer, logger *slog.Logger) *Pipeline {
	return &Pipeline{validator: validator, repairer: repairer, logger: logger}
}

// worklist is a FIFO queue with whole-run exact-text deduplication.
type worklist struct {
	queue []Attempt
	seen  map[string]bool
}

func newWorklist() *worklist {
	return &worklist{seen: make(map[string]bool)}
}

func (w *worklist) enqueue(text, reason string) {
	text = strings.TrimSpace(text)
	if text == "" || w.seen[text] {
		return
	}
	w.seen[text] = true
	w.queue = append(w.queue, Attempt{Text: text, Reason: reason})
}

// Recover extracts a JSON candidate from raw text and searches repair
// variants breadth-first until one validates. It returns the typed
// object, the attempts actually popped (in order), and the terminal
// error when nothing validated. The search is deterministic: same
// input, same outcome.
func (p *Pipeline) Recover(raw string) (any, []Attempt, error) {
	candidate, ok := ExtractCandidate(raw)
	if !ok {
		metrics.RecoveryOutcomes.WithLabelValues("no_candidate").Inc()
		return nil, nil, &Failure{Err: ErrNoCandidate}
	}

	wl := newWorklist()
	wl.enqueue(candidate, reasonOriginal)
	if trimmed, ok := trimCodeFence(candidate); ok {
		wl.enqueue(trimmed, reasonStripFence)
	}
	if trimmed, ok := trimTrailingComma(candidate); ok {
		wl.enqueue(trimmed, reasonTrailingComma)
	}
	if balanced, reason, ok := balanceBraces(candidate); ok {
		wl.enqueue(balanced, reason)
	}

	var (
		tried   []Attempt
		lastErr error
	)
	for i := 0; i < len(wl.queue) && i < maxCandidates; i++ {
		attempt := wl.queue[i]
		tried = append(tried, attempt)

		var parsed any
		if err := json.Unmarshal([]byte(attempt.Text), &parsed); err != nil {
			lastErr = err
			p.logger.Debug("candidate failed to parse", "reason", attempt.Reason, "error", err)
			p.deriveFrom(wl, attempt)
			continue
		}

		obj, err := p.validator.Validate([]byte(attempt.Text))
		if err != nil {
			// Syntactically valid but schema-invalid: terminal for this
			// candidate, no derived variants.
			lastErr = err
			p.logger.Debug("candidate failed schema validation", "reason", attempt.Reason, "error", err)
			continue
		}

		if attempt.Reason == reasonOriginal {
			metrics.RecoveryOutcomes.WithLabelValues("clean").Inc()
		} else {
			metrics.RecoveryOutcomes.WithLabelValues("repaired").Inc()
			p.logger.Info("structured output recovered", "reason", attempt.Reason, "candidates", len(tried))
		}
		return obj, tried, nil
	}

	metrics.RecoveryOutcomes.WithLabelValues("failed").Inc()
	return nil, tried, &Failure{Err: lastErr, Attempts: len(tried)}
}

// deriveFrom enqueues repair variants of a syntactically broken
// candidate: the external repairer's output (when present and
// different), then the trailing-comma and brace-balance transforms.
func (p *Pipeline) deriveFrom(wl *worklist, attempt Attempt) {
	if p.repairer != nil {
		repaired, err := p.repairer.Repair(attempt.Text)
		if err != nil {
			p.logger.Debug("external repairer failed", "reason", attempt.Reason, "error", err)
		} else if strings.TrimSpace(repaired) != attempt.Text {
			wl.enqueue(repaired, fmt.Sprintf("%s (%s)", reasonExternal, attempt.Reason))
		}
	}
	if trimmed, ok := trimTrailingComma(attempt.Text); ok {
		wl.enqueue(trimmed, fmt.Sprintf("%s (%s)", reasonTrailingComma, attempt.Reason))
	}
	if balanced, reason, ok := balanceBraces(attempt.Text); ok {
		wl.enqueue(balanced, fmt.Sprintf("%s (%s)", reason, attempt.Reason))
	}
}
