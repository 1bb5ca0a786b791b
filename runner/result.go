package runner

import (
	"sync"
	"time"
)

// Result accumulates feature outcomes during suite execution.
type Result struct {
	mu sync.RWMutex

	StartTime time.Time
	EndTime   time.Time

	Total  int
	Passed int
	Failed int
	Errors int

	// Features indexed by "suite::feature".
	Features map[string]*FeatureResult

	// Order preserves insertion order for display.
	Order []string

	// Fatal holds a run-level error that prevented feature execution,
	// such as a failed navigation to the base URL.
	Fatal error
}

// NewResult creates an initialized Result.
func NewResult() *Result {
	return &Result{
		StartTime: time.Now(),
		Features:  make(map[string]*FeatureResult),
	}
}

// Add records a terminal event in the result.
func (r *Result) Add(event Event) {
	if !event.Action.IsTerminal() {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := event.ID()

	fr := &FeatureResult{
		Suite:    event.Suite,
		Feature:  event.Feature,
		Status:   event.Action,
		Elapsed:  event.Elapsed,
		Failures: event.Failures,
		Errors:   event.Errors,
		Err:      event.Err,
	}

	r.Features[id] = fr
	r.Order = append(r.Order, id)
	r.Total++

	switch event.Action {
	case ActionPass:
		r.Passed++
	case ActionFail:
		r.Failed++
	case ActionError:
		r.Errors++
	case ActionRun:
		// Not terminal
	}
}

// SetFatal records a run-level error.
func (r *Result) SetFatal(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Fatal = err
}

// Finish marks the result as complete.
func (r *Result) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.EndTime = time.Now()
}

// Elapsed returns the total execution time.
func (r *Result) Elapsed() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.EndTime.IsZero() {
		return time.Since(r.StartTime)
	}

	return r.EndTime.Sub(r.StartTime)
}

// Ok returns true if every feature passed and no run-level error occurred.
// Overall suite success is the conjunction of per-feature successes.
func (r *Result) Ok() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.Fatal == nil && r.Failed == 0 && r.Errors == 0
}

// FailedFeatures returns all failed feature results in insertion order.
func (r *Result) FailedFeatures() []*FeatureResult {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var failed []*FeatureResult

	for _, id := range r.Order {
		fr := r.Features[id]
		if fr.Status == ActionFail || fr.Status == ActionError {
			failed = append(failed, fr)
		}
	}

	return failed
}

// Merge folds another result into this one, preserving order.
func (r *Result) Merge(other *Result) {
	other.mu.RLock()
	defer other.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range other.Order {
		r.Features[id] = other.Features[id]
		r.Order = append(r.Order, id)
	}

	r.Total += other.Total
	r.Passed += other.Passed
	r.Failed += other.Failed
	r.Errors += other.Errors

	if r.Fatal == nil {
		r.Fatal = other.Fatal
	}

	if other.EndTime.After(r.EndTime) {
		r.EndTime = other.EndTime
	}
}

// FeatureResult holds the outcome of a single feature.
type FeatureResult struct {
	Suite    string
	Feature  string
	Status   Action
	Elapsed  time.Duration
	Failures []string
	Errors   []string
	Err      error
}
