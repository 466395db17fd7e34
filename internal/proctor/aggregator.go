package proctor

import (
	"github.com/arjunalabs/arjuna-backend/internal/model"
)

// Policy maps severities to score weights. The production weights are
// inferred from observed behavior and deliberately tunable.
type Policy struct {
	Weights map[model.Severity]int
}

// DefaultPolicy returns the production weighting: high=3, medium=2, low=1.
func DefaultPolicy() Policy {
	return Policy{
		Weights: map[model.Severity]int{
			model.SeverityLow:    1,
			model.SeverityMedium: 2,
			model.SeverityHigh:   3,
		},
	}
}

// Aggregator accumulates proctoring observations for one session into an
// ordered log and derives tallies on demand. How observations are produced
// (camera inference, visibility API) is the producer's concern; the
// aggregator only sees typed events.
//
// Like the session engine, an Aggregator is single-writer: the owning
// service serializes access per session.
type Aggregator struct {
	policy Policy
	events []model.CheatEvent
}

// NewAggregator creates an empty Aggregator.
func NewAggregator(policy Policy) *Aggregator {
	return &Aggregator{policy: policy}
}

// Record appends an event unconditionally. Repeated detections of the same
// object across polling intervals are each recorded: persistence of a
// violation over time is itself signal.
func (a *Aggregator) Record(ev model.CheatEvent) {
	a.events = append(a.events, ev)
}

// Events returns the ordered event log. The returned slice is a copy.
func (a *Aggregator) Events() []model.CheatEvent {
	out := make([]model.CheatEvent, len(a.events))
	copy(out, a.events)
	return out
}

// Tally derives per-type counts and the weighted cheating score. It is a
// pure function of the log: repeated calls without intervening Record calls
// return identical results.
func (a *Aggregator) Tally() model.CheatTally {
	t := model.CheatTally{Counts: make(map[model.CheatEventType]int)}
	for _, ev := range a.events {
		t.Counts[ev.Type]++
		t.CheatingScore += a.policy.Weights[ev.Severity]
	}
	return t
}
