package proctor

import (
	"reflect"
	"testing"

	"github.com/arjunalabs/arjuna-backend/internal/model"
)

func TestTallyWeights(t *testing.T) {
	a := NewAggregator(DefaultPolicy())

	a.Record(model.CheatEvent{Type: model.CheatPhoneDetected, Severity: model.SeverityHigh, TimestampMs: 1000})
	a.Record(model.CheatEvent{Type: model.CheatTabSwitch, Severity: model.SeverityHigh, TimestampMs: 2000})
	a.Record(model.CheatEvent{Type: model.CheatBookDetected, Severity: model.SeverityMedium, TimestampMs: 3000})

	tally := a.Tally()
	if tally.CheatingScore != 8 {
		t.Errorf("CheatingScore = %d, want 8", tally.CheatingScore)
	}
	if tally.Counts[model.CheatPhoneDetected] != 1 {
		t.Errorf("PhoneDetected count = %d, want 1", tally.Counts[model.CheatPhoneDetected])
	}
	if tally.Counts[model.CheatTabSwitch] != 1 {
		t.Errorf("TabSwitch count = %d, want 1", tally.Counts[model.CheatTabSwitch])
	}
}

func TestTallyIdempotent(t *testing.T) {
	a := NewAggregator(DefaultPolicy())
	a.Record(model.CheatEvent{Type: model.CheatNoFaceDetected, Severity: model.SeverityLow, TimestampMs: 10})
	a.Record(model.CheatEvent{Type: model.CheatNoFaceDetected, Severity: model.SeverityLow, TimestampMs: 20})

	first := a.Tally()
	second := a.Tally()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Tally not idempotent: %+v vs %+v", first, second)
	}
	if first.CheatingScore != 2 {
		t.Errorf("CheatingScore = %d, want 2", first.CheatingScore)
	}
}

func TestRecordNoDeduplication(t *testing.T) {
	a := NewAggregator(DefaultPolicy())

	// The same detection repeated across polling intervals is recorded
	// each time.
	ev := model.CheatEvent{Type: model.CheatPhoneDetected, Severity: model.SeverityHigh, Description: "phone in frame"}
	for i := 0; i < 5; i++ {
		ev.TimestampMs = int64(i * 2000)
		a.Record(ev)
	}

	if got := len(a.Events()); got != 5 {
		t.Errorf("event log length = %d, want 5", got)
	}
	if tally := a.Tally(); tally.Counts[model.CheatPhoneDetected] != 5 {
		t.Errorf("PhoneDetected count = %d, want 5", tally.Counts[model.CheatPhoneDetected])
	}
}

func TestEventsReturnsCopy(t *testing.T) {
	a := NewAggregator(DefaultPolicy())
	a.Record(model.CheatEvent{Type: model.CheatTabSwitch, Severity: model.SeverityHigh})

	events := a.Events()
	events[0].Type = model.CheatBookDetected

	if a.Events()[0].Type != model.CheatTabSwitch {
		t.Error("mutating the returned slice must not affect the log")
	}
}

func TestEmptyTally(t *testing.T) {
	a := NewAggregator(DefaultPolicy())
	tally := a.Tally()
	if tally.CheatingScore != 0 || len(tally.Counts) != 0 {
		t.Errorf("empty aggregator tally = %+v, want zero", tally)
	}
}
