package sample

import (
	"errors"
	"math"
	"testing"
	"time"
)

var fixedStart = time.Date(2026, 10, 18, 9, 30, 0, 123456700, time.UTC)

func TestGenerate_SpacingAndBounds(t *testing.T) {
	for _, n := range []int{2, 3, 17, 100, 1000} {
		records, err := Generate(fixedStart, n)
		if err != nil {
			t.Fatalf("Generate(%d): %v", n, err)
		}
		if len(records) != n {
			t.Fatalf("Generate(%d) returned %d records", n, len(records))
		}

		var prev time.Time
		for i, r := range records {
			ts, err := ParseTimestamp(r.Timestamp)
			if err != nil {
				t.Fatalf("record %d: %v", i, err)
			}
			if i > 0 && ts.Sub(prev) != time.Second {
				t.Fatalf("record %d: gap %v, want 1s", i, ts.Sub(prev))
			}
			prev = ts
			if r.Value < -1 || r.Value > 1 {
				t.Fatalf("record %d: value %f out of [-1, 1]", i, r.Value)
			}
			if r.Value != math.Sin(float64(i)) {
				t.Fatalf("record %d: value %f, want sin(%d)", i, r.Value, i)
			}
		}
	}
}

func TestGenerate_StartsAtCaptureInstant(t *testing.T) {
	records, err := Generate(fixedStart, 2)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if records[0].Timestamp != "2026-10-18T09:30:00.1234567Z" {
		t.Errorf("first timestamp = %q", records[0].Timestamp)
	}
	if records[1].Timestamp != "2026-10-18T09:30:01.1234567Z" {
		t.Errorf("second timestamp = %q", records[1].Timestamp)
	}
}

func TestGenerate_TooFew(t *testing.T) {
	for _, n := range []int{-1, 0, 1} {
		if _, err := Generate(fixedStart, n); !errors.Is(err, ErrTooFewEvents) {
			t.Errorf("Generate(%d): expected ErrTooFewEvents, got %v", n, err)
		}
	}
}

func TestFilter_HundredEvents(t *testing.T) {
	records, err := Generate(fixedStart, 100)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	filtered := Filter(records)
	if len(filtered) != 30 {
		t.Fatalf("expected 30 records with |sin(i)| > 0.9, got %d", len(filtered))
	}
	for _, r := range filtered {
		if r.Value <= 0.9 && r.Value >= -0.9 {
			t.Errorf("value %f should have been dropped", r.Value)
		}
	}
	if filtered[0].Value != math.Sin(2) {
		t.Errorf("first kept value = %f, want sin(2)", filtered[0].Value)
	}
}

func TestFilter_Idempotent(t *testing.T) {
	records, _ := Generate(fixedStart, 250)
	once := Filter(records)
	twice := Filter(once)

	if len(once) != len(twice) {
		t.Fatalf("filter not idempotent: %d then %d", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Fatalf("record %d changed: %+v -> %+v", i, once[i], twice[i])
		}
	}
}

func TestFilter_OrderPreserved(t *testing.T) {
	records, _ := Generate(fixedStart, 100)
	filtered := Filter(records)
	for i := 1; i < len(filtered); i++ {
		if filtered[i].Timestamp <= filtered[i-1].Timestamp {
			t.Fatalf("order broken at %d", i)
		}
	}
}

func TestFilter_EmptyIsNotNil(t *testing.T) {
	got := Filter([]Record{{Timestamp: "a", Value: 0.5}, {Timestamp: "b", Value: -0.9}})
	if got == nil {
		t.Fatal("expected non-nil empty slice")
	}
	if len(got) != 0 {
		t.Errorf("expected no records, got %d", len(got))
	}
}

func TestValues(t *testing.T) {
	got := Values([]Record{{Value: 1}, {Value: -2}})
	if len(got) != 2 || got[0] != 1 || got[1] != -2 {
		t.Errorf("Values = %v", got)
	}
}
