package aggregate

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/kailas-cloud/edsanalytics/internal/domain"
)

const summaryPayload = `[{"Start":{"Timestamp":"2026-10-18T09:30:00.0000000Z","Value":0},` +
	`"End":{"Timestamp":"2026-10-18T11:10:00.0000000Z","Value":0.5},` +
	`"Summaries":{"Count":{"Value":100},"Minimum":{"Value":-0.9999902065507035},` +
	`"Maximum":{"Value":0.9999118601072672},"Range":{"Value":1.9999020666579707},` +
	`"Total":{"Value":0.37919462744933864},"Mean":{"Value":0.0037919462744933864},` +
	`"StandardDeviation":{"Value":0.7106953270438584}}}]`

func TestCompute(t *testing.T) {
	r, err := Compute("ts", []float64{3, -1, 4, 1, -5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Timestamp != "ts" {
		t.Errorf("timestamp = %q", r.Timestamp)
	}
	if r.Mean != 0.4 {
		t.Errorf("mean = %f, want 0.4", r.Mean)
	}
	if r.Minimum != -5 || r.Maximum != 4 || r.Range != 9 {
		t.Errorf("min/max/range = %f/%f/%f", r.Minimum, r.Maximum, r.Range)
	}
}

func TestCompute_Empty(t *testing.T) {
	if _, err := Compute("ts", nil); !errors.Is(err, ErrEmptySeries) {
		t.Errorf("expected ErrEmptySeries, got %v", err)
	}
}

func TestCompute_OrderingProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for iter := 0; iter < 200; iter++ {
		n := 1 + rng.IntN(300)
		values := make([]float64, n)
		for i := range values {
			values[i] = rng.NormFloat64() * 10
		}

		r, err := Compute("ts", values)
		if err != nil {
			t.Fatalf("iteration %d: %v", iter, err)
		}
		const eps = 1e-9
		if r.Minimum > r.Mean+eps || r.Mean > r.Maximum+eps {
			t.Fatalf("iteration %d: min %f mean %f max %f out of order", iter, r.Minimum, r.Mean, r.Maximum)
		}
		if r.Range != r.Maximum-r.Minimum {
			t.Fatalf("iteration %d: range %f != max-min %f", iter, r.Range, r.Maximum-r.Minimum)
		}
	}
}

func TestExtract(t *testing.T) {
	tests := []struct {
		field string
		want  float64
	}{
		{"Mean", 0.00379194627449},
		{"Minimum", -0.9999902065507},
		{"Maximum", 0.99991186010726},
		{"Range", 1.99990206665797},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			got, err := Extract(summaryPayload, tt.field)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if got != tt.want {
				t.Errorf("Extract(%s) = %v, want %v", tt.field, got, tt.want)
			}
		})
	}
}

func TestExtract_Missing(t *testing.T) {
	_, err := Extract(`{"Summaries":{}}`, "Mean")
	var parseErr *domain.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.Field != "Mean" {
		t.Errorf("field = %q", parseErr.Field)
	}
}

func TestExtract_ShortPayload(t *testing.T) {
	_, err := Extract(`{"Mean":{"Value":0.5}}`, "Mean")
	var parseErr *domain.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestExtract_FormattingChangeBreaksParse(t *testing.T) {
	// Whitespace shifts the token off the fixed offset.
	spaced := `{"Mean": {"Value": 0.0037919462744933864}, "Padding": "xxxxxxxxxxxxxxxx"}`
	_, err := Extract(spaced, "Mean")
	var parseErr *domain.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError for shifted token, got %v", err)
	}
}

func TestFromSummary(t *testing.T) {
	r, err := FromSummary("2026-10-18T09:30:00.0000000Z", summaryPayload)
	if err != nil {
		t.Fatalf("FromSummary: %v", err)
	}
	if r.Timestamp != "2026-10-18T09:30:00.0000000Z" {
		t.Errorf("timestamp = %q", r.Timestamp)
	}
	if math.Abs(r.Range-(r.Maximum-r.Minimum)) > 1e-12 {
		t.Errorf("range %v inconsistent with max-min %v", r.Range, r.Maximum-r.Minimum)
	}
}

func TestCompare(t *testing.T) {
	local := Record{Mean: 0.0037919462744933864, Minimum: -0.9999902065507035, Maximum: 0.9999118601072672, Range: 1.9999020666579707}
	remote, err := FromSummary("", summaryPayload)
	if err != nil {
		t.Fatalf("FromSummary: %v", err)
	}
	if diffs := Compare(local, remote, 1e-9); len(diffs) != 0 {
		t.Errorf("expected truncated remote figures to reconcile, got %v", diffs)
	}

	remote.Maximum = 0.5
	diffs := Compare(local, remote, 1e-9)
	if len(diffs) != 1 {
		t.Fatalf("expected 1 discrepancy, got %v", diffs)
	}
}

func TestRecord_Field(t *testing.T) {
	r := Record{Mean: 1, Minimum: 2, Maximum: 3, Range: 4}
	for i, name := range Fields {
		v, err := r.Field(name)
		if err != nil {
			t.Fatalf("Field(%s): %v", name, err)
		}
		if v != float64(i+1) {
			t.Errorf("Field(%s) = %v", name, v)
		}
	}
	if _, err := r.Field("Median"); err == nil {
		t.Error("expected error for unknown field")
	}
}
