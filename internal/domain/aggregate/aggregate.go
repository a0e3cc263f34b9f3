// Package aggregate computes mean/min/max/range statistics over sample values.
package aggregate

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrEmptySeries is returned when statistics are requested over no values.
var ErrEmptySeries = errors.New("cannot aggregate an empty series")

// Fields lists the statistic names in wire order.
var Fields = []string{"Mean", "Minimum", "Maximum", "Range"}

// Record is a single AggregatedData event.
type Record struct {
	Timestamp string  `json:"Timestamp"`
	Mean      float64 `json:"Mean"`
	Minimum   float64 `json:"Minimum"`
	Maximum   float64 `json:"Maximum"`
	Range     float64 `json:"Range"`
}

// Compute reduces values into a Record stamped with timestamp.
func Compute(timestamp string, values []float64) (Record, error) {
	if len(values) == 0 {
		return Record{}, ErrEmptySeries
	}
	lo, hi := floats.Min(values), floats.Max(values)
	return Record{
		Timestamp: timestamp,
		Mean:      stat.Mean(values, nil),
		Minimum:   lo,
		Maximum:   hi,
		Range:     hi - lo,
	}, nil
}

// Field returns the statistic named name.
func (r Record) Field(name string) (float64, error) {
	switch name {
	case "Mean":
		return r.Mean, nil
	case "Minimum":
		return r.Minimum, nil
	case "Maximum":
		return r.Maximum, nil
	case "Range":
		return r.Range, nil
	default:
		return 0, fmt.Errorf("unknown aggregate field %q", name)
	}
}

// Compare returns a description of every field where local and remote differ by more than tol.
func Compare(local, remote Record, tol float64) []string {
	var diffs []string
	for _, name := range Fields {
		l, _ := local.Field(name)
		r, _ := remote.Field(name)
		if math.Abs(l-r) > tol || math.IsNaN(l) != math.IsNaN(r) {
			diffs = append(diffs, fmt.Sprintf("%s: local=%g remote=%g", name, l, r))
		}
	}
	return diffs
}
