// Package sample generates and filters timestamped sine-wave samples.
package sample

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// TimestampLayout is the ISO-8601 round-trip layout the store expects for DateTime keys.
const TimestampLayout = "2006-01-02T15:04:05.0000000Z07:00"

// Threshold bounds the band dropped by Filter.
const Threshold = 0.9

// ErrTooFewEvents is returned by Generate for n <= 1.
var ErrTooFewEvents = errors.New("number of events must be an integer greater than 1")

// Record is a single SineWave event.
type Record struct {
	Timestamp string  `json:"Timestamp"`
	Value     float64 `json:"Value"`
}

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses any RFC 3339 timestamp, including TimestampLayout.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// Generate returns n records one second apart starting at start, with value sin(i).
func Generate(start time.Time, n int) ([]Record, error) {
	if n <= 1 {
		return nil, fmt.Errorf("generate %d events: %w", n, ErrTooFewEvents)
	}
	out := make([]Record, n)
	for i := range n {
		out[i] = Record{
			Timestamp: FormatTimestamp(start.Add(time.Duration(i) * time.Second)),
			Value:     math.Sin(float64(i)),
		}
	}
	return out, nil
}

// Filter keeps records whose value lies outside [-Threshold, Threshold].
// The result is never nil so an empty selection still encodes as [].
func Filter(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Value > Threshold || r.Value < -Threshold {
			out = append(out, r)
		}
	}
	return out
}

// Values projects the sample values.
func Values(records []Record) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.Value
	}
	return out
}
