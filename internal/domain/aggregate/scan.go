package aggregate

import (
	"errors"
	"strconv"
	"strings"

	"github.com/kailas-cloud/edsanalytics/internal/domain"
)

// Fixed-offset extraction contract for the store's compact summary text:
// the number starts len(field)+fieldOffset characters after the field name
// (skipping `":{"Value":`) and is read as exactly tokenWidth characters.
//
// This is fragile by construction: a whitespace change in the payload, a
// shorter number, or an earlier occurrence of the field name yields a
// ParseError or a wrong figure instead of a structural decode failure.
const (
	fieldOffset = 11
	tokenWidth  = 16
)

var (
	errFieldMissing = errors.New("field not present in payload")
	errShortPayload = errors.New("payload ends before numeric token")
)

// Extract reads the numeric value of field out of a summary payload.
func Extract(payload, field string) (float64, error) {
	idx := strings.Index(payload, field)
	if idx < 0 {
		return 0, &domain.ParseError{Field: field, Err: errFieldMissing}
	}
	start := idx + len(field) + fieldOffset
	end := start + tokenWidth
	if end > len(payload) {
		return 0, &domain.ParseError{Field: field, Err: errShortPayload}
	}
	v, err := strconv.ParseFloat(payload[start:end], 64)
	if err != nil {
		return 0, &domain.ParseError{Field: field, Err: err}
	}
	return v, nil
}

// FromSummary builds a Record from the four statistics found in payload.
func FromSummary(timestamp, payload string) (Record, error) {
	var vals [4]float64
	for i, name := range Fields {
		v, err := Extract(payload, name)
		if err != nil {
			return Record{}, err
		}
		vals[i] = v
	}
	return Record{
		Timestamp: timestamp,
		Mean:      vals[0],
		Minimum:   vals[1],
		Maximum:   vals[2],
		Range:     vals[3],
	}, nil
}
