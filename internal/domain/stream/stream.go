// Package stream holds the handle of a named, time-indexed record sequence.
package stream

import (
	"fmt"

	"github.com/kailas-cloud/edsanalytics/internal/domain"
)

// Ids of the four demo streams, in teardown order.
const (
	SineWaveID                 = "SineWave"
	FilteredSineWaveID         = "FilteredSineWave"
	CalculatedAggregatedDataID = "CalculatedAggregatedData"
	EdsAPIAggregatedDataID     = "EdsApiAggregatedData"
)

// Stream is a stream handle bound to the id of its type.
type Stream struct {
	ID     string `json:"Id"`
	Name   string `json:"Name"`
	TypeID string `json:"TypeId"`
}

// New validates and creates a Stream handle.
func New(typeID, id, name string) (Stream, error) {
	if id == "" {
		return Stream{}, fmt.Errorf("stream id is required: %w", domain.ErrInvalidSchema)
	}
	if typeID == "" {
		return Stream{}, fmt.Errorf("stream %q: type id is required: %w", id, domain.ErrInvalidSchema)
	}
	if name == "" {
		name = id
	}
	return Stream{ID: id, Name: name, TypeID: typeID}, nil
}
