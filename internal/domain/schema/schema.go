// Package schema describes record types registered with the store.
package schema

import (
	"fmt"

	"github.com/kailas-cloud/edsanalytics/internal/domain"
)

// TypeCode is the store's numeric type identifier.
type TypeCode int

// Type codes used by the demo.
const (
	Object   TypeCode = 1
	Double   TypeCode = 14
	DateTime TypeCode = 16
)

// Ids of the two demo types.
const (
	SineWaveID       = "SineWave"
	AggregatedDataID = "AggregatedData"
)

// Type is a record schema. The nested scalar descriptor of a Property only carries Name and TypeCode.
type Type struct {
	ID          string     `json:"Id,omitempty"`
	Name        string     `json:"Name"`
	Description string     `json:"Description,omitempty"`
	TypeCode    TypeCode   `json:"SdsTypeCode"`
	Properties  []Property `json:"Properties,omitempty"`
}

// Property is a single field of a Type.
type Property struct {
	ID          string `json:"Id"`
	Name        string `json:"Name"`
	Description string `json:"Description,omitempty"`
	IsKey       bool   `json:"IsKey"`
	Type        *Type  `json:"SdsType"`
}

// Timestamp returns the DateTime key property shared by both demo types.
func Timestamp() Property {
	return Property{
		ID:    "Timestamp",
		Name:  "Timestamp",
		IsKey: true,
		Type:  &Type{Name: "DateTime", TypeCode: DateTime},
	}
}

// DoubleProperty returns a Double property whose id and name are both idAndName.
func DoubleProperty(idAndName string, isKey bool) Property {
	return Property{
		ID:    idAndName,
		Name:  idAndName,
		IsKey: isKey,
		Type:  &Type{Name: "Double", TypeCode: Double},
	}
}

// SineWave is the schema of a single timestamped sample.
func SineWave() Type {
	return Type{
		ID:       SineWaveID,
		Name:     SineWaveID,
		TypeCode: Object,
		Properties: []Property{
			Timestamp(),
			DoubleProperty("Value", false),
		},
	}
}

// AggregatedData is the schema of a timestamped mean/min/max/range record.
func AggregatedData() Type {
	return Type{
		ID:       AggregatedDataID,
		Name:     AggregatedDataID,
		TypeCode: Object,
		Properties: []Property{
			Timestamp(),
			DoubleProperty("Mean", false),
			DoubleProperty("Minimum", false),
			DoubleProperty("Maximum", false),
			DoubleProperty("Range", false),
		},
	}
}

// Validate checks that the type has an id and exactly one key property.
func Validate(t Type) error {
	if t.ID == "" {
		return fmt.Errorf("type id is required: %w", domain.ErrInvalidSchema)
	}
	keys := 0
	seen := make(map[string]bool, len(t.Properties))
	for _, p := range t.Properties {
		if p.ID == "" {
			return fmt.Errorf("type %q: property id is required: %w", t.ID, domain.ErrInvalidSchema)
		}
		if seen[p.ID] {
			return fmt.Errorf("type %q: duplicate property %q: %w", t.ID, p.ID, domain.ErrInvalidSchema)
		}
		seen[p.ID] = true
		if p.IsKey {
			keys++
		}
	}
	if keys != 1 {
		return fmt.Errorf("type %q: want exactly one key property, got %d: %w", t.ID, keys, domain.ErrInvalidSchema)
	}
	return nil
}

// Key returns the id of the key property, or "" if there is none.
func (t Type) Key() string {
	for _, p := range t.Properties {
		if p.IsKey {
			return p.ID
		}
	}
	return ""
}

// Equal reports whether two definitions describe the same schema.
func (t Type) Equal(o Type) bool {
	if t.ID != o.ID || t.Name != o.Name || t.TypeCode != o.TypeCode || len(t.Properties) != len(o.Properties) {
		return false
	}
	for i, p := range t.Properties {
		q := o.Properties[i]
		if p.ID != q.ID || p.IsKey != q.IsKey {
			return false
		}
		if (p.Type == nil) != (q.Type == nil) {
			return false
		}
		if p.Type != nil && (p.Type.Name != q.Type.Name || p.Type.TypeCode != q.Type.TypeCode) {
			return false
		}
	}
	return true
}
