package sds

import (
	"github.com/kailas-cloud/edsanalytics/internal/domain/aggregate"
	"github.com/kailas-cloud/edsanalytics/internal/domain/sample"
	"github.com/kailas-cloud/edsanalytics/internal/domain/schema"
	"github.com/kailas-cloud/edsanalytics/internal/domain/stream"
)

// Wire types re-exported from the domain layer.
type (
	Type      = schema.Type
	Property  = schema.Property
	Stream    = stream.Stream
	Sample    = sample.Record
	Aggregate = aggregate.Record
)
