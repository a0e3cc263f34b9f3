package pipeline

import (
	"context"

	"github.com/kailas-cloud/edsanalytics/internal/domain/aggregate"
	"github.com/kailas-cloud/edsanalytics/internal/domain/sample"
	"github.com/kailas-cloud/edsanalytics/internal/domain/schema"
	"github.com/kailas-cloud/edsanalytics/internal/domain/stream"
)

// Client defines the store operations the demo workflow needs.
type Client interface {
	CreateType(ctx context.Context, t schema.Type) error
	CreateStream(ctx context.Context, typeID, id, name string) (stream.Stream, error)
	WriteRecords(ctx context.Context, streamID string, records any) error
	WriteAggregate(ctx context.Context, streamID string, rec aggregate.Record) error
	ReadRange(ctx context.Context, streamID, startIndex string, count int) ([]sample.Record, error)
	ReadSummary(ctx context.Context, streamID, startIndex, endIndex string, count int) (string, error)
	DeleteStream(ctx context.Context, id string) error
	DeleteType(ctx context.Context, id string) error
}
