package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Resource kinds in a teardown list.
const (
	KindStream = "stream"
	KindType   = "type"
)

// CleanupFailure is one resource that could not be deleted.
type CleanupFailure struct {
	Kind string
	ID   string
	Err  error
}

// CleanupError collects every failed deletion of a teardown pass.
type CleanupError struct {
	Failures []CleanupFailure
}

func (e *CleanupError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s %s: %v", f.Kind, f.ID, f.Err)
	}
	return "cleanup: " + strings.Join(parts, "; ")
}

// Unwrap exposes the individual deletion errors to errors.Is/As.
func (e *CleanupError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// teardown records created resources. Streams are deleted before types,
// each group in registration order, so a type always outlives its streams.
type teardown struct {
	streams []string
	types   []string
}

func (t *teardown) addStream(id string) { t.streams = append(t.streams, id) }
func (t *teardown) addType(id string)   { t.types = append(t.types, id) }

func (t *teardown) empty() bool {
	return len(t.streams) == 0 && len(t.types) == 0
}

// run attempts every deletion and returns a *CleanupError if any failed.
func (t *teardown) run(ctx context.Context, c Client, logger *zap.Logger) error {
	var cerr CleanupError

	for _, id := range t.streams {
		logger.Info("deleting stream", zap.String("stream", id))
		if err := c.DeleteStream(ctx, id); err != nil {
			logger.Error("delete stream failed", zap.String("stream", id), zap.Error(err))
			cerr.Failures = append(cerr.Failures, CleanupFailure{Kind: KindStream, ID: id, Err: err})
		}
	}
	for _, id := range t.types {
		logger.Info("deleting type", zap.String("type", id))
		if err := c.DeleteType(ctx, id); err != nil {
			logger.Error("delete type failed", zap.String("type", id), zap.Error(err))
			cerr.Failures = append(cerr.Failures, CleanupFailure{Kind: KindType, ID: id, Err: err})
		}
	}

	if len(cerr.Failures) == 0 {
		return nil
	}
	return &cerr
}

// withCleanup combines a run error with a cleanup error; the run error stays first.
func withCleanup(runErr, cleanupErr error) error {
	switch {
	case cleanupErr == nil:
		return runErr
	case runErr == nil:
		return cleanupErr
	default:
		return errors.Join(runErr, cleanupErr)
	}
}
