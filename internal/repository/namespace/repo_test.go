package namespace

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/edsanalytics/internal/domain"
	"github.com/kailas-cloud/edsanalytics/internal/domain/sample"
	"github.com/kailas-cloud/edsanalytics/internal/domain/schema"
	"github.com/kailas-cloud/edsanalytics/internal/domain/stream"
)

var t0 = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

func newSineRepo(t *testing.T) *Repo {
	t.Helper()
	r := New()
	ctx := context.Background()
	if _, err := r.CreateType(ctx, schema.SineWave()); err != nil {
		t.Fatalf("CreateType: %v", err)
	}
	if _, err := r.CreateStream(ctx, stream.Stream{ID: "s", Name: "s", TypeID: schema.SineWaveID}); err != nil {
		t.Fatalf("CreateStream: %v", err)
	}
	return r
}

func rawRecords(t *testing.T, records []sample.Record) []json.RawMessage {
	t.Helper()
	out := make([]json.RawMessage, len(records))
	for i, rec := range records {
		b, err := json.Marshal(rec)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		out[i] = b
	}
	return out
}

func TestCreateType_Idempotent(t *testing.T) {
	r := New()
	ctx := context.Background()

	created, err := r.CreateType(ctx, schema.SineWave())
	if err != nil || !created {
		t.Fatalf("first create: created=%v err=%v", created, err)
	}
	created, err = r.CreateType(ctx, schema.SineWave())
	if err != nil || created {
		t.Fatalf("second create: created=%v err=%v", created, err)
	}

	conflicting := schema.AggregatedData()
	conflicting.ID = schema.SineWaveID
	if _, err := r.CreateType(ctx, conflicting); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCreateStream_RequiresType(t *testing.T) {
	r := New()
	_, err := r.CreateStream(context.Background(), stream.Stream{ID: "s", TypeID: "missing"})
	if !errors.Is(err, domain.ErrInvalidSchema) {
		t.Errorf("expected ErrInvalidSchema, got %v", err)
	}
}

func TestDeleteType_BlockedByStream(t *testing.T) {
	r := newSineRepo(t)
	ctx := context.Background()

	if err := r.DeleteType(ctx, schema.SineWaveID); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := r.DeleteStream(ctx, "s"); err != nil {
		t.Fatalf("DeleteStream: %v", err)
	}
	if err := r.DeleteType(ctx, schema.SineWaveID); err != nil {
		t.Fatalf("DeleteType: %v", err)
	}
	if _, err := r.GetType(ctx, schema.SineWaveID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	r := New()
	ctx := context.Background()
	if err := r.DeleteStream(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("DeleteStream: expected ErrNotFound, got %v", err)
	}
	if err := r.DeleteType(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("DeleteType: expected ErrNotFound, got %v", err)
	}
}

func TestWriteAndRange(t *testing.T) {
	r := newSineRepo(t)
	ctx := context.Background()

	records, _ := sample.Generate(t0, 10)
	// Write out of order to exercise sorted insert.
	if err := r.Write(ctx, "s", rawRecords(t, records[5:])); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := r.Write(ctx, "s", rawRecords(t, records[:5])); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := r.Range(ctx, "s", Query{Start: t0.Add(2 * time.Second), Count: 3})
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	var first sample.Record
	if err := json.Unmarshal(got[0], &first); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if first != records[2] {
		t.Errorf("first = %+v, want %+v", first, records[2])
	}
}

func TestWrite_Upsert(t *testing.T) {
	r := newSineRepo(t)
	ctx := context.Background()

	records, _ := sample.Generate(t0, 3)
	_ = r.Write(ctx, "s", rawRecords(t, records))

	replaced := records[1]
	replaced.Value = 42
	if err := r.Write(ctx, "s", rawRecords(t, []sample.Record{replaced})); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, _ := r.Range(ctx, "s", Query{})
	if len(got) != 3 {
		t.Fatalf("expected 3 records after upsert, got %d", len(got))
	}
	var mid sample.Record
	_ = json.Unmarshal(got[1], &mid)
	if mid.Value != 42 {
		t.Errorf("expected upserted value 42, got %f", mid.Value)
	}
}

func TestWrite_InvalidRecordRejectsBatch(t *testing.T) {
	r := newSineRepo(t)
	ctx := context.Background()

	batch := []json.RawMessage{
		json.RawMessage(`{"Timestamp":"2026-10-18T09:30:00.0000000Z","Value":1}`),
		json.RawMessage(`{"Value":2}`),
	}
	if err := r.Write(ctx, "s", batch); !errors.Is(err, domain.ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema, got %v", err)
	}
	got, _ := r.Range(ctx, "s", Query{})
	if len(got) != 0 {
		t.Errorf("expected nothing stored, got %d records", len(got))
	}
}

func TestWrite_UnknownStream(t *testing.T) {
	r := New()
	if err := r.Write(context.Background(), "nope", nil); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPoints(t *testing.T) {
	r := newSineRepo(t)
	ctx := context.Background()

	records, _ := sample.Generate(t0, 10)
	_ = r.Write(ctx, "s", rawRecords(t, records))

	pts, err := r.Points(ctx, "s", t0, t0.Add(4*time.Second))
	if err != nil {
		t.Fatalf("Points: %v", err)
	}
	if len(pts) != 5 {
		t.Fatalf("expected 5 points in closed window, got %d", len(pts))
	}
	if pts[4].Value != records[4].Value {
		t.Errorf("last point = %f, want %f", pts[4].Value, records[4].Value)
	}
}

func TestRegistry_Isolation(t *testing.T) {
	g := NewRegistry()
	a := g.Get("default", "one")
	if g.Get("default", "one") != a {
		t.Fatal("expected same repo for same namespace")
	}
	if g.Get("default", "two") == a {
		t.Fatal("expected distinct repo for other namespace")
	}
}
