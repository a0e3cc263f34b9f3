// Package sds provides a minimal typed Go client for the type, stream and
// data REST API of an SDS-style time-series store (Edge Data Store).
//
// All calls share one base URL:
//
//	{scheme}://{host}:{port}/api/{version}/Tenants/{tenant}/Namespaces/{namespace}
//
// Responses may be gzip-encoded; the client advertises gzip and decodes it
// before JSON decoding. Failures are typed: *APIError for non-2xx statuses,
// *TransportError for connection-level failures and *DecodeError for
// malformed payloads. Nothing is retried.
//
//	client, _ := sds.New(sds.Config{
//	    Host: "localhost", Port: 5590,
//	    TenantID: "default", NamespaceID: "default", APIVersion: "v1",
//	}, sds.WithLogger(logger))
//	_ = client.CreateType(ctx, sds.Type{ID: "SineWave", Properties: props})
//	s, _ := client.CreateStream(ctx, "SineWave", "SineWave", "SineWave")
//	_ = client.WriteRecords(ctx, s.ID, records)
//	back, _ := client.ReadRange(ctx, s.ID, records[0].Timestamp, len(records))
package sds
