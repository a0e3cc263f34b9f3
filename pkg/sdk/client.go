package sds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/kailas-cloud/edsanalytics/internal/domain"
	"github.com/kailas-cloud/edsanalytics/internal/domain/aggregate"
	"github.com/kailas-cloud/edsanalytics/internal/domain/sample"
	"github.com/kailas-cloud/edsanalytics/internal/domain/schema"
	"github.com/kailas-cloud/edsanalytics/internal/domain/stream"
)

// Operation names used in errors, logs and metric labels.
const (
	OpCreateType   = "create_type"
	OpCreateStream = "create_stream"
	OpWriteData    = "write_data"
	OpReadData     = "read_data"
	OpReadSummary  = "read_summary"
	OpDeleteStream = "delete_stream"
	OpDeleteType   = "delete_type"
)

// Config addresses a tenant namespace on the store.
type Config struct {
	Scheme      string // http (default) or https
	Host        string
	Port        int
	TenantID    string
	NamespaceID string
	APIVersion  string
}

// Validate checks that every addressing setting is present.
func (c Config) Validate() error {
	switch {
	case c.Host == "":
		return errors.New("sds: host is required")
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("sds: port must be between 1 and 65535, got %d", c.Port)
	case c.TenantID == "":
		return errors.New("sds: tenant id is required")
	case c.NamespaceID == "":
		return errors.New("sds: namespace id is required")
	case c.APIVersion == "":
		return errors.New("sds: api version is required")
	}
	switch c.Scheme {
	case "", "http", "https":
	default:
		return fmt.Errorf("sds: unsupported scheme %q", c.Scheme)
	}
	return nil
}

// BaseURL returns the namespace root all endpoints hang off.
func (c Config) BaseURL() string {
	scheme := c.Scheme
	if scheme == "" {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s:%d/api/%s/Tenants/%s/Namespaces/%s",
		scheme, c.Host, c.Port,
		url.PathEscape(c.APIVersion), url.PathEscape(c.TenantID), url.PathEscape(c.NamespaceID))
}

// Client is a typed client for the type, stream and data endpoints.
// It is safe for concurrent use.
type Client struct {
	http *resty.Client
	base string
	obs  *observer
}

// New creates a Client for cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cc := &clientConfig{userAgent: defaultUserAgent}
	for _, o := range opts {
		o.apply(cc)
	}

	var rc *resty.Client
	if cc.httpClient != nil {
		rc = resty.NewWithClient(cc.httpClient)
	} else {
		rc = resty.New()
	}
	rc.SetHeader("Accept-Encoding", "gzip").
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", cc.userAgent)
	if cc.timeout > 0 {
		rc.SetTimeout(cc.timeout)
	}

	obs, err := newObserver(cc.logger, cc.metricsReg)
	if err != nil {
		return nil, err
	}

	return &Client{http: rc, base: cfg.BaseURL(), obs: obs}, nil
}

// CreateType registers a type definition under its id.
func (c *Client) CreateType(ctx context.Context, t schema.Type) (err error) {
	start := time.Now()
	defer func() { c.obs.observe(OpCreateType, start, err) }()

	_, err = c.do(ctx, OpCreateType, http.MethodPost, "/Types/"+url.PathEscape(t.ID), nil, t)
	return err
}

// CreateStream creates stream id bound to typeID and returns the requested handle.
func (c *Client) CreateStream(ctx context.Context, typeID, id, name string) (s stream.Stream, err error) {
	start := time.Now()
	defer func() { c.obs.observe(OpCreateStream, start, err) }()

	s, err = stream.New(typeID, id, name)
	if err != nil {
		return stream.Stream{}, err
	}
	if _, err = c.do(ctx, OpCreateStream, http.MethodPost, "/Streams/"+url.PathEscape(s.ID), nil, s); err != nil {
		return stream.Stream{}, err
	}
	return s, nil
}

// WriteRecords posts records, which must encode as a JSON array, to the stream's data endpoint.
func (c *Client) WriteRecords(ctx context.Context, streamID string, records any) (err error) {
	start := time.Now()
	defer func() { c.obs.observe(OpWriteData, start, err) }()

	_, err = c.do(ctx, OpWriteData, http.MethodPost, dataPath(streamID), nil, records)
	return err
}

// WriteAggregate writes a single aggregate as a one-element list.
func (c *Client) WriteAggregate(ctx context.Context, streamID string, rec aggregate.Record) error {
	return c.WriteRecords(ctx, streamID, []aggregate.Record{rec})
}

// ReadRange reads up to count samples starting at startIndex.
func (c *Client) ReadRange(ctx context.Context, streamID, startIndex string, count int) (out []sample.Record, err error) {
	start := time.Now()
	defer func() { c.obs.observe(OpReadData, start, err) }()

	q := url.Values{}
	q.Set("startIndex", startIndex)
	q.Set("count", strconv.Itoa(count))

	body, err := c.do(ctx, OpReadData, http.MethodGet, dataPath(streamID), q, nil)
	if err != nil {
		return nil, err
	}
	if err = json.Unmarshal(body, &out); err != nil {
		return nil, &domain.DecodeError{Op: OpReadData, Err: err}
	}
	if out == nil {
		out = []sample.Record{}
	}
	return out, nil
}

// ReadSummary fetches the store-computed summaries for [startIndex, endIndex] as raw text.
func (c *Client) ReadSummary(
	ctx context.Context, streamID, startIndex, endIndex string, count int,
) (payload string, err error) {
	start := time.Now()
	defer func() { c.obs.observe(OpReadSummary, start, err) }()

	q := url.Values{}
	q.Set("startIndex", startIndex)
	q.Set("endIndex", endIndex)
	q.Set("count", strconv.Itoa(count))

	body, err := c.do(ctx, OpReadSummary, http.MethodGet, dataPath(streamID)+"/Summaries", q, nil)
	if err != nil {
		return "", err
	}
	if !json.Valid(body) {
		return "", &domain.DecodeError{Op: OpReadSummary, Err: errors.New("summary payload is not valid JSON")}
	}
	return string(body), nil
}

// DeleteStream deletes a stream and its data.
func (c *Client) DeleteStream(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe(OpDeleteStream, start, err) }()

	_, err = c.do(ctx, OpDeleteStream, http.MethodDelete, "/Streams/"+url.PathEscape(id), nil, nil)
	return err
}

// DeleteType deletes a type definition.
func (c *Client) DeleteType(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe(OpDeleteType, start, err) }()

	_, err = c.do(ctx, OpDeleteType, http.MethodDelete, "/Types/"+url.PathEscape(id), nil, nil)
	return err
}

func dataPath(streamID string) string {
	return "/Streams/" + url.PathEscape(streamID) + "/Data"
}

// do issues one request and returns the decoded (decompressed) response body.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any) ([]byte, error) {
	req := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true)
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		req.SetHeader("Content-Type", "application/json").SetBody(payload)
	}

	resp, err := req.Execute(method, c.base+path)
	if err != nil {
		return nil, &domain.TransportError{Op: op, Err: err}
	}
	raw := resp.RawBody()
	defer raw.Close()

	data, readErr := readBody(raw, resp.Header().Get("Content-Encoding"))
	if !resp.IsSuccess() {
		return nil, &domain.APIError{Op: op, StatusCode: resp.StatusCode(), Body: errorBody(data)}
	}
	if readErr != nil {
		return nil, &domain.DecodeError{Op: op, Err: readErr}
	}
	return data, nil
}
