// Package api is the typed façade over the campaign REST API. Every call
// reads a fresh settings snapshot, applies a context deadline and returns
// opaque JSON records.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	appErrors "github.com/unclebandit/smsleopard-dashboard/internal/errors"
	"github.com/unclebandit/smsleopard-dashboard/internal/logging"
	"github.com/unclebandit/smsleopard-dashboard/internal/model"
	"github.com/unclebandit/smsleopard-dashboard/internal/telemetry"
)

const (
	DefaultTimeout       = 30 * time.Second
	DefaultUploadTimeout = 120 * time.Second

	// DefaultMaxResponseBytes caps a response body, XLSX exports included.
	DefaultMaxResponseBytes = 64 << 20
)

// SettingsSource supplies the configuration triple for each request.
type SettingsSource interface {
	Settings() model.Settings
}

// StaticSettings is a SettingsSource that never changes.
type StaticSettings model.Settings

func (s StaticSettings) Settings() model.Settings { return model.Settings(s) }

// Blob is a downloaded file.
type Blob struct {
	Data        []byte
	ContentType string
}

type Client struct {
	Source        SettingsSource
	HTTP          *http.Client
	Timeout       time.Duration
	UploadTimeout time.Duration
	// MaxResponseBytes bounds how much of a response body is read. Zero
	// uses DefaultMaxResponseBytes.
	MaxResponseBytes int64

	tracer trace.Tracer
}

// New returns a client using the default timeouts.
func New(src SettingsSource) *Client {
	return &Client{
		Source:           src,
		HTTP:             &http.Client{},
		Timeout:          DefaultTimeout,
		UploadTimeout:    DefaultUploadTimeout,
		MaxResponseBytes: DefaultMaxResponseBytes,
		tracer:           telemetry.Tracer("internal/api"),
	}
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	// scoped requests carry company_id when a company is selected.
	scoped  bool
	timeout time.Duration
}

type response struct {
	data        []byte
	contentType string
}

func (c *Client) endpointFor(s model.Settings, r request) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(s.BaseURL), "/")
	if base == "" {
		return "", appErrors.ErrMissingBaseURL
	}
	q := url.Values{}
	for k, vs := range r.query {
		q[k] = append([]string(nil), vs...)
	}
	if r.scoped && s.CompanyID != "" {
		q.Set("company_id", s.CompanyID)
	}
	endpoint := base + r.path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	if _, err := url.Parse(endpoint); err != nil {
		return "", fmt.Errorf("invalid api url: %w", err)
	}
	return endpoint, nil
}

func (c *Client) send(ctx context.Context, r request) (response, error) {
	s := c.Source.Settings()
	endpoint, err := c.endpointFor(s, r)
	if err != nil {
		return response{}, err
	}

	timeout := r.timeout
	if timeout <= 0 {
		timeout = c.Timeout
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tracer := c.tracer
	if tracer == nil {
		tracer = telemetry.Tracer("internal/api")
	}
	ctx, span := tracer.Start(ctx, "api "+r.method+" "+r.path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", r.method),
			attribute.String("url.path", r.path),
		))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, r.body)
	if err != nil {
		return response{}, err
	}
	ct := r.contentType
	if ct == "" {
		ct = "application/json"
	}
	req.Header.Set("Content-Type", ct)
	if s.APIKey != "" {
		req.Header.Set("X-API-Key", s.APIKey)
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return response{}, c.fail(ctx, span, r, err)
	}
	defer resp.Body.Close()

	limit := c.MaxResponseBytes
	if limit <= 0 {
		limit = DefaultMaxResponseBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return response{}, c.fail(ctx, span, r, err)
	}
	if int64(len(data)) > limit {
		return response{}, c.fail(ctx, span, r, fmt.Errorf("%w: more than %d bytes", appErrors.ErrResponseTooLarge, limit))
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body := ""
		if r.method != http.MethodGet {
			body = string(data)
		}
		herr := appErrors.NewHTTPError(r.method, r.path, resp.StatusCode, body)
		span.SetStatus(codes.Error, herr.Error())
		logging.WithComponent("api").Debug("non-2xx response", "method", r.method, "path", r.path, "status", resp.StatusCode)
		return response{}, herr
	}
	return response{data: data, contentType: resp.Header.Get("Content-Type")}, nil
}

func (c *Client) fail(ctx context.Context, span trace.Span, r request, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = appErrors.ErrTimeout
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	logging.WithComponent("api").Warn("request failed", "method", r.method, "path", r.path, "error", err)
	return err
}

func (c *Client) record(ctx context.Context, r request) (model.Record, error) {
	resp, err := c.send(ctx, r)
	if err != nil {
		return model.Record{}, err
	}
	return model.ParseRecord(resp.data), nil
}

func jsonBody(v any) (io.Reader, error) {
	if v == nil {
		v = map[string]any{}
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return &buf, nil
}

// Get fetches path and returns the decoded record.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (model.Record, error) {
	return c.record(ctx, request{method: http.MethodGet, path: path, query: query})
}

// Post sends data as JSON. A nil body is sent as {}.
func (c *Client) Post(ctx context.Context, path string, query url.Values, data any) (model.Record, error) {
	body, err := jsonBody(data)
	if err != nil {
		return model.Record{}, err
	}
	return c.record(ctx, request{method: http.MethodPost, path: path, query: query, body: body})
}

func (c *Client) Put(ctx context.Context, path string, data any) (model.Record, error) {
	body, err := jsonBody(data)
	if err != nil {
		return model.Record{}, err
	}
	return c.record(ctx, request{method: http.MethodPut, path: path, body: body})
}

func (c *Client) Delete(ctx context.Context, path string) (model.Record, error) {
	return c.record(ctx, request{method: http.MethodDelete, path: path})
}

// UploadFile posts a multipart form with one file field under the upload
// timeout.
func (c *Client) UploadFile(ctx context.Context, path, field, filename string, file io.Reader) (model.Record, error) {
	if field == "" {
		field = "file"
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return model.Record{}, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return model.Record{}, err
	}
	if err := mw.Close(); err != nil {
		return model.Record{}, err
	}
	timeout := c.UploadTimeout
	if timeout <= 0 {
		timeout = DefaultUploadTimeout
	}
	return c.record(ctx, request{
		method:      http.MethodPost,
		path:        path,
		body:        &buf,
		contentType: mw.FormDataContentType(),
		timeout:     timeout,
	})
}

// Download fetches a binary export.
func (c *Client) Download(ctx context.Context, path string, query url.Values) (Blob, error) {
	resp, err := c.send(ctx, request{method: http.MethodGet, path: path, query: query})
	if err != nil {
		return Blob{}, err
	}
	return Blob{Data: resp.data, ContentType: resp.contentType}, nil
}
