// Package httpclient is the single choke point for backend calls. Outbound it
// attaches the bearer token, an issued-at timestamp, a request id and trace
// context; inbound it unwraps the {code, message, data} envelope and turns
// every failure into a classified domain error with one user notice.
//
// Authentication failures, whether signalled by a real HTTP 401 or by
// code 401 inside a 2xx envelope, converge on one routine: invalidate the
// session, navigate to login, notify, reject with CodeUnauthorized.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"coursehub/internal/notify"
	"coursehub/internal/platform/metrics"
	dErrors "coursehub/pkg/domain-errors"
	"coursehub/pkg/requestcontext"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "coursehub-cli"
	maxBodyBytes     = 16 << 20
	tracerName       = "coursehub/httpclient"

	HeaderRequestTime = "X-Request-Time"
	HeaderRequestID   = "X-Request-ID"
)

// SessionAccessor is the narrow session capability the interceptor holds:
// read the token, tear the session down.
type SessionAccessor interface {
	Token() string
	Invalidate(ctx context.Context) error
}

// LoginRedirector navigates to the login view. It reports whether a
// navigation actually happened.
type LoginRedirector interface {
	ToLogin(ctx context.Context) bool
}

// Request describes one backend call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is JSON-encoded when non-nil.
	Body any
	// Form is sent url-encoded when non-nil; it wins over Body.
	Form url.Values
	// Upload is sent as multipart/form-data when non-nil.
	Upload *Upload
	// Binary responses skip envelope inspection.
	Binary bool
	// Anonymous marks credential exchanges (login, register): a 401 there means
	// bad credentials and never tears down an existing session.
	Anonymous bool
	// Token replaces the session's bearer token for this call. A 401 then
	// rejects that token only; the session is left alone.
	Token string
}

// Upload is a single-file multipart body with optional extra fields.
type Upload struct {
	FieldName string
	FileName  string
	Content   io.Reader
	Fields    map[string]string
}

// Client performs backend calls.
type Client struct {
	baseURL    *url.URL
	http       *http.Client
	session    SessionAccessor
	redirector LoginRedirector
	notifier   notify.Notifier
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	userAgent  string
}

type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithNotifier(n notify.Notifier) Option {
	return func(c *Client) {
		c.notifier = n
	}
}

func WithRedirector(r LoginRedirector) Option {
	return func(c *Client) {
		c.redirector = r
	}
}

// WithHTTPClient replaces the underlying *http.Client (its Timeout included).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// New builds a client for baseURL reading the token from session.
func New(baseURL string, session SessionAccessor, opts ...Option) (*Client, error) {
	if session == nil {
		return nil, fmt.Errorf("session accessor is required")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL must be http or https, got %q", baseURL)
	}

	c := &Client{
		baseURL:   u,
		http:      &http.Client{Timeout: defaultTimeout},
		session:   session,
		notifier:  notify.Discard{},
		logger:    slog.Default(),
		tracer:    otel.Tracer(tracerName),
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Do performs req and returns the unwrapped business payload (the envelope's
// data, or the raw body when there is no envelope). A nil payload means the
// backend returned nothing.
func (c *Client) Do(ctx context.Context, req *Request) (json.RawMessage, error) {
	resp, finish, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, finish(c.transportFailure(ctx, err))
	}
	if req.Binary {
		finish(nil)
		return body, nil
	}

	payload, err := c.unwrap(ctx, req, body)
	finish(err)
	return payload, err
}

// send builds, decorates and executes req. Non-2xx and transport failures are
// classified here. finish must be called once with the final error so the
// span and metrics record the outcome.
func (c *Client) send(ctx context.Context, req *Request) (*http.Response, func(error) error, error) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "coursehub.client "+req.Method+" "+req.Path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", req.Path),
		),
	)
	finish := func(err error) error {
		outcome := "ok"
		if err != nil {
			outcome = string(dErrors.CodeOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, dErrors.MessageOf(err))
		}
		c.metrics.ObserveRequest(req.Method, outcome, time.Since(start))
		span.End()
		return err
	}

	httpReq, err := c.build(ctx, req)
	if err != nil {
		return nil, nil, finish(dErrors.Wrap(err, dErrors.CodeInternal, "failed to build request"))
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, nil, finish(c.transportFailure(ctx, err))
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		_ = resp.Body.Close()
		return nil, nil, finish(c.statusFailure(ctx, req, resp.StatusCode, body))
	}
	return resp, finish, nil
}

// build constructs the outbound request and applies decoration.
func (c *Client) build(ctx context.Context, req *Request) (*http.Request, error) {
	target := c.baseURL.JoinPath(req.Path)
	if len(req.Query) > 0 {
		target.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	var contentType string
	switch {
	case req.Upload != nil:
		buf := &bytes.Buffer{}
		mw := multipart.NewWriter(buf)
		for k, v := range req.Upload.Fields {
			if err := mw.WriteField(k, v); err != nil {
				return nil, fmt.Errorf("write multipart field: %w", err)
			}
		}
		fw, err := mw.CreateFormFile(req.Upload.FieldName, req.Upload.FileName)
		if err != nil {
			return nil, fmt.Errorf("create multipart file: %w", err)
		}
		if _, err := io.Copy(fw, req.Upload.Content); err != nil {
			return nil, fmt.Errorf("copy upload content: %w", err)
		}
		if err := mw.Close(); err != nil {
			return nil, fmt.Errorf("close multipart writer: %w", err)
		}
		body, contentType = buf, mw.FormDataContentType()
	case req.Form != nil:
		body, contentType = strings.NewReader(req.Form.Encode()), "application/x-www-form-urlencoded"
	case req.Body != nil:
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body, contentType = bytes.NewReader(data), "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	c.decorate(ctx, httpReq)
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}
	return httpReq, nil
}

// decorate is the outbound stage: pure header attachment, never blocks.
func (c *Client) decorate(ctx context.Context, r *http.Request) {
	if token := c.session.Token(); token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	r.Header.Set(HeaderRequestTime, strconv.FormatInt(requestcontext.Now(ctx).UnixMilli(), 10))

	requestID := requestcontext.RequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	r.Header.Set(HeaderRequestID, requestID)
	r.Header.Set("Accept", "application/json")
	r.Header.Set("User-Agent", c.userAgent)

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(r.Header))
}

// unwrap is the inbound stage for transport-level success.
func (c *Client) unwrap(ctx context.Context, req *Request, body []byte) (json.RawMessage, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	env, ok := parseEnvelope(body)
	if !ok {
		return json.RawMessage(body), nil
	}

	switch {
	case env.Code == http.StatusOK:
		return env.Data, nil
	case env.Code == http.StatusUnauthorized:
		return nil, c.handleAuthFailure(ctx, req, env.Message)
	case env.Code == http.StatusForbidden:
		return nil, c.fail(ctx, dErrors.CodeForbidden, MsgForbidden)
	case env.Code == http.StatusNotFound:
		return nil, c.fail(ctx, dErrors.CodeNotFound, MsgNotFound)
	case env.Code >= 400:
		return nil, c.fail(ctx, dErrors.CodeRequestFailed, firstNonEmpty(env.Message, MsgRequestFailed))
	default:
		return env.Data, nil
	}
}

// statusFailure classifies a non-2xx transport response.
func (c *Client) statusFailure(ctx context.Context, req *Request, status int, body []byte) error {
	msg := serverMessage(body)
	switch status {
	case http.StatusBadRequest:
		return c.fail(ctx, dErrors.CodeBadRequest, firstNonEmpty(msg, MsgBadRequest))
	case http.StatusUnauthorized:
		return c.handleAuthFailure(ctx, req, msg)
	case http.StatusForbidden:
		return c.fail(ctx, dErrors.CodeForbidden, MsgForbidden)
	case http.StatusNotFound:
		return c.fail(ctx, dErrors.CodeNotFound, MsgNotFound)
	case http.StatusUnprocessableEntity:
		return c.fail(ctx, dErrors.CodeValidation, firstNonEmpty(msg, MsgValidation))
	case http.StatusInternalServerError:
		return c.fail(ctx, dErrors.CodeServer, MsgInternalServer)
	case http.StatusBadGateway:
		return c.fail(ctx, dErrors.CodeServer, MsgBadGateway)
	case http.StatusServiceUnavailable:
		return c.fail(ctx, dErrors.CodeServer, MsgUnavailable)
	case http.StatusGatewayTimeout:
		return c.fail(ctx, dErrors.CodeServer, MsgGatewayTimeout)
	}

	code := dErrors.CodeRequestFailed
	if status >= 500 {
		code = dErrors.CodeServer
	}
	return c.fail(ctx, code, firstNonEmpty(msg, fmt.Sprintf("%s (%d)", MsgRequestFailed, status)))
}

// transportFailure classifies a call that produced no response.
func (c *Client) transportFailure(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) {
		// The caller abandoned the call; nobody is waiting for a notice.
		return dErrors.Wrap(err, dErrors.CodeCanceled, "request canceled")
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		c.logger.WarnContext(ctx, "backend request timed out", "error", err)
		return c.failWrap(ctx, err, dErrors.CodeTimeout, MsgTimeout)
	}

	c.logger.WarnContext(ctx, "backend unreachable", "error", err)
	return c.failWrap(ctx, err, dErrors.CodeNetwork, MsgNetwork)
}

// handleAuthFailure is the one routine behind embedded and transport 401s.
func (c *Client) handleAuthFailure(ctx context.Context, req *Request, serverMsg string) error {
	if req.Anonymous || req.Token != "" {
		return c.fail(ctx, dErrors.CodeUnauthorized, firstNonEmpty(serverMsg, MsgInvalidCredentials))
	}

	if err := c.session.Invalidate(ctx); err != nil {
		c.logger.ErrorContext(ctx, "failed to purge session after auth failure", "error", err)
	}
	c.metrics.IncrementTeardowns("unauthorized")
	if c.redirector != nil && c.redirector.ToLogin(ctx) {
		c.logger.InfoContext(ctx, "session expired, redirected to login", "path", req.Path)
	}
	return c.fail(ctx, dErrors.CodeUnauthorized, MsgSessionExpired)
}

func (c *Client) fail(ctx context.Context, code dErrors.Code, msg string) error {
	if !isQuiet(ctx) {
		notify.Error(ctx, c.notifier, msg)
	}
	return dErrors.New(code, msg)
}

func (c *Client) failWrap(ctx context.Context, err error, code dErrors.Code, msg string) error {
	if !isQuiet(ctx) {
		notify.Error(ctx, c.notifier, msg)
	}
	return dErrors.Wrap(err, code, msg)
}

type quietKey struct{}

// Quiet marks calls made with the returned context as best-effort: failures
// are still classified and returned but no user notice is shown.
func Quiet(ctx context.Context) context.Context {
	return context.WithValue(ctx, quietKey{}, true)
}

func isQuiet(ctx context.Context) bool {
	quiet, _ := ctx.Value(quietKey{}).(bool)
	return quiet
}

// -----------------------------------------------------------------------------
// Convenience helpers
// -----------------------------------------------------------------------------

// Get issues a GET with query parameters and decodes the payload into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.call(ctx, &Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, &Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, &Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

// Patch issues a PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body}, out)
}

// Delete issues a DELETE with query parameters.
func (c *Client) Delete(ctx context.Context, path string, query url.Values, out any) error {
	return c.call(ctx, &Request{Method: http.MethodDelete, Path: path, Query: query}, out)
}

// PostForm issues a url-encoded POST.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values, out any) error {
	return c.call(ctx, &Request{Method: http.MethodPost, Path: path, Form: form}, out)
}

// PostUpload issues a multipart POST carrying one file.
func (c *Client) PostUpload(ctx context.Context, path string, up *Upload, out any) error {
	if up == nil || up.Content == nil {
		return dErrors.New(dErrors.CodeValidation, "upload content is required")
	}
	return c.call(ctx, &Request{Method: http.MethodPost, Path: path, Upload: up}, out)
}

// Download streams a binary response into w and returns the server-suggested
// file name (from Content-Disposition), or "download".
func (c *Client) Download(ctx context.Context, path string, query url.Values, w io.Writer) (string, error) {
	req := &Request{Method: http.MethodGet, Path: path, Query: query, Binary: true}
	resp, finish, err := c.send(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", finish(c.transportFailure(ctx, err))
	}
	finish(nil)
	return fileName(resp.Header.Get("Content-Disposition")), nil
}

func (c *Client) call(ctx context.Context, req *Request, out any) error {
	payload, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return Decode(payload, out)
}

// Decode unmarshals a payload into out. A nil out or empty payload is a no-op.
func Decode(payload json.RawMessage, out any) error {
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, MsgMalformed)
	}
	return nil
}

func fileName(disposition string) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil && params["filename"] != "" {
			return params["filename"]
		}
	}
	return "download"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
