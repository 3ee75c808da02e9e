// Package api holds the pieces shared by the resource clients: the transport
// port, typed call helpers and the backend's pagination shape.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"coursehub/internal/transport/httpclient"
	dErrors "coursehub/pkg/domain-errors"
)

// ErrInvalidInput marks arguments rejected before any backend call. Such
// failures have not been shown to the user yet.
var ErrInvalidInput = errors.New("invalid input")

// Invalid returns a validation error wrapping ErrInvalidInput.
func Invalid(msg string) error {
	return dErrors.Wrap(ErrInvalidInput, dErrors.CodeValidation, msg)
}

// Caller performs one backend call through the interceptor.
type Caller interface {
	Do(ctx context.Context, req *httpclient.Request) (json.RawMessage, error)
}

// Call issues req and decodes the payload into T.
func Call[T any](ctx context.Context, c Caller, req *httpclient.Request) (T, error) {
	var out T
	payload, err := c.Do(ctx, req)
	if err != nil {
		return out, err
	}
	if err := httpclient.Decode(payload, &out); err != nil {
		return out, err
	}
	return out, nil
}

// Exec issues req and discards the payload.
func Exec(ctx context.Context, c Caller, req *httpclient.Request) error {
	_, err := c.Do(ctx, req)
	return err
}

func Get[T any](ctx context.Context, c Caller, path string, query url.Values) (T, error) {
	return Call[T](ctx, c, &httpclient.Request{Method: http.MethodGet, Path: path, Query: query})
}

func Post[T any](ctx context.Context, c Caller, path string, body any) (T, error) {
	return Call[T](ctx, c, &httpclient.Request{Method: http.MethodPost, Path: path, Body: body})
}

func Put[T any](ctx context.Context, c Caller, path string, body any) (T, error) {
	return Call[T](ctx, c, &httpclient.Request{Method: http.MethodPut, Path: path, Body: body})
}

func Delete(ctx context.Context, c Caller, path string) error {
	return Exec(ctx, c, &httpclient.Request{Method: http.MethodDelete, Path: path})
}

// Page is the backend's pagination wrapper.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// HasNext reports whether a later page exists.
func (p Page[T]) HasNext() bool {
	return p.Page > 0 && p.Page < p.TotalPages
}

// PageQuery selects a page. Zero values defer to the backend defaults.
type PageQuery struct {
	Page     int
	PageSize int
}

// Values encodes the page selection.
func (q PageQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	return v
}

// SetIf adds key to v when value is non-empty.
func SetIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

// SetBool adds key to v when b is non-nil.
func SetBool(v url.Values, key string, b *bool) {
	if b != nil {
		v.Set(key, strconv.FormatBool(*b))
	}
}

// UnreadCount decodes the unread counters, which some endpoints report as
// unread_count and others as count.
type UnreadCount struct {
	UnreadCount *int `json:"unread_count"`
	Count       *int `json:"count"`
}

// Value returns whichever counter is present, or zero.
func (u UnreadCount) Value() int {
	switch {
	case u.UnreadCount != nil:
		return *u.UnreadCount
	case u.Count != nil:
		return *u.Count
	default:
		return 0
	}
}

// Ack is the acknowledgement some mutations return.
type Ack struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// PathID renders a numeric path segment.
func PathID(id int64) string {
	return strconv.FormatInt(id, 10)
}
