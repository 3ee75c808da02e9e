// Package notifications is the client for system notifications.
package notifications

import (
	"context"
	"net/http"

	"coursehub/internal/api"
	"coursehub/internal/transport/httpclient"
)

const basePath = "/api/v1/notifications"

// Notification types.
const (
	TypeSystem  = "system"
	TypeCourse  = "course"
	TypeMessage = "message"
	TypeWarning = "warning"
	TypeSuccess = "success"
)

type Notification struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Type      string `json:"type"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at,omitempty"`
	Link      string `json:"link,omitempty"`
}

// List is one page of notifications with the unread total.
type List struct {
	Items       []Notification `json:"items"`
	Total       int            `json:"total"`
	UnreadCount int            `json:"unread_count"`
}

type Filter struct {
	api.PageQuery
	Type   string
	IsRead *bool
}

type Client struct {
	caller api.Caller
}

func New(caller api.Caller) *Client {
	return &Client{caller: caller}
}

func (c *Client) List(ctx context.Context, f Filter) (List, error) {
	q := f.PageQuery.Values()
	api.SetIf(q, "type", f.Type)
	api.SetBool(q, "is_read", f.IsRead)
	return api.Get[List](ctx, c.caller, basePath, q)
}

func (c *Client) MarkRead(ctx context.Context, id int64) error {
	if id <= 0 {
		return api.Invalid("notification id is required")
	}
	return api.Exec(ctx, c.caller, &httpclient.Request{Method: http.MethodPut, Path: basePath + "/" + api.PathID(id) + "/read"})
}

func (c *Client) MarkAllRead(ctx context.Context) error {
	return api.Exec(ctx, c.caller, &httpclient.Request{Method: http.MethodPut, Path: basePath + "/read-all"})
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return api.Invalid("notification id is required")
	}
	return api.Delete(ctx, c.caller, basePath+"/"+api.PathID(id))
}

// Clear deletes every notification.
func (c *Client) Clear(ctx context.Context) error {
	return api.Delete(ctx, c.caller, basePath+"/clear")
}

func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	n, err := api.Get[api.UnreadCount](ctx, c.caller, basePath+"/unread/count", nil)
	if err != nil {
		return 0, err
	}
	return n.Value(), nil
}
