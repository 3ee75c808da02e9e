// Package messages is the client for student-to-student messaging.
package messages

import (
	"context"
	"strings"

	"coursehub/internal/api"
)

const basePath = "/api/v1/messages"

const TypePersonal = "personal"

type Message struct {
	MessageID     int64  `json:"message_id"`
	SenderID      string `json:"sender_id"`
	SenderName    string `json:"sender_name,omitempty"`
	RecipientID   string `json:"recipient_id"`
	RecipientName string `json:"recipient_name,omitempty"`
	Subject       string `json:"subject"`
	Content       string `json:"content"`
	MessageType   string `json:"message_type"`
	Status        string `json:"status"`
	IsRead        bool   `json:"is_read"`
	CreatedAt     string `json:"created_at,omitempty"`
	ReadAt        string `json:"read_at,omitempty"`
}

// Draft is an outgoing message.
type Draft struct {
	RecipientID string `json:"recipient_id"`
	Subject     string `json:"subject"`
	Content     string `json:"content"`
	MessageType string `json:"message_type,omitempty"`
}

func (d Draft) Validate() error {
	switch {
	case strings.TrimSpace(d.RecipientID) == "":
		return api.Invalid("recipient is required")
	case len(d.RecipientID) > 20:
		return api.Invalid("recipient id must be at most 20 characters")
	case strings.TrimSpace(d.Subject) == "":
		return api.Invalid("subject is required")
	case len([]rune(d.Subject)) > 100:
		return api.Invalid("subject must be at most 100 characters")
	case strings.TrimSpace(d.Content) == "":
		return api.Invalid("content is required")
	case len([]rune(d.Content)) > 1000:
		return api.Invalid("content must be at most 1000 characters")
	}
	return nil
}

// Filter narrows a mailbox listing.
type Filter struct {
	api.PageQuery
	IsRead      *bool
	MessageType string
	Search      string
}

type Client struct {
	caller api.Caller
}

func New(caller api.Caller) *Client {
	return &Client{caller: caller}
}

func (c *Client) Send(ctx context.Context, d Draft) (*Message, error) {
	if d.MessageType == "" {
		d.MessageType = TypePersonal
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return api.Post[*Message](ctx, c.caller, basePath+"/send", d)
}

func (c *Client) Inbox(ctx context.Context, f Filter) (api.Page[Message], error) {
	q := f.PageQuery.Values()
	api.SetBool(q, "is_read", f.IsRead)
	api.SetIf(q, "message_type", f.MessageType)
	api.SetIf(q, "search", f.Search)
	return api.Get[api.Page[Message]](ctx, c.caller, basePath+"/inbox", q)
}

// Sent lists outgoing messages. The read filter does not apply.
func (c *Client) Sent(ctx context.Context, f Filter) (api.Page[Message], error) {
	q := f.PageQuery.Values()
	api.SetIf(q, "message_type", f.MessageType)
	api.SetIf(q, "search", f.Search)
	return api.Get[api.Page[Message]](ctx, c.caller, basePath+"/sent", q)
}

func (c *Client) Get(ctx context.Context, messageID int64) (*Message, error) {
	if messageID <= 0 {
		return nil, api.Invalid("message id is required")
	}
	return api.Get[*Message](ctx, c.caller, basePath+"/"+api.PathID(messageID), nil)
}

// SetRead marks a message read or unread.
func (c *Client) SetRead(ctx context.Context, messageID int64, read bool) (*Message, error) {
	if messageID <= 0 {
		return nil, api.Invalid("message id is required")
	}
	body := map[string]bool{"is_read": read}
	return api.Put[*Message](ctx, c.caller, basePath+"/"+api.PathID(messageID)+"/status", body)
}

func (c *Client) Delete(ctx context.Context, messageID int64) error {
	if messageID <= 0 {
		return api.Invalid("message id is required")
	}
	return api.Delete(ctx, c.caller, basePath+"/"+api.PathID(messageID))
}

func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	n, err := api.Get[api.UnreadCount](ctx, c.caller, basePath+"/unread/count", nil)
	if err != nil {
		return 0, err
	}
	return n.Value(), nil
}
