// Package apitest provides a scripted Caller for resource client tests.
package apitest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"coursehub/internal/transport/httpclient"
	dErrors "coursehub/pkg/domain-errors"
)

type reply struct {
	payload json.RawMessage
	err     error
}

// Caller answers requests by "METHOD path" and records what it was sent.
// Unscripted requests fail with CodeNotFound.
type Caller struct {
	mu       sync.Mutex
	replies  map[string]reply
	requests []*httpclient.Request
}

func NewCaller() *Caller {
	return &Caller{replies: map[string]reply{}}
}

// Reply scripts a payload for method and path.
func (c *Caller) Reply(method, path, payload string) *Caller {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies[method+" "+path] = reply{payload: json.RawMessage(payload)}
	return c
}

// Fail scripts an error for method and path.
func (c *Caller) Fail(method, path string, err error) *Caller {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies[method+" "+path] = reply{err: err}
	return c
}

func (c *Caller) Do(_ context.Context, req *httpclient.Request) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	r, ok := c.replies[req.Method+" "+req.Path]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("unscripted %s %s", req.Method, req.Path))
	}
	return r.payload, r.err
}

// Requests returns every request received, oldest first.
func (c *Caller) Requests() []*httpclient.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*httpclient.Request, len(c.requests))
	copy(out, c.requests)
	return out
}

// Last returns the most recent request, or nil.
func (c *Caller) Last() *httpclient.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.requests) == 0 {
		return nil
	}
	return c.requests[len(c.requests)-1]
}
