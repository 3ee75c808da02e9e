// Package friendships is the client for the student social graph.
package friendships

import (
	"context"
	"strings"

	"coursehub/internal/api"
)

const basePath = "/api/v1/friendships"

type Friendship struct {
	FriendshipID int64  `json:"friendship_id"`
	StudentID    string `json:"student_id"`
	FriendID     string `json:"friend_id"`
	FriendName   string `json:"friend_name,omitempty"`
	FriendMajor  string `json:"friend_major,omitempty"`
	FriendAvatar string `json:"friend_avatar,omitempty"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

type Recommendation struct {
	StudentID           string  `json:"student_id"`
	Name                string  `json:"name"`
	Major               string  `json:"major,omitempty"`
	Grade               string  `json:"grade,omitempty"`
	DepartmentName      string  `json:"department_name,omitempty"`
	CommonFriends       int     `json:"common_friends"`
	CommonCourses       int     `json:"common_courses"`
	RecommendationScore float64 `json:"recommendation_score"`
}

type friendRequest struct {
	FriendID string `json:"friend_id"`
	Message  string `json:"message"`
}

type Client struct {
	caller api.Caller
}

func New(caller api.Caller) *Client {
	return &Client{caller: caller}
}

// SendRequest asks friendID to become a friend.
func (c *Client) SendRequest(ctx context.Context, friendID, message string) (api.Ack, error) {
	friendID = strings.TrimSpace(friendID)
	switch {
	case friendID == "":
		return api.Ack{}, api.Invalid("friend id is required")
	case len(friendID) > 20:
		return api.Ack{}, api.Invalid("friend id must be at most 20 characters")
	case len([]rune(message)) > 200:
		return api.Ack{}, api.Invalid("message must be at most 200 characters")
	}
	return api.Post[api.Ack](ctx, c.caller, basePath+"/request", friendRequest{FriendID: friendID, Message: message})
}

func (c *Client) Accept(ctx context.Context, friendshipID int64) (api.Ack, error) {
	return c.respond(ctx, friendshipID, "accept")
}

func (c *Client) Reject(ctx context.Context, friendshipID int64) (api.Ack, error) {
	return c.respond(ctx, friendshipID, "reject")
}

func (c *Client) respond(ctx context.Context, friendshipID int64, action string) (api.Ack, error) {
	if friendshipID <= 0 {
		return api.Ack{}, api.Invalid("friendship id is required")
	}
	return api.Put[api.Ack](ctx, c.caller, basePath+"/"+api.PathID(friendshipID)+"/"+action, nil)
}

func (c *Client) List(ctx context.Context) ([]Friendship, error) {
	return api.Get[[]Friendship](ctx, c.caller, basePath+"/list", nil)
}

// Requests lists pending requests addressed to the current student.
func (c *Client) Requests(ctx context.Context) ([]Friendship, error) {
	return api.Get[[]Friendship](ctx, c.caller, basePath+"/requests", nil)
}

func (c *Client) Recommendations(ctx context.Context) ([]Recommendation, error) {
	return api.Get[[]Recommendation](ctx, c.caller, basePath+"/recommendations", nil)
}

func (c *Client) Delete(ctx context.Context, friendshipID int64) error {
	if friendshipID <= 0 {
		return api.Invalid("friendship id is required")
	}
	return api.Delete(ctx, c.caller, basePath+"/"+api.PathID(friendshipID))
}
