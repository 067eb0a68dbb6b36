package hubapi

import (
	"time"

	"github.com/five82/deskhub/internal/resource"
)

const (
	DefaultUserID = "default_user"
	DefaultLimit  = 50
)

// FetchRequest is the body for task, notification and action list requests.
type FetchRequest struct {
	UserID string `json:"userId"`
	Limit  int    `json:"limit"`
}

// HistoryRequest is the body for conversation history requests.
type HistoryRequest struct {
	ConversationID string `json:"conversationId"`
}

// UpdateRequest reports a user action on a task or notification. Responses
// are judged only by status code.
type UpdateRequest struct {
	ID        string `json:"id"`
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`
}

// NewUpdateRequest stamps an update with at in ISO-8601 UTC.
func NewUpdateRequest(id, action string, at time.Time) UpdateRequest {
	return UpdateRequest{
		ID:        id,
		Action:    action,
		Timestamp: at.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

// ChatRequest sends a message into a conversation.
type ChatRequest struct {
	ConversationID string `json:"conversationId,omitempty"`
	Message        string `json:"message"`
	UserID         string `json:"userId"`
}

// RequestParams fill in list request bodies.
type RequestParams struct {
	UserID         string
	Limit          int
	ConversationID string
}

// Body returns the request body the hub expects for kind.
func (p RequestParams) Body(kind resource.Kind) any {
	switch kind {
	case resource.Conversations:
		return struct{}{}
	case resource.ConversationHistory:
		return HistoryRequest{ConversationID: p.ConversationID}
	default:
		req := FetchRequest{UserID: p.UserID, Limit: p.Limit}
		if req.UserID == "" {
			req.UserID = DefaultUserID
		}
		if req.Limit <= 0 {
			req.Limit = DefaultLimit
		}
		return req
	}
}
