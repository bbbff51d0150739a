package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"interviewassistant/api"
	rabbit "interviewassistant/pkg/rabbit/pkg"
)

// Mirror copies a transcript entry somewhere outside the process.
type Mirror interface {
	Mirror(ctx context.Context, token string, entry api.ChatEntry) error
}

// ChatMessage converts an entry to the service's chat payload.
func ChatMessage(entry api.ChatEntry) api.ChatMessageRequest {
	msg := api.ChatMessageRequest{
		Sender:      "assistant",
		Message:     entry.Text,
		MessageType: "system",
		MessageMetadata: map[string]interface{}{
			"kind":       string(entry.Kind),
			"entry_id":   entry.ID,
			"created_at": entry.CreatedAt,
		},
	}
	switch entry.Kind {
	case api.ChatUser:
		msg.Sender = "user"
		msg.MessageType = "answer"
	case api.ChatQuestion:
		msg.MessageType = "question"
		msg.MessageMetadata["question_number"] = entry.QuestionNumber
	}
	return msg
}

// HTTPMirror posts entries to POST /interview/{token}/chat.
type HTTPMirror struct {
	client InterviewClient
}

func NewHTTPMirror(client InterviewClient) *HTTPMirror {
	return &HTTPMirror{client: client}
}

func (m *HTTPMirror) Mirror(ctx context.Context, token string, entry api.ChatEntry) error {
	return m.client.AddChatMessage(ctx, token, ChatMessage(entry))
}

// AuditRecord is the message published to the audit queue.
type AuditRecord struct {
	SessionToken string        `json:"session_token"`
	Entry        api.ChatEntry `json:"entry"`
}

// AuditMirror publishes entries to the transcript audit queue.
type AuditMirror struct {
	rabbit rabbit.Rabbit
}

func NewAuditMirror(r rabbit.Rabbit) *AuditMirror {
	return &AuditMirror{rabbit: r}
}

func (m *AuditMirror) Mirror(ctx context.Context, token string, entry api.ChatEntry) error {
	body, err := json.Marshal(AuditRecord{SessionToken: token, Entry: entry})
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}
	return m.rabbit.Publish(ctx, body)
}

// MultiMirror forwards to every sink and joins their errors.
type MultiMirror []Mirror

func (m MultiMirror) Mirror(ctx context.Context, token string, entry api.ChatEntry) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Mirror(ctx, token, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
