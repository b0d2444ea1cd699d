package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Message is one turn of the conversation. Only role and content are carried;
// anything else a caller sends is dropped before it reaches the wire. Content
// stays opaque JSON so plain strings and content-block arrays both pass
// through for the provider to validate.
type Message struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content,omitempty"`
}

// Request is a message-completion request.
type Request struct {
	Model     string
	MaxTokens int
	System    string
	Messages  []Message
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
}

func buildMessagesRequest(req *Request) (*messagesRequest, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if strings.TrimSpace(req.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}

	// An empty messages slice is deliberately not rejected here: the
	// provider's own validation error is part of the pass-through contract.
	messages := req.Messages
	if messages == nil {
		messages = []Message{}
	}

	return &messagesRequest{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
		System:    req.System,
		Messages:  messages,
	}, nil
}
