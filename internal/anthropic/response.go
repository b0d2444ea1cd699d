package anthropic

import "fmt"

// ContentBlock is a single block of model output.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Response is a successful message completion.
type Response struct {
	Content []ContentBlock
}

// Text returns the text of the first content block.
func (r *Response) Text() string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	return r.Content[0].Text
}

// APIError is a structured error reported by the provider. Its message is
// safe to pass through to gateway callers.
type APIError struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return "anthropic error"
	}
	if e.Type != "" {
		return fmt.Sprintf("anthropic: %s: %s", e.Type, e.Message)
	}
	return "anthropic: " + e.Message
}

type messagesResponse struct {
	Content []ContentBlock `json:"content"`
	Error   *APIError      `json:"error,omitempty"`
}

func toResponse(resp *messagesResponse, statusCode int) (*Response, error) {
	if resp == nil {
		return nil, fmt.Errorf("empty response")
	}

	if resp.Error != nil {
		resp.Error.StatusCode = statusCode
		return nil, resp.Error
	}

	// The expected shape is content[0].text; anything else is treated as a
	// transport failure rather than faulting on a missing block.
	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("response has no content blocks (status %d)", statusCode)
	}

	return &Response{Content: resp.Content}, nil
}
