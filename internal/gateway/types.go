package gateway

import "encoding/json"

// chatRequest is the inbound chat payload. Messages stays raw until
// validated so that an absent field, a null, and a non-array can all be
// told apart from a legitimate empty array.
type chatRequest struct {
	Messages   json.RawMessage `json:"messages"`
	UserAPIKey string          `json:"userApiKey"`
}

// chatResponse is the success payload returned to the frontend.
type chatResponse struct {
	Content      string `json:"content"`
	UsingUserKey bool   `json:"usingUserKey"`
}

// errorResponse is the flat error shape the frontend expects. ResetIn is
// only present on rate-limit denials.
type errorResponse struct {
	Error   string `json:"error"`
	ResetIn int    `json:"resetIn,omitempty"`
}
