package botline

// SendMessageRequest is the payload of a streamed chat message.
// Empty optional fields let the platform use its configured defaults.
type SendMessageRequest struct {
	Message          string `json:"message"`
	SessionID        string `json:"session_id"`
	SelectedProvider string `json:"selected_provider,omitempty"`
	SelectedModel    string `json:"selected_model,omitempty"`
	EnableStreaming  bool   `json:"enable_streaming"`
}
