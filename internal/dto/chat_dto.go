package dto

type NewConversationRequest struct {
	Message string `json:"message" validate:"required"`
}

type SendMessageRequest struct {
	Message      string  `json:"message" validate:"required"`
	SourceFileID *string `json:"source_file_id,omitempty"`
}

// StreamCommand is one inbound frame on the chat stream connection.
type StreamCommand struct {
	Action   string `json:"action"` // submit | select_option | remove_file
	Input    string `json:"input,omitempty"`
	OptionID string `json:"option_id,omitempty"`
	Index    int    `json:"index,omitempty"`
}
