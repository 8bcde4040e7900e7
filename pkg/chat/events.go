package chat

import "chat-portal/internal/entity"

type EventType string

const (
	// EventMessage carries a settled message (the optimistic user message or
	// the fully revealed assistant reply).
	EventMessage EventType = "message"
	// EventDelta carries a partial snapshot of the assistant reply while the
	// word-by-word reveal is running.
	EventDelta EventType = "delta"
	// EventStatus carries the loading/thinking/uploading flags.
	EventStatus EventType = "status"
	// EventFiles carries the current attached-file descriptors.
	EventFiles EventType = "files"
	// EventNotify carries a transient user notification.
	EventNotify EventType = "notify"
	// EventNavigate asks the client to move to a newly created chat page.
	EventNavigate EventType = "navigate"
	// EventState carries the full controller snapshot, sent once when a
	// stream connection opens.
	EventState EventType = "state"
)

type StatusSnapshot struct {
	IsLoading   bool `json:"isLoading"`
	IsThinking  bool `json:"isThinking"`
	IsUploading bool `json:"isUploading"`
}

// Event is one unit of controller output, pushed to the browser over the
// stream connection.
type Event struct {
	Type     EventType                 `json:"type"`
	Message  *entity.Message           `json:"message,omitempty"`
	Messages []entity.Message          `json:"messages,omitempty"`
	Options  []entity.OptionItem       `json:"options,omitempty"`
	Status   *StatusSnapshot           `json:"status,omitempty"`
	Files    []entity.UploadedFileInfo `json:"files,omitempty"`
	Level    string                    `json:"level,omitempty"`
	Text     string                    `json:"text,omitempty"`
	URL      string                    `json:"url,omitempty"`
}
