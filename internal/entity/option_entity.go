package entity

// OptionItem is a selectable external data source. Selecting one switches the
// message-send path from plain chat to the external-API-backed chat endpoint
// until it is cleared again.
type OptionItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Active      bool   `json:"active"`
}
