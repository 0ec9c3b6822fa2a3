package chat

// Button is one selectable keyboard entry. Payload comes back verbatim in a
// button event when pressed.
type Button struct {
	Label   string `json:"label"`
	Payload string `json:"payload"`
}

// Prompt is the semantic content of one outbound message. Rendering is the
// transport's concern.
type Prompt struct {
	Text           string     `json:"text"`
	Keyboard       [][]Button `json:"keyboard,omitempty"`
	RequestContact bool       `json:"request_contact,omitempty"`
	RemoveKeyboard bool       `json:"remove_keyboard,omitempty"`
}
