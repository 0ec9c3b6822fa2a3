package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// EventKind identifies inbound chat payload variants.
type EventKind string

const (
	KindText    EventKind = "text"
	KindContact EventKind = "contact"
	KindPhoto   EventKind = "photo"
	KindButton  EventKind = "button"
)

var ErrUnsupportedKind = errors.New("unsupported event kind")

type envelope struct {
	Kind EventKind `json:"kind"`
}

// Event is one inbound message from the chat transport. Exactly the fields
// for its Kind are populated; the rest stay zero.
type Event struct {
	Kind      EventKind `json:"kind"`
	SessionID string    `json:"session_id"`

	// text
	Text string `json:"text,omitempty"`

	// contact
	Phone string `json:"phone,omitempty"`

	// photo
	FileURL  string `json:"file_url,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`

	// button
	Payload string `json:"payload,omitempty"`
}

// ParseEvent decodes and validates a transport message.
func ParseEvent(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Event{}, fmt.Errorf("invalid envelope: %w", err)
	}

	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Event{}, err
	}
	if strings.TrimSpace(ev.SessionID) == "" {
		return Event{}, errors.New("missing session_id")
	}

	switch env.Kind {
	case KindText:
		if ev.Text == "" {
			return Event{}, errors.New("invalid text event: empty text")
		}
	case KindContact:
		if strings.TrimSpace(ev.Phone) == "" {
			return Event{}, errors.New("invalid contact event: empty phone")
		}
	case KindPhoto:
		if strings.TrimSpace(ev.FileURL) == "" {
			return Event{}, errors.New("invalid photo event: empty file_url")
		}
	case KindButton:
		if strings.TrimSpace(ev.Payload) == "" {
			return Event{}, errors.New("invalid button event: empty payload")
		}
	default:
		return Event{}, ErrUnsupportedKind
	}
	return ev, nil
}

// Button payload wire format, kept compatible with the original transport:
// "select_project_<id>" and "page_<n>".
const (
	selectPrefix = "select_project_"
	pagePrefix   = "page_"
)

func SelectProjectPayload(projectID string) string {
	return selectPrefix + projectID
}

func PagePayload(page int) string {
	return pagePrefix + strconv.Itoa(page)
}

// ParseSelectProject returns the project id from a select payload.
func ParseSelectProject(payload string) (string, bool) {
	if !strings.HasPrefix(payload, selectPrefix) {
		return "", false
	}
	id := strings.TrimPrefix(payload, selectPrefix)
	if id == "" {
		return "", false
	}
	return id, true
}

// ParsePage returns the page index from a navigation payload.
func ParsePage(payload string) (int, bool) {
	if !strings.HasPrefix(payload, pagePrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(payload, pagePrefix))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
