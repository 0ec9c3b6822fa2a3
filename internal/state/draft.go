package state

import "time"

// Phase enumerates the workflow steps that carry a persisted draft. Idle is
// represented by the absence of a draft, and the completing step never
// persists one.
type Phase string

const (
	PhaseProjectList         Phase = "project_list"
	PhaseAwaitingTaskName    Phase = "awaiting_task_name"
	PhaseAwaitingDescription Phase = "awaiting_description"
	PhaseAwaitingPhoto       Phase = "awaiting_photo"
)

func (p Phase) Valid() bool {
	switch p {
	case PhaseProjectList, PhaseAwaitingTaskName, PhaseAwaitingDescription, PhaseAwaitingPhoto:
		return true
	default:
		return false
	}
}

// Draft is the task-creation state accumulated across workflow phases for
// one session. Fields are filled in phase order and never cleared until the
// whole draft is deleted.
type Draft struct {
	SessionID      string    `json:"session_id"`
	Phase          Phase     `json:"phase"`
	Phone          string    `json:"phone"`
	Page           int       `json:"page"`
	ProjectID      string    `json:"project_id,omitempty"`
	ProjectName    string    `json:"project_name,omitempty"`
	TaskName       string    `json:"task_name,omitempty"`
	Description    string    `json:"description,omitempty"`
	AttachmentPath string    `json:"attachment_path,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}
