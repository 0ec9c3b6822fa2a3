package store

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("record not found")

// User maps a registered phone number to its current chat session.
type User struct {
	ID        string
	Phone     string
	SessionID string
}

// Project is read-only from the workflow's perspective; rows are owned by an
// external provisioning process.
type Project struct {
	ID          string
	Name        string
	OwnerUserID string
	Developer   string
}

// Task is the local record of a remotely created task. Leader and
// AttachmentPath may be empty.
type Task struct {
	ID             string
	Name           string
	Leader         string
	Description    string
	AttachmentPath string
	ProjectID      string
	CreatedAt      time.Time
}

// Gateway is the relational access the workflow needs: two reads, two
// writes. Writes surface an error instead of ever leaving a partial row.
type Gateway interface {
	UserBySession(ctx context.Context, sessionID string) (User, error)
	ProjectsByPhone(ctx context.Context, phone string) ([]Project, error)
	ProjectByID(ctx context.Context, projectID string) (Project, error)
	UpsertUserSession(ctx context.Context, phone, sessionID string) error
	InsertTask(ctx context.Context, task Task) error
	Close() error
}
