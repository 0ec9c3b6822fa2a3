package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryGateway is an in-process gateway for tests and local development.
type MemoryGateway struct {
	mu       sync.RWMutex
	users    map[string]User    // by phone
	projects map[string]Project // by id
	tasks    map[string]Task    // by id

	failInsertTask error
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		users:    make(map[string]User),
		projects: make(map[string]Project),
		tasks:    make(map[string]Task),
	}
}

// AddUser seeds a registered user and returns its id.
func (g *MemoryGateway) AddUser(phone string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	u := User{ID: uuid.NewString(), Phone: phone}
	g.users[phone] = u
	return u.ID
}

// AddProject seeds a project owned by the given user.
func (g *MemoryGateway) AddProject(id, name, ownerUserID, developer string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.projects[id] = Project{ID: id, Name: name, OwnerUserID: ownerUserID, Developer: developer}
}

// FailInsertTask makes subsequent InsertTask calls return the given error.
func (g *MemoryGateway) FailInsertTask(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failInsertTask = err
}

func (g *MemoryGateway) UserBySession(_ context.Context, sessionID string) (User, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, u := range g.users {
		if u.SessionID == sessionID {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (g *MemoryGateway) ProjectsByPhone(_ context.Context, phone string) ([]Project, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	u, ok := g.users[phone]
	if !ok {
		return nil, nil
	}
	var out []Project
	for _, p := range g.projects {
		if p.OwnerUserID == u.ID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (g *MemoryGateway) ProjectByID(_ context.Context, projectID string) (Project, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	p, ok := g.projects[projectID]
	if !ok {
		return Project{}, ErrNotFound
	}
	return p, nil
}

func (g *MemoryGateway) UpsertUserSession(_ context.Context, phone, sessionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for key, u := range g.users {
		if u.SessionID == sessionID && u.Phone != phone {
			u.SessionID = ""
			g.users[key] = u
		}
	}
	u, ok := g.users[phone]
	if !ok {
		u = User{ID: uuid.NewString(), Phone: phone}
	}
	u.SessionID = sessionID
	g.users[phone] = u
	return nil
}

func (g *MemoryGateway) InsertTask(_ context.Context, task Task) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failInsertTask != nil {
		return g.failInsertTask
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	g.tasks[task.ID] = task
	return nil
}

// Tasks returns a snapshot of all inserted tasks.
func (g *MemoryGateway) Tasks() []Task {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Task, 0, len(g.tasks))
	for _, t := range g.tasks {
		out = append(out, t)
	}
	return out
}

func (g *MemoryGateway) Close() error { return nil }
