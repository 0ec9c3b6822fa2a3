package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkazmirchuk/workbot/internal/chat"
	"github.com/pkazmirchuk/workbot/internal/currency"
	"github.com/pkazmirchuk/workbot/internal/observability"
	"github.com/pkazmirchuk/workbot/internal/state"
	"github.com/pkazmirchuk/workbot/internal/store"
	"github.com/pkazmirchuk/workbot/internal/worksection"
)

// TaskService is the remote task-tracking API surface the workflow needs.
type TaskService interface {
	CreateTask(ctx context.Context, req worksection.CreateTaskRequest) error
	ProjectManager(ctx context.Context, projectID string) (string, error)
}

// Downloader fetches a transport-hosted attachment to a local path.
type Downloader interface {
	Fetch(ctx context.Context, fileURL string, declaredSize int64) (string, error)
}

// RateLookup answers the currency fallback. Optional; nil disables it.
type RateLookup interface {
	Rate(ctx context.Context, code string) (currency.Rate, error)
}

const (
	skipCommand  = "skip"
	startCommand = "/start"
)

func isStartCommand(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return t == startCommand || t == "start"
}

// Orchestrator drives the task-creation workflow: it loads the session's
// draft, dispatches on (phase, event kind), mutates state through the draft
// store and collaborators, and emits the next prompt. It assumes the caller
// (Dispatcher) serializes events per session.
type Orchestrator struct {
	drafts  state.Store
	gateway store.Gateway
	remote  TaskService
	files   Downloader
	rates   RateLookup
	sender  chat.Sender
	metrics *observability.Metrics
	logger  *slog.Logger

	remoteTimeout   time.Duration
	downloadTimeout time.Duration
}

func NewOrchestrator(
	drafts state.Store,
	gateway store.Gateway,
	remote TaskService,
	files Downloader,
	rates RateLookup,
	sender chat.Sender,
	metrics *observability.Metrics,
	logger *slog.Logger,
	remoteTimeout time.Duration,
	downloadTimeout time.Duration,
) *Orchestrator {
	if remoteTimeout <= 0 {
		remoteTimeout = 15 * time.Second
	}
	if downloadTimeout <= 0 {
		downloadTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		drafts:          drafts,
		gateway:         gateway,
		remote:          remote,
		files:           files,
		rates:           rates,
		sender:          sender,
		metrics:         metrics,
		logger:          logger.With("component", "workflow"),
		remoteTimeout:   remoteTimeout,
		downloadTimeout: downloadTimeout,
	}
}

// Handle processes one inbound event for its session.
func (o *Orchestrator) Handle(ctx context.Context, ev chat.Event) error {
	o.metrics.WorkflowEvents.WithLabelValues(string(ev.Kind)).Inc()

	draft, err := o.drafts.Get(ctx, ev.SessionID)
	inFlow := true
	if err != nil {
		if !errors.Is(err, state.ErrNotFound) {
			o.countError(err)
			o.send(ctx, ev.SessionID, transientErrorPrompt())
			return fmt.Errorf("load draft: %w", err)
		}
		inFlow = false
	}

	// A shared contact always (re)starts project selection, mid-flow or not;
	// the transport surfaces it only through an explicit user action.
	if ev.Kind == chat.KindContact {
		return o.handleContact(ctx, ev, inFlow)
	}

	if !inFlow {
		return o.handleIdle(ctx, ev)
	}

	switch draft.Phase {
	case state.PhaseProjectList:
		return o.handleProjectList(ctx, ev, draft)
	case state.PhaseAwaitingTaskName:
		return o.handleTaskName(ctx, ev, draft)
	case state.PhaseAwaitingDescription:
		return o.handleDescription(ctx, ev, draft)
	case state.PhaseAwaitingPhoto:
		return o.handlePhoto(ctx, ev, draft)
	default:
		// Unknown persisted phase means a corrupt draft; drop it rather than
		// wedge the session.
		o.logger.Warn("dropping draft with unknown phase",
			"session_id", ev.SessionID, "phase", string(draft.Phase))
		o.deleteDraft(ctx, ev.SessionID)
		o.send(ctx, ev.SessionID, fallbackPrompt())
		return nil
	}
}

// handleIdle answers events for sessions with no draft: the start greeting,
// the currency lookup for three-letter codes, and the generic fallback.
func (o *Orchestrator) handleIdle(ctx context.Context, ev chat.Event) error {
	if ev.Kind == chat.KindText && isStartCommand(ev.Text) {
		o.send(ctx, ev.SessionID, greetingPrompt())
		return nil
	}
	if ev.Kind == chat.KindText && o.rates != nil && currency.LooksLikeCode(ev.Text) {
		rate, err := o.rates.Rate(ctx, ev.Text)
		if err != nil {
			if errors.Is(err, currency.ErrUnknownCurrency) {
				o.send(ctx, ev.SessionID, currencyUnknownPrompt())
				return nil
			}
			o.countError(err)
			o.send(ctx, ev.SessionID, transientErrorPrompt())
			return fmt.Errorf("currency lookup: %w", err)
		}
		o.send(ctx, ev.SessionID, currencyPrompt(rate.Name, rate.Value))
		return nil
	}
	o.send(ctx, ev.SessionID, fallbackPrompt())
	return nil
}

func (o *Orchestrator) handleContact(ctx context.Context, ev chat.Event, inFlow bool) error {
	if !validPhone(ev.Phone) {
		o.metrics.WorkflowErrors.WithLabelValues(string(KindValidation)).Inc()
		o.send(ctx, ev.SessionID, invalidPhonePrompt())
		return nil
	}
	phone := normalizePhone(ev.Phone)

	if err := o.gateway.UpsertUserSession(ctx, phone, ev.SessionID); err != nil {
		o.countError(&PersistenceError{Op: "upsert user session", Err: err})
		o.send(ctx, ev.SessionID, transientErrorPrompt())
		return fmt.Errorf("upsert user session: %w", err)
	}

	projects, err := o.gateway.ProjectsByPhone(ctx, phone)
	if err != nil {
		o.countError(err)
		o.send(ctx, ev.SessionID, transientErrorPrompt())
		return fmt.Errorf("load projects: %w", err)
	}
	if len(projects) == 0 {
		if inFlow {
			o.deleteDraft(ctx, ev.SessionID)
		}
		o.send(ctx, ev.SessionID, noProjectsPrompt())
		return nil
	}

	page := Paginate(projects, 0)
	draft := state.Draft{
		SessionID: ev.SessionID,
		Phase:     state.PhaseProjectList,
		Phone:     phone,
		Page:      0,
	}
	if err := o.drafts.Put(ctx, draft); err != nil {
		o.countError(err)
		o.send(ctx, ev.SessionID, transientErrorPrompt())
		return fmt.Errorf("store draft: %w", err)
	}
	if !inFlow {
		o.metrics.ActiveDrafts.Inc()
	}
	o.send(ctx, ev.SessionID, projectListPrompt(page))
	return nil
}

func (o *Orchestrator) handleProjectList(ctx context.Context, ev chat.Event, draft state.Draft) error {
	if ev.Kind != chat.KindButton {
		// Unrelated to this phase; the project keyboard is still on screen.
		return nil
	}

	if page, ok := chat.ParsePage(ev.Payload); ok {
		projects, err := o.gateway.ProjectsByPhone(ctx, draft.Phone)
		if err != nil {
			o.countError(err)
			o.send(ctx, ev.SessionID, transientErrorPrompt())
			return fmt.Errorf("load projects: %w", err)
		}
		view := Paginate(projects, page)
		draft.Page = view.Page
		if err := o.drafts.Put(ctx, draft); err != nil {
			o.countError(err)
			o.send(ctx, ev.SessionID, transientErrorPrompt())
			return fmt.Errorf("store draft: %w", err)
		}
		o.send(ctx, ev.SessionID, projectListPrompt(view))
		return nil
	}

	if projectID, ok := chat.ParseSelectProject(ev.Payload); ok {
		project, err := o.gateway.ProjectByID(ctx, projectID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				o.metrics.WorkflowErrors.WithLabelValues(string(KindNotFound)).Inc()
				o.send(ctx, ev.SessionID, projectMissingPrompt())
				return nil
			}
			o.countError(err)
			o.send(ctx, ev.SessionID, transientErrorPrompt())
			return fmt.Errorf("load project: %w", err)
		}

		draft.Phase = state.PhaseAwaitingTaskName
		draft.ProjectID = project.ID
		draft.ProjectName = project.Name
		if err := o.drafts.Put(ctx, draft); err != nil {
			o.countError(err)
			o.send(ctx, ev.SessionID, transientErrorPrompt())
			return fmt.Errorf("store draft: %w", err)
		}
		o.send(ctx, ev.SessionID, taskNamePrompt(project.Name))
		return nil
	}

	return nil
}

func (o *Orchestrator) handleTaskName(ctx context.Context, ev chat.Event, draft state.Draft) error {
	if ev.Kind != chat.KindText {
		return nil
	}
	name := strings.TrimSpace(ev.Text)
	if err := validTaskName(name); err != nil {
		var vErr *ValidationError
		errors.As(err, &vErr)
		o.metrics.WorkflowErrors.WithLabelValues(string(KindValidation)).Inc()
		o.send(ctx, ev.SessionID, retryPrompt(vErr.Reason))
		return nil
	}

	draft.Phase = state.PhaseAwaitingDescription
	draft.TaskName = name
	if err := o.drafts.Put(ctx, draft); err != nil {
		o.countError(err)
		o.send(ctx, ev.SessionID, transientErrorPrompt())
		return fmt.Errorf("store draft: %w", err)
	}
	o.send(ctx, ev.SessionID, descriptionPrompt())
	return nil
}

func (o *Orchestrator) handleDescription(ctx context.Context, ev chat.Event, draft state.Draft) error {
	if ev.Kind != chat.KindText {
		return nil
	}
	text := strings.TrimSpace(ev.Text)
	if err := validDescription(text); err != nil {
		var vErr *ValidationError
		errors.As(err, &vErr)
		o.metrics.WorkflowErrors.WithLabelValues(string(KindValidation)).Inc()
		o.send(ctx, ev.SessionID, retryPrompt(vErr.Reason))
		return nil
	}

	draft.Phase = state.PhaseAwaitingPhoto
	draft.Description = text
	if err := o.drafts.Put(ctx, draft); err != nil {
		o.countError(err)
		o.send(ctx, ev.SessionID, transientErrorPrompt())
		return fmt.Errorf("store draft: %w", err)
	}
	o.send(ctx, ev.SessionID, photoPrompt())
	return nil
}

func (o *Orchestrator) handlePhoto(ctx context.Context, ev chat.Event, draft state.Draft) error {
	switch ev.Kind {
	case chat.KindText:
		if strings.EqualFold(strings.TrimSpace(ev.Text), skipCommand) {
			draft.AttachmentPath = ""
			return o.finalize(ctx, draft)
		}
		o.send(ctx, ev.SessionID, photoPrompt())
		return nil
	case chat.KindPhoto:
		dctx, cancel := context.WithTimeout(ctx, o.downloadTimeout)
		defer cancel()
		path, err := o.files.Fetch(dctx, ev.FileURL, ev.FileSize)
		if err != nil {
			o.countError(err)
			o.logger.Warn("attachment rejected",
				"session_id", ev.SessionID, "error", err)
			o.send(ctx, ev.SessionID, photoFailedPrompt())
			return nil
		}
		draft.AttachmentPath = path
		return o.finalize(ctx, draft)
	default:
		return nil
	}
}

// finalize runs the consistency-critical completion sequence. The draft is
// deleted before the remote call so a duplicate trigger cannot create a
// second remote task; a failure after that point therefore never retries.
func (o *Orchestrator) finalize(ctx context.Context, draft state.Draft) error {
	if err := o.drafts.Delete(ctx, draft.SessionID); err != nil {
		// Without the delete the at-most-once guarantee is gone; keep the
		// draft and let the user trigger completion again.
		o.countError(err)
		o.send(ctx, draft.SessionID, transientErrorPrompt())
		return fmt.Errorf("clear draft: %w", err)
	}
	o.metrics.ActiveDrafts.Dec()

	rctx, cancel := context.WithTimeout(ctx, o.remoteTimeout)
	start := time.Now()
	err := o.remote.CreateTask(rctx, worksection.CreateTaskRequest{
		ProjectID:      draft.ProjectID,
		Title:          draft.TaskName,
		Text:           draft.Description,
		AttachmentPath: draft.AttachmentPath,
	})
	cancel()
	o.metrics.ObserveRemoteLatency("post_task", time.Since(start))

	if err != nil {
		o.metrics.FinalizeOutcomes.WithLabelValues("remote_failed").Inc()
		o.countError(err)
		o.logger.Warn("remote task creation failed",
			"session_id", draft.SessionID,
			"project_id", draft.ProjectID,
			"error", err)
		o.send(ctx, draft.SessionID, remoteFailedPrompt())
		return nil
	}

	leader := o.lookupLeader(ctx, draft.ProjectID)

	task := store.Task{
		ID:             uuid.NewString(),
		Name:           draft.TaskName,
		Leader:         leader,
		Description:    draft.Description,
		AttachmentPath: draft.AttachmentPath,
		ProjectID:      draft.ProjectID,
		CreatedAt:      time.Now().UTC(),
	}
	if err := o.gateway.InsertTask(ctx, task); err != nil {
		// The remote task exists but the local record does not. Surface both
		// outcomes separately and leave an operator enough to reconcile.
		o.metrics.FinalizeOutcomes.WithLabelValues("persist_failed").Inc()
		o.metrics.WorkflowErrors.WithLabelValues(string(KindPersistence)).Inc()
		o.logger.Error("task created remotely but local persistence failed",
			"session_id", draft.SessionID,
			"project_id", draft.ProjectID,
			"task_name", draft.TaskName,
			"error", err)
		o.send(ctx, draft.SessionID, remoteCreatedPrompt(draft.TaskName))
		o.send(ctx, draft.SessionID, localSaveFailedPrompt())
		return nil
	}

	o.metrics.FinalizeOutcomes.WithLabelValues("success").Inc()
	o.logger.Info("task created",
		"session_id", draft.SessionID,
		"project_id", draft.ProjectID,
		"task_id", task.ID)
	o.send(ctx, draft.SessionID, completedPrompt(draft.TaskName, leader))
	return nil
}

// lookupLeader resolves the project manager's name, degrading to empty on
// any failure.
func (o *Orchestrator) lookupLeader(ctx context.Context, projectID string) string {
	rctx, cancel := context.WithTimeout(ctx, o.remoteTimeout)
	defer cancel()
	start := time.Now()
	leader, err := o.remote.ProjectManager(rctx, projectID)
	o.metrics.ObserveRemoteLatency("get_project", time.Since(start))
	if err != nil {
		o.logger.Warn("project manager lookup failed",
			"project_id", projectID, "error", err)
		return ""
	}
	return leader
}

func (o *Orchestrator) deleteDraft(ctx context.Context, sessionID string) {
	if err := o.drafts.Delete(ctx, sessionID); err != nil {
		o.logger.Warn("draft delete failed", "session_id", sessionID, "error", err)
		return
	}
	o.metrics.ActiveDrafts.Dec()
}

func (o *Orchestrator) send(ctx context.Context, sessionID string, prompt chat.Prompt) {
	if err := o.sender.SendPrompt(ctx, sessionID, prompt); err != nil {
		o.metrics.PromptsSent.WithLabelValues("error").Inc()
		o.logger.Warn("prompt delivery failed", "session_id", sessionID, "error", err)
		return
	}
	o.metrics.PromptsSent.WithLabelValues("ok").Inc()
}

func (o *Orchestrator) countError(err error) {
	o.metrics.WorkflowErrors.WithLabelValues(string(Classify(err))).Inc()
}
