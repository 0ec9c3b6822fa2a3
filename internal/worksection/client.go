package worksection

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Sentinel failures for callers that only need the failure class; the
// wrapped message carries the specifics.
var (
	// ErrRemoteStatus marks a non-200 HTTP response from the task service.
	ErrRemoteStatus = errors.New("remote task service returned non-200 status")
	// ErrMalformedResponse marks a body that is not the expected JSON shape.
	ErrMalformedResponse = errors.New("malformed remote task service response")
)

// APIError is an application-level rejection: HTTP 200 with status != "ok".
type APIError struct {
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("task service error: %s", e.Detail)
}

// Client talks to the remote task-tracking API. Requests carry the service's
// query-signature scheme: an md5 digest over the canonical query string with
// the shared secret appended, passed as the hash parameter.
type Client struct {
	baseURL    string
	secret     string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(baseURL, secret string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "?"),
		secret:     secret,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("client", "worksection"),
	}
}

// CreateTaskRequest carries the collected draft fields for post_task.
type CreateTaskRequest struct {
	ProjectID      string
	Title          string
	Text           string
	AttachmentPath string
}

// signedURL builds the request URL for an operation. The digest is computed
// over the raw canonical query with the secret appended, exactly as the
// remote end reconstructs it: fixed field order, plain concatenation, no
// escaping. Only the transmitted URL percent-encodes the values.
func (c *Client) signedURL(action, projectID, title, text string) string {
	raw := canonicalQuery(action, projectID, title, text, false)
	wire := canonicalQuery(action, projectID, title, text, true)
	return c.baseURL + "?" + wire + "&hash=" + signQuery(raw, c.secret)
}

func canonicalQuery(action, projectID, title, text string, escape bool) string {
	enc := func(v string) string {
		if !escape {
			return v
		}
		return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
	}
	query := "action=" + action + "&id_project=" + enc(projectID)
	if action == actionPostTask {
		query += "&title=" + enc(title) + "&text=" + enc(text)
	}
	return query
}

func signQuery(query, secret string) string {
	sum := md5.Sum([]byte(query + secret))
	return hex.EncodeToString(sum[:])
}

const (
	actionPostTask   = "post_task"
	actionGetProject = "get_project"
)

type statusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// CreateTask submits the task to the remote service. The attachment, when
// set, is sent as a single multipart part named attach[0].
func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) error {
	url := c.signedURL(actionPostTask, req.ProjectID, req.Title, req.Text)

	var (
		body        io.Reader
		contentType string
	)
	if req.AttachmentPath != "" {
		buf, ct, err := attachmentBody(req.AttachmentPath)
		if err != nil {
			return err
		}
		body = buf
		contentType = ct
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("post_task: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("post_task: %w: %d", ErrRemoteStatus, res.StatusCode)
	}

	var parsed statusResponse
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(&parsed); err != nil {
		return fmt.Errorf("post_task: %w: %v", ErrMalformedResponse, err)
	}
	if parsed.Status != "ok" {
		detail := parsed.Error
		if detail == "" {
			detail = "unknown API error"
		}
		return &APIError{Detail: detail}
	}

	c.logger.Info("remote task created", "project_id", req.ProjectID, "title", req.Title)
	return nil
}

// ProjectManager resolves the display name of the project's manager from the
// get_project response (user_to.name). Callers treat any failure here as
// best-effort and degrade to an empty leader.
func (c *Client) ProjectManager(ctx context.Context, projectID string) (string, error) {
	url := c.signedURL(actionGetProject, projectID, "", "")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("get_project: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("get_project: %w: %d", ErrRemoteStatus, res.StatusCode)
	}

	var parsed struct {
		UserTo struct {
			Name string `json:"name"`
		} `json:"user_to"`
	}
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(&parsed); err != nil {
		return "", fmt.Errorf("get_project: %w: %v", ErrMalformedResponse, err)
	}
	if strings.TrimSpace(parsed.UserTo.Name) == "" {
		return "", fmt.Errorf("get_project: %w: missing user_to.name", ErrMalformedResponse)
	}
	return parsed.UserTo.Name, nil
}

func attachmentBody(path string) (*bytes.Buffer, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read attachment: %w", err)
	}

	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="attach[0]"; filename=%q`, filepath.Base(path)))
	header.Set("Content-Type", imageContentType(path))
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("write attachment part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf, writer.FormDataContentType(), nil
}

func imageContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
