package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxBytes caps accepted attachments at 5 MB.
const DefaultMaxBytes = 5 << 20

// ErrTooLarge marks an attachment over the size cap, whether declared up
// front by the transport or discovered while downloading.
var ErrTooLarge = errors.New("attachment exceeds size limit")

// Downloader fetches attachment files from transport-supplied URLs into a
// local directory.
type Downloader struct {
	dir      string
	maxBytes int64
	client   *http.Client
}

func NewDownloader(dir string, maxBytes int64, timeout time.Duration) *Downloader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if strings.TrimSpace(dir) == "" {
		dir = os.TempDir()
	}
	return &Downloader{
		dir:      dir,
		maxBytes: maxBytes,
		client:   &http.Client{Timeout: timeout},
	}
}

// Fetch downloads the file and returns the local path. declaredSize, when
// positive, lets oversize files be rejected before any bytes move.
func (d *Downloader) Fetch(ctx context.Context, fileURL string, declaredSize int64) (string, error) {
	if declaredSize > d.maxBytes {
		return "", fmt.Errorf("%w: declared %d bytes, limit %d", ErrTooLarge, declaredSize, d.maxBytes)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	res, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download attachment: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download attachment: status %d", res.StatusCode)
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	path := filepath.Join(d.dir, uuid.NewString()+extensionOf(fileURL))
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create attachment file: %w", err)
	}

	// Read one byte past the cap so an oversize body is detected even when
	// the server omits Content-Length.
	n, err := io.Copy(out, io.LimitReader(res.Body, d.maxBytes+1))
	closeErr := out.Close()
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write attachment: %w", err)
	}
	if closeErr != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close attachment file: %w", closeErr)
	}
	if n > d.maxBytes {
		_ = os.Remove(path)
		return "", fmt.Errorf("%w: body over %d bytes", ErrTooLarge, d.maxBytes)
	}
	return path, nil
}

func extensionOf(fileURL string) string {
	u, err := url.Parse(fileURL)
	if err != nil {
		return ".jpg"
	}
	ext := strings.ToLower(filepath.Ext(u.Path))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return ext
	default:
		return ".jpg"
	}
}
