package files

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFetchWritesFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("image-bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	d := NewDownloader(dir, 1024, time.Second)

	path, err := d.Fetch(context.Background(), srv.URL+"/photos/pic.png", 11)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("file written to %q, want %q", filepath.Dir(path), dir)
	}
	if filepath.Ext(path) != ".png" {
		t.Fatalf("extension = %q, want .png", filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "image-bytes" {
		t.Fatalf("content = %q", data)
	}
}

func TestFetchUnknownExtensionDefaultsToJPG(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	d := NewDownloader(t.TempDir(), 1024, time.Second)
	path, err := d.Fetch(context.Background(), srv.URL+"/file.exe", 1)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if filepath.Ext(path) != ".jpg" {
		t.Fatalf("extension = %q, want .jpg", filepath.Ext(path))
	}
}

func TestFetchRejectsDeclaredOversizeWithoutDownloading(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
	}))
	defer srv.Close()

	d := NewDownloader(t.TempDir(), 1024, time.Second)
	_, err := d.Fetch(context.Background(), srv.URL+"/big.jpg", 2048)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("Fetch() error = %v, want ErrTooLarge", err)
	}
	if hits != 0 {
		t.Fatalf("server hit %d times for a pre-rejected file", hits)
	}
}

func TestFetchRejectsOversizeBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// No Content-Length up front; the body itself is over the cap.
		_, _ = w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer srv.Close()

	dir := t.TempDir()
	d := NewDownloader(dir, 50, time.Second)
	_, err := d.Fetch(context.Background(), srv.URL+"/sneaky.jpg", 0)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("Fetch() error = %v, want ErrTooLarge", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("partial file left behind: %v", entries)
	}
}

func TestFetchNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d := NewDownloader(t.TempDir(), 1024, time.Second)
	if _, err := d.Fetch(context.Background(), srv.URL+"/gone.jpg", 0); err == nil {
		t.Fatalf("Fetch() error = nil for 404")
	}
}
