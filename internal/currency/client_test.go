package currency

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const directoryBody = `[
	{"cc":"USD","txt":"US Dollar","rate":41.25},
	{"cc":"EUR","txt":"Euro","rate":44.90}
]`

func TestRateLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(directoryBody))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)

	rate, err := c.Rate(context.Background(), "usd")
	if err != nil {
		t.Fatalf("Rate() error = %v", err)
	}
	if rate.Name != "US Dollar" || rate.Value != 41.25 {
		t.Fatalf("Rate() = %+v", rate)
	}

	// Lookup is case-insensitive and tolerates padding.
	rate, err = c.Rate(context.Background(), " EUR ")
	if err != nil || rate.Code != "EUR" {
		t.Fatalf("Rate(EUR) = %+v, %v", rate, err)
	}
}

func TestRateUnknownCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(directoryBody))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.Rate(context.Background(), "xyz")
	if !errors.Is(err, ErrUnknownCurrency) {
		t.Fatalf("Rate() error = %v, want ErrUnknownCurrency", err)
	}
}

func TestRateServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	if _, err := c.Rate(context.Background(), "usd"); err == nil {
		t.Fatalf("Rate() error = nil for 500")
	}
}

func TestLooksLikeCode(t *testing.T) {
	valid := []string{"usd", "USD", "Eur", " GBP "}
	for _, s := range valid {
		if !LooksLikeCode(s) {
			t.Fatalf("LooksLikeCode(%q) = false", s)
		}
	}
	invalid := []string{"", "us", "usdt", "u1d", "привет", "12."}
	for _, s := range invalid {
		if LooksLikeCode(s) {
			t.Fatalf("LooksLikeCode(%q) = true", s)
		}
	}
}
