// Package currency looks up daily exchange rates from the national bank's
// public statistics API. It backs the chat fallback: free text outside a
// workflow that looks like a currency code gets answered with today's rate.
package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultEndpoint = "https://bank.gov.ua/NBUStatService/v1/statdirectory/exchange?json"

var ErrUnknownCurrency = errors.New("unknown currency code")

// Rate is one entry of the exchange directory.
type Rate struct {
	Code  string  `json:"cc"`
	Name  string  `json:"txt"`
	Value float64 `json:"rate"`
}

type Client struct {
	endpoint   string
	httpClient *http.Client
}

func New(endpoint string, timeout time.Duration) *Client {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Rate returns today's rate for the given code (case-insensitive).
func (c *Client) Rate(ctx context.Context, code string) (Rate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return Rate{}, fmt.Errorf("create request: %w", err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return Rate{}, fmt.Errorf("fetch rates: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return Rate{}, fmt.Errorf("fetch rates: status %d", res.StatusCode)
	}

	var rates []Rate
	if err := json.NewDecoder(io.LimitReader(res.Body, 4<<20)).Decode(&rates); err != nil {
		return Rate{}, fmt.Errorf("decode rates: %w", err)
	}

	want := strings.ToUpper(strings.TrimSpace(code))
	for _, r := range rates {
		if strings.ToUpper(r.Code) == want {
			return r, nil
		}
	}
	return Rate{}, fmt.Errorf("%w: %s", ErrUnknownCurrency, want)
}

// LooksLikeCode reports whether free text plausibly names a currency code,
// so the fallback handler knows whether to try a lookup at all.
func LooksLikeCode(text string) bool {
	t := strings.TrimSpace(text)
	if len(t) != 3 {
		return false
	}
	for _, r := range t {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
