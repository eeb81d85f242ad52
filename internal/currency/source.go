package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/PaesslerAG/jsonpath"
)

// DefaultRateURL serves the latest USD-based rates as JSON.
const DefaultRateURL = "https://open.er-api.com/v6/latest/USD"

// DefaultRatePath locates the MXN quote in the rate document.
const DefaultRatePath = "$.rates.MXN"

var ErrRateUnavailable = errors.New("exchange rate unavailable")

// RateSource fetches the current MXN per USD rate.
type RateSource interface {
	Fetch(ctx context.Context) (float64, error)
}

// HTTPSource reads the rate from a JSON endpoint.
type HTTPSource struct {
	URL    string
	Path   string
	Client *http.Client
}

// NewHTTPSource builds a source against url with a bounded client timeout.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if url == "" {
		url = DefaultRateURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPSource{
		URL:    url,
		Path:   DefaultRatePath,
		Client: &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("build rate request: %w", err)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: GET %s: %s", ErrRateUnavailable, req.URL.Host, resp.Status)
	}

	var doc any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return 0, fmt.Errorf("%w: decode: %v", ErrRateUnavailable, err)
	}
	return extractRate(doc, s.Path)
}

func extractRate(doc any, path string) (float64, error) {
	if path == "" {
		path = DefaultRatePath
	}
	val, err := jsonpath.Get(path, doc)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrRateUnavailable, path, err)
	}
	// jsonpath may answer with a single value or a list of one
	if list, ok := val.([]any); ok && len(list) > 0 {
		val = list[0]
	}
	rate, ok := val.(float64)
	if !ok || !(rate > 0) {
		return 0, fmt.Errorf("%w: %s is %v", ErrRateUnavailable, path, val)
	}
	return rate, nil
}

// StaticSource always answers with the same rate, or Err when set.
type StaticSource struct {
	Rate float64
	Err  error
}

func (s StaticSource) Fetch(context.Context) (float64, error) {
	if s.Err != nil {
		return 0, s.Err
	}
	if !(s.Rate > 0) {
		return 0, ErrRateUnavailable
	}
	return s.Rate, nil
}
