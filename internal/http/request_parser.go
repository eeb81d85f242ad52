// This file implements utilities for parsing and validating HTTP request data:
// JSON or form bodies, optional numbers and the shared query parameters of
// the read endpoints.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"zent/internal/core"
	"zent/internal/strategy"
)

// maxBodyBytes bounds JSON and form bodies. Imports have their own limit.
const maxBodyBytes = 1 << 20

var errBodyTooLarge = errors.New("request body too large")

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON objects and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}

	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = errBodyTooLarge
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	body := strings.TrimSpace(string(p.body))
	if body == "" {
		p.formData = url.Values{}
		return nil
	}

	if body[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(body), &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(body)
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Has reports whether key was sent at all.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	return p.formData != nil && p.formData.Has(key)
}

// GetFloat reads a positive amount rounded to cents. Missing keys yield 0
// and no error; a comma decimal separator is accepted.
func (p *RequestBodyParser) GetFloat(key string) (float64, error) {
	v := p.Get(key)
	if v == "" {
		return 0, nil
	}
	f, err := core.ParseAmount(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

// GetRate reads an optional exchange rate. A missing key means none.
func (p *RequestBodyParser) GetRate(key string) (*float64, error) {
	v := p.Get(key)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || !core.ValidAmount(f) {
		return nil, fmt.Errorf("%s: %w", key, core.ErrInvalidRate)
	}
	return &f, nil
}

// GetBool reads a boolean; anything but a true literal is false.
func (p *RequestBodyParser) GetBool(key string) bool {
	switch strings.ToLower(p.Get(key)) {
	case "true", "1", "on", "yes":
		return true
	}
	return false
}

// GetTime reads an RFC 3339 timestamp or a YYYY-MM-DD date. Missing keys
// yield the zero time.
func (p *RequestBodyParser) GetTime(key string) (time.Time, error) {
	v := p.Get(key)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := parseTimestamp(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", key, err)
	}
	return t, nil
}

// GetRaw returns the raw body bytes.
func (p *RequestBodyParser) GetRaw() []byte {
	return p.body
}

// ContentType returns the Content-Type header value.
func (p *RequestBodyParser) ContentType() string {
	return p.contentType
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	default:
		return ""
	}
}

// ParseDateRange reads the inclusive from/to query parameters. Either end
// may be omitted; nil is returned when both are.
func ParseDateRange(query url.Values) (*core.DateRange, error) {
	var rng core.DateRange
	if v := strings.TrimSpace(query.Get("from")); v != "" {
		t, err := parseTimestamp(v)
		if err != nil {
			return nil, fmt.Errorf("from: %w", err)
		}
		rng.From = t
	}
	if v := strings.TrimSpace(query.Get("to")); v != "" {
		t, err := parseTimestamp(v)
		if err != nil {
			return nil, fmt.Errorf("to: %w", err)
		}
		if len(v) == len(dateLayout) {
			t = endOfDay(t)
		}
		rng.To = t
	}
	if !rng.Active() {
		return nil, nil
	}
	if !rng.From.IsZero() && !rng.To.IsZero() && rng.To.Before(rng.From) {
		return nil, errors.New("to is before from")
	}
	return &rng, nil
}

// ParseStrategyOverrides applies the needs/wants/future percentage and
// needs_account/wants_account/future_account query parameters on top of
// base. The second result reports whether anything was overridden.
func ParseStrategyOverrides(query url.Values, base core.StrategyConfig) (core.StrategyConfig, bool, error) {
	cfg := base
	changed := false
	for _, b := range core.Buckets {
		if v := strings.TrimSpace(query.Get(string(b))); v != "" {
			pct, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return base, false, fmt.Errorf("%s: invalid percentage %q", b, v)
			}
			cfg = strategy.SetPct(cfg, b, pct)
			changed = true
		}
		if v := sanitizeInput(query.Get(string(b) + "_account")); v != "" {
			cfg = strategy.SetAccount(cfg, b, v)
			changed = true
		}
	}
	return cfg, changed, nil
}
