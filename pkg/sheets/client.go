// Package sheets posts submissions to a Google Apps Script web app that
// appends them to a spreadsheet.
package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

type EndpointStatus string

const (
	EndpointMissing EndpointStatus = "missing"
	EndpointBad     EndpointStatus = "bad"
	EndpointOK      EndpointStatus = "ok"
)

var (
	ErrEndpointMissing = errors.New("form endpoint is not configured")
	ErrEndpointBad     = errors.New("form endpoint must be https://script.google.com/macros/s/.../exec")
)

var endpointPattern = regexp.MustCompile(`^https://script\.google\.com/macros/s/[^/]+/exec$`)

func ValidateEndpoint(u string) EndpointStatus {
	u = strings.TrimSpace(u)
	if u == "" {
		return EndpointMissing
	}
	if !endpointPattern.MatchString(u) {
		return EndpointBad
	}
	return EndpointOK
}

// Submission is one row for the sheet. Cart is encoded as JSON.
type Submission struct {
	When  time.Time
	Name  string
	Email string
	Phone string
	Notes string
	Total float64
	Cart  any
}

func (s Submission) Values() (url.Values, error) {
	cart, err := json.Marshal(s.Cart)
	if err != nil {
		return nil, fmt.Errorf("marshal cart: %w", err)
	}
	return url.Values{
		"when":  {s.When.UTC().Format(time.RFC3339)},
		"name":  {s.Name},
		"email": {s.Email},
		"phone": {s.Phone},
		"notes": {s.Notes},
		"total": {strconv.FormatFloat(s.Total, 'f', -1, 64)},
		"cart":  {string(cart)},
	}, nil
}

type Client struct {
	endpoint   string
	status     EndpointStatus
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(endpoint string, timeout time.Duration, logger *zap.Logger) *Client {
	endpoint = strings.TrimSpace(endpoint)
	status := ValidateEndpoint(endpoint)
	if status == EndpointBad {
		logger.Warn("Form endpoint looks wrong", zap.String("endpoint", endpoint))
	}
	return &Client{
		endpoint:   endpoint,
		status:     status,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *Client) Status() EndpointStatus {
	return c.status
}

func (c *Client) Submit(ctx context.Context, s Submission) error {
	const operation = "sheets.Submit"

	switch c.status {
	case EndpointMissing:
		return fmt.Errorf("%s: %w", operation, ErrEndpointMissing)
	case EndpointBad:
		return fmt.Errorf("%s: %w", operation, ErrEndpointBad)
	}

	values, err := s.Values()
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: do request: %w", operation, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	// the web app answers with a redirect to the script output
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s: unexpected status: %d", operation, resp.StatusCode)
	}

	c.logger.Debug("Submission posted to sheet", zap.String("email", s.Email))
	return nil
}
