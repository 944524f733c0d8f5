// Package clockify is a minimal client for the Clockify REST API.
package clockify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pbaille/timecsv/internal/domain"
	"github.com/pbaille/timecsv/internal/logging"
)

const (
	DefaultBaseURL  = "https://api.clockify.me/api/v1"
	DefaultTimeout  = 30 * time.Second
	DefaultPageSize = 5000

	// timestamp format for the start/end query parameters
	queryTimeLayout = "2006-01-02T15:04:05.000Z"

	maxBodySize = 32 * 1024 * 1024
)

// Config holds connection settings
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	PageSize int
}

// Client talks to the Clockify API. The API key is supplied per call and
// never stored.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// New creates a Client, filling zero config fields with defaults.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type userResponse struct {
	ID              string `json:"id"`
	ActiveWorkspace string `json:"activeWorkspace"`
}

type timeEntryResponse struct {
	Description  string `json:"description"`
	TimeInterval struct {
		Start    time.Time `json:"start"`
		Duration *string   `json:"duration"`
	} `json:"timeInterval"`
}

// GetUserInfo returns the key owner's user ID and active workspace.
func (c *Client) GetUserInfo(ctx context.Context, apiKey string) (*domain.UserInfo, error) {
	var user userResponse
	if err := c.get(ctx, apiKey, "/user", nil, &user); err != nil {
		return nil, err
	}
	if user.ID == "" || user.ActiveWorkspace == "" {
		return nil, fmt.Errorf("%w: user without id or active workspace", ErrMalformedResponse)
	}

	return &domain.UserInfo{
		UserID:      user.ID,
		WorkspaceID: user.ActiveWorkspace,
	}, nil
}

// GetTimeEntries lists a user's entries between start and end in a single
// page of at most Config.PageSize entries.
func (c *Client) GetTimeEntries(ctx context.Context, apiKey, workspaceID, userID string, start, end time.Time) ([]domain.TimeEntry, error) {
	path := fmt.Sprintf("/workspaces/%s/user/%s/time-entries",
		url.PathEscape(workspaceID), url.PathEscape(userID))

	query := url.Values{}
	query.Set("start", start.UTC().Format(queryTimeLayout))
	query.Set("end", end.UTC().Format(queryTimeLayout))
	query.Set("page-size", strconv.Itoa(c.cfg.PageSize))

	var raw []timeEntryResponse
	if err := c.get(ctx, apiKey, path, query, &raw); err != nil {
		return nil, err
	}

	entries := make([]domain.TimeEntry, len(raw))
	for i, r := range raw {
		entries[i] = domain.TimeEntry{
			Description: r.Description,
			Start:       r.TimeInterval.Start,
		}
		if r.TimeInterval.Duration != nil {
			entries[i].Duration = *r.TimeInterval.Duration
		}
	}

	return entries, nil
}

func (c *Client) get(ctx context.Context, apiKey, path string, query url.Values, out any) error {
	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Api-Key", apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "clockify request failed", "path", path, "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	c.logger.DebugContext(ctx, "clockify response",
		"path", path,
		"status", resp.StatusCode,
		"bytes", len(body),
		"latency_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.Header.Get("Content-Type"), body),
		}
		c.logger.WarnContext(ctx, "clockify error response", "path", path, "status", resp.StatusCode)
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return nil
}
