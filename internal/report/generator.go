package report

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/pbaille/timecsv/internal/domain"
	"github.com/pbaille/timecsv/internal/logging"
)

// TimeTracker is the upstream time-tracking API.
type TimeTracker interface {
	GetUserInfo(ctx context.Context, apiKey string) (*domain.UserInfo, error)
	GetTimeEntries(ctx context.Context, apiKey, workspaceID, userID string, start, end time.Time) ([]domain.TimeEntry, error)
}

// RunRecorder receives an audit record for every generation attempt.
type RunRecorder interface {
	RecordRun(ctx context.Context, run domain.ReportRun) error
}

// NoopRecorder discards runs.
type NoopRecorder struct{}

func (NoopRecorder) RecordRun(context.Context, domain.ReportRun) error { return nil }

// Report is the output of one generation. It is never persisted.
type Report struct {
	Month          time.Time
	Aggregation    *Aggregation
	CSV            string
	Base64         string
	EntriesFetched int
	EntriesInRange int
}

// Generator produces monthly time reports for the owner of an API key.
type Generator struct {
	tracker  TimeTracker
	recorder RunRecorder
	logger   *slog.Logger
	loc      *time.Location
	now      func() time.Time
}

// NewGenerator wires a Generator. A nil recorder or logger disables that concern.
func NewGenerator(tracker TimeTracker, recorder RunRecorder, logger *slog.Logger) *Generator {
	if recorder == nil {
		recorder = NoopRecorder{}
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Generator{
		tracker:  tracker,
		recorder: recorder,
		logger:   logger,
		loc:      time.Local,
		now:      time.Now,
	}
}

// Generate builds the report for the current local calendar month.
func (g *Generator) Generate(ctx context.Context, apiKey string) (*Report, error) {
	return g.GenerateForMonth(ctx, apiKey, g.now())
}

// GenerateForMonth builds the report for the calendar month containing month.
// It is all-or-nothing: any upstream or parsing failure is returned and no
// partial report is produced.
func (g *Generator) GenerateForMonth(ctx context.Context, apiKey string, month time.Time) (*Report, error) {
	start, end := MonthRange(month, g.loc)
	run := domain.ReportRun{Month: start.Format(MonthLayout)}

	rep, err := g.generate(ctx, apiKey, start, end, &run)
	if err != nil {
		run.Status = domain.RunFailed
		run.Error = err.Error()
		g.logger.ErrorContext(ctx, "report generation failed", "month", run.Month, "error", err)
	} else {
		run.Status = domain.RunSucceeded
	}
	g.record(ctx, run)

	return rep, err
}

func (g *Generator) generate(ctx context.Context, apiKey string, start, end time.Time, run *domain.ReportRun) (*Report, error) {
	g.logger.InfoContext(ctx, "report generation started", "month", run.Month)

	user, err := g.tracker.GetUserInfo(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("get user info: %w", err)
	}
	run.UserID = user.UserID
	run.WorkspaceID = user.WorkspaceID

	fetched, err := g.tracker.GetTimeEntries(ctx, apiKey, user.WorkspaceID, user.UserID, start, end)
	if err != nil {
		return nil, fmt.Errorf("get time entries: %w", err)
	}

	// the API's own range filtering is not trusted
	entries := make([]domain.TimeEntry, 0, len(fetched))
	for _, e := range fetched {
		if inRange(e.Start, start, end) {
			entries = append(entries, e)
		}
	}
	run.EntriesFetched = len(fetched)
	run.EntriesInRange = len(entries)
	g.logger.InfoContext(ctx, "time entries fetched",
		"user_id", user.UserID,
		"workspace_id", user.WorkspaceID,
		"fetched", len(fetched),
		"in_range", len(entries),
	)

	agg, err := Aggregate(entries, g.loc)
	if err != nil {
		return nil, fmt.Errorf("aggregate entries: %w", err)
	}
	run.Descriptions = len(agg.Descriptions)
	run.Dates = len(agg.Dates)
	run.TotalHours = agg.Total()
	g.logger.InfoContext(ctx, "entries aggregated",
		"descriptions", len(agg.Descriptions),
		"dates", len(agg.Dates),
		"total_hours", run.TotalHours,
	)

	text, err := RenderCSV(agg)
	if err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}

	return &Report{
		Month:          start,
		Aggregation:    agg,
		CSV:            text,
		Base64:         base64.StdEncoding.EncodeToString([]byte(text)),
		EntriesFetched: len(fetched),
		EntriesInRange: len(entries),
	}, nil
}

func (g *Generator) record(ctx context.Context, run domain.ReportRun) {
	run.CreatedAt = g.now()
	if err := g.recorder.RecordRun(ctx, run); err != nil {
		g.logger.WarnContext(ctx, "record report run", "error", err)
	}
}
