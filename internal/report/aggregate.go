package report

import (
	"fmt"
	"slices"
	"time"

	"github.com/pbaille/timecsv/internal/domain"
	"github.com/pbaille/timecsv/internal/duration"
)

// Aggregation is the description x date matrix of summed hours.
// Matrix is sparse: a missing (description, date) pair means zero.
type Aggregation struct {
	Descriptions []string
	Dates        []string
	Matrix       map[string]map[string]float64
}

// Hours returns the accumulated hours for a cell, zero when absent.
func (a *Aggregation) Hours(description, date string) float64 {
	return a.Matrix[description][date]
}

// DateTotal sums one date column.
func (a *Aggregation) DateTotal(date string) float64 {
	var sum float64
	for _, byDate := range a.Matrix {
		sum += byDate[date]
	}
	return sum
}

// DescriptionTotal sums one description row.
func (a *Aggregation) DescriptionTotal(description string) float64 {
	var sum float64
	for _, h := range a.Matrix[description] {
		sum += h
	}
	return sum
}

// Total sums every cell.
func (a *Aggregation) Total() float64 {
	var sum float64
	for _, byDate := range a.Matrix {
		for _, h := range byDate {
			sum += h
		}
	}
	return sum
}

// Aggregate folds entries into an Aggregation. Entries without a duration
// (still running) are skipped. A malformed duration fails the whole
// aggregation with an error wrapping duration.ErrMalformed.
// Dates are calendar days in loc; nil loc means time.Local.
func Aggregate(entries []domain.TimeEntry, loc *time.Location) (*Aggregation, error) {
	if loc == nil {
		loc = time.Local
	}

	matrix := make(map[string]map[string]float64)
	dateSet := make(map[string]struct{})

	for _, e := range entries {
		if e.Duration == "" {
			continue
		}
		hours, err := duration.Parse(e.Duration)
		if err != nil {
			return nil, fmt.Errorf("entry %q at %s: %w", e.Description, e.Start.Format(time.RFC3339), err)
		}

		date := e.Start.In(loc).Format(DateLayout)
		dateSet[date] = struct{}{}

		byDate, ok := matrix[e.Description]
		if !ok {
			byDate = make(map[string]float64)
			matrix[e.Description] = byDate
		}
		byDate[date] += hours
	}

	agg := &Aggregation{
		Descriptions: make([]string, 0, len(matrix)),
		Dates:        make([]string, 0, len(dateSet)),
		Matrix:       matrix,
	}
	for desc := range matrix {
		agg.Descriptions = append(agg.Descriptions, desc)
	}
	for date := range dateSet {
		agg.Dates = append(agg.Dates, date)
	}
	slices.Sort(agg.Descriptions)
	slices.Sort(agg.Dates)

	return agg, nil
}
