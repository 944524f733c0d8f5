package report

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCSV(t *testing.T) {
	agg := &Aggregation{
		Descriptions: []string{"A", "B"},
		Dates:        []string{"2024-01-01", "2024-01-02"},
		Matrix: map[string]map[string]float64{
			"A": {"2024-01-01": 2.5},
			"B": {"2024-01-02": 1.0},
		},
	}

	got, err := RenderCSV(agg)
	require.NoError(t, err)

	want := "Description,2024-01-01,2024-01-02\n" +
		"A,2.50,\n" +
		"B,,1.00"
	assert.Equal(t, want, got)
}

func TestRenderCSV_Empty(t *testing.T) {
	got, err := RenderCSV(&Aggregation{Matrix: map[string]map[string]float64{}})
	require.NoError(t, err)
	assert.Equal(t, "Description", got)
}

func TestRenderCSV_ZeroCellIsEmpty(t *testing.T) {
	agg := &Aggregation{
		Descriptions: []string{"Blip"},
		Dates:        []string{"2024-01-07"},
		Matrix:       map[string]map[string]float64{"Blip": {"2024-01-07": 0}},
	}

	got, err := RenderCSV(agg)
	require.NoError(t, err)
	assert.Equal(t, "Description,2024-01-07\nBlip,", got)
}

func TestRenderCSV_QuotesSpecialDescriptions(t *testing.T) {
	agg := &Aggregation{
		Descriptions: []string{"fix, deploy", `say "hi"`, "multi\nline"},
		Dates:        []string{"2024-01-01"},
		Matrix: map[string]map[string]float64{
			"fix, deploy": {"2024-01-01": 1},
			`say "hi"`:    {"2024-01-01": 0.5},
			"multi\nline": {"2024-01-01": 2},
		},
	}

	got, err := RenderCSV(agg)
	require.NoError(t, err)
	assert.Contains(t, got, `"fix, deploy",1.00`)
	assert.Contains(t, got, `"say ""hi""",0.50`)

	records, err := csv.NewReader(strings.NewReader(got)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"multi\nline", "2.00"}, records[3])
}

func TestFormatHours(t *testing.T) {
	assert.Equal(t, "", FormatHours(0))
	assert.Equal(t, "0.50", FormatHours(0.5))
	assert.Equal(t, "12.00", FormatHours(12))
}
