package exporter

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"embalsescli/internal/analysis"
	"embalsescli/pkg/contracts/domain"
)

func TestExportStatisticsSummary(t *testing.T) {
	paths := testPaths(t)
	e := NewSummaryExporter(paths, nil)

	summary := &StatisticsSummary{
		GeneratedAt: time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC),
		Reservoirs: map[string]map[string]analysis.DescriptiveStats{
			"casasola": {
				string(domain.FieldReserveVolume): {Count: 365, Mean: 12.4, Min: 9.1, Max: 15.2},
			},
		},
		Trends: map[string]analysis.TrendResult{
			"casasola": {Slope: -0.01, AnnualChange: -3.65, N: 365},
		},
	}

	require.NoError(t, e.ExportJSON(summary))

	data, err := os.ReadFile(paths.SummaryJSON)
	require.NoError(t, err)

	var decoded StatisticsSummary
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 365, decoded.Reservoirs["casasola"][string(domain.FieldReserveVolume)].Count)
	assert.InDelta(t, -3.65, decoded.Trends["casasola"].AnnualChange, 1e-9)
}
