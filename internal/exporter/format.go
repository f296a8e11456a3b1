package exporter

import (
	"fmt"
	"strconv"
	"time"

	"embalsescli/internal/config"
	"embalsescli/pkg/contracts/domain"
)

// formatMeasurement formats a measurement cell using the field's canonical
// precision. Missing values become empty cells, matching the source files.
func formatMeasurement(f domain.Field, v float64) string {
	if domain.IsMissing(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', config.FieldPrecision(f), 64)
}

// formatFloat formats a float64 value with exactly 2 decimal places, or an
// empty cell when missing.
func formatFloat(f float64) string {
	if domain.IsMissing(f) {
		return ""
	}
	return fmt.Sprintf("%.2f", f)
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatBool formats a boolean flag the way the source tooling did: 1/0.
func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// formatDate formats a date cell using the canonical ISO layout.
func formatDate(t time.Time) string {
	return t.Format(config.DateFormat)
}
