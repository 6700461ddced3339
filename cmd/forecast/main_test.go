package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartkitchen/internal/domain/forecast"
)

func writeSales(t *testing.T, dir string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("date,ingredient,sales\n")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		d := start.AddDate(0, 0, i).Format("2006-01-02")
		fmt.Fprintf(&b, "%s,Tomato,%d\n", d, 10+i%7)
		fmt.Fprintf(&b, "%s,Milk,%d\n", d, 4)
	}
	path := filepath.Join(dir, "sales_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestForecastCommand_Months(t *testing.T) {
	dir := t.TempDir()
	data := writeSales(t, dir)
	output := filepath.Join(dir, "forecast.csv")

	out, err := execute(t, "tomato", "--data", data, "--output", output, "--months", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "Filtering data for ingredient: tomato")
	assert.Contains(t, out, "Generating 60-day forecast")
	assert.Contains(t, out, "Forecast period: 60 days")
	assert.Contains(t, out, "Monthly Summary:")
	assert.Contains(t, out, "Forecasting complete!")

	written, err := os.ReadFile(output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(written)), "\n")
	assert.Equal(t, "date,forecast,forecast_lower,forecast_upper", lines[0])
	assert.Len(t, lines, 61)
}

func TestForecastCommand_ShortHorizonHidesMonthly(t *testing.T) {
	dir := t.TempDir()
	data := writeSales(t, dir)

	out, err := execute(t, "--data", data, "--output", filepath.Join(dir, "f.csv"), "--periods", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "Forecast period: 7 days")
	assert.NotContains(t, out, "Monthly Summary:")
}

func TestForecastCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	data := writeSales(t, dir)

	_, err := execute(t, "Saffron", "--data", data, "--output", filepath.Join(dir, "f.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Milk")

	_, err = execute(t, "--data", filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)

	_, err = execute(t, "a", "b")
	assert.Error(t, err, "at most one ingredient")

	for _, width := range []string{"1", "0", "-0.2"} {
		_, err = execute(t, "Milk", "--data", data, "--output", filepath.Join(dir, "w.csv"), "--interval-width", width)
		require.Error(t, err, width)
		assert.Contains(t, err.Error(), "interval width")
	}
	assert.NoFileExists(t, filepath.Join(dir, "w.csv"))
}

func TestPrintSummary_Empty(t *testing.T) {
	var out bytes.Buffer
	printSummary(&out, &forecast.Result{}, true)
	assert.Contains(t, out.String(), "No forecast points generated")
}
