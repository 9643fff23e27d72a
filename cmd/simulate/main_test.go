package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSeries は OU 過程に従う日次系列をCSVに書き出します。
func writeSeries(t *testing.T, dir string) string {
	t.Helper()
	const (
		kappa, theta, sigma = 50.0, 0.03, 0.05
		dt                  = 1.0 / 252.0
	)
	rng := rand.New(rand.NewPCG(7, 0))
	a := math.Exp(-kappa * dt)
	b := sigma * math.Sqrt((1-a*a)/(2*kappa))

	var buf strings.Builder
	buf.WriteString("date,rate\n")
	r := theta
	day := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 300; i++ {
		fmt.Fprintf(&buf, "%s,%.8f\n", day.AddDate(0, 0, i).Format(time.DateOnly), r)
		r = theta + (r-theta)*a + b*rng.NormFloat64()
	}
	path := filepath.Join(dir, "rates.csv")
	require.NoError(t, os.WriteFile(path, []byte(buf.String()), 0o644))
	return path
}

func TestRun_OfflineWithExports(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	csvPath := writeSeries(t, dir)
	statsPath := filepath.Join(dir, "out", "stats.json")
	pathsPath := filepath.Join(dir, "out", "paths.csv")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"--offline",
		"--data-csv", csvPath,
		"--calibration", "ols",
		"--show-quality",
		"--horizon", "20",
		"--n-paths", "500",
		"--seed", "42",
		"--export-csv", pathsPath,
		"--export-stats", statsPath,
	}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	out := stdout.String()
	assert.Contains(t, out, "Data: fallback_csv")
	assert.Contains(t, out, "Calibration: OLS")
	assert.Contains(t, out, "Fit: rmse=")
	assert.Contains(t, out, "500 paths, 20 steps")
	assert.Contains(t, out, "seed 42")

	raw, err := os.ReadFile(statsPath)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Contains(t, doc, "parameters")
	assert.Contains(t, doc, "statistics")
	assert.Contains(t, doc, "metadata")

	paths, err := os.ReadFile(pathsPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(paths), "#"))
}

func TestRun_Quiet(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	csvPath := writeSeries(t, dir)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"--offline", "-q", "--data-csv", csvPath, "--calibration", "ols",
		"--horizon", "5", "--n-paths", "10", "--seed", "1",
	}, &stdout, &stderr)
	assert.Equal(t, 0, code, stderr.String())
	assert.Empty(t, stdout.String())
}

func TestRun_Errors(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		code int
	}{
		{name: "unknown flag", args: []string{"--nope"}, code: 2},
		{name: "unknown calibration", args: []string{"--offline", "--calibration", "gmm"}, code: 1},
		{name: "invalid seed", args: []string{"--offline", "--seed", "abc"}, code: 1},
		{name: "missing csv", args: []string{"--offline", "--data-csv", "does-not-exist.csv"}, code: 1},
		{name: "zero paths", args: []string{"--offline", "--n-paths", "0"}, code: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tc.args, &stdout, &stderr)
			assert.Equal(t, tc.code, code)
			assert.NotEmpty(t, stderr.String())
		})
	}
}

func TestParseSeed(t *testing.T) {
	seed, err := parseSeed("")
	require.NoError(t, err)
	assert.Nil(t, seed)

	seed, err = parseSeed(" 12345 ")
	require.NoError(t, err)
	require.NotNil(t, seed)
	assert.Equal(t, int64(12345), *seed)

	_, err = parseSeed("1.5")
	assert.Error(t, err)
}
