// Package threshold evaluates performance assertions against a region
// report, so replayed traces can gate CI on kernel timing regressions.
package threshold

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/hpctools/kokkoprof/internal/metrics"
)

// Threshold represents one assertion over a region's aggregate.
type Threshold struct {
	Region    string  // qualified region name, e.g. "kokkos/dev0/saxpy"
	Aggregate string  // "p50", "p90", "p99", "avg", "min", "max", "total", "count"
	Operator  string  // "<", "<=", ">", ">=", "=="
	Value     float64 // milliseconds, or a plain number for "count"
	Raw       string  // original threshold string for display
}

// Result is the outcome of evaluating one threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

// thresholdPattern: region:aggregate operator value, where the region
// name may contain slashes and digits.
var thresholdPattern = regexp.MustCompile(`^([\w./-]+):([a-z0-9]+)\s*([<>=!]+)\s*([0-9.]+)$`)

// Parse parses a threshold string. Supported formats:
//   - "kokkos/dev0/saxpy:p99 < 5"   (P99 wall time in ms)
//   - "kokkos/dev0/saxpy:avg < 2"   (mean wall time in ms)
//   - "solver:total < 1500"         (total wall time in ms)
//   - "solver:count == 100"         (number of executions)
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := thresholdPattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected region:aggregate operator value, e.g. 'kokkos/dev0/saxpy:p99 < 5')", s)
	}

	region := matches[1]
	aggregate := matches[2]
	operator := matches[3]

	value, err := strconv.ParseFloat(matches[4], 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", matches[4], err)
	}

	if !isValidAggregate(aggregate) {
		return Threshold{}, fmt.Errorf("unsupported aggregate: %q (supported: p50, p90, p99, avg, min, max, total, count)", aggregate)
	}
	if !isValidOperator(operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: <, <=, >, >=, ==)", operator)
	}

	return Threshold{
		Region:    region,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses a list of threshold strings, reporting every
// malformed entry at once.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errs []string
	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errs = append(errs, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errs, "; "))
	}
	return result, nil
}

// Evaluate checks every threshold against the report. A threshold naming
// a region absent from the report fails: a missing kernel is itself a
// regression.
func Evaluate(thresholds []Threshold, report metrics.Report) []Result {
	if len(thresholds) == 0 {
		return nil
	}

	byName := make(map[string]metrics.RegionStats, len(report.Regions))
	for _, row := range report.Regions {
		byName[row.Name] = row
	}

	results := make([]Result, 0, len(thresholds))
	for _, t := range thresholds {
		results = append(results, evaluateOne(t, byName))
	}
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func evaluateOne(t Threshold, byName map[string]metrics.RegionStats) Result {
	row, ok := byName[t.Region]
	if !ok {
		return Result{
			Threshold: t,
			Pass:      false,
			Message:   fmt.Sprintf("✗ %s: region not present in report", t.Raw),
		}
	}

	actual := extractValue(t.Aggregate, row)
	pass := compare(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}
	return Result{
		Threshold: t,
		Actual:    actual,
		Pass:      pass,
		Message:   fmt.Sprintf("%s %s: %.3f %s %.3f", status, t.Raw, actual, t.Operator, t.Value),
	}
}

func extractValue(aggregate string, row metrics.RegionStats) float64 {
	switch aggregate {
	case "p50":
		return row.P50WallMs
	case "p90":
		return row.P90WallMs
	case "p99":
		return row.P99WallMs
	case "avg":
		return row.MeanWallMs
	case "min":
		return row.MinWallMs
	case "max":
		return row.MaxWallMs
	case "total":
		return row.TotalWallMs
	case "count":
		return float64(row.Count)
	}
	return 0
}

func compare(actual float64, operator string, value float64) bool {
	switch operator {
	case "<":
		return actual < value
	case "<=":
		return actual <= value
	case ">":
		return actual > value
	case ">=":
		return actual >= value
	case "==":
		return math.Abs(actual-value) < 1e-9
	}
	return false
}

func isValidAggregate(aggregate string) bool {
	switch aggregate {
	case "p50", "p90", "p99", "avg", "min", "max", "total", "count":
		return true
	}
	return false
}

func isValidOperator(operator string) bool {
	switch operator {
	case "<", "<=", ">", ">=", "==":
		return true
	}
	return false
}
