package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/flywheel/internal/dynamo"
	"github.com/san-kum/flywheel/internal/metrics"
)

var metricRegistry = map[string]func(tolerance float64) dynamo.Metric{
	"tracking_rms":   func(float64) dynamo.Metric { return metrics.NewTrackingError() },
	"spin_up_time":   func(float64) dynamo.Metric { return metrics.NewSpinUpTime() },
	"control_effort": func(float64) dynamo.Metric { return metrics.NewControlEffort() },
	"in_band":        func(tol float64) dynamo.Metric { return metrics.NewInBand(tol) },
}

func GetMetric(name string, tolerance float64) (dynamo.Metric, error) {
	fn, ok := metricRegistry[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(tolerance), nil
}

func ListMetrics() []string {
	names := make([]string, 0, len(metricRegistry))
	for name := range metricRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics is every registered metric, in name order.
func DefaultMetrics(tolerance float64) []dynamo.Metric {
	out := make([]dynamo.Metric, 0, len(metricRegistry))
	for _, name := range ListMetrics() {
		out = append(out, metricRegistry[name](tolerance))
	}
	return out
}
