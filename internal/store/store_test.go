package store

import (
	"testing"

	"github.com/daldosso/RunPA-backend-2025/internal/model"
)

func TestAggregateStatement(t *testing.T) {
	tests := []struct {
		metric model.Metric
		want   string
	}{
		{model.MetricTotalDistance, "top_total_distance"},
		{model.MetricLongestActivity, "top_longest_activity"},
		{model.MetricActivityCount, "top_activity_count"},
	}
	for _, tt := range tests {
		got, err := aggregateStatement(tt.metric)
		if err != nil || got != tt.want {
			t.Fatalf("%s: got %q, %v", tt.metric, got, err)
		}
	}
	if _, err := aggregateStatement("elevation"); err == nil {
		t.Fatalf("expected error for unknown metric")
	}
}

func TestNilEmpty(t *testing.T) {
	if nilEmpty("") != nil {
		t.Fatalf("empty string should map to nil")
	}
	if nilEmpty("Varese") != "Varese" {
		t.Fatalf("non-empty string should pass through")
	}
}
