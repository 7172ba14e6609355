package health

import "testing"

func TestThresholds_Evaluate(t *testing.T) {
	th := Thresholds{Warning: 80, Critical: 90}

	tests := []struct {
		name  string
		value float64
		want  Status
	}{
		{name: "below warning", value: 79.9, want: StatusHealthy},
		{name: "at warning", value: 80, want: StatusWarning},
		{name: "between", value: 85, want: StatusWarning},
		{name: "at critical", value: 90, want: StatusCritical},
		{name: "above critical", value: 99, want: StatusCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := th.Evaluate(tt.value); got != tt.want {
				t.Errorf("Evaluate(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestAggregate_AnyCriticalWins(t *testing.T) {
	inputs := [][]Status{
		{StatusCritical},
		{StatusHealthy, StatusCritical},
		{StatusCritical, StatusHealthy, StatusWarning},
		{StatusWarning, StatusWarning, StatusHealthy, StatusCritical},
	}

	for _, in := range inputs {
		if got := Aggregate(in...); got != StatusCritical {
			t.Errorf("Aggregate(%v) = %v, want critical", in, got)
		}
		// reversed order gives the same verdict
		rev := make([]Status, len(in))
		for i := range in {
			rev[len(in)-1-i] = in[i]
		}
		if got := Aggregate(rev...); got != StatusCritical {
			t.Errorf("Aggregate(%v) = %v, want critical", rev, got)
		}
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name string
		in   []Status
		want Status
	}{
		{name: "empty", in: nil, want: StatusHealthy},
		{name: "all healthy", in: []Status{StatusHealthy, StatusHealthy}, want: StatusHealthy},
		{name: "one warning", in: []Status{StatusHealthy, StatusWarning}, want: StatusWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Aggregate(tt.in...); got != tt.want {
				t.Errorf("Aggregate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		in       []Status
		healthy  int
		critical int
		percent  float64
	}{
		{name: "no results", in: nil, percent: 100},
		{name: "all healthy", in: []Status{StatusHealthy, StatusHealthy}, healthy: 2, percent: 100},
		{name: "mixed", in: []Status{StatusHealthy, StatusHealthy, StatusHealthy, StatusCritical}, healthy: 3, critical: 1, percent: 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := make([]*CheckResult, len(tt.in))
			for i, st := range tt.in {
				results[i] = &CheckResult{Status: st}
			}
			got := Summarize(results)
			if got.Total != len(tt.in) || got.Healthy != tt.healthy || got.Critical != tt.critical {
				t.Errorf("Summarize() = %+v", got)
			}
			if got.HealthPercentage != tt.percent {
				t.Errorf("HealthPercentage = %v, want %v", got.HealthPercentage, tt.percent)
			}
		})
	}
}
