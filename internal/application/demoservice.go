package application

import (
	"errors"
	"math"
	"time"

	"github.com/ericfisherdev/pmhub/internal/domain/model"
)

// ErrInvalidRange is returned by Metrics for an unsupported range key.
var ErrInvalidRange = errors.New("invalid metrics range: expected 7d, 30d or 90d")

// metricRanges maps a range key to the number of days it covers.
var metricRanges = map[string]int{
	"7d":  7,
	"30d": 30,
	"90d": 90,
}

const trendPoints = 7

var (
	demoActors  = []string{"Sarah Chen", "Marcus Johnson", "Priya Patel", "Alex Rivera", "Emma Wilson"}
	demoActions = []string{"completed", "commented on", "created", "moved to review", "updated"}
	demoTargets = []string{
		"Onboarding flow redesign",
		"Q3 roadmap review",
		"Billing API migration",
		"Mobile push notifications",
		"Customer interview synthesis",
		"Pricing page experiment",
	}
)

// DemoService fabricates the dashboard and metrics payloads shown in the demo UI.
type DemoService struct {
	rng *Random
	now func() time.Time
}

// NewDemoService creates a DemoService drawing from rng.
func NewDemoService(rng *Random) *DemoService {
	return &DemoService{
		rng: rng,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// DashboardSummary returns a freshly randomized dashboard summary.
func (s *DemoService) DashboardSummary() model.DashboardSummary {
	now := s.now()

	total := s.rng.IntBetween(120, 480)
	completed := s.rng.IntBetween(total/4, total*3/4)

	activity := make([]model.Activity, 0, 5)
	for i := range 5 {
		activity = append(activity, model.Activity{
			Actor:  Pick(s.rng, demoActors),
			Action: Pick(s.rng, demoActions),
			Target: Pick(s.rng, demoTargets),
			At:     now.Add(-time.Duration(i*s.rng.IntBetween(5, 45)) * time.Minute),
		})
	}

	return model.DashboardSummary{
		ActiveProjects: s.rng.IntBetween(4, 18),
		TotalTasks:     total,
		CompletedTasks: completed,
		CompletionRate: round1(float64(completed) / float64(total) * 100),
		TeamVelocity:   s.rng.IntBetween(20, 60),
		SprintProgress: round1(s.rng.FloatBetween(10, 95)),
		OpenRisks:      s.rng.IntBetween(0, 6),
		RecentActivity: activity,
		GeneratedAt:    now,
	}
}

// Metrics returns randomized product KPIs for rangeKey. An empty key means "7d".
func (s *DemoService) Metrics(rangeKey string) (model.MetricsReport, error) {
	if rangeKey == "" {
		rangeKey = "7d"
	}
	days, ok := metricRanges[rangeKey]
	if !ok {
		return model.MetricsReport{}, ErrInvalidRange
	}

	// Longer ranges aggregate more activity.
	scale := float64(days) / 7

	metrics := []model.Metric{
		s.metric("Daily Active Users", "users", s.rng.FloatBetween(1200, 5000), 0),
		s.metric("Monthly Recurring Revenue", "usd", s.rng.FloatBetween(40000, 120000)*math.Sqrt(scale), 0),
		s.metric("Churn Rate", "percent", s.rng.FloatBetween(1, 6), 1),
		s.metric("Net Promoter Score", "score", s.rng.FloatBetween(20, 70), 0),
		s.metric("Trial Conversion", "percent", s.rng.FloatBetween(8, 25), 1),
	}

	return model.MetricsReport{
		Range:       rangeKey,
		Metrics:     metrics,
		GeneratedAt: s.now(),
	}, nil
}

// metric builds a Metric around value with a trend that ends at value.
func (s *DemoService) metric(name, unit string, value float64, decimals int) model.Metric {
	trend := make([]float64, trendPoints)
	point := value * s.rng.FloatBetween(0.8, 1.1)
	for i := range trendPoints - 1 {
		trend[i] = roundTo(point, decimals)
		point *= s.rng.FloatBetween(0.95, 1.06)
	}
	trend[trendPoints-1] = roundTo(value, decimals)

	change := 0.0
	if trend[0] != 0 {
		change = round1((trend[trendPoints-1] - trend[0]) / trend[0] * 100)
	}

	return model.Metric{
		Name:   name,
		Value:  roundTo(value, decimals),
		Unit:   unit,
		Change: change,
		Trend:  trend,
	}
}

func round1(v float64) float64 {
	return roundTo(v, 1)
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
