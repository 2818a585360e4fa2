package model

import "time"

// DashboardSummary is the headline data for the demo dashboard.
type DashboardSummary struct {
	ActiveProjects int
	TotalTasks     int
	CompletedTasks int
	CompletionRate float64
	TeamVelocity   int
	SprintProgress float64
	OpenRisks      int
	RecentActivity []Activity
	GeneratedAt    time.Time
}

// Activity is a single entry in the dashboard activity feed.
type Activity struct {
	Actor  string
	Action string
	Target string
	At     time.Time
}

// Metric is a single product KPI with a short trend series.
type Metric struct {
	Name   string
	Value  float64
	Unit   string
	Change float64
	Trend  []float64
}

// MetricsReport groups the product KPIs for a time range.
type MetricsReport struct {
	Range       string
	Metrics     []Metric
	GeneratedAt time.Time
}
