package models

// PriorityCount is one bar of the dashboard priority chart.
type PriorityCount struct {
	Name  Priority `json:"name"`
	Total int      `json:"total"`
}

type DashboardSummary struct {
	TotalTasks     int             `json:"totalTasks"`
	LastMonthTotal int             `json:"lastMonthTotal"`
	Last10Task     []TaskDetail    `json:"last10Task"`
	Users          []UserSummary   `json:"users"`
	Tasks          map[Stage]int   `json:"tasks"`
	LastMonthTasks map[Stage]int   `json:"lastMonthTasks"`
	GraphData      []PriorityCount `json:"graphData"`
}
