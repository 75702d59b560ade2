package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/spec-kit/civic-request-service/internal/domain"
)

// DashboardStats is the aggregate view of a request snapshot.
type DashboardStats struct {
	TotalRequests       int  `json:"total_requests"`
	PendingRequests     int  `json:"pending_requests"`
	InProgressRequests  int  `json:"in_progress_requests"`
	ResolvedRequests    int  `json:"resolved_requests"`
	ClosedRequests      int  `json:"closed_requests"`
	SLABreachedRequests int  `json:"sla_breached_requests"`

	// AverageResolutionHours is 0 when no request has been resolved.
	AverageResolutionHours float64 `json:"average_resolution_hours"`
	// SLAAchievementRate is a percentage over requests that carry a
	// deadline; 0 when none do.
	SLAAchievementRate float64 `json:"sla_achievement_rate"`

	CategoryStats      []CategoryStats `json:"category_stats"`
	MonthlyTrends      []MonthlyTrend  `json:"monthly_trends"`
	StatusDistribution []StatusCount   `json:"status_distribution"`
}

// CategoryStats aggregates per category.
type CategoryStats struct {
	CategoryID             string  `json:"category_id"`
	CategoryName           string  `json:"category_name"`
	RequestCount           int     `json:"request_count"`
	AverageResolutionHours float64 `json:"average_resolution_hours"`
}

// MonthlyTrend counts submissions and resolutions for one calendar month.
type MonthlyTrend struct {
	Month          string `json:"month"`
	SubmittedCount int    `json:"submitted_count"`
	ResolvedCount  int    `json:"resolved_count"`
}

// StatusCount reports how many requests currently sit in one status.
type StatusCount struct {
	StatusID   domain.StatusID `json:"status_id"`
	StatusName string          `json:"status_name"`
	Count      int             `json:"count"`
	BadgeColor string          `json:"badge_color"`
}

// SLAReport lists requests carrying a deadline, newest first, with totals.
type SLAReport struct {
	TotalRequests    int                     `json:"total_requests"`
	BreachedRequests int                     `json:"breached_requests"`
	AchievedRequests int                     `json:"achieved_requests"`
	Requests         []domain.ServiceRequest `json:"requests"`
}

// BuildDashboard computes dashboard statistics from a snapshot. It is pure:
// given the same snapshot, reference data and now, the output is identical.
func BuildDashboard(now time.Time, requests []domain.ServiceRequest, categories []domain.Category, statuses []domain.RequestStatus) DashboardStats {
	stats := DashboardStats{TotalRequests: len(requests)}

	for _, r := range requests {
		switch r.StatusID {
		case domain.StatusSubmitted:
			stats.PendingRequests++
		case domain.StatusInProgress, domain.StatusAssigned:
			stats.InProgressRequests++
		case domain.StatusResolved:
			stats.ResolvedRequests++
		case domain.StatusClosed:
			stats.ClosedRequests++
		}
		if r.IsSLABreached {
			stats.SLABreachedRequests++
		}
	}

	stats.AverageResolutionHours = averageResolutionHours(requests)
	stats.SLAAchievementRate = slaAchievementRate(requests)
	stats.CategoryStats = categoryStats(requests, categories)
	stats.MonthlyTrends = monthlyTrends(now, requests)
	stats.StatusDistribution = statusDistribution(requests, statuses)
	return stats
}

// BuildSLAReport filters the snapshot to requests with a deadline and counts
// breaches and achievements. Resolution exactly at the deadline counts as
// achieved.
func BuildSLAReport(requests []domain.ServiceRequest) SLAReport {
	report := SLAReport{Requests: []domain.ServiceRequest{}}
	for _, r := range requests {
		if r.SLADeadline == nil {
			continue
		}
		report.TotalRequests++
		if r.IsSLABreached {
			report.BreachedRequests++
		}
		if slaAchieved(r) {
			report.AchievedRequests++
		}
		report.Requests = append(report.Requests, r)
	}
	sort.SliceStable(report.Requests, func(i, j int) bool {
		return report.Requests[i].SubmittedAt.After(report.Requests[j].SubmittedAt)
	})
	return report
}

func averageResolutionHours(requests []domain.ServiceRequest) float64 {
	var total float64
	var count int
	for _, r := range requests {
		if r.ResolvedAt == nil {
			continue
		}
		total += r.ResolvedAt.Sub(r.SubmittedAt).Hours()
		count++
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

// slaAchieved: a request counts as achieved when it never breached, or when
// it was resolved at or before its deadline.
func slaAchieved(r domain.ServiceRequest) bool {
	if !r.IsSLABreached {
		return true
	}
	return r.ResolvedAt != nil && !r.ResolvedAt.After(*r.SLADeadline)
}

func slaAchievementRate(requests []domain.ServiceRequest) float64 {
	var total, achieved int
	for _, r := range requests {
		if r.SLADeadline == nil {
			continue
		}
		total++
		if slaAchieved(r) {
			achieved++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(achieved) / float64(total) * 100
}

func categoryStats(requests []domain.ServiceRequest, categories []domain.Category) []CategoryStats {
	out := make([]CategoryStats, 0, len(categories))
	for _, category := range categories {
		entry := CategoryStats{CategoryID: category.ID, CategoryName: category.Name}
		var resolvedHours float64
		var resolvedCount int
		for _, r := range requests {
			if r.CategoryID != category.ID {
				continue
			}
			entry.RequestCount++
			if r.ResolvedAt != nil {
				resolvedHours += r.ResolvedAt.Sub(r.SubmittedAt).Hours()
				resolvedCount++
			}
		}
		if resolvedCount > 0 {
			entry.AverageResolutionHours = resolvedHours / float64(resolvedCount)
		}
		out = append(out, entry)
	}
	return out
}

func monthlyTrends(now time.Time, requests []domain.ServiceRequest) []MonthlyTrend {
	start := now.AddDate(0, -12, 0)
	byMonth := map[string]*MonthlyTrend{}
	for _, r := range requests {
		if r.SubmittedAt.Before(start) {
			continue
		}
		key := fmt.Sprintf("%04d-%02d", r.SubmittedAt.Year(), int(r.SubmittedAt.Month()))
		trend, ok := byMonth[key]
		if !ok {
			trend = &MonthlyTrend{Month: key}
			byMonth[key] = trend
		}
		trend.SubmittedCount++
		if r.ResolvedAt != nil {
			trend.ResolvedCount++
		}
	}

	out := make([]MonthlyTrend, 0, len(byMonth))
	for _, trend := range byMonth {
		out = append(out, *trend)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Month < out[j].Month
	})
	return out
}

func statusDistribution(requests []domain.ServiceRequest, statuses []domain.RequestStatus) []StatusCount {
	out := make([]StatusCount, 0, len(statuses))
	for _, status := range statuses {
		entry := StatusCount{
			StatusID:   status.ID,
			StatusName: status.Name,
			BadgeColor: status.BadgeColor,
		}
		if entry.BadgeColor == "" {
			entry.BadgeColor = "secondary"
		}
		for _, r := range requests {
			if r.StatusID == status.ID {
				entry.Count++
			}
		}
		out = append(out, entry)
	}
	return out
}
