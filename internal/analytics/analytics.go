// Package analytics tracks usage events in memory and aggregates them into
// the admin dashboards.
package analytics

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"
)

const (
	maxEvents     = 10000
	trimEvents    = 5000
	maxDurations  = 1000
	trimDurations = 500
)

// Event is one recorded usage event.
type Event struct {
	Type      string         `json:"event_type"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

// Feedback is one user satisfaction rating.
type Feedback struct {
	SessionID string    `json:"session_id"`
	Rating    int       `json:"rating"`
	Feedback  string    `json:"feedback,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type dayStats struct {
	Events   int `json:"events"`
	Messages int `json:"messages"`
	Sessions int `json:"sessions"`
	Errors   int `json:"errors"`
}

// Service accumulates events, bounded in memory: the event log trims from
// 10000 down to its most recent 5000, response times from 1000 to 500.
type Service struct {
	mu            sync.Mutex
	events        []Event
	skillUsage    map[string]int
	errorCounts   map[string]int
	responseTimes []time.Duration
	satisfaction  []Feedback
	daily         map[string]*dayStats
	now           func() time.Time
}

// NewService creates an empty analytics service.
func NewService() *Service {
	return &Service{
		skillUsage:  make(map[string]int),
		errorCounts: make(map[string]int),
		daily:       make(map[string]*dayStats),
		now:         time.Now,
	}
}

func (s *Service) dayFor(t time.Time) *dayStats {
	key := t.Format("2006-01-02")
	d, ok := s.daily[key]
	if !ok {
		d = &dayStats{}
		s.daily[key] = d
	}
	return d
}

// track appends an event. Callers must hold s.mu.
func (s *Service) track(eventType string, data map[string]any) {
	now := s.now()
	s.events = append(s.events, Event{Type: eventType, Data: data, Timestamp: now})
	s.dayFor(now).Events++

	if len(s.events) > maxEvents {
		s.events = append([]Event(nil), s.events[len(s.events)-trimEvents:]...)
	}
}

// TrackEvent records a generic event.
func (s *Service) TrackEvent(eventType string, data map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track(eventType, data)
}

// TrackMessage records one chat turn.
func (s *Service) TrackMessage(sessionID, message, response string, responseTime time.Duration, skillsUsed []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.track("message", map[string]any{
		"session_id":      sessionID,
		"message_length":  len(message),
		"response_length": len(response),
		"response_time":   responseTime.Seconds(),
		"skills_used":     skillsUsed,
	})
	s.dayFor(s.now()).Messages++

	s.responseTimes = append(s.responseTimes, responseTime)
	if len(s.responseTimes) > maxDurations {
		s.responseTimes = append([]time.Duration(nil), s.responseTimes[len(s.responseTimes)-trimDurations:]...)
	}

	for _, skill := range skillsUsed {
		s.skillUsage[skill]++
	}
}

// TrackSessionStart records a new session.
func (s *Service) TrackSessionStart(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("session_start", map[string]any{"session_id": sessionID})
	s.dayFor(s.now()).Sessions++
}

// TrackError records an error occurrence.
func (s *Service) TrackError(errorType, message, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("error", map[string]any{
		"error_type":    errorType,
		"error_message": message,
		"session_id":    sessionID,
	})
	s.errorCounts[errorType]++
	s.dayFor(s.now()).Errors++
}

// TrackFeedback records a satisfaction rating.
func (s *Service) TrackFeedback(sessionID string, rating int, feedback string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.satisfaction = append(s.satisfaction, Feedback{
		SessionID: sessionID,
		Rating:    rating,
		Feedback:  feedback,
		Timestamp: s.now(),
	})
	s.track("feedback", map[string]any{"session_id": sessionID, "rating": rating})
}

// Overview aggregates the last `days` days of events.
type Overview struct {
	Period             string    `json:"period"`
	StartDate          time.Time `json:"start_date"`
	EndDate            time.Time `json:"end_date"`
	TotalMessages      int       `json:"total_messages"`
	TotalSessions      int       `json:"total_sessions"`
	TotalErrors        int       `json:"total_errors"`
	AvgResponseTimeMS  float64   `json:"avg_response_time_ms"`
	AvgSatisfaction    float64   `json:"avg_satisfaction"`
	ErrorRate          float64   `json:"error_rate"`
	MessagesPerSession float64   `json:"messages_per_session"`
}

// GetOverview aggregates events within the period.
func (s *Service) GetOverview(days int) Overview {
	if days <= 0 {
		days = 7
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	start := now.Add(-time.Duration(days) * 24 * time.Hour)

	messages, sessions, errCount := 0, 0, 0
	var totalResponse float64
	for _, e := range s.events {
		if e.Timestamp.Before(start) {
			continue
		}
		switch e.Type {
		case "message":
			messages++
			if rt, ok := e.Data["response_time"].(float64); ok {
				totalResponse += rt
			}
		case "session_start":
			sessions++
		case "error":
			errCount++
		}
	}

	var avgResponse float64
	if messages > 0 {
		avgResponse = totalResponse / float64(messages)
	}

	ratings, ratingSum := 0, 0
	for _, f := range s.satisfaction {
		if !f.Timestamp.Before(start) {
			ratings++
			ratingSum += f.Rating
		}
	}
	var avgSatisfaction float64
	if ratings > 0 {
		avgSatisfaction = float64(ratingSum) / float64(ratings)
	}

	return Overview{
		Period:             fmt.Sprintf("%dd", days),
		StartDate:          start,
		EndDate:            now,
		TotalMessages:      messages,
		TotalSessions:      sessions,
		TotalErrors:        errCount,
		AvgResponseTimeMS:  round2(avgResponse * 1000),
		AvgSatisfaction:    round2(avgSatisfaction),
		ErrorRate:          round2(float64(errCount) / math.Max(float64(messages), 1) * 100),
		MessagesPerSession: round2(float64(messages) / math.Max(float64(sessions), 1)),
	}
}

// SkillUsage is one skill's activation share.
type SkillUsage struct {
	Skill      string  `json:"skill"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// SkillAnalytics summarizes skill activations.
type SkillAnalytics struct {
	TotalActivations int          `json:"total_skill_activations"`
	Skills           []SkillUsage `json:"skills"`
}

// GetSkillAnalytics returns skill usage ordered by count descending.
func (s *Service) GetSkillAnalytics() SkillAnalytics {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, c := range s.skillUsage {
		total += c
	}

	out := make([]SkillUsage, 0, len(s.skillUsage))
	for skill, count := range s.skillUsage {
		out = append(out, SkillUsage{
			Skill:      skill,
			Count:      count,
			Percentage: round2(float64(count) / math.Max(float64(total), 1) * 100),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Skill < out[j].Skill
	})

	return SkillAnalytics{TotalActivations: total, Skills: out}
}

// HourCount is one hour bucket of the message distribution.
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// GetHourlyDistribution buckets recent messages by hour of day.
func (s *Service) GetHourlyDistribution(days int) []HourCount {
	if days <= 0 {
		days = 7
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	counts := make([]int, 24)
	for _, e := range s.events {
		if e.Type == "message" && !e.Timestamp.Before(start) {
			counts[e.Timestamp.Hour()]++
		}
	}

	out := make([]HourCount, 24)
	for h := range out {
		out[h] = HourCount{Hour: h, Count: counts[h]}
	}
	return out
}

// DayTrend is one day of the daily trend series.
type DayTrend struct {
	Date     string `json:"date"`
	Events   int    `json:"events"`
	Messages int    `json:"messages"`
	Sessions int    `json:"sessions"`
	Errors   int    `json:"errors"`
}

// GetDailyTrends returns one entry per day for the last `days` days, oldest
// first, with zero rows for days without traffic.
func (s *Service) GetDailyTrends(days int) []DayTrend {
	if days <= 0 {
		days = 30
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	out := make([]DayTrend, 0, days)
	for i := 0; i < days; i++ {
		date := now.AddDate(0, 0, -(days - 1 - i))
		key := date.Format("2006-01-02")
		trend := DayTrend{Date: key}
		if d, ok := s.daily[key]; ok {
			trend.Events = d.Events
			trend.Messages = d.Messages
			trend.Sessions = d.Sessions
			trend.Errors = d.Errors
		}
		out = append(out, trend)
	}
	return out
}

// ErrorCount is one error type's share.
type ErrorCount struct {
	ErrorType  string  `json:"error_type"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// ErrorAnalytics summarizes tracked errors.
type ErrorAnalytics struct {
	TotalErrors int          `json:"total_errors"`
	Errors      []ErrorCount `json:"errors"`
}

// GetErrorAnalytics returns the top 10 error types by count.
func (s *Service) GetErrorAnalytics() ErrorAnalytics {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, c := range s.errorCounts {
		total += c
	}

	out := make([]ErrorCount, 0, len(s.errorCounts))
	for typ, count := range s.errorCounts {
		out = append(out, ErrorCount{
			ErrorType:  typ,
			Count:      count,
			Percentage: round2(float64(count) / math.Max(float64(total), 1) * 100),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].ErrorType < out[j].ErrorType
	})
	if len(out) > 10 {
		out = out[:10]
	}

	return ErrorAnalytics{TotalErrors: total, Errors: out}
}

// Performance holds response time percentiles in milliseconds.
type Performance struct {
	AvgResponseTimeMS float64 `json:"avg_response_time_ms"`
	MinResponseTimeMS float64 `json:"min_response_time_ms"`
	MaxResponseTimeMS float64 `json:"max_response_time_ms"`
	P50ResponseTimeMS float64 `json:"p50_response_time_ms"`
	P95ResponseTimeMS float64 `json:"p95_response_time_ms"`
	P99ResponseTimeMS float64 `json:"p99_response_time_ms"`
}

// GetPerformance computes percentiles over the retained response times.
func (s *Service) GetPerformance() Performance {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.responseTimes) == 0 {
		return Performance{}
	}

	sorted := append([]time.Duration(nil), s.responseTimes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}

	ms := func(d time.Duration) float64 {
		return round2(float64(d) / float64(time.Millisecond))
	}
	pct := func(p float64) time.Duration {
		idx := int(float64(len(sorted)) * p)
		if idx >= len(sorted) {
			idx = len(sorted) - 1
		}
		return sorted[idx]
	}

	return Performance{
		AvgResponseTimeMS: round2(float64(sum) / float64(len(sorted)) / float64(time.Millisecond)),
		MinResponseTimeMS: ms(sorted[0]),
		MaxResponseTimeMS: ms(sorted[len(sorted)-1]),
		P50ResponseTimeMS: ms(sorted[len(sorted)/2]),
		P95ResponseTimeMS: ms(pct(0.95)),
		P99ResponseTimeMS: ms(pct(0.99)),
	}
}

// Report is the combined analytics payload.
type Report struct {
	Overview           Overview       `json:"overview"`
	Skills             SkillAnalytics `json:"skills"`
	HourlyDistribution []HourCount    `json:"hourly_distribution"`
	DailyTrends        []DayTrend     `json:"daily_trends"`
	Errors             ErrorAnalytics `json:"errors"`
	Performance        Performance    `json:"performance"`
	GeneratedAt        time.Time      `json:"generated_at"`
}

// GetFullReport combines every aggregate.
func (s *Service) GetFullReport(days int) Report {
	return Report{
		Overview:           s.GetOverview(days),
		Skills:             s.GetSkillAnalytics(),
		HourlyDistribution: s.GetHourlyDistribution(7),
		DailyTrends:        s.GetDailyTrends(30),
		Errors:             s.GetErrorAnalytics(),
		Performance:        s.GetPerformance(),
		GeneratedAt:        s.now(),
	}
}

// EventCount returns the number of retained events.
func (s *Service) EventCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
