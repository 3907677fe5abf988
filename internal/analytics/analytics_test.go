package analytics

import (
	"fmt"
	"testing"
	"time"
)

func newTestService(now time.Time) *Service {
	s := NewService()
	s.now = func() time.Time { return now }
	return s
}

func TestOverviewAggregation(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	s := newTestService(now)

	s.TrackSessionStart("s1")
	s.TrackMessage("s1", "hello", "reply", 200*time.Millisecond, []string{"עיבוד שפה"})
	s.TrackMessage("s1", "more", "reply", 400*time.Millisecond, nil)
	s.TrackError("timeout", "upstream timeout", "s1")
	s.TrackFeedback("s1", 4, "")

	ov := s.GetOverview(7)
	if ov.Period != "7d" {
		t.Errorf("unexpected period %q", ov.Period)
	}
	if ov.TotalMessages != 2 || ov.TotalSessions != 1 || ov.TotalErrors != 1 {
		t.Errorf("unexpected totals %+v", ov)
	}
	if ov.AvgResponseTimeMS != 300 {
		t.Errorf("expected avg 300ms, got %f", ov.AvgResponseTimeMS)
	}
	if ov.AvgSatisfaction != 4 {
		t.Errorf("expected satisfaction 4, got %f", ov.AvgSatisfaction)
	}
	if ov.ErrorRate != 50 {
		t.Errorf("expected 50%% error rate, got %f", ov.ErrorRate)
	}
	if ov.MessagesPerSession != 2 {
		t.Errorf("expected 2 messages per session, got %f", ov.MessagesPerSession)
	}
}

func TestOverviewEmpty(t *testing.T) {
	s := newTestService(time.Now())
	ov := s.GetOverview(7)
	if ov.TotalMessages != 0 || ov.AvgResponseTimeMS != 0 || ov.AvgSatisfaction != 0 {
		t.Errorf("empty service should report zeros, got %+v", ov)
	}
}

func TestSkillAnalyticsOrdering(t *testing.T) {
	s := newTestService(time.Now())
	s.TrackMessage("s1", "a", "b", time.Millisecond, []string{"x", "y"})
	s.TrackMessage("s1", "a", "b", time.Millisecond, []string{"y"})

	sk := s.GetSkillAnalytics()
	if sk.TotalActivations != 3 {
		t.Errorf("expected 3 activations, got %d", sk.TotalActivations)
	}
	if len(sk.Skills) != 2 || sk.Skills[0].Skill != "y" {
		t.Errorf("expected y first, got %v", sk.Skills)
	}
	if sk.Skills[0].Percentage != 66.67 {
		t.Errorf("expected 66.67, got %f", sk.Skills[0].Percentage)
	}
}

func TestEventTrimming(t *testing.T) {
	s := newTestService(time.Now())
	for i := 0; i < maxEvents+1; i++ {
		s.TrackEvent("e", nil)
	}
	if got := s.EventCount(); got != trimEvents {
		t.Errorf("expected trim to %d events, got %d", trimEvents, got)
	}
}

func TestResponseTimeTrimming(t *testing.T) {
	s := newTestService(time.Now())
	for i := 0; i < maxDurations+1; i++ {
		s.TrackMessage("s", "m", "r", time.Duration(i)*time.Millisecond, nil)
	}
	s.mu.Lock()
	n := len(s.responseTimes)
	s.mu.Unlock()
	if n != trimDurations {
		t.Errorf("expected %d retained response times, got %d", trimDurations, n)
	}
}

func TestPerformancePercentiles(t *testing.T) {
	s := newTestService(time.Now())
	for i := 1; i <= 100; i++ {
		s.TrackMessage("s", "m", "r", time.Duration(i)*time.Millisecond, nil)
	}

	p := s.GetPerformance()
	if p.MinResponseTimeMS != 1 || p.MaxResponseTimeMS != 100 {
		t.Errorf("unexpected min/max %f/%f", p.MinResponseTimeMS, p.MaxResponseTimeMS)
	}
	if p.P50ResponseTimeMS != 51 {
		t.Errorf("expected p50=51, got %f", p.P50ResponseTimeMS)
	}
	if p.P95ResponseTimeMS != 96 {
		t.Errorf("expected p95=96, got %f", p.P95ResponseTimeMS)
	}
	if p.P99ResponseTimeMS != 100 {
		t.Errorf("expected p99=100, got %f", p.P99ResponseTimeMS)
	}
	if p.AvgResponseTimeMS != 50.5 {
		t.Errorf("expected avg=50.5, got %f", p.AvgResponseTimeMS)
	}
}

func TestPerformanceEmpty(t *testing.T) {
	s := newTestService(time.Now())
	if p := s.GetPerformance(); p != (Performance{}) {
		t.Errorf("empty service should report zero performance, got %+v", p)
	}
}

func TestDailyTrends(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	s := newTestService(now)
	s.TrackMessage("s1", "m", "r", time.Millisecond, nil)

	trends := s.GetDailyTrends(3)
	if len(trends) != 3 {
		t.Fatalf("expected 3 days, got %d", len(trends))
	}
	if trends[0].Date != "2026-08-30" || trends[2].Date != "2026-09-01" {
		t.Errorf("unexpected date range %s..%s", trends[0].Date, trends[2].Date)
	}
	if trends[2].Messages != 1 {
		t.Errorf("today should have 1 message, got %d", trends[2].Messages)
	}
	if trends[0].Messages != 0 {
		t.Errorf("quiet day should be zero, got %d", trends[0].Messages)
	}
}

func TestErrorAnalyticsTop10(t *testing.T) {
	s := newTestService(time.Now())
	for i := 0; i < 12; i++ {
		s.TrackError(fmt.Sprintf("type%d", i), "msg", "")
	}
	s.TrackError("type0", "msg", "")

	ea := s.GetErrorAnalytics()
	if ea.TotalErrors != 13 {
		t.Errorf("expected 13 errors, got %d", ea.TotalErrors)
	}
	if len(ea.Errors) != 10 {
		t.Errorf("expected top 10, got %d", len(ea.Errors))
	}
	if ea.Errors[0].ErrorType != "type0" || ea.Errors[0].Count != 2 {
		t.Errorf("expected type0 first with 2, got %+v", ea.Errors[0])
	}
}

func TestHourlyDistribution(t *testing.T) {
	now := time.Date(2026, 9, 1, 15, 0, 0, 0, time.UTC)
	s := newTestService(now)
	s.TrackMessage("s1", "m", "r", time.Millisecond, nil)

	dist := s.GetHourlyDistribution(7)
	if len(dist) != 24 {
		t.Fatalf("expected 24 buckets, got %d", len(dist))
	}
	if dist[15].Count != 1 {
		t.Errorf("expected hour 15 to have 1 message, got %d", dist[15].Count)
	}
}
