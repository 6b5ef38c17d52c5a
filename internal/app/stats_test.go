package app

import (
	"strings"
	"testing"
	"time"

	"smartquiz/internal/domain"
)

func TestFormatSessionStats(t *testing.T) {
	got := FormatSessionStats(Summary{Section: "Section 2", Correct: 2, Wrong: 1})
	for _, want := range []string{"Section 2", "Questions: 3", "Correct: 2 (66.7%)", "Wrong: 1", "/quiz"} {
		if !strings.Contains(got, want) {
			t.Errorf("stats message missing %q:\n%s", want, got)
		}
	}
}

func TestFormatResultsEmpty(t *testing.T) {
	got := FormatResults(nil, 5)
	if !strings.Contains(got, "No quiz results yet") {
		t.Errorf("unexpected empty-state message %q", got)
	}
}

func TestFormatResultsNewestFirstAndLimited(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []domain.StatsRecord{
		{SubjectName: "Oldest", Section: "Section 1", CreatedAt: base},
		{SubjectName: "Newest", Section: "Section 1", CreatedAt: base.Add(2 * time.Hour)},
		{SubjectName: "Middle", Section: "Section 1", CreatedAt: base.Add(time.Hour)},
	}

	got := FormatResults(records, 2)
	if strings.Contains(got, "Oldest") {
		t.Errorf("limit 2 should drop the oldest record:\n%s", got)
	}
	newest := strings.Index(got, "Newest")
	middle := strings.Index(got, "Middle")
	if newest == -1 || middle == -1 || newest > middle {
		t.Errorf("records should be newest first:\n%s", got)
	}
	if !strings.Contains(got, "2026-03-01 14:00") {
		t.Errorf("timestamp should use the %s layout:\n%s", statsTimeLayout, got)
	}
}
