package app

import (
	"fmt"
	"sort"
	"strings"

	"smartquiz/internal/domain"
)

const statsTimeLayout = "2006-01-02 15:04"

// FormatSessionStats renders the end-of-run message for one finished section.
func FormatSessionStats(sum Summary) string {
	return fmt.Sprintf(
		"📊 Results (%s):\n\n"+
			"• 📌 Questions: %d\n"+
			"• ✅ Correct: %d (%s)\n"+
			"• ❌ Wrong: %d\n\n"+
			"👇 Press the button below or send /quiz to play again.",
		sum.Section, sum.Total(), sum.Correct, sum.Percentage(), sum.Wrong)
}

// FormatResults renders up to limit persisted results, newest first.
func FormatResults(records []domain.StatsRecord, limit int) string {
	if len(records) == 0 {
		return "📊 No quiz results yet. Finish a quiz to see them here!"
	}

	sorted := make([]domain.StatsRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	var b strings.Builder
	b.WriteString("📊 Quiz results:\n\n")
	for i, r := range sorted {
		fmt.Fprintf(&b, "📘 %d. %s\n", i+1, r.SubjectName)
		fmt.Fprintf(&b, "🔹 %s\n", r.Section)
		fmt.Fprintf(&b, "📅 %s\n", r.CreatedAt.Format(statsTimeLayout))
		fmt.Fprintf(&b, "🧮 Total: %d questions\n", r.Total)
		fmt.Fprintf(&b, "✅ Correct: %d (%s)\n", r.Correct, r.Percentage)
		fmt.Fprintf(&b, "❌ Wrong: %d\n", r.Wrong)
		b.WriteString("-------------------------\n")
	}
	return b.String()
}
