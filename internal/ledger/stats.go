package ledger

import (
	"time"

	"github.com/noah-isme/lesson-ledger-api/internal/models"
)

// Stats aggregates the dashboard counters.
type Stats struct {
	TotalStudents     int `json:"total_students"`
	TotalRemaining    int `json:"total_remaining"`
	TodayConsumptions int `json:"today_consumptions"`
	LowBalanceCount   int `json:"low_balance_count"`
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return StartOfDay(a, loc).Equal(StartOfDay(b, loc))
}

// ComputeStats derives the dashboard counters. Only consume logs dated on now's
// calendar day count towards TodayConsumptions.
func ComputeStats(students []models.Student, logs []models.LessonLog, now time.Time, loc *time.Location) Stats {
	stats := Stats{TotalStudents: len(students)}
	for _, student := range students {
		stats.TotalRemaining += student.RemainingLessons
		if IsLowBalance(student.RemainingLessons) {
			stats.LowBalanceCount++
		}
	}
	for _, log := range logs {
		if log.Type == string(Consume) && SameDay(log.CreatedAt, now, loc) {
			stats.TodayConsumptions++
		}
	}
	return stats
}

// LowBalanceStudents filters students under the renewal threshold, keeping order.
func LowBalanceStudents(students []models.Student) []models.Student {
	result := make([]models.Student, 0)
	for _, student := range students {
		if IsLowBalance(student.RemainingLessons) {
			result = append(result, student)
		}
	}
	return result
}
