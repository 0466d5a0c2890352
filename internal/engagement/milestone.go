package engagement

import (
	"streakd/internal/models"
	"time"
)

func detectMilestone(streak uint, now time.Time) (*models.MilestoneAchievement, bool) {
	m, ok := models.MilestoneForStreak(streak)
	if !ok {
		return nil, false
	}
	return &models.MilestoneAchievement{Milestone: m, AchievedAt: now}, true
}

func milestoneCopyText(a *models.MilestoneAchievement, now time.Time, window time.Duration) (string, bool) {
	if a == nil || !a.LiveAt(now, window) {
		return "", false
	}
	return a.Milestone.CopyText(), true
}
