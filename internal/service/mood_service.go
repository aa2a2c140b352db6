package service

import (
	"context"
	"time"

	"mindbridge/internal/cache"
	"mindbridge/internal/models"
	"mindbridge/internal/repository"
)

// DefaultMoodHistoryDays is the history window returned when the caller
// does not ask for a specific number of days.
const DefaultMoodHistoryDays = 30

// MoodService provides mood tracking business logic. Syncing today's mood
// also backfills not_added fillers for the days skipped since the last
// real entry.
type MoodService struct {
	moods repository.MoodRepository
	now   func() time.Time
}

// NewMoodService returns a new MoodService.
func NewMoodService(moods repository.MoodRepository) *MoodService {
	return &MoodService{moods: moods, now: time.Now}
}

// MoodEntry is one day in a mood history.
type MoodEntry struct {
	Day   string           `json:"day"`
	Value models.MoodValue `json:"value"`
}

// MoodStats summarizes a history window. Percentages are over real
// recorded values only and are zero when nothing was recorded.
type MoodStats struct {
	Days        int     `json:"days"`
	Recorded    int     `json:"recorded"`
	GoodPct     float64 `json:"good_pct"`
	NeutralPct  float64 `json:"neutral_pct"`
	BadPct      float64 `json:"bad_pct"`
	CurrentDay  string  `json:"current_day"`
	TodayLogged bool    `json:"today_logged"`
}

// Sync writes the user's mood for today, overwriting any earlier entry
// for the same day. If the previous real entry is N days back with N>1,
// exactly N-1 not_added fillers are created for the skipped days.
func (s *MoodService) Sync(ctx context.Context, userID uint, value models.MoodValue) (*models.Mood, error) {
	if !models.ValidMoodValue(value) {
		return nil, models.NewValidationError("Mood must be good, neutral or bad")
	}

	today := s.startOfToday()
	todayStr := today.Format(models.MoodDayFormat)

	prev, err := s.moods.GetLatestBefore(ctx, userID, todayStr)
	if err != nil {
		return nil, err
	}

	mood := &models.Mood{
		UserID: userID,
		Day:    todayStr,
		Value:  value,
	}
	if err := s.moods.Upsert(ctx, mood); err != nil {
		return nil, err
	}

	if prev != nil {
		gapDays, err := daysBetween(prev.Day, today)
		if err == nil && gapDays > 1 {
			fillers := make([]string, 0, gapDays-1)
			for d := 1; d < gapDays; d++ {
				fillers = append(fillers, today.AddDate(0, 0, d-gapDays).Format(models.MoodDayFormat))
			}
			if err := s.moods.CreateFillers(ctx, userID, fillers); err != nil {
				return nil, err
			}
		}
	}
	return mood, nil
}

// History returns one entry per day for the trailing window ending today,
// oldest first. Days without any row come back as not_added.
func (s *MoodService) History(ctx context.Context, userID uint, days int) ([]MoodEntry, error) {
	if days <= 0 {
		days = DefaultMoodHistoryDays
	}

	today := s.startOfToday()
	since := today.AddDate(0, 0, -(days - 1))

	build := func(entries *[]MoodEntry) error {
		recorded, err := s.moods.ListByUserSince(ctx, userID, since.Format(models.MoodDayFormat))
		if err != nil {
			return err
		}

		byDay := make(map[string]models.MoodValue, len(recorded))
		for _, m := range recorded {
			byDay[m.Day] = m.Value
		}

		*entries = make([]MoodEntry, 0, days)
		for d := since; !d.After(today); d = d.AddDate(0, 0, 1) {
			day := d.Format(models.MoodDayFormat)
			value, ok := byDay[day]
			if !ok {
				value = models.MoodNotAdded
			}
			*entries = append(*entries, MoodEntry{Day: day, Value: value})
		}
		return nil
	}

	var entries []MoodEntry
	// Only the default window is cached; the invalidation key is per user,
	// not per window size.
	if days == DefaultMoodHistoryDays {
		err := cache.CacheAside(ctx, cache.MoodHistoryKey(userID), &entries, cache.MoodHistoryTTL, func() error {
			return build(&entries)
		})
		if err != nil {
			return nil, err
		}
		return entries, nil
	}
	if err := build(&entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Stats computes the mood distribution over the trailing window.
func (s *MoodService) Stats(ctx context.Context, userID uint, days int) (*MoodStats, error) {
	entries, err := s.History(ctx, userID, days)
	if err != nil {
		return nil, err
	}

	stats := &MoodStats{Days: len(entries), CurrentDay: s.today()}
	counts := map[models.MoodValue]int{}
	for _, e := range entries {
		if e.Value == models.MoodNotAdded {
			continue
		}
		counts[e.Value]++
		stats.Recorded++
		if e.Day == stats.CurrentDay {
			stats.TodayLogged = true
		}
	}
	if stats.Recorded > 0 {
		total := float64(stats.Recorded)
		stats.GoodPct = 100 * float64(counts[models.MoodGood]) / total
		stats.NeutralPct = 100 * float64(counts[models.MoodNeutral]) / total
		stats.BadPct = 100 * float64(counts[models.MoodBad]) / total
	}
	return stats, nil
}

func (s *MoodService) today() string {
	return s.now().Format(models.MoodDayFormat)
}

func (s *MoodService) startOfToday() time.Time {
	t := s.now()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from day (a "2006-01-02" string) to end.
// Both ends are pinned to UTC midnight so the count is unaffected by DST
// transitions in the service's local zone.
func daysBetween(day string, end time.Time) (int, error) {
	from, err := time.Parse(models.MoodDayFormat, day)
	if err != nil {
		return 0, err
	}
	endDate := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(endDate.Sub(from).Hours() / 24), nil
}
