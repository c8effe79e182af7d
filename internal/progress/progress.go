// Package progress converts raw progress reports into durations and
// completion percentages. Every function is total: non-positive inputs
// coerce to zero instead of failing, and rounding is half away from zero.
package progress

import (
	"math"

	"media-tracker/internal/models"
)

// DefaultEpisodeRuntime is used when no per-episode runtime is known.
const DefaultEpisodeRuntime = models.DefaultEpisodeRuntime

// ReadingTimeMinutes returns how long reading pages takes at pagesPerMinute.
func ReadingTimeMinutes(pages int, pagesPerMinute float64) int {
	if pages <= 0 || pagesPerMinute <= 0 {
		return 0
	}
	return int(math.Round(float64(pages) / pagesPerMinute))
}

// PagesFromTime returns how many pages are read in minutes at pagesPerMinute.
func PagesFromTime(minutes int, pagesPerMinute float64) int {
	if minutes <= 0 || pagesPerMinute <= 0 {
		return 0
	}
	return int(math.Round(float64(minutes) * pagesPerMinute))
}

// TVDurationMinutes returns the runtime of episodes. A non-positive
// runtimePerEpisode means DefaultEpisodeRuntime.
func TVDurationMinutes(episodes, runtimePerEpisode int) int {
	if episodes <= 0 {
		return 0
	}
	if runtimePerEpisode <= 0 {
		runtimePerEpisode = DefaultEpisodeRuntime
	}
	return episodes * runtimePerEpisode
}

// Percent returns completed/total as a whole percentage clamped to [0, 100].
func Percent(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	p := int(math.Round(100 * float64(completed) / float64(total)))
	return min(p, 100)
}

// FloorPercent is Percent rounded down, so it only reaches 100 once
// completed >= total.
func FloorPercent(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	return min(int(int64(completed)*100/int64(total)), 100)
}

// Rate is the per-user conversion between units and minutes.
type Rate struct {
	PagesPerMinute float64
	EpisodeRuntime int
}

// RateFor builds a Rate from stored settings.
func RateFor(s *models.UserSettings) Rate {
	if s == nil {
		return Rate{PagesPerMinute: models.DefaultReadingSpeed, EpisodeRuntime: DefaultEpisodeRuntime}
	}
	return Rate{PagesPerMinute: s.ReadingSpeed, EpisodeRuntime: s.EpisodeRuntime}
}

// Completed converts a progress entry into completed units for an item of
// type t: pages for books, minutes for everything else.
func Completed(t models.MediaType, e models.ProgressEntry, r Rate) int {
	switch t {
	case models.MediaTypeBook:
		if e.Pages > 0 {
			return e.Pages
		}
		return PagesFromTime(e.Minutes, r.PagesPerMinute)
	case models.MediaTypeTV:
		if e.Episodes > 0 {
			return TVDurationMinutes(e.Episodes, r.EpisodeRuntime)
		}
		return max(e.Minutes, 0)
	case models.MediaTypeMovie, models.MediaTypeGame:
		return max(e.Minutes, 0)
	default:
		return 0
	}
}

// Minutes converts units of an item of type t into minutes.
func Minutes(t models.MediaType, units int, r Rate) int {
	switch t {
	case models.MediaTypeBook:
		return ReadingTimeMinutes(units, r.PagesPerMinute)
	case models.MediaTypeTV, models.MediaTypeMovie, models.MediaTypeGame:
		return max(units, 0)
	default:
		return 0
	}
}

// Snapshot derives elapsed and remaining minutes and the completion
// percentage for an item.
func Snapshot(t models.MediaType, duration, completed int, r Rate) models.ProgressSnapshot {
	completed = min(max(completed, 0), max(duration, 0))
	return models.ProgressSnapshot{
		PercentComplete:  Percent(completed, duration),
		ElapsedMinutes:   Minutes(t, completed, r),
		RemainingMinutes: Minutes(t, max(duration-completed, 0), r),
	}
}

// Delta is the goal-lock progress earned by moving an item of type t from
// before to after completed units. Moving backwards earns nothing. TV
// episodes count whole episodes crossed by the running total, so partial
// updates add up.
func Delta(t models.MediaType, before, after int, r Rate) models.LockProgress {
	gained := after - before
	if gained <= 0 {
		return models.LockProgress{}
	}
	d := models.LockProgress{Minutes: Minutes(t, gained, r)}
	switch t {
	case models.MediaTypeBook:
		d.Pages = gained
	case models.MediaTypeTV:
		runtime := r.EpisodeRuntime
		if runtime <= 0 {
			runtime = DefaultEpisodeRuntime
		}
		d.Episodes = after/runtime - max(before, 0)/runtime
	}
	return d
}
